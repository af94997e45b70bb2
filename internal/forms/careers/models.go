// Package careers handles internship applications with a resume upload.
package careers

import "iiot-site/internal/submission"

// Application is a validated internship application.
type Application struct {
	Name           string
	Email          string
	Phone          string
	Education      string
	AreaOfInterest string
	StartDate      string
	Message        string
	Terms          bool
	Resume         Resume
}

// Resume is the uploaded file as received.
type Resume struct {
	Filename    string
	ContentType string
	Content     []byte
}

func (a *Application) Kind() submission.Kind  { return submission.KindApplication }
func (a *Application) SubmitterEmail() string { return a.Email }

const (
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldEducation      = "education"
	FieldAreaOfInterest = "areaOfInterest"
	FieldStartDate      = "startDate"
	FieldMessage        = "message"
	FieldTerms          = "terms"
	FieldResume         = "resume"
)

var requiredFields = []string{
	FieldName, FieldEmail, FieldPhone, FieldEducation,
	FieldAreaOfInterest, FieldStartDate, FieldTerms,
}

const (
	MsgMissingFields  = "Missing required fields"
	MsgInvalidEmail   = "Invalid email format"
	MsgTermsRequired  = "You must accept the terms and conditions"
	MsgResumeRequired = "Resume file is required"
	MsgFileTooLarge   = "File size must be less than 5MB"
	MsgFileType       = "Only PDF, DOC, and DOCX files are allowed"
	MsgSuccess        = "Application submitted successfully"
)

// MaxResumeBytes caps the upload size.
const MaxResumeBytes = 5 * 1024 * 1024

const (
	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedTypes = map[string]bool{
	MIMEPDF:  true,
	MIMEDOC:  true,
	MIMEDOCX: true,
}

const ConsentMarker = "on"
