// Package inquiry handles the quote request form.
package inquiry

import "iiot-site/internal/submission"

type InterestType string

const (
	InterestHardware  InterestType = "hardware"
	InterestSolutions InterestType = "solutions"
	InterestBoth      InterestType = "both"
)

func (i InterestType) Valid() bool {
	switch i {
	case InterestHardware, InterestSolutions, InterestBoth:
		return true
	}
	return false
}

// Submission is a validated quote request.
type Submission struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Company      string
	JobTitle     string
	InterestType InterestType
	Industry     string
	Timeline     string
	Budget       string
	Products     []string
	Solutions    []string
	Description  string
	Privacy      bool
}

func (s *Submission) Kind() submission.Kind  { return submission.KindInquiry }
func (s *Submission) SubmitterEmail() string { return s.Email }

// Form field names.
const (
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldCompany      = "company"
	FieldJobTitle     = "jobTitle"
	FieldInterestType = "interestType"
	FieldIndustry     = "industry"
	FieldTimeline     = "timeline"
	FieldBudget       = "budget"
	FieldProducts     = "products"
	FieldSolutions    = "solutions"
	FieldDescription  = "description"
	FieldPrivacy      = "privacy"
)

var requiredFields = []string{
	FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldCompany,
	FieldJobTitle, FieldInterestType, FieldIndustry, FieldTimeline,
	FieldDescription, FieldPrivacy,
}

// Client-facing messages.
const (
	MsgMissingFields       = "Missing required fields"
	MsgInvalidEmail        = "Invalid email format"
	MsgPrivacyRequired     = "You must accept the privacy policy"
	MsgInvalidInterestType = "Invalid interest type"
	MsgSuccess             = "Quote request submitted successfully"
)

// ConsentMarker is the value a checked checkbox posts.
const ConsentMarker = "on"
