package careers

import (
	"mime"
	"strings"

	"iiot-site/internal/common/validation"
	"iiot-site/internal/submission"
)

// Validate checks required fields, email, terms consent and then the resume:
// presence, size, type. The first failure wins.
func Validate(form submission.Form) (*Application, *submission.Rejection) {
	values := make(map[string]string, len(requiredFields))
	for _, f := range requiredFields {
		values[f] = form.Get(f)
	}
	if missing := validation.MissingFields(values, requiredFields); len(missing) > 0 {
		return nil, reject(submission.ReasonMissingFields, MsgMissingFields, missing...)
	}

	email := form.Get(FieldEmail)
	if !validation.ValidateEmail(email) {
		return nil, reject(submission.ReasonInvalidEmail, MsgInvalidEmail, FieldEmail)
	}

	if form.Get(FieldTerms) != ConsentMarker {
		return nil, reject(submission.ReasonConsent, MsgTermsRequired, FieldTerms)
	}

	file := form.File(FieldResume)
	if file == nil || len(file.Content) == 0 {
		return nil, reject(submission.ReasonFileMissing, MsgResumeRequired, FieldResume)
	}
	if int64(len(file.Content)) > MaxResumeBytes || file.Size > MaxResumeBytes {
		return nil, reject(submission.ReasonFileTooLarge, MsgFileTooLarge, FieldResume)
	}
	contentType := mediaType(file.ContentType)
	if !allowedTypes[contentType] {
		return nil, reject(submission.ReasonFileType, MsgFileType, FieldResume)
	}

	return &Application{
		Name:           form.Get(FieldName),
		Email:          email,
		Phone:          form.Get(FieldPhone),
		Education:      form.Get(FieldEducation),
		AreaOfInterest: form.Get(FieldAreaOfInterest),
		StartDate:      form.Get(FieldStartDate),
		Message:        form.Get(FieldMessage),
		Terms:          true,
		Resume: Resume{
			Filename:    file.Filename,
			ContentType: contentType,
			Content:     file.Content,
		},
	}, nil
}

func reject(reason submission.RejectReason, msg string, fields ...string) *submission.Rejection {
	return &submission.Rejection{Reason: reason, Message: msg, Fields: fields}
}

// mediaType drops parameters such as charset.
func mediaType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}
