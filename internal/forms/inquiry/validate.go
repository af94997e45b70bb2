package inquiry

import (
	"iiot-site/internal/common/validation"
	"iiot-site/internal/submission"
)

// Validate turns raw form values into a Submission or a typed rejection.
// Checks run in order: required fields, email, privacy consent, interest type.
func Validate(form submission.Form) (*Submission, *submission.Rejection) {
	values := make(map[string]string, len(requiredFields))
	for _, f := range requiredFields {
		values[f] = form.Get(f)
	}
	if missing := validation.MissingFields(values, requiredFields); len(missing) > 0 {
		return nil, &submission.Rejection{
			Reason:  submission.ReasonMissingFields,
			Message: MsgMissingFields,
			Fields:  missing,
		}
	}

	email := form.Get(FieldEmail)
	if !validation.ValidateEmail(email) {
		return nil, &submission.Rejection{
			Reason:  submission.ReasonInvalidEmail,
			Message: MsgInvalidEmail,
			Fields:  []string{FieldEmail},
		}
	}

	if form.Get(FieldPrivacy) != ConsentMarker {
		return nil, &submission.Rejection{
			Reason:  submission.ReasonConsent,
			Message: MsgPrivacyRequired,
			Fields:  []string{FieldPrivacy},
		}
	}

	interest := InterestType(form.Get(FieldInterestType))
	if !interest.Valid() {
		return nil, &submission.Rejection{
			Reason:  submission.ReasonInvalidChoice,
			Message: MsgInvalidInterestType,
			Fields:  []string{FieldInterestType},
		}
	}

	return &Submission{
		FirstName:    form.Get(FieldFirstName),
		LastName:     form.Get(FieldLastName),
		Email:        email,
		Phone:        form.Get(FieldPhone),
		Company:      form.Get(FieldCompany),
		JobTitle:     form.Get(FieldJobTitle),
		InterestType: interest,
		Industry:     form.Get(FieldIndustry),
		Timeline:     form.Get(FieldTimeline),
		Budget:       form.Get(FieldBudget),
		Products:     form.All(FieldProducts),
		Solutions:    form.All(FieldSolutions),
		Description:  form.Get(FieldDescription),
		Privacy:      true,
	}, nil
}
