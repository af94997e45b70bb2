package inquiry

import (
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/mail"
	"iiot-site/internal/common/observability"
	"iiot-site/internal/submission"
)

// Dependencies wires the quote pipeline. Outbox, FollowUps and Obs are optional.
type Dependencies struct {
	Repository *Repository
	Transport  mail.Transport
	Recipients mail.Recipients
	Sender     submission.Sender
	Outbox     submission.Enqueuer
	FollowUps  []submission.FollowUp
	Logger     logger.Logger
	Obs        *observability.Observability
}

// NewPipeline assembles validate, persist and notify for quote requests.
func NewPipeline(deps Dependencies) *submission.Pipeline[*Submission] {
	return &submission.Pipeline[*Submission]{
		Kind:           submission.KindInquiry,
		Purpose:        mail.PurposeQuote,
		SuccessMessage: MsgSuccess,
		Validate:       Validate,
		Persist:        deps.Repository.Insert,
		Compose:        Compose,
		Transport:      deps.Transport,
		Recipients:     deps.Recipients,
		Sender:         deps.Sender,
		Outbox:         deps.Outbox,
		FollowUps:      deps.FollowUps,
		Logger:         deps.Logger,
		Obs:            deps.Obs,
	}
}
