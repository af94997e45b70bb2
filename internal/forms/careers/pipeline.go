package careers

import (
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/mail"
	"iiot-site/internal/common/observability"
	"iiot-site/internal/submission"
)

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

// NewPipeline assembles validate, persist and notify for applications.
func NewPipeline(deps Dependencies) *submission.Pipeline[*Application] {
	return &submission.Pipeline[*Application]{
		Kind:           submission.KindApplication,
		Purpose:        mail.PurposeInternship,
		SuccessMessage: MsgSuccess,
		TooLarge:       reject(submission.ReasonFileTooLarge, MsgFileTooLarge, FieldResume),
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
