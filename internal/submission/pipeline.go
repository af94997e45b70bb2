package submission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/mail"
	"iiot-site/internal/common/metrics"
	"iiot-site/internal/common/observability"
	"iiot-site/internal/common/outbox"
)

const followUpTimeout = 5 * time.Second

// Enqueuer accepts notifications that failed synchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, env *outbox.Envelope) error
}

// Notice is what follow-ups receive once a submission is notified.
type Notice struct {
	Kind         Kind
	SubmissionID string
	Record       Record
}

// FollowUp is a best-effort side effect after a successful notification.
type FollowUp interface {
	Name() string
	Handle(ctx context.Context, n Notice) error
}

// Sender identifies the From header of staff notifications.
type Sender struct {
	Address string
	Name    string
}

// Pipeline sequences one submission kind. Validate and Compose are pure;
// Persist performs the single INSERT. TooLarge, when set, is the rejection
// for bodies cut off by the request size limit.
type Pipeline[R Record] struct {
	Kind           Kind
	Purpose        mail.Purpose
	SuccessMessage string
	TooLarge       *Rejection

	Validate func(Form) (R, *Rejection)
	Persist  func(ctx context.Context, id string, rec R) error
	Compose  func(rec R) (*mail.Message, error)

	Transport  mail.Transport
	Recipients mail.Recipients
	Sender     Sender
	Outbox     Enqueuer
	FollowUps  []FollowUp

	Logger logger.Logger
	Obs    *observability.Observability

	pending sync.WaitGroup
}

type run struct {
	kind   Kind
	id     string
	state  State
	path   []State
	since  time.Time
	span   trace.Span
	obs    *observability.Observability
	logger logger.Logger
}

func (r *run) to(ctx context.Context, next State) {
	if !CanTransition(r.state, next) {
		panic(fmt.Sprintf("submission: illegal transition %s -> %s", r.state, next))
	}
	stage := string(r.state)
	r.state = next
	r.path = append(r.path, next)
	r.span.AddEvent(string(next))
	if r.obs != nil {
		r.obs.RecordStage(ctx, string(r.kind), stage, string(next), time.Since(r.since))
	}
	r.since = time.Now()
}

// Run executes the pipeline and returns the response to send.
func (p *Pipeline[R]) Run(ctx context.Context, form Form) Result {
	return p.track(ctx, func(ctx context.Context, r *run) Result {
		return p.execute(ctx, r, form)
	})
}

// RejectOversized answers a body that exceeded the size limit. It reports
// false when the kind has no dedicated rejection.
func (p *Pipeline[R]) RejectOversized(ctx context.Context) (Result, bool) {
	if p.TooLarge == nil {
		return Result{}, false
	}
	return p.track(ctx, func(ctx context.Context, r *run) Result {
		return p.reject(ctx, r, p.TooLarge)
	}), true
}

// Wait blocks until dispatched follow-ups have finished.
func (p *Pipeline[R]) Wait() {
	p.pending.Wait()
}

func (p *Pipeline[R]) track(ctx context.Context, body func(context.Context, *run) Result) Result {
	start := time.Now()
	id := uuid.NewString()

	var tracer trace.Tracer = noop.NewTracerProvider().Tracer("")
	if p.Obs != nil {
		tracer = p.Obs.Tracer()
	}
	ctx, span := tracer.Start(ctx, "submission."+string(p.Kind), trace.WithAttributes(
		attribute.String("submission.kind", string(p.Kind)),
		attribute.String("submission.id", id),
	))
	defer span.End()

	log := p.Logger.WithFields(map[string]interface{}{
		"kind":         string(p.Kind),
		"submissionId": id,
	})
	r := &run{kind: p.Kind, id: id, state: StateReceived, path: []State{StateReceived}, since: start, span: span, obs: p.Obs, logger: log}

	result := body(ctx, r)
	result.SubmissionID = id
	result.Path = r.path
	result.State = r.state
	result.Status = statusFor(r.state)

	outcome := string(r.state)
	metrics.SubmissionsTotal.WithLabelValues(string(p.Kind), outcome).Inc()
	metrics.SubmissionDuration.WithLabelValues(string(p.Kind)).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("submission.state", outcome))
	if result.Status >= 500 {
		span.SetStatus(codes.Error, result.Message)
	}

	log.Info("Submission finished", map[string]interface{}{
		"state":      outcome,
		"status":     result.Status,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return result
}

func (p *Pipeline[R]) execute(ctx context.Context, r *run, form Form) Result {
	rec, rejection := p.Validate(form)
	if rejection != nil {
		return p.reject(ctx, r, rejection)
	}
	r.to(ctx, StateValidated)

	if err := p.Persist(ctx, r.id, rec); err != nil {
		r.to(ctx, StateRejectedPersistence)
		r.logger.Error("Submission persistence failed", map[string]interface{}{"error": err})
		return Result{Message: MsgDatabaseError}
	}
	r.to(ctx, StatePersisted)

	msg, err := p.message(rec)
	if err == nil {
		err = p.Transport.Send(ctx, msg)
	}
	if err != nil {
		r.to(ctx, StateRejectedNotification)
		r.logger.Error("Submission notification failed", map[string]interface{}{"error": err})
		if msg != nil {
			p.enqueue(ctx, r, msg)
		}
		return Result{Message: MsgSendFailed}
	}
	r.to(ctx, StateNotified)
	r.to(ctx, StateResponded)

	p.dispatchFollowUps(ctx, r, rec)
	return Result{Message: p.SuccessMessage}
}

func (p *Pipeline[R]) reject(ctx context.Context, r *run, rejection *Rejection) Result {
	r.to(ctx, StateRejectedValidation)
	r.logger.Info("Submission rejected", map[string]interface{}{
		"reason": string(rejection.Reason),
		"fields": rejection.Fields,
	})
	return Result{Message: rejection.Message}
}

func (p *Pipeline[R]) message(rec R) (*mail.Message, error) {
	to, err := p.Recipients.For(p.Purpose)
	if err != nil {
		return nil, err
	}
	msg, err := p.Compose(rec)
	if err != nil {
		return nil, fmt.Errorf("compose notification: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("composer returned no message")
	}
	msg.From = p.Sender.Address
	msg.FromName = p.Sender.Name
	msg.To = []string{to}
	msg.ReplyTo = rec.SubmitterEmail()
	return msg, nil
}

func (p *Pipeline[R]) enqueue(ctx context.Context, r *run, msg *mail.Message) {
	if p.Outbox == nil {
		return
	}
	env := &outbox.Envelope{
		Kind:         string(p.Kind),
		SubmissionID: r.id,
		Message:      msg,
		Attempts:     1,
	}
	if err := p.Outbox.Enqueue(context.WithoutCancel(ctx), env); err != nil {
		r.logger.Error("Outbox enqueue failed", map[string]interface{}{"error": err})
		return
	}
	r.span.AddEvent("outbox.enqueued")
	r.logger.Warn("Notification queued for retry", map[string]interface{}{"envelopeId": env.ID})
}

// dispatchFollowUps runs the hooks in the background so slow integrations
// never delay the response. Each hook gets its own timeout.
func (p *Pipeline[R]) dispatchFollowUps(ctx context.Context, r *run, rec R) {
	if len(p.FollowUps) == 0 {
		return
	}
	notice := Notice{Kind: p.Kind, SubmissionID: r.id, Record: rec}
	base := context.WithoutCancel(ctx)
	log := r.logger

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		for _, f := range p.FollowUps {
			fctx, cancel := context.WithTimeout(base, followUpTimeout)
			err := f.Handle(fctx, notice)
			cancel()
			if err != nil {
				metrics.FollowUpFailuresTotal.WithLabelValues(string(notice.Kind), f.Name()).Inc()
				log.Warn("Follow-up failed", map[string]interface{}{
					"followUp": f.Name(),
					"error":    err,
				})
			}
		}
	}()
}
