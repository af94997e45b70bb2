package outbox

import (
	"context"
	"errors"
	"time"

	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/mail"
	"iiot-site/internal/common/metrics"
)

// Drainer re-sends queued envelopes on a fixed interval.
type Drainer struct {
	queue       *Queue
	transport   mail.Transport
	interval    time.Duration
	maxAttempts int
	logger      logger.Logger
}

func NewDrainer(queue *Queue, transport mail.Transport, interval time.Duration, maxAttempts int, log logger.Logger) *Drainer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Drainer{
		queue:       queue,
		transport:   transport,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      log,
	}
}

// Run drains once per interval until ctx is cancelled.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("Outbox drainer started", map[string]interface{}{
		"interval":    d.interval.String(),
		"maxAttempts": d.maxAttempts,
	})

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox drainer stopped", nil)
			return
		case <-ticker.C:
			if _, err := d.DrainOnce(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error("Outbox drain failed", map[string]interface{}{"error": err})
			}
		}
	}
}

// DrainOnce processes the envelopes queued when it starts. Requeued
// envelopes wait for the next pass.
func (d *Drainer) DrainOnce(ctx context.Context) (int, error) {
	pending, err := d.queue.Len(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for i := int64(0); i < pending; i++ {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}

		env, err := d.queue.Dequeue(ctx)
		if err != nil {
			d.logger.Error("Outbox dequeue failed", map[string]interface{}{"error": err})
			continue
		}
		if env == nil {
			break
		}

		if d.deliver(ctx, env) {
			delivered++
		}
	}
	return delivered, ctx.Err()
}

func (d *Drainer) deliver(ctx context.Context, env *Envelope) bool {
	fields := map[string]interface{}{
		"envelopeId":   env.ID,
		"submissionId": env.SubmissionID,
		"kind":         env.Kind,
	}

	err := d.transport.Send(ctx, env.Message)
	if err == nil {
		metrics.OutboxEventsTotal.WithLabelValues("delivered").Inc()
		d.logger.Info("Outbox notification delivered", fields)
		return true
	}

	// The envelope is already popped, so every push below must outlive ctx.
	pushCtx := context.WithoutCancel(ctx)

	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		metrics.OutboxEventsTotal.WithLabelValues("restored").Inc()
		d.logger.Info("Outbox delivery interrupted, envelope restored", fields)
		if reErr := d.queue.Restore(pushCtx, env); reErr != nil {
			d.logger.Error("Outbox restore failed", map[string]interface{}{"envelopeId": env.ID, "error": reErr})
		}
		return false
	}

	env.Attempts++
	env.LastError = err.Error()
	fields["attempts"] = env.Attempts
	fields["error"] = err

	if env.Attempts >= d.maxAttempts {
		metrics.OutboxEventsTotal.WithLabelValues("dead").Inc()
		d.logger.Error("Outbox notification exhausted retries", fields)
		if buryErr := d.queue.Bury(pushCtx, env); buryErr != nil {
			d.logger.Error("Outbox bury failed", map[string]interface{}{"envelopeId": env.ID, "error": buryErr})
		}
		return false
	}

	metrics.OutboxEventsTotal.WithLabelValues("requeued").Inc()
	d.logger.Warn("Outbox notification requeued", fields)
	if reErr := d.queue.Requeue(pushCtx, env); reErr != nil {
		d.logger.Error("Outbox requeue failed", map[string]interface{}{"envelopeId": env.ID, "error": reErr})
	}
	return false
}
