package submission

import (
	"context"
	"time"
)

// MessagePublisher is satisfied by *camunda.Client.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error
}

// WorkflowFollowUp hands a notified submission to the workflow engine as a
// correlated message keyed by submission id.
type WorkflowFollowUp struct {
	publisher   MessagePublisher
	messageName string
	now         func() time.Time
}

func NewWorkflowFollowUp(publisher MessagePublisher, messageName string) *WorkflowFollowUp {
	if messageName == "" {
		messageName = "submission-received"
	}
	return &WorkflowFollowUp{publisher: publisher, messageName: messageName, now: time.Now}
}

func (w *WorkflowFollowUp) Name() string { return "workflow" }

func (w *WorkflowFollowUp) Handle(ctx context.Context, n Notice) error {
	return w.publisher.PublishMessage(ctx, w.messageName, n.SubmissionID, map[string]interface{}{
		"submissionId":   n.SubmissionID,
		"kind":           string(n.Kind),
		"submitterEmail": n.Record.SubmitterEmail(),
		"receivedAt":     w.now().UTC().Format(time.RFC3339),
	})
}
