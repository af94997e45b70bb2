// Package submission runs form submissions through validate, persist and
// notify, mapping each terminal state to an HTTP response.
package submission

import (
	"net/http"
	"strings"
)

// Kind discriminates submission variants.
type Kind string

const (
	KindInquiry     Kind = "inquiry"
	KindApplication Kind = "application"
)

// Record is a fully validated submission.
type Record interface {
	Kind() Kind
	SubmitterEmail() string
}

// RejectReason names the constraint a submission failed.
type RejectReason string

const (
	ReasonMissingFields RejectReason = "missing_fields"
	ReasonInvalidEmail  RejectReason = "invalid_email"
	ReasonConsent       RejectReason = "consent"
	ReasonInvalidChoice RejectReason = "invalid_choice"
	ReasonFileMissing   RejectReason = "file_missing"
	ReasonFileTooLarge  RejectReason = "file_too_large"
	ReasonFileType      RejectReason = "file_type"
)

// Rejection is the typed failure side of validation. Message is returned to
// the client verbatim.
type Rejection struct {
	Reason  RejectReason `json:"reason"`
	Message string       `json:"message"`
	Fields  []string     `json:"fields,omitempty"`
}

func (r *Rejection) Error() string {
	if len(r.Fields) == 0 {
		return r.Message
	}
	return r.Message + ": " + strings.Join(r.Fields, ", ")
}

// State is a pipeline position.
type State string

const (
	StateReceived             State = "received"
	StateValidated            State = "validated"
	StatePersisted            State = "persisted"
	StateNotified             State = "notified"
	StateResponded            State = "responded"
	StateRejectedValidation   State = "rejected_validation"
	StateRejectedPersistence  State = "rejected_persistence"
	StateRejectedNotification State = "rejected_notification"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	switch s {
	case StateResponded, StateRejectedValidation, StateRejectedPersistence, StateRejectedNotification:
		return true
	}
	return false
}

var transitions = map[State][]State{
	StateReceived:  {StateValidated, StateRejectedValidation},
	StateValidated: {StatePersisted, StateRejectedPersistence},
	StatePersisted: {StateNotified, StateRejectedNotification},
	StateNotified:  {StateResponded},
}

// CanTransition reports whether to may follow from.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Client-facing messages.
const (
	MsgDatabaseError       = "Database error"
	MsgSendFailed          = "Failed to send email"
	MsgInvalidRequest      = "Invalid request format"
	MsgInternalServerError = "Internal server error"
)

// Result is the outcome of one pipeline run.
type Result struct {
	State        State   `json:"-"`
	Status       int     `json:"-"`
	Message      string  `json:"message"`
	SubmissionID string  `json:"-"`
	Path         []State `json:"-"`
}

func statusFor(s State) int {
	switch s {
	case StateRejectedValidation:
		return http.StatusBadRequest
	case StateRejectedPersistence, StateRejectedNotification:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
