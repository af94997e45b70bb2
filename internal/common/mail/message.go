// Package mail composes MIME messages and delivers them over SMTP or SES.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrSendFailed wraps every transport-level delivery failure.
var ErrSendFailed = errors.New("MAIL_SEND_FAILED")

// Transport delivers a composed message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// Message is a fully composed outbound email.
type Message struct {
	From        string       `json:"from"`
	FromName    string       `json:"fromName,omitempty"`
	To          []string     `json:"to"`
	ReplyTo     string       `json:"replyTo,omitempty"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment carries raw bytes; encoding happens in Build.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// Validate checks the envelope before any network work.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("message has no sender")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("message has an empty recipient")
		}
	}
	if m.Subject == "" {
		return fmt.Errorf("message has no subject")
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("message has no body")
	}
	return nil
}

// Purpose selects which staff mailbox receives a notification.
type Purpose string

const (
	PurposeQuote      Purpose = "quote"
	PurposeInternship Purpose = "internship"
	PurposeContact    Purpose = "contact"
)

// Recipients resolves staff addresses. Contact is the fallback for every purpose.
type Recipients struct {
	Contact    string
	Quote      string
	Internship string
}

// For returns the purpose-specific address, falling back to Contact.
func (r Recipients) For(p Purpose) (string, error) {
	var addr string
	switch p {
	case PurposeQuote:
		addr = r.Quote
	case PurposeInternship:
		addr = r.Internship
	}
	if strings.TrimSpace(addr) == "" {
		addr = r.Contact
	}
	if strings.TrimSpace(addr) == "" {
		return "", fmt.Errorf("no recipient configured for %s notifications", p)
	}
	return strings.TrimSpace(addr), nil
}
