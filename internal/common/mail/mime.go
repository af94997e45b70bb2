package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

const base64LineLen = 76

// Build renders msg as an RFC 5322 message with a multipart/mixed body:
// a multipart/alternative part (text, html) followed by base64 attachments.
func Build(msg *Message) ([]byte, error) {
	return buildAt(msg, time.Now())
}

func buildAt(msg *Message, now time.Time) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mixed := multipart.NewWriter(&body)

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, formatAddress("", addr))
	}

	headers := [][2]string{
		{"From", formatAddress(msg.FromName, msg.From)},
		{"To", strings.Join(to, ", ")},
	}
	if msg.ReplyTo != "" {
		headers = append(headers, [2]string{"Reply-To", formatAddress("", msg.ReplyTo)})
	}
	headers = append(headers,
		[2]string{"Subject", mime.QEncoding.Encode("utf-8", sanitizeHeader(msg.Subject))},
		[2]string{"Date", now.Format(time.RFC1123Z)},
		[2]string{"Message-ID", messageID(msg.From)},
		[2]string{"MIME-Version", "1.0"},
		[2]string{"Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mixed.Boundary()})},
	)

	var out bytes.Buffer
	for _, h := range headers {
		fmt.Fprintf(&out, "%s: %s\r\n", h[0], h[1])
	}
	out.WriteString("\r\n")

	altBoundary := multipart.NewWriter(io.Discard).Boundary()
	altPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": altBoundary})},
	})
	if err != nil {
		return nil, err
	}
	alt := multipart.NewWriter(altPart)
	if err := alt.SetBoundary(altBoundary); err != nil {
		return nil, err
	}

	if msg.Text != "" {
		if err := writeQuotedPrintable(alt, "text/plain; charset=UTF-8", msg.Text); err != nil {
			return nil, err
		}
	}
	if msg.HTML != "" {
		if err := writeQuotedPrintable(alt, "text/html; charset=UTF-8", msg.HTML); err != nil {
			return nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		if err := writeAttachment(mixed, a); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}

	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func writeQuotedPrintable(w *multipart.Writer, contentType, text string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(text)); err != nil {
		return err
	}
	return qp.Close()
}

func writeAttachment(w *multipart.Writer, a Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := sanitizeHeader(a.Filename)
	if filename == "" {
		filename = "attachment"
	}

	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(contentType, map[string]string{"name": filename})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": filename})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(a.Content)
	for len(encoded) > 0 {
		n := base64LineLen
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := io.WriteString(part, encoded[:n]+"\r\n"); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func formatAddress(name, addr string) string {
	return (&mail.Address{Name: sanitizeHeader(name), Address: sanitizeHeader(addr)}).String()
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = sanitizeHeader(from[at+1:])
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// sanitizeHeader drops CR and LF so user input cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, strings.TrimSpace(v))
}
