package careers

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"iiot-site/internal/common/mail"
)

const noMessage = "No message provided"

type view struct {
	*Application
	MessageText string
}

var textTmpl = texttemplate.Must(texttemplate.New("application.txt").Parse(`New internship application received.

APPLICANT
Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}

DETAILS
Education: {{.Education}}
Area of Interest: {{.AreaOfInterest}}
Preferred Start Date: {{.StartDate}}

MESSAGE
{{.MessageText}}

Resume attached: {{.Resume.Filename}}
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("application.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
<h2>New Internship Application</h2>
<table cellpadding="4">
<tr><td><strong>Name:</strong></td><td>{{.Name}}</td></tr>
<tr><td><strong>Email:</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
<tr><td><strong>Phone:</strong></td><td>{{.Phone}}</td></tr>
<tr><td><strong>Education:</strong></td><td>{{.Education}}</td></tr>
<tr><td><strong>Area of Interest:</strong></td><td>{{.AreaOfInterest}}</td></tr>
<tr><td><strong>Preferred Start Date:</strong></td><td>{{.StartDate}}</td></tr>
</table>
<h3>Message</h3>
<p style="white-space: pre-wrap;">{{.MessageText}}</p>
<p><em>Resume attached: {{.Resume.Filename}}</em></p>
</body>
</html>
`))

func Subject(a *Application) string {
	return fmt.Sprintf("New Internship Application: %s - %s", a.Name, a.AreaOfInterest)
}

// Compose renders the notification with the resume as its only attachment.
func Compose(a *Application) (*mail.Message, error) {
	v := view{Application: a, MessageText: a.Message}
	if strings.TrimSpace(v.MessageText) == "" {
		v.MessageText = noMessage
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, v); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	return &mail.Message{
		Subject: Subject(a),
		Text:    text.String(),
		HTML:    html.String(),
		Attachments: []mail.Attachment{{
			Filename:    a.Resume.Filename,
			ContentType: a.Resume.ContentType,
			Content:     a.Resume.Content,
		}},
	}, nil
}
