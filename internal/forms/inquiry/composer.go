package inquiry

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"iiot-site/internal/common/mail"
)

const (
	noneSpecified = "None specified"
	notSpecified  = "Not specified"
)

type view struct {
	*Submission
	BudgetText   string
	ProductList  []string
	SolutionList []string
}

var textTmpl = texttemplate.Must(texttemplate.New("inquiry.txt").Parse(`New quote request received.

CONTACT
Name: {{.FirstName}} {{.LastName}}
Email: {{.Email}}
Phone: {{.Phone}}
Company: {{.Company}}
Job Title: {{.JobTitle}}

PROJECT
Interest: {{.InterestType}}
Industry: {{.Industry}}
Timeline: {{.Timeline}}
Budget: {{.BudgetText}}

PRODUCTS
{{range .ProductList}}- {{.}}
{{end}}
SOLUTIONS
{{range .SolutionList}}- {{.}}
{{end}}
DESCRIPTION
{{.Description}}
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("inquiry.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
<h2>New Quote Request</h2>
<h3>Contact</h3>
<table cellpadding="4">
<tr><td><strong>Name:</strong></td><td>{{.FirstName}} {{.LastName}}</td></tr>
<tr><td><strong>Email:</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
<tr><td><strong>Phone:</strong></td><td>{{.Phone}}</td></tr>
<tr><td><strong>Company:</strong></td><td>{{.Company}}</td></tr>
<tr><td><strong>Job Title:</strong></td><td>{{.JobTitle}}</td></tr>
</table>
<h3>Project</h3>
<table cellpadding="4">
<tr><td><strong>Interest:</strong></td><td>{{.InterestType}}</td></tr>
<tr><td><strong>Industry:</strong></td><td>{{.Industry}}</td></tr>
<tr><td><strong>Timeline:</strong></td><td>{{.Timeline}}</td></tr>
<tr><td><strong>Budget:</strong></td><td>{{.BudgetText}}</td></tr>
</table>
<h3>Products</h3>
<ul>{{range .ProductList}}<li>{{.}}</li>{{end}}</ul>
<h3>Solutions</h3>
<ul>{{range .SolutionList}}<li>{{.}}</li>{{end}}</ul>
<h3>Description</h3>
<p style="white-space: pre-wrap;">{{.Description}}</p>
</body>
</html>
`))

// Subject formats the notification subject line.
func Subject(s *Submission) string {
	return fmt.Sprintf("New Quote Request: %s %s (%s)", s.FirstName, s.LastName, s.Company)
}

// Compose renders the staff notification. Addressing is left to the caller.
func Compose(s *Submission) (*mail.Message, error) {
	v := view{
		Submission:   s,
		BudgetText:   orDefault(s.Budget, notSpecified),
		ProductList:  listOrNone(s.Products),
		SolutionList: listOrNone(s.Solutions),
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, v); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	return &mail.Message{
		Subject: Subject(s),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func listOrNone(items []string) []string {
	if len(items) == 0 {
		return []string{noneSpecified}
	}
	return items
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
