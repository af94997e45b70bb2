package careers

import (
	htmltemplate "html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iiot-site/internal/common/mail"
)

func mustCompose(t *testing.T, a *Application) *mail.Message {
	t.Helper()
	msg, err := Compose(a)
	require.NoError(t, err)
	return msg
}

func johnSmith() *Application {
	return &Application{
		Name:           "John Smith",
		Email:          "john@uni.edu",
		Phone:          "555-0000",
		Education:      "BSc Electrical Engineering",
		AreaOfInterest: "Firmware",
		StartDate:      "2026-06-01",
		Message:        "I build LoRa nodes for fun.",
		Terms:          true,
		Resume:         Resume{Filename: "cv.pdf", ContentType: MIMEPDF, Content: []byte("%PDF-1.4")},
	}
}

func TestCompose(t *testing.T) {
	msg := mustCompose(t, johnSmith())

	assert.Equal(t, "New Internship Application: John Smith - Firmware", msg.Subject)
	for _, v := range []string{"John Smith", "john@uni.edu", "555-0000", "BSc Electrical Engineering",
		"Firmware", "2026-06-01", "I build LoRa nodes for fun.", "cv.pdf"} {
		assert.Contains(t, msg.Text, v)
		assert.Contains(t, msg.HTML, v)
	}

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "cv.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, MIMEPDF, msg.Attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), msg.Attachments[0].Content)
}

func TestCompose_NoMessage(t *testing.T) {
	a := johnSmith()
	a.Message = "  "

	msg := mustCompose(t, a)
	assert.Contains(t, msg.Text, "No message provided")
	assert.Contains(t, msg.HTML, "No message provided")
}

func TestCompose_RenderErrorIsReturned(t *testing.T) {
	saved := htmlTmpl
	t.Cleanup(func() { htmlTmpl = saved })
	htmlTmpl = htmltemplate.Must(htmltemplate.New("application.html").Parse("<p>{{.NoSuchField}}</p>"))

	msg, err := Compose(johnSmith())
	require.Error(t, err)
	assert.Nil(t, msg)
	assert.Contains(t, err.Error(), "render html body")
}
