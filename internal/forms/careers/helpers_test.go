package careers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"iiot-site/internal/common/mail"
	"iiot-site/internal/submission"
)

type fakeTransport struct {
	mu   sync.Mutex
	err  error
	sent []*mail.Message
}

func (f *fakeTransport) Send(_ context.Context, msg *mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

type upload struct {
	filename    string
	contentType string
	content     []byte
}

func pdfBytes(n int) []byte {
	b := bytes.Repeat([]byte("0"), n)
	copy(b, "%PDF-1.4\n")
	return b
}

func applicantValues() map[string]string {
	return map[string]string{
		FieldName:           "John Smith",
		FieldEmail:          "john@uni.edu",
		FieldPhone:          "555-0000",
		FieldEducation:      "BSc Electrical Engineering",
		FieldAreaOfInterest: "Firmware",
		FieldStartDate:      "2026-06-01",
		FieldMessage:        "I build LoRa nodes for fun.",
		FieldTerms:          ConsentMarker,
	}
}

func applicantForm(values map[string]string, file *upload) submission.Form {
	form := submission.Form{Values: map[string][]string{}, Files: map[string]*submission.File{}}
	for k, v := range values {
		form.Values[k] = []string{v}
	}
	if file != nil {
		form.Files[FieldResume] = &submission.File{
			Filename:    file.filename,
			ContentType: file.contentType,
			Size:        int64(len(file.content)),
			Content:     file.content,
		}
	}
	return form
}

func multipartBody(t *testing.T, values map[string]string, file *upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldResume, file.filename))
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
