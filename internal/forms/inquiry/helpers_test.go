package inquiry

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/mail"
)

// ==========================
// Test logger
// ==========================

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	base    map[string]interface{}
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) log(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, fields: merged})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.log("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.log("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.log("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.log("error", msg, fields) }

func (l *recordingLogger) WithFields(fields map[string]interface{}) logger.Logger {
	merged := make(map[string]interface{}, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{mu: l.mu, entries: l.entries, base: merged}
}

func (l *recordingLogger) WithError(err error) logger.Logger {
	return l.WithFields(map[string]interface{}{"error": err})
}

func (l *recordingLogger) With(fields map[string]interface{}) logger.Logger {
	return l.WithFields(fields)
}

func (l *recordingLogger) find(level, msg string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == level && e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

// ==========================
// Transport
// ==========================

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

// ==========================
// Multipart
// ==========================

func multipartForm(t *testing.T, values map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
