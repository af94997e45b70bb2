package careers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/mail"
	"iiot-site/internal/submission"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type endpoint struct {
	router    *gin.Engine
	mock      sqlmock.Sqlmock
	transport *fakeTransport
}

func newEndpoint(t *testing.T) *endpoint {
	t.Helper()
	return newEndpointWithLimits(t, submission.Limits{})
}

func newEndpointWithLimits(t *testing.T, limits submission.Limits) *endpoint {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	transport := &fakeTransport{}
	p := NewPipeline(Dependencies{
		Repository: NewRepository(db, log),
		Transport:  transport,
		Recipients: mail.Recipients{Contact: "info@iiot.example"},
		Sender:     submission.Sender{Address: "web@iiot.example", Name: "IIoT Website"},
		Logger:     log,
	})

	r := gin.New()
	r.POST("/api/careers", submission.Handler(p, limits, log))
	return &endpoint{router: r, mock: mock, transport: transport}
}

func (e *endpoint) post(t *testing.T, values map[string]string, file *upload) (int, string) {
	t.Helper()
	body, ct := multipartBody(t, values, file)
	req := httptest.NewRequest(http.MethodPost, "/api/careers", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp["message"]
}

func expectInsert(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO resumeform`).
		WithArgs(sqlmock.AnyArg(), "John Smith", "john@uni.edu", "555-0000", "BSc Electrical Engineering",
			"Firmware", "2026-06-01", "cv.pdf", MIMEPDF, "I build LoRa nodes for fun.",
			sqlmock.AnyArg(), true)
}

func TestCareers_Success(t *testing.T) {
	e := newEndpoint(t)
	expectInsert(e.mock).WillReturnResult(sqlmock.NewResult(0, 1))

	status, message := e.post(t, applicantValues(), &upload{"cv.pdf", MIMEPDF, pdfBytes(2048)})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, MsgSuccess, message)
	assert.NoError(t, e.mock.ExpectationsWereMet())

	require.Len(t, e.transport.sent, 1)
	msg := e.transport.sent[0]
	assert.Equal(t, []string{"info@iiot.example"}, msg.To)
	assert.Equal(t, "john@uni.edu", msg.ReplyTo)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, pdfBytes(2048), msg.Attachments[0].Content)
}

func TestCareers_OversizedPDF(t *testing.T) {
	e := newEndpoint(t)

	status, message := e.post(t, applicantValues(), &upload{"cv.pdf", MIMEPDF, pdfBytes(6 * 1024 * 1024)})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "File size must be less than 5MB", message)
	assert.NoError(t, e.mock.ExpectationsWereMet())
	assert.Empty(t, e.transport.sent)
}

func TestCareers_ExecutableRejected(t *testing.T) {
	e := newEndpoint(t)

	status, message := e.post(t, applicantValues(), &upload{"setup.exe", "application/x-msdownload", []byte("MZ\x90\x00")})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Only PDF, DOC, and DOCX files are allowed", message)
	assert.NoError(t, e.mock.ExpectationsWereMet())
	assert.Empty(t, e.transport.sent)
}

func TestCareers_MissingField(t *testing.T) {
	e := newEndpoint(t)
	values := applicantValues()
	delete(values, FieldEducation)

	status, message := e.post(t, values, &upload{"cv.pdf", MIMEPDF, pdfBytes(10)})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MsgMissingFields, message)
	assert.NoError(t, e.mock.ExpectationsWereMet())
	assert.Empty(t, e.transport.sent)
}

func TestCareers_MissingResume(t *testing.T) {
	e := newEndpoint(t)

	status, message := e.post(t, applicantValues(), nil)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MsgResumeRequired, message)
}

func TestCareers_InsertErrorSkipsSend(t *testing.T) {
	e := newEndpoint(t)
	expectInsert(e.mock).WillReturnError(errors.New("pq: connection refused"))

	status, message := e.post(t, applicantValues(), &upload{"cv.pdf", MIMEPDF, pdfBytes(100)})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Database error", message)
	assert.Empty(t, e.transport.sent)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCareers_SendErrorAfterInsert(t *testing.T) {
	e := newEndpoint(t)
	e.transport.err = errors.New("dial tcp: i/o timeout")
	expectInsert(e.mock).WillReturnResult(sqlmock.NewResult(0, 1))

	status, message := e.post(t, applicantValues(), &upload{"cv.pdf", MIMEPDF, pdfBytes(100)})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to send email", message)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCareers_ResumeOverBodyLimit(t *testing.T) {
	// Default limits: 12 MB body, 8 MB in memory.
	e := newEndpoint(t)

	status, message := e.post(t, applicantValues(), &upload{"cv.pdf", MIMEPDF, pdfBytes(13 << 20)})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MsgFileTooLarge, message)
	assert.Empty(t, e.transport.sent)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCareers_ResumeOverConfiguredLimit(t *testing.T) {
	e := newEndpointWithLimits(t, submission.Limits{MaxBodyBytes: 1 << 20, MaxMemoryBytes: 256 << 10})

	status, message := e.post(t, applicantValues(), &upload{"cv.pdf", MIMEPDF, pdfBytes(2 << 20)})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MsgFileTooLarge, message)
	assert.Empty(t, e.transport.sent)
}
