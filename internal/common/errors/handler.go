// internal/common/errors/handler.go
package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler writes StandardErrors as JSON responses.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond logs err with full details and writes {"message": ...} without them.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := Normalize(err)
	status := stdErr.HTTPStatus()

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"method":        c.Request.Method,
			"path":          c.FullPath(),
			"errorCode":     string(stdErr.Code),
			"message":       stdErr.Message,
			"details":       stdErr.Details,
			"errorCategory": GetErrorCategory(stdErr.Code),
		})
	}

	c.AbortWithStatusJSON(status, gin.H{"message": stdErr.Message})
}

// Recovery converts panics into a generic 500.
func (h *ErrorHandler) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				h.Respond(c, NewInternalError(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
