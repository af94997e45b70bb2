package submission

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iiot-site/internal/common/logger"
)

// Runner is implemented by *Pipeline[R] for any record type.
type Runner interface {
	Run(ctx context.Context, form Form) Result
	RejectOversized(ctx context.Context) (Result, bool)
}

// Limits bounds request parsing.
type Limits struct {
	MaxBodyBytes   int64
	MaxMemoryBytes int64
}

// Handler parses a multipart body and runs it through r.
func Handler(r Runner, limits Limits, log logger.Logger) gin.HandlerFunc {
	if limits.MaxBodyBytes <= 0 {
		limits.MaxBodyBytes = 12 << 20
	}
	if limits.MaxMemoryBytes <= 0 {
		limits.MaxMemoryBytes = 8 << 20
	}

	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.MaxBodyBytes)

		if err := c.Request.ParseMultipartForm(limits.MaxMemoryBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				if res, ok := r.RejectOversized(c.Request.Context()); ok {
					c.JSON(res.Status, gin.H{"message": res.Message})
					return
				}
			}
			log.Warn("Malformed submission body", map[string]interface{}{
				"path":  c.FullPath(),
				"error": err,
			})
			c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequest})
			return
		}
		defer c.Request.MultipartForm.RemoveAll() //nolint:errcheck

		form, err := FormFromMultipart(c.Request.MultipartForm)
		if err != nil {
			log.Warn("Unreadable upload", map[string]interface{}{
				"path":  c.FullPath(),
				"error": err,
			})
			c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequest})
			return
		}

		res := r.Run(c.Request.Context(), form)
		c.JSON(res.Status, gin.H{"message": res.Message})
	}
}
