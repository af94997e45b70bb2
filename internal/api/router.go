// Package api assembles the gin engine: middleware, form endpoints, catalog
// routes, health checks and metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"iiot-site/internal/catalog"
	apperrors "iiot-site/internal/common/errors"
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/metrics"
	"iiot-site/internal/submission"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the router. Catalog and AdminAuth are optional; admin routes
// are mounted only when both are set.
type Options struct {
	Inquiry        submission.Runner
	Careers        submission.Runner
	Catalog        *catalog.Handler
	AdminAuth      gin.HandlerFunc
	Limits         submission.Limits
	AllowedOrigins []string
	Ready          map[string]Pinger
	ErrorHandler   *apperrors.ErrorHandler
	Logger         logger.Logger
	MetricsHandler http.Handler
}

func NewRouter(opts Options) *gin.Engine {
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}

	r := gin.New()
	r.Use(opts.ErrorHandler.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(accessLog(opts.Logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", ready(opts.Ready))
	r.GET("/metrics", gin.WrapH(opts.MetricsHandler))

	api := r.Group("/api")
	api.POST("/inquiry", submission.Handler(opts.Inquiry, opts.Limits, opts.Logger))
	api.POST("/careers", submission.Handler(opts.Careers, opts.Limits, opts.Logger))

	if opts.Catalog != nil {
		opts.Catalog.RegisterPublic(api)
		if opts.AdminAuth != nil {
			admin := api.Group("/admin")
			admin.Use(opts.AdminAuth)
			opts.Catalog.RegisterAdmin(admin)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		opts.ErrorHandler.Respond(c, apperrors.NewNotFoundError("Route", c.Request.URL.Path))
	})
	return r
}

func ready(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		failed := map[string]string{}
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func accessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Health checks and scrapes are too frequent to log.
		switch c.Request.URL.Path {
		case "/health", "/ready", "/metrics":
			return
		}
		log.Info("HTTP request", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"clientIp":   c.ClientIP(),
		})
	}
}
