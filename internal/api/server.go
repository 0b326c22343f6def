// Package api exposes the aggregated archive over HTTP.
package api

import (
	"context"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/app"
	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/Adda-Baaj/khobor-reader/internal/logger"
	"github.com/Adda-Baaj/khobor-reader/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Reader is the read surface of a session plus its boundary signal.
type Reader interface {
	SortedDateKeys() []domain.DateKey
	Bucket(key domain.DateKey) []domain.Article
	Status() app.Status
	Signal() bool
	TestConnection(ctx context.Context) app.ConnectionResult
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(reader Reader, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.Ensure(log)))

	RegisterHealthRoutes(r)
	RegisterNewsRoutes(r, reader)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	return r
}

// requestLogger logs each request at debug level through the structured logger.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.DebugObj("http request", "http_request", map[string]any{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
	}
}
