package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const correlationHeader = "X-Correlation-Id"

// RouterOptions configures the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	// Metrics mounts request metrics and GET /metrics.
	Metrics bool
}

// Router builds the gin engine serving h.
func (h *Handler) Router(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(correlationID())
	router.Use(ginZapLogger(h.logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 || (len(opts.AllowedOrigins) == 1 && opts.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", correlationHeader}
	corsConfig.ExposeHeaders = []string{correlationHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Middleware only applies to routes registered after it.
	if opts.Metrics {
		p := ginprometheus.NewPrometheus("gin")
		p.Use(router)
	}

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.registerRoutes(router)
	return router
}

// correlationID reuses the caller's X-Correlation-Id or assigns a new one,
// and echoes it on the response.
func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationHeader, id)
		c.Header(correlationHeader, id)
		c.Next()
	}
}

// ginZapLogger logs one line per request. Probe and scrape paths are skipped.
func ginZapLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if path == "/health" || path == "/metrics" {
			return
		}
		statusCode := c.Writer.Status()
		fields := []zapcore.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("correlation_id", c.GetString(correlationHeader)),
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.Error("request handled", fields...)
		case statusCode >= http.StatusBadRequest:
			logger.Warn("request handled", fields...)
		default:
			logger.Info("request handled", fields...)
		}
	}
}
