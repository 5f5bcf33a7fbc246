package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/texture-inspector-go/internal/config"
	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
	"github.com/anime-shed/texture-inspector-go/internal/logger"
	"github.com/anime-shed/texture-inspector-go/internal/service"
	"github.com/anime-shed/texture-inspector-go/pkg/models"
)

func validateImageURL(imageURL string) error {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	return nil
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler wires the HTTP routes.
func NewHandler(evaluator service.EvaluationService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/evaluate", evaluateTextures(evaluator, cfg))

	return r
}

func evaluateTextures(svc service.EvaluationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		log := logger.WithComponent("transport")
		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing texture evaluation request")

		var req models.EvaluationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		for _, imageURL := range append([]string{req.ReferenceURL}, req.ImageURLs...) {
			if err := validateImageURL(imageURL); err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"url": imageURL,
					"ip":  c.ClientIP(),
				}).Error("Invalid image URL")
				respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
				return
			}
		}

		resp, err := svc.Evaluate(ctx, req)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"reference": req.ReferenceURL,
				"images":    len(req.ImageURLs),
				"ip":        c.ClientIP(),
			}).Error("Texture evaluation failed")
			respondError(c, apperrors.GetStatusCode(err), "evaluation failed", err)
			return
		}

		log.WithFields(logrus.Fields{
			"evaluation_id":      resp.ID,
			"images":             len(req.ImageURLs),
			"inconsistency":      resp.Scores.Inconsistency,
			"diversity":          resp.Scores.Diversity,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Texture evaluation request completed")

		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, apperrors.GetStatusCode(err.Err), "request processing failed", err)
		}
	}
}

func respondError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}
