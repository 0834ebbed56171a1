package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Joke-rk/line-cloud-bot/internal/line"
	"github.com/Joke-rk/line-cloud-bot/internal/usecase"
)

// EventHandler is the dispatcher surface the webhook needs.
type EventHandler interface {
	HandleEvents(ctx context.Context, events []line.Event) []error
	GetMetricsSummary() usecase.MetricsSummary
}

// ReadinessReporter exposes the model readiness flag for health reporting.
type ReadinessReporter interface {
	Ready() bool
}

// RegisterRoutes wires the HTTP handlers to the Gin router. signature is
// the webhook body verification middleware.
func RegisterRoutes(router *gin.Engine, dispatcher EventHandler, model ReadinessReporter, signature gin.HandlerFunc, logger *zap.Logger) {
	log := logger.Named("http")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"model_ready": model.Ready(),
			"dispatch":    dispatcher.GetMetricsSummary(),
		})
	})

	// Liveness probe used by the platform's webhook verification.
	router.GET("/webhook", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.POST("/webhook", signature, func(c *gin.Context) {
		var req line.WebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			// The platform expects 200 regardless; a malformed batch is
			// only a log line.
			log.Warn("webhook body rejected", zap.Error(err))
			c.Status(http.StatusOK)
			return
		}

		// Acknowledge before processing; outcomes surface via the reply
		// side-effect, never via this response.
		go dispatcher.HandleEvents(context.Background(), req.Events)

		c.Status(http.StatusOK)
	})
}
