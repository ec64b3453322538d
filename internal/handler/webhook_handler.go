package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// maxWebhookBody caps processor payloads
const maxWebhookBody = 1 << 20

// WebhookHandler receives processor notifications. Processors retry on any
// non-2xx answer, so every delivery is acknowledged with 200 and the outcome
// is only reported in the body.
type WebhookHandler struct {
	paymentService service.PaymentService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(paymentService service.PaymentService) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService}
}

// HandleWebhook handles POST /payments/webhook and /payments/webhook/:method
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.webhook")
	defer span.End()

	method := c.Param("method")
	span.SetAttributes(attribute.String("payment_method", method))

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		span.RecordError(err)
		logger.Get().WarnContext(ctx, "Failed to read webhook body", zap.String("method", method), zap.Error(err))
		c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Outcome: string(service.WebhookFailed)})
		return
	}

	outcome := h.paymentService.HandleWebhook(ctx, method, payload, c.Request.Header)
	span.SetAttributes(attribute.String("outcome", string(outcome)))

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Outcome: string(outcome)})
}
