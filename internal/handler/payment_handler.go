package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/response"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePayment handles POST /payments
// Opens a processor order for the booking and returns its approval link
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	caller, ok := principal(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("user_id", caller.UserID),
		attribute.String("booking_id", req.BookingID),
		attribute.String("payment_method", req.Method),
	)

	payment, err := h.paymentService.CreatePayment(ctx, caller.UserID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("payment_id", payment.ID),
		attribute.String("invoice_code", payment.InvoiceCode),
	)
	response.Created(c, "Payment created", payment)
}

// CapturePayment handles POST /payments/capture/:orderId
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.capture")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if _, ok := principal(c); !ok {
		return
	}

	orderID := c.Param("orderId")
	span.SetAttributes(attribute.String("order_id", orderID))

	payment, err := h.paymentService.CapturePayment(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Success(c, "Payment captured", payment)
}

// CancelPayment handles POST /payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.cancel")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.CancelPayment(ctx, caller.UserID, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Success(c, "Payment cancelled", payment)
}

// ListPayments handles GET /payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.list")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListPayments(ctx, caller.UserID)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Payments retrieved", payments)
}

// GetPayment handles GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.get")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(ctx, c.Param("id"), caller.UserID)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Payment retrieved", payment)
}
