package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/response"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// SalesHandler serves the owner's sales reports
type SalesHandler struct {
	salesService service.SalesService
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(salesService service.SalesService) *SalesHandler {
	return &SalesHandler{salesService: salesService}
}

// ListSales handles GET /sales
func (h *SalesHandler) ListSales(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.sales.list")
	defer span.End()

	sales, err := h.salesService.List(ctx)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Sales retrieved", sales)
}

// Summary handles GET /sales/summary
func (h *SalesHandler) Summary(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.sales.summary")
	defer span.End()

	summary, err := h.salesService.Summary(ctx)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Sales summary retrieved", summary)
}

// Report handles GET /sales/report/:period
func (h *SalesHandler) Report(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.sales.report")
	defer span.End()

	period := c.Param("period")
	span.SetAttributes(attribute.String("period", period))

	buckets, err := h.salesService.Aggregate(ctx, period)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Sales report retrieved", dto.SalesReportResponse{Period: period, Buckets: buckets})
}
