package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/response"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// TouristHandler handles tourist registry HTTP requests
type TouristHandler struct {
	touristService service.TouristService
}

// NewTouristHandler creates a new tourist handler
func NewTouristHandler(touristService service.TouristService) *TouristHandler {
	return &TouristHandler{touristService: touristService}
}

// AddTourist handles POST /tourists
func (h *TouristHandler) AddTourist(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.tourist.add")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	caller, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateTouristRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(attribute.String("booking_id", req.BookingID))

	tourist, err := h.touristService.AddOne(ctx, req.BookingID, caller.UserID, req.Fields())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Created(c, "Tourist added", tourist)
}

// AddTourists handles POST /tourists/batch
// The batch is stored whole or not at all
func (h *TouristHandler) AddTourists(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.tourist.add_batch")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	caller, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateTouristsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("booking_id", req.BookingID),
		attribute.Int("count", len(req.Tourists)),
	)

	people := lo.Map(req.Tourists, func(t dto.TouristRequest, _ int) domain.TouristFields {
		return t.Fields()
	})
	tourists, err := h.touristService.AddMany(ctx, req.BookingID, caller.UserID, people)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Created(c, "Tourists added", tourists)
}

// ListTourists handles GET /tourists
func (h *TouristHandler) ListTourists(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.tourist.list")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	tourists, err := h.touristService.List(ctx, caller.UserID)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Tourists retrieved", tourists)
}

// GetTourist handles GET /tourists/:id
func (h *TouristHandler) GetTourist(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.tourist.get")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	tourist, err := h.touristService.Get(ctx, c.Param("id"), caller.UserID)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Tourist retrieved", tourist)
}

// UpdateTourist handles PUT /tourists/:id
func (h *TouristHandler) UpdateTourist(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.tourist.update")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	var req dto.TouristRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	tourist, err := h.touristService.Update(ctx, c.Param("id"), req.Fields(), caller.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Success(c, "Tourist updated", tourist)
}

// RemoveTourist handles DELETE /tourists/:id
func (h *TouristHandler) RemoveTourist(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.tourist.remove")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	if err := h.touristService.Remove(ctx, c.Param("id"), caller.UserID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Success(c, "Tourist removed", nil)
}
