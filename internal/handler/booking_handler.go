package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/middleware"
	"github.com/bentansusanto/travel-api/pkg/response"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// AddDestination handles POST /bookings
// Merges the destination into the caller's open booking for its country
func (h *BookingHandler) AddDestination(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.add_destination")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	caller, ok := principal(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		return
	}

	var req dto.AddDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	visitDate, err := domain.ParseDate(req.VisitDate)
	if err != nil {
		span.RecordError(err)
		response.BadRequest(c, "visit_date must be formatted YYYY-MM-DD")
		return
	}

	span.SetAttributes(
		attribute.String("user_id", caller.UserID),
		attribute.String("destination_id", req.DestinationID),
		attribute.String("visit_date", req.VisitDate),
	)

	booking, err := h.bookingService.AddDestination(ctx, caller.UserID, req.DestinationID, visitDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.String("booking_id", booking.ID))
	response.Created(c, "Destination added to booking", booking)
}

// ListBookings handles GET /bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.list")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListBookings(ctx, caller.UserID)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Bookings retrieved", bookings)
}

// GetBooking handles GET /bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.get")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(ctx, c.Param("id"), caller.UserID)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Booking retrieved", booking)
}

// UpdateStatus handles PUT /bookings/:id/status
// Travellers may only cancel their own bookings; staff may change any
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.update_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	caller, ok := principal(c)
	if !ok {
		return
	}

	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	actor := domain.StaffActor
	if caller.Role == middleware.RoleTraveller {
		actor = domain.TravellerActor(caller.UserID)
	}

	span.SetAttributes(
		attribute.String("booking_id", c.Param("id")),
		attribute.String("status", req.Status),
		attribute.String("role", caller.Role),
	)

	booking, err := h.bookingService.SetStatus(ctx, c.Param("id"), domain.BookingStatus(req.Status), actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Success(c, "Booking status updated", booking)
}
