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

// CatalogHandler handles country and destination HTTP requests
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCountries handles GET /countries
func (h *CatalogHandler) ListCountries(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.list_countries")
	defer span.End()

	countries, err := h.catalogService.ListCountries(ctx)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Countries retrieved", countries)
}

// GetCountry handles GET /countries/:id
func (h *CatalogHandler) GetCountry(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.get_country")
	defer span.End()

	country, err := h.catalogService.GetCountry(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Country retrieved", country)
}

// CreateCountry handles POST /countries
func (h *CatalogHandler) CreateCountry(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.create_country")
	defer span.End()

	var req dto.CreateCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	country, err := h.catalogService.CreateCountry(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Created(c, "Country created", country)
}

// ListDestinations handles GET /destinations
func (h *CatalogHandler) ListDestinations(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.list_destinations")
	defer span.End()

	var q dto.ListDestinationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("country_id", q.CountryID),
		attribute.String("category_id", q.CategoryID),
	)

	destinations, err := h.catalogService.ListDestinations(ctx, &q)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Destinations retrieved", destinations)
}

// GetDestination handles GET /destinations/:id
func (h *CatalogHandler) GetDestination(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.get_destination")
	defer span.End()

	destination, err := h.catalogService.GetDestination(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Destination retrieved", destination)
}

// GetDestinationBySlug handles GET /destinations/slug/:slug
func (h *CatalogHandler) GetDestinationBySlug(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.get_destination_by_slug")
	defer span.End()

	destination, err := h.catalogService.GetDestinationBySlug(ctx, c.Param("slug"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Destination retrieved", destination)
}

// ListCategories handles GET /destinations/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.list_categories")
	defer span.End()

	categories, err := h.catalogService.ListCategories(ctx)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Categories retrieved", categories)
}

// CreateDestination handles POST /destinations
func (h *CatalogHandler) CreateDestination(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.create_destination")
	defer span.End()

	var req dto.CreateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	destination, err := h.catalogService.CreateDestination(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Created(c, "Destination created", destination)
}

// AddTranslation handles POST /destinations/:id/translations
func (h *CatalogHandler) AddTranslation(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.add_translation")
	defer span.End()

	var req dto.TranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	destination, err := h.catalogService.AddTranslation(ctx, c.Param("id"), &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Created(c, "Translation added", destination)
}

// UpdateDestination handles PUT /destinations/:id
func (h *CatalogHandler) UpdateDestination(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.update_destination")
	defer span.End()

	var req dto.UpdateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	destination, err := h.catalogService.UpdateDestination(ctx, c.Param("id"), &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Success(c, "Destination updated", destination)
}

// DeleteDestination handles DELETE /destinations/:id
func (h *CatalogHandler) DeleteDestination(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.delete_destination")
	defer span.End()

	if err := h.catalogService.DeleteDestination(ctx, c.Param("id")); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}
	response.Success(c, "Destination deleted", nil)
}
