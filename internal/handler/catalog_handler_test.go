package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
)

func TestCatalogHandler_PublicReads(t *testing.T) {
	svc := newTestServices()
	svc.catalog.GetDestinationFunc = func(_ context.Context, id string) (*domain.Destination, error) {
		return &domain.Destination{ID: id}, nil
	}
	svc.catalog.GetDestinationBySlugFunc = func(_ context.Context, slug string) (*domain.Destination, error) {
		assert.Equal(t, "uluwatu-temple", slug)
		return &domain.Destination{ID: "dest-1"}, nil
	}
	categories := false
	svc.catalog.ListCategoriesFunc = func(context.Context) ([]*domain.Category, error) {
		categories = true
		return []*domain.Category{{ID: "cat-1", Name: "Nature", Code: "nature"}}, nil
	}
	var query *dto.ListDestinationsQuery
	svc.catalog.ListDestinationsFunc = func(_ context.Context, q *dto.ListDestinationsQuery) ([]*domain.Destination, error) {
		query = q
		return []*domain.Destination{}, nil
	}
	r := svc.router()

	w := doRequest(r, http.MethodGet, "/api/v1/countries", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/countries/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/destinations/dest-1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/destinations/slug/uluwatu-temple", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/destinations/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, categories, "categories must not be routed as a destination id")

	w = doRequest(r, http.MethodGet, "/api/v1/destinations?country_id=country-id&limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "country-id", query.CountryID)
	assert.Equal(t, 5, query.Limit)

	w = doRequest(r, http.MethodGet, "/api/v1/destinations?limit=500", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_CreateCountry(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		body           any
		serviceErr     error
		expectedStatus int
	}{
		{name: "admin creates", token: adminToken, body: dto.CreateCountryRequest{ISO: "JP", Name: "Japan", Currency: "JPY"}, expectedStatus: http.StatusCreated},
		{name: "owner creates", token: ownerToken, body: dto.CreateCountryRequest{ISO: "JP", Name: "Japan", Currency: "JPY"}, expectedStatus: http.StatusCreated},
		{name: "traveller forbidden", token: travellerToken, body: dto.CreateCountryRequest{ISO: "JP", Name: "Japan", Currency: "JPY"}, expectedStatus: http.StatusForbidden},
		{name: "anonymous", body: dto.CreateCountryRequest{ISO: "JP", Name: "Japan", Currency: "JPY"}, expectedStatus: http.StatusUnauthorized},
		{name: "bad iso", token: adminToken, body: dto.CreateCountryRequest{ISO: "JPN", Name: "Japan", Currency: "JPY"}, expectedStatus: http.StatusBadRequest},
		{name: "duplicate", token: adminToken, body: dto.CreateCountryRequest{ISO: "ID", Name: "Indonesia", Currency: "IDR"}, serviceErr: domain.ErrCountryExists, expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestServices()
			if tt.serviceErr != nil {
				svc.catalog.CreateCountryFunc = func(context.Context, *dto.CreateCountryRequest) (*domain.Country, error) {
					return nil, tt.serviceErr
				}
			}
			w := doRequest(svc.router(), http.MethodPost, "/api/v1/countries", tt.token, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestCatalogHandler_DestinationWrites(t *testing.T) {
	svc := newTestServices()
	var created *dto.CreateDestinationRequest
	svc.catalog.CreateDestinationFunc = func(_ context.Context, req *dto.CreateDestinationRequest) (*domain.Destination, error) {
		created = req
		return &domain.Destination{ID: "dest-1", Price: req.Price}, nil
	}
	r := svc.router()

	w := doRequest(r, http.MethodPost, "/api/v1/destinations", adminToken, `{
		"category_id": "cat-1",
		"state_id": "state-bali",
		"price": "500000",
		"translations": [{"language_code": "en", "name": "Uluwatu Temple"}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, created.Price.Equal(decimal.NewFromInt(500000)))
	assert.Equal(t, "Uluwatu Temple", created.Translations[0].Name)

	w = doRequest(r, http.MethodPost, "/api/v1/destinations", adminToken, `{"category_id":"cat-1","state_id":"s","price":"1","translations":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.catalog.AddTranslationFunc = func(context.Context, string, *dto.TranslationRequest) (*domain.Destination, error) {
		return nil, domain.ErrInvalidLanguage
	}
	w = doRequest(r, http.MethodPost, "/api/v1/destinations/dest-1/translations", adminToken,
		dto.TranslationRequest{LanguageCode: "fr", Name: "Temple d'Uluwatu"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/v1/destinations/dest-1", ownerToken, `{"price":"650000"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.catalog.DeleteDestinationFunc = func(context.Context, string) error { return domain.ErrDestinationNotFound }
	w = doRequest(r, http.MethodDelete, "/api/v1/destinations/missing", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/v1/destinations/dest-1", travellerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
