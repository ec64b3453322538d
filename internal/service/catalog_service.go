package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// CatalogService defines the interface for catalog business logic
type CatalogService interface {
	CreateCountry(ctx context.Context, req *dto.CreateCountryRequest) (*domain.Country, error)
	GetCountry(ctx context.Context, id string) (*domain.Country, error)
	ListCountries(ctx context.Context) ([]*domain.Country, error)

	CreateState(ctx context.Context, req *dto.CreateStateRequest) (*domain.State, error)
	CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	// CreateDestination stores a destination with at least one translation
	CreateDestination(ctx context.Context, req *dto.CreateDestinationRequest) (*domain.Destination, error)
	AddTranslation(ctx context.Context, destinationID string, req *dto.TranslationRequest) (*domain.Destination, error)
	UpdateDestination(ctx context.Context, id string, req *dto.UpdateDestinationRequest) (*domain.Destination, error)
	// DeleteDestination soft-deletes; existing booking items keep their reference
	DeleteDestination(ctx context.Context, id string) error
	GetDestination(ctx context.Context, id string) (*domain.Destination, error)
	GetDestinationBySlug(ctx context.Context, slug string) (*domain.Destination, error)
	ListDestinations(ctx context.Context, q *dto.ListDestinationsQuery) ([]*domain.Destination, error)
}

type catalogService struct {
	repo repository.CatalogRepository
	tx   repository.TxManager
	now  func() time.Time
}

// CatalogServiceConfig contains configuration for catalog service
type CatalogServiceConfig struct {
	Now func() time.Time
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repository.CatalogRepository, tx repository.TxManager, cfg *CatalogServiceConfig) CatalogService {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}
	return &catalogService{repo: repo, tx: tx, now: now}
}

func (s *catalogService) CreateCountry(ctx context.Context, req *dto.CreateCountryRequest) (*domain.Country, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.create_country")
	defer span.End()

	if req == nil || strings.TrimSpace(req.Name) == "" || len(strings.TrimSpace(req.ISO)) != 2 {
		return nil, domain.ErrInvalidCatalogInput
	}
	if len(strings.TrimSpace(req.Currency)) != 3 {
		return nil, domain.ErrInvalidCurrency
	}

	country := &domain.Country{
		ID:        uuid.New().String(),
		ISO:       strings.ToUpper(strings.TrimSpace(req.ISO)),
		Name:      strings.TrimSpace(req.Name),
		Flag:      req.Flag,
		PhoneCode: req.PhoneCode,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateCountry(ctx, country); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return country, nil
}

func (s *catalogService) GetCountry(ctx context.Context, id string) (*domain.Country, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.get_country")
	defer span.End()
	return s.repo.GetCountry(ctx, id)
}

func (s *catalogService) ListCountries(ctx context.Context) ([]*domain.Country, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.list_countries")
	defer span.End()
	return s.repo.ListCountries(ctx)
}

func (s *catalogService) CreateState(ctx context.Context, req *dto.CreateStateRequest) (*domain.State, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.create_state")
	defer span.End()

	if req == nil || req.CountryID == "" || strings.TrimSpace(req.Name) == "" {
		return nil, domain.ErrInvalidCatalogInput
	}
	if _, err := s.repo.GetCountry(ctx, req.CountryID); err != nil {
		return nil, err
	}

	state := &domain.State{
		ID:        uuid.New().String(),
		CountryID: req.CountryID,
		Name:      strings.TrimSpace(req.Name),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := s.repo.CreateState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*domain.Category, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.create_category")
	defer span.End()

	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, domain.ErrInvalidCatalogInput
	}
	code := req.Code
	if code == "" {
		code = domain.Slugify(req.Name)
	}

	category := &domain.Category{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(req.Name),
		Code: code,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.list_categories")
	defer span.End()
	return s.repo.ListCategories(ctx)
}

func (s *catalogService) CreateDestination(ctx context.Context, req *dto.CreateDestinationRequest) (*domain.Destination, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.create_destination")
	defer span.End()

	if req == nil || req.CategoryID == "" || req.StateID == "" || len(req.Translations) == 0 {
		return nil, domain.ErrInvalidCatalogInput
	}
	if !req.Price.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}

	state, err := s.repo.GetState(ctx, req.StateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	destination := domain.NewDestination(req.CategoryID, state.ID, state.CountryID, req.Price, s.now().UTC())
	for i := range req.Translations {
		t, err := newTranslation(destination.ID, &req.Translations[i])
		if err != nil {
			return nil, err
		}
		destination.Translations = append(destination.Translations, *t)
	}

	langs := lo.Map(destination.Translations, func(t domain.DestinationTranslation, _ int) string { return t.LanguageCode })
	if len(lo.Uniq(langs)) != len(langs) {
		return nil, domain.ErrInvalidLanguage
	}

	span.SetAttributes(
		attribute.String("destination_id", destination.ID),
		attribute.String("country_id", destination.CountryID),
	)

	if err := s.repo.CreateDestination(ctx, destination); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return destination, nil
}

func (s *catalogService) AddTranslation(ctx context.Context, destinationID string, req *dto.TranslationRequest) (*domain.Destination, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.add_translation")
	defer span.End()

	if req == nil {
		return nil, domain.ErrInvalidCatalogInput
	}
	if _, err := s.repo.GetDestination(ctx, destinationID); err != nil {
		return nil, err
	}

	t, err := newTranslation(destinationID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddTranslation(ctx, t); err != nil {
		return nil, err
	}
	return s.repo.GetDestination(ctx, destinationID)
}

func (s *catalogService) UpdateDestination(ctx context.Context, id string, req *dto.UpdateDestinationRequest) (*domain.Destination, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.update_destination")
	defer span.End()

	if req == nil {
		return nil, domain.ErrInvalidCatalogInput
	}

	var updated *domain.Destination
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		destination, err := s.repo.GetDestination(ctx, id)
		if err != nil {
			return err
		}
		if req.CategoryID != "" {
			if _, err := s.repo.GetCategory(ctx, req.CategoryID); err != nil {
				return err
			}
			destination.CategoryID = req.CategoryID
		}
		if req.StateID != "" {
			state, err := s.repo.GetState(ctx, req.StateID)
			if err != nil {
				return err
			}
			destination.StateID = state.ID
			destination.CountryID = state.CountryID
		}
		if req.Price != nil {
			if !req.Price.IsPositive() {
				return domain.ErrInvalidPrice
			}
			destination.Price = *req.Price
		}
		destination.UpdatedAt = s.now().UTC()

		if err := s.repo.UpdateDestination(ctx, destination); err != nil {
			return err
		}
		updated = destination
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return updated, nil
}

func (s *catalogService) DeleteDestination(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.delete_destination")
	defer span.End()
	return s.repo.SoftDeleteDestination(ctx, id, s.now().UTC())
}

func (s *catalogService) GetDestination(ctx context.Context, id string) (*domain.Destination, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.get_destination")
	defer span.End()
	return s.repo.GetDestination(ctx, id)
}

func (s *catalogService) GetDestinationBySlug(ctx context.Context, slug string) (*domain.Destination, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.get_destination_by_slug")
	defer span.End()
	return s.repo.GetDestinationBySlug(ctx, strings.ToLower(slug))
}

func (s *catalogService) ListDestinations(ctx context.Context, q *dto.ListDestinationsQuery) ([]*domain.Destination, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.list_destinations")
	defer span.End()

	filter := repository.DestinationFilter{Limit: 20}
	if q != nil {
		filter.CountryID = q.CountryID
		filter.CategoryID = q.CategoryID
		filter.Offset = q.Offset
		if q.Limit > 0 {
			filter.Limit = q.Limit
		}
	}
	return s.repo.ListDestinations(ctx, filter)
}

func newTranslation(destinationID string, req *dto.TranslationRequest) (*domain.DestinationTranslation, error) {
	lang := strings.ToLower(strings.TrimSpace(req.LanguageCode))
	if !domain.IsValidLanguage(lang) {
		return nil, domain.ErrInvalidLanguage
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidCatalogInput
	}
	slug := domain.Slugify(req.Slug)
	if slug == "" {
		slug = domain.Slugify(name)
	}

	return &domain.DestinationTranslation{
		ID:            uuid.New().String(),
		DestinationID: destinationID,
		LanguageCode:  lang,
		Name:          name,
		Slug:          slug,
		Description:   req.Description,
		Thumbnail:     req.Thumbnail,
		Images:        req.Images,
		DetailTour:    req.DetailTour,
		Facilities:    req.Facilities,
	}, nil
}
