package service

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// TouristService defines the interface for the tourist registry
type TouristService interface {
	AddOne(ctx context.Context, bookingID, userID string, person domain.TouristFields) (*domain.Tourist, error)
	// AddMany inserts every person or none
	AddMany(ctx context.Context, bookingID, userID string, people []domain.TouristFields) ([]*domain.Tourist, error)
	Update(ctx context.Context, touristID string, fields domain.TouristFields, userID string) (*domain.Tourist, error)
	Remove(ctx context.Context, touristID, userID string) error
	List(ctx context.Context, userID string) ([]*domain.Tourist, error)
	Get(ctx context.Context, touristID, userID string) (*domain.Tourist, error)
}

type touristService struct {
	bookings repository.BookingRepository
	tourists repository.TouristRepository
	tx       repository.TxManager
	now      func() time.Time
}

// TouristServiceConfig contains configuration for tourist service
type TouristServiceConfig struct {
	Now func() time.Time
}

// NewTouristService creates a new tourist service
func NewTouristService(
	bookings repository.BookingRepository,
	tourists repository.TouristRepository,
	tx repository.TxManager,
	cfg *TouristServiceConfig,
) TouristService {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}
	return &touristService{bookings: bookings, tourists: tourists, tx: tx, now: now}
}

func (s *touristService) AddOne(ctx context.Context, bookingID, userID string, person domain.TouristFields) (*domain.Tourist, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tourist.add_one")
	defer span.End()

	if _, err := s.openBooking(ctx, bookingID, userID); err != nil {
		return nil, err
	}

	person = person.Normalize()
	if err := person.Validate(); err != nil {
		return nil, err
	}

	_, err := s.tourists.GetByPassport(ctx, person.PassportNo)
	switch {
	case err == nil:
		return nil, &domain.PassportConflictError{Passports: []string{person.PassportNo}}
	case !errors.Is(err, domain.ErrTouristNotFound):
		return nil, err
	}

	tourist := domain.NewTourist(bookingID, person, s.now().UTC())
	if err := s.tourists.Create(ctx, tourist); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return tourist, nil
}

func (s *touristService) AddMany(ctx context.Context, bookingID, userID string, people []domain.TouristFields) ([]*domain.Tourist, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tourist.add_many")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.Int("count", len(people)),
	)

	if len(people) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if _, err := s.openBooking(ctx, bookingID, userID); err != nil {
		return nil, err
	}

	normalized := make([]domain.TouristFields, len(people))
	for i, p := range people {
		normalized[i] = p.Normalize()
		if err := normalized[i].Validate(); err != nil {
			return nil, err
		}
	}

	passports := lo.Map(normalized, func(p domain.TouristFields, _ int) string { return p.PassportNo })
	if len(lo.Uniq(passports)) != len(passports) {
		return nil, domain.ErrDuplicateInBatch
	}

	existing, err := s.tourists.ExistingPassports(ctx, passports)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, &domain.PassportConflictError{Passports: existing}
	}

	now := s.now().UTC()
	tourists := lo.Map(normalized, func(p domain.TouristFields, _ int) *domain.Tourist {
		return domain.NewTourist(bookingID, p, now)
	})
	if err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.tourists.CreateMany(ctx, tourists)
	}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return tourists, nil
}

func (s *touristService) Update(ctx context.Context, touristID string, fields domain.TouristFields, userID string) (*domain.Tourist, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tourist.update")
	defer span.End()

	tourist, err := s.tourists.GetByID(ctx, touristID)
	if err != nil {
		return nil, err
	}
	if _, err := s.openBooking(ctx, tourist.BookingID, userID); err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, domain.ErrTouristNotFound
		}
		return nil, err
	}

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if fields.PassportNo != tourist.PassportNo {
		holder, err := s.tourists.GetByPassport(ctx, fields.PassportNo)
		if err != nil && !errors.Is(err, domain.ErrTouristNotFound) {
			return nil, err
		}
		if holder != nil && holder.ID != tourist.ID {
			return nil, domain.ErrPassportConflict
		}
	}

	tourist.Name = fields.Name
	tourist.Gender = fields.Gender
	tourist.Phone = fields.Phone
	tourist.Nationality = fields.Nationality
	tourist.PassportNo = fields.PassportNo
	tourist.UpdatedAt = s.now().UTC()

	if err := s.tourists.Update(ctx, tourist); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return tourist, nil
}

func (s *touristService) Remove(ctx context.Context, touristID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.tourist.remove")
	defer span.End()

	tourist, err := s.tourists.GetByID(ctx, touristID)
	if err != nil {
		return err
	}
	if _, err := s.openBooking(ctx, tourist.BookingID, userID); err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return domain.ErrTouristNotFound
		}
		return err
	}
	return s.tourists.Delete(ctx, touristID)
}

func (s *touristService) List(ctx context.Context, userID string) ([]*domain.Tourist, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tourist.list")
	defer span.End()
	return s.tourists.ListByUser(ctx, userID)
}

func (s *touristService) Get(ctx context.Context, touristID, userID string) (*domain.Tourist, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.tourist.get")
	defer span.End()

	tourist, err := s.tourists.GetByID(ctx, touristID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, tourist.BookingID)
	if err != nil || !booking.IsOwnedBy(userID) {
		return nil, domain.ErrTouristNotFound
	}
	return tourist, nil
}

// openBooking loads a booking owned by userID that still accepts changes
func (s *touristService) openBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(userID) {
		return nil, domain.ErrBookingNotFound
	}
	if !booking.Status.IsOpen() {
		return nil, domain.ErrBookingLocked
	}
	return booking, nil
}
