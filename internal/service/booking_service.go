package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentansusanto/travel-api/internal/besteffort"
	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/metrics"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// BookingService defines the interface for booking business logic
type BookingService interface {
	// AddDestination appends a visit to the traveller's open booking for the
	// destination's country, creating a draft booking when none is open
	AddDestination(ctx context.Context, userID, destinationID string, visitDate time.Time) (*domain.Booking, error)

	// ListBookings returns every booking of the traveller
	ListBookings(ctx context.Context, userID string) ([]*domain.Booking, error)

	// GetBooking returns a booking owned by userID
	GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error)

	// SetStatus moves a booking through its state machine on behalf of
	// actor. Travellers may only cancel their own bookings; the payment
	// driven statuses are left to the payment flow.
	SetStatus(ctx context.Context, bookingID string, status domain.BookingStatus, actor domain.Actor) (*domain.Booking, error)
}

// bookingService implements BookingService
type bookingService struct {
	users          repository.UserRepository
	catalog        repository.CatalogRepository
	bookings       repository.BookingRepository
	tx             repository.TxManager
	eventPublisher EventPublisher
	runner         *besteffort.Runner
	now            func() time.Time
}

// BookingServiceConfig contains configuration for booking service
type BookingServiceConfig struct {
	// Now is the clock used for date checks and timestamps
	Now func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	users repository.UserRepository,
	catalog repository.CatalogRepository,
	bookings repository.BookingRepository,
	tx repository.TxManager,
	eventPublisher EventPublisher,
	log *logger.Logger,
	cfg *BookingServiceConfig,
) BookingService {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}
	// Use NoOpEventPublisher if none provided
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &bookingService{
		users:          users,
		catalog:        catalog,
		bookings:       bookings,
		tx:             tx,
		eventPublisher: eventPublisher,
		runner:         besteffort.NewRunner(log),
		now:            now,
	}
}

// AddDestination adds a destination visit for the traveller
func (s *bookingService) AddDestination(ctx context.Context, userID, destinationID string, visitDate time.Time) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.add_destination")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("destination_id", destinationID),
	)

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, err
	}
	destination, err := s.catalog.GetDestination(ctx, destinationID)
	if err != nil {
		span.SetStatus(codes.Error, "destination lookup failed")
		return nil, err
	}

	visit := domain.DateOnly(visitDate)
	if visit.Before(domain.DateOnly(s.now().UTC())) {
		return nil, domain.ErrInvalidVisitDate
	}
	latest, ok, err := s.bookings.LatestVisitDate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok && visit.Before(domain.DateOnly(latest)) {
		return nil, domain.ErrVisitDateOrder
	}

	booking, merged, err := s.addToOpenBooking(ctx, userID, destination, visit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordBookingItemAdded(ctx, destination.CountryID, merged)
	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.Bool("merged", merged),
	)

	s.publish(ctx, domain.NewEvent(domain.EventBookingItemAdded, booking.ID, userID, map[string]any{
		"destination_id": destinationID,
		"country_id":     destination.CountryID,
		"visit_date":     visit.Format(time.DateOnly),
		"subtotal":       booking.Subtotal.String(),
		"merged":         merged,
	}))

	return booking, nil
}

// addToOpenBooking merges into the open booking for the destination's
// country, or creates a draft. Losing the create race to a concurrent
// request re-reads and merges once.
func (s *bookingService) addToOpenBooking(ctx context.Context, userID string, destination *domain.Destination, visit time.Time) (*domain.Booking, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		open, err := s.bookings.FindOpen(ctx, userID, destination.CountryID)
		if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
			return nil, false, err
		}

		now := s.now().UTC()
		if open != nil {
			err := s.tx.WithTx(ctx, func(ctx context.Context) error {
				if err := s.bookings.AddToSubtotal(ctx, open.ID, destination.Price, now); err != nil {
					return err
				}
				return s.bookings.AddItem(ctx, domain.NewBookingItem(open.ID, destination.ID, visit, now))
			})
			if err != nil {
				return nil, false, err
			}
			booking, err := s.bookings.GetByID(ctx, open.ID)
			return booking, true, err
		}

		booking := domain.NewBooking(userID, destination.CountryID, destination.Price, now)
		err = s.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := s.bookings.Create(ctx, booking); err != nil {
				return err
			}
			return s.bookings.AddItem(ctx, domain.NewBookingItem(booking.ID, destination.ID, visit, now))
		})
		if errors.Is(err, domain.ErrOpenBookingExists) {
			metrics.RecordBookingMergeConflict(ctx)
			continue
		}
		if err != nil {
			return nil, false, err
		}
		created, err := s.bookings.GetByID(ctx, booking.ID)
		return created, false, err
	}
	return nil, false, fmt.Errorf("add destination: %w", domain.ErrOpenBookingExists)
}

// ListBookings returns the traveller's bookings
func (s *bookingService) ListBookings(ctx context.Context, userID string) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.list")
	defer span.End()

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, domain.ErrBookingNotFound
	}
	return bookings, nil
}

// GetBooking retrieves a booking by ID
func (s *bookingService) GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get")
	defer span.End()

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(userID) {
		return nil, domain.ErrBookingNotFound
	}
	return booking, nil
}

// SetStatus applies a status transition
func (s *bookingService) SetStatus(ctx context.Context, bookingID string, status domain.BookingStatus, actor domain.Actor) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.set_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("status", string(status)),
		attribute.String("actor", string(actor.Role)),
	)

	if !status.IsValid() {
		return nil, domain.ErrInvalidBookingStatus
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.ActorTraveller && !booking.IsOwnedBy(actor.UserID) {
		return nil, domain.ErrBookingNotFound
	}
	if !actor.MaySet(status) {
		span.SetStatus(codes.Error, "status change forbidden")
		return nil, fmt.Errorf("%s may not set %s: %w", actor.Role, status, domain.ErrStatusChangeForbidden)
	}

	from := booking.Status
	changed, err := booking.TransitionTo(status, s.now().UTC())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s -> %s: %w", from, status, err)
	}
	if !changed {
		return booking, nil
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, booking.Status, booking.UpdatedAt); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordBookingStatusChanged(ctx, string(from), string(status))
	s.publish(ctx, domain.NewEvent(domain.EventBookingStatusChanged, booking.ID, booking.UserID, map[string]any{
		"from": string(from),
		"to":   string(status),
	}))

	return booking, nil
}

func (s *bookingService) publish(ctx context.Context, event *domain.Event) {
	s.runner.Do(ctx, "event."+string(event.Type), func(ctx context.Context) error {
		return s.eventPublisher.Publish(ctx, event)
	})
}
