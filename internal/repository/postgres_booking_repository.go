package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/database"
)

const openBookingIndex = "ux_bookings_open_per_country"

// PostgresBookingRepository implements BookingRepository using PostgreSQL
type PostgresBookingRepository struct {
	db *database.PostgresDB
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository
func NewPostgresBookingRepository(db *database.PostgresDB) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

const bookingColumns = `id, user_id, country_id, status, subtotal, created_at, updated_at, deleted_at`

// Create inserts a booking
func (r *PostgresBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Q(ctx).Exec(ctx, query,
		b.ID, b.UserID, b.CountryID, string(b.Status), b.Subtotal, b.CreatedAt, b.UpdatedAt, b.DeletedAt)
	if err != nil {
		if database.IsUniqueViolation(err, openBookingIndex) {
			return domain.ErrOpenBookingExists
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// AddItem inserts a booking item
func (r *PostgresBookingRepository) AddItem(ctx context.Context, item *domain.BookingItem) error {
	query := `INSERT INTO booking_items (id, booking_id, destination_id, visit_date, created_at) VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Q(ctx).Exec(ctx, query, item.ID, item.BookingID, item.DestinationID, item.VisitDate, item.CreatedAt); err != nil {
		return fmt.Errorf("failed to add booking item: %w", err)
	}
	return nil
}

// GetByID retrieves a live booking with its items
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND deleted_at IS NULL`

	b, err := scanBooking(r.db.Q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Booking{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser retrieves the user's bookings, newest first
func (r *PostgresBookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := r.db.Q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	if err := r.loadItems(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindOpen retrieves the draft or pending booking for (userID, countryID)
func (r *PostgresBookingRepository) FindOpen(ctx context.Context, userID, countryID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1 AND country_id = $2 AND status IN ('draft', 'pending') AND deleted_at IS NULL
		LIMIT 1`

	return scanBooking(r.db.Q(ctx).QueryRow(ctx, query, userID, countryID))
}

// LatestVisitDate returns the user's latest booked visit
func (r *PostgresBookingRepository) LatestVisitDate(ctx context.Context, userID string) (time.Time, bool, error) {
	query := `SELECT MAX(i.visit_date) FROM booking_items i
		JOIN bookings b ON b.id = i.booking_id
		WHERE b.user_id = $1 AND b.deleted_at IS NULL`

	var latest *time.Time
	if err := r.db.Q(ctx).QueryRow(ctx, query, userID).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest visit date: %w", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return domain.DateOnly(*latest), true, nil
}

// AddToSubtotal increments the subtotal atomically
func (r *PostgresBookingRepository) AddToSubtotal(ctx context.Context, id string, delta decimal.Decimal, at time.Time) error {
	query := `UPDATE bookings SET subtotal = subtotal + $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Q(ctx).Exec(ctx, query, id, delta, at)
	if err != nil {
		return fmt.Errorf("failed to update subtotal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// UpdateStatus writes a status chosen by domain.Booking.TransitionTo
func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) error {
	query := `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Q(ctx).Exec(ctx, query, id, string(status), at)
	if err != nil {
		if database.IsUniqueViolation(err, openBookingIndex) {
			return domain.ErrOpenBookingExists
		}
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PostgresBookingRepository) loadItems(ctx context.Context, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]string, len(bookings))
	byID := make(map[string]*domain.Booking, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	query := `SELECT id, booking_id, destination_id, visit_date, created_at FROM booking_items
		WHERE booking_id = ANY($1::uuid[]) ORDER BY visit_date, created_at`

	rows, err := r.db.Q(ctx).Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query booking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.BookingItem
		if err := rows.Scan(&item.ID, &item.BookingID, &item.DestinationID, &item.VisitDate, &item.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan booking item: %w", err)
		}
		item.VisitDate = domain.DateOnly(item.VisitDate)
		b := byID[item.BookingID]
		b.Items = append(b.Items, item)
	}
	return rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	err := row.Scan(&b.ID, &b.UserID, &b.CountryID, &status, &b.Subtotal, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}
