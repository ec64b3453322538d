package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/database"
)

const passportIndex = "ux_tourists_passport"

// PostgresTouristRepository implements TouristRepository using PostgreSQL
type PostgresTouristRepository struct {
	db *database.PostgresDB
}

// NewPostgresTouristRepository creates a new PostgreSQL tourist repository
func NewPostgresTouristRepository(db *database.PostgresDB) *PostgresTouristRepository {
	return &PostgresTouristRepository{db: db}
}

const touristColumns = `t.id, t.booking_id, t.name, t.gender, COALESCE(t.phone, ''), t.nationality, t.passport_no, t.created_at, t.updated_at`

// Create inserts one tourist
func (r *PostgresTouristRepository) Create(ctx context.Context, t *domain.Tourist) error {
	query := `INSERT INTO tourists (id, booking_id, name, gender, phone, nationality, passport_no, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Q(ctx).Exec(ctx, query,
		t.ID, t.BookingID, t.Name, string(t.Gender), nullString(t.Phone), t.Nationality, t.PassportNo, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, passportIndex) {
			return &domain.PassportConflictError{Passports: []string{t.PassportNo}}
		}
		return fmt.Errorf("failed to create tourist: %w", err)
	}
	return nil
}

// CreateMany inserts all tourists in one transaction
func (r *PostgresTouristRepository) CreateMany(ctx context.Context, tourists []*domain.Tourist) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		for _, t := range tourists {
			if err := r.Create(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a tourist
func (r *PostgresTouristRepository) GetByID(ctx context.Context, id string) (*domain.Tourist, error) {
	query := `SELECT ` + touristColumns + ` FROM tourists t WHERE t.id = $1`
	return scanTourist(r.db.Q(ctx).QueryRow(ctx, query, id))
}

// GetByPassport retrieves the tourist holding passportNo
func (r *PostgresTouristRepository) GetByPassport(ctx context.Context, passportNo string) (*domain.Tourist, error) {
	query := `SELECT ` + touristColumns + ` FROM tourists t WHERE t.passport_no = $1`
	return scanTourist(r.db.Q(ctx).QueryRow(ctx, query, passportNo))
}

// ExistingPassports returns which of passports are already registered
func (r *PostgresTouristRepository) ExistingPassports(ctx context.Context, passports []string) ([]string, error) {
	if len(passports) == 0 {
		return nil, nil
	}

	rows, err := r.db.Q(ctx).Query(ctx, `SELECT passport_no FROM tourists WHERE passport_no = ANY($1) ORDER BY passport_no`, passports)
	if err != nil {
		return nil, fmt.Errorf("failed to query passports: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan passports: %w", err)
	}
	return found, nil
}

// ListByBooking retrieves the tourists of a booking
func (r *PostgresTouristRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.Tourist, error) {
	query := `SELECT ` + touristColumns + ` FROM tourists t WHERE t.booking_id = $1 ORDER BY t.created_at`
	return r.list(ctx, query, bookingID)
}

// ListByUser retrieves the tourists on every booking of userID
func (r *PostgresTouristRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Tourist, error) {
	query := `SELECT ` + touristColumns + ` FROM tourists t
		JOIN bookings b ON b.id = t.booking_id
		WHERE b.user_id = $1 AND b.deleted_at IS NULL
		ORDER BY t.created_at`
	return r.list(ctx, query, userID)
}

// Update writes the editable fields
func (r *PostgresTouristRepository) Update(ctx context.Context, t *domain.Tourist) error {
	query := `UPDATE tourists SET name = $2, gender = $3, phone = $4, nationality = $5, passport_no = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Q(ctx).Exec(ctx, query,
		t.ID, t.Name, string(t.Gender), nullString(t.Phone), t.Nationality, t.PassportNo, t.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, passportIndex) {
			return domain.ErrPassportConflict
		}
		return fmt.Errorf("failed to update tourist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTouristNotFound
	}
	return nil
}

// Delete removes a tourist
func (r *PostgresTouristRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Q(ctx).Exec(ctx, `DELETE FROM tourists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tourist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTouristNotFound
	}
	return nil
}

func (r *PostgresTouristRepository) list(ctx context.Context, query string, arg string) ([]*domain.Tourist, error) {
	rows, err := r.db.Q(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query tourists: %w", err)
	}
	defer rows.Close()

	var tourists []*domain.Tourist
	for rows.Next() {
		t, err := scanTourist(rows)
		if err != nil {
			return nil, err
		}
		tourists = append(tourists, t)
	}
	return tourists, rows.Err()
}

func scanTourist(row pgx.Row) (*domain.Tourist, error) {
	var t domain.Tourist
	var gender string
	err := row.Scan(&t.ID, &t.BookingID, &t.Name, &gender, &t.Phone, &t.Nationality, &t.PassportNo, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTouristNotFound
		}
		return nil, fmt.Errorf("failed to scan tourist: %w", err)
	}
	t.Gender = domain.Gender(gender)
	return &t, nil
}

// nullString returns nil if string is empty, otherwise returns pointer to string
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
