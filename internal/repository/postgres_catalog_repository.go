package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/database"
)

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL
type PostgresCatalogRepository struct {
	db *database.PostgresDB
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository
func NewPostgresCatalogRepository(db *database.PostgresDB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// CreateCountry inserts a country
func (r *PostgresCatalogRepository) CreateCountry(ctx context.Context, c *domain.Country) error {
	query := `INSERT INTO countries (id, iso, name, flag, phone_code, currency, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Q(ctx).Exec(ctx, query, c.ID, c.ISO, c.Name, nullString(c.Flag), nullString(c.PhoneCode), c.Currency, c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return domain.ErrCountryExists
		}
		return fmt.Errorf("failed to create country: %w", err)
	}
	return nil
}

const countryColumns = `id, iso, name, COALESCE(flag, ''), COALESCE(phone_code, ''), currency, created_at`

// GetCountry retrieves a country
func (r *PostgresCatalogRepository) GetCountry(ctx context.Context, id string) (*domain.Country, error) {
	var c domain.Country
	err := r.db.Q(ctx).QueryRow(ctx, `SELECT `+countryColumns+` FROM countries WHERE id = $1`, id).
		Scan(&c.ID, &c.ISO, &c.Name, &c.Flag, &c.PhoneCode, &c.Currency, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCountryNotFound
		}
		return nil, fmt.Errorf("failed to get country: %w", err)
	}
	return &c, nil
}

// ListCountries retrieves all countries by name
func (r *PostgresCatalogRepository) ListCountries(ctx context.Context) ([]*domain.Country, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `SELECT `+countryColumns+` FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	var countries []*domain.Country
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.ID, &c.ISO, &c.Name, &c.Flag, &c.PhoneCode, &c.Currency, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, &c)
	}
	return countries, rows.Err()
}

// CreateState inserts a state
func (r *PostgresCatalogRepository) CreateState(ctx context.Context, s *domain.State) error {
	query := `INSERT INTO states (id, country_id, name, latitude, longitude) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Q(ctx).Exec(ctx, query, s.ID, s.CountryID, s.Name, s.Latitude, s.Longitude); err != nil {
		return fmt.Errorf("failed to create state: %w", err)
	}
	return nil
}

// GetState retrieves a state
func (r *PostgresCatalogRepository) GetState(ctx context.Context, id string) (*domain.State, error) {
	var s domain.State
	err := r.db.Q(ctx).QueryRow(ctx, `SELECT id, country_id, name, latitude, longitude FROM states WHERE id = $1`, id).
		Scan(&s.ID, &s.CountryID, &s.Name, &s.Latitude, &s.Longitude)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return &s, nil
}

// CreateCategory inserts a category
func (r *PostgresCatalogRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	if _, err := r.db.Q(ctx).Exec(ctx, `INSERT INTO categories (id, name, code) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Code); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category
func (r *PostgresCatalogRepository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.Q(ctx).QueryRow(ctx, `SELECT id, name, code FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// ListCategories retrieves all categories
func (r *PostgresCatalogRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.Q(ctx).Query(ctx, `SELECT id, name, code FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Code); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// CreateDestination inserts a destination with its translations
func (r *PostgresCatalogRepository) CreateDestination(ctx context.Context, d *domain.Destination) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `INSERT INTO destinations (id, category_id, state_id, price, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.db.Q(ctx).Exec(ctx, query, d.ID, d.CategoryID, d.StateID, d.Price, d.CreatedAt, d.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create destination: %w", err)
		}
		for i := range d.Translations {
			if err := r.AddTranslation(ctx, &d.Translations[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateDestination writes category, state and price
func (r *PostgresCatalogRepository) UpdateDestination(ctx context.Context, d *domain.Destination) error {
	query := `UPDATE destinations SET category_id = $2, state_id = $3, price = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Q(ctx).Exec(ctx, query, d.ID, d.CategoryID, d.StateID, d.Price, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDestinationNotFound
	}
	return nil
}

// SoftDeleteDestination hides a destination from the catalog
func (r *PostgresCatalogRepository) SoftDeleteDestination(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Q(ctx).Exec(ctx, `UPDATE destinations SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("failed to delete destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDestinationNotFound
	}
	return nil
}

const destinationSelect = `SELECT d.id, d.category_id, d.state_id, s.country_id, d.price, d.created_at, d.updated_at
	FROM destinations d JOIN states s ON s.id = d.state_id`

// GetDestination retrieves a live destination
func (r *PostgresCatalogRepository) GetDestination(ctx context.Context, id string) (*domain.Destination, error) {
	return r.getDestination(ctx, destinationSelect+` WHERE d.id = $1 AND d.deleted_at IS NULL`, id)
}

// GetDestinationBySlug retrieves a live destination by any translation slug
func (r *PostgresCatalogRepository) GetDestinationBySlug(ctx context.Context, slug string) (*domain.Destination, error) {
	return r.getDestination(ctx, destinationSelect+`
		JOIN destination_translations t ON t.destination_id = d.id
		WHERE t.slug = $1 AND d.deleted_at IS NULL`, slug)
}

// ListDestinations retrieves live destinations, newest first
func (r *PostgresCatalogRepository) ListDestinations(ctx context.Context, f DestinationFilter) ([]*domain.Destination, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := destinationSelect + `
		WHERE d.deleted_at IS NULL
		  AND ($1 = '' OR s.country_id::text = $1)
		  AND ($2 = '' OR d.category_id::text = $2)
		ORDER BY d.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Q(ctx).Query(ctx, query, f.CountryID, f.CategoryID, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	var destinations []*domain.Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate destinations: %w", err)
	}

	if err := r.loadTranslations(ctx, destinations); err != nil {
		return nil, err
	}
	return destinations, nil
}

// AddTranslation inserts a translation
func (r *PostgresCatalogRepository) AddTranslation(ctx context.Context, t *domain.DestinationTranslation) error {
	query := `INSERT INTO destination_translations
		(id, destination_id, language_code, name, slug, description, thumbnail, images, detail_tour, facilities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Q(ctx).Exec(ctx, query,
		t.ID, t.DestinationID, t.LanguageCode, t.Name, t.Slug, nullString(t.Description), nullString(t.Thumbnail),
		nonNil(t.Images), nonNil(t.DetailTour), nonNil(t.Facilities))
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to add translation: %w", err)
	}
	return nil
}

func (r *PostgresCatalogRepository) getDestination(ctx context.Context, query string, arg string) (*domain.Destination, error) {
	d, err := scanDestination(r.db.Q(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if err := r.loadTranslations(ctx, []*domain.Destination{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PostgresCatalogRepository) loadTranslations(ctx context.Context, destinations []*domain.Destination) error {
	if len(destinations) == 0 {
		return nil
	}

	ids := make([]string, len(destinations))
	byID := make(map[string]*domain.Destination, len(destinations))
	for i, d := range destinations {
		ids[i] = d.ID
		byID[d.ID] = d
	}

	query := `SELECT id, destination_id, language_code, name, slug, COALESCE(description, ''), COALESCE(thumbnail, ''),
			images, detail_tour, facilities
		FROM destination_translations WHERE destination_id = ANY($1::uuid[]) ORDER BY language_code`

	rows, err := r.db.Q(ctx).Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.DestinationTranslation
		if err := rows.Scan(&t.ID, &t.DestinationID, &t.LanguageCode, &t.Name, &t.Slug, &t.Description, &t.Thumbnail,
			&t.Images, &t.DetailTour, &t.Facilities); err != nil {
			return fmt.Errorf("failed to scan translation: %w", err)
		}
		d := byID[t.DestinationID]
		d.Translations = append(d.Translations, t)
	}
	return rows.Err()
}

func scanDestination(row pgx.Row) (*domain.Destination, error) {
	var d domain.Destination
	err := row.Scan(&d.ID, &d.CategoryID, &d.StateID, &d.CountryID, &d.Price, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDestinationNotFound
		}
		return nil, fmt.Errorf("failed to scan destination: %w", err)
	}
	return &d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
