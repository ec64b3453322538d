package repository

import (
	"context"
	"fmt"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/database"
)

const saleUniqueConstraint = "ux_sales_payment"

// to_char patterns matching domain.SalesPeriod.Label
var periodFormats = map[domain.SalesPeriod]string{
	domain.PeriodDaily:   "YYYY-MM-DD",
	domain.PeriodWeekly:  "IYYY-IW",
	domain.PeriodMonthly: "YYYY-MM",
	domain.PeriodYearly:  "YYYY",
}

// PostgresSaleRepository implements SaleRepository using PostgreSQL
type PostgresSaleRepository struct {
	db *database.PostgresDB
}

// NewPostgresSaleRepository creates a new PostgreSQL sale repository
func NewPostgresSaleRepository(db *database.PostgresDB) *PostgresSaleRepository {
	return &PostgresSaleRepository{db: db}
}

// Create inserts a sale
func (r *PostgresSaleRepository) Create(ctx context.Context, s *domain.Sale) error {
	query := `INSERT INTO sales (id, booking_id, payment_id, amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Q(ctx).Exec(ctx, query, s.ID, s.BookingID, s.PaymentID, s.Amount, s.Currency, string(s.Status), s.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, saleUniqueConstraint) {
			return domain.ErrSaleExists
		}
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// ExistsForPayment checks whether a sale was recorded for paymentID
func (r *PostgresSaleRepository) ExistsForPayment(ctx context.Context, paymentID string) (bool, error) {
	var exists bool
	err := r.db.Q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE payment_id = $1)`, paymentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sale: %w", err)
	}
	return exists, nil
}

// List returns every sale, newest first
func (r *PostgresSaleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT id, booking_id, payment_id, amount, currency, status, created_at FROM sales ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		var s domain.Sale
		var status string
		if err := rows.Scan(&s.ID, &s.BookingID, &s.PaymentID, &s.Amount, &s.Currency, &status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		s.Status = domain.SaleStatus(status)
		sales = append(sales, &s)
	}
	return sales, rows.Err()
}

// Aggregate sums completed sales per period bucket and currency
func (r *PostgresSaleRepository) Aggregate(ctx context.Context, period domain.SalesPeriod) ([]domain.SalesBucket, error) {
	format, ok := periodFormats[period]
	if !ok {
		return nil, domain.ErrInvalidPeriod
	}

	query := `SELECT to_char(created_at AT TIME ZONE 'UTC', $1) AS label, currency, SUM(amount), COUNT(*)
		FROM sales WHERE status = 'completed'
		GROUP BY label, currency ORDER BY label, currency`

	rows, err := r.db.Q(ctx).Query(ctx, query, format)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer rows.Close()

	var buckets []domain.SalesBucket
	for rows.Next() {
		var b domain.SalesBucket
		if err := rows.Scan(&b.Label, &b.Currency, &b.TotalAmount, &b.Orders); err != nil {
			return nil, fmt.Errorf("failed to scan sales bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Summary returns lifetime totals over completed sales
func (r *PostgresSaleRepository) Summary(ctx context.Context) (*domain.SalesSummary, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT currency, SUM(amount), COUNT(*) FROM sales WHERE status = 'completed'
		GROUP BY currency ORDER BY currency`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}
	defer rows.Close()

	summary := &domain.SalesSummary{Revenue: []domain.CurrencyTotal{}}
	for rows.Next() {
		var t domain.CurrencyTotal
		if err := rows.Scan(&t.Currency, &t.Amount, &t.Orders); err != nil {
			return nil, fmt.Errorf("failed to scan sales total: %w", err)
		}
		summary.Revenue = append(summary.Revenue, t)
		summary.TotalOrders += t.Orders
	}
	return summary, rows.Err()
}
