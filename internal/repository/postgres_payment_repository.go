package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/database"
)

const invoiceCodeConstraint = "ux_payments_invoice_code"

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentRepository creates a new PostgreSQL payment repository
func NewPostgresPaymentRepository(db *database.PostgresDB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// paymentColumns defines the columns to select for payment queries
const paymentColumns = `
	id, user_id, booking_id, invoice_code, amount, currency, exchange_rate, amount_usd,
	method, status, COALESCE(transaction_id, ''), COALESCE(payer_email, ''), COALESCE(redirect_url, ''),
	created_at, updated_at`

// Create creates a new payment record
func (r *PostgresPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, user_id, booking_id, invoice_code, amount, currency, exchange_rate, amount_usd,
			method, status, transaction_id, payer_email, redirect_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Q(ctx).Exec(ctx, query,
		p.ID,
		p.UserID,
		p.BookingID,
		p.InvoiceCode,
		p.Amount,
		p.Currency,
		p.ExchangeRate,
		p.AmountUSD,
		string(p.Method),
		string(p.Status),
		nullString(p.TransactionID),
		nullString(p.PayerEmail),
		nullString(p.RedirectURL),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, invoiceCodeConstraint) {
			return domain.ErrInvoiceCodeTaken
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// InvoiceCodeExists checks whether code is already used
func (r *PostgresPaymentRepository) InvoiceCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE invoice_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invoice code: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a payment by its ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.Q(ctx).QueryRow(ctx, query, id))
}

// GetByTransactionID retrieves a payment by processor order id
func (r *PostgresPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`
	return scanPayment(r.db.Q(ctx).QueryRow(ctx, query, transactionID))
}

// ListByUser retrieves all payments for a user, newest first
func (r *PostgresPaymentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Update writes status and processor fields
func (r *PostgresPaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments SET status = $2, transaction_id = $3, payer_email = $4, redirect_url = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Q(ctx).Exec(ctx, query,
		p.ID, string(p.Status), nullString(p.TransactionID), nullString(p.PayerEmail), nullString(p.RedirectURL), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// CompareAndSetStatus updates the payment only while its status is expected
func (r *PostgresPaymentRepository) CompareAndSetStatus(ctx context.Context, p *domain.Payment, expected domain.PaymentStatus) (bool, error) {
	query := `UPDATE payments SET status = $2, payer_email = $3, redirect_url = $4, updated_at = $5
		WHERE id = $1 AND status = $6`

	tag, err := r.db.Q(ctx).Exec(ctx, query,
		p.ID, string(p.Status), nullString(p.PayerEmail), nullString(p.RedirectURL), p.UpdatedAt, string(expected))
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var method, status string
	err := row.Scan(
		&p.ID, &p.UserID, &p.BookingID, &p.InvoiceCode, &p.Amount, &p.Currency, &p.ExchangeRate, &p.AmountUSD,
		&method, &status, &p.TransactionID, &p.PayerEmail, &p.RedirectURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
