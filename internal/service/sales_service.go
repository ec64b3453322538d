package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/metrics"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// SalesService defines the interface for the sales ledger
type SalesService interface {
	// RecordFromPayment writes the sale of a successful payment. Calling it
	// again for the same payment is a no-op.
	RecordFromPayment(ctx context.Context, paymentID, bookingID string, amount decimal.Decimal, currency string) error
	Aggregate(ctx context.Context, period string) ([]domain.SalesBucket, error)
	Summary(ctx context.Context) (*domain.SalesSummary, error)
	List(ctx context.Context) ([]*domain.Sale, error)
}

type salesService struct {
	sales repository.SaleRepository
	now   func() time.Time
}

// SalesServiceConfig contains configuration for sales service
type SalesServiceConfig struct {
	Now func() time.Time
}

// NewSalesService creates a new sales service
func NewSalesService(sales repository.SaleRepository, cfg *SalesServiceConfig) SalesService {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}
	return &salesService{sales: sales, now: now}
}

func (s *salesService) RecordFromPayment(ctx context.Context, paymentID, bookingID string, amount decimal.Decimal, currency string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.sales.record_from_payment")
	defer span.End()

	span.SetAttributes(attribute.String("payment_id", paymentID))

	exists, err := s.sales.ExistsForPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.sales.Create(ctx, domain.NewSale(paymentID, bookingID, amount, currency, s.now().UTC()))
	if errors.Is(err, domain.ErrSaleExists) {
		return nil
	}
	if err != nil {
		return err
	}
	metrics.RecordSaleRecorded(ctx, currency)
	return nil
}

func (s *salesService) Aggregate(ctx context.Context, period string) ([]domain.SalesBucket, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.sales.aggregate")
	defer span.End()

	p, err := domain.ParseSalesPeriod(period)
	if err != nil {
		return nil, err
	}
	return s.sales.Aggregate(ctx, p)
}

func (s *salesService) Summary(ctx context.Context) (*domain.SalesSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.sales.summary")
	defer span.End()
	return s.sales.Summary(ctx)
}

func (s *salesService) List(ctx context.Context) ([]*domain.Sale, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.sales.list")
	defer span.End()
	return s.sales.List(ctx)
}
