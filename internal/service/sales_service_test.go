package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/repository"
)

func TestSalesService_RecordFromPayment(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewSalesService(store.Sales(), &SalesServiceConfig{Now: clock})

	amount := decimal.NewFromInt(1600000)
	require.NoError(t, svc.RecordFromPayment(ctx, "pay-1", "booking-1", amount, "IDR"))
	require.NoError(t, svc.RecordFromPayment(ctx, "pay-1", "booking-1", amount, "IDR"))
	require.NoError(t, svc.RecordFromPayment(ctx, "pay-2", "booking-2", decimal.NewFromInt(400000), "IDR"))

	sales, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalOrders)
	assert.True(t, summary.RevenueIn("IDR").Equal(decimal.NewFromInt(2000000)))
}

func TestSalesService_Aggregate(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewSalesService(store.Sales(), &SalesServiceConfig{Now: clock})
	require.NoError(t, svc.RecordFromPayment(ctx, "pay-1", "booking-1", decimal.NewFromInt(100), "IDR"))

	tests := []struct {
		period    string
		wantLabel string
		wantErr   error
	}{
		{period: "daily", wantLabel: "2025-03-01"},
		{period: "weekly", wantLabel: "2025-09"},
		{period: "monthly", wantLabel: "2025-03"},
		{period: "yearly", wantLabel: "2025"},
		{period: "hourly", wantErr: domain.ErrInvalidPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			buckets, err := svc.Aggregate(ctx, tt.period)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, buckets, 1)
			assert.Equal(t, tt.wantLabel, buckets[0].Label)
			assert.Equal(t, 1, buckets[0].Orders)
		})
	}
}
