package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
)

type stubProvider struct {
	calls atomic.Int32
	rates map[string]decimal.Decimal
	err   error
}

func (p *stubProvider) LatestUSD(context.Context) (map[string]decimal.Decimal, error) {
	p.calls.Add(1)
	return p.rates, p.err
}

func TestService_UnitsPerUSD_CachesWithinTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	provider := &stubProvider{rates: map[string]decimal.Decimal{"IDR": decimal.NewFromFloat(16250.5)}}
	svc := NewService(provider, NewMemoryCache(clock), &Config{TTL: time.Hour}, nil)
	ctx := context.Background()

	q, err := svc.UnitsPerUSD(ctx, "idr")
	require.NoError(t, err)
	assert.Equal(t, SourceProvider, q.Source)
	assert.Equal(t, "16250.5", q.Rate.String())

	q, err = svc.UnitsPerUSD(ctx, "IDR")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, q.Source)
	assert.Equal(t, int32(1), provider.calls.Load())

	// expired entry goes back to the provider
	now = now.Add(time.Hour)
	q, err = svc.UnitsPerUSD(ctx, "IDR")
	require.NoError(t, err)
	assert.Equal(t, SourceProvider, q.Source)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestService_UnitsPerUSD_USDIsOne(t *testing.T) {
	provider := &stubProvider{}
	svc := NewService(provider, NewMemoryCache(nil), nil, nil)

	q, err := svc.UnitsPerUSD(context.Background(), "USD")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(q.Rate))
	assert.Zero(t, provider.calls.Load())
}

func TestService_UnitsPerUSD_Fallback(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	svc := NewService(provider, NewMemoryCache(nil), &Config{
		FallbackRates: map[string]decimal.Decimal{"IDR": decimal.NewFromInt(16000)},
	}, nil)
	ctx := context.Background()

	q, err := svc.UnitsPerUSD(ctx, "IDR")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, q.Source)
	assert.True(t, decimal.NewFromInt(16000).Equal(q.Rate))

	_, err = svc.UnitsPerUSD(ctx, "EUR")
	assert.ErrorIs(t, err, domain.ErrExchangeRateUnavailable)
	assert.True(t, domain.IsExternalError(err))

	_, err = svc.UnitsPerUSD(ctx, "RUPIAH")
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestHTTPProvider_LatestUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/latest/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","rates":{"USD":1,"IDR":16250.5,"EUR":0.92}}`))
	}))
	defer srv.Close()

	rates, err := NewHTTPProvider(srv.URL+"/v6/", time.Second).LatestUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "16250.5", rates["IDR"].String())
	assert.Equal(t, "0.92", rates["EUR"].String())
}

func TestHTTPProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, time.Second).LatestUSD(context.Background())
	assert.Error(t, err)
}
