// Package exchange resolves how many units of a currency buy one USD.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/metrics"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// Source tells where a quote came from
type Source string

const (
	SourceIdentity Source = "identity"
	SourceCache    Source = "cache"
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
)

// Quote is a units-per-USD rate
type Quote struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Source   Source          `json:"source"`
}

// Provider fetches live rates
type Provider interface {
	// LatestUSD returns units per USD for every currency the provider knows
	LatestUSD(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Cache stores rates between lookups
type Cache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error
}

// ErrRateNotListed is returned when the provider has no rate for a currency
var ErrRateNotListed = errors.New("currency not listed by provider")

// Config holds exchange service settings
type Config struct {
	TTL           time.Duration
	FallbackRates map[string]decimal.Decimal
}

// Service resolves exchange rates through a cache
type Service struct {
	provider Provider
	cache    Cache
	config   *Config
	log      *logger.Logger
}

// NewService creates an exchange service
func NewService(provider Provider, cache Cache, config *Config, log *logger.Logger) *Service {
	if config == nil {
		config = &Config{}
	}
	if config.TTL <= 0 {
		config.TTL = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{provider: provider, cache: cache, config: config, log: log}
}

// CacheKey is the cache key for currency
func CacheKey(currency string) string {
	return "fx:USD:" + currency
}

// UnitsPerUSD returns how many units of currency one USD buys
func (s *Service) UnitsPerUSD(ctx context.Context, currency string) (*Quote, error) {
	ctx, span := telemetry.StartSpan(ctx, "exchange.units_per_usd")
	defer span.End()

	q, err := s.lookup(ctx, currency)
	if err != nil {
		metrics.RecordExchangeLookup(ctx, currency, "error")
		return nil, err
	}
	metrics.RecordExchangeLookup(ctx, q.Currency, string(q.Source))
	return q, nil
}

func (s *Service) lookup(ctx context.Context, currency string) (*Quote, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}
	telemetry.SetSpanAttributes(ctx, attribute.String("currency", currency))

	if currency == "USD" {
		return &Quote{Currency: currency, Rate: decimal.NewFromInt(1), Source: SourceIdentity}, nil
	}

	key := CacheKey(currency)
	if rate, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.WarnContext(ctx, "Exchange cache read failed", zap.String("currency", currency), zap.Error(err))
	} else if ok {
		return &Quote{Currency: currency, Rate: rate, Source: SourceCache}, nil
	}

	rate, err := s.fetch(ctx, currency)
	if err == nil {
		if err := s.cache.Set(ctx, key, rate, s.config.TTL); err != nil {
			s.log.WarnContext(ctx, "Exchange cache write failed", zap.String("currency", currency), zap.Error(err))
		}
		return &Quote{Currency: currency, Rate: rate, Source: SourceProvider}, nil
	}

	if fallback, ok := s.config.FallbackRates[currency]; ok && fallback.IsPositive() {
		s.log.WarnContext(ctx, "Using fallback exchange rate",
			zap.String("currency", currency),
			zap.String("rate", fallback.String()),
			zap.Error(err))
		return &Quote{Currency: currency, Rate: fallback, Source: SourceFallback}, nil
	}

	telemetry.SetSpanError(ctx, err)
	return nil, fmt.Errorf("%w: %s: %v", domain.ErrExchangeRateUnavailable, currency, err)
}

func (s *Service) fetch(ctx context.Context, currency string) (decimal.Decimal, error) {
	if s.provider == nil {
		return decimal.Zero, errors.New("no exchange provider configured")
	}
	rates, err := s.provider.LatestUSD(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := rates[currency]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, ErrRateNotListed
	}
	return rate, nil
}
