package di

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/exchange"
	"github.com/bentansusanto/travel-api/internal/gateway"
	"github.com/bentansusanto/travel-api/internal/handler"
	"github.com/bentansusanto/travel-api/internal/notification"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/config"
	"github.com/bentansusanto/travel-api/pkg/database"
	"github.com/bentansusanto/travel-api/pkg/kafka"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/middleware"
	"github.com/bentansusanto/travel-api/pkg/redis"
	"github.com/bentansusanto/travel-api/pkg/retry"
)

// Container holds all dependencies of the API
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer
	// Memory is set when no database is configured
	Memory *repository.MemoryStore

	// Repositories
	TxManager   repository.TxManager
	UserRepo    repository.UserRepository
	AccountRepo repository.AccountRepository
	SessionRepo repository.SessionRepository
	CatalogRepo repository.CatalogRepository
	BookingRepo repository.BookingRepository
	TouristRepo repository.TouristRepository
	PaymentRepo repository.PaymentRepository
	SaleRepo    repository.SaleRepository

	// Collaborators
	Verifier       middleware.TokenVerifier
	Processors     *gateway.Registry
	Rates          *exchange.Service
	Notifier       notification.Dispatcher
	EventPublisher service.EventPublisher

	// Services
	AuthService    service.AuthService
	CatalogService service.CatalogService
	BookingService service.BookingService
	TouristService service.TouristService
	SalesService   service.SalesService
	PaymentService service.PaymentService

	// Handlers
	Handlers *handler.Handlers
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	// DB selects the PostgreSQL repositories; nil falls back to memory
	DB    *database.PostgresDB
	Redis *redis.Client
	// Producer enables domain events and the notification DLQ
	Producer *kafka.Producer
	Logger   *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, fmt.Errorf("container config is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	appCfg := cfg.Config

	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	c.initRepositories(log)

	if err := c.initVerifier(appCfg.Auth); err != nil {
		return nil, err
	}

	processors, err := buildProcessors(appCfg, log)
	if err != nil {
		return nil, err
	}
	c.Processors = processors

	c.Rates = buildRates(appCfg.Exchange, c.Redis, log)

	notifier, err := c.buildNotifier(appCfg, log)
	if err != nil {
		return nil, err
	}
	c.Notifier = notifier

	publisher, err := c.buildEventPublisher(appCfg)
	if err != nil {
		return nil, err
	}
	c.EventPublisher = publisher

	// Initialize services
	c.AuthService = service.NewAuthService(service.AuthDeps{
		Accounts: c.AccountRepo,
		Sessions: c.SessionRepo,
		Notifier: c.Notifier,
		Issuer:   c.tokenIssuer(),
		Logger:   log,
	}, &service.AuthServiceConfig{
		BcryptCost:    appCfg.Auth.BcryptCost,
		SessionTTL:    appCfg.Auth.SessionTTL,
		AccessTTL:     appCfg.Auth.AccessTTL,
		VerifyTTL:     appCfg.Auth.VerifyTTL,
		ResetTTL:      appCfg.Auth.ResetTTL,
		ClientSiteURL: appCfg.Auth.ClientSiteURL,
		AdminSiteURL:  appCfg.Auth.AdminSiteURL,
		MaxOwners:     appCfg.Auth.MaxOwners,
	})
	c.CatalogService = service.NewCatalogService(c.CatalogRepo, c.TxManager, nil)
	c.BookingService = service.NewBookingService(c.UserRepo, c.CatalogRepo, c.BookingRepo, c.TxManager, c.EventPublisher, log, nil)
	c.TouristService = service.NewTouristService(c.BookingRepo, c.TouristRepo, c.TxManager, nil)
	c.SalesService = service.NewSalesService(c.SaleRepo, nil)
	c.PaymentService = service.NewPaymentService(service.PaymentDeps{
		Users:          c.UserRepo,
		Catalog:        c.CatalogRepo,
		Bookings:       c.BookingRepo,
		Tourists:       c.TouristRepo,
		Payments:       c.PaymentRepo,
		BookingService: c.BookingService,
		SalesService:   c.SalesService,
		Tx:             c.TxManager,
		Processors:     c.Processors,
		Rates:          c.Rates,
		Notifier:       c.Notifier,
		EventPublisher: c.EventPublisher,
		Logger:         log,
	}, &service.PaymentServiceConfig{
		InvoiceAttempts: appCfg.Payment.InvoiceAttempts,
	})

	// Initialize handlers
	c.Handlers = &handler.Handlers{
		Health:  handler.NewHealthHandler(c.dbChecker(), c.redisChecker()),
		Auth:    handler.NewAuthHandler(c.AuthService),
		Catalog: handler.NewCatalogHandler(c.CatalogService),
		Booking: handler.NewBookingHandler(c.BookingService),
		Tourist: handler.NewTouristHandler(c.TouristService),
		Payment: handler.NewPaymentHandler(c.PaymentService),
		Webhook: handler.NewWebhookHandler(c.PaymentService),
		Sales:   handler.NewSalesHandler(c.SalesService),
	}

	return c, nil
}

// RouterConfig returns the route protection settings
func (c *Container) RouterConfig(paymentCfg config.PaymentConfig) handler.RouterConfig {
	idempotency := &middleware.IdempotencyConfig{}
	if c.Redis != nil {
		idempotency = middleware.DefaultIdempotencyConfig(c.Redis)
		if paymentCfg.IdempotencyTTL > 0 {
			idempotency.TTL = paymentCfg.IdempotencyTTL
		}
	}
	return handler.RouterConfig{
		Verifier:    c.Verifier,
		Idempotency: idempotency,
	}
}

// Close releases what the container created. Infrastructure passed in is
// closed by its owner.
func (c *Container) Close() error {
	if c.EventPublisher != nil {
		return c.EventPublisher.Close()
	}
	return nil
}

func (c *Container) initRepositories(log *logger.Logger) {
	if c.DB != nil {
		c.TxManager = c.DB
		users := repository.NewPostgresUserRepository(c.DB)
		c.UserRepo = users
		c.AccountRepo = users
		c.SessionRepo = users
		c.CatalogRepo = repository.NewPostgresCatalogRepository(c.DB)
		c.BookingRepo = repository.NewPostgresBookingRepository(c.DB)
		c.TouristRepo = repository.NewPostgresTouristRepository(c.DB)
		c.PaymentRepo = repository.NewPostgresPaymentRepository(c.DB)
		c.SaleRepo = repository.NewPostgresSaleRepository(c.DB)
		log.Info("Using PostgreSQL repositories")
		return
	}

	c.Memory = repository.NewMemoryStore()
	c.TxManager = c.Memory
	c.UserRepo = c.Memory.Users()
	c.AccountRepo = c.Memory.Users()
	c.SessionRepo = c.Memory.Users()
	c.CatalogRepo = c.Memory.Catalog()
	c.BookingRepo = c.Memory.Bookings()
	c.TouristRepo = c.Memory.Tourists()
	c.PaymentRepo = c.Memory.Payments()
	c.SaleRepo = c.Memory.Sales()
	log.Warn("Using in-memory repositories (data will not persist)")
}

func (c *Container) initVerifier(cfg config.AuthConfig) error {
	switch cfg.Mode {
	case "jwt":
		c.Verifier = middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	case "session":
		verifier, ok := c.SessionRepo.(middleware.TokenVerifier)
		if !ok {
			return fmt.Errorf("session repository cannot verify tokens")
		}
		c.Verifier = verifier
	default:
		return fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
	return nil
}

// tokenIssuer signs access tokens in jwt mode. In session mode logins hand
// out the opaque session token itself.
func (c *Container) tokenIssuer() service.TokenIssuer {
	if jwt, ok := c.Verifier.(*middleware.JWTVerifier); ok {
		return jwt
	}
	return nil
}

// buildProcessors registers PayPal for paypal and Stripe for credit_card.
// Missing credentials fall back to the mock processor for that method.
func buildProcessors(cfg *config.Config, log *logger.Logger) (*gateway.Registry, error) {
	registry := gateway.NewRegistry()
	mock := gateway.NewMockProcessor(gateway.DefaultMockProcessorConfig())

	if cfg.Payment.Gateway == "mock" {
		log.Info("Using mock payment processors")
		return registry.
			Register(domain.PaymentMethodPayPal, mock).
			Register(domain.PaymentMethodCreditCard, mock), nil
	}

	if cfg.PayPal.ClientID != "" && cfg.PayPal.ClientSecret != "" {
		paypal, err := gateway.NewPayPalProcessor(&gateway.PayPalConfig{
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
			APIBase:      cfg.PayPal.APIBase,
			BrandName:    cfg.PayPal.BrandName,
			ReturnURL:    cfg.PayPal.ReturnURL,
			CancelURL:    cfg.PayPal.CancelURL,
			Timeout:      cfg.PayPal.Timeout,
			WebhookID:    cfg.PayPal.WebhookID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create paypal processor: %w", err)
		}
		registry.Register(domain.PaymentMethodPayPal, paypal)
		log.Info("Using PayPal processor", zap.String("api_base", cfg.PayPal.APIBase))
	} else {
		registry.Register(domain.PaymentMethodPayPal, mock)
		log.Warn("PAYPAL_CLIENT_ID not set, falling back to mock processor for paypal")
	}

	if cfg.Stripe.SecretKey != "" {
		stripe, err := gateway.NewStripeProcessor(&gateway.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stripe processor: %w", err)
		}
		registry.Register(domain.PaymentMethodCreditCard, stripe)
		log.Info("Using Stripe processor for credit_card")
	} else {
		registry.Register(domain.PaymentMethodCreditCard, mock)
		log.Warn("STRIPE_SECRET_KEY not set, falling back to mock processor for credit_card")
	}

	return registry, nil
}

func buildRates(cfg config.ExchangeConfig, redisClient *redis.Client, log *logger.Logger) *exchange.Service {
	var cache exchange.Cache = exchange.NewMemoryCache(time.Now)
	if redisClient != nil {
		cache = exchange.NewRedisCache(redisClient)
	}
	fallback := lo.MapValues(cfg.FallbackRates, func(rate float64, _ string) decimal.Decimal {
		return decimal.NewFromFloat(rate)
	})
	return exchange.NewService(
		exchange.NewHTTPProvider(cfg.APIURL, cfg.Timeout),
		cache,
		&exchange.Config{TTL: cfg.CacheTTL, FallbackRates: fallback},
		log,
	)
}

func (c *Container) buildNotifier(cfg *config.Config, log *logger.Logger) (notification.Dispatcher, error) {
	var mailer notification.Mailer = notification.NewLogMailer(log)
	if cfg.Mail.Enabled {
		smtp, err := notification.NewSMTPMailer(&notification.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  30 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create smtp mailer: %w", err)
		}
		mailer = smtp
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Mail.MaxRetries

	var dlq retry.DLQPublisher
	if c.Producer != nil {
		dlq = retry.NewKafkaDLQPublisher(c.Producer, &retry.DLQConfig{Source: cfg.App.Name})
	}

	return notification.NewDispatcher(mailer, &notification.DispatcherConfig{
		OwnerEmail:  cfg.Mail.OwnerEmail,
		AdminEmails: cfg.Mail.AdminEmails,
		Retry:       retryCfg,
		Topic:       cfg.Kafka.NotificationTopic,
	}, dlq, log), nil
}

func (c *Container) buildEventPublisher(cfg *config.Config) (service.EventPublisher, error) {
	if c.Producer == nil {
		return service.NewNoOpEventPublisher(), nil
	}
	return service.NewKafkaEventPublisher(c.Producer, &service.EventPublisherConfig{
		BookingTopic: cfg.Kafka.BookingTopic,
		PaymentTopic: cfg.Kafka.PaymentTopic,
		ServiceName:  cfg.App.Name,
	})
}

// dbChecker avoids handing a typed nil to the health handler
func (c *Container) dbChecker() handler.HealthChecker {
	if c.DB == nil {
		return nil
	}
	return c.DB
}

func (c *Container) redisChecker() handler.HealthChecker {
	if c.Redis == nil {
		return nil
	}
	return c.Redis
}
