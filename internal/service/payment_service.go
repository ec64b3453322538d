package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bentansusanto/travel-api/internal/besteffort"
	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/exchange"
	"github.com/bentansusanto/travel-api/internal/gateway"
	"github.com/bentansusanto/travel-api/internal/metrics"
	"github.com/bentansusanto/travel-api/internal/notification"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// WebhookOutcome reports what a webhook delivery did
type WebhookOutcome string

const (
	WebhookProcessed        WebhookOutcome = "processed"
	WebhookAlreadyProcessed WebhookOutcome = "already_processed"
	WebhookIgnored          WebhookOutcome = "ignored"
	WebhookFailed           WebhookOutcome = "failed"
)

const (
	viaCapture = "capture"
	viaWebhook = "webhook"
)

// ExchangeRates quotes currency units per USD
type ExchangeRates interface {
	UnitsPerUSD(ctx context.Context, currency string) (*exchange.Quote, error)
}

// PaymentService defines the interface for payment orchestration
type PaymentService interface {
	// CreatePayment prices the booking and opens an order with the processor
	// of the requested method
	CreatePayment(ctx context.Context, userID string, req *dto.CreatePaymentRequest) (*domain.Payment, error)

	// CapturePayment captures an approved order. Capturing a successful
	// payment again returns it unchanged.
	CapturePayment(ctx context.Context, orderID string) (*domain.Payment, error)

	// HandleWebhook applies a processor notification. It never fails; the
	// outcome is only reported.
	HandleWebhook(ctx context.Context, method string, payload []byte, headers http.Header) WebhookOutcome

	CancelPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID, userID string) (*domain.Payment, error)
}

// paymentService implements PaymentService
type paymentService struct {
	users          repository.UserRepository
	catalog        repository.CatalogRepository
	bookingRepo    repository.BookingRepository
	tourists       repository.TouristRepository
	payments       repository.PaymentRepository
	bookings       BookingService
	sales          SalesService
	tx             repository.TxManager
	processors     *gateway.Registry
	rates          ExchangeRates
	notifier       notification.Dispatcher
	eventPublisher EventPublisher
	runner         *besteffort.Runner
	log            *logger.Logger
	config         PaymentServiceConfig
}

// PaymentServiceConfig contains configuration for payment service
type PaymentServiceConfig struct {
	// InvoiceAttempts bounds the search for a free invoice code
	InvoiceAttempts int
	// DefaultCurrency prices bookings when the request names none
	DefaultCurrency string
	Now             func() time.Time
}

// PaymentDeps groups the collaborators of the payment service
type PaymentDeps struct {
	Users          repository.UserRepository
	Catalog        repository.CatalogRepository
	Bookings       repository.BookingRepository
	Tourists       repository.TouristRepository
	Payments       repository.PaymentRepository
	BookingService BookingService
	SalesService   SalesService
	// Tx makes the success write, the booking move and the sale atomic
	Tx             repository.TxManager
	Processors     *gateway.Registry
	Rates          ExchangeRates
	Notifier       notification.Dispatcher
	EventPublisher EventPublisher
	Logger         *logger.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(deps PaymentDeps, cfg *PaymentServiceConfig) PaymentService {
	config := PaymentServiceConfig{
		InvoiceAttempts: 20,
		DefaultCurrency: "IDR",
		Now:             time.Now,
	}
	if cfg != nil {
		if cfg.InvoiceAttempts > 0 {
			config.InvoiceAttempts = cfg.InvoiceAttempts
		}
		if cfg.DefaultCurrency != "" {
			config.DefaultCurrency = strings.ToUpper(cfg.DefaultCurrency)
		}
		if cfg.Now != nil {
			config.Now = cfg.Now
		}
	}
	if deps.EventPublisher == nil {
		deps.EventPublisher = NewNoOpEventPublisher()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Tx == nil {
		deps.Tx = noTx{}
	}

	return &paymentService{
		users:          deps.Users,
		catalog:        deps.Catalog,
		bookingRepo:    deps.Bookings,
		tourists:       deps.Tourists,
		payments:       deps.Payments,
		bookings:       deps.BookingService,
		sales:          deps.SalesService,
		tx:             deps.Tx,
		processors:     deps.Processors,
		rates:          deps.Rates,
		notifier:       deps.Notifier,
		eventPublisher: deps.EventPublisher,
		runner:         besteffort.NewRunner(deps.Logger),
		log:            deps.Logger,
		config:         config,
	}
}

// CreatePayment starts a payment for a booking
func (s *paymentService) CreatePayment(ctx context.Context, userID string, req *dto.CreatePaymentRequest) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.create")
	defer span.End()

	if req == nil || req.BookingID == "" {
		return nil, domain.ErrBookingNotFound
	}
	method := domain.PaymentMethod(strings.ToLower(req.Method))
	if !method.IsValid() {
		return nil, domain.ErrInvalidPaymentMethod
	}
	processor, err := s.processors.Resolve(method)
	if err != nil {
		span.SetStatus(codes.Error, "unsupported method")
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMethod, method)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("booking_id", req.BookingID),
		attribute.String("method", string(method)),
	)

	var (
		user     *domain.User
		booking  *domain.Booking
		tourists []*domain.Tourist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.users.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(gctx, req.BookingID)
		return err
	})
	g.Go(func() error {
		var err error
		tourists, err = s.tourists.ListByBooking(gctx, req.BookingID)
		return err
	})
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !booking.IsOwnedBy(userID) {
		return nil, domain.ErrBookingNotFound
	}
	if !booking.Status.IsOpen() {
		return nil, domain.ErrBookingAlreadyPaid
	}
	if len(tourists) == 0 {
		return nil, domain.ErrNoTourists
	}

	amount := booking.Subtotal.Mul(decimal.NewFromInt(int64(len(tourists))))
	rate := req.ExchangeRate
	if !rate.IsPositive() {
		quote, err := s.rates.UnitsPerUSD(ctx, currency)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		rate = quote.Rate
	}

	payment := domain.NewPayment(userID, booking.ID, method, amount, currency, rate, s.config.Now().UTC())
	if err := s.insertWithInvoiceCode(ctx, payment); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("payment_id", payment.ID),
		attribute.String("invoice_code", payment.InvoiceCode),
	)

	if _, err := s.bookings.SetStatus(ctx, booking.ID, domain.BookingStatusPending, domain.PaymentActor); err != nil {
		s.markFailed(ctx, payment, "booking_status")
		return nil, err
	}

	order, err := processor.CreateOrder(ctx, &gateway.OrderRequest{
		PaymentID:   payment.ID,
		InvoiceCode: payment.InvoiceCode,
		AmountUSD:   payment.AmountUSD,
		Description: "Order ID: " + payment.ID,
		PayerEmail:  user.Email,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Processor order creation failed",
			zap.String("payment_id", payment.ID),
			zap.String("processor", processor.Name()),
			zap.Error(err))
		s.markFailed(ctx, payment, "create_order")
		s.resetBooking(ctx, booking.ID)
		span.SetStatus(codes.Error, "create order failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessorUnavailable, err)
	}

	payment.TransactionID = order.ID
	payment.RedirectURL = order.ApprovalURL
	payment.UpdatedAt = s.config.Now().UTC()
	if err := s.payments.Update(ctx, payment); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	amountUSD, _ := payment.AmountUSD.Float64()
	metrics.RecordPaymentCreated(ctx, string(method), payment.Currency, amountUSD)

	s.runner.Do(ctx, "email.booking_confirmation", func(ctx context.Context) error {
		if s.notifier == nil {
			return nil
		}
		return s.notifier.SendOrder(ctx, notification.KindBookingConfirmation, user.Email, s.orderFields(ctx, payment, booking, user))
	})
	s.publish(ctx, domain.NewEvent(domain.EventPaymentCreated, payment.ID, userID, map[string]any{
		"booking_id":   booking.ID,
		"invoice_code": payment.InvoiceCode,
		"amount":       payment.Amount.String(),
		"currency":     payment.Currency,
		"amount_usd":   payment.AmountUSD.StringFixed(2),
		"method":       string(method),
	}))

	return payment, nil
}

// insertWithInvoiceCode draws invoice codes until one is free. A collision
// on insert counts as a taken code.
func (s *paymentService) insertWithInvoiceCode(ctx context.Context, payment *domain.Payment) error {
	for i := 0; i < s.config.InvoiceAttempts; i++ {
		code := domain.NewInvoiceCode()
		taken, err := s.payments.InvoiceCodeExists(ctx, code)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		payment.InvoiceCode = code
		err = s.payments.Create(ctx, payment)
		if errors.Is(err, domain.ErrInvoiceCodeTaken) {
			continue
		}
		return err
	}
	payment.InvoiceCode = ""
	return domain.ErrInvoiceCodeExhausted
}

// CapturePayment captures the order held by a pending payment
func (s *paymentService) CapturePayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.capture")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	payment, err := s.payments.GetByTransactionID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch payment.Status {
	case domain.PaymentStatusSuccess:
		if err := s.ensureSale(ctx, payment); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		return payment, nil
	case domain.PaymentStatusCancelled, domain.PaymentStatusFailed:
		return nil, domain.ErrPaymentNotPending
	}

	processor, err := s.processors.Resolve(payment.Method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMethod, payment.Method)
	}

	start := time.Now()
	result, err := processor.Capture(ctx, orderID)
	metrics.RecordCaptureDuration(ctx, processor.Name(), time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, gateway.ErrDeclined):
			s.markFailed(ctx, payment, "declined")
			s.resetBooking(ctx, payment.BookingID)
			return nil, domain.ErrCaptureDeclined
		case errors.Is(err, gateway.ErrTooManyAttempts):
			return nil, domain.ErrTooManyAttempts
		default:
			s.log.ErrorContext(ctx, "Processor capture failed",
				zap.String("payment_id", payment.ID),
				zap.String("processor", processor.Name()),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %v", domain.ErrProcessorUnavailable, err)
		}
	}

	updated, _, err := s.applySuccess(ctx, payment, result.PayerEmail, viaCapture)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return updated, nil
}

// HandleWebhook processes a processor webhook
func (s *paymentService) HandleWebhook(ctx context.Context, method string, payload []byte, headers http.Header) WebhookOutcome {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.webhook")
	defer span.End()

	m := domain.PaymentMethod(strings.ToLower(method))
	if m == "" {
		m = domain.PaymentMethodPayPal
	}

	outcome := WebhookFailed
	out := s.runner.Do(ctx, "webhook."+string(m), func(ctx context.Context) error {
		var err error
		outcome, err = s.handleWebhook(ctx, m, payload, headers)
		return err
	})
	if !out.OK() {
		outcome = WebhookFailed
	}

	span.SetAttributes(
		attribute.String("method", string(m)),
		attribute.String("outcome", string(outcome)),
	)
	metrics.RecordWebhook(ctx, string(m), string(outcome))
	return outcome
}

func (s *paymentService) handleWebhook(ctx context.Context, method domain.PaymentMethod, payload []byte, headers http.Header) (WebhookOutcome, error) {
	parser, err := s.processors.WebhookParser(method)
	if err != nil {
		return WebhookFailed, err
	}
	event, err := parser.ParseWebhook(ctx, payload, headers)
	if err != nil {
		return WebhookFailed, err
	}
	switch event.Kind {
	case gateway.WebhookCaptured:
	case gateway.WebhookApproved:
		return s.captureApproved(ctx, event)
	default:
		s.log.Debug("Webhook ignored", zap.String("method", string(method)), zap.String("type", event.Type))
		return WebhookIgnored, nil
	}

	payment, err := s.payments.GetByTransactionID(ctx, event.OrderID)
	if err != nil {
		return WebhookFailed, fmt.Errorf("webhook %s for order %s: %w", event.Type, event.OrderID, err)
	}
	if payment.Status == domain.PaymentStatusSuccess {
		if err := s.ensureSale(ctx, payment); err != nil {
			return WebhookFailed, err
		}
		return WebhookAlreadyProcessed, nil
	}

	_, applied, err := s.applySuccess(ctx, payment, event.PayerEmail, viaWebhook)
	if err != nil {
		return WebhookFailed, err
	}
	if !applied {
		return WebhookAlreadyProcessed, nil
	}
	return WebhookProcessed, nil
}

// captureApproved captures an order the payer approved. Approval alone
// never revives a cancelled or failed payment.
func (s *paymentService) captureApproved(ctx context.Context, event *gateway.WebhookEvent) (WebhookOutcome, error) {
	payment, err := s.payments.GetByTransactionID(ctx, event.OrderID)
	if err != nil {
		return WebhookFailed, fmt.Errorf("webhook %s for order %s: %w", event.Type, event.OrderID, err)
	}
	switch payment.Status {
	case domain.PaymentStatusPending:
	case domain.PaymentStatusSuccess:
		return WebhookAlreadyProcessed, nil
	default:
		s.log.Info("Approval for closed payment ignored",
			zap.String("payment_id", payment.ID),
			zap.String("status", string(payment.Status)))
		return WebhookIgnored, nil
	}

	if _, err := s.CapturePayment(ctx, event.OrderID); err != nil {
		return WebhookFailed, err
	}
	return WebhookProcessed, nil
}

// applySuccess marks the payment successful and runs the follow-ups. The
// status write, the booking move and the sale commit together; only the
// caller that wins the status compare-and-set records the sale, and
// applied=false means another caller already did.
func (s *paymentService) applySuccess(ctx context.Context, payment *domain.Payment, payerEmail, via string) (*domain.Payment, bool, error) {
	observed := payment.Status
	if err := payment.TransitionTo(domain.PaymentStatusSuccess, via == viaWebhook, s.config.Now().UTC()); err != nil {
		return nil, false, fmt.Errorf("payment %s is %s: %w", payment.ID, observed, err)
	}
	if payerEmail != "" {
		payment.PayerEmail = payerEmail
	}
	payment.RedirectURL = ""

	var won bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		won, err = s.payments.CompareAndSetStatus(ctx, payment, observed)
		if err != nil || !won {
			return err
		}

		if _, err := s.bookings.SetStatus(ctx, payment.BookingID, domain.BookingStatusOngoing, domain.PaymentActor); err != nil {
			s.log.ErrorContext(ctx, "Booking not moved to ongoing after payment",
				zap.String("payment_id", payment.ID),
				zap.String("booking_id", payment.BookingID),
				zap.Error(err))
		}
		return s.sales.RecordFromPayment(ctx, payment.ID, payment.BookingID, payment.Amount, payment.Currency)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Payment success not recorded",
			zap.String("payment_id", payment.ID),
			zap.String("via", via),
			zap.Error(err))
		return nil, false, err
	}
	if !won {
		current, err := s.payments.GetByID(ctx, payment.ID)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}

	metrics.RecordPaymentSucceeded(ctx, string(payment.Method), via)

	s.runner.Do(ctx, "email.payment_success", func(ctx context.Context) error {
		if s.notifier == nil {
			return nil
		}
		user, err := s.users.GetByID(ctx, payment.UserID)
		if err != nil {
			return err
		}
		booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
		if err != nil {
			return err
		}
		return s.notifier.SendOrder(ctx, notification.KindPaymentSuccess, user.Email, s.orderFields(ctx, payment, booking, user))
	})
	s.publish(ctx, domain.NewEvent(domain.EventPaymentSucceeded, payment.ID, payment.UserID, map[string]any{
		"booking_id":   payment.BookingID,
		"invoice_code": payment.InvoiceCode,
		"amount":       payment.Amount.String(),
		"currency":     payment.Currency,
		"via":          via,
	}))

	return payment, true, nil
}

// ensureSale records the sale of a payment already marked successful. A
// store without transactions can keep the success write after the sale
// insert failed; a replayed capture or webhook completes the ledger.
func (s *paymentService) ensureSale(ctx context.Context, payment *domain.Payment) error {
	if err := s.sales.RecordFromPayment(ctx, payment.ID, payment.BookingID, payment.Amount, payment.Currency); err != nil {
		s.log.ErrorContext(ctx, "Sale still missing for successful payment",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
		return err
	}
	return nil
}

// noTx runs fn without a transaction
type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CancelPayment cancels a pending payment and reopens its booking
func (s *paymentService) CancelPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.cancel")
	defer span.End()

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsOwnedBy(userID) {
		return nil, domain.ErrPaymentNotFound
	}
	if err := cancellable(payment.Status); err != nil {
		return nil, err
	}

	observed := payment.Status
	if err := payment.TransitionTo(domain.PaymentStatusCancelled, false, s.config.Now().UTC()); err != nil {
		return nil, err
	}
	won, err := s.payments.CompareAndSetStatus(ctx, payment, observed)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !won {
		current, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if err := cancellable(current.Status); err != nil {
			return nil, err
		}
		return nil, domain.ErrPaymentNotPending
	}

	s.resetBooking(ctx, payment.BookingID)
	metrics.RecordPaymentCancelled(ctx, string(payment.Method))
	s.publish(ctx, domain.NewEvent(domain.EventPaymentCancelled, payment.ID, userID, map[string]any{
		"booking_id":   payment.BookingID,
		"invoice_code": payment.InvoiceCode,
	}))

	return payment, nil
}

func cancellable(status domain.PaymentStatus) error {
	switch status {
	case domain.PaymentStatusSuccess:
		return domain.ErrPaymentAlreadySucceeded
	case domain.PaymentStatusCancelled:
		return domain.ErrPaymentAlreadyCancelled
	case domain.PaymentStatusFailed:
		return domain.ErrPaymentNotPending
	}
	return nil
}

// ListPayments returns the traveller's payments, newest first
func (s *paymentService) ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.list")
	defer span.End()
	return s.payments.ListByUser(ctx, userID)
}

// GetPayment returns a payment owned by userID
func (s *paymentService) GetPayment(ctx context.Context, paymentID, userID string) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.get")
	defer span.End()

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsOwnedBy(userID) {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// markFailed records a failed attempt unless a concurrent writer moved the
// payment first
func (s *paymentService) markFailed(ctx context.Context, payment *domain.Payment, reason string) {
	observed := payment.Status
	if err := payment.TransitionTo(domain.PaymentStatusFailed, false, s.config.Now().UTC()); err != nil {
		return
	}
	if _, err := s.payments.CompareAndSetStatus(ctx, payment, observed); err != nil {
		s.log.ErrorContext(ctx, "Failed to mark payment failed",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
	}
	metrics.RecordPaymentFailed(ctx, string(payment.Method), reason)
}

// resetBooking returns a pending booking to draft so it can be paid again
func (s *paymentService) resetBooking(ctx context.Context, bookingID string) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil || booking.Status != domain.BookingStatusPending {
		return
	}
	if _, err := s.bookings.SetStatus(ctx, bookingID, domain.BookingStatusDraft, domain.PaymentActor); err != nil {
		s.log.WarnContext(ctx, "Booking not returned to draft",
			zap.String("booking_id", bookingID),
			zap.Error(err))
	}
}

func (s *paymentService) publish(ctx context.Context, event *domain.Event) {
	s.runner.Do(ctx, "event."+string(event.Type), func(ctx context.Context) error {
		return s.eventPublisher.Publish(ctx, event)
	})
}

// orderFields fills the order email template
func (s *paymentService) orderFields(ctx context.Context, payment *domain.Payment, booking *domain.Booking, user *domain.User) notification.Fields {
	items := make([]notification.Item, 0, len(booking.Items))
	for _, item := range booking.Items {
		name := item.DestinationID
		if s.catalog != nil {
			if d, err := s.catalog.GetDestination(ctx, item.DestinationID); err == nil {
				name = d.Name(domain.LanguageEN)
			}
		}
		items = append(items, notification.Item{Name: name, VisitDate: item.VisitDate.Format(time.DateOnly)})
	}

	return notification.Fields{
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		OrderCode:     payment.InvoiceCode,
		Items:         items,
		TotalAmount:   formatAmount(payment.Amount),
		AmountUSD:     payment.AmountUSD.StringFixed(2),
		Currency:      payment.Currency,
		ExchangeRate:  formatAmount(payment.ExchangeRate),
		PaymentMethod: string(payment.Method),
		ShowUSD:       payment.Currency != "USD",
	}
}

// formatAmount groups thousands and drops a zero fraction: 1600000 -> 1,600,000
func formatAmount(d decimal.Decimal) string {
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "00" {
		b.WriteString("." + frac)
	}
	return b.String()
}
