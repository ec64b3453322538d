package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/exchange"
	"github.com/bentansusanto/travel-api/internal/gateway"
	"github.com/bentansusanto/travel-api/internal/notification"
	"github.com/bentansusanto/travel-api/internal/repository"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func day(offset int) time.Time {
	return domain.DateOnly(fixedNow).AddDate(0, 0, offset)
}

// MockExchangeRates is a mock implementation of ExchangeRates
type MockExchangeRates struct {
	UnitsPerUSDFunc func(ctx context.Context, currency string) (*exchange.Quote, error)
}

func (m *MockExchangeRates) UnitsPerUSD(ctx context.Context, currency string) (*exchange.Quote, error) {
	if m.UnitsPerUSDFunc != nil {
		return m.UnitsPerUSDFunc(ctx, currency)
	}
	return &exchange.Quote{Currency: currency, Rate: decimal.NewFromInt(16000), Source: exchange.SourceFallback}, nil
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	CreateFunc              func(ctx context.Context, payment *domain.Payment) error
	InvoiceCodeExistsFunc   func(ctx context.Context, code string) (bool, error)
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Payment, error)
	GetByTransactionIDFunc  func(ctx context.Context, transactionID string) (*domain.Payment, error)
	ListByUserFunc          func(ctx context.Context, userID string) ([]*domain.Payment, error)
	UpdateFunc              func(ctx context.Context, payment *domain.Payment) error
	CompareAndSetStatusFunc func(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) (bool, error)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment)
	}
	return nil
}

func (m *MockPaymentRepository) InvoiceCodeExists(ctx context.Context, code string) (bool, error) {
	if m.InvoiceCodeExistsFunc != nil {
		return m.InvoiceCodeExistsFunc(ctx, code)
	}
	return false, nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	if m.GetByTransactionIDFunc != nil {
		return m.GetByTransactionIDFunc(ctx, transactionID)
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*domain.Payment{}, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, payment)
	}
	return nil
}

func (m *MockPaymentRepository) CompareAndSetStatus(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) (bool, error) {
	if m.CompareAndSetStatusFunc != nil {
		return m.CompareAndSetStatusFunc(ctx, payment, expected)
	}
	return true, nil
}

// sentEmail is one call recorded by recordingDispatcher
type sentEmail struct {
	Kind   notification.Kind
	To     string
	Fields notification.Fields
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (d *recordingDispatcher) Send(_ context.Context, kind notification.Kind, recipient string, fields notification.Fields) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentEmail{Kind: kind, To: recipient, Fields: fields})
	return d.err
}

func (d *recordingDispatcher) SendOrder(ctx context.Context, kind notification.Kind, customer string, fields notification.Fields) error {
	return d.Send(ctx, kind, customer, fields)
}

func (d *recordingDispatcher) kinds() []notification.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notification.Kind, 0, len(d.sent))
	for _, s := range d.sent {
		out = append(out, s.Kind)
	}
	return out
}

// failingSales fails the next failures RecordFromPayment calls
type failingSales struct {
	SalesService
	mu       sync.Mutex
	failures int
}

func (s *failingSales) RecordFromPayment(ctx context.Context, paymentID, bookingID string, amount decimal.Decimal, currency string) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errors.New("ledger unavailable")
	}
	s.mu.Unlock()
	return s.SalesService.RecordFromPayment(ctx, paymentID, bookingID, amount, currency)
}

// fixture wires every service over one memory store, a mock processor
// registered for paypal and credit_card, and a fixed clock
type fixture struct {
	store     *repository.MemoryStore
	events    *RecordingEventPublisher
	notifier  *recordingDispatcher
	processor *gateway.MockProcessor
	rates     *MockExchangeRates

	catalog  CatalogService
	bookings BookingService
	tourists TouristService
	sales    SalesService
	payments PaymentService

	user      *domain.User
	indonesia *domain.Country
	thailand  *domain.Country
	uluwatu   *domain.Destination // 500000, Indonesia
	tanahLot  *domain.Destination // 300000, Indonesia
	phiPhi    *domain.Destination // 2000, Thailand
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	f := &fixture{
		store:     store,
		events:    NewRecordingEventPublisher(),
		notifier:  &recordingDispatcher{},
		processor: gateway.NewMockProcessor(gateway.DefaultMockProcessorConfig()),
		rates:     &MockExchangeRates{},
		user:      &domain.User{ID: "user-001", Name: "Ana", Email: "ana@example.com", Role: "traveller"},
	}
	store.PutUser(f.user)

	f.catalog = NewCatalogService(store.Catalog(), store, &CatalogServiceConfig{Now: clock})
	f.bookings = NewBookingService(store.Users(), store.Catalog(), store.Bookings(), store, f.events, nil, &BookingServiceConfig{Now: clock})
	f.tourists = NewTouristService(store.Bookings(), store.Tourists(), store, &TouristServiceConfig{Now: clock})
	f.sales = NewSalesService(store.Sales(), &SalesServiceConfig{Now: clock})
	f.payments = f.paymentService(store.Payments())

	f.seedCatalog(t)
	return f
}

// paymentService builds a payment service over payments, sharing the rest
// of the fixture
func (f *fixture) paymentService(payments repository.PaymentRepository) PaymentService {
	return f.paymentServiceWith(payments, f.sales)
}

func (f *fixture) paymentServiceWith(payments repository.PaymentRepository, sales SalesService) PaymentService {
	registry := gateway.NewRegistry().
		Register(domain.PaymentMethodPayPal, f.processor).
		Register(domain.PaymentMethodCreditCard, f.processor)

	return NewPaymentService(PaymentDeps{
		Users:          f.store.Users(),
		Catalog:        f.store.Catalog(),
		Bookings:       f.store.Bookings(),
		Tourists:       f.store.Tourists(),
		Payments:       payments,
		BookingService: f.bookings,
		SalesService:   sales,
		Tx:             f.store,
		Processors:     registry,
		Rates:          f.rates,
		Notifier:       f.notifier,
		EventPublisher: f.events,
	}, &PaymentServiceConfig{Now: clock})
}

func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	repo := f.store.Catalog()

	f.indonesia = &domain.Country{ID: "country-id", ISO: "ID", Name: "Indonesia", Currency: "IDR"}
	f.thailand = &domain.Country{ID: "country-th", ISO: "TH", Name: "Thailand", Currency: "THB"}
	require.NoError(t, repo.CreateCountry(ctx, f.indonesia))
	require.NoError(t, repo.CreateCountry(ctx, f.thailand))
	require.NoError(t, repo.CreateState(ctx, &domain.State{ID: "state-bali", CountryID: f.indonesia.ID, Name: "Bali"}))
	require.NoError(t, repo.CreateState(ctx, &domain.State{ID: "state-krabi", CountryID: f.thailand.ID, Name: "Krabi"}))
	require.NoError(t, repo.CreateCategory(ctx, &domain.Category{ID: "cat-nature", Name: "Nature", Code: "nature"}))

	f.uluwatu = f.destination(t, "state-bali", f.indonesia.ID, "Uluwatu Temple", 500000)
	f.tanahLot = f.destination(t, "state-bali", f.indonesia.ID, "Tanah Lot", 300000)
	f.phiPhi = f.destination(t, "state-krabi", f.thailand.ID, "Phi Phi Islands", 2000)
}

func (f *fixture) destination(t *testing.T, stateID, countryID, name string, price int64) *domain.Destination {
	t.Helper()
	d := domain.NewDestination("cat-nature", stateID, countryID, decimal.NewFromInt(price), fixedNow)
	d.Translations = []domain.DestinationTranslation{{
		ID:            d.ID + "-en",
		DestinationID: d.ID,
		LanguageCode:  domain.LanguageEN,
		Name:          name,
		Slug:          domain.Slugify(name),
	}}
	require.NoError(t, f.store.Catalog().CreateDestination(context.Background(), d))
	return d
}

func person(name, passport string) domain.TouristFields {
	return domain.TouristFields{Name: name, Gender: domain.GenderMs, Nationality: "Indonesia", PassportNo: passport}
}

// bookingWithTourists books both Bali destinations and registers n tourists
func (f *fixture) bookingWithTourists(t *testing.T, n int) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	_, err := f.bookings.AddDestination(ctx, f.user.ID, f.uluwatu.ID, day(10))
	require.NoError(t, err)
	booking, err := f.bookings.AddDestination(ctx, f.user.ID, f.tanahLot.ID, day(11))
	require.NoError(t, err)

	people := make([]domain.TouristFields, n)
	for i := range people {
		people[i] = person("Traveller", "P"+string(rune('A'+i))+"1234567")
	}
	if n > 0 {
		_, err = f.tourists.AddMany(ctx, booking.ID, f.user.ID, people)
		require.NoError(t, err)
	}
	return booking
}
