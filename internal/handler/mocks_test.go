package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockCatalogService is a mock implementation of CatalogService for testing
type MockCatalogService struct {
	CreateCountryFunc        func(ctx context.Context, req *dto.CreateCountryRequest) (*domain.Country, error)
	GetCountryFunc           func(ctx context.Context, id string) (*domain.Country, error)
	ListCountriesFunc        func(ctx context.Context) ([]*domain.Country, error)
	ListCategoriesFunc       func(ctx context.Context) ([]*domain.Category, error)
	CreateDestinationFunc    func(ctx context.Context, req *dto.CreateDestinationRequest) (*domain.Destination, error)
	AddTranslationFunc       func(ctx context.Context, destinationID string, req *dto.TranslationRequest) (*domain.Destination, error)
	UpdateDestinationFunc    func(ctx context.Context, id string, req *dto.UpdateDestinationRequest) (*domain.Destination, error)
	DeleteDestinationFunc    func(ctx context.Context, id string) error
	GetDestinationFunc       func(ctx context.Context, id string) (*domain.Destination, error)
	GetDestinationBySlugFunc func(ctx context.Context, slug string) (*domain.Destination, error)
	ListDestinationsFunc     func(ctx context.Context, q *dto.ListDestinationsQuery) ([]*domain.Destination, error)
}

func (m *MockCatalogService) CreateCountry(ctx context.Context, req *dto.CreateCountryRequest) (*domain.Country, error) {
	if m.CreateCountryFunc != nil {
		return m.CreateCountryFunc(ctx, req)
	}
	return &domain.Country{ID: "country-1", ISO: req.ISO, Name: req.Name, Currency: req.Currency}, nil
}

func (m *MockCatalogService) GetCountry(ctx context.Context, id string) (*domain.Country, error) {
	if m.GetCountryFunc != nil {
		return m.GetCountryFunc(ctx, id)
	}
	return nil, domain.ErrCountryNotFound
}

func (m *MockCatalogService) ListCountries(ctx context.Context) ([]*domain.Country, error) {
	if m.ListCountriesFunc != nil {
		return m.ListCountriesFunc(ctx)
	}
	return []*domain.Country{}, nil
}

func (m *MockCatalogService) CreateState(_ context.Context, req *dto.CreateStateRequest) (*domain.State, error) {
	return &domain.State{ID: "state-1", CountryID: req.CountryID, Name: req.Name}, nil
}

func (m *MockCatalogService) CreateCategory(_ context.Context, req *dto.CreateCategoryRequest) (*domain.Category, error) {
	return &domain.Category{ID: "cat-1", Name: req.Name, Code: req.Code}, nil
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return []*domain.Category{}, nil
}

func (m *MockCatalogService) CreateDestination(ctx context.Context, req *dto.CreateDestinationRequest) (*domain.Destination, error) {
	if m.CreateDestinationFunc != nil {
		return m.CreateDestinationFunc(ctx, req)
	}
	return &domain.Destination{ID: "dest-1"}, nil
}

func (m *MockCatalogService) AddTranslation(ctx context.Context, destinationID string, req *dto.TranslationRequest) (*domain.Destination, error) {
	if m.AddTranslationFunc != nil {
		return m.AddTranslationFunc(ctx, destinationID, req)
	}
	return &domain.Destination{ID: destinationID}, nil
}

func (m *MockCatalogService) UpdateDestination(ctx context.Context, id string, req *dto.UpdateDestinationRequest) (*domain.Destination, error) {
	if m.UpdateDestinationFunc != nil {
		return m.UpdateDestinationFunc(ctx, id, req)
	}
	return &domain.Destination{ID: id}, nil
}

func (m *MockCatalogService) DeleteDestination(ctx context.Context, id string) error {
	if m.DeleteDestinationFunc != nil {
		return m.DeleteDestinationFunc(ctx, id)
	}
	return nil
}

func (m *MockCatalogService) GetDestination(ctx context.Context, id string) (*domain.Destination, error) {
	if m.GetDestinationFunc != nil {
		return m.GetDestinationFunc(ctx, id)
	}
	return nil, domain.ErrDestinationNotFound
}

func (m *MockCatalogService) GetDestinationBySlug(ctx context.Context, slug string) (*domain.Destination, error) {
	if m.GetDestinationBySlugFunc != nil {
		return m.GetDestinationBySlugFunc(ctx, slug)
	}
	return nil, domain.ErrDestinationNotFound
}

func (m *MockCatalogService) ListDestinations(ctx context.Context, q *dto.ListDestinationsQuery) ([]*domain.Destination, error) {
	if m.ListDestinationsFunc != nil {
		return m.ListDestinationsFunc(ctx, q)
	}
	return []*domain.Destination{}, nil
}

// MockBookingService is a mock implementation of BookingService for testing
type MockBookingService struct {
	AddDestinationFunc func(ctx context.Context, userID, destinationID string, visitDate time.Time) (*domain.Booking, error)
	ListBookingsFunc   func(ctx context.Context, userID string) ([]*domain.Booking, error)
	GetBookingFunc     func(ctx context.Context, bookingID, userID string) (*domain.Booking, error)
	SetStatusFunc      func(ctx context.Context, bookingID string, status domain.BookingStatus, actor domain.Actor) (*domain.Booking, error)
}

func (m *MockBookingService) AddDestination(ctx context.Context, userID, destinationID string, visitDate time.Time) (*domain.Booking, error) {
	if m.AddDestinationFunc != nil {
		return m.AddDestinationFunc(ctx, userID, destinationID, visitDate)
	}
	return &domain.Booking{ID: "booking-1", UserID: userID, Status: domain.BookingStatusDraft}, nil
}

func (m *MockBookingService) ListBookings(ctx context.Context, userID string) ([]*domain.Booking, error) {
	if m.ListBookingsFunc != nil {
		return m.ListBookingsFunc(ctx, userID)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *MockBookingService) GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, bookingID, userID)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *MockBookingService) SetStatus(ctx context.Context, bookingID string, status domain.BookingStatus, actor domain.Actor) (*domain.Booking, error) {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, bookingID, status, actor)
	}
	return &domain.Booking{ID: bookingID, Status: status}, nil
}

// MockTouristService is a mock implementation of TouristService for testing
type MockTouristService struct {
	AddOneFunc  func(ctx context.Context, bookingID, userID string, person domain.TouristFields) (*domain.Tourist, error)
	AddManyFunc func(ctx context.Context, bookingID, userID string, people []domain.TouristFields) ([]*domain.Tourist, error)
	UpdateFunc  func(ctx context.Context, touristID string, fields domain.TouristFields, userID string) (*domain.Tourist, error)
	RemoveFunc  func(ctx context.Context, touristID, userID string) error
	ListFunc    func(ctx context.Context, userID string) ([]*domain.Tourist, error)
	GetFunc     func(ctx context.Context, touristID, userID string) (*domain.Tourist, error)
}

func (m *MockTouristService) AddOne(ctx context.Context, bookingID, userID string, person domain.TouristFields) (*domain.Tourist, error) {
	if m.AddOneFunc != nil {
		return m.AddOneFunc(ctx, bookingID, userID, person)
	}
	return &domain.Tourist{ID: "tourist-1", BookingID: bookingID, Name: person.Name}, nil
}

func (m *MockTouristService) AddMany(ctx context.Context, bookingID, userID string, people []domain.TouristFields) ([]*domain.Tourist, error) {
	if m.AddManyFunc != nil {
		return m.AddManyFunc(ctx, bookingID, userID, people)
	}
	return []*domain.Tourist{}, nil
}

func (m *MockTouristService) Update(ctx context.Context, touristID string, fields domain.TouristFields, userID string) (*domain.Tourist, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, touristID, fields, userID)
	}
	return &domain.Tourist{ID: touristID, Name: fields.Name}, nil
}

func (m *MockTouristService) Remove(ctx context.Context, touristID, userID string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, touristID, userID)
	}
	return nil
}

func (m *MockTouristService) List(ctx context.Context, userID string) ([]*domain.Tourist, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	return []*domain.Tourist{}, nil
}

func (m *MockTouristService) Get(ctx context.Context, touristID, userID string) (*domain.Tourist, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, touristID, userID)
	}
	return nil, domain.ErrTouristNotFound
}

// MockPaymentService is a mock implementation of PaymentService for testing
type MockPaymentService struct {
	CreatePaymentFunc  func(ctx context.Context, userID string, req *dto.CreatePaymentRequest) (*domain.Payment, error)
	CapturePaymentFunc func(ctx context.Context, orderID string) (*domain.Payment, error)
	HandleWebhookFunc  func(ctx context.Context, method string, payload []byte, headers http.Header) service.WebhookOutcome
	CancelPaymentFunc  func(ctx context.Context, userID, paymentID string) (*domain.Payment, error)
	ListPaymentsFunc   func(ctx context.Context, userID string) ([]*domain.Payment, error)
	GetPaymentFunc     func(ctx context.Context, paymentID, userID string) (*domain.Payment, error)
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, userID string, req *dto.CreatePaymentRequest) (*domain.Payment, error) {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, userID, req)
	}
	return &domain.Payment{ID: "payment-1", UserID: userID, BookingID: req.BookingID, Status: domain.PaymentStatusPending}, nil
}

func (m *MockPaymentService) CapturePayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	if m.CapturePaymentFunc != nil {
		return m.CapturePaymentFunc(ctx, orderID)
	}
	return &domain.Payment{ID: "payment-1", TransactionID: orderID, Status: domain.PaymentStatusSuccess}, nil
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, method string, payload []byte, headers http.Header) service.WebhookOutcome {
	if m.HandleWebhookFunc != nil {
		return m.HandleWebhookFunc(ctx, method, payload, headers)
	}
	return service.WebhookIgnored
}

func (m *MockPaymentService) CancelPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error) {
	if m.CancelPaymentFunc != nil {
		return m.CancelPaymentFunc(ctx, userID, paymentID)
	}
	return &domain.Payment{ID: paymentID, Status: domain.PaymentStatusCancelled}, nil
}

func (m *MockPaymentService) ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	if m.ListPaymentsFunc != nil {
		return m.ListPaymentsFunc(ctx, userID)
	}
	return []*domain.Payment{}, nil
}

func (m *MockPaymentService) GetPayment(ctx context.Context, paymentID, userID string) (*domain.Payment, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID, userID)
	}
	return nil, domain.ErrPaymentNotFound
}

// MockSalesService is a mock implementation of SalesService for testing
type MockSalesService struct {
	AggregateFunc func(ctx context.Context, period string) ([]domain.SalesBucket, error)
	SummaryFunc   func(ctx context.Context) (*domain.SalesSummary, error)
	ListFunc      func(ctx context.Context) ([]*domain.Sale, error)
}

func (m *MockSalesService) RecordFromPayment(context.Context, string, string, decimal.Decimal, string) error {
	return nil
}

func (m *MockSalesService) Aggregate(ctx context.Context, period string) ([]domain.SalesBucket, error) {
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, period)
	}
	return []domain.SalesBucket{}, nil
}

func (m *MockSalesService) Summary(ctx context.Context) (*domain.SalesSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return &domain.SalesSummary{}, nil
}

func (m *MockSalesService) List(ctx context.Context) ([]*domain.Sale, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*domain.Sale{}, nil
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	RegisterFunc           func(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error)
	VerifyAccountFunc      func(ctx context.Context, code string) (*domain.User, error)
	ResendVerificationFunc func(ctx context.Context, email string) error
	LoginFunc              func(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.AuthResponse, error)
	RefreshSessionFunc     func(ctx context.Context, refreshToken, ip string) (*dto.AuthResponse, error)
	LogoutFunc             func(ctx context.Context, token string) error
	ForgotPasswordFunc     func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, code, password string) error
	GetProfileFunc         func(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfileFunc      func(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
}

func (m *MockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &domain.User{ID: "user-new", Name: req.Name, Email: req.Email, Role: domain.RoleTraveller}, nil
}

func (m *MockAuthService) VerifyAccount(ctx context.Context, code string) (*domain.User, error) {
	if m.VerifyAccountFunc != nil {
		return m.VerifyAccountFunc(ctx, code)
	}
	return &domain.User{ID: "user-new", IsVerified: true}, nil
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req, ip)
	}
	return &dto.AuthResponse{AccessToken: "session", RefreshToken: "session", TokenType: "Bearer", User: &domain.User{ID: "user-001"}}, nil
}

func (m *MockAuthService) RefreshSession(ctx context.Context, refreshToken, ip string) (*dto.AuthResponse, error) {
	if m.RefreshSessionFunc != nil {
		return m.RefreshSessionFunc(ctx, refreshToken, ip)
	}
	return &dto.AuthResponse{AccessToken: "rotated", RefreshToken: "rotated", TokenType: "Bearer", User: &domain.User{ID: "user-001"}}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, code, password string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, code, password)
	}
	return nil
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return &domain.User{ID: userID, IsVerified: true}, nil
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, req)
	}
	return &domain.User{ID: userID, Name: req.Name, IsVerified: true}, nil
}

// tokenVerifier resolves fixed tokens, one per role
type tokenVerifier map[string]*middleware.Principal

func (v tokenVerifier) Verify(_ context.Context, token string) (*middleware.Principal, error) {
	if p, ok := v[token]; ok {
		return p, nil
	}
	return nil, middleware.ErrInvalidToken
}

const (
	travellerToken = "traveller-token"
	otherToken     = "other-traveller-token"
	adminToken     = "admin-token"
	ownerToken     = "owner-token"
)

var testVerifier = tokenVerifier{
	travellerToken: {UserID: "user-001", Email: "ana@example.com", Role: middleware.RoleTraveller},
	otherToken:     {UserID: "user-002", Email: "budi@example.com", Role: middleware.RoleTraveller},
	adminToken:     {UserID: "admin-001", Email: "admin@example.com", Role: middleware.RoleAdmin},
	ownerToken:     {UserID: "owner-001", Email: "owner@example.com", Role: middleware.RoleOwner},
}

// memoryIdempotencyStore keeps idempotency records in a map
type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: make(map[string]string)}
}

func (s *memoryIdempotencyStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memoryIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value.(string)
	return nil
}

func (s *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// testServices holds the mocks behind a test router
type testServices struct {
	auth     *MockAuthService
	catalog  *MockCatalogService
	bookings *MockBookingService
	tourists *MockTouristService
	payments *MockPaymentService
	sales    *MockSalesService
	health   *HealthHandler
	store    *memoryIdempotencyStore
}

func newTestServices() *testServices {
	return &testServices{
		auth:     &MockAuthService{},
		catalog:  &MockCatalogService{},
		bookings: &MockBookingService{},
		tourists: &MockTouristService{},
		payments: &MockPaymentService{},
		sales:    &MockSalesService{},
		health:   NewHealthHandler(nil, nil),
		store:    newMemoryIdempotencyStore(),
	}
}

// router mounts every route over the mocks
func (s *testServices) router() *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, &Handlers{
		Health:  s.health,
		Auth:    NewAuthHandler(s.auth),
		Catalog: NewCatalogHandler(s.catalog),
		Booking: NewBookingHandler(s.bookings),
		Tourist: NewTouristHandler(s.tourists),
		Payment: NewPaymentHandler(s.payments),
		Webhook: NewWebhookHandler(s.payments),
		Sales:   NewSalesHandler(s.sales),
	}, RouterConfig{
		Verifier:    testVerifier,
		Idempotency: middleware.DefaultIdempotencyConfig(s.store),
	})
	return r
}

type requestOption func(*http.Request)

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func doRequest(r http.Handler, method, path, token string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope is the decoded success or failure body
type envelope struct {
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Status    int             `json:"status"`
	Error     string          `json:"error"`
	Passports []string        `json:"passports"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
