package di

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/handler"
	"github.com/bentansusanto/travel-api/pkg/config"
	"github.com/bentansusanto/travel-api/pkg/middleware"
)

const testSecret = "container-test-secret"

func testConfig(exchangeURL string) *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "travel-api", Environment: "test"},
		Auth:     config.AuthConfig{Mode: "jwt", JWTSecret: testSecret, JWTIssuer: "travel-api"},
		Payment:  config.PaymentConfig{Gateway: "mock", InvoiceAttempts: 20},
		Exchange: config.ExchangeConfig{APIURL: exchangeURL, Timeout: 2 * time.Second, CacheTTL: time.Hour},
		Kafka:    config.KafkaConfig{NotificationTopic: "tour.notifications"},
	}
}

func exchangeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","rates":{"USD":1,"IDR":16000,"THB":35.5}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func (a apiClient) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(a.t, err)
	if body == nil {
		raw = nil
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func dataField(t *testing.T, body map[string]any, key string) string {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	v, _ := data[key].(string)
	return v
}

func TestNewContainer_RequiresConfig(t *testing.T) {
	_, err := NewContainer(nil)
	assert.Error(t, err)

	cfg := testConfig("http://127.0.0.1:0")
	cfg.Auth.Mode = "basic"
	_, err = NewContainer(&ContainerConfig{Config: cfg})
	assert.ErrorContains(t, err, "unknown auth mode")
}

func TestNewContainer_MemoryDefaults(t *testing.T) {
	c, err := NewContainer(&ContainerConfig{Config: testConfig("http://127.0.0.1:0")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotNil(t, c.Memory)
	assert.ElementsMatch(t,
		[]domain.PaymentMethod{domain.PaymentMethodPayPal, domain.PaymentMethodCreditCard},
		c.Processors.Methods())

	rc := c.RouterConfig(config.PaymentConfig{})
	assert.Nil(t, rc.Idempotency.Store, "idempotency needs redis")
	_, isJWT := rc.Verifier.(*middleware.JWTVerifier)
	assert.True(t, isJWT)
}

func TestNewContainer_SessionAuthUsesStore(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.Auth.Mode = "session"
	c, err := NewContainer(&ContainerConfig{Config: cfg})
	require.NoError(t, err)

	c.Memory.PutUser(&domain.User{ID: "user-001", Email: "ana@example.com", Role: middleware.RoleTraveller})
	c.Memory.PutSession("opaque-token", "user-001", time.Now().Add(time.Hour))

	p, err := c.Verifier.Verify(context.Background(), "opaque-token")
	require.NoError(t, err)
	assert.Equal(t, "user-001", p.UserID)
}

// TestContainer_BookAndPay drives the whole API over the memory store and the
// mock processor: catalog setup, booking, tourists, payment, capture, sales.
func TestContainer_BookAndPay(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(exchangeServer(t).URL)

	c, err := NewContainer(&ContainerConfig{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.RegisterRoutes(r, c.Handlers, c.RouterConfig(cfg.Payment))
	api := apiClient{t: t, router: r}

	c.Memory.PutUser(&domain.User{ID: "user-001", Name: "Ana", Email: "ana@example.com", Role: middleware.RoleTraveller})
	issuer := middleware.NewJWTVerifier(testSecret, "travel-api")
	token := func(id, role string) string {
		tok, err := issuer.Issue(middleware.Principal{UserID: id, Email: id + "@example.com", Role: role}, time.Hour)
		require.NoError(t, err)
		return tok
	}
	traveller := token("user-001", middleware.RoleTraveller)
	admin := token("admin-001", middleware.RoleAdmin)
	owner := token("owner-001", middleware.RoleOwner)

	status, body := api.do(http.MethodPost, "/api/v1/countries", admin,
		dto.CreateCountryRequest{ISO: "ID", Name: "Indonesia", Currency: "IDR"})
	require.Equal(t, http.StatusCreated, status, body)
	countryID := dataField(t, body, "id")

	state, err := c.CatalogService.CreateState(ctx, &dto.CreateStateRequest{CountryID: countryID, Name: "Bali"})
	require.NoError(t, err)
	category, err := c.CatalogService.CreateCategory(ctx, &dto.CreateCategoryRequest{Name: "Temple", Code: "temple"})
	require.NoError(t, err)

	status, body = api.do(http.MethodPost, "/api/v1/destinations", admin, map[string]any{
		"category_id":  category.ID,
		"state_id":     state.ID,
		"price":        "500000",
		"translations": []map[string]string{{"language_code": "en", "name": "Uluwatu Temple"}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	destinationID := dataField(t, body, "id")

	status, body = api.do(http.MethodGet, "/api/v1/destinations/slug/uluwatu-temple", "", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, destinationID, dataField(t, body, "id"))

	visit := time.Now().UTC().AddDate(0, 0, 14).Format(time.DateOnly)
	status, body = api.do(http.MethodPost, "/api/v1/bookings", traveller,
		dto.AddDestinationRequest{DestinationID: destinationID, VisitDate: visit})
	require.Equal(t, http.StatusCreated, status, body)
	bookingID := dataField(t, body, "id")

	status, body = api.do(http.MethodPost, "/api/v1/tourists/batch", traveller, dto.CreateTouristsRequest{
		BookingID: bookingID,
		Tourists: []dto.TouristRequest{
			{Name: "Ana", Gender: "Ms", Nationality: "Indonesia", PassportNo: "A1234567"},
			{Name: "Budi", Gender: "Mr", Nationality: "Indonesia", PassportNo: "B1234567"},
		},
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = api.do(http.MethodPost, "/api/v1/payments", traveller,
		dto.CreatePaymentRequest{BookingID: bookingID, Method: "paypal"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "1000000", dataField(t, body, "amount"))
	orderID := dataField(t, body, "transaction_id")
	require.NotEmpty(t, orderID)

	status, body = api.do(http.MethodPost, "/api/v1/payments/capture/"+orderID, traveller, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "success", dataField(t, body, "status"))

	status, body = api.do(http.MethodPost, "/api/v1/payments/webhook/paypal", "",
		map[string]string{"type": "captured", "order_id": orderID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "already_processed", body["outcome"])

	status, body = api.do(http.MethodGet, "/api/v1/bookings/"+bookingID, traveller, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "ongoing", dataField(t, body, "status"))

	status, body = api.do(http.MethodGet, "/api/v1/sales/summary", owner, nil)
	require.Equal(t, http.StatusOK, status, body)
	summary := body["data"].(map[string]any)
	assert.EqualValues(t, 1, summary["total_orders"])
}

// TestContainer_AccountLifecycle signs a traveller up, verifies the account
// and uses the issued session token against the protected profile route.
func TestContainer_AccountLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("http://127.0.0.1:0")
	cfg.Auth.Mode = "session"
	cfg.Auth.BcryptCost = 4

	c, err := NewContainer(&ContainerConfig{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.RegisterRoutes(r, c.Handlers, c.RouterConfig(cfg.Payment))
	api := apiClient{t: t, router: r}

	status, body := api.do(http.MethodPost, "/api/v1/auth/register", "",
		dto.RegisterRequest{Name: "Bea", Email: "bea@example.com", Password: "s3cret-pass"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "traveller", dataField(t, body, "role"))

	login := dto.LoginRequest{Email: "bea@example.com", Password: "s3cret-pass"}
	status, body = api.do(http.MethodPost, "/api/v1/auth/login", "", login)
	require.Equal(t, http.StatusForbidden, status, body)

	user, err := c.AccountRepo.GetByEmail(ctx, "bea@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, user.VerifyCode)

	status, body = api.do(http.MethodPost, "/api/v1/auth/verify-account?verify_token="+user.VerifyCode, "", nil)
	require.Equal(t, http.StatusOK, status, body)

	status, body = api.do(http.MethodPost, "/api/v1/auth/login", "", login)
	require.Equal(t, http.StatusOK, status, body)
	token := dataField(t, body, "access_token")
	require.NotEmpty(t, token)

	status, body = api.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "bea@example.com", dataField(t, body, "email"))

	status, body = api.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status, body)

	status, _ = api.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
