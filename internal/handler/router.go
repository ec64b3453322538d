package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bentansusanto/travel-api/pkg/middleware"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Booking *BookingHandler
	Tourist *TouristHandler
	Payment *PaymentHandler
	Webhook *WebhookHandler
	Sales   *SalesHandler
}

// RouterConfig configures route protection
type RouterConfig struct {
	Verifier middleware.TokenVerifier
	// Idempotency guards payment creation; a nil Store disables replay
	Idempotency *middleware.IdempotencyConfig
}

// RegisterRoutes mounts the health checks on r and the API under /api/v1
func RegisterRoutes(r *gin.Engine, h *Handlers, cfg RouterConfig) {
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)

	idempotencyCfg := cfg.Idempotency
	if idempotencyCfg == nil {
		idempotencyCfg = &middleware.IdempotencyConfig{}
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.Health.Health)
	v1.GET("/ready", h.Health.Ready)

	auth := middleware.Authenticate(cfg.Verifier)
	staff := middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleOwner)
	traveller := middleware.RequireRoles(middleware.RoleTraveller)

	account := v1.Group("/auth")
	{
		account.POST("/register", h.Auth.Register)
		account.POST("/verify-account", h.Auth.VerifyAccount)
		account.POST("/resend-verify", h.Auth.ResendVerification)
		account.POST("/login", h.Auth.Login)
		account.POST("/refresh-token", h.Auth.RefreshToken)
		account.POST("/logout", h.Auth.Logout)
		account.POST("/forgot-password", h.Auth.ForgotPassword)
		account.POST("/reset-password", h.Auth.ResetPassword)
		account.GET("/me", auth, h.Auth.GetProfile)
		account.PUT("/me", auth, h.Auth.UpdateProfile)
	}

	countries := v1.Group("/countries")
	{
		countries.GET("", h.Catalog.ListCountries)
		countries.GET("/:id", h.Catalog.GetCountry)
		countries.POST("", auth, staff, h.Catalog.CreateCountry)
	}

	destinations := v1.Group("/destinations")
	{
		destinations.GET("", h.Catalog.ListDestinations)
		destinations.GET("/categories", h.Catalog.ListCategories)
		destinations.GET("/slug/:slug", h.Catalog.GetDestinationBySlug)
		destinations.GET("/:id", h.Catalog.GetDestination)
		destinations.POST("", auth, staff, h.Catalog.CreateDestination)
		destinations.POST("/:id/translations", auth, staff, h.Catalog.AddTranslation)
		destinations.PUT("/:id", auth, staff, h.Catalog.UpdateDestination)
		destinations.DELETE("/:id", auth, staff, h.Catalog.DeleteDestination)
	}

	bookings := v1.Group("/bookings", auth)
	{
		bookings.POST("", traveller, h.Booking.AddDestination)
		bookings.GET("", traveller, h.Booking.ListBookings)
		bookings.GET("/:id", traveller, h.Booking.GetBooking)
		bookings.PUT("/:id/status",
			middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleOwner, middleware.RoleTraveller),
			h.Booking.UpdateStatus)
	}

	tourists := v1.Group("/tourists", auth, traveller)
	{
		tourists.POST("", h.Tourist.AddTourist)
		tourists.POST("/batch", h.Tourist.AddTourists)
		tourists.GET("", h.Tourist.ListTourists)
		tourists.GET("/:id", h.Tourist.GetTourist)
		tourists.PUT("/:id", h.Tourist.UpdateTourist)
		tourists.DELETE("/:id", h.Tourist.RemoveTourist)
	}

	payments := v1.Group("/payments")
	{
		// Processors call these without credentials
		payments.POST("/webhook", h.Webhook.HandleWebhook)
		payments.POST("/webhook/:method", h.Webhook.HandleWebhook)

		payments.POST("", auth, traveller, middleware.IdempotencyMiddleware(idempotencyCfg), h.Payment.CreatePayment)
		payments.GET("", auth, traveller, h.Payment.ListPayments)
		payments.GET("/:id", auth, traveller, h.Payment.GetPayment)
		payments.POST("/capture/:orderId", auth, traveller, h.Payment.CapturePayment)
		payments.POST("/:id/cancel", auth, traveller, h.Payment.CancelPayment)
	}

	sales := v1.Group("/sales", auth, middleware.RequireRoles(middleware.RoleOwner))
	{
		sales.GET("", h.Sales.ListSales)
		sales.GET("/summary", h.Sales.Summary)
		sales.GET("/report/:period", h.Sales.Report)
	}
}
