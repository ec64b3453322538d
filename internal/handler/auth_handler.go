package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/middleware"
	"github.com/bentansusanto/travel-api/pkg/response"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

// AuthHandler handles account and session HTTP requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// verifyCode reads the code from ?verify_code, or ?verify_token as mailed
func verifyCode(c *gin.Context) string {
	if code := c.Query("verify_code"); code != "" {
		return code
	}
	return c.Query("verify_token")
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.register")
	defer span.End()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	response.Created(c, "User registered, check your email for verification", user)
}

// VerifyAccount handles POST /auth/verify-account
func (h *AuthHandler) VerifyAccount(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.verify_account")
	defer span.End()

	user, err := h.authService.VerifyAccount(ctx, verifyCode(c))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Account verified", user)
}

// ResendVerification handles POST /auth/resend-verify
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.resend_verify")
	defer span.End()

	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ResendVerification(ctx, req.Email); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Verification email sent", nil)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.login")
	defer span.End()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(ctx, &req, c.ClientIP())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.String("user_id", resp.User.ID))
	response.Success(c, "Login successful", resp)
}

// RefreshToken handles POST /auth/refresh-token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.refresh_token")
	defer span.End()

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.RefreshSession(ctx, req.RefreshToken, c.ClientIP())
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Session refreshed", resp)
}

// Logout handles POST /auth/logout
// Ends the session named in the body, or the bearer session token
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.logout")
	defer span.End()

	var req dto.LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			response.BadRequest(c, err.Error())
			return
		}
	}

	token := req.RefreshToken
	if token == "" {
		bearer, err := middleware.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		token = bearer
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Logged out", nil)
}

// ForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.forgot_password")
	defer span.End()

	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "If the email is registered, a reset link is on its way", nil)
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.reset_password")
	defer span.End()

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ResetPassword(ctx, verifyCode(c), req.Password); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Password updated, sign in again", nil)
}

// GetProfile handles GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.get_profile")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(ctx, caller.UserID)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Profile retrieved", user)
}

// UpdateProfile handles PUT /auth/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.update_profile")
	defer span.End()

	caller, ok := principal(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(ctx, caller.UserID, &req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	response.Success(c, "Profile updated", user)
}
