package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/middleware"
	"github.com/bentansusanto/travel-api/pkg/response"
)

// statusFor maps a domain error to its HTTP status
func statusFor(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsConflictError(err):
		return http.StatusConflict
	case domain.IsForbiddenError(err):
		return http.StatusForbidden
	case domain.IsExternalError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope for err. Unclassified errors are
// logged and answered with a bare 500.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Get().ErrorContext(c.Request.Context(), "request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}

	var conflict *domain.PassportConflictError
	if errors.As(err, &conflict) {
		c.JSON(status, passportConflictBody{
			ErrorBody: response.NewError(status, err.Error()),
			Passports: conflict.Passports,
		})
		return
	}
	response.Error(c, status, err.Error())
}

type passportConflictBody struct {
	response.ErrorBody
	Passports []string `json:"passports"`
}

// principal returns the authenticated caller or answers 401
func principal(c *gin.Context) (*middleware.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok || p.UserID == "" {
		response.Unauthorized(c, middleware.ErrMissingToken.Error())
		return nil, false
	}
	return p, true
}
