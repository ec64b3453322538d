package domain

import (
	"errors"
	"strings"
)

// Domain errors
var (
	// Not found
	ErrUserNotFound        = errors.New("user not found")
	ErrCountryNotFound     = errors.New("country not found")
	ErrStateNotFound       = errors.New("state not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrTouristNotFound     = errors.New("tourist not found")
	ErrPaymentNotFound     = errors.New("payment not found")

	// Validation
	ErrInvalidVisitDate     = errors.New("visit date cannot be in the past")
	ErrVisitDateOrder       = errors.New("visit date cannot precede your latest booked visit")
	ErrDuplicateInBatch     = errors.New("duplicate passport numbers in request")
	ErrEmptyBatch           = errors.New("at least one tourist is required")
	ErrInvalidGender        = errors.New("gender must be one of Mr, Miss, Ms, Mrs")
	ErrInvalidTourist       = errors.New("name, nationality and passport number are required")
	ErrInvalidBookingStatus = errors.New("invalid booking status")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidCurrency      = errors.New("currency must be a 3-letter ISO code")
	ErrInvalidPeriod        = errors.New("period must be one of daily, weekly, monthly, yearly")
	ErrInvalidLanguage      = errors.New("language code must be en or id")
	ErrInvalidPrice         = errors.New("price must be greater than zero")
	ErrInvalidCatalogInput  = errors.New("missing required catalog fields")
	ErrInvalidVerifyCode    = errors.New("verification code is invalid or expired")
	ErrWeakPassword         = errors.New("password must be at least 8 characters")
	ErrInvalidSite          = errors.New("site must be client or admin")
	ErrNameRequired         = errors.New("name is required")

	// Conflict
	ErrInvalidBookingTransition  = errors.New("booking status transition not allowed")
	ErrBookingAlreadyPaid        = errors.New("booking has already been paid")
	ErrBookingLocked             = errors.New("booking can no longer be modified")
	ErrNoTourists                = errors.New("booking has no registered tourists")
	ErrPassportAlreadyRegistered = errors.New("passport number already registered")
	ErrPassportConflict          = errors.New("passport number belongs to another tourist")
	ErrPaymentNotPending         = errors.New("payment is not pending")
	ErrPaymentAlreadySucceeded   = errors.New("payment already succeeded, use the refund flow")
	ErrPaymentAlreadyCancelled   = errors.New("payment already cancelled")
	ErrInvalidPaymentTransition  = errors.New("payment status transition not allowed")
	ErrTooManyAttempts           = errors.New("too many payment attempts, please try again later")
	ErrCaptureDeclined           = errors.New("payment was declined by the processor")
	ErrCountryExists             = errors.New("country already exists")
	ErrSlugTaken                 = errors.New("slug already in use")
	ErrEmailTaken                = errors.New("email already registered")
	ErrAccountAlreadyVerified    = errors.New("account already verified")
	ErrOwnerLimitReached         = errors.New("owner accounts are limited")

	// Unauthorized
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or expired")

	// Forbidden
	ErrForbidden             = errors.New("access denied")
	ErrStatusChangeForbidden = errors.New("booking status change not permitted for this caller")
	ErrAccountNotVerified    = errors.New("account is not verified, check your email")
	ErrAdminLoginDenied      = errors.New("traveller accounts cannot sign in to the admin site")

	// External services
	ErrUnsupportedMethod       = errors.New("payment method is not supported")
	ErrProcessorUnavailable    = errors.New("payment processor request failed")
	ErrExchangeRateUnavailable = errors.New("exchange rate unavailable")
	ErrInvoiceCodeExhausted    = errors.New("could not allocate a free invoice code")

	// Store signals, handled inside services
	ErrOpenBookingExists = errors.New("an open booking already exists for this country")
	ErrInvoiceCodeTaken  = errors.New("invoice code already used")
	ErrSaleExists        = errors.New("sale already recorded for payment")
)

// PassportConflictError lists every passport already stored
type PassportConflictError struct {
	Passports []string
}

func (e *PassportConflictError) Error() string {
	return ErrPassportAlreadyRegistered.Error() + ": " + strings.Join(e.Passports, ", ")
}

func (e *PassportConflictError) Unwrap() error {
	return ErrPassportAlreadyRegistered
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCountryNotFound) ||
		errors.Is(err, ErrStateNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrDestinationNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrTouristNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidVisitDate) ||
		errors.Is(err, ErrVisitDateOrder) ||
		errors.Is(err, ErrDuplicateInBatch) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrInvalidGender) ||
		errors.Is(err, ErrInvalidTourist) ||
		errors.Is(err, ErrInvalidBookingStatus) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, ErrInvalidCurrency) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidLanguage) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidCatalogInput) ||
		errors.Is(err, ErrInvalidVerifyCode) ||
		errors.Is(err, ErrWeakPassword) ||
		errors.Is(err, ErrInvalidSite) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrUnsupportedMethod)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidBookingTransition) ||
		errors.Is(err, ErrBookingAlreadyPaid) ||
		errors.Is(err, ErrBookingLocked) ||
		errors.Is(err, ErrNoTourists) ||
		errors.Is(err, ErrPassportAlreadyRegistered) ||
		errors.Is(err, ErrPassportConflict) ||
		errors.Is(err, ErrPaymentNotPending) ||
		errors.Is(err, ErrPaymentAlreadySucceeded) ||
		errors.Is(err, ErrPaymentAlreadyCancelled) ||
		errors.Is(err, ErrInvalidPaymentTransition) ||
		errors.Is(err, ErrTooManyAttempts) ||
		errors.Is(err, ErrCaptureDeclined) ||
		errors.Is(err, ErrCountryExists) ||
		errors.Is(err, ErrSlugTaken) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrAccountAlreadyVerified) ||
		errors.Is(err, ErrOwnerLimitReached)
}

// IsUnauthorizedError checks if the caller failed to authenticate
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsForbiddenError checks if the error is an authorization error
func IsForbiddenError(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrStatusChangeForbidden) ||
		errors.Is(err, ErrAccountNotVerified) ||
		errors.Is(err, ErrAdminLoginDenied)
}

// IsExternalError checks if an upstream dependency failed
func IsExternalError(err error) bool {
	return errors.Is(err, ErrProcessorUnavailable) ||
		errors.Is(err, ErrExchangeRateUnavailable)
}

// IsRetryableError reports errors the client may retry unchanged
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrTooManyAttempts) || IsExternalError(err)
}
