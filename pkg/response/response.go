package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the success envelope
type Body struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the failure envelope
type ErrorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageFor returns the generic message shown for a status code
func MessageFor(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "Validation error"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "External service error"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return "Request failed"
	}
}

// NewError builds a failure envelope. 5xx details are never exposed.
func NewError(status int, detail string) ErrorBody {
	if status == http.StatusInternalServerError {
		detail = ""
	}
	return ErrorBody{
		Status:  status,
		Message: MessageFor(status),
		Error:   detail,
	}
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Message: message, Data: data})
}

func Error(c *gin.Context, status int, detail string) {
	c.JSON(status, NewError(status, detail))
}

// Abort writes the failure envelope and stops the handler chain
func Abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, NewError(status, detail))
}

func BadRequest(c *gin.Context, detail string) {
	Error(c, http.StatusBadRequest, detail)
}

func NotFound(c *gin.Context, detail string) {
	Error(c, http.StatusNotFound, detail)
}

func Unauthorized(c *gin.Context, detail string) {
	Error(c, http.StatusUnauthorized, detail)
}

func Forbidden(c *gin.Context, detail string) {
	Error(c, http.StatusForbidden, detail)
}

func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "")
}
