package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		db             HealthChecker
		redis          HealthChecker
		expectedStatus int
		expectedBody   string
	}{
		{name: "nothing configured", expectedStatus: http.StatusOK, expectedBody: "not configured"},
		{name: "all healthy", db: stubChecker{}, redis: stubChecker{}, expectedStatus: http.StatusOK, expectedBody: `"ready"`},
		{name: "database down", db: stubChecker{err: errors.New("dial tcp: refused")}, redis: stubChecker{}, expectedStatus: http.StatusServiceUnavailable, expectedBody: "unhealthy: dial tcp: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestServices()
			svc.health = NewHealthHandler(tt.db, tt.redis)

			w := doRequest(svc.router(), http.MethodGet, "/ready", "", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}
