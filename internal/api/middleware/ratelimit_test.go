package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/familieapp/familieapp/internal/api/middleware"
	"github.com/familieapp/familieapp/internal/api/models"
)

func TestRateLimitByIP(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 2,
		WindowLength: time.Minute,
	})(okHandler)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/reminders", http.NoBody)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.10:5000").Code)
	assert.Equal(t, http.StatusOK, send("192.0.2.10:5001").Code)

	limited := send("192.0.2.10:5002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	p := decodeProblem(t, limited)
	assert.Equal(t, models.ProblemTypeTooManyRequests, p.Type)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", p.Detail)

	assert.Equal(t, http.StatusOK, send("192.0.2.11:5000").Code)
}

func TestRateLimitPresets(t *testing.T) {
	assert.Equal(t, 120, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, 30, middleware.WriteRateLimit.RequestLimit)
	assert.Equal(t, 10, middleware.TriggerRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.TriggerRateLimit.WindowLength)
}
