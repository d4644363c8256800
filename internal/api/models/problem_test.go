package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familieapp/familieapp/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_test123").
		WithDetail("title is required").
		WithInstance("/v1/events").
		WithErrors([]models.FieldError{{Field: "title", Message: "title is required", Code: "required"}})

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Equal(t, "title is required", p.Detail)
	assert.Equal(t, "/v1/events", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "required", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "ownerId", Message: "ownerId must be a known user", Code: "unknown_user"},
	})
	p.Instance = "/v1/events"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.ProblemTypeValidation, result.Type)
	assert.Equal(t, "invalid input", result.Detail)
	assert.Equal(t, "/v1/events", result.Instance)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ownerId", result.Errors[0].Field)
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewInternalError("", "boom").Write(w)

	assert.Empty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name   string
		p      *models.Problem
		typ    string
		status int
	}{
		{"bad request", models.NewBadRequest("t", "d", nil), models.ProblemTypeValidation, http.StatusBadRequest},
		{"unauthorized", models.NewUnauthorized("t", "d"), models.ProblemTypeUnauthorized, http.StatusUnauthorized},
		{"not found", models.NewNotFound("t", "d"), models.ProblemTypeNotFound, http.StatusNotFound},
		{"conflict", models.NewConflict("t", "d"), models.ProblemTypeConflict, http.StatusConflict},
		{"too many requests", models.NewTooManyRequests("t", "d"), models.ProblemTypeTooManyRequests, http.StatusTooManyRequests},
		{"internal", models.NewInternalError("t", "d"), models.ProblemTypeInternal, http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("t", "d"), models.ProblemTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.p.Type)
			assert.Equal(t, tt.status, tt.p.Status)
			assert.Equal(t, "d", tt.p.Detail)
			assert.Equal(t, "t", tt.p.TraceID)
			assert.True(t, strings.HasPrefix(tt.p.Type, "https://familieapp.no/problems/"))
		})
	}
}

func TestNewPushNotConfigured(t *testing.T) {
	p := models.NewPushNotConfigured("req_1")

	assert.Equal(t, http.StatusServiceUnavailable, p.Status)
	assert.Equal(t, "Push is not configured on server.", p.Detail)
	assert.Equal(t, models.ProblemTypePushDisabled, p.Type)
}

func TestTimestamp_JSON(t *testing.T) {
	ts := models.Timestamp(time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-19T12:30:00Z"`, string(data))

	var back models.Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Time().Equal(back.Time()))

	assert.Error(t, json.Unmarshal([]byte(`12`), &back))
	assert.NoError(t, json.Unmarshal([]byte(`null`), &back))
}
