package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airscape/airscape/internal/api/models"
	"github.com/airscape/airscape/internal/api/response"
)

func TestJSON_WritesBodyAndHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/test", http.NoBody)
	w := httptest.NewRecorder()

	response.JSON(w, req, http.StatusOK, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "world", body["hello"])
}

func TestJSON_NilBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/test", http.NoBody)
	w := httptest.NewRecorder()

	response.JSON(w, req, http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBadRequest_ProblemFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/locations/search", http.NoBody)
	w := httptest.NewRecorder()

	response.BadRequest(w, req, "query too long", []models.FieldError{
		{Field: "q", Message: "at most 256 characters"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.Equal(t, "query too long", problem.Detail)
	assert.Equal(t, "/v1/locations/search", problem.Instance)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "q", problem.Errors[0].Field)
}

func TestErrorHelpers_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		call func(w http.ResponseWriter, r *http.Request)
		want int
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "d") }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "d") }, http.StatusConflict},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "d") }, http.StatusInternalServerError},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "d") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/test", http.NoBody)
			w := httptest.NewRecorder()

			tt.call(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		})
	}
}

func TestNoContent(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/v1/locations/favorites/x", http.NoBody)
	w := httptest.NewRecorder()

	response.NoContent(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestCreated(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/favorites", http.NoBody)
	w := httptest.NewRecorder()

	response.Created(w, req, map[string]string{"city": "Berlin"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Berlin")
}
