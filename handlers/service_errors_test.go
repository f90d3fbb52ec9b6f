package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/otisthings/hub-sub000/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", services.ErrTicketNotFound, http.StatusNotFound, "not_found"},
		{"validation", services.ErrInvalidInput, http.StatusBadRequest, "bad_request"},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"expired token", services.ErrTokenExpired, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"hub banned", services.ErrHubBanned, http.StatusForbidden, "forbidden"},
		{"conflict", services.ErrPendingSubmission, http.StatusConflict, "conflict"},
		{"external", services.ErrDiscordUnavailable, http.StatusBadGateway, "bad_gateway"},
		{"internal", services.ErrInternal, http.StatusInternalServerError, "internal_error"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleServiceError(w, nil, logger)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("internal error hides the cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleServiceError(w, services.WrapInternal("db exploded", errors.New("secret detail")), logger)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret detail")
	})

	t.Run("wrapped errors keep their mapping", func(t *testing.T) {
		w := httptest.NewRecorder()
		wrapped := services.NewDomainError(services.ErrorTypeNotFound, "vehicle not found", errors.New("sql: no rows"))
		HandleServiceError(w, wrapped, logger)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
