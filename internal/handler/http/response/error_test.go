package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "weekday", Message: "weekday is required"}}, http.StatusUnprocessableEntity, CodeValidation},
		{"route not found", tour.ErrRouteNotFound, http.StatusNotFound, CodeNotFound},
		{"wrapped unknown stop", fmt.Errorf("reorder: %w", tour.ErrUnknownStop), http.StatusUnprocessableEntity, CodeUnprocessable},
		{"invalid target", tour.ErrInvalidReorderTarget, http.StatusUnprocessableEntity, CodeUnprocessable},
		{"optimizer down", tour.ErrOptimizerUnavailable, http.StatusServiceUnavailable, CodeServiceUnavailable},
		{"invalid weekday", tour.ErrInvalidWeekday, http.StatusBadRequest, CodeBadRequest},
		{"no weekday", session.ErrNoWeekdaySelected, http.StatusConflict, CodeConflict},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, CodeInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, validator.ValidationErrors{
		{Field: "direction", Message: "exactly one of direction or index is required"},
	})

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{"direction": "exactly one of direction or index is required"}, resp.Error.Details)
}

func TestHandleError_UnexpectedErrorIsNotLeaked(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
}
