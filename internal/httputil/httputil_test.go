package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedding-service/internal/api"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			err:        &api.ValidationError{Details: []api.FieldError{{Loc: []string{"body", "text"}, Msg: "field required", Type: "value_error.missing"}}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "body too large",
			err:        fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 10}),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "provider timeout",
			err:        &api.InternalError{Err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "provider failure",
			err:        &api.InternalError{Err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(discardLogger(), w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body, "detail")
		})
	}
}

func TestValidationErrorBody(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationError(discardLogger(), w, &api.ValidationError{Details: []api.FieldError{
		{Loc: []string{"body", "text"}, Msg: "field required", Type: "value_error.missing"},
	}})

	assert.JSONEq(t, `{"detail":[{"loc":["body","text"],"msg":"field required","type":"value_error.missing"}]}`, w.Body.String())
}

func TestRecovererReturnsJSON500(t *testing.T) {
	r := NewRouter(discardLogger(), 0)
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, w.Body.String())
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(discardLogger())(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
