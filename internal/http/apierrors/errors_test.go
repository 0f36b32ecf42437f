package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/service"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"nil is a bug -> 500", nil, http.StatusInternalServerError, "internal error"},
		{"unauthenticated", auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"invalid credentials collapse to 401", service.ErrInvalidCredentials, http.StatusUnauthorized, "unauthenticated"},
		{"rate limited", service.ErrRateLimited, http.StatusTooManyRequests, "rate limit exceeded"},
		{"invalid argument", service.ErrInvalidArgument, http.StatusBadRequest, "invalid argument"},
		{"invalid cursor", service.ErrInvalidCursor, http.StatusBadRequest, "invalid argument"},
		{"not found", service.ErrNotFound, http.StatusNotFound, "not found"},
		{"already exists", service.ErrAlreadyExists, http.StatusConflict, "already exists"},
		{"permission denied", service.ErrPermissionDenied, http.StatusForbidden, "permission denied"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline exceeded"},
		{"unknown -> 500", errors.New("pg down"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.message, resp.Error)
		})
	}
}

func TestToHTTP_WrappedErrors(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("service.catalog.CreateSeries: %w", service.ErrAlreadyExists)
	status, resp := ToHTTP(wrapped)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "already exists", resp.Error)
}

func TestWriteError_BodyAndRequestID(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/series", nil)
	r.Header.Set("X-Request-Id", "rid-123")
	w := httptest.NewRecorder()

	WriteError(w, r, auth.ErrUnauthenticated)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "unauthenticated", resp.Error)
	require.Equal(t, "rid-123", resp.RequestID)
}

func TestWriteError_InternalDetailsDoNotLeak(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/series", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, errors.New("pq: connection refused at 10.0.0.3"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "10.0.0.3")
}
