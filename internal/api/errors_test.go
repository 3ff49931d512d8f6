// errors_test.go - Tests for the error handler
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/floor-layout/backend/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		showDetails bool
		wantStatus  int
		wantBody    string
	}{
		{
			name:       "api error",
			err:        NewForbiddenError("insufficient permissions"),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"code":"FORBIDDEN","message":"insufficient permissions"}`,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("outer: %w", NewNotFoundError("layout", "L1")),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"code":"NOT_FOUND","message":"layout not found: L1"}`,
		},
		{
			name:       "echo http error",
			err:        echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"),
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"code":"HTTP_ERROR","message":"Method Not Allowed"}`,
		},
		{
			name:        "unknown error with details",
			err:         errors.New("disk on fire"),
			showDetails: true,
			wantStatus:  http.StatusInternalServerError,
			wantBody:    `{"code":"UNKNOWN_ERROR","message":"An unexpected error occurred","details":"disk on fire"}`,
		},
		{
			name:       "internal details hidden",
			err:        NewInternalError("failed to list layouts", errors.New("connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":"INTERNAL_ERROR","message":"failed to list layouts"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewErrorHandler(tt.showDetails)(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestStoreError(t *testing.T) {
	notFound := fmt.Errorf("layout L1: %w", store.ErrNotFound)
	dup := fmt.Errorf("user bob: %w", store.ErrDuplicate)

	assert.Equal(t, http.StatusNotFound, storeError("layout", "L1", "load", notFound).Status)
	assert.Equal(t, http.StatusBadRequest, storeError("user", "bob", "create", dup).Status)

	internal := storeError("layout", "L1", "delete", errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.Equal(t, "failed to delete layout", internal.Message)
	assert.Equal(t, "boom", internal.Details)
}
