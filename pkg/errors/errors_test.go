package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrInvalidOperation,
		ErrUnauthorized, ErrForbidden, ErrInternal, ErrConflict, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("redis connection lost")
	withInner := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Contains(t, withInner.Error(), "redis connection lost")

	plain := &AppError{Code: "NOT_FOUND", Message: "product not found"}
	assert.Equal(t, "NOT_FOUND: product not found", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "42"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("account", "email", "a@b.com"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"invalid input", InvalidInput("quantity must be greater than 0"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"invalid operation", InvalidOperation("product is out of stock"), "INVALID_OPERATION", http.StatusUnprocessableEntity, ErrInvalidOperation},
		{"unauthorized", Unauthorized("invalid token"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("nope"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"conflict", Conflict("session was modified concurrently"), "CONFLICT", http.StatusConflict, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestNotFound_MessageNamesResource(t *testing.T) {
	err := NotFound("product", "42")
	assert.Contains(t, err.Message, "product")
	assert.Contains(t, err.Message, "42")
}

func TestInternal_KeepsCause(t *testing.T) {
	err := Internal(fmt.Errorf("segfault"))
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "segfault")
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "load session")
	assert.Contains(t, wrapped.Error(), "load session")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestHTTPStatus_SentinelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidOperation, http.StatusUnprocessableEntity},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrServiceUnavail, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("add to cart: %w", InvalidOperation("out of stock"))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(wrapped))
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("unknown")))
}
