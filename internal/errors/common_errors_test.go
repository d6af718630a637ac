package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "format error type", errType: ErrTypeFormat, expected: "FORMAT"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "service error type", errType: ErrTypeService, expected: "SERVICE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeFormat, Message: "missing column ytd"},
			wantMessage: "[FORMAT] missing column ytd",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeService,
				Message: "chat completion failed",
				Cause:   errors.New("connection refused"),
			},
			wantMessage: "[SERVICE] chat completion failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewServiceError("request failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, NewFormatError("bad header", nil).Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeFormat, Message: "bad value"}
	got := err.WithContext("row", 3).WithContext("column", "ytd")

	require.Same(t, err, got)
	assert.Equal(t, 3, err.Context["row"])
	assert.Equal(t, "ytd", err.Context["column"])
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
		check    func(error) bool
	}{
		{"config", NewConfigError("missing credential", nil), ErrTypeConfig, "missing credential", IsConfig},
		{"format", NewFormatError("missing column", cause), ErrTypeFormat, "missing column", IsFormat},
		{"not found", NewNotFoundError("input file a.csv", cause), ErrTypeNotFound, "input file a.csv not found", IsNotFound},
		{"service", NewServiceError("completion failed", cause), ErrTypeService, "completion failed", IsService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.NotNil(t, tt.err.Context)
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestIsType_WrappedChain(t *testing.T) {
	inner := NewServiceError("completion failed", errors.New("429"))
	wrapped := fmt.Errorf("classify AAPL: %w", inner)

	assert.True(t, IsService(wrapped))
	assert.False(t, IsConfig(wrapped))
	assert.False(t, IsType(errors.New("plain"), ErrTypeService))
	assert.False(t, IsType(nil, ErrTypeService))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, appErr)
}
