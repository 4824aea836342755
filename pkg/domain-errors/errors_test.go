package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndWrap(t *testing.T) {
	t.Run("New carries code and message", func(t *testing.T) {
		err := New(CodeInvalidInput, "email or phoneNumber required")
		assert.Equal(t, "email or phoneNumber required", err.Error())
		assert.True(t, HasCode(err, CodeInvalidInput))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("Wrap preserves the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "contact store unreachable")

		assert.Equal(t, "contact store unreachable: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("HasCode sees through fmt wrapping", func(t *testing.T) {
		inner := New(CodeTimeout, "transaction aborted")
		outer := fmt.Errorf("identify: %w", inner)

		assert.True(t, HasCode(outer, CodeTimeout))
		assert.Equal(t, CodeTimeout, CodeOf(outer))
	})
}

func TestCodeOf(t *testing.T) {
	t.Run("uncoded errors report internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("nested coded error wins", func(t *testing.T) {
		err := Wrap(New(CodeConflict, "demoted concurrently"), CodeUnavailable, "merge failed")
		// outermost code is reported
		assert.Equal(t, CodeUnavailable, CodeOf(err))
	})
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{CodeInvariantViolation, http.StatusInternalServerError},
		{Code("unheard_of"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			require.Equal(t, tt.status, ToHTTPStatus(tt.code))
		})
	}
}
