package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "forbidden", err: NewForbidden("nope"), code: CodeForbidden, status: http.StatusForbidden},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", NewNotFound("ticket", nil)), code: CodeNotFound, status: http.StatusNotFound},
		{name: "invalid code", err: NewInvalidOrExpiredCode(), code: CodeInvalidOrExpiredCode, status: http.StatusBadRequest},
		{name: "fiber error", err: fiber.NewError(http.StatusConflict, "dup"), code: CodeConflict, status: http.StatusConflict},
		{name: "plain error", err: errors.New("boom"), code: CodeInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
}

func TestToDomainError_Nil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestHasCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", NewConflict("email already registered", nil))
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(errors.New("x"), CodeConflict))
}
