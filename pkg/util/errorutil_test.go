package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatusAndCode(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{NewUnauthorized("who"), CodeAuth, http.StatusUnauthorized},
		{NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{NewNotFound("Ticket"), CodeNotFound, http.StatusNotFound},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		d := ToDomainError(tt.err)
		assert.Equal(t, tt.code, d.Code)
		assert.Equal(t, tt.status, d.HTTPStatus)
		assert.True(t, IsCode(tt.err, tt.code))
	}
	assert.Equal(t, "Ticket not found", ToDomainError(NewNotFound("Ticket")).Message)
}

func TestToDomainErrorUnwrapsAndMaps(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewForbidden("admin access required"))
	assert.Equal(t, CodeForbidden, ToDomainError(wrapped).Code)

	notFound := ToDomainError(fiber.ErrNotFound)
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	tooLarge := ToDomainError(fiber.ErrRequestEntityTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, tooLarge.HTTPStatus)
	assert.Equal(t, http.StatusText(http.StatusRequestEntityTooLarge), tooLarge.Code)

	unavailable := ToDomainError(fiber.ErrServiceUnavailable)
	assert.Equal(t, CodeInternal, unavailable.Code)
	assert.Equal(t, "internal server error", unavailable.Message)

	plain := ToDomainError(errors.New("db exploded"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, "internal server error", plain.Message)
	assert.ErrorContains(t, plain, "db exploded")

	assert.Nil(t, ToDomainError(nil))
	assert.False(t, IsCode(errors.New("x"), CodeInternal))
}
