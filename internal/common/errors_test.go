package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("register: %w", NewValidationError("email", "must be a valid email address"))

	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Equal(t, "must be a valid email address", ve.Fields["email"])
	}
}

func TestValidationError_MessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"username": "too short",
		"email":    "invalid",
	}}
	assert.Equal(t, "validation failed: email: invalid; username: too short", err.Error())
}

func TestValidationError_Empty(t *testing.T) {
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}
