package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKind(t *testing.T) {
	err := NotFound("alert not found").Arg("alert_id", "a-1")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "not found: alert not found [alert_id=a-1]", err.Error())
}

func TestErrorSurvivesWrapping(t *testing.T) {
	cause := errors.New("version mismatch")
	err := fmt.Errorf("update policy: %w", ConcurrentModification("policy changed").Wrap(cause))

	assert.True(t, errors.Is(err, ErrConcurrentModification))
	assert.True(t, errors.Is(err, cause))

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "policy changed", appErr.Message())
}
