package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionError(t *testing.T) {
	cause := errors.New("rate limited")
	err := &CompletionError{Attempts: 3, Err: cause}

	t.Run("message names the attempt count", func(t *testing.T) {
		assert.Equal(t, "completion failed after 3 attempts: rate limited", err.Error())
	})

	t.Run("unwraps to the cause", func(t *testing.T) {
		assert.ErrorIs(t, err, cause)
	})

	t.Run("matchable with errors.As", func(t *testing.T) {
		var target *CompletionError
		wrapped := errors.Join(errors.New("outer"), err)
		assert.ErrorAs(t, wrapped, &target)
		assert.Equal(t, 3, target.Attempts)
	})
}
