package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitySpecificNotFoundErrors(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		ErrDeckNotFound,
		ErrCardNotFound,
		ErrCardProgressNotFound,
		ErrSessionNotFound,
		ErrUserStatsNotFound,
	} {
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, IsNotFoundError(err))
	}

	assert.False(t, IsNotFoundError(ErrDuplicate))
	assert.False(t, IsNotFoundError(nil))
}

func TestIsNotFoundErrorWrapped(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("loading session: %w", ErrSessionNotFound)
	assert.True(t, IsNotFoundError(wrapped))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection reset")
	err := NewStoreError("study session", "update", "persisting autosave", inner)

	assert.Contains(t, err.Error(), "update operation on study session failed")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, inner)

	bare := NewStoreError("card", "create", "no details", nil)
	assert.Equal(t, "create operation on card failed: no details", bare.Error())
}
