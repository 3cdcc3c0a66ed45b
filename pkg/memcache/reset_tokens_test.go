package mem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResetTokens(t *testing.T) {
	t.Parallel()

	store := NewResetTokens()
	store.Set("tok-1", "ada@example.com", time.Minute)

	email, ok := store.Peek("tok-1")
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", email)

	assert.Equal(t, "ada@example.com", store.Consume("tok-1"))
	assert.Empty(t, store.Consume("tok-1"), "tokens are single-use")

	_, ok = store.Peek("tok-1")
	assert.False(t, ok)
}

func TestResetTokensExpiry(t *testing.T) {
	t.Parallel()

	store := NewResetTokens()
	store.Set("tok-2", "ada@example.com", -time.Second)

	_, ok := store.Peek("tok-2")
	assert.False(t, ok)
	assert.Empty(t, store.Consume("tok-2"))
}

func TestResetTokensUnknown(t *testing.T) {
	t.Parallel()

	store := NewResetTokens()
	assert.Empty(t, store.Consume("missing"))
}
