package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("a", 42, 0)
	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 42, value)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("a", "v", 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok, "expired entries must not be returned")
}

func TestCacheDeletePrefix(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("tickets:user:USR-1:5:0", 1, 0)
	c.Set("tickets:user:USR-1:10:0", 2, 0)
	c.Set("tickets:user:USR-2:5:0", 3, 0)

	c.DeletePrefix("tickets:user:USR-1")

	_, ok := c.Get("tickets:user:USR-1:5:0")
	assert.False(t, ok)
	_, ok = c.Get("tickets:user:USR-2:5:0")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestSessionStoreRoundTrip(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()
	sessions := NewSessionStore(c, time.Minute)

	_, ok := sessions.Get("+221771234567")
	require.False(t, ok)

	sessions.Save(&Session{
		PhoneNumber:    "+221771234567",
		ConversationID: "CNV-1",
		Language:       "fr",
	})

	session, ok := sessions.Get("+221771234567")
	require.True(t, ok)
	assert.Equal(t, "CNV-1", session.ConversationID)
	assert.NotNil(t, session.Context, "Save must initialize a nil context map")

	sessions.Delete("+221771234567")
	_, ok = sessions.Get("+221771234567")
	assert.False(t, ok)
}
