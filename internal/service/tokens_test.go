package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestTokensRoundTrip(t *testing.T) {
	g := NewGuestTokens("secret")

	token, err := g.Issue("guest-1")
	require.NoError(t, err)

	id, err := g.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", id)
}

func TestGuestTokensRejects(t *testing.T) {
	g := NewGuestTokens("secret")
	token, err := g.Issue("guest-1")
	require.NoError(t, err)

	_, err = NewGuestTokens("other").Parse(token)
	assert.Error(t, err)

	_, err = g.Parse("not-a-token")
	assert.Error(t, err)

	expired := &GuestTokens{secret: []byte("secret"), ttl: -time.Minute}
	old, err := expired.Issue("guest-1")
	require.NoError(t, err)
	_, err = g.Parse(old)
	assert.Error(t, err)
}
