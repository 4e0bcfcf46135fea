package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	p := NewJWTProvider("secret", time.Hour)

	token, err := p.Issue("uid-1", "worker")
	require.NoError(t, err)

	claims, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UID)
	assert.Equal(t, "worker", claims.Role)
	assert.Equal(t, "uid-1", claims.Subject)
}

func TestParseWrongSecret(t *testing.T) {
	issuer := NewJWTProvider("secret-a", time.Hour)
	verifier := NewJWTProvider("secret-b", time.Hour)

	token, err := issuer.Issue("uid-1", "customer")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	p := NewJWTProvider("secret", time.Millisecond)

	token, err := p.Issue("uid-1", "customer")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = p.Parse(token)
	assert.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	p := NewJWTProvider("secret", time.Hour)
	_, err := p.Parse("not.a.token")
	assert.Error(t, err)
}

func TestDefaultTTL(t *testing.T) {
	p := NewJWTProvider("secret", 0)

	token, err := p.Issue("uid-1", "customer")
	require.NoError(t, err)

	claims, err := p.Parse(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}
