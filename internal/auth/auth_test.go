package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatra/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager(TokenConfig{Secret: "s3cret", Issuer: "yatra", TTL: time.Hour})

	token, expiresAt, err := m.Issue(models.User{ID: 17, Phone: "+919800000001", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	p, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(17), p.UserID)
	assert.True(t, p.IsAdmin())
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewTokenManager(TokenConfig{Secret: "s3cret", Issuer: "yatra", TTL: time.Hour})
	other := NewTokenManager(TokenConfig{Secret: "other", Issuer: "yatra", TTL: time.Hour})

	token, _, err := other.Issue(models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager(TokenConfig{Secret: "s3cret", Issuer: "yatra", TTL: time.Minute})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.Issue(models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodes(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)

	hash, err := HashCode(code)
	require.NoError(t, err)
	assert.NotEqual(t, code, hash)
	assert.True(t, CompareCode(hash, code))
	assert.False(t, CompareCode(hash, "000000x"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "******0001", maskPhone("+919800000001"))
	assert.Equal(t, "123", maskPhone("123"))
}
