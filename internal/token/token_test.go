package token

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("token-test-secret")

func TestIssueVerifyRoundtrip(t *testing.T) {
	raw, err := Issue(secret, "u1", time.Hour)
	require.NoError(t, err)

	claims, err := Verifier{Secret: secret}.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, err := Issue([]byte("other"), "u1", time.Hour)
	require.NoError(t, err)

	_, err = Verifier{Secret: secret}.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "u1",
		"jti": "j1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	raw, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = Verifier{Secret: secret}.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyMissingSubject(t *testing.T) {
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"jti": "j1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = Verifier{Secret: secret}.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMissingExpiry(t *testing.T) {
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "u1",
		"jti": "j1",
	})
	raw, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = Verifier{Secret: secret}.Verify(raw)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := Verifier{Secret: secret}.Verify("definitely-not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
