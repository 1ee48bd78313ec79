package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("secret", "devreg", time.Minute)

	token, expiresAt, err := issuer.Issue(1234567890123)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.EqualValues(t, 1234567890123, userID)
}

func TestVerifyRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "devreg", time.Minute)

	expired, _, err := NewTokenIssuer("secret", "devreg", -time.Minute).Issue(1)
	require.NoError(t, err)
	_, err = issuer.Verify(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	otherKey, _, err := NewTokenIssuer("other", "devreg", time.Minute).Issue(1)
	require.NoError(t, err)
	_, err = issuer.Verify(otherKey)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	otherIssuer, _, err := NewTokenIssuer("secret", "someone-else", time.Minute).Issue(1)
	require.NoError(t, err)
	_, err = issuer.Verify(otherIssuer)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    "devreg",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(noneToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
