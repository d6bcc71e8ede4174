package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newIssuer(secret string, ttl time.Duration) (*TokenIssuer, *timex.FixedClock) {
	clock := &timex.FixedClock{T: issuedAt}
	return NewTokenIssuer([]byte(secret), ttl, clock), clock
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	issuer, _ := newIssuer("super-secret", 7*24*time.Hour)

	tok, exp, err := issuer.Issue("acc-123", 4)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(7*24*time.Hour), exp)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-123", claims.Subject)
	assert.Equal(t, int64(4), claims.Epoch)
}

func TestVerify_ValidUntilExpiry(t *testing.T) {
	t.Parallel()

	ttl := time.Hour
	issuer, clock := newIssuer("k", ttl)
	tok, _, err := issuer.Issue("acc", 0)
	require.NoError(t, err)

	for _, offset := range []time.Duration{0, time.Minute, ttl - time.Second} {
		clock.T = issuedAt.Add(offset)
		_, err := issuer.Verify(tok)
		assert.NoError(t, err, "offset %s", offset)
	}

	for _, offset := range []time.Duration{ttl, ttl + time.Second, 48 * time.Hour} {
		clock.T = issuedAt.Add(offset)
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, common.ErrTokenExpired, "offset %s", offset)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	good, _ := newIssuer("right-secret", time.Hour)
	bad, _ := newIssuer("wrong-secret", time.Hour)

	tok, _, err := good.Issue("acc", 0)
	require.NoError(t, err)

	_, err = bad.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	issuer, _ := newIssuer("k", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken, "token %q", tok)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	issuer, _ := newIssuer("k", time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RequiresSubjectAndExpiry(t *testing.T) {
	t.Parallel()

	issuer, _ := newIssuer("k", time.Hour)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour))},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = issuer.Verify(noSub)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acc"},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = issuer.Verify(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
