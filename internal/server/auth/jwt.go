// Package auth holds the authentication primitives used by the account
// service: token issuing, password hashing, input validation and rate
// limiting.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/timex"
)

// Claims are the session token payload. Subject is the account id; Epoch
// must match the account's current token epoch for the token to be honoured.
type Claims struct {
	jwt.RegisteredClaims
	Epoch int64 `json:"epoch"`
}

// TokenIssuer mints and verifies HS256 session tokens. It owns no state
// beyond the secret and lifetime it was built with.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  timex.Clock
}

func NewTokenIssuer(secret []byte, ttl time.Duration, clock timex.Clock) *TokenIssuer {
	if clock == nil {
		clock = timex.RealClock{}
	}
	return &TokenIssuer{secret: secret, ttl: ttl, clock: clock}
}

// TTL is the lifetime given to every issued token.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue returns a signed token for accountID and its expiry time. Token
// timestamps have one-second precision.
func (i *TokenIssuer) Issue(accountID string, epoch int64) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Epoch: epoch,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of tokenString. Expired tokens
// yield common.ErrTokenExpired; anything else wrong yields
// common.ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
