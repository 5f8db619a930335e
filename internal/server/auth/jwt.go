// Package auth issues and verifies the HS256 bearer tokens handed out on
// login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdrscore/client/internal/shared"
)

// Claims are the standard registered claims plus the account id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Issuer signs tokens valid for ttl. The zero ttl is not useful; callers
// pass the configured lifetime.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	i := &Issuer{secret: secret, ttl: ttl, now: time.Now}
	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	return i
}

// TTL is the lifetime of newly issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue returns a signed token for userID. The exp claim is readable
// without the secret, which lets clients drop stale tokens offline.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// UserID verifies token and returns its account id.
// Expired tokens yield shared.ErrTokenExpired; anything else that fails
// verification yields shared.ErrInvalidToken.
func (i *Issuer) UserID(token string) (string, error) {
	claims := &Claims{}

	parsed, err := i.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", shared.ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	case !parsed.Valid || claims.UserID == "":
		return "", shared.ErrInvalidToken
	}

	return claims.UserID, nil
}
