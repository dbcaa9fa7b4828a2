// Package token mints and verifies the HS256 access credentials used by
// the cart surface.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahinestrog/bookcart/internal/checkout"
)

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an issuer with the given signing secret. The credential
// lifetime defaults to 45 minutes.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 45 * time.Minute
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) Issue(id checkout.Identity) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  id.Owner.String(),
		"name": id.Name,
		"role": id.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses a bearer token and returns the identity carried in its
// claims. Expiry is enforced by the parser.
func (i *Issuer) Verify(raw string) (checkout.Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return checkout.Identity{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return checkout.Identity{}, jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	owner, err := uuid.Parse(sub)
	if err != nil {
		return checkout.Identity{}, fmt.Errorf("sub claim: %w", err)
	}
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	return checkout.Identity{Owner: owner, Name: name, Role: role}, nil
}
