package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of a session token: sub, rol, exp, iat, jti.
type SessionClaims struct {
	Role string `json:"rol"`
	jwt.RegisteredClaims
}

var ErrNoSubject = errors.New("token has no subject")

type Signer struct {
	secret []byte
}

func NewSigner(secret []byte, minLen int) (*Signer, error) {
	if len(secret) < minLen {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minLen)
	}
	return &Signer{secret: secret}, nil
}

func (s *Signer) Sign(subject, role string, issuedAt, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(s.secret)
}

// Parse verifies the HS512 signature and the registered claims as of now.
func (s *Signer) Parse(raw string, now time.Time) (*SessionClaims, error) {
	var claims SessionClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}
	return &claims, nil
}
