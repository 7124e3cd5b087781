// Package session issues and verifies the signed, stateless session tokens
// handed to clients after a successful login.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 16

// ErrWeakSecret is returned by NewIssuer for an empty, short or well-known
// placeholder secret.
var ErrWeakSecret = errors.New("jwt secret is missing or insecure")

var placeholderSecrets = map[string]struct{}{
	"secret":               {},
	"secretkey":            {},
	"changeme":             {},
	"change-me-in-prod":    {},
	"your-secret-key":      {},
	"your-very-secret-key": {},
	"jwt-secret":           {},
	"supersecretkey12345":  {},
}

// Claims carried by a session token. Subject is the user id.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs tokens with HS256 and verifies them against the same secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer validates the secret and lifetime and returns an Issuer.
func NewIssuer(secret string, ttl time.Duration, issuer string) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: must be at least %d bytes", ErrWeakSecret, MinSecretLength)
	}
	if _, known := placeholderSecrets[strings.ToLower(secret)]; known {
		return nil, fmt.Errorf("%w: placeholder value", ErrWeakSecret)
	}
	if ttl <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}

	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for the user, valid for the configured TTL.
func (i *Issuer) Issue(subject, email, username string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Verify parses tokenString and checks signature, algorithm, expiry and
// issuer. Every failure wraps common.ErrAuthFailure.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrAuthFailure)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthFailure, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token", common.ErrAuthFailure)
	}

	return claims, nil
}
