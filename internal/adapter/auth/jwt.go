// Package auth turns bearer tokens into domain callers.
//
// Tokens are HS256 JWTs minted by the marketplace's identity service (or the
// rentiq token command in development). Only the claims the lease engine
// needs are read: the subject is the account id, plus email and role.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// TokenIssuer identifies the service that issues caller tokens.
const TokenIssuer = "rentiq"

// Claims is the JWT payload of a caller token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates caller tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret, now: time.Now}
}

// Verify checks the token's signature and standard claims and returns the
// caller it identifies. Any failure wraps domain.ErrUnauthenticated.
func (v *Verifier) Verify(tokenString string) (domain.Caller, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	if claims.Email == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing email claim", domain.ErrUnauthenticated)
	}

	return domain.Caller{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Role:      domain.Role(claims.Role),
	}, nil
}

// Issuer mints caller tokens. Production tokens come from the identity
// service; this serves development and tests.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an issuer signing with secret.
func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: secret, now: time.Now}
}

// Issue signs a token for account valid for ttl.
func (i *Issuer) Issue(account domain.Account, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := i.now()
	claims := Claims{
		Email: account.Email,
		Role:  string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
