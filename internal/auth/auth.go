package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer   = "yuki-salon-api"
	audience = "yuki-salon-clients"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TTL is how long a token of this kind stays valid after issue.
func (k TokenKind) TTL() time.Duration {
	if k == RefreshToken {
		return 7 * 24 * time.Hour
	}
	return 15 * time.Minute
}

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrWrongTokenKind   = errors.New("wrong token kind")
	ErrMissingSecret    = errors.New("jwt secret cannot be empty")
	ErrPasswordMismatch = errors.New("password does not match")
)

var now = time.Now

// Identity is the caller a token speaks for.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// Claims carry the user id in the registered subject claim.
type Claims struct {
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Kind  TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

func (c *Claims) identity() (Identity, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: id, Email: c.Email, Role: c.Role}, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

func Issue(kind TokenKind, id Identity, secret string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	issuedAt := now()
	claims := &Claims{
		Email: id.Email,
		Role:  id.Role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID.String(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(kind.TTL())),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// IssuePair signs an access and a refresh token for id with one secret.
func IssuePair(id Identity, secret string) (access, refresh string, err error) {
	if access, err = Issue(AccessToken, id, secret); err != nil {
		return "", "", err
	}
	if refresh, err = Issue(RefreshToken, id, secret); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify checks the signature, the registered claims and the token kind.
func Verify(token, secret string, want TokenKind) (Identity, error) {
	claims, err := parse(token, secret)
	if err != nil {
		return Identity{}, err
	}
	if claims.Kind != want {
		return Identity{}, ErrWrongTokenKind
	}
	return claims.identity()
}

func parse(token, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
