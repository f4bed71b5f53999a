package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Role string    `json:"role"`
	Type TokenType `json:"type"`
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		key:        []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (i *TokenIssuer) IssuePair(userID uuid.UUID, role string) (*TokenPair, error) {
	access, err := i.Issue(userID, role, TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := i.Issue(userID, role, TokenRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *TokenIssuer) Issue(userID uuid.UUID, role string, typ TokenType) (string, error) {
	ttl := i.accessTTL
	if typ == TokenRefresh {
		ttl = i.refreshTTL
	}
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
		Type: typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse verifies signature, expiry and token type.
func (i *TokenIssuer) Parse(tokenStr string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Type != want {
		return nil, fmt.Errorf("expected %s token, got %q", want, claims.Type)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	if !ValidRole(claims.Role) {
		return nil, fmt.Errorf("invalid role claim %q", claims.Role)
	}
	return claims, nil
}
