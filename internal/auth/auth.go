// Package auth issues and validates the JWT pairs used by the API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claim values. A refresh token can never authenticate a request
// and an access token can never be exchanged for a new one.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Config holds signing and verification parameters.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims represents the payload extracted from a validated JWT.
type Claims struct {
	UserID    string
	TokenType string
	ExpiresAt time.Time
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// TokenPair bundles the access and refresh tokens returned on login.
type TokenPair struct {
	Access  string
	Refresh string
}

// Issuer signs tokens for authenticated users.
type Issuer struct {
	cfg Config
}

// NewIssuer constructs an Issuer.
func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg}
}

// IssuePair signs a fresh access/refresh token pair for the user.
func (i *Issuer) IssuePair(userID string) (TokenPair, error) {
	access, err := i.sign(userID, TokenTypeAccess, i.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, TokenTypeRefresh, i.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token's own lifetime is not extended.
func (i *Issuer) Refresh(refreshToken string) (string, error) {
	claims, err := Parse(refreshToken, i.cfg)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return i.sign(claims.UserID, TokenTypeAccess, i.cfg.AccessTTL)
}

func (i *Issuer) sign(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        userID,
		"token_type": tokenType,
		"iss":        i.cfg.Issuer,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(i.cfg.Secret))
}

// Parse validates a JWT signature, expiry and issuer and returns normalized
// claims.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	tokenType, _ := claims["token_type"].(string)
	if subject == "" || tokenType == "" {
		return nil, ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Claims{
		UserID:    subject,
		TokenType: tokenType,
		ExpiresAt: exp.Time,
	}, nil
}
