package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errUnauthorized = errors.New("unauthorized")

// Claims identifies the player behind a connection.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator resolves the acting user for a request. With an empty
// secret it trusts the userId query parameter (local/dev mode).
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// UserID reads a bearer token from the Authorization header or the token
// query parameter, since browsers cannot set headers on websocket upgrades.
func (a *Authenticator) UserID(r *http.Request) (string, error) {
	if len(a.secret) == 0 {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			return "", fmt.Errorf("%w: missing userId", errUnauthorized)
		}
		return userID, nil
	}

	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", fmt.Errorf("%w: invalid authorization header format", errUnauthorized)
		}
		token = parts[1]
	}
	if token == "" {
		return "", fmt.Errorf("%w: token is required", errUnauthorized)
	}

	claims, err := a.validate(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	return claims.UserID, nil
}

func (a *Authenticator) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// IssueToken signs a token for userID valid for ttl.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
