// Package auth issues and verifies the HS256 session tokens that bind a
// player to a table. The gateway checks one of these before it attaches a
// websocket client to a room.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// signing method, expired, or malformed.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	PlayerID string `json:"pid"`
	TableID  string `json:"tid"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService returns a token service. A zero ttl falls back to 24 hours.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Issue mints a token binding playerID to tableID.
func (s *Service) Issue(tableID, playerID string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("auth: signing secret is empty")
	}
	if tableID == "" || playerID == "" {
		return "", fmt.Errorf("auth: table and player ids are required")
	}
	now := time.Now()
	claims := SessionClaims{
		PlayerID: playerID,
		TableID:  tableID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates tokenString, returning its claims.
// Expiry is enforced; any failure maps to ErrInvalidToken.
func (s *Service) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.PlayerID == "" || claims.TableID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
