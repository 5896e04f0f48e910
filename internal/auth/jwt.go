package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sphere-social/sphere/internal/errs"
)

// Manager issues and verifies HS256 tokens carrying a user_id claim.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (m *Manager) Generate(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     m.now().Unix(),
		"exp":     m.now().Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify returns the user id of a valid token. Every failure wraps
// errs.ErrUnauthenticated.
func (m *Manager) Verify(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, fmt.Errorf("%w: token is required", errs.ErrUnauthenticated)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.now))

	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: invalid or expired token", errs.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: invalid token claims", errs.ErrUnauthenticated)
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat < 1 {
		return 0, fmt.Errorf("%w: invalid user ID in token claims", errs.ErrUnauthenticated)
	}

	return uint(userIDFloat), nil
}
