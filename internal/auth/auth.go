package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/karibuapp/payout/internal/models"
)

const tokenDuration = 24 * time.Hour

// AuthToken creates and verifies JWT session tokens
type AuthToken struct {
	key []byte
}

// NewAuthToken creates new AuthToken with signing key
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key}
}

type claims struct {
	jwt.RegisteredClaims
	UserID uint64 `json:"uid"`
	Role   string `json:"role"`
}

// CreateToken creates signed token for user
func (at *AuthToken) CreateToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: user.ID,
		Role:   user.Role,
	})

	return token.SignedString(at.key)
}

// VerifyToken parses and validates token string, returning its payload
func (at *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	c := claims{}
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return at.key, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return &models.TokenPayload{
		UserID: c.UserID,
		Role:   c.Role,
	}, nil
}
