package service

import "github.com/karibuapp/payout/internal/models"

type TokenService interface {
	CreateToken(user *models.User) (string, error)
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}
