package service

import (
	"context"
	"errors"

	"github.com/karibuapp/payout/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is interface for interacting with user-related data
type UserRepository interface {
	// CreateUser inserts new user to database
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns user by login
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// UserService implements registration and login
type UserService struct {
	repo  UserRepository
	token TokenService
}

// NewUserService creates new UserService instance
func NewUserService(repo UserRepository, token TokenService) *UserService {
	return &UserService{
		repo:  repo,
		token: token,
	}
}

// Register creates new user with hashed password
func (us *UserService) Register(ctx context.Context, login, password, displayName, phone string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Login:        login,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Phone:        phone,
		Role:         models.RoleUser,
	}

	return us.repo.CreateUser(ctx, user)
}

// Login verifies credentials and returns session token
func (us *UserService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := us.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return us.token.CreateToken(user)
}
