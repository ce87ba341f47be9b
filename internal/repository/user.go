package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/karibuapp/payout/internal/models"
	"github.com/karibuapp/payout/internal/repository/postgres"
)

const (
	insertUserQuery = `
						INSERT INTO users (login, password_hash, display_name, phone, role)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING id, login, password_hash, display_name, phone, role, balance, created_at
`
	selectUserByLoginQuery = `
						SELECT id, login, password_hash, display_name, phone, role, balance, created_at FROM users
						WHERE login = $1
`
	selectUserByIDQuery = `
						SELECT id, login, password_hash, display_name, phone, role, balance, created_at FROM users
						WHERE id = $1
`
)

// UserRepository implements UserRepository interface
type UserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates new user repository instance
func NewUserRepository(db *postgres.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(r row, u *models.User) error {
	return r.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.DisplayName, &u.Phone, &u.Role, &u.Balance, &u.CreatedAt)
}

// CreateUser inserts new user to database
func (ur *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := scanUser(ur.db.QueryRow(ctx, insertUserQuery,
		user.Login, user.PasswordHash, user.DisplayName, user.Phone, user.Role), user)
	if err != nil {
		if errCode := ur.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return user, nil
}

// GetUserByLogin returns user by login
func (ur *UserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	user := models.User{}
	err := scanUser(ur.db.QueryRow(ctx, selectUserByLoginQuery, login), &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetUserByID returns user by id
func (ur *UserRepository) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	user := models.User{}
	err := scanUser(ur.db.QueryRow(ctx, selectUserByIDQuery, id), &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}
