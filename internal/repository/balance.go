package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/karibuapp/payout/internal/models"
	"github.com/karibuapp/payout/internal/repository/postgres"
)

const (
	// conditional decrement is the single atomic primitive guarding the
	// balance: the row is updated only if it still covers the amount
	decrementBalanceQuery = `
						UPDATE users
						SET balance = balance - $1
						WHERE id = $2 AND balance >= $1
`
	incrementBalanceQuery = `
						UPDATE users
						SET balance = balance + $1
						WHERE id = $2
`
	selectBalanceQuery = `
						SELECT balance FROM users
						WHERE id = $1
`
)

// BalanceRepository implements BalanceLedger interface
type BalanceRepository struct {
	db *postgres.DB
}

// NewBalanceRepository creates new balance repository instance
func NewBalanceRepository(db *postgres.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Balance returns current user balance
func (br *BalanceRepository) Balance(ctx context.Context, userID uint64) (int64, error) {
	var balance int64
	err := br.db.QueryRow(ctx, selectBalanceQuery, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrDataNotFound
		}
		return 0, err
	}

	return balance, nil
}

// Decrement atomically subtracts amount from user balance. It returns
// ErrInsufficientBalance and makes no change when the balance does not
// cover amount.
func (br *BalanceRepository) Decrement(ctx context.Context, userID uint64, amount int64) error {
	cmd, err := br.db.Exec(ctx, decrementBalanceQuery, amount, userID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrInsufficientBalance
	}

	return nil
}

// Increment atomically adds amount to user balance. It is used for refunds
// and unrelated credit flows.
func (br *BalanceRepository) Increment(ctx context.Context, userID uint64, amount int64) error {
	cmd, err := br.db.Exec(ctx, incrementBalanceQuery, amount, userID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}

	return nil
}
