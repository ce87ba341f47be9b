package service

import (
	"context"

	"github.com/karibuapp/payout/internal/models"
	"github.com/karibuapp/payout/internal/momo"
)

const (
	minWithdrawalAmount = 1000
	withdrawFeePercent  = 5
)

// WithdrawalRepository is interface for withdrawal request data
type WithdrawalRepository interface {
	// CreateWithdrawal inserts new pending withdrawal
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error)
	// GetWithdrawalsByUserID returns user withdrawals
	GetWithdrawalsByUserID(ctx context.Context, userID uint64) ([]models.Withdrawal, error)
}

// BalanceReader returns current user balance
type BalanceReader interface {
	Balance(ctx context.Context, userID uint64) (int64, error)
}

// WithdrawalService handles user cash-out requests. A request only files a
// pending withdrawal: the balance is re-checked and debited at approval,
// never here.
type WithdrawalService struct {
	repo    WithdrawalRepository
	balance BalanceReader
}

// NewWithdrawalService creates new WithdrawalService instance
func NewWithdrawalService(repo WithdrawalRepository, balance BalanceReader) *WithdrawalService {
	return &WithdrawalService{
		repo:    repo,
		balance: balance,
	}
}

// RequestWithdrawal validates and files new cash-out request. The balance
// check here is advisory only, it may change before an admin approves.
func (ws *WithdrawalService) RequestWithdrawal(ctx context.Context, userID uint64, amount int64, phone string) (*models.Withdrawal, error) {
	if amount < minWithdrawalAmount {
		return nil, models.ErrInvalidAmount
	}

	msisdn, err := momo.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	balance, err := ws.balance.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount > balance {
		return nil, models.ErrInsufficientBalance
	}

	fee := amount * withdrawFeePercent / 100

	w := &models.Withdrawal{
		UserID:    userID,
		Amount:    amount,
		Fee:       fee,
		NetAmount: amount - fee,
		Phone:     msisdn,
		Provider:  momo.OperatorHint(msisdn),
		Status:    models.WithdrawalStatusPending,
	}

	return ws.repo.CreateWithdrawal(ctx, w)
}

// GetWithdrawals returns user withdrawals
func (ws *WithdrawalService) GetWithdrawals(ctx context.Context, userID uint64) ([]models.Withdrawal, error) {
	withdrawals, err := ws.repo.GetWithdrawalsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(withdrawals) == 0 {
		return nil, models.ErrWithdrawalsNotExist
	}

	return withdrawals, nil
}
