package service

import (
	"context"
	"testing"

	"github.com/karibuapp/payout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWithdrawalRepo struct {
	created *models.Withdrawal
	list    []models.Withdrawal
}

func (r *fakeWithdrawalRepo) CreateWithdrawal(_ context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	cp := *w
	cp.ID = 1
	r.created = &cp
	return &cp, nil
}

func (r *fakeWithdrawalRepo) GetWithdrawalsByUserID(_ context.Context, _ uint64) ([]models.Withdrawal, error) {
	return r.list, nil
}

type fakeBalanceReader struct {
	balance int64
	calls   int
}

func (b *fakeBalanceReader) Balance(_ context.Context, _ uint64) (int64, error) {
	b.calls++
	return b.balance, nil
}

func TestWithdrawalService_RequestWithdrawal(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		phone         string
		balance       int64
		wantErr       error
		wantFee       int64
		wantNet       int64
		wantPhone     string
		wantProvider  string
		wantNoBalCall bool
	}{
		{
			name:         "valid_request",
			amount:       7000,
			phone:        "0744123456",
			balance:      10000,
			wantFee:      350,
			wantNet:      6650,
			wantPhone:    "255744123456",
			wantProvider: "",
		},
		{
			name:         "fee_rounds_down",
			amount:       1001,
			phone:        "0744123456",
			balance:      10000,
			wantFee:      50,
			wantNet:      951,
			wantPhone:    "255744123456",
			wantProvider: "",
		},
		{
			name:         "airtel_provider_hint",
			amount:       7000,
			phone:        "0688123456",
			balance:      10000,
			wantFee:      350,
			wantNet:      6650,
			wantPhone:    "255688123456",
			wantProvider: "airtel",
		},
		{
			name:          "below_minimum",
			amount:        999,
			phone:         "0744123456",
			balance:       10000,
			wantErr:       models.ErrInvalidAmount,
			wantNoBalCall: true,
		},
		{
			name:          "bad_phone",
			amount:        7000,
			phone:         "12345",
			balance:       10000,
			wantErr:       models.ErrInvalidPhone,
			wantNoBalCall: true,
		},
		{
			name:    "insufficient_balance",
			amount:  7000,
			phone:   "0744123456",
			balance: 5000,
			wantErr: models.ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeWithdrawalRepo{}
			reader := &fakeBalanceReader{balance: tt.balance}
			svc := NewWithdrawalService(repo, reader)

			w, err := svc.RequestWithdrawal(context.Background(), 1, tt.amount, tt.phone)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, repo.created)
				if tt.wantNoBalCall {
					assert.Equal(t, 0, reader.calls)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, models.WithdrawalStatusPending, w.Status)
			assert.Equal(t, tt.amount, w.Amount)
			assert.Equal(t, tt.wantFee, w.Fee)
			assert.Equal(t, tt.wantNet, w.NetAmount)
			assert.Equal(t, tt.wantPhone, w.Phone)
			assert.Equal(t, tt.wantProvider, w.Provider)
			require.NotNil(t, repo.created)
		})
	}
}

func TestWithdrawalService_GetWithdrawals(t *testing.T) {
	repo := &fakeWithdrawalRepo{list: []models.Withdrawal{
		{ID: 1, Status: models.WithdrawalStatusCompleted},
		{ID: 2, Status: models.WithdrawalStatusPending},
	}}
	svc := NewWithdrawalService(repo, &fakeBalanceReader{})

	got, err := svc.GetWithdrawals(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWithdrawalService_GetWithdrawalsEmpty(t *testing.T) {
	svc := NewWithdrawalService(&fakeWithdrawalRepo{}, &fakeBalanceReader{})

	_, err := svc.GetWithdrawals(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrWithdrawalsNotExist)
}
