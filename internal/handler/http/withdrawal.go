package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/karibuapp/payout/internal/models"
)

// WithdrawalService is interface of user cash-out requests
type WithdrawalService interface {
	// RequestWithdrawal files new pending withdrawal
	RequestWithdrawal(ctx context.Context, userID uint64, amount int64, phone string) (*models.Withdrawal, error)
	// GetWithdrawals returns user withdrawals
	GetWithdrawals(ctx context.Context, userID uint64) ([]models.Withdrawal, error)
}

// WithdrawalHandler represents HTTP handler for withdrawal-related requests
type WithdrawalHandler struct {
	svc WithdrawalService
}

// NewWithdrawalHandler creates new WithdrawalHandler instance
func NewWithdrawalHandler(svc WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

type withdrawalRequest struct {
	Amount int64  `json:"amount"`
	Phone  string `json:"phone"`
}

type withdrawalResponse struct {
	ID        uint64 `json:"id"`
	Amount    int64  `json:"amount"`
	Fee       int64  `json:"fee"`
	NetAmount int64  `json:"net_amount"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func newWithdrawalResponse(w *models.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		ID:        w.ID,
		Amount:    w.Amount,
		Fee:       w.Fee,
		NetAmount: w.NetAmount,
		Phone:     w.Phone,
		Status:    w.Status,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

// CreateWithdrawal files user cash-out request. The balance is not debited
// here, only at admin approval.
// 202 — заявка принята;
// 400 — неверный формат запроса;
// 401 — пользователь не авторизован;
// 402 — на счету недостаточно средств;
// 422 — неверная сумма или номер телефона;
// 500 — внутренняя ошибка сервера.
func (wh *WithdrawalHandler) CreateWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var withdrawalReq withdrawalRequest
		if err := json.NewDecoder(r.Body).Decode(&withdrawalReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		withdrawal, err := wh.svc.RequestWithdrawal(r.Context(), payload.UserID, withdrawalReq.Amount, withdrawalReq.Phone)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInsufficientBalance):
				http.Error(w, "insufficient balance", http.StatusPaymentRequired)
			case errors.Is(err, models.ErrInvalidAmount):
				http.Error(w, "invalid amount", http.StatusUnprocessableEntity)
			case errors.Is(err, models.ErrInvalidPhone):
				http.Error(w, "invalid phone number", http.StatusUnprocessableEntity)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)

		if err := json.NewEncoder(w).Encode(newWithdrawalResponse(withdrawal)); err != nil {
			return
		}
	}
}

// ListWithdrawals returns user withdrawals
// 200 — успешная обработка запроса;
// 204 — нет ни одной заявки;
// 401 — пользователь не авторизован;
// 500 — внутренняя ошибка сервера.
func (wh *WithdrawalHandler) ListWithdrawals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		withdrawals, err := wh.svc.GetWithdrawals(r.Context(), payload.UserID)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrWithdrawalsNotExist):
				http.Error(w, "no content", http.StatusNoContent)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		resp := make([]withdrawalResponse, 0, len(withdrawals))
		for i := range withdrawals {
			resp = append(resp, newWithdrawalResponse(&withdrawals[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}
