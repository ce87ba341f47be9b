package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/karibuapp/payout/internal/models"
)

// SettlementService is interface of admin withdrawal settlement
type SettlementService interface {
	// Approve settles a pending withdrawal, slow and blocking
	Approve(ctx context.Context, withdrawalID, adminID uint64, providerRef string) (*models.Withdrawal, error)
	// Reject declines a pending withdrawal
	Reject(ctx context.Context, withdrawalID, adminID uint64, reason string) (*models.Withdrawal, error)
}

// SettlementHandler represents HTTP handler for admin settlement requests
type SettlementHandler struct {
	svc SettlementService
}

// NewSettlementHandler creates new SettlementHandler instance
func NewSettlementHandler(svc SettlementService) *SettlementHandler {
	return &SettlementHandler{svc: svc}
}

type settlementResponse struct {
	ID              uint64 `json:"id"`
	Status          string `json:"status"`
	Refunded        bool   `json:"refunded,omitempty"`
	ExternalRef     string `json:"external_ref,omitempty"`
	Attempts        int    `json:"attempts,omitempty"`
	ProcessedAt     string `json:"processed_at,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

func newSettlementResponse(w *models.Withdrawal) settlementResponse {
	resp := settlementResponse{
		ID:       w.ID,
		Status:   w.Status,
		Refunded: w.Status == models.WithdrawalStatusFailed,
	}
	if w.ExternalRef != nil {
		resp.ExternalRef = *w.ExternalRef
	}
	if w.ProcessedAt != nil {
		resp.ProcessedAt = w.ProcessedAt.Format(time.RFC3339)
	}
	if w.RejectionReason != nil {
		resp.RejectionReason = *w.RejectionReason
	}
	// metadata numbers arrive as int in-process and float64 from jsonb
	switch v := w.Metadata["attempts"].(type) {
	case int:
		resp.Attempts = v
	case float64:
		resp.Attempts = int(v)
	}
	return resp
}

func withdrawalID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

type approveRequest struct {
	ProviderRef string `json:"provider_ref,omitempty"`
}

// ApproveWithdrawal settles a pending withdrawal. The call is synchronous
// end-to-end and may take tens of seconds: the admin receives a definitive
// outcome, not a check-back-later state.
// 200 — перевод завершён (completed) либо все попытки исчерпаны и баланс
//       возвращён (failed, refunded);
// 401/403 — нет прав администратора;
// 402 — на балансе пользователя недостаточно средств;
// 404 — заявка не найдена;
// 409 — заявка уже обработана;
// 500 — внутренняя ошибка, в том числе неуспешный возврат средств.
func (sh *SettlementHandler) ApproveWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := withdrawalID(r)
		if err != nil {
			http.Error(w, "bad withdrawal id", http.StatusBadRequest)
			return
		}

		// body is optional
		var approveReq approveRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&approveReq)
			defer r.Body.Close()
		}

		withdrawal, err := sh.svc.Approve(r.Context(), id, payload.UserID, approveReq.ProviderRef)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrAlreadyProcessed):
				http.Error(w, "withdrawal is already processed", http.StatusConflict)
			case errors.Is(err, models.ErrInsufficientBalance):
				http.Error(w, "insufficient balance", http.StatusPaymentRequired)
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "withdrawal not found", http.StatusNotFound)
			case errors.Is(err, models.ErrRefundFailed):
				http.Error(w, "transfer failed and refund was not persisted, manual reconciliation required", http.StatusInternalServerError)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(newSettlementResponse(withdrawal)); err != nil {
			return
		}
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectWithdrawal declines a pending withdrawal with a mandatory reason
// 200 — заявка отклонена;
// 400 — неверный формат запроса;
// 404 — заявка не найдена;
// 409 — заявка уже обработана;
// 422 — не указана причина отклонения;
// 500 — внутренняя ошибка сервера.
func (sh *SettlementHandler) RejectWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := withdrawalID(r)
		if err != nil {
			http.Error(w, "bad withdrawal id", http.StatusBadRequest)
			return
		}

		var rejectReq rejectRequest
		if err := json.NewDecoder(r.Body).Decode(&rejectReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		withdrawal, err := sh.svc.Reject(r.Context(), id, payload.UserID, rejectReq.Reason)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrEmptyRejectReason):
				http.Error(w, "rejection reason is required", http.StatusUnprocessableEntity)
			case errors.Is(err, models.ErrAlreadyProcessed):
				http.Error(w, "withdrawal is already processed", http.StatusConflict)
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "withdrawal not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(newSettlementResponse(withdrawal)); err != nil {
			return
		}
	}
}
