package models

import "time"

//pending — заявка создана, баланс не затронут;
//processing — заявка одобрена админом, баланс списан, перевод выполняется;
//completed — перевод подтверждён провайдером;
//failed — все попытки перевода исчерпаны, баланс возвращён;
//rejected — заявка отклонена админом, баланс не затрагивался.

// withdrawal status
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusFailed     = "failed"
	WithdrawalStatusRejected   = "rejected"
)

// notification event kinds sent on terminal transitions
const (
	EventWithdrawalCompleted = "withdrawal_completed"
	EventWithdrawalFailed    = "withdrawal_failed"
	EventWithdrawalRejected  = "withdrawal_rejected"
)

// Withdrawal is cash-out request entity.
// Amount is gross, NetAmount = Amount - Fee is what the provider pays out.
// Metadata is the settlement saga log: transfer id, attempt count, phone and
// operator used, timestamps, refund flag.
type Withdrawal struct {
	ID              uint64
	UserID          uint64
	Amount          int64
	Fee             int64
	NetAmount       int64
	Phone           string
	Provider        string
	Status          string
	ProcessedBy     *uint64
	ProcessedAt     *time.Time
	Notes           string
	RejectionReason *string
	ExternalRef     *string
	Metadata        map[string]any
	CreatedAt       time.Time
}

// Terminal reports whether no further transition is legal.
func (w *Withdrawal) Terminal() bool {
	switch w.Status {
	case WithdrawalStatusCompleted, WithdrawalStatusFailed, WithdrawalStatusRejected:
		return true
	}
	return false
}
