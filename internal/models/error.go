package models

import "errors"

var (
	ErrConflictData       = errors.New("data conflicts with existing data")
	ErrDataNotFound       = errors.New("data not found")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInternalError      = errors.New("internal error")

	// withdrawal request validation
	ErrInvalidAmount = errors.New("invalid withdrawal amount")
	ErrInvalidPhone  = errors.New("invalid destination phone number")

	// settlement
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyProcessed    = errors.New("withdrawal is already processed")
	ErrEmptyRejectReason   = errors.New("rejection reason is required")
	ErrWithdrawalsNotExist = errors.New("user has no withdrawals")

	// ErrRefundFailed means the compensating credit after a failed transfer
	// could not be persisted. The withdrawal stays in processing with
	// refund_pending metadata and requires manual reconciliation.
	ErrRefundFailed = errors.New("refund of debited balance failed")

	// ErrTransferDeclined is returned by the payment network client when the
	// provider explicitly declines a transfer.
	ErrTransferDeclined = errors.New("transfer declined by provider")
)
