package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/karibuapp/payout/internal/logger"
	"github.com/karibuapp/payout/internal/models"
	"go.uber.org/zap"
)

// audit action kinds
const (
	auditActionApprove = "withdrawal_approve"
	auditActionReject  = "withdrawal_reject"
)

// WithdrawalStore is interface for interacting with withdrawal-related data
type WithdrawalStore interface {
	// GetWithdrawalByID returns withdrawal by id
	GetWithdrawalByID(ctx context.Context, id uint64) (*models.Withdrawal, error)
	// BeginSettlement atomically guards pending status, debits the gross
	// amount and marks the withdrawal processing
	BeginSettlement(ctx context.Context, id, adminID uint64) (*models.Withdrawal, error)
	// CompleteWithdrawal transitions processing -> completed
	CompleteWithdrawal(ctx context.Context, id uint64, externalRef string, metadata map[string]any) (*models.Withdrawal, error)
	// FailWithdrawal transitions processing -> failed
	FailWithdrawal(ctx context.Context, id uint64, metadata map[string]any) (*models.Withdrawal, error)
	// RejectWithdrawal transitions pending -> rejected
	RejectWithdrawal(ctx context.Context, id, adminID uint64, reason string) (*models.Withdrawal, error)
	// MergeMetadata merges fields into withdrawal metadata
	MergeMetadata(ctx context.Context, id uint64, fields map[string]any) error
}

// BalanceLedger is interface of the balance compensation primitive
type BalanceLedger interface {
	// Increment atomically adds amount to user balance
	Increment(ctx context.Context, userID uint64, amount int64) error
}

// PayeeSource resolves the owning user for payee metadata
type PayeeSource interface {
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

// Executor performs the external transfer
type Executor interface {
	Execute(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// Notifier sends user notification on terminal transitions, fire-and-forget
type Notifier interface {
	Notify(ctx context.Context, userID uint64, event string, w *models.Withdrawal)
}

// AuditRecorder records admin action with before/after state
type AuditRecorder interface {
	RecordAction(ctx context.Context, adminID uint64, action, entity string, entityID uint64, before, after any) error
}

// SettlementService coordinates the withdrawal store, the balance ledger and
// the transfer executor for admin approve/reject actions. It owns the
// compensation logic: the gross debit committed before the external call is
// credited back when all transfer attempts are exhausted.
type SettlementService struct {
	store    WithdrawalStore
	ledger   BalanceLedger
	users    PayeeSource
	executor Executor
	notifier Notifier
	audit    AuditRecorder
}

// NewSettlementService creates new SettlementService instance
func NewSettlementService(store WithdrawalStore, ledger BalanceLedger, users PayeeSource,
	executor Executor, notifier Notifier, audit AuditRecorder) *SettlementService {
	return &SettlementService{
		store:    store,
		ledger:   ledger,
		users:    users,
		executor: executor,
		notifier: notifier,
		audit:    audit,
	}
}

// Approve settles a pending withdrawal synchronously: it debits the gross
// amount, runs the external transfer and finalizes the terminal state. The
// call is slow and blocking, it may take tens of seconds.
//
// A withdrawal that exhausted its transfer attempts and was refunded is a
// result, not an error: the returned withdrawal carries status failed with a
// nil error. Errors are AlreadyProcessed, InsufficientBalance, not-found,
// RefundFailed and storage failures.
func (ss *SettlementService) Approve(ctx context.Context, withdrawalID, adminID uint64, providerRef string) (*models.Withdrawal, error) {
	// payee data is resolved before the debit so an account lookup failure
	// cannot strand a debited withdrawal
	w, err := ss.store.GetWithdrawalByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, models.ErrAlreadyProcessed
	}

	user, err := ss.users.GetUserByID(ctx, w.UserID)
	if err != nil {
		return nil, err
	}

	w, err = ss.store.BeginSettlement(ctx, withdrawalID, adminID)
	if err != nil {
		return nil, err
	}

	// the debit is committed. From here the orchestration must run to
	// completion and persist its result even if the caller gives up.
	ctx = context.WithoutCancel(ctx)

	res, execErr := ss.executor.Execute(ctx, TransferRequest{
		WithdrawalID: w.ID,
		Amount:       w.NetAmount,
		Phone:        w.Phone,
		PayeeName:    user.DisplayName,
	})

	if execErr == nil {
		return ss.complete(ctx, w, adminID, providerRef, res)
	}

	return ss.compensate(ctx, w, adminID, providerRef, execErr)
}

func (ss *SettlementService) complete(ctx context.Context, w *models.Withdrawal, adminID uint64, providerRef string, res *TransferResult) (*models.Withdrawal, error) {
	metadata := map[string]any{
		"transfer_id":  res.TransferID,
		"client_ref":   res.ClientRef,
		"attempts":     res.Attempts,
		"phone":        w.Phone,
		"completed_at": res.CompletedAt.Format(time.RFC3339),
	}
	if providerRef != "" {
		metadata["provider_ref"] = providerRef
	}

	completed, err := ss.store.CompleteWithdrawal(ctx, w.ID, res.TransferID, metadata)
	if err != nil {
		logger.Log.Error("transfer succeeded but completion was not persisted",
			zap.Uint64("withdrawal", w.ID),
			zap.String("transfer_id", res.TransferID),
			zap.Error(err))
		return nil, err
	}

	ss.notifier.Notify(ctx, completed.UserID, models.EventWithdrawalCompleted, completed)
	ss.recordAudit(ctx, adminID, auditActionApprove, w, completed)

	return completed, nil
}

// compensate credits the gross debit back and marks the withdrawal failed.
// A refund that cannot be persisted is never retried automatically: blind
// re-crediting risks double-crediting if the first credit partially applied.
func (ss *SettlementService) compensate(ctx context.Context, w *models.Withdrawal, adminID uint64, providerRef string, execErr error) (*models.Withdrawal, error) {
	metadata := map[string]any{
		"failure_reason": execErr.Error(),
	}
	if providerRef != "" {
		metadata["provider_ref"] = providerRef
	}
	var terr *TransferError
	if errors.As(execErr, &terr) {
		metadata["attempts"] = terr.Attempts
		metadata["error_kind"] = terr.Kind
		metadata["last_error"] = terr.Detail
	}

	if err := ss.ledger.Increment(ctx, w.UserID, w.Amount); err != nil {
		logger.Log.Error("refund failed, manual reconciliation required",
			zap.Uint64("withdrawal", w.ID),
			zap.Uint64("user", w.UserID),
			zap.Int64("amount", w.Amount),
			zap.Error(err))

		metadata["refund_pending"] = true
		if merr := ss.store.MergeMetadata(ctx, w.ID, metadata); merr != nil {
			logger.Log.Error("flagging refund_pending failed",
				zap.Uint64("withdrawal", w.ID), zap.Error(merr))
		}

		return w, models.ErrRefundFailed
	}

	failed, err := ss.store.FailWithdrawal(ctx, w.ID, metadata)
	if err != nil {
		return nil, err
	}

	ss.notifier.Notify(ctx, failed.UserID, models.EventWithdrawalFailed, failed)
	ss.recordAudit(ctx, adminID, auditActionApprove, w, failed)

	return failed, nil
}

// Reject declines a pending withdrawal. Nothing was debited at request
// creation, so the ledger is not touched.
func (ss *SettlementService) Reject(ctx context.Context, withdrawalID, adminID uint64, reason string) (*models.Withdrawal, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.ErrEmptyRejectReason
	}

	before, err := ss.store.GetWithdrawalByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if before.Status != models.WithdrawalStatusPending {
		return nil, models.ErrAlreadyProcessed
	}

	rejected, err := ss.store.RejectWithdrawal(ctx, withdrawalID, adminID, reason)
	if err != nil {
		return nil, err
	}

	ss.notifier.Notify(ctx, rejected.UserID, models.EventWithdrawalRejected, rejected)
	ss.recordAudit(ctx, adminID, auditActionReject, before, rejected)

	return rejected, nil
}

func (ss *SettlementService) recordAudit(ctx context.Context, adminID uint64, action string, before, after *models.Withdrawal) {
	err := ss.audit.RecordAction(ctx, adminID, action, "withdrawal", after.ID,
		map[string]any{"status": before.Status},
		map[string]any{"status": after.Status, "external_ref": after.ExternalRef})
	if err != nil {
		logger.Log.Error("audit record failed", zap.Uint64("withdrawal", after.ID), zap.Error(err))
	}
}
