package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/karibuapp/payout/internal/models"
	"github.com/karibuapp/payout/internal/repository/postgres"
)

const pgErrUniqueViolationCode = "23505"

const (
	withdrawalColumns = `id, user_id, amount, fee, net_amount, phone, provider, status,
						processed_by, processed_at, notes, rejection_reason, external_ref, metadata, created_at`

	insertWithdrawalQuery = `
						INSERT INTO withdrawals (user_id, amount, fee, net_amount, phone, provider, status, notes)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
						RETURNING ` + withdrawalColumns

	selectWithdrawalByIDQuery = `
						SELECT ` + withdrawalColumns + ` FROM withdrawals
						WHERE id = $1
`
	selectWithdrawalForUpdateQuery = `
						SELECT ` + withdrawalColumns + ` FROM withdrawals
						WHERE id = $1
						FOR UPDATE
`
	selectWithdrawalsByUserIDQuery = `
						SELECT ` + withdrawalColumns + ` FROM withdrawals
						WHERE user_id = $1
						ORDER BY created_at DESC
`
	markProcessingQuery = `
						UPDATE withdrawals
						SET status = 'processing', processed_by = $1, processed_at = now()
						WHERE id = $2
						RETURNING ` + withdrawalColumns

	completeWithdrawalQuery = `
						UPDATE withdrawals
						SET status = 'completed', external_ref = $1, metadata = metadata || $2
						WHERE id = $3 AND status = 'processing'
						RETURNING ` + withdrawalColumns

	failWithdrawalQuery = `
						UPDATE withdrawals
						SET status = 'failed', metadata = metadata || $1
						WHERE id = $2 AND status = 'processing'
						RETURNING ` + withdrawalColumns

	rejectWithdrawalQuery = `
						UPDATE withdrawals
						SET status = 'rejected', processed_by = $1, processed_at = now(), rejection_reason = $2
						WHERE id = $3 AND status = 'pending'
						RETURNING ` + withdrawalColumns

	mergeMetadataQuery = `
						UPDATE withdrawals
						SET metadata = metadata || $1
						WHERE id = $2
`
)

// WithdrawalRepository implements WithdrawalStore interface
type WithdrawalRepository struct {
	db *postgres.DB
}

// NewWithdrawalRepository creates new withdrawal repository instance
func NewWithdrawalRepository(db *postgres.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

type row interface {
	Scan(dest ...any) error
}

func scanWithdrawal(r row, w *models.Withdrawal) error {
	return r.Scan(&w.ID, &w.UserID, &w.Amount, &w.Fee, &w.NetAmount, &w.Phone, &w.Provider,
		&w.Status, &w.ProcessedBy, &w.ProcessedAt, &w.Notes, &w.RejectionReason,
		&w.ExternalRef, &w.Metadata, &w.CreatedAt)
}

// CreateWithdrawal inserts new pending withdrawal. The balance is not
// touched at creation, the debit happens at approval.
func (wr *WithdrawalRepository) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	err := scanWithdrawal(wr.db.QueryRow(ctx, insertWithdrawalQuery,
		w.UserID, w.Amount, w.Fee, w.NetAmount, w.Phone, w.Provider, models.WithdrawalStatusPending, w.Notes), w)
	if err != nil {
		if errCode := wr.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return w, nil
}

// GetWithdrawalByID returns withdrawal by id
func (wr *WithdrawalRepository) GetWithdrawalByID(ctx context.Context, id uint64) (*models.Withdrawal, error) {
	w := models.Withdrawal{}
	err := scanWithdrawal(wr.db.QueryRow(ctx, selectWithdrawalByIDQuery, id), &w)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &w, nil
}

// GetWithdrawalsByUserID returns user withdrawals, most recent first
func (wr *WithdrawalRepository) GetWithdrawalsByUserID(ctx context.Context, userID uint64) ([]models.Withdrawal, error) {
	rows, err := wr.db.Query(ctx, selectWithdrawalsByUserIDQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []models.Withdrawal

	for rows.Next() {
		w := models.Withdrawal{}
		if err := scanWithdrawal(rows, &w); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return withdrawals, nil
}

// BeginSettlement runs the approval reservation in a single transaction:
// it locks the withdrawal row, guards the pending status, debits the user
// balance for the gross amount and marks the withdrawal processing. The
// committed debit is durable before any external call is made. A racing
// approver blocks on the row lock and then observes ErrAlreadyProcessed
// with no side effect.
func (wr *WithdrawalRepository) BeginSettlement(ctx context.Context, id, adminID uint64) (*models.Withdrawal, error) {
	tx, err := wr.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	w := models.Withdrawal{}
	err = scanWithdrawal(tx.QueryRow(ctx, selectWithdrawalForUpdateQuery, id), &w)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	if w.Status != models.WithdrawalStatusPending {
		return nil, models.ErrAlreadyProcessed
	}

	cmd, err := tx.Exec(ctx, decrementBalanceQuery, w.Amount, w.UserID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, models.ErrInsufficientBalance
	}

	if err := scanWithdrawal(tx.QueryRow(ctx, markProcessingQuery, adminID, id), &w); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &w, nil
}

// CompleteWithdrawal transitions withdrawal from processing to completed,
// storing the external transfer reference and merging attempt metadata
func (wr *WithdrawalRepository) CompleteWithdrawal(ctx context.Context, id uint64, externalRef string, metadata map[string]any) (*models.Withdrawal, error) {
	w := models.Withdrawal{}
	err := scanWithdrawal(wr.db.QueryRow(ctx, completeWithdrawalQuery, externalRef, metadata, id), &w)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &w, nil
}

// FailWithdrawal transitions withdrawal from processing to failed, merging
// the captured error detail into metadata
func (wr *WithdrawalRepository) FailWithdrawal(ctx context.Context, id uint64, metadata map[string]any) (*models.Withdrawal, error) {
	w := models.Withdrawal{}
	err := scanWithdrawal(wr.db.QueryRow(ctx, failWithdrawalQuery, metadata, id), &w)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &w, nil
}

// RejectWithdrawal transitions withdrawal from pending to rejected. The
// balance is not touched, nothing was debited yet.
func (wr *WithdrawalRepository) RejectWithdrawal(ctx context.Context, id, adminID uint64, reason string) (*models.Withdrawal, error) {
	w := models.Withdrawal{}
	err := scanWithdrawal(wr.db.QueryRow(ctx, rejectWithdrawalQuery, adminID, reason, id), &w)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// no pending row matched: either the withdrawal does not exist or it
	// has already left pending
	if _, gerr := wr.GetWithdrawalByID(ctx, id); gerr != nil {
		return nil, gerr
	}

	return nil, models.ErrAlreadyProcessed
}

// MergeMetadata merges fields into withdrawal metadata regardless of status.
// It is used for the saga log: refund flags and appended notes.
func (wr *WithdrawalRepository) MergeMetadata(ctx context.Context, id uint64, fields map[string]any) error {
	cmd, err := wr.db.Exec(ctx, mergeMetadataQuery, fields, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}

	return nil
}
