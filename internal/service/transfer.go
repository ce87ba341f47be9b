package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/karibuapp/payout/internal/clock"
	"github.com/karibuapp/payout/internal/logger"
	"github.com/karibuapp/payout/internal/models"
	"go.uber.org/zap"
)

const maxTransferAttempts = 3

const (
	authTimeout    = 10 * time.Second
	contactTimeout = 10 * time.Second

	// transfer submission timeout grows per attempt, the network gets
	// slower under its own retry load
	transferTimeoutBase = 30 * time.Second
	transferTimeoutStep = 30 * time.Second
)

// backoff delay after attempt n (1-based) fails
var transferBackoff = [maxTransferAttempts]time.Duration{
	10 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

// transfer failure kinds
const (
	TransferErrAuthentication    = "authentication_failed"
	TransferErrPayeeRegistration = "payee_registration_failed"
	TransferErrRejected          = "transfer_rejected"
	TransferErrTimeout           = "transfer_timeout"
)

// TransferError is definitive transfer failure with the attempt count and
// last raw error detail for audit
type TransferError struct {
	Kind     string
	Attempts int
	Detail   string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %s", e.Kind, e.Attempts, e.Detail)
}

// TransferRequest is input of a single settlement transfer
type TransferRequest struct {
	WithdrawalID uint64
	Amount       int64
	Phone        string
	PayeeName    string
}

// TransferResult is outcome of a confirmed transfer
type TransferResult struct {
	TransferID  string
	ClientRef   string
	Attempts    int
	CompletedAt time.Time
}

// PaymentGateway is interface of the external mobile money network
type PaymentGateway interface {
	// Authenticate obtains short-lived bearer token
	Authenticate(ctx context.Context) (string, error)
	// RegisterContact registers payee contact, idempotent
	RegisterContact(ctx context.Context, token, phone, name string) error
	// Transfer submits money transfer, returns provider transfer id
	Transfer(ctx context.Context, token, phone string, amount int64, clientRef string) (string, error)
}

// TransferExecutor moves funds through the payment network with retries.
// Execute is slow and blocking, it must not run on an interactive request
// path without the caller knowing.
type TransferExecutor struct {
	gateway PaymentGateway
	clock   clock.Clock
}

// NewTransferExecutor creates new TransferExecutor instance
func NewTransferExecutor(gateway PaymentGateway, clk clock.Clock) *TransferExecutor {
	return &TransferExecutor{
		gateway: gateway,
		clock:   clk,
	}
}

// Execute performs the transfer with up to maxTransferAttempts attempts.
// Success at any attempt stops the loop. A failed attempt that is not the
// last waits the attempt-indexed backoff delay before retrying.
func (te *TransferExecutor) Execute(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	var lastErr *TransferError

	for attempt := 1; attempt <= maxTransferAttempts; attempt++ {
		res, terr := te.attempt(ctx, req, attempt)
		if terr == nil {
			res.Attempts = attempt
			logger.Log.Info("transfer succeeded",
				zap.Uint64("withdrawal", req.WithdrawalID),
				zap.String("transfer_id", res.TransferID),
				zap.Int("attempt", attempt))
			return res, nil
		}

		lastErr = terr
		logger.Log.Warn("transfer attempt failed",
			zap.Uint64("withdrawal", req.WithdrawalID),
			zap.Int("attempt", attempt),
			zap.String("kind", terr.Kind),
			zap.String("detail", terr.Detail))

		if attempt < maxTransferAttempts {
			te.clock.Sleep(transferBackoff[attempt-1])
		}
	}

	lastErr.Attempts = maxTransferAttempts
	return nil, lastErr
}

// attempt runs one authenticate/register/submit round. Any transport error
// or non-definitive provider answer fails the attempt.
func (te *TransferExecutor) attempt(ctx context.Context, req TransferRequest, attempt int) (*TransferResult, *TransferError) {
	actx, cancel := context.WithTimeout(ctx, authTimeout)
	token, err := te.gateway.Authenticate(actx)
	cancel()
	if err != nil {
		return nil, &TransferError{Kind: TransferErrAuthentication, Detail: err.Error()}
	}

	cctx, cancel := context.WithTimeout(ctx, contactTimeout)
	err = te.gateway.RegisterContact(cctx, token, req.Phone, req.PayeeName)
	cancel()
	if err != nil {
		return nil, &TransferError{Kind: TransferErrPayeeRegistration, Detail: err.Error()}
	}

	// unique reference per attempt keeps retries idempotent on the
	// provider side
	clientRef := uuid.NewString()

	tctx, cancel := context.WithTimeout(ctx, transferTimeoutBase+time.Duration(attempt)*transferTimeoutStep)
	transferID, err := te.gateway.Transfer(tctx, token, req.Phone, req.Amount, clientRef)
	cancel()
	if err != nil {
		kind := TransferErrTimeout
		if errors.Is(err, models.ErrTransferDeclined) {
			kind = TransferErrRejected
		}
		return nil, &TransferError{Kind: kind, Detail: err.Error()}
	}

	return &TransferResult{
		TransferID:  transferID,
		ClientRef:   clientRef,
		CompletedAt: te.clock.Now(),
	}, nil
}
