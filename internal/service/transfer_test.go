package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/karibuapp/payout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock records sleeps instead of waiting
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
}

// scriptedGateway fails a configured number of leading attempts
type scriptedGateway struct {
	authErr      error
	registerErr  error
	transferErrs []error // consumed per transfer call, nil means success
	transferID   string

	authCalls     int
	registerCalls int
	transferCalls int
	clientRefs    []string
	deadlines     []time.Duration
}

func (g *scriptedGateway) Authenticate(ctx context.Context) (string, error) {
	g.authCalls++
	if g.authErr != nil {
		return "", g.authErr
	}
	return "tok", nil
}

func (g *scriptedGateway) RegisterContact(ctx context.Context, token, phone, name string) error {
	g.registerCalls++
	return g.registerErr
}

func (g *scriptedGateway) Transfer(ctx context.Context, token, phone string, amount int64, clientRef string) (string, error) {
	g.transferCalls++
	g.clientRefs = append(g.clientRefs, clientRef)
	if dl, ok := ctx.Deadline(); ok {
		g.deadlines = append(g.deadlines, time.Until(dl).Round(time.Second))
	}
	if len(g.transferErrs) > 0 {
		err := g.transferErrs[0]
		g.transferErrs = g.transferErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return g.transferID, nil
}

func transferReq() TransferRequest {
	return TransferRequest{
		WithdrawalID: 7,
		Amount:       6650,
		Phone:        "255744123456",
		PayeeName:    "Asha Juma",
	}
}

func TestTransferExecutor_SuccessFirstAttempt(t *testing.T) {
	gw := &scriptedGateway{transferID: "MM-42"}
	clk := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	executor := NewTransferExecutor(gw, clk)
	res, err := executor.Execute(context.Background(), transferReq())

	require.NoError(t, err)
	assert.Equal(t, "MM-42", res.TransferID)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, clk.now, res.CompletedAt)
	assert.NotEmpty(t, res.ClientRef)
	assert.Empty(t, clk.sleeps, "no backoff after success")
	assert.Equal(t, 1, gw.transferCalls)
}

func TestTransferExecutor_SucceedsOnThirdAttempt(t *testing.T) {
	gw := &scriptedGateway{
		transferErrs: []error{
			errors.New("connection reset"),
			errors.New("context deadline exceeded"),
			nil,
		},
		transferID: "MM-43",
	}
	clk := &fakeClock{now: time.Now()}

	executor := NewTransferExecutor(gw, clk)
	res, err := executor.Execute(context.Background(), transferReq())

	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "MM-43", res.TransferID)
	// backoff after first and second failed attempts only
	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second}, clk.sleeps)
	// each attempt authenticates and registers anew
	assert.Equal(t, 3, gw.authCalls)
	assert.Equal(t, 3, gw.registerCalls)
}

func TestTransferExecutor_ClientRefUniquePerAttempt(t *testing.T) {
	gw := &scriptedGateway{
		transferErrs: []error{errors.New("timeout"), nil},
		transferID:   "MM-44",
	}
	clk := &fakeClock{now: time.Now()}

	executor := NewTransferExecutor(gw, clk)
	_, err := executor.Execute(context.Background(), transferReq())

	require.NoError(t, err)
	require.Len(t, gw.clientRefs, 2)
	assert.NotEqual(t, gw.clientRefs[0], gw.clientRefs[1])
}

func TestTransferExecutor_TimeoutGrowsPerAttempt(t *testing.T) {
	gw := &scriptedGateway{
		transferErrs: []error{errors.New("slow"), errors.New("slow"), errors.New("slow")},
	}
	clk := &fakeClock{now: time.Now()}

	executor := NewTransferExecutor(gw, clk)
	_, err := executor.Execute(context.Background(), transferReq())

	require.Error(t, err)
	require.Len(t, gw.deadlines, 3)
	assert.Less(t, gw.deadlines[0], gw.deadlines[1])
	assert.Less(t, gw.deadlines[1], gw.deadlines[2])
}

func TestTransferExecutor_AllAttemptsExhausted(t *testing.T) {
	gw := &scriptedGateway{
		transferErrs: []error{
			errors.New("no answer"),
			errors.New("no answer"),
			errors.New("no answer"),
		},
	}
	clk := &fakeClock{now: time.Now()}

	executor := NewTransferExecutor(gw, clk)
	res, err := executor.Execute(context.Background(), transferReq())

	assert.Nil(t, res)
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, TransferErrTimeout, terr.Kind)
	assert.Equal(t, 3, terr.Attempts)
	assert.Contains(t, terr.Detail, "no answer")
	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second}, clk.sleeps)
}

func TestTransferExecutor_FailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		gw       *scriptedGateway
		wantKind string
	}{
		{
			name:     "authentication_failed",
			gw:       &scriptedGateway{authErr: errors.New("bad credentials")},
			wantKind: TransferErrAuthentication,
		},
		{
			name:     "payee_registration_failed",
			gw:       &scriptedGateway{registerErr: errors.New("contact blocked")},
			wantKind: TransferErrPayeeRegistration,
		},
		{
			name: "provider_declined",
			gw: &scriptedGateway{
				transferErrs: []error{
					fmt.Errorf("%w: wallet limit", models.ErrTransferDeclined),
					fmt.Errorf("%w: wallet limit", models.ErrTransferDeclined),
					fmt.Errorf("%w: wallet limit", models.ErrTransferDeclined),
				},
			},
			wantKind: TransferErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := &fakeClock{now: time.Now()}
			executor := NewTransferExecutor(tt.gw, clk)

			_, err := executor.Execute(context.Background(), transferReq())

			var terr *TransferError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.wantKind, terr.Kind)
			assert.Equal(t, 3, terr.Attempts)
		})
	}
}
