package notify

import (
	"context"

	"github.com/karibuapp/payout/internal/models"
	"go.uber.org/zap"
)

// Notifier delivers user notifications on terminal withdrawal states.
// Delivery is fire-and-forget: a failure never affects the settlement
// outcome.
type Notifier interface {
	Notify(ctx context.Context, userID uint64, event string, w *models.Withdrawal)
}

// LogNotifier logs the notification. Actual push/in-app delivery is handled
// by an external system consuming the log stream.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates new LogNotifier instance
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID uint64, event string, w *models.Withdrawal) {
	n.logger.Info("user notification",
		zap.Uint64("user", userID),
		zap.String("event", event),
		zap.Uint64("withdrawal", w.ID),
		zap.Int64("amount", w.Amount),
		zap.String("status", w.Status))
}
