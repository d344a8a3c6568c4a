// Package zaplog writes notifications to the log. It serves the explicit
// "log" channel and dry runs or test sends without Telegram credentials.
package zaplog

import (
	"context"

	"github.com/bnema/slotwatch/internal/ports"
	"go.uber.org/zap"
)

type Notifier struct {
	logger *zap.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Notifier{logger: logger.Named("notify")}
}

func (n *Notifier) Notify(_ context.Context, details map[string]any) error {
	fields := []zap.Field{zap.Any("details", details)}
	if date, ok := details["earliestDate"].(string); ok {
		fields = append(fields, zap.String("earliest_date", date))
	}

	n.logger.Info("slot detected", fields...)
	return nil
}
