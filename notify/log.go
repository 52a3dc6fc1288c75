package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes events to a structured logger. It is the notifier of
// last resort: wiring it into a MultiNotifier guarantees run events land
// somewhere even when every remote sink is down.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to logger, or to
// slog.Default() when logger is nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier. Severity maps onto slog levels; critical
// has no slog equivalent and logs as error.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	n.logger.Log(ctx, levelFor(event.Severity), event.Message,
		"type", event.Type,
		"run_id", event.RunID,
		"graph", event.Graph,
		"node", event.Node,
		"metadata", event.Metadata,
	)
	return nil
}

func levelFor(severity string) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError, SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
