package notify

import (
	"context"

	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

// LogNotifier writes alerts to the log. It is used when no broker is
// configured.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logger.Get().Named("alerts")}
}

func (n *LogNotifier) Notify(ctx context.Context, a Alert) error {
	n.logger.Warn(ctx, a.Message,
		logger.String("kind", a.Kind),
		logger.String("key", a.Key),
		logger.String("decision", string(a.Decision)),
		logger.Float64("final_score", a.FinalScore),
		logger.Any("rules", a.Rules),
	)
	metrics.RecordAlert("logged")
	return nil
}

func (n *LogNotifier) Close() error { return nil }
