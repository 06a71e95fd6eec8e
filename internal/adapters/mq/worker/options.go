package worker

import (
	"time"

	"github.com/okian/netrisk/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithName sets the writer name for identification and logging.
func WithName(name string) Option {
	return func(w *Writer) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithAppendTimeout bounds each store append.
func WithAppendTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.appendTimeout = d
		}
	}
}
