package zizza

import (
	"time"

	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/metrics"
)

type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithTimeout bounds every settlement poll and privacy-coin confirmation
// wait. It overrides the configured settlement timeout.
func WithTimeout(t time.Duration) Option {
	return func(e *Engine) {
		e.timeout = t
	}
}

// WithPollInterval sets the solver status polling interval. It only applies
// to engines built by New.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.pollInterval = d
	}
}
