package batch

import (
	"log/slog"

	"github.com/roach88/icetime/internal/store"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithName sets the pool name used in logs.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithWorkers sets the number of games reconstructed concurrently.
// Values below one are ignored.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithRecorder sets the sink for per-game observations.
func WithRecorder(r Recorder) Option {
	return func(p *Pool) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithFormats sets the output encodings written for each game.
func WithFormats(formats ...store.Format) Option {
	return func(p *Pool) {
		if len(formats) > 0 {
			p.formats = formats
		}
	}
}

// WithKeepUnverified writes timelines that failed reconciliation to the
// unverified directory instead of discarding them.
func WithKeepUnverified(keep bool) Option {
	return func(p *Pool) {
		p.keepUnverified = keep
	}
}
