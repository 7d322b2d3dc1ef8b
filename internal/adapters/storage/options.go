package storage

import (
	"time"

	"github.com/okian/formmatch/pkg/logger"
)

type options struct {
	log      logger.Logger
	debounce time.Duration
}

func defaultOptions() options {
	return options{
		log:      logger.Nop(),
		debounce: 100 * time.Millisecond,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithLogger sets the logger used for reloads and load-time warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithDebounce sets how long a watched file must stay quiet before it is
// reloaded.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
