package bridge

import (
	"time"

	"github.com/dshills/aebridge/internal/logging"
)

// DefaultTimeout is how long a command may stay unanswered.
const DefaultTimeout = 10 * time.Second

// EventHandler receives unsolicited host notifications.
type EventHandler func(operation string, payload []byte)

// Option configures a Client.
type Option func(*config)

type config struct {
	timeout time.Duration
	logger  *logging.Logger
	onEvent EventHandler
}

// WithTimeout sets the per-command timeout. Zero or negative values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithEventHandler registers a callback for host event frames.
func WithEventHandler(fn EventHandler) Option {
	return func(c *config) {
		c.onEvent = fn
	}
}
