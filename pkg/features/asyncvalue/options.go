package asyncvalue

import (
	"log/slog"

	"github.com/vango-dev/xform/pkg/reactive"
)

// Option configures a Value.
type Option func(*config)

type config struct {
	name      string
	keepAlive bool
	owner     *reactive.Owner
	logger    *slog.Logger
}

// WithName sets the value's name, used in logs and spans.
// Default: "AsyncValue_<uuid>"
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// KeepAlive keeps evaluating after the last observer is gone.
func KeepAlive() Option {
	return func(c *config) {
		c.keepAlive = true
	}
}

// WithOwner disposes the value together with owner.
// Default: the owner current when New is called, if any.
func WithOwner(owner *reactive.Owner) Option {
	return func(c *config) {
		c.owner = owner
	}
}

// WithLogger sets the logger for producer failures.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
