package httpserver

import (
	"log/slog"
	"time"
)

// Option configures a Server.
type Option func(*config)

type config struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	onStart         []func(*slog.Logger)
	onStop          []func(*slog.Logger)
}

// WithAddr sets the listen address. It panics on an empty address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty address")
	}
	return func(c *config) { c.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	return func(c *config) { c.readTimeout = d }
}

// WithWriteTimeout bounds response writes. Keep it at zero when serving
// long-lived SSE streams.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) { c.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown. Non-positive values are ignored.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// OnStart registers a hook that runs right before the server starts serving.
func OnStart(fn func(*slog.Logger)) Option {
	return func(c *config) {
		if fn != nil {
			c.onStart = append(c.onStart, fn)
		}
	}
}

// OnStop registers a hook that runs after shutdown completes.
func OnStop(fn func(*slog.Logger)) Option {
	return func(c *config) {
		if fn != nil {
			c.onStop = append(c.onStop, fn)
		}
	}
}
