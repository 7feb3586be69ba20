package httpserver

import (
	"fmt"
	"log/slog"
	"time"
)

// Option configures the HTTP server. Invalid values panic at option
// construction so misconfiguration fails at startup.
type Option func(*config)

func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty addr")
	}
	return func(c *config) { c.addr = addr }
}

// timeout builds an option that stores a positive duration into the field
// selected by pick.
func timeout(name string, d time.Duration, pick func(*config) *time.Duration) Option {
	if d <= 0 {
		panic(fmt.Sprintf("httpserver: %s must be positive, got %s", name, d))
	}
	return func(c *config) { *pick(c) = d }
}

func WithReadTimeout(d time.Duration) Option {
	return timeout("read timeout", d, func(c *config) *time.Duration { return &c.readTimeout })
}

func WithWriteTimeout(d time.Duration) Option {
	return timeout("write timeout", d, func(c *config) *time.Duration { return &c.writeTimeout })
}

func WithIdleTimeout(d time.Duration) Option {
	return timeout("idle timeout", d, func(c *config) *time.Duration { return &c.idleTimeout })
}

// WithShutdownTimeout bounds how long in-flight requests may drain.
func WithShutdownTimeout(d time.Duration) Option {
	return timeout("shutdown timeout", d, func(c *config) *time.Duration { return &c.shutdownTimeout })
}

// WithLogger sets the lifecycle logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnListen registers a callback receiving the bound address, which is
// how tests learn the port when Addr ends in :0.
func WithOnListen(fn func(addr string)) Option {
	if fn == nil {
		panic("httpserver: nil OnListen callback")
	}
	return func(c *config) { c.onListen = append(c.onListen, fn) }
}
