package httpserver

import "time"

// Config is the environment form of the server options.
type Config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// NewFromConfig creates a Server from cfg. Zero values keep the defaults;
// opts are applied after the config.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	fromEnv := func(c *config) {
		if cfg.Addr != "" {
			c.addr = cfg.Addr
		}
		for dst, v := range map[*time.Duration]time.Duration{
			&c.readTimeout:     cfg.ReadTimeout,
			&c.writeTimeout:    cfg.WriteTimeout,
			&c.idleTimeout:     cfg.IdleTimeout,
			&c.shutdownTimeout: cfg.ShutdownTimeout,
		} {
			if v > 0 {
				*dst = v
			}
		}
	}
	return New(append([]Option{fromEnv}, opts...)...)
}
