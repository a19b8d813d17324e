package httpserver

import "time"

// Config is the env-loadable server configuration.
type Config struct {
	Addr            string        `env:"FORMGUARD_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"FORMGUARD_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"FORMGUARD_WRITE_TIMEOUT" envDefault:"0s"`
	IdleTimeout     time.Duration `env:"FORMGUARD_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"FORMGUARD_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Options converts cfg into server options. Zero values are skipped.
func (cfg Config) Options() []Option {
	var opts []Option
	if cfg.Addr != "" {
		opts = append(opts, WithAddr(cfg.Addr))
	}
	if cfg.ReadTimeout > 0 {
		opts = append(opts, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		opts = append(opts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, WithIdleTimeout(cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		opts = append(opts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	return opts
}
