package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/formguard/pkg/logger"
)

// Server serves one handler at a time.
type Server struct {
	cfg config

	mu   sync.Mutex
	srv  *http.Server
	once sync.Once
}

func New(opts ...Option) *Server {
	cfg := config{
		addr:            ":8080",
		shutdownTimeout: 5 * time.Second,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{cfg: cfg}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.addr }

// Run listens on the configured address and serves h until shutdown.
func (s *Server) Run(ctx context.Context, h http.Handler) error {
	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}
	return s.Serve(ctx, ln, h)
}

// Serve serves h on ln until ctx is done, a termination signal arrives or
// serving fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	if h == nil {
		h = http.NotFoundHandler()
	}
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrRunning
	}
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       s.cfg.readTimeout,
		ReadHeaderTimeout: s.cfg.readTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelError),
	}
	s.srv = srv
	s.mu.Unlock()

	for _, fn := range s.cfg.onStart {
		fn(s.cfg.logger)
	}
	s.cfg.logger.Info("http server started", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var err error
	select {
	case <-ctx.Done():
		err = s.shutdownAndWait(errCh)
	case sig := <-stop:
		s.cfg.logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
		err = s.shutdownAndWait(errCh)
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	return nil
}

func (s *Server) shutdownAndWait(errCh <-chan error) error {
	if err := s.Shutdown(context.Background()); err != nil {
		s.cfg.logger.Error("shutdown failed", logger.Error(err))
	}
	return <-errCh
}

// Shutdown gracefully stops the server. Repeated calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
		for _, fn := range s.cfg.onStop {
			fn(s.cfg.logger)
		}
		s.cfg.logger.Info("http server stopped")
	})
	if err != nil {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
