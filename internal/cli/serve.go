package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formguard"
	"github.com/dmitrymomot/formguard/pkg/clientip"
	"github.com/dmitrymomot/formguard/pkg/config"
	"github.com/dmitrymomot/formguard/pkg/httpserver"
	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/metrics"
	"github.com/dmitrymomot/formguard/pkg/requestid"
)

type serveConfig struct {
	Pages     string `env:"FORMGUARD_PAGES" envDefault:"./pages"`
	Catalog   string `env:"FORMGUARD_CATALOG"`
	Style     string `env:"FORMGUARD_STYLE"`
	Env       string `env:"FORMGUARD_ENV" envDefault:"development"`
	LogLevel  string `env:"FORMGUARD_LOG_LEVEL"`
	LogFormat string `env:"FORMGUARD_LOG_FORMAT"`
	Watch     bool   `env:"FORMGUARD_WATCH" envDefault:"true"`

	HTTP    httpserver.Config
	Metrics metrics.Config
}

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory of HTML pages with server-side validation",
		Long: `Serves every *.html file of the pages directory. GET renders a page, POST
validates the submission and answers with a datastar patch, an htmx fragment,
the page with status 422, or a 303 redirect to ?ok=1.

Configuration comes from FORMGUARD_* environment variables (and .env); flags
override them. --log-level and --log-format fall back to FORMGUARD_LOG_LEVEL
and FORMGUARD_LOG_FORMAT, then to their defaults.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (FORMGUARD_ADDR)")
	cmd.Flags().String("pages", "", "Pages directory (FORMGUARD_PAGES)")
	cmd.Flags().String("catalog", "", "YAML message catalog (FORMGUARD_CATALOG)")
	cmd.Flags().String("style", "", "Error style for roots without data-fg-style (FORMGUARD_STYLE)")
	cmd.Flags().Bool("watch", true, "Reload pages and catalog on change (FORMGUARD_WATCH)")

	return cmd
}

func loadServeConfig(cmd *cobra.Command) (serveConfig, error) {
	var cfg serveConfig
	if err := config.Reload(&cfg); err != nil {
		return cfg, exitError(exitFailure, "loading configuration: %v", err)
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.HTTP.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("pages") {
		cfg.Pages, _ = flags.GetString("pages")
	}
	if flags.Changed("catalog") {
		cfg.Catalog, _ = flags.GetString("catalog")
	}
	if flags.Changed("style") {
		cfg.Style, _ = flags.GetString("style")
	}
	if flags.Changed("watch") {
		cfg.Watch, _ = flags.GetBool("watch")
	}
	// Log settings: an explicit flag, then the environment, then the flag
	// default.
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	log, err := buildLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat,
		logger.WithEnvironment(cfg.Env, "formguard"),
		logger.WithContextExtractors(requestid.Extractor(), clientip.Extractor()),
	)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(cfg.Metrics, nil)
	opts := []formguard.Option{formguard.WithLogger(log), formguard.WithMetrics(collector)}
	if cfg.Style != "" {
		opts = append(opts, formguard.WithStyle(cfg.Style))
	}
	s, err := newSite(cfg.Pages, cfg.Catalog, log, opts...)
	if err != nil {
		return exitError(exitFailure, "loading site: %v", err)
	}

	ctx, stop := signal.NotifyContext(serveContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Watch {
		go func() {
			if err := s.Watch(ctx); err != nil {
				log.Error("watcher stopped", logger.Error(err))
			}
		}()
	}

	srv := httpserver.New(append(cfg.HTTP.Options(), httpserver.WithLogger(log))...)
	return srv.Run(ctx, newRouter(s, collector, log))
}

func newRouter(s *site, collector *metrics.Collector, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware())
	r.Use(clientip.Middleware())
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.Health(log))
	r.Get("/readyz", httpserver.Health(log, s.Ready))
	r.Method(http.MethodGet, "/metrics", collector.Handler())
	r.Handle("/*", formguard.Handler(s.Load, formguard.WithHandlerLogger(log)))
	return r
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				logger.Duration(time.Since(start)),
			)
		})
	}
}

// serveContext is the context the serve command runs with when cobra has
// none.
func serveContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
