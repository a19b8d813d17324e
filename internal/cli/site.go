package cli

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/fsnotify/fsnotify"

	"github.com/dmitrymomot/formguard"
	"github.com/dmitrymomot/formguard/pkg/debounce"
	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/message"
)

const reloadDelay = 100 * time.Millisecond

// site holds the pages of a directory and the engine that validates them.
// Both are swapped as a whole on reload.
type site struct {
	dir     string
	catalog string
	opts    []formguard.Option
	logger  *slog.Logger

	mu     sync.RWMutex
	pages  map[string]string
	engine *formguard.Engine
}

func newSite(dir, catalog string, log *slog.Logger, opts ...formguard.Option) (*site, error) {
	s := &site{dir: dir, catalog: catalog, opts: opts, logger: log}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// route maps a page file to its URL path: index.html is "/", signup.html
// is "/signup".
func route(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if name == "index" {
		return "/"
	}
	return "/" + name
}

func (s *site) reload() error {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.html"))
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}
	pages := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("reading page %s: %w", f, err)
		}
		pages[route(f)] = string(data)
	}

	opts := slices.Clone(s.opts)
	if s.catalog != "" {
		c, err := message.LoadCatalog(s.catalog)
		if err != nil {
			return err
		}
		opts = append(opts, formguard.WithCatalog(c))
	}
	engine := formguard.New(opts...)

	s.mu.Lock()
	s.pages, s.engine = pages, engine
	s.mu.Unlock()
	s.logger.Info("pages loaded", slog.String("dir", s.dir), slog.Int("count", len(pages)))
	return nil
}

// Routes returns the served paths in order.
func (s *site) Routes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	routes := make([]string, 0, len(s.pages))
	for r := range s.pages {
		routes = append(routes, r)
	}
	slices.Sort(routes)
	return routes
}

// Load is a formguard.PageLoader.
func (s *site) Load(r *http.Request) (*formguard.Page, error) {
	path := r.URL.Path
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	s.mu.RLock()
	markup, ok := s.pages[path]
	engine := s.engine
	s.mu.RUnlock()

	if !ok {
		if path == "/" {
			return engine.LoadComponent(r.Context(), s.index())
		}
		return nil, formguard.ErrNoPage
	}
	return engine.LoadString(markup)
}

// index lists the pages when the directory has no index.html.
func (s *site) index() templ.Component {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><title>formguard</title></head><body><ul>")
	for _, r := range s.Routes() {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, html.EscapeString(r), html.EscapeString(r))
	}
	b.WriteString("</ul></body></html>")
	return templ.Raw(b.String())
}

// Ready fails until at least one page is loaded.
func (s *site) Ready(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pages) == 0 {
		return fmt.Errorf("no pages in %s", s.dir)
	}
	return nil
}

// Watch reloads the site when a page or the catalog changes. It blocks
// until ctx is done.
func (s *site) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}
	if s.catalog != "" {
		if err := w.Add(filepath.Dir(s.catalog)); err != nil {
			return fmt.Errorf("watching catalog: %w", err)
		}
	}

	d := debounce.New(reloadDelay)
	defer d.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !s.relevant(ev) {
				continue
			}
			s.logger.Debug("file changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			d.Schedule("reload", func() {
				if err := s.reload(); err != nil {
					s.logger.Error("reload failed, keeping previous pages", logger.Error(err))
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", logger.Error(err))
		}
	}
}

func (s *site) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if s.catalog != "" && filepath.Clean(ev.Name) == filepath.Clean(s.catalog) {
		return true
	}
	return filepath.Ext(ev.Name) == ".html" && filepath.Dir(ev.Name) == filepath.Clean(s.dir)
}
