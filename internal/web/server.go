// Package web provides the HTTP server and handlers for browsing datasets
// as interactive tables.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/format"
	"github.com/JonMunkholm/gridview/internal/session"
	"github.com/JonMunkholm/gridview/internal/source"
	mw "github.com/JonMunkholm/gridview/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for mounted tables.
type Server struct {
	cfg      *config.Config
	source   source.Source
	sessions *session.Store
	format   *format.Formatter
	location *time.Location
	now      func() time.Time

	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(src source.Source, sessions *session.Store, f *format.Formatter, cfg *config.Config) *Server {
	s := &Server{
		cfg:      cfg,
		source:   src,
		sessions: sessions,
		format:   f,
		location: cfg.Format.Location(),
		now:      time.Now,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if compress, err := compression(s.cfg.Server); err != nil {
		slog.Warn("response compression disabled", "error", err)
	} else {
		s.router.Use(compress)
	}
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/datasets/{key}/mount", s.handleMount)

	// Table instance interactions
	s.router.Route("/t/{id}", func(r chi.Router) {
		r.Get("/", s.handleTable)
		r.Delete("/", s.handleUnmount)
		r.Post("/sort/{col}", s.handleSort)
		r.Post("/filter/{col}", s.handleFilter)
		r.Post("/rows/{index}", s.handleRowClick)

		exportHandler := http.Handler(http.HandlerFunc(s.handleExport))
		if s.cfg.Rate.Enabled && s.cfg.Rate.ExportLimit > 0 {
			exportHandler = newRateLimiter(s.cfg.Rate.ExportLimit, time.Minute).middleware(exportHandler)
		}
		r.Method(http.MethodGet, "/export", exportHandler)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))
		r.Get("/datasets", s.handleListDatasets)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// contentSecurityPolicy allows htmx from its CDN and inline styles.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' https://unpkg.com",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data:",
	"font-src 'self'",
}, "; ")

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
