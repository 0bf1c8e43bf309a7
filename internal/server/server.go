// Package server exposes the date formatter over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/datefmt/pkg/cache"
	"github.com/dmitrymomot/datefmt/pkg/datefmt"
	"github.com/dmitrymomot/datefmt/pkg/locale"
	"github.com/dmitrymomot/datefmt/pkg/logger"
)

const (
	defaultAddress         = ":8080"
	defaultShutdownTimeout = 30 * time.Second
	defaultCheckTimeout    = 5 * time.Second
	defaultOutputTTL       = time.Hour
	defaultRequestTimeout  = 10 * time.Second

	readTimeout       = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 1 << 20
)

// ErrNilFormatter is returned by New without a formatter.
var ErrNilFormatter = errors.New("server: formatter is required")

// Server serves the formatting API.
type Server struct {
	formatter       *datefmt.Formatter
	db              *locale.Database
	output          cache.Cache[string]
	outputTTL       time.Duration
	logger          *slog.Logger
	checks          map[string]CheckFunc
	shutdownHooks   []func(context.Context) error
	corsOrigins     []string
	address         string
	shutdownTimeout time.Duration
	checkTimeout    time.Duration
	requestTimeout  time.Duration
	now             func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAddress sets the listen address. Default: ":8080".
func WithAddress(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.address = addr
		}
	}
}

// WithLocales lists db in /v1/locales and checks it for readiness.
func WithLocales(db *locale.Database) Option {
	return func(s *Server) {
		s.db = db
	}
}

// WithOutputCache caches rendered strings. ttl zero uses one hour.
func WithOutputCache(c cache.Cache[string], ttl time.Duration) Option {
	return func(s *Server) {
		s.output = c
		if ttl > 0 {
			s.outputTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCheck adds a named readiness check.
func WithCheck(name string, check CheckFunc) Option {
	return func(s *Server) {
		if check != nil {
			s.checks[name] = check
		}
	}
}

// WithShutdownHook runs fn after the HTTP server stops, in registration order.
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(s *Server) {
		if fn != nil {
			s.shutdownHooks = append(s.shutdownHooks, fn)
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown. Default: 30s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithCORS allows browser requests from origins. "*" allows any origin.
func WithCORS(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = append(s.corsOrigins, origins...)
	}
}

// WithRequestTimeout bounds each request's context. Default: 10s.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithClock replaces time.Now for requests without a date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Server around f.
func New(f *datefmt.Formatter, opts ...Option) (*Server, error) {
	if f == nil {
		return nil, ErrNilFormatter
	}

	s := &Server{
		formatter:       f,
		outputTTL:       defaultOutputTTL,
		logger:          logger.NewNope(),
		checks:          make(map[string]CheckFunc),
		address:         defaultAddress,
		shutdownTimeout: defaultShutdownTimeout,
		checkTimeout:    defaultCheckTimeout,
		requestTimeout:  defaultRequestTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.db != nil {
		db := s.db
		s.checks["locales"] = func(context.Context) error {
			if len(db.Locales()) == 0 {
				return locale.ErrEmptyDatabase
			}
			return nil
		}
	}

	return s, nil
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, recoverer(s.logger), accessLog(s.logger))
	if len(s.corsOrigins) > 0 {
		r.Use(cors(s.corsOrigins))
	}
	r.Use(timeout(s.requestTimeout))

	r.Get("/healthz", liveness)
	r.Get("/readyz", s.readiness)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/format", s.formatQuery)
		r.Post("/format", s.formatBatch)
		r.Get("/locales", s.locales)
		r.Get("/stats", s.stats)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})

	return r
}

// Run listens on the configured address and serves until ctx is done or
// SIGINT/SIGTERM arrives.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln, then shuts down gracefully and runs the shutdown hooks.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range s.shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			s.logger.Error("shutdown hook failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Info("shutdown completed")
	return nil
}
