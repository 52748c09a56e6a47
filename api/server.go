// Package api - Thin HTTP layer over the pricing engine.
// The API is ONLY responsible for: input ingestion, calculator orchestration, output serialization.
// The API NEVER performs pricing logic.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"cleanquote/core/calculator"
	"cleanquote/core/pricing"
	"cleanquote/core/services"
	"cleanquote/core/types"
	"cleanquote/db"
	"cleanquote/internal/logging"
)

// maxBodySize limits request bodies
const maxBodySize = 1 << 20

// ConfigStore is the persistence the active-config endpoints need
type ConfigStore interface {
	ActiveConfig(ctx context.Context, serviceID string) (*pricing.Document, error)
	Publish(ctx context.Context, doc *pricing.Document) (*db.Record, error)
	History(ctx context.Context, serviceID string) ([]db.Record, error)
	Healthcheck(ctx context.Context) error
}

// Option configures a Server
type Option func(*Server)

// WithRegistry sets the service registry
func WithRegistry(reg *services.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithQuoteSource sets where POST /quote fetches configs. Defaults to the store.
func WithQuoteSource(source calculator.ConfigSource) Option {
	return func(s *Server) { s.source = source }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithCurrency sets the default quote currency
func WithCurrency(currency types.Currency) Option {
	return func(s *Server) { s.currency = currency }
}

// Server is the API server
type Server struct {
	router   chi.Router
	version  string
	store    ConfigStore
	registry *services.Registry
	source   calculator.ConfigSource
	logger   *zap.Logger
	currency types.Currency
}

// NewServer creates a new API server. A nil store disables the
// active-config endpoints; quotes then price from built-in rates.
func NewServer(version string, store ConfigStore, opts ...Option) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		version:  version,
		store:    store,
		currency: types.CurrencyUSD,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = services.Default()
	}
	if s.logger == nil {
		s.logger = logging.Component("api")
	}
	if s.source == nil && store != nil {
		s.source = store
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/version", s.handleVersion)
	s.router.Get("/services", s.handleListServices)

	s.router.Route("/active-config/{serviceId}", func(r chi.Router) {
		r.Get("/", s.handleGetActiveConfig)
		r.Put("/", s.handlePublishConfig)
		r.Get("/history", s.handleConfigHistory)
		r.Post("/diff", s.handleDiffConfig)
	})

	s.router.Post("/quote", s.handleQuote)
}

// requestLogger logs one line per request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("address", addr), zap.String("version", s.version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return eris.Wrap(err, "api: listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "api: shutdown")
		}
		return nil
	}
}
