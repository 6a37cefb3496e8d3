// Package server exposes base forms, field proposals and operator sessions
// over HTTP using a chi router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/components/categories"
	"github.com/goliatone/go-formprompt/internal/config"
	"github.com/goliatone/go-formprompt/pkg/catalog"
	"github.com/goliatone/go-formprompt/pkg/proposal"
	"github.com/goliatone/go-formprompt/pkg/session"
	"github.com/goliatone/go-formprompt/pkg/store"
)

// Option customises a Server.
type Option func(*Server)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets where submitted forms are persisted. Defaults to memory.
func WithStore(kv store.KV) Option {
	return func(s *Server) {
		if kv != nil {
			s.kv = kv
		}
	}
}

// WithCategories fixes the list served by /api/categories. When unset the
// fetcher is used if it can list categories, otherwise the embedded catalog.
func WithCategories(list []catalog.Category) Option {
	return func(s *Server) {
		if list != nil {
			s.categorySource = categories.List(list)
		}
	}
}

// WithCategoryOptions forwards options to the categories component.
func WithCategoryOptions(fns ...categories.OptionFn) Option {
	return func(s *Server) {
		s.categoryOpts = append(s.categoryOpts, fns...)
	}
}

type Server struct {
	fetcher        catalog.Fetcher
	proposer       proposal.Proposer
	sessions       *session.Manager
	kv             store.KV
	logger         *zap.Logger
	metrics        *Metrics
	categorySource categories.Source
	categoryOpts   []categories.OptionFn
	doc            *openapi3.T
	openapi        []byte
	router         chi.Router
}

// New builds a server. proposer serves the stateless prompt endpoint;
// sessions carries its own proposer.
func New(fetcher catalog.Fetcher, proposer proposal.Proposer, sessions *session.Manager, options ...Option) (*Server, error) {
	if fetcher == nil {
		return nil, errors.New("server: fetcher is required")
	}
	if proposer == nil {
		return nil, errors.New("server: proposer is required")
	}
	if sessions == nil {
		return nil, errors.New("server: session manager is required")
	}

	s := &Server{
		fetcher:  fetcher,
		proposer: proposer,
		sessions: sessions,
		kv:       store.NewMemory(),
		logger:   zap.NewNop(),
		metrics:  newMetrics(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.categorySource == nil {
		if src, ok := fetcher.(categories.Source); ok {
			s.categorySource = src
		}
	}

	doc, data, err := loadOpenAPI(context.Background())
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.openapi = data

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)
	r.Get("/openapi.json", s.openAPI)
	r.Handle("/metrics", s.metrics.handler())

	catOpts := append([]categories.OptionFn{}, s.categoryOpts...)
	if s.categorySource != nil {
		catOpts = append(catOpts, categories.WithSource(s.categorySource))
	}
	picker, err := categories.New(catOpts...)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/categories", picker.Routes())
		r.Get("/forms/{code}", s.getBaseForm)
		r.Post("/forms/prompt", s.proposeFields)
		r.Get("/form", s.getSavedForm)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Delete("/", s.deleteSession)
				r.Put("/category", s.selectCategory)
				r.Post("/prompt", s.submitPrompt)
				r.Post("/reset", s.resetSession)
				r.Delete("/fields/{fieldID}", s.removeField)
				r.Post("/submit", s.submitForm)
				r.Get("/export", s.exportForm)
			})
		})
	})

	s.router = r
	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// OpenAPI returns the validated API description.
func (s *Server) OpenAPI() *openapi3.T {
	return s.doc
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	<-errCh
	return nil
}
