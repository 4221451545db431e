// Package server exposes analyses, sentiment reports and the journal over HTTP.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/observability"
	"solana-token-sentinel/internal/storage"
)

// Analyzer produces token analyses. (nil, nil) means the mint has no pairs.
type Analyzer interface {
	Analyze(ctx context.Context, mint string) (*domain.TokenAnalysisResult, error)
}

// SentimentReporter produces sentiment reports.
type SentimentReporter interface {
	ReportFor(ctx context.Context, q domain.PostQuery) *domain.SentimentReport
	Score(mint string, posts []domain.SocialPost) *domain.SentimentReport
}

// StatusFunc returns one named section of the /status response.
type StatusFunc func() any

// Config holds listener and middleware settings.
type Config struct {
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		CORSOrigins:    []string{"*"},
		RequestTimeout: 30 * time.Second,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
	}
}

// Server is the HTTP API.
type Server struct {
	cfg        Config
	analyzer   Analyzer
	sentiment  SentimentReporter
	analyses   storage.AnalysisStore  // optional
	sentiments storage.SentimentStore // optional
	logger     zerolog.Logger
	started    time.Time

	mu       sync.RWMutex
	sections map[string]StatusFunc

	router *chi.Mux
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithJournal enables the history endpoint.
func WithJournal(analyses storage.AnalysisStore, sentiments storage.SentimentStore) Option {
	return func(s *Server) {
		s.analyses = analyses
		s.sentiments = sentiments
	}
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates the server and its routes.
func New(cfg Config, analyzer Analyzer, sentiment SentimentReporter, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		analyzer:  analyzer,
		sentiment: sentiment,
		logger:    zerolog.Nop(),
		started:   time.Now(),
		sections:  make(map[string]StatusFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// AddStatus registers a section of the /status response.
func (s *Server) AddStatus(name string, fn StatusFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[name] = fn
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.Handler())
	r.Get("/status", s.handleStatus)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tokens/{mint}", func(r chi.Router) {
			r.Use(validMint)
			r.Get("/analysis", s.handleAnalysis)
			r.Get("/sentiment", s.handleSentiment)
			r.Get("/history", s.handleHistory)
		})
		r.Post("/sentiment/score", s.handleScore)
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
