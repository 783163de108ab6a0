package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsrecs/app/internal/auth"
	"newsrecs/app/internal/blocks"
	"newsrecs/app/internal/content"
	"newsrecs/app/internal/llm"
	"newsrecs/app/internal/metrics"
	"newsrecs/app/internal/theme"
	"newsrecs/app/internal/widget"
)

const bearerScheme = "bearer"

// Options configures the HTTP server wiring.
type Options struct {
	Store      *content.Store
	Permalinks *content.Permalinks
	// Editor is nil when block editing is unavailable; the editor routes then answer 404.
	Editor  *blocks.Editor
	Widgets *widget.Service
	Theme   *theme.Renderer
	Tokens  *auth.Tokens
	// Suggester is optional; without it source suggestions answer 503.
	Suggester   llm.SourceSuggester
	Metrics     *metrics.Collector
	Database    *gorm.DB
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	store       *content.Store
	permalinks  *content.Permalinks
	editor      *blocks.Editor
	widgets     *widget.Service
	theme       *theme.Renderer
	tokens      *auth.Tokens
	suggester   llm.SourceSuggester
	metrics     *metrics.Collector
	logger      *logrus.Logger
	sentry      *sentry.Hub
	db          *gorm.DB
	rateLimiter *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, eris.New("content store is required")
	}
	if opts.Permalinks == nil {
		return nil, eris.New("permalinks are required")
	}
	if opts.Widgets == nil {
		return nil, eris.New("widget service is required")
	}
	if opts.Tokens == nil {
		return nil, eris.New("editor tokens are required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("News Recommendations", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		bearerScheme: {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	api := humago.New(mux, config)

	srv := &Server{
		api:        api,
		mux:        mux,
		store:      opts.Store,
		permalinks: opts.Permalinks,
		editor:     opts.Editor,
		widgets:    opts.Widgets,
		theme:      opts.Theme,
		tokens:     opts.Tokens,
		suggester:  opts.Suggester,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		sentry:     opts.SentryHub,
		db:         opts.Database,
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.metricsMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerStaticRoute()
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.registerRecommendationRoutes()
	s.registerEditorRoutes()
	s.registerWidgetRoutes()
	s.registerSuggestRoute()
	s.registerPublicRoutes()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
