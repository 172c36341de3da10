// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/skillswap/internal/auth"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// BasePath prefixes the business routes.
const BasePath = "/api/v1"

// Recommender is the engine surface the handlers call.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, limit int) ([]model.CandidateMatch, error)
	Trending(ctx context.Context, limit int) ([]model.TrendingSkill, error)
}

// UserLookup resolves the account behind a verified token.
type UserLookup interface {
	LookupUser(ctx context.Context, userID int64) (model.User, error)
}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	recommender Recommender
	users       UserLookup
	tokens      TokenVerifier
	stats       StatsProvider
	logger      logger.Logger
	validate    *validator.Validate

	corsOrigins     []string
	rateLimit       int
	rateLimitWindow time.Duration

	defaultRecommendations int
	maxRecommendations     int
	defaultTrending        int
	maxTrending            int

	now func() time.Time
}

// NewServer creates a new API server with all handlers.
func NewServer(rec Recommender, users UserLookup, tokens TokenVerifier, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		recommender:            rec,
		users:                  users,
		tokens:                 tokens,
		stats:                  stats,
		logger:                 logger.Nop(),
		validate:               validator.New(),
		rateLimit:              100,
		rateLimitWindow:        15 * time.Minute,
		defaultRecommendations: 5,
		maxRecommendations:     50,
		defaultTrending:        10,
		maxTrending:            100,
		now:                    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Routes builds the chi router serving every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", MetricsMiddleware(s.HandleHealth, "health"))
	r.Get("/stats", MetricsMiddleware(s.HandleStats, "stats"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route(BasePath, func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, s.rateLimitWindow))
		}
		// Static segments win over parameters in chi, so trending is never
		// captured as a user id.
		r.Get("/recommendations/trending", MetricsMiddleware(s.HandleTrending, "trending"))
		r.With(s.Authenticate).
			Get("/recommendations/{userId}", MetricsMiddleware(s.HandleRecommendations, "recommendations"))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", errEndpointNotFound)
	})

	return r
}

// Register attaches the router to mux at the root.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("/", s.Routes())
}
