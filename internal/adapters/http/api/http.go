// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/internal/domain/types"
	"github.com/flencrypto/cfs-platform/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	ListContests(ctx context.Context, filter model.ContestFilter) (types.Page[model.Contest], repository.Source, error)
	GetContest(ctx context.Context, id string) (model.Contest, repository.Source, error)
	CreateDraft(ctx context.Context, draft model.ContestDraft, actor model.Actor) (model.Contest, error)
	UpdateContest(ctx context.Context, id string, patch model.ContestPatch, actor model.Actor) (model.Contest, error)
	TransitionContest(ctx context.Context, id string, target model.ContestStatus, actor model.Actor) (model.Contest, error)
	DeleteContest(ctx context.Context, id string, actor model.Actor) error

	ListSports(ctx context.Context, activeOnly bool) ([]model.Sport, repository.Source, error)

	GetProfile(ctx context.Context, actor model.Actor) (model.User, repository.Source, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate, actor model.Actor) (model.User, error)

	Status(ctx context.Context) map[string]string
}

// TokenVerifier resolves an Authorization header to an actor.
// *auth.Verifier implements it.
type TokenVerifier interface {
	VerifyHeader(header string) (model.Actor, error)
}

// Mounter attaches extra routes, such as the API docs, to the router.
type Mounter func(r chi.Router)

// HeaderDataSource marks responses served from the fallback dataset.
const HeaderDataSource = "X-Data-Source"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server wires HTTP routes for the contest API.
type Server struct {
	deps     Dependencies
	verifier TokenVerifier
	logger   logger.Logger
	limiter  *RateLimiter
	timeout  time.Duration
	origins  []string
	mounts   []Mounter
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithVerifier enables bearer token authentication.
func WithVerifier(v TokenVerifier) Option {
	return func(s *Server) {
		if v != nil {
			s.verifier = v
		}
	}
}

// WithLogger sets a custom logger for request logging.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRateLimiter sets the limiter applied to write routes.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		if rl != nil {
			s.limiter = rl
		}
	}
}

// WithRequestTimeout caps handler execution time.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCORSOrigins sets the allowed cross-origin callers.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithMount registers extra routes on the root router.
func WithMount(m Mounter) Option {
	return func(s *Server) {
		if m != nil {
			s.mounts = append(s.mounts, m)
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		logger:  logger.Nop(),
		limiter: NewRateLimiter(DefaultRateLimit, DefaultRateBurst),
		timeout: 10 * time.Second,
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{HeaderDataSource},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(MetricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, types.Envelope{Success: false, Error: msgNotFound})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/metrics", handleMetrics)
	r.Get("/status", s.handleStatus)
	for _, m := range s.mounts {
		m(r)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/contests", s.handleListContests)
		r.Get("/contests/{id}", s.handleGetContest)
		r.Get("/sports", s.handleListSports)
		r.Get("/me", s.handleGetProfile)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Handler)
			r.Post("/contests", s.handleCreateContest)
			r.Patch("/contests/{id}", s.handleUpdateContest)
			r.Delete("/contests/{id}", s.handleDeleteContest)
			r.Post("/contests/{id}/transitions", s.handleTransitionContest)
			r.Patch("/me", s.handleUpdateProfile)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// markSource tags fallback reads so clients can tell mock data apart.
func markSource(w http.ResponseWriter, src repository.Source) {
	if src == repository.SourceFallback {
		w.Header().Set(HeaderDataSource, string(repository.SourceFallback))
	}
}

// decodeObject reads a JSON object body. Anything else is a ValidationError
// on the body field.
func decodeObject(op string, w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		rule := "json"
		if errors.Is(err, io.EOF) {
			rule = "required"
		}
		return nil, &apperr.Error{
			Op:      op,
			Kind:    apperr.ValidationError,
			Err:     fmt.Errorf("%w: %w", ErrBadRequest, err),
			Details: []apperr.FieldIssue{{Field: "body", Rule: rule, Message: ErrBodyShape.Error()}},
		}
	}
	if raw == nil {
		return nil, &apperr.Error{
			Op:      op,
			Kind:    apperr.ValidationError,
			Err:     ErrBodyShape,
			Details: []apperr.FieldIssue{{Field: "body", Rule: "json", Message: ErrBodyShape.Error()}},
		}
	}
	return raw, nil
}
