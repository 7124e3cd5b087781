// Package httpapi is the gateway's public HTTP surface: registration, login
// and the authenticated user directory, each backed by one identity RPC.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/gateway/session"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/dmitrijs2005/gatekeeper/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// IdentityClient is the typed identity bridge used by the handlers.
type IdentityClient interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.PublicUser, error)
	GetAll(ctx context.Context) ([]models.PublicUser, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.PublicUser, error)
}

// Sessions issues tokens on login and verifies them on protected routes.
type Sessions interface {
	Issue(subject, email, username string) (string, error)
	Verify(token string) (*session.Claims, error)
}

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Identity IdentityClient
	Sessions Sessions
	Logger   logging.Logger

	// Metrics and MetricsHandler are optional.
	Metrics        *observability.HTTPMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the gateway routes.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger.With("module", "http_api")
	h := &Handler{identity: d.Identity, sessions: d.Sessions, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(observe(logger, d.Metrics))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	r.Get("/healthz", h.Health)
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(Authenticator(d.Sessions, logger)).Get("/users", h.ListUsers)
	})

	return r
}
