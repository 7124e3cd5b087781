package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/metadata"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	identity IdentityClient
	sessions Sessions
	logger   logging.Logger
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.identity.Register(upstreamContext(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", user.ID, "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.identity.Login(upstreamContext(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.sessions.Issue(user.ID, user.Email, user.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		User: models.SessionUser{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
	})
}

// ListUsers handles GET /auth/users. The Authenticator middleware has
// already accepted the caller's token.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identity.GetAll(upstreamContext(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return false
		}
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
		return false
	}
	return true
}

// upstreamContext forwards the request id to the identity service.
func upstreamContext(r *http.Request) context.Context {
	ctx := r.Context()
	if id := middleware.GetReqID(ctx); id != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, common.RequestIDMetadataKey, id)
	}
	return ctx
}
