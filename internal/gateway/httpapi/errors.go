package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/go-chi/chi/v5/middleware"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errorResponse maps a domain error to its HTTP status and body.
func errorResponse(err error) (int, errorBody) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: common.ErrValidation.Error(), Fields: ve.Fields}
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, errorBody{Error: common.ErrValidation.Error()}
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, errorBody{Error: common.ErrDuplicateEmail.Error()}
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusConflict, errorBody{Error: common.ErrDuplicateUsername.Error()}
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Error: common.ErrInvalidCredentials.Error()}
	case errors.Is(err, common.ErrAuthFailure):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}
	case errors.Is(err, common.ErrUpstreamUnavailable):
		return http.StatusBadGateway, errorBody{Error: common.ErrUpstreamUnavailable.Error()}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal server error"}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			"error", err,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
