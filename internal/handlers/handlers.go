package handlers

import (
	"errors"
	"net/http"

	"github.com/conductorhq/conductor/internal/httpx"
	"github.com/conductorhq/conductor/internal/services"
)

// writeServiceError maps engine errors onto the wire: unknown ids are 404,
// rejected requests are 400 with the validation code, everything else is an
// opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusBadRequest, verr.Code, verr.Details)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// requireID pulls the id query parameter shared by most endpoints.
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return "", false
	}
	return id, true
}
