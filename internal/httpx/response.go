package httpx

import (
	"encoding/json"
	"net/http"
)

// errorBody is the wire shape for every rejected request: a stable snake_case
// code plus optional field details, matching the engine's ValidationError.
type errorBody struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload with the given status. A nil payload becomes JSON null.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if payload == nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("null"))
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"code":"encode_error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError writes the error contract: {"code": ..., "details": {...}}.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, errorBody{Code: code, Details: details})
}
