package handlers

import (
	"encoding/json"
	"net/http"

	"lostfound/claims"
)

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps the claim engine's error taxonomy onto HTTP
// statuses: bad input 400, authority denials 403, state conflicts 409,
// failed dependencies 502. The authorization check runs first because
// those errors also satisfy the precondition check.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case claims.IsValidation(err):
		writeError(w, err.Error(), http.StatusBadRequest)
	case claims.IsAuthorization(err):
		writeError(w, err.Error(), http.StatusForbidden)
	case claims.IsPrecondition(err):
		writeError(w, err.Error(), http.StatusConflict)
	case claims.IsDependency(err):
		writeError(w, "Operation failed, please retry", http.StatusBadGateway)
	default:
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}
