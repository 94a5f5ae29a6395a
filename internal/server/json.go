package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is returned for all error responses. Redirect is set when
// the SPA should navigate away.
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeRedirect(w http.ResponseWriter, status int, msg, to string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Redirect: to})
}
