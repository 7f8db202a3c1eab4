package authapi

import (
	"encoding/json"
	"net/http"
)

type gqlErrorExtensions struct {
	Code string `json:"code"`
}

type gqlError struct {
	Message    string             `json:"message"`
	Extensions gqlErrorExtensions `json:"extensions"`
}

// errorResponse mirrors the GraphQL response envelope so clients parse one format.
type errorResponse struct {
	Errors []gqlError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Errors: []gqlError{{Message: msg, Extensions: gqlErrorExtensions{Code: code}}}})
}
