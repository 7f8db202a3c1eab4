package graph

import (
	"encoding/json"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

// DefaultMaxBodyBytes caps POST request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Handler serves GraphQL over HTTP. POST bodies go through relay.Handler;
// GET accepts query, operationName and variables as URL parameters and only runs queries.
type Handler struct {
	schema       *graphql.Schema
	post         *relay.Handler
	maxBodyBytes int64
}

// NewHandler builds the /graphql handler for s.
func NewHandler(s *graphql.Schema) *Handler {
	return &Handler{schema: s, post: &relay.Handler{Schema: s}, maxBodyBytes: DefaultMaxBodyBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		h.post.ServeHTTP(w, r)
	case http.MethodGet:
		h.serveGet(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		writeErrors(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	if typ, ok := operationType(query, q.Get("operationName")); ok && typ == "mutation" {
		writeErrors(w, http.StatusMethodNotAllowed, "mutations require POST")
		return
	}

	var vars map[string]interface{}
	if raw := q.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &vars); err != nil {
			writeErrors(w, http.StatusBadRequest, "variables must be a JSON object")
			return
		}
	}

	resp := h.schema.Exec(r.Context(), query, q.Get("operationName"), vars)
	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func writeErrors(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]any{{
			"message":    msg,
			"extensions": map[string]any{"code": CodeBadUserInput},
		}},
	})
}
