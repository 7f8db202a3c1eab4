package app

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"gqlsocial/cmd/internal/graph"
)

func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(WithRequestID)
	r.Use(WithRequestLogging(a.log))
	r.Use(chimw.Recoverer)
	r.Use(a.metrics.Middleware)
	r.Use(WithSecurityHeaders)
	if c := WithCORS(a.cfg, a.auth.TokenHeader()); c != nil {
		r.Use(c)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !a.ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.auth.Middleware)

		gh := graph.NewHandler(a.schema)
		r.Method(http.MethodGet, "/graphql", gh)
		r.Method(http.MethodPost, "/graphql", gh)
		r.Method(http.MethodGet, "/feed", a.feed)
	})

	return r
}

// runtimeBaseURL turns a listen address into a URL a local client can reach.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func wsBaseURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}
