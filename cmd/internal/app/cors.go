package app

import (
	"net/http"

	"github.com/go-chi/cors"
)

// WithCORS returns the CORS middleware for cfg, or nil when no origins are configured.
// tokenHeader is the custom session header clients may send besides Authorization.
func WithCORS(cfg Config, tokenHeader string) func(http.Handler) http.Handler {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return nil
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader, tokenHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAgeSeconds,
	})
}
