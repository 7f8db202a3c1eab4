package app

import "time"

// Config contains the server runtime configuration loaded from GQLSOCIAL_* variables.
// Domain packages (password, session, authapi, realtime) read their own keys.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	GraphQLMaxDepth int

	// SeedDemo registers a few demo accounts on startup.
	SeedDemo bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("GQLSOCIAL_HTTP_ADDR", "0.0.0.0:4000"),
		LogLevel:  EnvString("GQLSOCIAL_LOG_LEVEL", "info"),
		LogFormat: EnvString("GQLSOCIAL_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("GQLSOCIAL_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("GQLSOCIAL_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("GQLSOCIAL_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("GQLSOCIAL_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("GQLSOCIAL_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    EnvInt("GQLSOCIAL_HTTP_MAX_HEADER_BYTES", 1<<20),

		CORSAllowedOrigins:   EnvCSV("GQLSOCIAL_CORS_ALLOWED_ORIGINS"),
		CORSAllowCredentials: EnvBool("GQLSOCIAL_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("GQLSOCIAL_CORS_MAX_AGE", 300),

		GraphQLMaxDepth: EnvInt("GQLSOCIAL_GRAPHQL_MAX_DEPTH", 12),

		SeedDemo: EnvBool("GQLSOCIAL_SEED_DEMO", false),
	}
}
