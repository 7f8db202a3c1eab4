package realtime

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Max bytes per inbound websocket frame.
	maxFrameBytes = 4 << 10

	defaultSendQueueSize = 64
	minSendQueueSize     = 8

	defaultWriteTimeout = 5 * time.Second
	closeGrace          = 1 * time.Second

	heartbeatInterval = 25 * time.Second
	heartbeatTimeout  = 5 * time.Second
	maxPingFailures   = 3

	// Inbound frame budget. Browsers cannot send protocol pings, so a few
	// application keepalives are tolerated; anything beyond is abuse.
	inboundBurst  = 30
	inboundWindow = 10 * time.Second

	defaultAllowedOrigins = "http://localhost,http://127.0.0.1"
)

// Config holds the feed gateway knobs.
type Config struct {
	OriginRequired bool
	AllowedOrigins []string

	WriteTimeout  time.Duration
	SendQueueSize int

	HeartbeatEvery   time.Duration
	HeartbeatTimeout time.Duration

	// RateEvents inbound frames are allowed per RateWindow, refilled evenly.
	RateEvents int
	RateWindow time.Duration
}

// DefaultConfig returns localhost-only defaults with Origin required.
func DefaultConfig() Config {
	return Config{
		OriginRequired:   true,
		AllowedOrigins:   splitCSV(defaultAllowedOrigins),
		WriteTimeout:     defaultWriteTimeout,
		SendQueueSize:    defaultSendQueueSize,
		HeartbeatEvery:   heartbeatInterval,
		HeartbeatTimeout: heartbeatTimeout,
		RateEvents:       inboundBurst,
		RateWindow:       inboundWindow,
	}
}

// LoadConfigFromEnv reads GQLSOCIAL_FEED_* overrides on top of DefaultConfig.
// Invalid values keep the default.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.OriginRequired = envBool("GQLSOCIAL_FEED_ORIGIN_REQUIRED", cfg.OriginRequired)
	if raw := strings.TrimSpace(os.Getenv("GQLSOCIAL_FEED_ALLOWED_ORIGINS")); raw != "" {
		cfg.AllowedOrigins = splitCSV(raw)
	}

	cfg.WriteTimeout = envDuration("GQLSOCIAL_FEED_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.SendQueueSize = envInt("GQLSOCIAL_FEED_SEND_QUEUE", cfg.SendQueueSize)
	cfg.HeartbeatEvery = envDuration("GQLSOCIAL_FEED_HEARTBEAT_INTERVAL", cfg.HeartbeatEvery)
	cfg.HeartbeatTimeout = envDuration("GQLSOCIAL_FEED_HEARTBEAT_TIMEOUT", cfg.HeartbeatTimeout)
	cfg.RateEvents = envInt("GQLSOCIAL_FEED_RATE_EVENTS", cfg.RateEvents)
	cfg.RateWindow = envDuration("GQLSOCIAL_FEED_RATE_WINDOW", cfg.RateWindow)

	return cfg.normalized()
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.SendQueueSize < minSendQueueSize {
		c.SendQueueSize = minSendQueueSize
	}
	if c.HeartbeatEvery <= 0 {
		c.HeartbeatEvery = d.HeartbeatEvery
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.RateEvents <= 0 {
		c.RateEvents = d.RateEvents
	}
	if c.RateWindow <= 0 {
		c.RateWindow = d.RateWindow
	}
	return c
}

// inboundLimiter is the per-connection budget for client frames.
func (c Config) inboundLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(c.RateWindow/time.Duration(c.RateEvents)), c.RateEvents)
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
