package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
)

// Overrides are CLI values that take precedence over the environment.
type Overrides struct {
	EnvFile  string
	HTTPAddr string
	LogLevel string
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing default ".env" is not an error.
func LoadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Run is the serve entrypoint. It returns an error instead of calling os.Exit
// so deferred cleanup still runs.
func Run(o Overrides) error {
	if err := LoadDotEnv(o.EnvFile); err != nil {
		return err
	}

	cfg := LoadConfig()
	if v := strings.TrimSpace(o.HTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	if err := ValidateSecurityConfig(cfg); err != nil {
		return err
	}

	a, err := New(cfg, log, Deps{})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.Run(ctx)
}
