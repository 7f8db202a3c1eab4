// Package app wires the gqlsocial server runtime: config, logging, stores,
// the GraphQL endpoint, the activity feed and operational routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"gqlsocial/cmd/identity"
	authapi "gqlsocial/cmd/internal/auth/api"
	"gqlsocial/cmd/internal/auth/session"
	"gqlsocial/cmd/internal/graph"
	"gqlsocial/cmd/internal/realtime"
	"gqlsocial/cmd/internal/social"
	"gqlsocial/cmd/security/password"
)

// App is the server runtime. It owns the HTTP server and its dependencies.
type App struct {
	cfg Config
	log Logger

	users   identity.Store
	posts   social.PostStore
	auth    *authapi.Authenticator
	social  *social.Service
	schema  *graphql.Schema
	hub     *realtime.Hub
	feed    *realtime.Gateway
	metrics *Metrics

	handler http.Handler
	ready   atomic.Bool
}

// Deps are the domain configs New consumes. Zero fields are loaded from the environment.
type Deps struct {
	Password *password.Config
	Session  *session.Config
	Auth     *authapi.Config
	Feed     *realtime.Config
}

// New constructs a fully wired App.
func New(cfg Config, log Logger, deps Deps) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := deps.load(); err != nil {
		return nil, err
	}

	sessions, err := session.NewService(*deps.Session)
	if err != nil {
		return nil, fmt.Errorf("app: session service: %w", err)
	}

	a := &App{cfg: cfg, log: log}
	a.users = identity.NewInMemoryStore(*deps.Password)
	a.posts = social.NewInMemoryPostStore()
	a.hub = realtime.NewHub(log)
	a.auth = authapi.New(log, *deps.Auth, a.users, sessions)
	a.social = social.NewService(a.users, a.posts, social.Options{Publisher: a.hub, Logger: log})

	a.schema, err = graph.NewSchema(graph.NewResolver(a.social, a.auth, log), cfg.GraphQLMaxDepth)
	if err != nil {
		return nil, err
	}

	a.feed = realtime.NewGateway(log, a.hub, a.auth, *deps.Feed)
	a.metrics = NewMetrics(a.hub)
	a.handler = a.routes()

	if cfg.SeedDemo {
		if err := seedDemo(context.Background(), a.users, a.posts, log); err != nil {
			return nil, err
		}
	}

	log.Info("app.ready",
		"token_format", sessions.Format(),
		"token_ttl", sessions.TTL().String(),
		"password_scheme", deps.Password.Scheme,
	)
	return a, nil
}

func (d *Deps) load() error {
	if d.Password == nil {
		pw, err := password.FromEnv()
		if err != nil {
			return fmt.Errorf("app: password config: %w", err)
		}
		d.Password = &pw
	}
	if d.Session == nil {
		sc, err := session.LoadConfigFromEnv()
		if err != nil {
			return fmt.Errorf("app: session config: %w", err)
		}
		d.Session = &sc
	}
	if d.Auth == nil {
		ac := authapi.LoadConfigFromEnv()
		d.Auth = &ac
	}
	if d.Feed == nil {
		fc := realtime.LoadConfigFromEnv()
		d.Feed = &fc
	}
	return nil
}

// Handler exposes the fully wrapped router.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.HTTPAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	addr := ln.Addr().String()
	base := runtimeBaseURL(addr)
	a.log.Info("server.start", "addr", addr, "graphql", base+"/graphql", "feed", wsBaseURL(base)+"/feed")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.ready.Store(true)

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.ready.Store(false)
		a.log.Error("server.fail", "err", err)
		return err
	}

	a.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}
	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
