package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/identity/ids"
	"gqlsocial/cmd/internal/auth/guard"
	"gqlsocial/cmd/internal/auth/session"
)

// Subprotocol is the only websocket subprotocol the feed speaks.
const Subprotocol = "gqlsocial.feed.v1"

// Authenticator resolves the identity of a feed request.
type Authenticator interface {
	Authenticate(r *http.Request) (identity.Claims, bool, error)
	AuthenticateToken(ctx context.Context, tok string) (identity.Claims, bool, error)
}

// Gateway is the /feed websocket endpoint.
//
// It enforces origin policy, authentication, subprotocol selection, inbound
// rate limits and heartbeats, and streams Hub events to the session.
type Gateway struct {
	log  *slog.Logger
	hub  *Hub
	auth Authenticator
	cfg  Config

	originPatterns []string
	subscribe      guard.Op[*http.Request, identity.Claims]
}

// NewGateway constructs a feed gateway.
func NewGateway(log *slog.Logger, hub *Hub, auth Authenticator, cfg Config) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub(log)
	}
	cfg = cfg.normalized()

	g := &Gateway{
		log:            log,
		hub:            hub,
		auth:           auth,
		cfg:            cfg,
		originPatterns: originPatterns(cfg.AllowedOrigins),
	}
	g.subscribe = guard.Chain[*http.Request, identity.Claims]{
		guard.Logged[*http.Request, identity.Claims](log, "feed.subscribe"),
		guard.Authenticated[*http.Request, identity.Claims](),
	}.Then(func(ctx context.Context, _ *http.Request) (identity.Claims, error) {
		return guard.Caller(ctx)
	})
	return g
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := g.enforceOrigin(r); err != nil {
		g.log.Info("feed.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ctx, err := g.identify(r)
	if err != nil {
		g.log.Info("feed.reject.token", "remote", r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeUnauthorized(w, session.ErrSessionExpired.Error())
		return
	}

	claims, err := g.subscribe(ctx, r)
	if err != nil {
		writeUnauthorized(w, "sign in required")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Error("feed.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	if sp := conn.Subprotocol(); sp != Subprotocol {
		g.log.Info("feed.reject.subprotocol", "got", sp, "want", Subprotocol)
		_ = conn.Close(websocket.StatusProtocolError, "subprotocol required")
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	g.run(ctx, conn, NewClient(claims.UserID, ids.New(time.Now().UTC()), g.cfg.SendQueueSize))
}

// identify returns r's context carrying the caller's claims when a token is present.
// Claims bound by an outer middleware are reused; browsers may pass access_token
// as a query parameter since they cannot set headers on websocket upgrades.
func (g *Gateway) identify(r *http.Request) (context.Context, error) {
	ctx := r.Context()
	if _, ok := identity.ClaimsFromContext(ctx); ok || g.auth == nil {
		return ctx, nil
	}

	claims, ok, err := g.auth.Authenticate(r)
	if err == nil && !ok {
		claims, ok, err = g.auth.AuthenticateToken(ctx, r.URL.Query().Get("access_token"))
	}
	if err != nil {
		return ctx, err
	}
	if ok {
		ctx = identity.WithClaims(ctx, claims)
	}
	return ctx, nil
}

func (g *Gateway) run(parent context.Context, conn *websocket.Conn, client *Client) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	g.hub.Join(client)

	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.hub.Leave(client.SessionID)
			client.Close()
			_ = conn.Close(code, reason)
			cancel()
		})
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case m := <-client.Send:
				if err := writeMessage(ctx, conn, m, g.cfg.WriteTimeout); err != nil {
					g.log.Info("feed.write.fail", "session_id", client.SessionID, "close_status", websocket.CloseStatus(err), "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(g.cfg.HeartbeatEvery)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(ctx, g.cfg.HeartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					g.log.Info("feed.ping.fail", "session_id", client.SessionID, "failures", failures, "err", err)
					if failures >= maxPingFailures {
						shutdown(websocket.StatusGoingAway, "heartbeat failed")
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

	inbound := g.cfg.inboundLimiter()

	// Clients only listen. Reads keep control frames flowing; liveness is the
	// heartbeat's job, so a silent subscriber stays connected.
	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			if isExpectedClose(err) {
				shutdown(websocket.StatusNormalClosure, "peer closed")
			} else {
				g.log.Info("feed.read.fail", "session_id", client.SessionID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			break
		}

		if !inbound.Allow() {
			g.log.Info("feed.inbound.limited", "session_id", client.SessionID, "user_id", client.UserID)
			shutdown(websocket.StatusPolicyViolation, "too many frames")
			break
		}
	}

	<-writerDone
	select {
	case <-heartbeatDone:
	case <-time.After(closeGrace):
	}
}

func writeMessage(parent context.Context, conn *websocket.Conn, m Message, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

func isExpectedClose(err error) bool {
	if websocket.CloseStatus(err) != -1 {
		return true
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF)
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]any{{
			"message":    msg,
			"extensions": map[string]any{"code": "UNAUTHENTICATED"},
		}},
	})
}

// ---- origin policy ----

func (g *Gateway) enforceOrigin(r *http.Request) error {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		if g.cfg.OriginRequired {
			return errors.New("missing origin")
		}
		return nil
	}

	if len(g.cfg.AllowedOrigins) == 0 {
		return errors.New("origin not allowed (no allowlist)")
	}

	host := originHost(origin)
	for _, a := range g.cfg.AllowedOrigins {
		switch {
		case a == "*":
			return nil
		case origin == a:
			return nil
		case host != "" && host == originHost(a):
			return nil
		}
	}
	return errors.New("origin not allowed: " + origin)
}

func originHost(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		s = u.Host
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return strings.ToLower(h)
	}
	return strings.ToLower(s)
}

// originPatterns mirrors the allowlist into websocket.Accept's host patterns,
// which are matched against host:port.
func originPatterns(allowed []string) []string {
	seen := make(map[string]struct{}, len(allowed)*2)
	for _, a := range allowed {
		if a == "*" {
			return []string{"*"}
		}
		h := originHost(a)
		if h == "" {
			continue
		}
		seen[h] = struct{}{}
		seen[h+":*"] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
