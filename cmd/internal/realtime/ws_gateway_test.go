package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/internal/social"
)

type stubAuth struct {
	tokens map[string]identity.Claims
}

func (s stubAuth) Authenticate(r *http.Request) (identity.Claims, bool, error) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		return identity.Claims{}, false, nil
	}
	return s.AuthenticateToken(r.Context(), raw)
}

func (s stubAuth) AuthenticateToken(_ context.Context, tok string) (identity.Claims, bool, error) {
	if tok == "" {
		return identity.Claims{}, false, nil
	}
	c, ok := s.tokens[tok]
	if !ok {
		return identity.Claims{}, false, errors.New("bad token")
	}
	return c, true, nil
}

func newTestGateway(t *testing.T, tune ...func(*Config)) (*Hub, *httptest.Server) {
	t.Helper()

	log := discardLogger()
	hub := NewHub(log)
	cfg := DefaultConfig()
	cfg.OriginRequired = false
	for _, f := range tune {
		f(&cfg)
	}

	gw := NewGateway(log, hub, stubAuth{tokens: map[string]identity.Claims{
		"good": {UserID: 1, Email: "fong@test.com", Name: "Fong"},
	}}, cfg)

	mux := http.NewServeMux()
	mux.Handle("/feed", gw)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialFeed(t *testing.T, base, origin, bearer, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	u, err := url.Parse(base)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/feed"
	u.RawQuery = query

	h := http.Header{}
	if origin != "" {
		h.Set("Origin", origin)
	}
	if bearer != "" {
		h.Set("Authorization", "Bearer "+bearer)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
		HTTPHeader:   h,
	})
}

func requireStatus(t *testing.T, resp *http.Response, err error, want int) {
	t.Helper()
	require.Error(t, err)
	require.NotNil(t, resp)
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.Equal(t, want, resp.StatusCode)
}

func TestGateway_RejectsAnonymous(t *testing.T) {
	_, srv := newTestGateway(t)

	_, resp, err := dialFeed(t, srv.URL, "", "", "")
	requireStatus(t, resp, err, http.StatusUnauthorized)
}

func TestGateway_RejectsInvalidToken(t *testing.T) {
	_, srv := newTestGateway(t)

	_, resp, err := dialFeed(t, srv.URL, "", "forged", "")
	requireStatus(t, resp, err, http.StatusUnauthorized)
}

func TestGateway_RejectsForeignOrigin(t *testing.T) {
	_, srv := newTestGateway(t)

	_, resp, err := dialFeed(t, srv.URL, "https://evil.example.com", "good", "")
	requireStatus(t, resp, err, http.StatusForbidden)
}

func TestGateway_StreamsEvents(t *testing.T) {
	for name, dial := range map[string][2]string{
		"bearer header":      {"good", ""},
		"access_token query": {"", "access_token=good"},
	} {
		t.Run(name, func(t *testing.T) {
			hub, srv := newTestGateway(t)

			conn, resp, err := dialFeed(t, srv.URL, "http://localhost", dial[0], dial[1])
			require.NoError(t, err)
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()
			require.Equal(t, Subprotocol, conn.Subprotocol())

			require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

			at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
			hub.Publish(context.Background(), social.Event{ID: "01HX", Type: social.EventPostLiked, PostID: 3, ActorID: 1, At: at})

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, b, err := conn.Read(ctx)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(b, &got))
			require.Equal(t, "01HX", got["id"])
			require.Equal(t, "post.liked", got["type"])
			require.EqualValues(t, 3, got["post_id"])
			require.EqualValues(t, 1, got["actor_id"])
			require.Equal(t, "2024-03-01T09:00:00Z", got["at"])
		})
	}
}

func TestGateway_LeavesHubOnClose(t *testing.T) {
	hub, srv := newTestGateway(t)

	conn, resp, err := dialFeed(t, srv.URL, "", "good", "")
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_SilentSubscriberStaysConnected(t *testing.T) {
	hub, srv := newTestGateway(t, func(c *Config) {
		c.HeartbeatEvery = 50 * time.Millisecond
		c.HeartbeatTimeout = time.Second
	})

	conn, resp, err := dialFeed(t, srv.URL, "", "good", "")
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	// The client never writes; its pending Read answers the server's pings.
	type frame struct {
		b   []byte
		err error
	}
	got := make(chan frame, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, b, err := conn.Read(ctx)
		got <- frame{b: b, err: err}
	}()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, 1, hub.Clients())

	hub.Publish(context.Background(), social.Event{ID: "01HY", Type: social.EventPostCreated, PostID: 9, ActorID: 1, At: time.Now().UTC()})

	select {
	case f := <-got:
		require.NoError(t, f.err)
		require.Contains(t, string(f.b), `"post.created"`)
	case <-time.After(5 * time.Second):
		t.Fatal("no event after a quiet period")
	}
}

func TestGateway_ClosesChattyClient(t *testing.T) {
	hub, srv := newTestGateway(t, func(c *Config) {
		c.RateEvents = 2
		c.RateWindow = time.Minute
	})

	conn, resp, err := dialFeed(t, srv.URL, "", "good", "")
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"keepalive"}`)))
	}

	_, _, err = conn.Read(ctx)
	require.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
