// Package main is a CI-friendly smoke test against a running gqlsocial server.
//
// It validates:
//   - signUp and login over /graphql
//   - feed handshake with subprotocol selection
//   - post.created, post.liked and post.deleted fanout for the caller's own mutations
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const subprotocol = "gqlsocial.feed.v1"

type feedEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	PostID  int64  `json:"post_id"`
	ActorID int64  `json:"actor_id"`
}

type gqlResult struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func main() {
	var (
		base    = flag.String("url", "http://127.0.0.1:4000", "server base URL")
		origin  = flag.String("origin", "http://localhost", "Origin header for the feed handshake")
		timeout = flag.Duration("timeout", 7*time.Second, "per-step timeout")
		verbose = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	u, err := url.Parse(*base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fatalf("invalid -url %q", *base)
	}

	ctx := context.Background()
	email := fmt.Sprintf("smoke-%d@test.com", time.Now().UnixNano())

	mustGraphQL(ctx, *base, "", *timeout, fmt.Sprintf(`mutation { signUp(name: "Smoke", email: %q, password: "123456") { id } }`, email))
	res := mustGraphQL(ctx, *base, "", *timeout, fmt.Sprintf(`mutation { login(email: %q, password: "123456") { token } }`, email))

	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(res.Data["login"], &login); err != nil || login.Token == "" {
		fatalf("login returned no token: %s", res.Data["login"])
	}

	conn := mustDialFeed(ctx, *base, *origin, login.Token, *timeout)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	// Give the server a moment to register the session before mutating.
	time.Sleep(100 * time.Millisecond)

	res = mustGraphQL(ctx, *base, login.Token, *timeout, `mutation { addPost(input: {title: "smoke"}) { id } }`)
	var post struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(res.Data["addPost"], &post); err != nil || post.ID == "" {
		fatalf("addPost returned no id: %s", res.Data["addPost"])
	}
	created := mustReadEvent(ctx, conn, "post.created", *timeout)

	mustGraphQL(ctx, *base, login.Token, *timeout, fmt.Sprintf(`mutation { likePost(postId: %q) { id } }`, post.ID))
	mustReadEvent(ctx, conn, "post.liked", *timeout)

	mustGraphQL(ctx, *base, login.Token, *timeout, fmt.Sprintf(`mutation { deletePost(postId: %q) { id } }`, post.ID))
	mustReadEvent(ctx, conn, "post.deleted", *timeout)

	if *verbose {
		fmt.Printf("post=%s actor=%d\n", post.ID, created.ActorID)
	}
	fmt.Println("OK")
}

func mustGraphQL(parent context.Context, base, token string, timeout time.Duration, query string) gqlResult {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"query": query})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/graphql", bytes.NewReader(body))
	if err != nil {
		fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("POST /graphql: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out gqlResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fatalf("decode /graphql response: %v", err)
	}
	if resp.StatusCode != http.StatusOK || len(out.Errors) > 0 {
		fatalf("graphql failed: status=%d errors=%+v", resp.StatusCode, out.Errors)
	}
	return out
}

func mustDialFeed(parent context.Context, base, origin, token string, timeout time.Duration) *websocket.Conn {
	u, _ := url.Parse(base)
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/feed"

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	if origin != "" {
		h.Set("Origin", origin)
	}

	conn, resp, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
		HTTPHeader:   h,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		fatalf("dial feed: status=%d err=%v", status, err)
	}
	if conn.Subprotocol() != subprotocol {
		fatalf("subprotocol mismatch: got %q", conn.Subprotocol())
	}
	return conn
}

func mustReadEvent(parent context.Context, conn *websocket.Conn, typ string, timeout time.Duration) feedEvent {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				fatalf("timed out waiting for %s", typ)
			}
			fatalf("read feed: %v", err)
		}
		var ev feedEvent
		if err := json.Unmarshal(b, &ev); err != nil {
			fatalf("decode event: %v", err)
		}
		// Other clients may be active on a shared server.
		if ev.Type == typ {
			return ev
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "feed-smoke: "+format+"\n", args...)
	os.Exit(1)
}
