package realtime

import "sync"

// Client is one connected feed session.
//
// Send is never closed by the server, so concurrent publishers cannot panic on it.
// done signals the session goroutines to stop; Close is idempotent.
type Client struct {
	SessionID string
	UserID    int64
	Send      chan Message

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(userID int64, sessionID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		Send:      make(chan Message, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// Done is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Close signals shutdown. It does not close Send.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// offer enqueues m without blocking. It reports false when the client is
// closing or its queue is full.
func (c *Client) offer(m Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.Send <- m:
		return true
	default:
		return false
	}
}
