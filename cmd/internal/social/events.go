package social

import (
	"context"
	"time"
)

// EventType names a feed event.
type EventType string

const (
	EventPostCreated EventType = "post.created"
	EventPostLiked   EventType = "post.liked"
	EventPostUnliked EventType = "post.unliked"
	EventPostDeleted EventType = "post.deleted"
)

// Event is emitted after a successful post mutation.
type Event struct {
	ID      string
	Type    EventType
	PostID  int64
	ActorID int64
	At      time.Time
}

// Publisher receives events. Publish must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}
