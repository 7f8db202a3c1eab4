package realtime

import (
	"time"

	"gqlsocial/cmd/internal/social"
)

// Message is the JSON frame written to feed clients.
type Message struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	PostID  int64     `json:"post_id"`
	ActorID int64     `json:"actor_id"`
	At      time.Time `json:"at"`
}

// MessageFromEvent converts a domain event into its wire form.
func MessageFromEvent(ev social.Event) Message {
	return Message{
		ID:      ev.ID,
		Type:    string(ev.Type),
		PostID:  ev.PostID,
		ActorID: ev.ActorID,
		At:      ev.At.UTC(),
	}
}
