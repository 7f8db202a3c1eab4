package social

import (
	"context"
	"time"
)

// Post is a content record. AuthorID and CreatedAt never change after Create.
type Post struct {
	ID       int64
	AuthorID int64
	Title    string
	Body     string
	LikerIDs []int64

	CreatedAt time.Time
}

// OwnerID reports the author for ownership checks.
func (p Post) OwnerID() int64 { return p.AuthorID }

// NewPost describes a post to create.
type NewPost struct {
	AuthorID int64
	Title    string
	Body     string
	Now      time.Time
}

// PostStore is the post persistence boundary.
type PostStore interface {
	Create(ctx context.Context, in NewPost) (Post, error)
	Get(ctx context.Context, id int64) (Post, error)
	List(ctx context.Context) ([]Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]Post, error)

	// ToggleLike adds userID to the likers if absent and removes it otherwise.
	// liked reports the state after the toggle.
	ToggleLike(ctx context.Context, postID, userID int64) (p Post, liked bool, err error)

	// Delete removes the post and returns it as it was.
	Delete(ctx context.Context, id int64) (Post, error)
}
