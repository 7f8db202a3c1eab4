package social

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"gqlsocial/cmd/identity"
)

// InMemoryPostStore keeps posts in process memory.
type InMemoryPostStore struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*Post
}

// NewInMemoryPostStore constructs an empty PostStore.
func NewInMemoryPostStore() *InMemoryPostStore {
	return &InMemoryPostStore{posts: make(map[int64]*Post)}
}

// Create stores a new post with a fresh id.
func (s *InMemoryPostStore) Create(ctx context.Context, in NewPost) (Post, error) {
	const op = "social.CreatePost"

	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	if in.AuthorID <= 0 {
		return Post{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "author is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p := &Post{
		ID:        s.nextID,
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Body:      in.Body,
		LikerIDs:  []int64{},
		CreatedAt: now,
	}
	s.posts[p.ID] = p
	return clonePost(*p), nil
}

// Get returns the post with id.
func (s *InMemoryPostStore) Get(ctx context.Context, id int64) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return Post{}, identity.NotFoundError{Op: "social.GetPost", Resource: "post"}
	}
	return clonePost(*p), nil
}

// List returns all posts ordered by id.
func (s *InMemoryPostStore) List(ctx context.Context) ([]Post, error) {
	return s.filter(ctx, func(Post) bool { return true })
}

// ListByAuthor returns authorID's posts ordered by id.
func (s *InMemoryPostStore) ListByAuthor(ctx context.Context, authorID int64) ([]Post, error) {
	return s.filter(ctx, func(p Post) bool { return p.AuthorID == authorID })
}

// ToggleLike flips userID's like on the post.
func (s *InMemoryPostStore) ToggleLike(ctx context.Context, postID, userID int64) (Post, bool, error) {
	const op = "social.ToggleLike"

	if err := ctx.Err(); err != nil {
		return Post{}, false, err
	}
	if userID <= 0 {
		return Post{}, false, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "user is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return Post{}, false, identity.NotFoundError{Op: op, Resource: "post"}
	}

	liked := false
	if i := slices.Index(p.LikerIDs, userID); i >= 0 {
		p.LikerIDs = slices.Delete(p.LikerIDs, i, i+1)
	} else {
		p.LikerIDs = append(p.LikerIDs, userID)
		liked = true
	}
	return clonePost(*p), liked, nil
}

// Delete removes the post with id.
func (s *InMemoryPostStore) Delete(ctx context.Context, id int64) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return Post{}, identity.NotFoundError{Op: "social.DeletePost", Resource: "post"}
	}
	delete(s.posts, id)
	return clonePost(*p), nil
}

func (s *InMemoryPostStore) filter(ctx context.Context, keep func(Post) bool) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(*p) {
			out = append(out, clonePost(*p))
		}
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b Post) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func clonePost(p Post) Post {
	p.LikerIDs = slices.Clone(p.LikerIDs)
	if p.LikerIDs == nil {
		p.LikerIDs = []int64{}
	}
	return p
}
