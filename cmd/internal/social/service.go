package social

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/identity/ids"
	"gqlsocial/cmd/internal/auth/guard"
)

// Options configures a Service. Zero values pick safe defaults.
type Options struct {
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service exposes the social operations with their access checks applied.
type Service struct {
	users identity.Store
	posts PostStore
	pub   Publisher
	log   *slog.Logger
	now   func() time.Time

	me           guard.Op[struct{}, identity.User]
	updateMyInfo guard.Op[identity.ProfileUpdate, identity.User]
	addFriend    guard.Op[int64, identity.User]
	addPost      guard.Op[AddPostInput, Post]
	likePost     guard.Op[int64, Post]
	deletePost   guard.Op[int64, Post]
}

// NewService wires the stores into guarded operations.
func NewService(users identity.Store, posts PostStore, opts Options) *Service {
	s := &Service{
		users: users,
		posts: posts,
		pub:   opts.Publisher,
		log:   opts.Logger,
		now:   opts.Now,
	}
	if s.pub == nil {
		s.pub = nopPublisher{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	s.me = guard.Chain[struct{}, identity.User]{
		guard.Authenticated[struct{}, identity.User](),
	}.Then(s.doMe)

	s.updateMyInfo = guard.Chain[identity.ProfileUpdate, identity.User]{
		guard.Logged[identity.ProfileUpdate, identity.User](s.log, "updateMyInfo"),
		guard.Authenticated[identity.ProfileUpdate, identity.User](),
	}.Then(s.doUpdateMyInfo)

	s.addFriend = guard.Chain[int64, identity.User]{
		guard.Logged[int64, identity.User](s.log, "addFriend"),
		guard.Authenticated[int64, identity.User](),
	}.Then(s.doAddFriend)

	s.addPost = guard.Chain[AddPostInput, Post]{
		guard.Logged[AddPostInput, Post](s.log, "addPost"),
		guard.Authenticated[AddPostInput, Post](),
	}.Then(s.doAddPost)

	s.likePost = guard.Chain[int64, Post]{
		guard.Logged[int64, Post](s.log, "likePost"),
		guard.Authenticated[int64, Post](),
	}.Then(s.doLikePost)

	s.deletePost = guard.Chain[int64, Post]{
		guard.Logged[int64, Post](s.log, "deletePost"),
		guard.Authenticated[int64, Post](),
		guard.Owner[int64, Post](s.lookupPost),
	}.Then(s.doDeletePost)

	return s
}

// Me returns the caller's record.
func (s *Service) Me(ctx context.Context) (identity.User, error) {
	return s.me(ctx, struct{}{})
}

// Users lists every user.
func (s *Service) Users(ctx context.Context) ([]identity.User, error) {
	return s.users.List(ctx)
}

// User finds a user by exact name.
func (s *Service) User(ctx context.Context, name string) (identity.User, error) {
	return s.users.GetByName(ctx, name)
}

// UserByID returns the user with id.
func (s *Service) UserByID(ctx context.Context, id int64) (identity.User, error) {
	return s.users.GetByID(ctx, id)
}

// Posts lists every post.
func (s *Service) Posts(ctx context.Context) ([]Post, error) {
	return s.posts.List(ctx)
}

// Post returns the post with id.
func (s *Service) Post(ctx context.Context, id int64) (Post, error) {
	return s.posts.Get(ctx, id)
}

// PostsBy lists posts written by authorID.
func (s *Service) PostsBy(ctx context.Context, authorID int64) ([]Post, error) {
	return s.posts.ListByAuthor(ctx, authorID)
}

// FriendsOf resolves u's friend ids in order. Ids that no longer resolve are skipped.
func (s *Service) FriendsOf(ctx context.Context, u identity.User) ([]identity.User, error) {
	return s.resolveUsers(ctx, u.FriendIDs)
}

// Likers resolves p's liker ids in order.
func (s *Service) Likers(ctx context.Context, p Post) ([]identity.User, error) {
	return s.resolveUsers(ctx, p.LikerIDs)
}

// Author returns p's author.
func (s *Service) Author(ctx context.Context, p Post) (identity.User, error) {
	return s.users.GetByID(ctx, p.AuthorID)
}

// UpdateMyInfo edits the caller's profile.
func (s *Service) UpdateMyInfo(ctx context.Context, in identity.ProfileUpdate) (identity.User, error) {
	return s.updateMyInfo(ctx, in)
}

// AddFriend befriends friendID, on both sides.
func (s *Service) AddFriend(ctx context.Context, friendID int64) (identity.User, error) {
	return s.addFriend(ctx, friendID)
}

// AddPost creates a post authored by the caller.
func (s *Service) AddPost(ctx context.Context, in AddPostInput) (Post, error) {
	return s.addPost(ctx, in)
}

// LikePost toggles the caller's like on postID.
func (s *Service) LikePost(ctx context.Context, postID int64) (Post, error) {
	return s.likePost(ctx, postID)
}

// DeletePost removes postID. Only its author may do so.
func (s *Service) DeletePost(ctx context.Context, postID int64) (Post, error) {
	return s.deletePost(ctx, postID)
}

func (s *Service) doMe(ctx context.Context, _ struct{}) (identity.User, error) {
	c, err := guard.Caller(ctx)
	if err != nil {
		return identity.User{}, err
	}
	return s.users.GetByID(ctx, c.UserID)
}

func (s *Service) doUpdateMyInfo(ctx context.Context, in identity.ProfileUpdate) (identity.User, error) {
	c, err := guard.Caller(ctx)
	if err != nil {
		return identity.User{}, err
	}
	return s.users.UpdateProfile(ctx, c.UserID, in)
}

func (s *Service) doAddFriend(ctx context.Context, friendID int64) (identity.User, error) {
	c, err := guard.Caller(ctx)
	if err != nil {
		return identity.User{}, err
	}
	u, err := s.users.AddFriend(ctx, c.UserID, friendID)
	if err != nil {
		return identity.User{}, err
	}
	s.log.InfoContext(ctx, "social.friend.added", "user_id", c.UserID, "friend_id", friendID)
	return u, nil
}

func (s *Service) doAddPost(ctx context.Context, in AddPostInput) (Post, error) {
	c, err := guard.Caller(ctx)
	if err != nil {
		return Post{}, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := presence("social.AddPost", in); err != nil {
		return Post{}, err
	}

	p, err := s.posts.Create(ctx, NewPost{AuthorID: c.UserID, Title: in.Title, Body: in.Body, Now: s.now()})
	if err != nil {
		return Post{}, err
	}
	s.publish(ctx, EventPostCreated, p.ID, c.UserID)
	return p, nil
}

func (s *Service) doLikePost(ctx context.Context, postID int64) (Post, error) {
	c, err := guard.Caller(ctx)
	if err != nil {
		return Post{}, err
	}

	p, liked, err := s.posts.ToggleLike(ctx, postID, c.UserID)
	if err != nil {
		return Post{}, err
	}
	if liked {
		s.publish(ctx, EventPostLiked, p.ID, c.UserID)
	} else {
		s.publish(ctx, EventPostUnliked, p.ID, c.UserID)
	}
	return p, nil
}

func (s *Service) doDeletePost(ctx context.Context, postID int64) (Post, error) {
	c, err := guard.Caller(ctx)
	if err != nil {
		return Post{}, err
	}

	p, err := s.posts.Delete(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	s.publish(ctx, EventPostDeleted, p.ID, c.UserID)
	return p, nil
}

func (s *Service) lookupPost(ctx context.Context, postID int64) (guard.Owned, bool, error) {
	p, err := s.posts.Get(ctx, postID)
	if identity.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *Service) resolveUsers(ctx context.Context, idList []int64) ([]identity.User, error) {
	out := make([]identity.User, 0, len(idList))
	for _, id := range idList {
		u, err := s.users.GetByID(ctx, id)
		if identity.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, t EventType, postID, actorID int64) {
	now := s.now()
	s.pub.Publish(ctx, Event{
		ID:      ids.New(now),
		Type:    t,
		PostID:  postID,
		ActorID: actorID,
		At:      now,
	})
}
