package social

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/security/password"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc   *Service
	users *identity.InMemoryStore
	posts *InMemoryPostStore
	pub   *recorder
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher := password.DefaultConfig()
	hasher.WorkFactor = 1
	hasher.Params.MemoryKiB = 8 * 1024
	hasher.Params.Parallelism = 1

	f := &fixture{
		users: identity.NewInMemoryStore(hasher),
		posts: NewInMemoryPostStore(),
		pub:   &recorder{},
		now:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.users, f.posts, Options{
		Publisher: f.pub,
		Now:       func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) user(t *testing.T, name, email string) (identity.User, context.Context) {
	t.Helper()
	u, err := f.users.Register(context.Background(), identity.RegisterInput{Name: name, Email: email, Password: "pw"})
	require.NoError(t, err)
	return u, identity.WithClaims(context.Background(), identity.ClaimsFor(u))
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	a, ctxA := f.user(t, "A", "a@test.com")
	_, ctxB := f.user(t, "B", "b@test.com")

	p, err := f.svc.AddPost(ctxA, AddPostInput{Title: "hello"})
	require.NoError(t, err)
	require.Equal(t, a.ID, p.AuthorID)

	_, err = f.svc.DeletePost(ctxB, p.ID)
	require.ErrorIs(t, err, identity.ErrForbidden)

	_, err = f.svc.Post(context.Background(), p.ID)
	require.NoError(t, err, "forbidden delete must leave the post in place")

	deleted, err := f.svc.DeletePost(ctxA, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, deleted.ID)
	require.Equal(t, "hello", deleted.Title)

	_, err = f.svc.Post(context.Background(), p.ID)
	require.ErrorIs(t, err, identity.ErrNotFound)

	_, err = f.svc.DeletePost(ctxA, p.ID)
	require.ErrorIs(t, err, identity.ErrNotFound)

	_, err = f.svc.DeletePost(context.Background(), p.ID)
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)

	require.Equal(t, []EventType{EventPostCreated, EventPostDeleted}, f.pub.types())
}

func TestDeletePost_CancelledContextIsNotNotFound(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user(t, "A", "a@test.com")

	p, err := f.svc.AddPost(ctxA, AddPostInput{Title: "hello"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(ctxA)
	cancel()

	_, err = f.svc.DeletePost(ctx, p.ID)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, identity.ErrNotFound)

	_, err = f.svc.Post(context.Background(), p.ID)
	require.NoError(t, err)
}

func TestLikePost_Toggles(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user(t, "A", "a@test.com")
	f.user(t, "B", "b@test.com")
	c, ctxC := f.user(t, "C", "c@test.com")
	require.Equal(t, int64(3), c.ID)

	p, err := f.svc.AddPost(ctxA, AddPostInput{Title: "t"})
	require.NoError(t, err)
	require.Empty(t, p.LikerIDs)

	sizes := []int{len(p.LikerIDs)}
	for i := 0; i < 3; i++ {
		p, err = f.svc.LikePost(ctxC, p.ID)
		require.NoError(t, err)
		sizes = append(sizes, len(p.LikerIDs))
	}
	require.Equal(t, []int{0, 1, 0, 1}, sizes)
	require.Equal(t, []int64{3}, p.LikerIDs)

	require.Equal(t,
		[]EventType{EventPostCreated, EventPostLiked, EventPostUnliked, EventPostLiked},
		f.pub.types())
}

func TestLikePost_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user(t, "A", "a@test.com")
	p, err := f.svc.AddPost(ctxA, AddPostInput{Title: "t"})
	require.NoError(t, err)

	_, err = f.svc.LikePost(context.Background(), p.ID)
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)

	got, err := f.svc.Post(context.Background(), p.ID)
	require.NoError(t, err)
	require.Empty(t, got.LikerIDs)
}

func TestAddPost(t *testing.T) {
	f := newFixture(t)
	a, ctxA := f.user(t, "A", "a@test.com")

	_, err := f.svc.AddPost(context.Background(), AddPostInput{Title: "t"})
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)

	_, err = f.svc.AddPost(ctxA, AddPostInput{Title: "   "})
	require.ErrorIs(t, err, identity.ErrInvalidInput)

	p, err := f.svc.AddPost(ctxA, AddPostInput{Title: " First ", Body: "body"})
	require.NoError(t, err)
	require.Equal(t, "First", p.Title)
	require.Equal(t, f.now, p.CreatedAt)

	mine, err := f.svc.PostsBy(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	author, err := f.svc.Author(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, a.ID, author.ID)
}

func TestAddFriend_SymmetricAndConflict(t *testing.T) {
	f := newFixture(t)
	a, ctxA := f.user(t, "A", "a@test.com")
	b, _ := f.user(t, "B", "b@test.com")

	me, err := f.svc.AddFriend(ctxA, b.ID)
	require.NoError(t, err)

	friends, err := f.svc.FriendsOf(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	require.Equal(t, b.ID, friends[0].ID)

	other, err := f.svc.UserByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID}, other.FriendIDs)

	_, err = f.svc.AddFriend(ctxA, b.ID)
	require.ErrorIs(t, err, identity.ErrConflict)

	_, err = f.svc.AddFriend(context.Background(), b.ID)
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)
}

func TestMeAndUpdateMyInfo(t *testing.T) {
	f := newFixture(t)
	a, ctxA := f.user(t, "A", "a@test.com")

	_, err := f.svc.Me(context.Background())
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)

	me, err := f.svc.Me(ctxA)
	require.NoError(t, err)
	require.Equal(t, a.ID, me.ID)

	name := "Alice"
	age := int32(22)
	me, err = f.svc.UpdateMyInfo(ctxA, identity.ProfileUpdate{Name: &name, Age: &age})
	require.NoError(t, err)
	require.Equal(t, "Alice", me.Name)
	require.Equal(t, int32(22), *me.Age)

	found, err := f.svc.User(context.Background(), "Alice")
	require.NoError(t, err)
	require.Equal(t, a.ID, found.ID)
}

func TestLikers_ResolvesInOrder(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user(t, "A", "a@test.com")
	b, ctxB := f.user(t, "B", "b@test.com")
	c, ctxC := f.user(t, "C", "c@test.com")

	p, err := f.svc.AddPost(ctxA, AddPostInput{Title: "t"})
	require.NoError(t, err)
	_, err = f.svc.LikePost(ctxC, p.ID)
	require.NoError(t, err)
	p, err = f.svc.LikePost(ctxB, p.ID)
	require.NoError(t, err)

	likers, err := f.svc.Likers(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, likers, 2)
	require.Equal(t, c.ID, likers[0].ID)
	require.Equal(t, b.ID, likers[1].ID)
}
