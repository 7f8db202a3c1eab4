package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gqlsocial/cmd/security/password"
)

func fastHasher() password.Config {
	cfg := password.DefaultConfig()
	cfg.WorkFactor = 1
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Parallelism = 1
	return cfg
}

func newStore(t *testing.T) *InMemoryStore {
	t.Helper()
	return NewInMemoryStore(fastHasher())
}

func register(t *testing.T, s *InMemoryStore, name, email, pw string) User {
	t.Helper()
	u, err := s.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: pw})
	require.NoError(t, err)
	return u
}

func TestRegister_ThenVerify(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u := register(t, s, "Fong", "Fong@Test.com ", "123456")
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, "fong@test.com", u.Email)
	require.Empty(t, u.FriendIDs)

	got, err := s.VerifyCredentials(ctx, "fong@test.com", "123456")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = s.VerifyCredentials(ctx, "fong@test.com", "654321")
	require.ErrorIs(t, err, ErrInvalidPassword)

	_, err = s.VerifyCredentials(ctx, "nobody@test.com", "123456")
	require.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	register(t, s, "A", "a@test.com", "pw")
	_, err := s.Register(ctx, RegisterInput{Name: "B", Email: " A@TEST.com", Password: "other"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
	require.ErrorIs(t, err, ErrConflict)
	require.True(t, IsConflict(err))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "A", all[0].Name)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	s := newStore(t)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Register(context.Background(), RegisterInput{Email: "race@test.com", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case errors.Is(err, ErrDuplicateEmail):
				dups++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, oks)
	require.Equal(t, 3, dups)
}

func TestRegister_RequiresEmailAndPassword(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Email: "  ", Password: "pw"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Register(ctx, RegisterInput{Email: "a@test.com"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPasswordHashNeverReturned(t *testing.T) {
	s := newStore(t)
	u := register(t, s, "A", "a@test.com", "secret-pw")

	// User carries no hash field; the stored record does.
	s.mu.Lock()
	hash := s.users[u.ID].hash
	s.mu.Unlock()
	require.NotEmpty(t, hash)
	require.NotContains(t, hash, "secret-pw")
}

func TestLookups(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := register(t, s, "Kevin", "kevin@test.com", "pw")
	register(t, s, "Mary", "mary@test.com", "pw")

	got, err := s.GetByName(ctx, "Kevin")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	got, err = s.GetByEmail(ctx, "KEVIN@test.com")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	_, err = s.GetByID(ctx, 99)
	require.True(t, IsNotFound(err))

	_, err = s.GetByName(ctx, "kevin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := register(t, s, "A", "a@test.com", "pw")

	age := int32(30)
	got, err := s.UpdateProfile(ctx, u.ID, ProfileUpdate{Age: &age})
	require.NoError(t, err)
	require.Equal(t, "A", got.Name)
	require.Equal(t, int32(30), *got.Age)

	name := "Alice"
	got, err = s.UpdateProfile(ctx, u.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Alice", got.Name)
	require.Equal(t, int32(30), *got.Age)

	neg := int32(-1)
	_, err = s.UpdateProfile(ctx, u.ID, ProfileUpdate{Age: &neg})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddFriend_Symmetric(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := register(t, s, "A", "a@test.com", "pw")
	b := register(t, s, "B", "b@test.com", "pw")

	got, err := s.AddFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{b.ID}, got.FriendIDs)

	other, err := s.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID}, other.FriendIDs)

	_, err = s.AddFriend(ctx, a.ID, b.ID)
	require.ErrorIs(t, err, ErrConflict)

	// The reverse direction is the same friendship.
	_, err = s.AddFriend(ctx, b.ID, a.ID)
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.AddFriend(ctx, a.ID, a.ID)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.AddFriend(ctx, a.ID, 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReturnedUsersAreCopies(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := register(t, s, "A", "a@test.com", "pw")
	b := register(t, s, "B", "b@test.com", "pw")

	got, err := s.AddFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	got.FriendIDs[0] = 999

	fresh, err := s.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{b.ID}, fresh.FriendIDs)
}
