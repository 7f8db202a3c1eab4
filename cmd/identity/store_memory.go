package identity

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// dummyPassword feeds the unknown-account verify so both login failure paths cost a hash.
// #nosec G101 -- not a credential.
const dummyPassword = "gqlsocial-dummy-password"

// InMemoryStore keeps users in process memory. Nothing survives a restart.
//
// A single mutex keeps map access memory-safe. Sequences that span two calls
// (lookup, then update) are not atomic across callers.
type InMemoryStore struct {
	hasher Hasher

	mu      sync.Mutex
	nextID  int64
	users   map[int64]*memUser
	byEmail map[string]int64

	dummyOnce sync.Once
	dummyHash string
}

type memUser struct {
	user User
	hash string
}

// NewInMemoryStore constructs a Store that hashes passwords with h.
func NewInMemoryStore(h Hasher) *InMemoryStore {
	return &InMemoryStore{
		hasher:  h,
		users:   make(map[int64]*memUser),
		byEmail: make(map[string]int64),
	}
}

// Register creates a new user with a fresh id and a salted password hash.
func (s *InMemoryStore) Register(ctx context.Context, in RegisterInput) (User, error) {
	const op = "identity.Register"

	if s == nil || s.hasher == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if in.Password == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password is required"}
	}

	// Cheap pre-check; the authoritative check happens under the lock below.
	if s.emailTaken(email) {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	s.nextID++
	u := User{
		ID:        s.nextID,
		Email:     email,
		Name:      NormalizeName(in.Name),
		FriendIDs: []int64{},
		CreatedAt: now,
	}
	s.users[u.ID] = &memUser{user: u, hash: hash}
	s.byEmail[email] = u.ID

	return cloneUser(u), nil
}

// VerifyCredentials checks email + password through the hasher's constant-time compare.
func (s *InMemoryStore) VerifyCredentials(ctx context.Context, email, password string) (User, error) {
	const op = "identity.VerifyCredentials"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email = NormalizeEmail(email)

	s.mu.Lock()
	var (
		u    User
		hash string
	)
	id, found := s.byEmail[email]
	if found {
		rec := s.users[id]
		u, hash = cloneUser(rec.user), rec.hash
	}
	s.mu.Unlock()

	if !found {
		// Equalize timing with the wrong-password path.
		_, _ = s.hasher.Verify(s.dummy(), password)
		return User{}, OpError{Op: op, Kind: ErrNoSuchAccount}
	}

	ok, err := s.hasher.Verify(hash, password)
	if err != nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidPassword, Msg: "stored hash rejected"}
	}
	if !ok {
		return User{}, OpError{Op: op, Kind: ErrInvalidPassword}
	}
	return u, nil
}

// GetByID returns the user with id.
func (s *InMemoryStore) GetByID(ctx context.Context, id int64) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetByID", Resource: "user"}
	}
	return cloneUser(rec.user), nil
}

// GetByEmail returns the user registered under the normalized email.
func (s *InMemoryStore) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetByEmail", Resource: "user"}
	}
	return cloneUser(s.users[id].user), nil
}

// GetByName returns the lowest-id user whose name matches exactly.
func (s *InMemoryStore) GetByName(ctx context.Context, name string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	name = NormalizeName(name)
	for _, u := range s.snapshot() {
		if u.Name == name {
			return u, nil
		}
	}
	return User{}, NotFoundError{Op: "identity.GetByName", Resource: "user"}
}

// List returns all users ordered by id.
func (s *InMemoryStore) List(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// UpdateProfile applies the non-nil fields of in.
func (s *InMemoryStore) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (User, error) {
	const op = "identity.UpdateProfile"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if in.Age != nil && *in.Age < 0 {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "age must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if in.Name != nil {
		rec.user.Name = NormalizeName(*in.Name)
	}
	if in.Age != nil {
		age := *in.Age
		rec.user.Age = &age
	}
	return cloneUser(rec.user), nil
}

// AddFriend records the friendship on both users and returns the updated userID record.
func (s *InMemoryStore) AddFriend(ctx context.Context, userID, friendID int64) (User, error) {
	const op = "identity.AddFriend"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if userID == friendID {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "cannot befriend yourself"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.users[userID]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	friend, ok := s.users[friendID]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "friend"}
	}
	if slices.Contains(me.user.FriendIDs, friendID) {
		return User{}, ConflictError{Op: op, Field: "friend"}
	}

	me.user.FriendIDs = append(me.user.FriendIDs, friendID)
	if !slices.Contains(friend.user.FriendIDs, userID) {
		friend.user.FriendIDs = append(friend.user.FriendIDs, userID)
	}
	return cloneUser(me.user), nil
}

func (s *InMemoryStore) emailTaken(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byEmail[email]
	return ok
}

func (s *InMemoryStore) snapshot() []User {
	s.mu.Lock()
	out := make([]User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, cloneUser(rec.user))
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *InMemoryStore) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func cloneUser(u User) User {
	u.FriendIDs = slices.Clone(u.FriendIDs)
	if u.FriendIDs == nil {
		u.FriendIDs = []int64{}
	}
	if u.Age != nil {
		age := *u.Age
		u.Age = &age
	}
	return u
}
