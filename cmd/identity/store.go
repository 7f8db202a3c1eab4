package identity

import (
	"context"
	"slices"
	"time"
)

// User is gqlsocial's canonical account record. The password hash never leaves the store.
type User struct {
	ID        int64
	Email     string
	Name      string
	Age       *int32
	FriendIDs []int64

	CreatedAt time.Time
}

// OwnerID makes a User its own resource for ownership checks.
func (u User) OwnerID() int64 { return u.ID }

// IsFriend reports whether id is in u's friend list.
func (u User) IsFriend(id int64) bool { return slices.Contains(u.FriendIDs, id) }

// RegisterInput describes a sign-up request. Email and Password are required.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Now      time.Time
}

// ProfileUpdate carries the optional fields of a profile edit. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name *string
	Age  *int32
}

// Hasher hashes and verifies passwords. password.Config satisfies it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
}

// Store is the credential/user boundary.
type Store interface {
	// Register fails with ErrDuplicateEmail when the normalized email exists.
	Register(ctx context.Context, in RegisterInput) (User, error)

	// VerifyCredentials fails with ErrNoSuchAccount or ErrInvalidPassword.
	VerifyCredentials(ctx context.Context, email, password string) (User, error)

	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByName(ctx context.Context, name string) (User, error)
	List(ctx context.Context) ([]User, error)

	UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (User, error)

	// AddFriend links both users. It fails with a ConflictError when they are already friends.
	AddFriend(ctx context.Context, userID, friendID int64) (User, error)
}
