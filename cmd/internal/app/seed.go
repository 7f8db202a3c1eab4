package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/internal/social"
)

const demoPassword = "123456"

// seedDemo registers Fong, Kevin and Mary, makes Fong friends with both,
// and gives each of them a first post. Existing accounts are left untouched.
func seedDemo(ctx context.Context, users identity.Store, posts social.PostStore, log Logger) error {
	now := time.Now().UTC()

	created := make(map[string]identity.User, 3)
	for _, name := range []string{"Fong", "Kevin", "Mary"} {
		email := identity.NormalizeEmail(name + "@test.com")
		u, err := users.Register(ctx, identity.RegisterInput{Name: name, Email: email, Password: demoPassword, Now: now})
		if errors.Is(err, identity.ErrDuplicateEmail) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
		created[name] = u

		if _, err := posts.Create(ctx, social.NewPost{AuthorID: u.ID, Title: "Hello from " + name, Now: now}); err != nil {
			return fmt.Errorf("seed post for %s: %w", name, err)
		}
	}

	fong, ok := created["Fong"]
	if !ok {
		return nil
	}
	for _, friend := range []string{"Kevin", "Mary"} {
		f, ok := created[friend]
		if !ok {
			continue
		}
		if _, err := users.AddFriend(ctx, fong.ID, f.ID); err != nil && !identity.IsConflict(err) {
			return fmt.Errorf("seed friendship %s: %w", friend, err)
		}
	}

	log.Info("seed.demo.done", "users", len(created))
	return nil
}
