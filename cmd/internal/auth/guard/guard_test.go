package guard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"gqlsocial/cmd/identity"
)

type post struct {
	id     int64
	author int64
}

func (p post) OwnerID() int64 { return p.author }

func asUser(id int64) context.Context {
	return identity.WithClaims(context.Background(), identity.Claims{UserID: id, Email: "u@test.com"})
}

func counting(calls *int) Op[int64, string] {
	return func(_ context.Context, id int64) (string, error) {
		*calls++
		return "ran", nil
	}
}

func lookupIn(posts map[int64]post) Lookup[int64] {
	return func(_ context.Context, id int64) (Owned, bool, error) {
		p, ok := posts[id]
		if !ok {
			return nil, false, nil
		}
		return p, true, nil
	}
}

func TestRequireAuthenticated_NoIdentityNeverCallsOp(t *testing.T) {
	calls := 0
	op := RequireAuthenticated(counting(&calls))

	res, err := op(context.Background(), 1)
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)
	require.Empty(t, res)
	require.Zero(t, calls)
}

func TestRequireAuthenticated_PassesThrough(t *testing.T) {
	var seen identity.Claims
	op := RequireAuthenticated(func(ctx context.Context, id int64) (int64, error) {
		seen, _ = identity.ClaimsFromContext(ctx)
		return id * 2, nil
	})

	res, err := op(asUser(7), 21)
	require.NoError(t, err)
	require.Equal(t, int64(42), res)
	require.Equal(t, int64(7), seen.UserID)
}

func TestRequireAuthenticated_PropagatesOpError(t *testing.T) {
	boom := errors.New("boom")
	op := RequireAuthenticated(func(context.Context, int64) (int64, error) { return 0, boom })

	_, err := op(asUser(1), 0)
	require.ErrorIs(t, err, boom)
}

func TestRequireResourceOwner(t *testing.T) {
	posts := map[int64]post{10: {id: 10, author: 1}}

	tests := []struct {
		name    string
		ctx     context.Context
		postID  int64
		wantErr error
		calls   int
	}{
		{name: "owner", ctx: asUser(1), postID: 10, calls: 1},
		{name: "non-owner", ctx: asUser(2), postID: 10, wantErr: identity.ErrForbidden},
		{name: "missing", ctx: asUser(1), postID: 11, wantErr: identity.ErrNotFound},
		{name: "anonymous", ctx: context.Background(), postID: 10, wantErr: identity.ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			op := RequireResourceOwner(lookupIn(posts), counting(&calls))

			res, err := op(tt.ctx, tt.postID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, res)
			} else {
				require.NoError(t, err)
				require.Equal(t, "ran", res)
			}
			require.Equal(t, tt.calls, calls)
		})
	}
}

func TestRequireResourceOwner_LookupErrorIsNotNotFound(t *testing.T) {
	lookup := func(ctx context.Context, _ int64) (Owned, bool, error) {
		return nil, false, ctx.Err()
	}
	calls := 0
	op := RequireResourceOwner(lookup, counting(&calls))

	ctx, cancel := context.WithCancel(asUser(1))
	cancel()

	_, err := op(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, identity.ErrNotFound)
	require.Zero(t, calls)
}

func TestRequireResourceOwner_AnonymousSkipsLookup(t *testing.T) {
	looked := false
	lookup := func(context.Context, int64) (Owned, bool, error) {
		looked = true
		return post{author: 0}, true, nil
	}
	calls := 0
	op := RequireResourceOwner(lookup, counting(&calls))

	// An owner id of 0 must not match a missing identity.
	_, err := op(context.Background(), 1)
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)
	require.False(t, looked)
	require.Zero(t, calls)
}

func TestComposition_OuterRunsFirst(t *testing.T) {
	looked := false
	lookup := func(context.Context, int64) (Owned, bool, error) {
		looked = true
		return nil, false, nil
	}
	calls := 0
	op := RequireAuthenticated(RequireResourceOwner(lookup, counting(&calls)))

	_, err := op(context.Background(), 1)
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)
	require.False(t, looked)

	_, err = op(asUser(1), 1)
	require.ErrorIs(t, err, identity.ErrNotFound)
	require.True(t, looked)
	require.Zero(t, calls)
}

func TestChain_Then_ExecutesInOrder(t *testing.T) {
	order := make([]int, 0)
	mark := func(n int) Middleware[int64, string] {
		return func(next Op[int64, string]) Op[int64, string] {
			return func(ctx context.Context, id int64) (string, error) {
				order = append(order, n)
				defer func() { order = append(order, 10-n) }()
				return next(ctx, id)
			}
		}
	}

	op := Chain[int64, string]{mark(1), mark(2)}.Then(func(context.Context, int64) (string, error) {
		order = append(order, 5)
		return "done", nil
	})

	res, err := op(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "done", res)
	require.Equal(t, []int{1, 2, 5, 8, 9}, order)
}

func TestChain_AuthThenOwner(t *testing.T) {
	posts := map[int64]post{10: {id: 10, author: 1}}
	calls := 0
	op := Chain[int64, string]{
		Authenticated[int64, string](),
		Owner[int64, string](lookupIn(posts)),
	}.Then(counting(&calls))

	_, err := op(asUser(2), 10)
	require.ErrorIs(t, err, identity.ErrForbidden)

	res, err := op(asUser(1), 10)
	require.NoError(t, err)
	require.Equal(t, "ran", res)
	require.Equal(t, 1, calls)
}

func TestLogged_RecordsDenials(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	calls := 0
	op := Chain[int64, string]{
		Logged[int64, string](log, "deletePost"),
		Authenticated[int64, string](),
	}.Then(counting(&calls))

	_, err := op(context.Background(), 1)
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)
	require.Contains(t, buf.String(), `"msg":"guard.denied"`)
	require.Contains(t, buf.String(), `"reason":"not_authenticated"`)

	buf.Reset()
	_, err = op(asUser(1), 1)
	require.NoError(t, err)
	require.Empty(t, buf.String())
}
