package graph

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"gqlsocial/cmd/identity"
	authapi "gqlsocial/cmd/internal/auth/api"
	"gqlsocial/cmd/internal/social"
)

// Resolver is the root resolver for Query and Mutation.
type Resolver struct {
	svc  *social.Service
	auth *authapi.Authenticator
	log  *slog.Logger
}

// NewResolver builds the root resolver.
func NewResolver(svc *social.Service, auth *authapi.Authenticator, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{svc: svc, auth: auth, log: log}
}

// ---- queries ----

func (r *Resolver) Hello() *string {
	s := "world"
	return &s
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.svc.Me(ctx)
	if err != nil {
		return nil, toError(ctx, r.log, "me", err)
	}
	return r.user(u), nil
}

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	users, err := r.svc.Users(ctx)
	if err != nil {
		return nil, toError(ctx, r.log, "users", err)
	}
	return r.userList(users), nil
}

func (r *Resolver) User(ctx context.Context, args struct{ Name string }) (*userResolver, error) {
	u, err := r.svc.User(ctx, args.Name)
	if identity.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, toError(ctx, r.log, "user", err)
	}
	return r.user(u), nil
}

func (r *Resolver) Posts(ctx context.Context) ([]*postResolver, error) {
	posts, err := r.svc.Posts(ctx)
	if err != nil {
		return nil, toError(ctx, r.log, "posts", err)
	}
	return r.postList(posts), nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	p, err := r.svc.Post(ctx, id)
	if identity.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, toError(ctx, r.log, "post", err)
	}
	return r.post(p), nil
}

// ---- mutations ----

type updateMyInfoInput struct {
	Name *string
	Age  *int32
}

func (r *Resolver) UpdateMyInfo(ctx context.Context, args struct{ Input updateMyInfoInput }) (*userResolver, error) {
	u, err := r.svc.UpdateMyInfo(ctx, identity.ProfileUpdate{Name: args.Input.Name, Age: args.Input.Age})
	if err != nil {
		return nil, toError(ctx, r.log, "updateMyInfo", err)
	}
	return r.user(u), nil
}

func (r *Resolver) AddFriend(ctx context.Context, args struct{ UserID graphql.ID }) (*userResolver, error) {
	id, err := parseID(args.UserID)
	if err != nil {
		return nil, err
	}
	u, err := r.svc.AddFriend(ctx, id)
	if err != nil {
		return nil, toError(ctx, r.log, "addFriend", err)
	}
	return r.user(u), nil
}

type addPostInput struct {
	Title string
	Body  *string
}

func (r *Resolver) AddPost(ctx context.Context, args struct{ Input addPostInput }) (*postResolver, error) {
	in := social.AddPostInput{Title: args.Input.Title}
	if args.Input.Body != nil {
		in.Body = *args.Input.Body
	}
	p, err := r.svc.AddPost(ctx, in)
	if err != nil {
		return nil, toError(ctx, r.log, "addPost", err)
	}
	return r.post(p), nil
}

func (r *Resolver) LikePost(ctx context.Context, args struct{ PostID graphql.ID }) (*postResolver, error) {
	id, err := parseID(args.PostID)
	if err != nil {
		return nil, err
	}
	p, err := r.svc.LikePost(ctx, id)
	if err != nil {
		return nil, toError(ctx, r.log, "likePost", err)
	}
	return r.post(p), nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ PostID graphql.ID }) (*postResolver, error) {
	id, err := parseID(args.PostID)
	if err != nil {
		return nil, err
	}
	p, err := r.svc.DeletePost(ctx, id)
	if err != nil {
		return nil, toError(ctx, r.log, "deletePost", err)
	}
	return r.post(p), nil
}

type signUpArgs struct {
	Name     *string
	Email    string
	Password string
}

func (r *Resolver) SignUp(ctx context.Context, args signUpArgs) (*userResolver, error) {
	in := authapi.SignUpInput{Email: args.Email, Password: args.Password}
	if args.Name != nil {
		in.Name = *args.Name
	}
	u, err := r.auth.SignUp(ctx, in)
	if err != nil {
		return nil, toError(ctx, r.log, "signUp", err)
	}
	return r.user(u), nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*tokenResolver, error) {
	issued, err := r.auth.Login(ctx, authapi.LoginInput{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, toError(ctx, r.log, "login", err)
	}
	return &tokenResolver{token: issued.Token}, nil
}

// ---- object resolvers ----

type userResolver struct {
	root *Resolver
	u    identity.User
}

func (u *userResolver) ID() graphql.ID { return formatID(u.u.ID) }
func (u *userResolver) Email() string  { return u.u.Email }
func (u *userResolver) Age() *int32    { return u.u.Age }

func (u *userResolver) Name() *string {
	if u.u.Name == "" {
		return nil
	}
	name := u.u.Name
	return &name
}

func (u *userResolver) Friends(ctx context.Context) ([]*userResolver, error) {
	friends, err := u.root.svc.FriendsOf(ctx, u.u)
	if err != nil {
		return nil, toError(ctx, u.root.log, "user.friends", err)
	}
	return u.root.userList(friends), nil
}

func (u *userResolver) Posts(ctx context.Context) ([]*postResolver, error) {
	posts, err := u.root.svc.PostsBy(ctx, u.u.ID)
	if err != nil {
		return nil, toError(ctx, u.root.log, "user.posts", err)
	}
	return u.root.postList(posts), nil
}

type postResolver struct {
	root *Resolver
	p    social.Post
}

func (p *postResolver) ID() graphql.ID    { return formatID(p.p.ID) }
func (p *postResolver) Title() *string    { return optional(p.p.Title) }
func (p *postResolver) Body() *string     { return optional(p.p.Body) }
func (p *postResolver) CreatedAt() string { return p.p.CreatedAt.UTC().Format(time.RFC3339) }

func (p *postResolver) Author(ctx context.Context) (*userResolver, error) {
	u, err := p.root.svc.Author(ctx, p.p)
	if identity.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, toError(ctx, p.root.log, "post.author", err)
	}
	return p.root.user(u), nil
}

func (p *postResolver) LikeGivers(ctx context.Context) ([]*userResolver, error) {
	likers, err := p.root.svc.Likers(ctx, p.p)
	if err != nil {
		return nil, toError(ctx, p.root.log, "post.likeGivers", err)
	}
	return p.root.userList(likers), nil
}

type tokenResolver struct {
	token string
}

func (t *tokenResolver) Token() string { return t.token }

// ---- helpers ----

func (r *Resolver) user(u identity.User) *userResolver { return &userResolver{root: r, u: u} }
func (r *Resolver) post(p social.Post) *postResolver   { return &postResolver{root: r, p: p} }

func (r *Resolver) userList(users []identity.User) []*userResolver {
	out := make([]*userResolver, 0, len(users))
	for _, u := range users {
		out = append(out, r.user(u))
	}
	return out
}

func (r *Resolver) postList(posts []social.Post) []*postResolver {
	out := make([]*postResolver, 0, len(posts))
	for _, p := range posts {
		out = append(out, r.post(p))
	}
	return out
}

func parseID(id graphql.ID) (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, badInput("invalid id " + strconv.Quote(string(id)))
	}
	return n, nil
}

func formatID(id int64) graphql.ID { return graphql.ID(strconv.FormatInt(id, 10)) }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
