package auth

import "context"

// User is the identity the storefront knows about a signed-in shopper.
type User struct {
	ID    string
	Email string
}

// Authenticator answers "who is signed in" for the current request.
// A nil user with a nil error means the caller is anonymous.
type Authenticator interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(ctx context.Context) (*User, error)

func (f AuthenticatorFunc) CurrentUser(ctx context.Context) (*User, error) {
	return f(ctx)
}

type userCtxKey struct{}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext returns the user placed by WithUser, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	user, ok := ctx.Value(userCtxKey{}).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

// ContextAuthenticator resolves the user seeded into the request context by the auth middleware.
type ContextAuthenticator struct{}

func (ContextAuthenticator) CurrentUser(ctx context.Context) (*User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return &user, nil
}
