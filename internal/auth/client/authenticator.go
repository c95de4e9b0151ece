package client

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/store"
)

// Authenticator validates a username/password pair. Implementations
// return *auth.CredentialsError when the pair is wrong and plain errors
// for infrastructure failures.
type Authenticator interface {
	Validate(ctx context.Context, username, password string) error
}

// ProfileBuilder builds the profile for an already-validated username.
type ProfileBuilder interface {
	Build(ctx context.Context, clientType auth.ClientType, username string) (*auth.Profile, error)
}

// storeAuthenticator validates against a user store with bcrypt hashes.
type storeAuthenticator struct {
	users store.Store
}

// NewStoreAuthenticator validates credentials against the given store.
func NewStoreAuthenticator(users store.Store) Authenticator {
	return &storeAuthenticator{users: users}
}

func (a *storeAuthenticator) Validate(ctx context.Context, username, password string) error {
	u, err := a.users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return &auth.CredentialsError{Reason: "bad username or password"}
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return &auth.CredentialsError{Reason: "bad username or password"}
	}
	return nil
}

// storeProfileBuilder copies the stored user attributes onto the profile.
type storeProfileBuilder struct {
	users store.Store
}

// NewStoreProfileBuilder builds profiles from the given store. Unknown
// usernames still yield a minimal profile: validation already happened.
func NewStoreProfileBuilder(users store.Store) ProfileBuilder {
	return &storeProfileBuilder{users: users}
}

func (b *storeProfileBuilder) Build(ctx context.Context, clientType auth.ClientType, username string) (*auth.Profile, error) {
	p := auth.NewProfile(clientType)
	p.SetID(username)
	p.AddAttribute("username", username)
	u, err := b.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return p, nil
		}
		return nil, err
	}
	for _, name := range u.AttributeNames() {
		p.AddAttribute(name, u.Attribute(name))
	}
	return p, nil
}
