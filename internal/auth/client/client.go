// Package client defines the generic three-phase authentication client
// protocol (redirect, credentials, profile) and the password-based
// variants: HTML form and HTTP Basic.
package client

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/webctx"
)

// Client is the contract every protocol variant implements. All three
// operations lazily initialize the client first; a configuration problem
// surfaces as *auth.ConfigurationError from any of them.
type Client interface {
	// Name returns the instance identifier (e.g. "form", "google").
	Name() string

	// Type returns the protocol family.
	Type() auth.ClientType

	// RedirectionURL returns the location the browser must be sent to
	// so the user can authenticate. Pure function of config and ctx.
	RedirectionURL(wc webctx.Context) (string, error)

	// Credentials extracts and validates credentials from the callback
	// request. Malformed input yields *auth.CredentialsError; a
	// provider-reported error yields *auth.ProtocolError.
	Credentials(wc webctx.Context) (auth.Credentials, error)

	// Profile resolves validated credentials into a user profile.
	Profile(ctx context.Context, creds auth.Credentials) (*auth.Profile, error)

	// Reinit reruns initialization unconditionally.
	Reinit() error
}

// Registry holds configured clients, looked up by name. It performs no
// auth logic itself.
type Registry struct {
	names   []string
	clients map[string]Client
}

// NewRegistry registers the given clients by name. Names must be unique.
func NewRegistry(list ...Client) *Registry {
	r := &Registry{clients: make(map[string]Client, len(list))}
	for _, c := range list {
		if _, dup := r.clients[c.Name()]; dup {
			continue
		}
		r.names = append(r.names, c.Name())
		r.clients[c.Name()] = c
	}
	return r
}

// Get returns the client by name or an error if not registered.
func (r *Registry) Get(name string) (Client, error) {
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("unknown auth client: %s", name)
	}
	return c, nil
}

// Names returns the registered client names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
