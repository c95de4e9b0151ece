package client

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/webctx"
)

const (
	// AuthorizationHeader carries the basic-auth token.
	AuthorizationHeader = "Authorization"

	basicPrefix = "Basic "

	// DefaultRealm is used when no realm is configured.
	DefaultRealm = "authentication required"
)

// BasicConfig configures a Basic client.
type BasicConfig struct {
	// CallbackURL the browser is sent back to. Required.
	CallbackURL string

	// Realm is the basic-auth realm presented on challenge. Blank means
	// DefaultRealm.
	Realm string
}

// Basic authenticates users through HTTP Basic auth. A request without
// the Authorization header yields *auth.AuthChallengeError so the caller
// can answer with a WWW-Authenticate challenge instead of a failure page.
type Basic struct {
	g        Guard
	name     string
	cfg      BasicConfig
	authn    Authenticator
	profiles ProfileBuilder
}

// NewBasic creates a basic-auth client.
func NewBasic(name string, cfg BasicConfig, authn Authenticator, profiles ProfileBuilder) *Basic {
	return &Basic{name: name, cfg: cfg, authn: authn, profiles: profiles}
}

func (c *Basic) Name() string          { return c.name }
func (c *Basic) Type() auth.ClientType { return auth.TypeBasic }

func (c *Basic) init() error {
	if c.cfg.Realm == "" {
		c.cfg.Realm = DefaultRealm
	}
	if err := auth.RequireNonBlank("callbackUrl", c.cfg.CallbackURL); err != nil {
		return err
	}
	if c.authn == nil {
		return &auth.ConfigurationError{Field: "authenticator", Reason: "cannot be nil"}
	}
	if c.profiles == nil {
		c.profiles = plainProfileBuilder{}
	}
	return nil
}

// Reinit reruns initialization unconditionally.
func (c *Basic) Reinit() error { return c.g.Reinit(c.init) }

// RedirectionURL sends the browser straight to the callback: the
// challenge happens there.
func (c *Basic) RedirectionURL(webctx.Context) (string, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return "", err
	}
	return c.cfg.CallbackURL, nil
}

// Credentials decodes the Authorization header. A missing header or one
// without the "Basic " prefix is a challenge condition; present but
// undecodable content is a credentials error.
func (c *Basic) Credentials(wc webctx.Context) (auth.Credentials, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return nil, err
	}
	header := wc.Header(AuthorizationHeader)
	if !strings.HasPrefix(header, basicPrefix) {
		return nil, &auth.AuthChallengeError{Realm: c.cfg.Realm}
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(basicPrefix):])
	if err != nil {
		return nil, &auth.CredentialsError{Reason: "bad format of the basic auth header"}
	}
	token := string(decoded)
	delim := strings.Index(token, ":")
	if delim < 0 {
		return nil, &auth.CredentialsError{Reason: "bad format of the basic auth header"}
	}
	return auth.UsernamePassword{
		Type:     auth.TypeBasic,
		Username: token[:delim],
		Password: token[delim+1:],
	}, nil
}

// Profile validates the pair and builds the profile.
func (c *Basic) Profile(ctx context.Context, creds auth.Credentials) (*auth.Profile, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return nil, err
	}
	up, ok := creds.(auth.UsernamePassword)
	if !ok {
		return nil, &auth.CredentialsError{Reason: "basic client needs username/password credentials"}
	}
	if err := c.authn.Validate(ctx, up.Username, up.Password); err != nil {
		return nil, err
	}
	return c.profiles.Build(ctx, auth.TypeBasic, up.Username)
}
