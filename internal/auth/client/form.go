package client

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
	"github.com/dropDatabas3/authbridge/internal/webctx"
)

// Default parameter names for the login form.
const (
	DefaultUsernameParameter = "username"
	DefaultPasswordParameter = "password"
)

// FormConfig configures a Form client. Immutable once the client is
// initialized.
type FormConfig struct {
	// LoginURL is the page hosting the login form. Required.
	LoginURL string

	// CallbackURL receives the posted credentials. Required.
	CallbackURL string

	// UsernameParameter / PasswordParameter override the posted field
	// names. Blank means the defaults.
	UsernameParameter string
	PasswordParameter string
}

// Form authenticates users through an HTML login form. The browser is
// redirected to the login page; the username and password are posted to
// the callback URL.
type Form struct {
	g        Guard
	name     string
	cfg      FormConfig
	authn    Authenticator
	profiles ProfileBuilder
	log      *zap.Logger
}

// NewForm creates a form client. The configuration is validated lazily on
// first use.
func NewForm(name string, cfg FormConfig, authn Authenticator, profiles ProfileBuilder) *Form {
	return &Form{
		name:     name,
		cfg:      cfg,
		authn:    authn,
		profiles: profiles,
		log:      logger.Named("client.form"),
	}
}

func (c *Form) Name() string          { return c.name }
func (c *Form) Type() auth.ClientType { return auth.TypeForm }

func (c *Form) init() error {
	if err := auth.RequireNonBlank("loginUrl", c.cfg.LoginURL); err != nil {
		return err
	}
	if err := auth.RequireNonBlank("callbackUrl", c.cfg.CallbackURL); err != nil {
		return err
	}
	if c.authn == nil {
		return &auth.ConfigurationError{Field: "authenticator", Reason: "cannot be nil"}
	}
	if c.cfg.UsernameParameter == "" {
		c.cfg.UsernameParameter = DefaultUsernameParameter
	}
	if c.cfg.PasswordParameter == "" {
		c.cfg.PasswordParameter = DefaultPasswordParameter
	}
	if c.profiles == nil {
		c.profiles = plainProfileBuilder{}
	}
	return nil
}

// Reinit reruns initialization unconditionally.
func (c *Form) Reinit() error { return c.g.Reinit(c.init) }

// RedirectionURL sends the browser to the login page.
func (c *Form) RedirectionURL(webctx.Context) (string, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return "", err
	}
	return c.cfg.LoginURL, nil
}

// Credentials reads the posted username/password pair. Both must be
// non-blank.
func (c *Form) Credentials(wc webctx.Context) (auth.Credentials, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return nil, err
	}
	username := wc.Parameter(c.cfg.UsernameParameter)
	password := wc.Parameter(c.cfg.PasswordParameter)
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, &auth.CredentialsError{Reason: "username and password cannot be blank"}
	}
	c.log.Debug("form credentials extracted", zap.String("username", username))
	return auth.UsernamePassword{Type: auth.TypeForm, Username: username, Password: password}, nil
}

// Profile validates the pair against the authenticator and builds the
// profile.
func (c *Form) Profile(ctx context.Context, creds auth.Credentials) (*auth.Profile, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return nil, err
	}
	up, ok := creds.(auth.UsernamePassword)
	if !ok {
		return nil, &auth.CredentialsError{Reason: "form client needs username/password credentials"}
	}
	if err := c.authn.Validate(ctx, up.Username, up.Password); err != nil {
		return nil, err
	}
	return c.profiles.Build(ctx, auth.TypeForm, up.Username)
}

// plainProfileBuilder yields a profile holding only the username.
type plainProfileBuilder struct{}

func (plainProfileBuilder) Build(_ context.Context, t auth.ClientType, username string) (*auth.Profile, error) {
	p := auth.NewProfile(t)
	p.SetID(username)
	p.AddAttribute("username", username)
	return p, nil
}
