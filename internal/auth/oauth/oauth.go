package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/auth/client"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
	"github.com/dropDatabas3/authbridge/internal/webctx"
)

// Config configures an OAuth client instance. Immutable once the client
// is initialized.
type Config struct {
	// Key / Secret identify this application at the provider. Required.
	Key    string
	Secret string

	// CallbackURL receives the provider callback. Required.
	CallbackURL string

	// ConnectTimeout / ReadTimeout bound the two phases of provider
	// calls independently. Zero means no timeout for that phase.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Client turns a delegated-token callback into a profile. A single
// configured instance is shared across concurrent requests: the config is
// read-only after init and every call builds its own request resources.
type Client struct {
	g client.Guard

	name     string
	cfg      Config
	provider Provider
	httpc    *http.Client
	log      *zap.Logger
}

// New creates an OAuth client for the given provider strategy.
func New(name string, cfg Config, provider Provider) *Client {
	return &Client{
		name:     name,
		cfg:      cfg,
		provider: provider,
		log:      logger.Named("client.oauth").With(zap.String("provider", provider.Name)),
	}
}

func (c *Client) Name() string          { return c.name }
func (c *Client) Type() auth.ClientType { return auth.TypeOAuth }

func (c *Client) init() error {
	if err := auth.RequireNonBlank("key", c.cfg.Key); err != nil {
		return err
	}
	if err := auth.RequireNonBlank("secret", c.cfg.Secret); err != nil {
		return err
	}
	if err := auth.RequireNonBlank("callbackUrl", c.cfg.CallbackURL); err != nil {
		return err
	}
	if err := auth.RequireNonBlank("authorizationUrl", c.provider.AuthorizationURL); err != nil {
		return err
	}
	if err := auth.RequireNonBlank("tokenUrl", c.provider.TokenURL); err != nil {
		return err
	}
	if err := auth.RequireNonBlank("profileUrl", c.provider.ProfileURL); err != nil {
		return err
	}
	if c.provider.TokenParameter == "" {
		c.provider.TokenParameter = "code"
	}
	// Zero timeouts stay zero: net.Dialer and Transport treat that as
	// "no limit" for their phase. Built once; the config is immutable, so
	// a reinitialization never touches it and in-flight calls keep a
	// stable client.
	if c.httpc == nil {
		c.httpc = &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: c.cfg.ConnectTimeout}).DialContext,
				ResponseHeaderTimeout: c.cfg.ReadTimeout,
			},
		}
	}
	return nil
}

func (c *Client) ensure() error { return c.g.Ensure(c.init) }

// Reinit reruns initialization unconditionally.
func (c *Client) Reinit() error { return c.g.Reinit(c.init) }

func (c *Client) stateSessionKey() string { return "oauth:state:" + c.name }

// RedirectionURL builds the provider authorization URL, minting a fresh
// state value kept in the session for the callback check.
func (c *Client) RedirectionURL(wc webctx.Context) (string, error) {
	if err := c.ensure(); err != nil {
		return "", err
	}
	u, err := url.Parse(c.provider.AuthorizationURL)
	if err != nil {
		return "", &auth.ConfigurationError{Field: "authorizationUrl", Reason: "is not a valid URL"}
	}
	state := uuid.NewString()
	wc.SetSessionAttribute(c.stateSessionKey(), state)

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.Key)
	q.Set("redirect_uri", c.cfg.CallbackURL)
	if len(c.provider.Scopes) > 0 {
		q.Set("scope", strings.Join(c.provider.Scopes, " "))
	}
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Credentials extracts the delegated token from the callback. Provider
// error parameters are checked first and reported all together.
func (c *Client) Credentials(wc webctx.Context) (auth.Credentials, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	var bad []auth.ErrorParam
	for _, name := range errorParamNames {
		if v := wc.Parameter(name); v != "" {
			bad = append(bad, auth.ErrorParam{Name: name, Value: v})
		}
	}
	if len(bad) > 0 {
		perr := &auth.ProtocolError{Params: bad}
		c.log.Warn("provider reported error parameters", zap.String("detail", perr.Error()))
		return nil, perr
	}

	token := wc.Parameter(c.provider.TokenParameter)
	if strings.TrimSpace(token) == "" {
		return nil, &auth.CredentialsError{Reason: "missing " + c.provider.TokenParameter + " parameter"}
	}
	if want, ok := wc.SessionAttribute(c.stateSessionKey()).(string); ok && want != "" {
		if wc.Parameter("state") != want {
			return nil, &auth.CredentialsError{Reason: "state parameter mismatch"}
		}
	}
	var verifier string
	if c.provider.VerifierParameter != "" {
		verifier = wc.Parameter(c.provider.VerifierParameter)
		if strings.TrimSpace(verifier) == "" {
			return nil, &auth.CredentialsError{Reason: "missing " + c.provider.VerifierParameter + " parameter"}
		}
	}
	return auth.Token{Type: auth.TypeOAuth, Token: token, Verifier: verifier}, nil
}

// Profile runs the pipeline: exchange, fetch, extract, attach token.
func (c *Client) Profile(ctx context.Context, creds auth.Credentials) (*auth.Profile, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	tc, ok := creds.(auth.Token)
	if !ok {
		return nil, &auth.CredentialsError{Reason: "oauth client needs token credentials"}
	}
	x, err := c.exchange(ctx, tc)
	if err != nil {
		return nil, err
	}
	body, err := c.fetchProfileDocument(ctx, x.AccessToken)
	if err != nil {
		return nil, err
	}
	p, err := c.extractProfile(body)
	if err != nil {
		return nil, err
	}
	if c.provider.PostExchange != nil {
		if err := c.provider.PostExchange(ctx, x, p); err != nil {
			return nil, err
		}
	}
	p.SetAccessToken(x.AccessToken)
	return p, nil
}

func (c *Client) exchange(ctx context.Context, tc auth.Token) (*TokenExchange, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", tc.Token)
	form.Set("client_id", c.cfg.Key)
	form.Set("client_secret", c.cfg.Secret)
	form.Set("redirect_uri", c.cfg.CallbackURL)
	if tc.Verifier != "" {
		form.Set("code_verifier", tc.Verifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &auth.CommunicationError{Err: fmt.Errorf("token exchange: %w", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, &auth.CommunicationError{Code: resp.StatusCode, Body: string(body)}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &auth.CommunicationError{Err: fmt.Errorf("token exchange: decoding response: %w", err)}
	}
	if e, _ := raw["error"].(string); e != "" {
		bad := []auth.ErrorParam{{Name: "error", Value: e}}
		if d, _ := raw["error_description"].(string); d != "" {
			bad = append(bad, auth.ErrorParam{Name: "error_description", Value: d})
		}
		return nil, &auth.ProtocolError{Params: bad}
	}
	x := &TokenExchange{Raw: raw}
	x.AccessToken, _ = raw["access_token"].(string)
	x.TokenType, _ = raw["token_type"].(string)
	x.Scope, _ = raw["scope"].(string)
	x.IDToken, _ = raw["id_token"].(string)
	if x.AccessToken == "" {
		return nil, &auth.CommunicationError{Code: resp.StatusCode, Body: string(body), Err: errors.New("no access_token in response")}
	}
	return x, nil
}

func (c *Client) fetchProfileDocument(ctx context.Context, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.provider.ProfileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.provider.ProfileHeaders {
		req.Header.Set(k, v)
	}

	t0 := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &auth.CommunicationError{Err: fmt.Errorf("profile fetch: %w", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	c.log.Debug("profile fetch",
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(t0)))
	if resp.StatusCode/100 != 2 {
		return nil, &auth.CommunicationError{Code: resp.StatusCode, Body: string(body)}
	}
	if len(body) == 0 {
		return nil, &auth.CommunicationError{Code: resp.StatusCode, Err: errors.New("empty profile document")}
	}
	return body, nil
}

func (c *Client) extractProfile(body []byte) (*auth.Profile, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &auth.CommunicationError{Err: fmt.Errorf("decoding profile document: %w", err)}
	}
	p := auth.NewProfile(auth.TypeOAuth)
	for _, def := range c.provider.Schema {
		path := def.Path
		if path == "" {
			path = def.Name
		}
		raw, ok := lookupPath(doc, path)
		if !ok || raw == nil {
			continue
		}
		convert := def.Convert
		if convert == nil {
			convert = auth.ConvertString
		}
		v, err := convert(raw)
		if err != nil {
			c.log.Warn("attribute conversion failed", zap.String("attribute", def.Name), zap.Error(err))
			continue
		}
		p.AddAttribute(def.Name, v)
		if def.Name == c.provider.IDAttribute {
			p.SetID(fmt.Sprint(v))
		}
	}
	if p.ID() == "" {
		return nil, &auth.CredentialsError{Reason: "profile document has no " + c.provider.IDAttribute}
	}
	return p, nil
}
