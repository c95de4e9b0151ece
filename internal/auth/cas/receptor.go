package cas

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/auth/client"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
	"github.com/dropDatabas3/authbridge/internal/webctx"
)

// Callback parameters of the out-of-band proxy-ticket delivery.
const (
	ParamProxyGrantingTicketIOU = "pgtIou"
	ParamProxyGrantingTicket    = "pgtId"
)

// DefaultMillisBetweenCleanups is the default sweep interval of the
// ticket store.
const DefaultMillisBetweenCleanups = 60000

// proxySuccess is the exact acknowledgment the CAS server expects.
const proxySuccess = `<?xml version="1.0"?><casClient:proxySuccess xmlns:casClient="http://www.yale.edu/tp/casClient" />`

// ProxyReceptorConfig configures a ProxyReceptor.
type ProxyReceptorConfig struct {
	// CallbackURL is the proxy receptor endpoint the CAS server calls
	// back. Required.
	CallbackURL string

	// MillisBetweenCleanups is the ticket-store sweep interval in
	// milliseconds. Zero or negative means DefaultMillisBetweenCleanups;
	// use DisableCleanups for no sweep at all.
	MillisBetweenCleanups int

	// DisableCleanups turns the sweep off entirely: entries then only
	// leave the store via consumption.
	DisableCleanups bool

	// Store overrides the ticket store (e.g. the Redis backend). Nil
	// means an in-process store created at init.
	Store TicketStore
}

// ProxyReceptor receives asynchronous proxy-ticket callbacks from the
// CAS server and hands the tickets to the main auth flow through the
// correlation store.
type ProxyReceptor struct {
	g     client.Guard
	name  string
	cfg   ProxyReceptorConfig
	store TicketStore
	log   *zap.Logger
}

// NewProxyReceptor creates a proxy receptor client.
func NewProxyReceptor(name string, cfg ProxyReceptorConfig) *ProxyReceptor {
	return &ProxyReceptor{name: name, cfg: cfg, log: logger.Named("client.cas")}
}

func (c *ProxyReceptor) Name() string          { return c.name }
func (c *ProxyReceptor) Type() auth.ClientType { return auth.TypeCASProxy }

func (c *ProxyReceptor) init() error {
	if err := auth.RequireNonBlank("callbackUrl", c.cfg.CallbackURL); err != nil {
		return err
	}
	if c.store == nil {
		if c.cfg.Store != nil {
			c.store = c.cfg.Store
		} else {
			millis := c.cfg.MillisBetweenCleanups
			if millis <= 0 {
				millis = DefaultMillisBetweenCleanups
			}
			interval := time.Duration(millis) * time.Millisecond
			if c.cfg.DisableCleanups {
				interval = 0
			}
			c.store = NewMemoryStore(interval)
		}
	}
	return nil
}

// Reinit reruns initialization unconditionally. An already-created store
// keeps running: the sweep lifetime is tied to the client, not to the
// number of initializations.
func (c *ProxyReceptor) Reinit() error { return c.g.Reinit(c.init) }

// RedirectionURL returns the receptor callback URL.
func (c *ProxyReceptor) RedirectionURL(webctx.Context) (string, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return "", err
	}
	return c.cfg.CallbackURL, nil
}

// Credentials handles the out-of-band callback. A blank IOU or ticket is
// answered with an empty body and no store mutation; otherwise the
// mapping is stored and the fixed XML acknowledgment written. In both
// cases there are no credentials to return: the ticket is delivered to
// the main flow later, through Profile.
func (c *ProxyReceptor) Credentials(wc webctx.Context) (auth.Credentials, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return nil, err
	}
	iou := wc.Parameter(ParamProxyGrantingTicketIOU)
	ticket := wc.Parameter(ParamProxyGrantingTicket)
	if strings.TrimSpace(iou) == "" || strings.TrimSpace(ticket) == "" {
		if err := wc.WriteResponse(""); err != nil {
			return nil, &auth.CommunicationError{Err: err}
		}
		return nil, nil
	}
	c.log.Debug("received proxy granting ticket", zap.String("iou", iou))
	c.store.Save(iou, ticket)
	if err := wc.WriteResponse(proxySuccess); err != nil {
		return nil, &auth.CommunicationError{Err: err}
	}
	return nil, nil
}

// Profile consumes the stored ticket for the given IOU and wraps it in a
// profile. A missing entry (never delivered, already consumed, or
// evicted) is a credentials error: the caller may re-prompt.
func (c *ProxyReceptor) Profile(_ context.Context, creds auth.Credentials) (*auth.Profile, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return nil, err
	}
	tc, ok := creds.(auth.Ticket)
	if !ok {
		return nil, &auth.CredentialsError{Reason: "proxy receptor needs ticket credentials"}
	}
	ticket, ok := c.store.Retrieve(tc.ID)
	if !ok {
		return nil, &auth.CredentialsError{Reason: "no proxy granting ticket for iou"}
	}
	p := auth.NewProfile(auth.TypeCASProxy)
	p.SetID(tc.ID)
	p.AddAttribute("proxyGrantingTicket", ticket)
	return p, nil
}

// Store exposes the correlation store for the owning flow. A
// misconfigured receptor has no store to expose.
func (c *ProxyReceptor) Store() (TicketStore, error) {
	if err := c.g.Ensure(c.init); err != nil {
		return nil, err
	}
	return c.store, nil
}

// Close stops the store's background sweep. Call on shutdown.
func (c *ProxyReceptor) Close() {
	if c.store != nil {
		c.store.Stop()
	}
}
