package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/webctx"
)

func testProvider(tokenURL, profileURL string) Provider {
	return Provider{
		Name:             "acme",
		AuthorizationURL: "https://acme.example/authorize",
		TokenURL:         tokenURL,
		ProfileURL:       profileURL,
		Scopes:           []string{"profile", "email"},
		IDAttribute:      "id",
		Schema: []AttributeDef{
			{Name: "id"},
			{Name: "name"},
			{Name: "verified", Convert: auth.ConvertBool},
			{Name: "lang", Convert: auth.ConvertLocale},
			{Name: "favorite_color", Convert: auth.ConvertColor},
			{Name: "member_since", Convert: auth.ConvertDate("2006-01-02")},
			{Name: "plan", Path: "account.plan"},
		},
	}
}

func testClient(tokenURL, profileURL string) *Client {
	return New("acme", Config{
		Key:         "app-key",
		Secret:      "app-secret",
		CallbackURL: "http://localhost/auth/acme/callback",
	}, testProvider(tokenURL, profileURL))
}

func TestRedirectionURL(t *testing.T) {
	c := testClient("https://acme.example/token", "https://acme.example/me")
	wc := webctx.NewMock()
	raw, err := c.RedirectionURL(wc)
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("client_id") != "app-key" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("redirect_uri") != "http://localhost/auth/acme/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	state := q.Get("state")
	if state == "" {
		t.Fatal("missing state parameter")
	}
	if got := wc.SessionAttribute("oauth:state:acme"); got != state {
		t.Fatalf("state not kept in session: %v != %q", got, state)
	}
}

func TestCredentials_ProviderErrorParams(t *testing.T) {
	c := testClient("https://acme.example/token", "https://acme.example/me")
	wc := webctx.NewMock().
		WithParameter("error", "access_denied").
		WithParameter("error_description", "user said no")

	_, err := c.Credentials(wc)
	var perr *auth.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("want ProtocolError, got %v", err)
	}
	if len(perr.Params) != 2 {
		t.Fatalf("want both error parameters reported, got %v", perr.Params)
	}
	if perr.Params[0].Name != "error" || perr.Params[0].Value != "access_denied" {
		t.Fatalf("first param = %+v", perr.Params[0])
	}
	if perr.Params[1].Name != "error_description" || perr.Params[1].Value != "user said no" {
		t.Fatalf("second param = %+v", perr.Params[1])
	}
}

func TestCredentials_MissingCode(t *testing.T) {
	c := testClient("https://acme.example/token", "https://acme.example/me")
	_, err := c.Credentials(webctx.NewMock())
	var credsErr *auth.CredentialsError
	if !errors.As(err, &credsErr) {
		t.Fatalf("want CredentialsError, got %v", err)
	}
}

func TestCredentials_StateMismatch(t *testing.T) {
	c := testClient("https://acme.example/token", "https://acme.example/me")
	wc := webctx.NewMock().
		WithParameter("code", "abc").
		WithParameter("state", "evil")
	wc.SetSessionAttribute("oauth:state:acme", "good")

	_, err := c.Credentials(wc)
	var credsErr *auth.CredentialsError
	if !errors.As(err, &credsErr) {
		t.Fatalf("want CredentialsError, got %v", err)
	}
}

func TestCredentials_OK(t *testing.T) {
	c := testClient("https://acme.example/token", "https://acme.example/me")
	wc := webctx.NewMock().
		WithParameter("code", "code-123").
		WithParameter("state", "st")
	wc.SetSessionAttribute("oauth:state:acme", "st")

	creds, err := c.Credentials(wc)
	if err != nil {
		t.Fatal(err)
	}
	tc := creds.(auth.Token)
	if tc.Token != "code-123" {
		t.Fatalf("token = %q", tc.Token)
	}
	if tc.ClientType() != auth.TypeOAuth {
		t.Fatalf("client type = %q", tc.ClientType())
	}
}

// stubProvider spins an httptest server answering the token and profile
// endpoints.
func stubProvider(t *testing.T, profileStatus int, profileBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("client_secret") != "app-secret" {
			t.Errorf("client_secret not sent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-999","token_type":"bearer","scope":"profile"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-999" {
			t.Errorf("authorization header = %q", got)
		}
		w.WriteHeader(profileStatus)
		_, _ = w.Write([]byte(profileBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProfile_Pipeline(t *testing.T) {
	srv := stubProvider(t, http.StatusOK, `{
		"id": "u42",
		"name": "Alice",
		"verified": true,
		"lang": "en-US",
		"favorite_color": "1A2B3C",
		"member_since": "2020-05-01",
		"account": {"plan": "pro"},
		"ignored": "nope"
	}`)
	c := testClient(srv.URL+"/token", srv.URL+"/me")

	p, err := c.Profile(context.Background(), auth.Token{Type: auth.TypeOAuth, Token: "code-123"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID() != "u42" {
		t.Fatalf("id = %q", p.ID())
	}
	if p.TypedID() != "oauth#u42" {
		t.Fatalf("typed id = %q", p.TypedID())
	}
	if p.AccessToken() != "tok-999" {
		t.Fatalf("access token = %q", p.AccessToken())
	}
	if p.Attribute("verified") != true {
		t.Fatalf("verified = %v", p.Attribute("verified"))
	}
	if p.Attribute("lang") != "en_US" {
		t.Fatalf("lang = %v", p.Attribute("lang"))
	}
	if c, ok := p.Attribute("favorite_color").(auth.Color); !ok || c.String() != "1A2B3C" {
		t.Fatalf("favorite_color = %v", p.Attribute("favorite_color"))
	}
	if d, ok := p.Attribute("member_since").(time.Time); !ok || d.Year() != 2020 {
		t.Fatalf("member_since = %v", p.Attribute("member_since"))
	}
	if p.Attribute("plan") != "pro" {
		t.Fatalf("nested path attribute = %v", p.Attribute("plan"))
	}
	if p.Attribute("ignored") != nil {
		t.Fatalf("attribute outside schema leaked in")
	}
	// Orden de inserción = orden del schema.
	names := p.AttributeNames()
	if names[0] != "id" || names[len(names)-1] != "plan" {
		t.Fatalf("attribute order = %v", names)
	}
}

func TestProfile_FetchNon200(t *testing.T) {
	srv := stubProvider(t, http.StatusInternalServerError, `upstream exploded`)
	c := testClient(srv.URL+"/token", srv.URL+"/me")

	_, err := c.Profile(context.Background(), auth.Token{Type: auth.TypeOAuth, Token: "code"})
	var comm *auth.CommunicationError
	if !errors.As(err, &comm) {
		t.Fatalf("want CommunicationError, got %v", err)
	}
	if comm.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", comm.Code)
	}
	if comm.Body != "upstream exploded" {
		t.Fatalf("body = %q", comm.Body)
	}
}

func TestProfile_EmptyBody(t *testing.T) {
	srv := stubProvider(t, http.StatusOK, "")
	c := testClient(srv.URL+"/token", srv.URL+"/me")

	_, err := c.Profile(context.Background(), auth.Token{Type: auth.TypeOAuth, Token: "code"})
	var comm *auth.CommunicationError
	if !errors.As(err, &comm) {
		t.Fatalf("want CommunicationError, got %v", err)
	}
}

func TestProfile_ExchangeError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := testClient(srv.URL+"/token", srv.URL+"/me")

	_, err := c.Profile(context.Background(), auth.Token{Type: auth.TypeOAuth, Token: "stale"})
	var perr *auth.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("want ProtocolError, got %v", err)
	}
	if len(perr.Params) != 2 {
		t.Fatalf("params = %v", perr.Params)
	}
}

func TestProfile_ProviderUnreachable(t *testing.T) {
	// Puerto cerrado: el exchange falla a nivel red.
	c := testClient("http://127.0.0.1:1/token", "http://127.0.0.1:1/me")
	_, err := c.Profile(context.Background(), auth.Token{Type: auth.TypeOAuth, Token: "code"})
	var comm *auth.CommunicationError
	if !errors.As(err, &comm) {
		t.Fatalf("want CommunicationError, got %v", err)
	}
}

// Reinicializaciones concurrentes con resoluciones en vuelo: la config es
// inmutable y el http.Client se construye una sola vez, así que ambas
// pueden correr a la vez.
func TestReinit_ConcurrentWithProfile(t *testing.T) {
	srv := stubProvider(t, http.StatusOK, `{"id":"u42"}`)
	c := testClient(srv.URL+"/token", srv.URL+"/me")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if err := c.Reinit(); err != nil {
				t.Errorf("reinit: %v", err)
				return
			}
		}
	}()
	for i := 0; i < 50; i++ {
		p, err := c.Profile(context.Background(), auth.Token{Type: auth.TypeOAuth, Token: "code"})
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		if p.ID() != "u42" {
			t.Fatalf("id = %q", p.ID())
		}
	}
	<-done
}

func TestInit_MissingKey(t *testing.T) {
	c := New("acme", Config{Secret: "s", CallbackURL: "http://cb"},
		testProvider("https://t", "https://p"))
	_, err := c.RedirectionURL(webctx.NewMock())
	var cfgErr *auth.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "key" {
		t.Fatalf("field = %q", cfgErr.Field)
	}
}

func TestInit_TimeoutsConfigurable(t *testing.T) {
	c := New("acme", Config{
		Key: "k", Secret: "s", CallbackURL: "http://cb",
		ConnectTimeout: 500 * time.Millisecond,
		ReadTimeout:    3 * time.Second,
	}, testProvider("https://t", "https://p"))
	if _, err := c.RedirectionURL(webctx.NewMock()); err != nil {
		t.Fatal(err)
	}
	tr, ok := c.httpc.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type %T", c.httpc.Transport)
	}
	if tr.ResponseHeaderTimeout != 3*time.Second {
		t.Fatalf("read timeout = %v", tr.ResponseHeaderTimeout)
	}
}
