package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/authbridge/internal/auth/cas"
	"github.com/dropDatabas3/authbridge/internal/auth/client"
	"github.com/dropDatabas3/authbridge/internal/store"
)

const proxySuccessXML = `<?xml version="1.0"?><casClient:proxySuccess xmlns:casClient="http://www.yale.edu/tp/casClient" />`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := store.NewUser("alice", string(hash))
	alice.SetAttribute("email", "alice@example.com")
	users := store.NewMemory(alice)

	authn := client.NewStoreAuthenticator(users)
	profiles := client.NewStoreProfileBuilder(users)

	form := client.NewForm("form", client.FormConfig{
		LoginURL:    "/login",
		CallbackURL: "/auth/form/callback",
	}, authn, profiles)
	basic := client.NewBasic("basic", client.BasicConfig{
		CallbackURL: "/auth/basic/callback",
	}, authn, profiles)

	receptor := cas.NewProxyReceptor("cas", cas.ProxyReceptorConfig{
		CallbackURL:     "/cas/proxy-callback",
		DisableCleanups: true,
	})
	t.Cleanup(receptor.Close)

	srv := httptest.NewServer(NewServer(client.NewRegistry(form, basic), receptor).Router())
	t.Cleanup(srv.Close)
	return srv
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestProviders(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/providers")
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	providers := body["providers"].([]any)
	require.Len(t, providers, 2)
	first := providers[0].(map[string]any)
	assert.Equal(t, "form", first["name"])
	assert.Equal(t, "/auth/form/start", first["start_url"])
}

func TestFormLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	// El start redirige a la página de login.
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := noRedirect.Get(srv.URL + "/auth/form/start")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// El callback resuelve el perfil.
	resp, err = http.PostForm(srv.URL+"/auth/form/callback", url.Values{
		"username": {"alice"},
		"password": {"secret"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "form#alice", body["typed_id"])
	attrs := body["attributes"].(map[string]any)
	assert.Equal(t, "alice@example.com", attrs["email"])
}

func TestFormLoginRejected(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.PostForm(srv.URL+"/auth/form/callback", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestBasicChallenge(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/auth/basic/callback")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic realm=")
}

func TestBasicLogin(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/basic/callback", nil)
	require.NoError(t, err)
	req.SetBasicAuth("alice", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "basic#alice", body["typed_id"])
}

func TestUnknownClient(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/auth/nope/start")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProxyCallbackAndResolve(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/cas/proxy-callback?pgtIou=abc&pgtId=PGT-1")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, proxySuccessXML, string(raw))

	resp, err = http.Get(srv.URL + "/cas/resolve?iou=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "cas-proxy#abc", body["typed_id"])
	attrs := body["attributes"].(map[string]any)
	assert.Equal(t, "PGT-1", attrs["proxyGrantingTicket"])

	// Consumido: la segunda resolución falla.
	resp, err = http.Get(srv.URL + "/cas/resolve?iou=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProxyCallbackBlankIsNoOp(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/cas/proxy-callback?pgtIou=&pgtId=PGT-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResolveMissingIOU(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/cas/resolve")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
