package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/auth"
	"github.com/dropDatabas3/authbridge/internal/auth/cas"
	"github.com/dropDatabas3/authbridge/internal/auth/client"
	"github.com/dropDatabas3/authbridge/internal/metrics"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
	"github.com/dropDatabas3/authbridge/internal/webctx"
)

const sessionCookie = "authbridge_session"

// Server expone los clientes configurados sobre HTTP.
type Server struct {
	clients  *client.Registry
	receptor *cas.ProxyReceptor // nil si CAS está deshabilitado
	sessions webctx.SessionStore
	log      *zap.Logger
}

// NewServer arma el server con los clientes dados.
func NewServer(clients *client.Registry, receptor *cas.ProxyReceptor) *Server {
	return &Server{
		clients:  clients,
		receptor: receptor,
		sessions: webctx.NewMemorySessions(),
		log:      logger.Named("http"),
	}
}

// Router construye el router chi con todas las rutas.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, accessLog)

	r.Get("/login", s.handleLoginPage)
	r.Get("/providers", s.handleProviders)
	r.Get("/auth/{client}/start", s.handleStart)
	r.HandleFunc("/auth/{client}/callback", s.handleCallback)
	if s.receptor != nil {
		r.HandleFunc("/cas/proxy-callback", s.handleProxyCallback)
		r.Get("/cas/resolve", s.handleCASResolve)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// sessionID lee (o crea) la cookie de sesión.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (s *Server) webContext(w http.ResponseWriter, r *http.Request) webctx.Context {
	return webctx.FromRequest(w, r, s.sessions, s.sessionID(w, r))
}

var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html><body>
<h1>Sign in</h1>
<form method="post" action="/auth/form/callback">
  <label>Username <input name="{{.UsernameParam}}"></label>
  <label>Password <input name="{{.PasswordParam}}" type="password"></label>
  <button type="submit">Sign in</button>
</form>
{{range .Starts}}<p><a href="{{.}}">{{.}}</a></p>{{end}}
</body></html>`))

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	starts := make([]string, 0, len(s.clients.Names()))
	for _, name := range s.clients.Names() {
		if name != "form" && name != "basic" {
			starts = append(starts, "/auth/"+name+"/start")
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginTmpl.Execute(w, map[string]any{
		"UsernameParam": client.DefaultUsernameParameter,
		"PasswordParam": client.DefaultPasswordParameter,
		"Starts":        starts,
	})
}

// handleProviders lista los clientes disponibles con su start URL.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	type providerInfo struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		StartURL string `json:"start_url"`
	}
	out := struct {
		Providers []providerInfo `json:"providers"`
	}{}
	for _, name := range s.clients.Names() {
		c, err := s.clients.Get(name)
		if err != nil {
			continue
		}
		out.Providers = append(out.Providers, providerInfo{
			Name:     name,
			Type:     string(c.Type()),
			StartURL: "/auth/" + name + "/start",
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "client")
	c, err := s.clients.Get(name)
	if err != nil {
		WriteError(w, http.StatusNotFound, "unknown_client", err.Error())
		return
	}
	target, err := c.RedirectionURL(s.webContext(w, r))
	if err != nil {
		s.writeAuthError(w, name, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "client")
	c, err := s.clients.Get(name)
	if err != nil {
		WriteError(w, http.StatusNotFound, "unknown_client", err.Error())
		return
	}
	wc := s.webContext(w, r)
	creds, err := c.Credentials(wc)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(name, "rejected").Inc()
		s.writeAuthError(w, name, err)
		return
	}
	if creds == nil {
		// El cliente ya escribió su respuesta (caso receptor).
		return
	}
	profile, err := c.Profile(r.Context(), creds)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(name, "failed").Inc()
		s.writeAuthError(w, name, err)
		return
	}
	metrics.AuthAttempts.WithLabelValues(name, "ok").Inc()
	logger.From(r.Context()).Info("profile resolved",
		logger.Client(name),
		logger.ProfileID(profile.TypedID()),
	)
	WriteJSON(w, http.StatusOK, profileResponse(profile))
}

// handleProxyCallback recibe el callback asíncrono del server CAS. El
// receptor escribe el body (vacío o el proxySuccess XML) él mismo.
func (s *Server) handleProxyCallback(w http.ResponseWriter, r *http.Request) {
	wc := webctx.FromRequest(w, r, nil, "")
	if _, err := s.receptor.Credentials(wc); err != nil {
		s.writeAuthError(w, s.receptor.Name(), err)
	}
}

// handleCASResolve consume el ticket almacenado para un IOU.
func (s *Server) handleCASResolve(w http.ResponseWriter, r *http.Request) {
	iou := r.URL.Query().Get("iou")
	if iou == "" {
		WriteError(w, http.StatusBadRequest, "missing_iou", "iou query parameter is required")
		return
	}
	profile, err := s.receptor.Profile(r.Context(), auth.Ticket{Type: auth.TypeCASProxy, ID: iou})
	if err != nil {
		s.writeAuthError(w, s.receptor.Name(), err)
		return
	}
	WriteJSON(w, http.StatusOK, profileResponse(profile))
}

func profileResponse(p *auth.Profile) map[string]any {
	attrs := make(map[string]any)
	for _, name := range p.AttributeNames() {
		attrs[name] = attributeJSON(p.Attribute(name))
	}
	out := map[string]any{
		"id":         p.ID(),
		"typed_id":   p.TypedID(),
		"type":       string(p.ClientType()),
		"attributes": attrs,
	}
	if p.AccessToken() != "" {
		out["access_token"] = p.AccessToken()
	}
	return out
}

func attributeJSON(v any) any {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v
}

// writeAuthError mapea la taxonomía de errores a HTTP.
func (s *Server) writeAuthError(w http.ResponseWriter, clientName string, err error) {
	var (
		cfgErr   *auth.ConfigurationError
		credsErr *auth.CredentialsError
		protoErr *auth.ProtocolError
		chalErr  *auth.AuthChallengeError
		commErr  *auth.CommunicationError
	)
	switch {
	case errors.As(err, &chalErr):
		w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", chalErr.Realm))
		WriteError(w, http.StatusUnauthorized, "authentication_required", chalErr.Error())
	case errors.As(err, &credsErr):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", credsErr.Error())
	case errors.As(err, &protoErr):
		WriteError(w, http.StatusBadGateway, "provider_error", protoErr.Error())
	case errors.As(err, &commErr):
		s.log.Error("provider communication failed", logger.Client(clientName), zap.Error(err))
		WriteError(w, http.StatusBadGateway, "provider_unavailable", "could not reach the identity provider")
	case errors.As(err, &cfgErr):
		s.log.Error("client misconfigured", logger.Client(clientName), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "client_misconfigured", "client is not correctly configured")
	default:
		s.log.Error("auth failed", logger.Client(clientName), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
