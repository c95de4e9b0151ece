package webctx

import (
	"net/http"
	"sync"
)

// SessionStore keeps per-session attributes. The demo server uses the
// in-memory implementation below; anything cookie- or redis-backed can be
// plugged in instead.
type SessionStore interface {
	Get(sessionID, name string) any
	Set(sessionID, name string, value any)
	Invalidate(sessionID string)
}

// httpContext adapts an *http.Request / http.ResponseWriter pair to Context.
type httpContext struct {
	r         *http.Request
	w         http.ResponseWriter
	sessions  SessionStore
	sessionID string
}

// FromRequest wraps an http request/response pair. sessions may be nil when
// the endpoint never touches the session (e.g. the proxy receptor).
func FromRequest(w http.ResponseWriter, r *http.Request, sessions SessionStore, sessionID string) Context {
	return &httpContext{r: r, w: w, sessions: sessions, sessionID: sessionID}
}

func (c *httpContext) Parameter(name string) string {
	if c.r.Form == nil {
		_ = c.r.ParseForm()
	}
	return c.r.Form.Get(name)
}

func (c *httpContext) Parameters() map[string][]string {
	if c.r.Form == nil {
		_ = c.r.ParseForm()
	}
	return c.r.Form
}

func (c *httpContext) Header(name string) string { return c.r.Header.Get(name) }

func (c *httpContext) Method() string { return c.r.Method }

func (c *httpContext) SessionAttribute(name string) any {
	if c.sessions == nil {
		return nil
	}
	return c.sessions.Get(c.sessionID, name)
}

func (c *httpContext) SetSessionAttribute(name string, value any) {
	if c.sessions == nil {
		return
	}
	c.sessions.Set(c.sessionID, name, value)
}

func (c *httpContext) InvalidateSession() {
	if c.sessions != nil {
		c.sessions.Invalidate(c.sessionID)
	}
}

func (c *httpContext) WriteResponse(data string) error {
	_, err := c.w.Write([]byte(data))
	return err
}

// memorySessions is a trivial in-process SessionStore.
type memorySessions struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

// NewMemorySessions creates an in-process session store.
func NewMemorySessions() SessionStore {
	return &memorySessions{data: make(map[string]map[string]any)}
}

func (s *memorySessions) Get(sessionID, name string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.data[sessionID]; ok {
		return m[name]
	}
	return nil
}

func (s *memorySessions) Set(sessionID, name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[sessionID]
	if !ok {
		m = make(map[string]any)
		s.data[sessionID] = m
	}
	m[name] = value
}

func (s *memorySessions) Invalidate(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
}
