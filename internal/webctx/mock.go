package webctx

import "strings"

// Mock is a Context for tests: parameters, headers and session attributes
// are plain maps and the written response is captured in a buffer.
type Mock struct {
	Params  map[string]string
	Headers map[string]string
	Session map[string]any
	method  string

	written strings.Builder
}

// NewMock creates an empty mock context with method GET.
func NewMock() *Mock {
	return &Mock{
		Params:  make(map[string]string),
		Headers: make(map[string]string),
		Session: make(map[string]any),
		method:  "GET",
	}
}

// WithParameter adds a request parameter.
func (m *Mock) WithParameter(name, value string) *Mock {
	m.Params[name] = value
	return m
}

// WithHeader adds a request header.
func (m *Mock) WithHeader(name, value string) *Mock {
	m.Headers[name] = value
	return m
}

// WithMethod sets the request method.
func (m *Mock) WithMethod(method string) *Mock {
	m.method = method
	return m
}

func (m *Mock) Parameter(name string) string { return m.Params[name] }

func (m *Mock) Parameters() map[string][]string {
	out := make(map[string][]string, len(m.Params))
	for k, v := range m.Params {
		out[k] = []string{v}
	}
	return out
}

func (m *Mock) Header(name string) string { return m.Headers[name] }

func (m *Mock) Method() string { return m.method }

func (m *Mock) SessionAttribute(name string) any { return m.Session[name] }

func (m *Mock) SetSessionAttribute(name string, value any) { m.Session[name] = value }

func (m *Mock) InvalidateSession() { m.Session = make(map[string]any) }

func (m *Mock) WriteResponse(data string) error {
	m.written.WriteString(data)
	return nil
}

// Written returns everything written through WriteResponse.
func (m *Mock) Written() string { return m.written.String() }
