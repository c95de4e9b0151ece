// Package webctx abstracts the request/session surface the auth clients
// consume. The core never touches net/http directly; it only sees this
// interface, so the same clients work behind any transport binding
// (and against the mock in tests).
package webctx

// Context exposes the pieces of an inbound web request that the auth
// clients need: parameters, headers, the session, and the response body.
type Context interface {
	// Parameter returns the request parameter (query or form) or "".
	Parameter(name string) string

	// Parameters returns all request parameters.
	Parameters() map[string][]string

	// Header returns the request header or "".
	Header(name string) string

	// Method returns the HTTP method.
	Method() string

	// SessionAttribute returns a session value or nil.
	SessionAttribute(name string) any

	// SetSessionAttribute stores a session value.
	SetSessionAttribute(name string, value any)

	// InvalidateSession drops the whole session.
	InvalidateSession()

	// WriteResponse appends data to the response body. Returns an error
	// on communication failure with the underlying transport.
	WriteResponse(data string) error
}
