package auth

import (
	"fmt"
	"strings"
)

// ConfigurationError means a required field was blank or invalid at
// initialization. The owning client stays uninitialized until corrected.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Field, e.Reason)
}

// RequireNonBlank returns a *ConfigurationError when v is blank.
func RequireNonBlank(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &ConfigurationError{Field: field, Reason: "cannot be blank"}
	}
	return nil
}

// CredentialsError means the extracted input does not satisfy the
// protocol's shape (blank fields, malformed header). Recoverable: the
// caller should re-prompt.
type CredentialsError struct {
	Reason string
}

func (e *CredentialsError) Error() string { return "credentials: " + e.Reason }

// ErrorParam is one provider-reported error parameter.
type ErrorParam struct {
	Name  string
	Value string
}

// ProtocolError means the external provider reported an error instead of
// a usable credential. Params lists every offending parameter found.
type ProtocolError struct {
	Params []ErrorParam
}

func (e *ProtocolError) Error() string {
	var b strings.Builder
	b.WriteString("provider returned error parameters:")
	for _, p := range e.Params {
		fmt.Fprintf(&b, " %s=%q", p.Name, p.Value)
	}
	return b.String()
}

// AuthChallengeError means no credential was present at all: the caller
// must issue a challenge (e.g. a Basic prompt for Realm) rather than
// treat the request as failed.
type AuthChallengeError struct {
	Realm string
}

func (e *AuthChallengeError) Error() string {
	return fmt.Sprintf("authentication required (realm %q)", e.Realm)
}

// CommunicationError means talking to a provider failed: network error,
// timeout, or a non-success status. Code and Body are kept for
// diagnostics when the provider answered at all.
type CommunicationError struct {
	Code int
	Body string
	Err  error
}

func (e *CommunicationError) Error() string {
	if e.Err != nil {
		return "provider communication: " + e.Err.Error()
	}
	return fmt.Sprintf("provider communication: status %d: %s", e.Code, e.Body)
}

func (e *CommunicationError) Unwrap() error { return e.Err }
