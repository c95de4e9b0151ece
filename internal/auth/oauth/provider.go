// Package oauth implements the delegated-token pipeline: authorization
// redirect, provider-error detection, token exchange, profile-document
// fetch with configurable timeouts, and attribute extraction per a
// provider-specific schema.
package oauth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/authbridge/internal/auth"
)

// errorParamNames are the callback query parameters a provider uses to
// report failure instead of delivering a token. Checked in this order;
// every one present ends up in the ProtocolError.
var errorParamNames = []string{"error", "error_reason", "error_description", "error_uri"}

// AttributeDef maps one field of the provider's profile document onto a
// typed profile attribute.
type AttributeDef struct {
	// Name is the attribute name on the resulting profile.
	Name string

	// Path locates the value in the decoded document; dotted for nested
	// objects ("plan.name"). Blank means Name.
	Path string

	// Convert produces the typed value. Nil means auth.ConvertString.
	Convert auth.ConvertFunc
}

// TokenExchange is the decoded response of the token endpoint.
type TokenExchange struct {
	AccessToken string
	TokenType   string
	Scope       string
	IDToken     string

	// Raw keeps the full decoded response for provider hooks.
	Raw map[string]any
}

// Provider is the per-provider strategy object: endpoints, callback
// parameter names, profile schema, and optional hooks. Selected at
// construction; the pipeline never branches on concrete provider types.
type Provider struct {
	Name             string
	AuthorizationURL string
	TokenURL         string
	ProfileURL       string
	Scopes           []string

	// TokenParameter is the callback parameter carrying the code/token.
	// Blank means "code".
	TokenParameter string

	// VerifierParameter optionally names a second callback parameter
	// (e.g. "oauth_verifier"). Blank means no verifier.
	VerifierParameter string

	// ProfileHeaders are extra headers sent on the profile fetch, for
	// providers that want them.
	ProfileHeaders map[string]string

	// IDAttribute names the schema attribute holding the stable user id.
	IDAttribute string

	// Schema lists the attributes to extract, in order.
	Schema []AttributeDef

	// PostExchange optionally enriches the profile straight from the
	// token-endpoint response (OIDC id_token claims and the like).
	PostExchange func(ctx context.Context, x *TokenExchange, p *auth.Profile) error
}

// lookupPath walks a decoded JSON document by dotted path.
func lookupPath(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
