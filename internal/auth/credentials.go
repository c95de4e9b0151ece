// Package auth holds the data model shared by every client variant:
// credentials, profiles, attribute conversion and the error taxonomy.
package auth

// ClientType identifies the protocol family a client speaks. It travels
// with every credential and profile so downstream code can disambiguate
// without inspecting concrete types.
type ClientType string

const (
	TypeForm     ClientType = "form"
	TypeBasic    ClientType = "basic"
	TypeOAuth    ClientType = "oauth"
	TypeCASProxy ClientType = "cas-proxy"
)

// Credentials is the sealed set of credential variants. Values are
// immutable after creation: constructors copy everything in, nothing
// exposes a mutator.
type Credentials interface {
	// ClientType returns the logical type of the originating client.
	ClientType() ClientType

	sealed()
}

// UsernamePassword carries form or basic-auth credentials.
type UsernamePassword struct {
	Type     ClientType
	Username string
	Password string
}

func (c UsernamePassword) ClientType() ClientType { return c.Type }
func (UsernamePassword) sealed()                  {}

// Token carries a delegated-token credential: the value the provider sent
// back on the callback plus an optional verifier.
type Token struct {
	Type     ClientType
	Token    string
	Verifier string
}

func (c Token) ClientType() ClientType { return c.Type }
func (Token) sealed()                  {}

// Ticket carries a ticket-based SSO correlation key (the IOU for the
// proxy flow).
type Ticket struct {
	Type ClientType
	ID   string
}

func (c Ticket) ClientType() ClientType { return c.Type }
func (Ticket) sealed()                  {}
