package auth

// Profile is the uniform post-authentication representation of a user,
// independent of which protocol authenticated them. Attributes keep
// insertion order so providers with ordered schemas round-trip cleanly.
type Profile struct {
	clientType ClientType
	id         string
	names      []string
	attrs      map[string]any
	token      string
}

// NewProfile creates an empty profile for the given client type.
func NewProfile(t ClientType) *Profile {
	return &Profile{clientType: t, attrs: make(map[string]any)}
}

// ClientType returns the type of the client that resolved this profile.
func (p *Profile) ClientType() ClientType { return p.clientType }

// SetID sets the stable identifier. Blank values are ignored so a bad
// extraction cannot clear an already-resolved id.
func (p *Profile) SetID(id string) {
	if id != "" {
		p.id = id
	}
}

// ID returns the stable identifier.
func (p *Profile) ID() string { return p.id }

// TypedID returns "<clientType>#<id>".
func (p *Profile) TypedID() string { return string(p.clientType) + "#" + p.id }

// AddAttribute stores an attribute, preserving first-insertion order.
// A nil value is dropped.
func (p *Profile) AddAttribute(name string, value any) {
	if value == nil {
		return
	}
	if _, ok := p.attrs[name]; !ok {
		p.names = append(p.names, name)
	}
	p.attrs[name] = value
}

// Attribute returns the attribute value or nil.
func (p *Profile) Attribute(name string) any { return p.attrs[name] }

// AttributeNames returns the attribute names in insertion order.
func (p *Profile) AttributeNames() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// SetAccessToken attaches the delegated access token used to build the
// profile.
func (p *Profile) SetAccessToken(token string) { p.token = token }

// AccessToken returns the attached access token, if any.
func (p *Profile) AccessToken() string { return p.token }
