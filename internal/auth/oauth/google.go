package oauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/authbridge/internal/auth"
)

// Google returns the provider strategy for Google OIDC-flavoured OAuth.
// Besides the userinfo document, the id_token returned by the exchange is
// verified against Google's JWKS and its claims merged into the profile.
func Google(clientID string) Provider {
	verifier := &jwksVerifier{
		jwksURL:  "https://www.googleapis.com/oauth2/v3/certs",
		issuers:  []string{"https://accounts.google.com", "accounts.google.com"},
		audience: clientID,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
	return Provider{
		Name:             "google",
		AuthorizationURL: "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:         "https://oauth2.googleapis.com/token",
		ProfileURL:       "https://openidconnect.googleapis.com/v1/userinfo",
		Scopes:           []string{"openid", "email", "profile"},
		IDAttribute:      "sub",
		Schema: []AttributeDef{
			{Name: "sub"},
			{Name: "email"},
			{Name: "email_verified", Convert: auth.ConvertBool},
			{Name: "name"},
			{Name: "given_name"},
			{Name: "family_name"},
			{Name: "picture"},
			{Name: "locale", Convert: auth.ConvertLocale},
		},
		PostExchange: func(ctx context.Context, x *TokenExchange, p *auth.Profile) error {
			if x.IDToken == "" {
				return nil
			}
			claims, err := verifier.verify(ctx, x.IDToken)
			if err != nil {
				return &auth.CredentialsError{Reason: "invalid id_token: " + err.Error()}
			}
			if hd, _ := claims["hd"].(string); hd != "" {
				p.AddAttribute("hd", hd)
			}
			return nil
		},
	}
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// jwksVerifier validates RS256 tokens against a cached JWKS document.
type jwksVerifier struct {
	jwksURL  string
	issuers  []string
	audience string
	httpc    *http.Client

	mu     sync.RWMutex
	keys   *jwks
	keysAt time.Time
}

func (v *jwksVerifier) fetchKeys(ctx context.Context) (*jwks, error) {
	v.mu.RLock()
	keys := v.keys
	stale := time.Since(v.keysAt) > time.Hour
	v.mu.RUnlock()
	if keys != nil && !stale {
		return keys, nil
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	resp, err := v.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
	}
	var jj jwks
	if err := json.NewDecoder(resp.Body).Decode(&jj); err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.keys = &jj
	v.keysAt = time.Now()
	v.mu.Unlock()
	return &jj, nil
}

func (v *jwksVerifier) rsaKeyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	keys, err := v.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range keys.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nb, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eb, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			e := 65537
			if len(eb) > 0 {
				e = 0
				for _, b := range eb {
					e = (e << 8) | int(b)
				}
			}
			return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
		}
	}
	return nil, errors.New("kid not found")
}

func (v *jwksVerifier) verify(ctx context.Context, idToken string) (jwtv5.MapClaims, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("bad jwt format")
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, err
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("unexpected alg: %s", header.Alg)
	}
	key, err := v.rsaKeyForKid(ctx, header.Kid)
	if err != nil {
		return nil, err
	}
	tok, err := jwtv5.Parse(idToken,
		func(*jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}))
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid signature")
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims type")
	}
	iss, _ := claims["iss"].(string)
	issOK := false
	for _, want := range v.issuers {
		if iss == want {
			issOK = true
			break
		}
	}
	if !issOK {
		return nil, fmt.Errorf("bad iss: %s", iss)
	}
	audOK := false
	switch a := claims["aud"].(type) {
	case string:
		audOK = a == v.audience
	case []any:
		for _, x := range a {
			if s, _ := x.(string); s == v.audience {
				audOK = true
				break
			}
		}
	}
	if !audOK {
		return nil, errors.New("bad aud")
	}
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, errors.New("token expired")
		}
	}
	return claims, nil
}
