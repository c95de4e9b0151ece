package oauth

import "github.com/dropDatabas3/authbridge/internal/auth"

// GitHub returns the provider strategy for GitHub OAuth 2.0. GitHub has
// no ID tokens, so everything comes from the user API document.
func GitHub() Provider {
	return Provider{
		Name:             "github",
		AuthorizationURL: "https://github.com/login/oauth/authorize",
		TokenURL:         "https://github.com/login/oauth/access_token",
		ProfileURL:       "https://api.github.com/user",
		Scopes:           []string{"user:email", "read:user"},
		IDAttribute:      "id",
		ProfileHeaders:   map[string]string{"X-GitHub-Api-Version": "2022-11-28"},
		Schema: []AttributeDef{
			{Name: "id", Convert: auth.ConvertInt},
			{Name: "login"},
			{Name: "name"},
			{Name: "email"},
			{Name: "avatar_url"},
			{Name: "html_url"},
			{Name: "company"},
			{Name: "location"},
			{Name: "bio"},
			{Name: "created_at", Convert: auth.ConvertDate("2006-01-02T15:04:05Z")},
			{Name: "site_admin", Convert: auth.ConvertBool},
		},
	}
}
