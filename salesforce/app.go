package salesforce

import (
	"strings"

	"golang.org/x/oauth2"
)

// App is the connected app resolved for one tier and base URL.
type App struct {
	Tier         Tier
	ClientID     string
	ClientSecret string
	BaseURL      string
}

func NewApp(tier Tier, baseURL, clientID, clientSecret string) App {
	return App{
		Tier:         tier,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      strings.TrimRight(baseURL, "/"),
	}
}

func (a App) AuthorizeURL() string { return a.BaseURL + "/services/oauth2/authorize" }

func (a App) TokenURL() string { return a.BaseURL + "/services/oauth2/token" }

func (a App) UserInfoURL() string { return a.BaseURL + "/services/oauth2/userinfo" }

// KeysURL is the JWKS endpoint used to verify id tokens.
func (a App) KeysURL() string { return a.BaseURL + "/id/keys" }

// Issuer is the expected "iss" of id tokens minted by this base URL.
func (a App) Issuer() string { return a.BaseURL }

// OAuth2Config builds the client configuration for the authorization code
// flow against this app.
func (a App) OAuth2Config(redirectURL string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.AuthorizeURL(),
			TokenURL:  a.TokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURL,
		Scopes:      append([]string(nil), scopes...),
	}
}
