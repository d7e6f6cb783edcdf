package config

import "time"

// OAuthConfig holds the connected-app settings shared by all three
// Salesforce tiers.
type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetScopes() []string
	GetVerifyIDToken() bool
	GetHTTPTimeout() time.Duration
	GetLoginSuccessURL() string
	GetLoginErrorURL() string
}

func (s *Settings) GetClientID() string { return s.Salesforce.ClientID }

func (s *Settings) GetClientSecret() string { return s.Salesforce.ClientSecret }

func (s *Settings) GetScopes() []string {
	return append([]string(nil), s.Salesforce.Scopes...)
}

func (s *Settings) GetVerifyIDToken() bool { return s.Salesforce.VerifyIDToken }

// GetHTTPTimeout bounds every outbound call to Salesforce.
func (s *Settings) GetHTTPTimeout() time.Duration { return s.Salesforce.HTTPTimeout }

func (s *Settings) GetLoginSuccessURL() string { return s.Redirects.LoginSuccess }

func (s *Settings) GetLoginErrorURL() string { return s.Redirects.LoginError }
