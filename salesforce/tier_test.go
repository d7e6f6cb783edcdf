package salesforce_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/salesforce"
	"github.com/jrsteele09/go-sfdc-login/sessions"
)

func TestParseTier(t *testing.T) {
	for _, tier := range salesforce.Tiers {
		got, err := salesforce.ParseTier(tier.ProviderID())
		require.NoError(t, err)
		require.Equal(t, tier, got)
		require.NotEmpty(t, tier.Name())
	}
	require.Equal(t, "salesforce-test", salesforce.TierSandbox.ProviderID())

	_, err := salesforce.ParseTier("salesforce-sandbox")
	require.ErrorIs(t, err, apperrors.ErrUnknownProvider)
}

func TestTier_BaseURL_Fixed(t *testing.T) {
	s := sessions.New(time.Minute)

	got, err := salesforce.TierProduction.BaseURL(url.Values{"custom_domain": {"ignored"}}, s)
	require.NoError(t, err)
	require.Equal(t, "https://login.salesforce.com", got)

	got, err = salesforce.TierSandbox.BaseURL(nil, s)
	require.NoError(t, err)
	require.Equal(t, "https://test.salesforce.com", got)

	_, stored := s.Get(sessions.KeyCustomDomain)
	require.False(t, stored)
}

func TestTier_BaseURL_Custom(t *testing.T) {
	t.Run("query wins and is remembered", func(t *testing.T) {
		s := sessions.New(time.Minute)
		s.Set(sessions.KeyCustomDomain, "old")

		got, err := salesforce.TierCustom.BaseURL(url.Values{"custom_domain": {"acme"}}, s)
		require.NoError(t, err)
		require.Equal(t, "https://acme.my.salesforce.com", got)

		domain, _ := s.Get(sessions.KeyCustomDomain)
		require.Equal(t, "acme", domain)
	})

	t.Run("falls back to the session", func(t *testing.T) {
		s := sessions.New(time.Minute)
		s.Set(sessions.KeyCustomDomain, "acme")

		got, err := salesforce.TierCustom.BaseURL(url.Values{}, s)
		require.NoError(t, err)
		require.Equal(t, "https://acme.my.salesforce.com", got)
	})

	t.Run("sandbox style my domain", func(t *testing.T) {
		got, err := salesforce.TierCustom.BaseURL(url.Values{"custom_domain": {"acme--uat.sandbox"}}, sessions.New(time.Minute))
		require.NoError(t, err)
		require.Equal(t, "https://acme--uat.sandbox.my.salesforce.com", got)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		_, err := salesforce.TierCustom.BaseURL(url.Values{}, sessions.New(time.Minute))
		require.ErrorIs(t, err, apperrors.ErrMissingCustomDomain)
	})

	t.Run("rejects hosts that are not labels", func(t *testing.T) {
		for _, domain := range []string{"evil.com/", "a b", "-acme", "acme-", "acme@x", "x:80"} {
			s := sessions.New(time.Minute)
			_, err := salesforce.TierCustom.BaseURL(url.Values{"custom_domain": {domain}}, s)
			require.ErrorIs(t, err, apperrors.ErrInvalidCustomDomain, domain)

			_, stored := s.Get(sessions.KeyCustomDomain)
			require.False(t, stored, domain)
		}
	})
}

func TestApp_Endpoints(t *testing.T) {
	app := salesforce.NewApp(salesforce.TierCustom, "https://acme.my.salesforce.com/", "client", "secret")
	require.Equal(t, "https://acme.my.salesforce.com/services/oauth2/authorize", app.AuthorizeURL())
	require.Equal(t, "https://acme.my.salesforce.com/services/oauth2/token", app.TokenURL())
	require.Equal(t, "https://acme.my.salesforce.com/services/oauth2/userinfo", app.UserInfoURL())
	require.Equal(t, "https://acme.my.salesforce.com/id/keys", app.KeysURL())

	cfg := app.OAuth2Config("http://localhost:8080/accounts/salesforce-custom/login/callback/", []string{"api", "id"})
	require.Equal(t, "client", cfg.ClientID)
	require.Equal(t, app.AuthorizeURL(), cfg.Endpoint.AuthURL)
	require.Equal(t, app.TokenURL(), cfg.Endpoint.TokenURL)
	require.Equal(t, []string{"api", "id"}, cfg.Scopes)
}
