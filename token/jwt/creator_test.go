package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/token/jwt"
)

var signingKey = []byte("0123456789abcdef0123456789abcdef")

func TestSessionIssuer_IssueAndParse(t *testing.T) {
	issuer, err := jwt.NewSessionIssuer("http://localhost:8080", signingKey, time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue("salesforce-custom", "005xx", "admin@acme.org")
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "salesforce-custom", claims.Provider)
	require.Equal(t, "005xx", claims.UID)
	require.Equal(t, "admin@acme.org", claims.Username)
	require.Equal(t, "salesforce-custom/005xx", claims.Subject)
	require.NotEmpty(t, claims.ID)
}

func TestSessionIssuer_Expired(t *testing.T) {
	issuer, err := jwt.NewSessionIssuer("iss", signingKey, time.Minute)
	require.NoError(t, err)

	start := time.Now()
	jwt.NowTimeFunc = func() time.Time { return start }
	t.Cleanup(func() { jwt.NowTimeFunc = time.Now })

	raw, err := issuer.Issue("salesforce-production", "005xx", "")
	require.NoError(t, err)

	jwt.NowTimeFunc = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = issuer.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestSessionIssuer_Rejects(t *testing.T) {
	issuer, err := jwt.NewSessionIssuer("iss", signingKey, time.Hour)
	require.NoError(t, err)
	other, err := jwt.NewSessionIssuer("iss", []byte("fedcba9876543210fedcba9876543210"), time.Hour)
	require.NoError(t, err)

	raw, err := other.Issue("salesforce-production", "005xx", "")
	require.NoError(t, err)

	_, err = issuer.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)

	_, err = issuer.Parse("")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	_, err = jwt.NewSessionIssuer("iss", []byte("short"), time.Hour)
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
}
