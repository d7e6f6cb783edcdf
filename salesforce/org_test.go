package salesforce_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/salesforce"
)

const testAccessToken = "00Dxx!plain-access"

// fakeOrg serves the org info and org detail endpoints.
type fakeOrg struct {
	canModifyAllData any
	orgInfoStatus    int
	detailStatus     int
	delay            time.Duration
	detailCalls      atomic.Int32

	mu          sync.Mutex
	authHeaders []string
}

func (f *fakeOrg) recordAuth(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
}

func (f *fakeOrg) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /services/data/v44.0/connect/organization", func(w http.ResponseWriter, r *http.Request) {
		f.recordAuth(r)
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		if f.orgInfoStatus != 0 {
			w.WriteHeader(f.orgInfoStatus)
			return
		}
		settings := map[string]any{}
		if f.canModifyAllData != nil {
			settings["canModifyAllData"] = f.canModifyAllData
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"userSettings": settings})
	})
	mux.HandleFunc("GET /services/data/v44.0/sobjects/Organization/00Dxx0000001gPL", func(w http.ResponseWriter, r *http.Request) {
		f.detailCalls.Add(1)
		f.recordAuth(r)
		if f.detailStatus != 0 {
			w.WriteHeader(f.detailStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Name":             "Sample Org",
			"OrganizationType": "Developer Edition",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func profileFor(base string) map[string]any {
	return map[string]any{
		"user_id":         "005xx000001Sv6AAAS",
		"organization_id": "00Dxx0000001gPL",
		"urls": map[string]any{
			"rest":     base + "/services/data/v{version}/",
			"sobjects": base + "/services/data/v{version}/sobjects/",
		},
	}
}

func newVerifier(timeout time.Duration) *salesforce.OrgVerifier {
	return salesforce.NewOrgVerifier(salesforce.NewClient(nil, timeout))
}

func TestOrgVerifier_Verify(t *testing.T) {
	f := &fakeOrg{canModifyAllData: true}
	srv := f.server(t)

	details, err := newVerifier(time.Second).Verify(context.Background(), profileFor(srv.URL), testAccessToken)
	require.NoError(t, err)
	require.Equal(t, "Sample Org", details.Name())
	require.Equal(t, "Developer Edition", details.OrganizationType())
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, []string{"Bearer " + testAccessToken, "Bearer " + testAccessToken}, f.authHeaders)
}

func TestOrgVerifier_InsufficientPermission(t *testing.T) {
	for name, value := range map[string]any{"false": false, "absent": nil} {
		t.Run(name, func(t *testing.T) {
			f := &fakeOrg{canModifyAllData: value}
			srv := f.server(t)

			details, err := newVerifier(time.Second).Verify(context.Background(), profileFor(srv.URL), testAccessToken)
			require.ErrorIs(t, err, apperrors.ErrInsufficientPermission)
			require.Nil(t, details)
			require.Zero(t, f.detailCalls.Load())
		})
	}
}

func TestOrgVerifier_UpstreamFailures(t *testing.T) {
	t.Run("org info error status", func(t *testing.T) {
		srv := (&fakeOrg{orgInfoStatus: http.StatusServiceUnavailable}).server(t)
		_, err := newVerifier(time.Second).Verify(context.Background(), profileFor(srv.URL), testAccessToken)
		require.ErrorIs(t, err, apperrors.ErrUpstream)

		var upstream *apperrors.UpstreamError
		require.ErrorAs(t, err, &upstream)
		require.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	})

	t.Run("org details error status", func(t *testing.T) {
		srv := (&fakeOrg{canModifyAllData: true, detailStatus: http.StatusNotFound}).server(t)
		_, err := newVerifier(time.Second).Verify(context.Background(), profileFor(srv.URL), testAccessToken)
		require.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := (&fakeOrg{canModifyAllData: true, delay: 200 * time.Millisecond}).server(t)
		_, err := newVerifier(20*time.Millisecond).Verify(context.Background(), profileFor(srv.URL), testAccessToken)
		require.ErrorIs(t, err, apperrors.ErrUpstream)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestOrgVerifier_MissingFields(t *testing.T) {
	srv := (&fakeOrg{canModifyAllData: true}).server(t)
	v := newVerifier(time.Second)

	noURLs := profileFor(srv.URL)
	delete(noURLs, "urls")
	_, err := v.Verify(context.Background(), noURLs, testAccessToken)
	require.ErrorIs(t, err, apperrors.ErrMissingField)

	noRest := profileFor(srv.URL)
	delete(noRest["urls"].(map[string]any), "rest")
	_, err = v.Verify(context.Background(), noRest, testAccessToken)
	require.ErrorIs(t, err, apperrors.ErrMissingField)

	noOrgID := profileFor(srv.URL)
	delete(noOrgID, "organization_id")
	_, err = v.Verify(context.Background(), noOrgID, testAccessToken)
	require.ErrorIs(t, err, apperrors.ErrMissingField)
}

func TestIdentityFromProfile(t *testing.T) {
	login, err := salesforce.IdentityFromProfile("salesforce-production", map[string]any{
		"user_id":            "005xx",
		"email":              "admin@acme.org",
		"preferred_username": "admin@acme.org.dev",
		"given_name":         "Ada",
		"family_name":        "Admin",
	})
	require.NoError(t, err)
	require.Equal(t, "salesforce-production", login.Account.Provider)
	require.Equal(t, "005xx", login.Account.UID)
	require.Equal(t, "admin@acme.org", login.User.Email)
	require.Equal(t, "admin@acme.org.dev", login.User.Username)
	require.Equal(t, "Ada", login.User.FirstName)
	require.Equal(t, "Admin", login.User.LastName)
	require.Equal(t, "005xx", login.Account.ExtraData["user_id"])

	_, err = salesforce.IdentityFromProfile("salesforce-production", map[string]any{"email": "x"})
	require.ErrorIs(t, err, apperrors.ErrMissingField)
}
