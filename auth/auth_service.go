package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-sfdc-login/accounts"
	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/internal/metrics"
	"github.com/jrsteele09/go-sfdc-login/salesforce"
	"github.com/jrsteele09/go-sfdc-login/sessions"
	"github.com/jrsteele09/go-sfdc-login/token"
)

// IdentityBuilder maps a provider profile onto an account and user.
type IdentityBuilder func(providerID string, profile map[string]any) (*accounts.SocialLogin, error)

// OrgCapabilityVerifier confirms the connected user's administrative
// capability in the org and returns the org's details.
type OrgCapabilityVerifier interface {
	Verify(ctx context.Context, profile map[string]any, accessToken string) (salesforce.OrgDetails, error)
}

// LoginRequest carries everything the callback has gathered once the code
// has been exchanged.
type LoginRequest struct {
	Session  *sessions.Session // Browser session, source of the correlation verifier
	App      salesforce.App    // App the login was started against
	Token    accounts.Token    // Normalized (encrypted) credential
	Response map[string]any    // Extra fields of the token endpoint response
}

// LoginService completes a social login after the token exchange.
type LoginService struct {
	cipher   *token.Cipher
	client   *salesforce.Client
	verifier OrgCapabilityVerifier
	identity IdentityBuilder
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	nowTime  func() time.Time // nowTime function (injectable for testing)
}

// LoginServiceOption defines a function type to modify the LoginService instance.
type LoginServiceOption func(*LoginService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) LoginServiceOption {
	return func(ls *LoginService) {
		ls.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) LoginServiceOption {
	return func(ls *LoginService) {
		ls.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) LoginServiceOption {
	return func(ls *LoginService) {
		ls.metrics = m
	}
}

// WithIdentityBuilder replaces salesforce.IdentityFromProfile.
func WithIdentityBuilder(b IdentityBuilder) LoginServiceOption {
	return func(ls *LoginService) {
		ls.identity = b
	}
}

// WithOrgVerifier replaces the verifier built on the client.
func WithOrgVerifier(v OrgCapabilityVerifier) LoginServiceOption {
	return func(ls *LoginService) {
		ls.verifier = v
	}
}

// NewLoginService initializes a LoginService. The cipher and client are
// required; the org verifier defaults to one sharing the client.
func NewLoginService(cipher *token.Cipher, client *salesforce.Client, options ...LoginServiceOption) (*LoginService, error) {
	if cipher == nil {
		return nil, errors.New("[NewLoginService] cipher is required")
	}
	if client == nil {
		return nil, errors.New("[NewLoginService] client is required")
	}

	ls := &LoginService{
		cipher:   cipher,
		client:   client,
		verifier: salesforce.NewOrgVerifier(client),
		identity: salesforce.IdentityFromProfile,
		logger:   zerolog.Nop(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(ls)
	}
	return ls, nil
}

// CompleteLogin decrypts the credential, fetches the user's profile and
// builds the identity. The org capability check is best effort: when it
// fails the identity carries organization_details = nil and the login still
// succeeds. Only a credential that cannot be decrypted, a failed profile
// fetch or an unusable profile abort the login.
func (ls *LoginService) CompleteLogin(ctx context.Context, req LoginRequest) (*accounts.SocialLogin, error) {
	providerID := req.App.Tier.ProviderID()
	verifier := req.Session.Verifier()

	accessToken, err := ls.cipher.Decrypt(req.Token.AccessToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[LoginService CompleteLogin] access token")
	}

	ls.logger.Info().
		Str("tag", "oauth").
		Dict("context", zerolog.Dict().Str("verifier", verifier)).
		Str("provider", providerID).
		Msg("Calling back to Salesforce to complete login.")

	profile, err := ls.client.GetJSON(ctx, "userinfo", req.App.UserInfoURL(), accessToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[LoginService CompleteLogin] profile")
	}

	login, err := ls.identity(providerID, profile)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[LoginService CompleteLogin] identity")
	}
	if login.Account.ExtraData == nil {
		login.Account.ExtraData = accounts.ExtraData{}
	}

	var instanceURL any
	if req.Response != nil {
		instanceURL = req.Response["instance_url"]
	}
	login.Account.ExtraData[accounts.ExtraInstanceURL] = instanceURL

	details, err := ls.verifier.Verify(ctx, profile, accessToken)
	if err != nil {
		result := orgCheckResult(err)
		ls.logger.Warn().
			Err(err).
			Str("tag", "oauth").
			Dict("context", zerolog.Dict().Str("verifier", verifier)).
			Str("provider", providerID).
			Str("reason", result).
			Msg("Org capability unknown; continuing without organization details")
		ls.metrics.OrgCheck(providerID, result)
		login.Account.ExtraData[accounts.ExtraOrganizationDetails] = nil
	} else {
		ls.metrics.OrgCheck(providerID, metrics.OrgVerified)
		login.Account.ExtraData[accounts.ExtraOrganizationDetails] = map[string]any(details)
	}

	now := ls.nowTime()
	login.Account.DateJoined = now
	login.Account.LastLogin = now
	login.Token = req.Token
	return login, nil
}

func orgCheckResult(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInsufficientPermission):
		return metrics.OrgPermissionDenied
	case apperrors.Is(err, apperrors.ErrUpstream):
		return metrics.OrgUpstreamFailed
	case apperrors.Is(err, apperrors.ErrMissingField):
		return metrics.OrgMissingField
	default:
		return metrics.OrgUnexpectedFailure
	}
}
