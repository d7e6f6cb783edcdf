package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-sfdc-login/auth"
	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/salesforce"
	"github.com/jrsteele09/go-sfdc-login/sessions"
)

// tokenResponseExtras are the token endpoint fields carried into the login.
var tokenResponseExtras = []string{"instance_url", "id", "issued_at", "scope"}

// CallbackDispatch completes the flow started by LoginDispatch. The login
// state is single use: it is removed from the session whatever the outcome.
func (s *Server) CallbackDispatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tier, err := salesforce.ParseTier(r.PathValue("provider"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		sess := sessions.FromContext(r.Context())

		next, err := s.completeCallback(w, r, tier, sess)
		s.metrics.LoginCompleted(tier.ProviderID(), err)
		if err != nil {
			s.failLogin(w, r, tier, err)
			if sess.LoginState != nil {
				sess.LoginState = nil
				if saveErr := s.deps.Sessions.Save(r.Context(), sess); saveErr != nil {
					s.logger.Warn().Err(saveErr).Msg("failed to clear login state")
				}
			}
			return
		}
		http.Redirect(w, r, next, http.StatusFound)
	}
}

// completeCallback runs the callback and returns the post-login redirect.
func (s *Server) completeCallback(w http.ResponseWriter, r *http.Request, tier salesforce.Tier, sess *sessions.Session) (string, error) {
	state := sess.LoginState
	if state == nil {
		return "", apperrors.Wrapf(apperrors.ErrSessionExpired, "[CallbackDispatch] no login in progress")
	}
	returned := r.FormValue("state")
	if returned == "" || subtle.ConstantTimeCompare([]byte(returned), []byte(state.Verifier)) != 1 || state.Provider != tier.ProviderID() {
		return "", apperrors.ErrInvalidState
	}

	if errorParam := r.FormValue("error"); errorParam != "" {
		return "", fmt.Errorf("%w: %s - %s", apperrors.ErrAuthorizationDeny, errorParam, r.FormValue("error_description"))
	}
	code := r.FormValue("code")
	if code == "" {
		return "", fmt.Errorf("%w: missing code", apperrors.ErrAuthorizationDeny)
	}

	// The exchange goes to the host the authorize request used, so a
	// custom_domain on the callback URL is ignored.
	baseURL, err := tier.BaseURL(nil, sess)
	if err != nil {
		return "", err
	}
	app := salesforce.NewApp(tier, baseURL, s.config.GetClientID(), s.config.GetClientSecret())

	tok, err := s.exchange(r.Context(), app, tier, code, state.CodeVerifier)
	if err != nil {
		return "", err
	}

	if s.config.GetVerifyIDToken() {
		if err := s.verifyIDToken(r.Context(), app, tok, state.Nonce); err != nil {
			return "", err
		}
	}

	response := make(map[string]any, len(tokenResponseExtras))
	for _, key := range tokenResponseExtras {
		if v := tok.Extra(key); v != nil {
			response[key] = v
		}
	}

	if err := s.deps.Normalizer.Normalize(tok); err != nil {
		return "", err
	}
	record := s.deps.Normalizer.Record(tok, app.ClientID)

	login, err := s.deps.Login.CompleteLogin(r.Context(), auth.LoginRequest{
		Session:  sess,
		App:      app,
		Token:    record,
		Response: response,
	})
	if err != nil {
		return "", err
	}

	if err := s.deps.Accounts.Save(r.Context(), login); err != nil {
		return "", apperrors.Wrapf(err, "[CallbackDispatch] save account")
	}

	appSession, err := s.deps.Issuer.Issue(login.Account.Provider, login.Account.UID, login.User.Username)
	if err != nil {
		return "", err
	}
	s.SetAppSessionCookie(w, r, appSession)

	sess.LoginState = nil
	if err := s.saveSession(r.Context(), w, r, sess); err != nil {
		return "", apperrors.Wrapf(err, "[CallbackDispatch] save session")
	}

	if state.Next != "" {
		return state.Next, nil
	}
	return s.config.GetLoginSuccessURL(), nil
}

// exchange trades the code for tokens under the outbound call timeout.
func (s *Server) exchange(ctx context.Context, app salesforce.App, tier salesforce.Tier, code, codeVerifier string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.GetHTTPTimeout())
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.deps.Client.HTTPClient())

	tok, err := app.OAuth2Config(s.callbackURL(tier), s.config.GetScopes()).Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		upstream := &apperrors.UpstreamError{Op: "token exchange", URL: app.TokenURL(), Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			upstream.StatusCode = retrieveErr.Response.StatusCode
		}
		return nil, upstream
	}
	return tok, nil
}

// verifyIDToken checks the id_token signature against the tier's JWKS, its
// issuer, audience and nonce.
func (s *Server) verifyIDToken(ctx context.Context, app salesforce.App, tok *oauth2.Token, nonce string) error {
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return fmt.Errorf("%w: no id_token in response", apperrors.ErrInvalidIDToken)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.GetHTTPTimeout())
	defer cancel()
	ctx = oidc.ClientContext(ctx, s.deps.Client.HTTPClient())

	keySet := oidc.NewRemoteKeySet(ctx, app.KeysURL())
	idToken, err := oidc.NewVerifier(app.Issuer(), keySet, &oidc.Config{ClientID: app.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidIDToken, err)
	}
	// Validate nonce to prevent replay attacks
	if nonce != "" && subtle.ConstantTimeCompare([]byte(idToken.Nonce), []byte(nonce)) != 1 {
		return fmt.Errorf("%w: nonce mismatch", apperrors.ErrInvalidIDToken)
	}
	return nil
}
