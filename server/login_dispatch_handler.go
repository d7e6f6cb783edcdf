package server

import (
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/salesforce"
	"github.com/jrsteele09/go-sfdc-login/sessions"
)

// LoginDispatch starts the authorization code flow for the tier named in the
// path: it records a fresh verifier in the session and redirects the browser
// to the tier's authorize endpoint with the verifier as the OAuth state.
func (s *Server) LoginDispatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The dispatch log line reads the verifier after this handler, so it
		// must only ever see one minted here.
		sess := sessions.FromContext(r.Context())
		sess.LoginState = nil

		tier, err := salesforce.ParseTier(r.PathValue("provider"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		baseURL, err := tier.BaseURL(r.URL.Query(), sess)
		if err != nil {
			s.failLogin(w, r, tier, err)
			return
		}
		app := salesforce.NewApp(tier, baseURL, s.config.GetClientID(), s.config.GetClientSecret())

		state := &sessions.LoginState{
			Verifier:     generateRandomString(verifierLength),
			CodeVerifier: oauth2.GenerateVerifier(),
			Provider:     tier.ProviderID(),
			Next:         safeNext(r.URL.Query().Get("next")),
			CreatedAt:    time.Now(),
		}
		opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(state.CodeVerifier)}
		if s.config.GetVerifyIDToken() {
			state.Nonce = generateRandomString(verifierLength)
			opts = append(opts, oidc.Nonce(state.Nonce))
		}
		sess.LoginState = state

		if err := s.saveSession(r.Context(), w, r, sess); err != nil {
			s.failLogin(w, r, tier, apperrors.Wrapf(err, "[LoginDispatch] save session"))
			return
		}

		authURL := app.OAuth2Config(s.callbackURL(tier), s.config.GetScopes()).AuthCodeURL(state.Verifier, opts...)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// failLogin logs a login that could not proceed and redirects to the
// configured error page.
func (s *Server) failLogin(w http.ResponseWriter, r *http.Request, tier salesforce.Tier, err error) {
	code := apperrors.Code(err)
	s.logger.Error().
		Err(err).
		Str("tag", "oauth").
		Dict("context", zerolog.Dict().Str("verifier", sessions.FromContext(r.Context()).Verifier())).
		Str("provider", tier.ProviderID()).
		Str("code", code).
		Msg("OAuth login failed")
	redirectWithError(w, r, s.config.GetLoginErrorURL(), code)
}
