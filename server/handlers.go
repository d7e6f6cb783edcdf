package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/sessions"
)

// MeResponse describes the logged in account.
type MeResponse struct {
	Provider            string         `json:"provider"`
	UID                 string         `json:"uid"`
	Username            string         `json:"username"`
	Email               string         `json:"email,omitempty"`
	InstanceURL         string         `json:"instance_url,omitempty"`
	OrganizationDetails map[string]any `json:"organization_details"`
	OrgVerified         bool           `json:"org_verified"`
}

// MeHandler returns the account behind the app session cookie.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(appSessionCookieName)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "not_logged_in")
			return
		}
		claims, err := s.deps.Issuer.Parse(cookie.Value)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, apperrors.Code(err))
			return
		}
		login, err := s.deps.Accounts.Get(r.Context(), claims.Provider, claims.UID)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "not_logged_in")
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Str("provider", claims.Provider).Msg("account lookup failed")
			writeJSONError(w, http.StatusInternalServerError, "internal_error")
			return
		}

		extra := login.Account.ExtraData
		writeJSON(w, http.StatusOK, MeResponse{
			Provider:            login.Account.Provider,
			UID:                 login.Account.UID,
			Username:            login.User.Username,
			Email:               login.User.Email,
			InstanceURL:         extra.InstanceURL(),
			OrganizationDetails: extra.OrganizationDetails(),
			OrgVerified:         extra.OrgVerified(),
		})
	}
}

// LogoutHandler drops the browser session and the app session cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess := sessions.FromContext(r.Context()); sess != nil {
			if err := s.deps.Sessions.Delete(r.Context(), sess.ID); err != nil {
				s.logger.Warn().Err(err).Msg("failed to delete session on logout")
			}
		}
		clearCookie(w, browserSessionCookieName)
		clearCookie(w, appSessionCookieName)

		next := safeNext(r.URL.Query().Get("next"))
		if next == "" {
			next = "/"
		}
		http.Redirect(w, r, next, http.StatusFound)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
