package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-sfdc-login/sessions"
)

// phase says whether the verifier is read before or after the wrapped
// handler runs.
type phase int

const (
	beforeHandler phase = iota
	afterHandler
)

const (
	loginDispatchMessage    = "Dispatching OAuth login"
	callbackDispatchMessage = "Dispatching OAuth callback"
)

// correlate wraps a handler with one structured log event carrying the
// login's correlation verifier, so the login and callback halves of a
// round trip can be joined in the logs. The handler's behavior is unchanged.
func correlate(logger zerolog.Logger, msg string, when phase, extract func(*http.Request) string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if when == beforeHandler {
				logDispatch(logger, msg, r, extract(r))
				next(w, r)
				return
			}
			next(w, r)
			logDispatch(logger, msg, r, extract(r))
		}
	}
}

func logDispatch(logger zerolog.Logger, msg string, r *http.Request, verifier string) {
	logger.Info().
		Str("tag", "oauth").
		Dict("context", zerolog.Dict().Str("verifier", verifier)).
		Str("provider", r.PathValue("provider")).
		Msg(msg)
}

// LogLoginDispatch logs the verifier the login handler stored in the session.
func (s *Server) LogLoginDispatch(next http.HandlerFunc) http.HandlerFunc {
	return correlate(s.logger, loginDispatchMessage, afterHandler, verifierFromSession)(next)
}

// LogCallbackDispatch logs the state echoed back by the provider.
func (s *Server) LogCallbackDispatch(next http.HandlerFunc) http.HandlerFunc {
	return correlate(s.logger, callbackDispatchMessage, beforeHandler, stateFromRequest)(next)
}

func verifierFromSession(r *http.Request) string {
	return sessions.FromContext(r.Context()).Verifier()
}

func stateFromRequest(r *http.Request) string {
	return r.FormValue("state")
}
