package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-sfdc-login/accounts"
	"github.com/jrsteele09/go-sfdc-login/auth"
	"github.com/jrsteele09/go-sfdc-login/internal/config"
	"github.com/jrsteele09/go-sfdc-login/internal/metrics"
	"github.com/jrsteele09/go-sfdc-login/salesforce"
	"github.com/jrsteele09/go-sfdc-login/sessions"
	"github.com/jrsteele09/go-sfdc-login/token"
	"github.com/jrsteele09/go-sfdc-login/token/jwt"
)

// Deps holds the collaborators the server dispatches to.
type Deps struct {
	Sessions   sessions.Repo      // Browser session storage
	Accounts   accounts.Repo      // Completed logins
	Normalizer *token.Normalizer  // Encrypts exchanged tokens
	Issuer     *jwt.SessionIssuer // App session cookie after login
	Login      *auth.LoginService // Completes a login after the exchange
	Client     *salesforce.Client // Shared HTTP client and timeout for outbound calls
	Metrics    *metrics.Metrics   // Optional
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	logger  zerolog.Logger
	deps    Deps
	metrics *metrics.Metrics
}

func New(cfg config.Config, deps Deps, logger zerolog.Logger) (*Server, error) {
	switch {
	case deps.Sessions == nil:
		return nil, errors.New("[Server New] sessions repo is required")
	case deps.Accounts == nil:
		return nil, errors.New("[Server New] accounts repo is required")
	case deps.Normalizer == nil:
		return nil, errors.New("[Server New] token normalizer is required")
	case deps.Issuer == nil:
		return nil, errors.New("[Server New] session issuer is required")
	case deps.Login == nil:
		return nil, errors.New("[Server New] login service is required")
	case deps.Client == nil:
		return nil, errors.New("[Server New] salesforce client is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		logger:  logger,
		deps:    deps,
		metrics: deps.Metrics,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.logger.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}

// callbackURL is the redirect URI registered with the connected app.
func (s *Server) callbackURL(tier salesforce.Tier) string {
	return strings.TrimRight(s.config.GetBaseURL(), "/") + strings.Replace(RouteLoginCallback, "{provider}", tier.ProviderID(), 1)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
