package server

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-sfdc-login/salesforce"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName        string
	Providers      []LoginPageProvider // Fixed-URL tiers
	CustomLoginURL string              // Form target for the custom domain tier
	Next           string              // Passed through to the login route
	Error          string              // Code from a failed login
}

type LoginPageProvider struct {
	Name     string
	LoginURL string
}

// LoginPageUIHandler renders a chooser linking to each tier's login route.
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl := template.Must(ParseTemplate("login.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		next := safeNext(r.URL.Query().Get("next"))

		data := LoginPageData{
			AppName:        s.config.GetAppName(),
			CustomLoginURL: loginRoute(salesforce.TierCustom),
			Next:           next,
			Error:          r.URL.Query().Get("error"),
		}
		for _, tier := range salesforce.Tiers {
			if tier == salesforce.TierCustom {
				continue
			}
			loginURL := loginRoute(tier)
			if next != "" {
				loginURL += "?next=" + template.URLQueryEscaper(next)
			}
			data.Providers = append(data.Providers, LoginPageProvider{Name: tier.Name(), LoginURL: loginURL})
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			s.logger.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

func loginRoute(tier salesforce.Tier) string {
	return strings.Replace(RouteLogin, "{provider}", tier.ProviderID(), 1)
}
