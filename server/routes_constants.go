package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Social login routes, one provider per Salesforce tier
	RouteLoginPage     = "/accounts/login/"
	RouteLogin         = "/accounts/{provider}/login/"
	RouteLoginCallback = "/accounts/{provider}/login/callback/"
	RouteLogout        = "/accounts/logout/"

	// API Routes
	RouteAPIMe = "/api/me"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
