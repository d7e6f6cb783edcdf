package server

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("GET "+exact(RouteLoginPage), ChainMiddleware(s.LoginPageUIHandler(), s.RecoverMiddleware, s.LoggingMiddleware, s.FrameSecurityMiddleware))
	s.RegisterRouteFunc("GET "+exact(RouteLogin), ChainMiddleware(s.LoginDispatch(), s.BrowserMiddleware(s.LogLoginDispatch)...))
	s.RegisterRouteFunc("GET "+exact(RouteLoginCallback), ChainMiddleware(s.CallbackDispatch(), s.BrowserMiddleware(s.LogCallbackDispatch)...))
	s.RegisterRouteFunc("POST "+exact(RouteLoginCallback), ChainMiddleware(s.CallbackDispatch(), s.BrowserMiddleware(s.LogCallbackDispatch)...)) // For form_post response mode
	s.RegisterRouteFunc("GET "+exact(RouteLogout), ChainMiddleware(s.LogoutHandler(), s.BrowserMiddleware()...))

	// API routes
	s.RegisterRouteFunc("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	}
}

// exact anchors a trailing-slash route so it does not match deeper paths.
func exact(route string) string {
	return route + "{$}"
}
