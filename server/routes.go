package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RoutePricing, ChainMiddleware(s.PricingHandler(), s.HTMLMiddleWare()...))

	// LOGIN / SIGNUP, only while signed out
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare(s.RequirePublicOnly)...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware, s.RequirePublicOnly)...))
	s.RegisterRouteHandler("GET "+RouteSignup, ChainMiddleware(s.SignupGetHandler(), s.HTMLMiddleWare(s.RequirePublicOnly)...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware, s.RequirePublicOnly)...))
	s.RegisterRouteHandler("GET "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordGetHandler(), s.HTMLMiddleWare(s.RequirePublicOnly)...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordPostHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware, s.RequirePublicOnly)...))

	// Google sign-in
	s.RegisterRouteHandler("GET "+RouteGoogleLogin, ChainMiddleware(s.GoogleLoginHandler(), s.HTMLMiddleWare(s.RequirePublicOnly)...))
	s.RegisterRouteHandler("GET "+RouteGoogleCallback, ChainMiddleware(s.GoogleCallbackHandler(), s.HTMLMiddleWare()...))

	// Signed-in area
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileGetHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("POST "+RouteProfile, ChainMiddleware(s.ProfilePostHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.RequireSession)...))

	// Quota-consuming tools
	for _, t := range s.tools() {
		s.RegisterRouteHandler("GET "+t.Path, ChainMiddleware(s.ToolPageHandler(t), s.HTMLMiddleWare(s.RequireSession)...))
		s.RegisterRouteHandler("POST "+t.Path, ChainMiddleware(s.ToolSubmitHandler(t), s.HTMLMiddleWare(s.RateLimitMiddleware, s.RequireSession)...))
	}
	s.RegisterRouteHandler("GET "+RouteTemplates, ChainMiddleware(s.TemplatesHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("GET "+RouteTemplateDownload, ChainMiddleware(s.TemplateDownloadHandler(), s.HTMLMiddleWare(s.RequireSession)...))

	// Checkout
	s.RegisterRouteHandler("POST "+RouteSubscribe, ChainMiddleware(s.SubscribeHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("POST "+RoutePaymentCallback, ChainMiddleware(s.PaymentCallbackHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("GET "+RouteVendorRazorpay, ChainMiddleware(s.VendorScriptHandler(), s.StaticMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.staticAssetHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.staticAssetHandler(), s.StaticMiddleware()...))
}
