package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex   = "/"
	RouteHealthz = "/healthz"
	RoutePricing = "/pricing"

	// Public-only routes, signed-in users are sent to the dashboard
	RouteLogin          = "/login"
	RouteSignup         = "/signup"
	RouteForgotPassword = "/forgot-password"

	// Google sign-in
	RouteGoogleLogin    = "/auth/google"
	RouteGoogleCallback = "/auth/google/callback"

	// Protected routes
	RouteDashboard        = "/dashboard"
	RouteProfile          = "/profile"
	RouteLogout           = "/logout"
	RouteATS              = "/ats"
	RouteResume           = "/resume"
	RouteCoverLetter      = "/cover-letter"
	RouteJobFit           = "/job-fit"
	RouteLinkedIn         = "/linkedin"
	RouteTemplates        = "/templates"
	RouteTemplateDownload = "/templates/{id}/download"
	RouteSubscribe        = "/subscribe"
	RoutePaymentCallback  = "/payments/callback"

	// Static Asset Routes (patterns)
	RouteStaticCSS      = "/css/{file}"
	RouteStaticJS       = "/js/{file}"
	RouteVendorRazorpay = "/vendor/razorpay-checkout.js"
)
