package server

import (
	"net/http"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/checkout"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/rs/zerolog/log"
)

// PricingPageData contains data for rendering the plan list
type PricingPageData struct {
	Page
	Plans []checkout.Plan
}

// PricingHandler lists the plans. Signed-in users get subscribe buttons.
func (s *Server) PricingHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("pricing.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, http.StatusOK, PricingPageData{
			Page:  s.newPage(r, "Pricing"),
			Plans: s.bridge.Plans(),
		})
	}
}

// CheckoutPageData contains data for rendering the payment overlay page
type CheckoutPageData struct {
	Page
	Plan    checkout.Plan
	Overlay *checkout.Overlay
}

// SubscribeHandler starts a checkout for the posted plan and hands the browser
// to the gateway: an overlay page for script gateways, a redirect otherwise.
func (s *Server) SubscribeHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("checkout.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		planID := r.FormValue("plan_id")

		action, err := s.bridge.Start(r.Context(), planID)
		if err != nil {
			if navigated(w) || r.Context().Err() != nil {
				return
			}
			redirectWithError(w, r, RoutePricing, checkoutErrorMessage(err))
			return
		}

		switch action.Kind {
		case checkout.ActionRedirect:
			redirectSuccess(w, r, action.RedirectURL)
		case checkout.ActionOverlay:
			overlay := *action.Overlay
			if user := currentUser(r); user != nil {
				overlay.PrefillName = user.Name
				overlay.PrefillEmail = user.Email
			}
			plan, _ := s.bridge.Plan(planID)
			render(w, r, tmpl, http.StatusOK, CheckoutPageData{
				Page:    s.newPage(r, "Checkout"),
				Plan:    plan,
				Overlay: &overlay,
			})
		default:
			log.Error().Str("kind", string(action.Kind)).Msg("unknown checkout action")
			redirectWithError(w, r, RoutePricing, "Checkout is unavailable right now")
		}
	}
}

// PaymentCallbackHandler receives the overlay's payment proof and has the
// backend verify it. The plan only changes once the backend confirms.
func (s *Server) PaymentCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		proof := apiclient.PaymentProof{
			OrderID:   r.FormValue("razorpay_order_id"),
			PaymentID: r.FormValue("razorpay_payment_id"),
			Signature: r.FormValue("razorpay_signature"),
		}

		confirmation, err := s.bridge.Complete(r.Context(), proof)
		if err != nil {
			if navigated(w) || r.Context().Err() != nil {
				return
			}
			log.Warn().Err(err).Str("order_id", proof.OrderID).Msg("payment not verified")
			redirectWithError(w, r, RoutePricing, checkoutErrorMessage(err))
			return
		}

		store := storeFrom(r)
		if current, ok := store.Read(); ok && current.User != nil && confirmation.Plan != "" {
			user := *current.User
			user.Plan = confirmation.Plan
			if err := store.UpdateUser(user); err != nil {
				log.Warn().Err(err).Msg("Failed to store upgraded plan")
			}
		}
		redirectWithNotice(w, r, RouteDashboard, "Payment received. Your plan has been upgraded.")
	}
}

// VendorScriptHandler serves the payment SDK fetched by the script loader.
// A request before the first successful load triggers one.
func (s *Server) VendorScriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		script, ok := s.scripts.Script()
		if !ok {
			if err := s.scripts.Load(r.Context()); err != nil {
				log.Warn().Err(err).Msg("payment script unavailable")
				http.Error(w, "payment SDK failed to load", http.StatusServiceUnavailable)
				return
			}
			script, _ = s.scripts.Script()
		}
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write(script)
	}
}

// checkoutErrorMessage keeps an SDK failure distinguishable from a backend outage
func checkoutErrorMessage(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrScriptLoad):
		return "The payment provider failed to load. Please try again in a moment."
	case apperrors.Is(err, apperrors.ErrOrderCreation):
		return "We couldn't start your checkout. Please try again."
	case apperrors.Is(err, apperrors.ErrPaymentVerification):
		return "We couldn't confirm your payment. If you were charged, contact support."
	case apperrors.Is(err, apperrors.ErrUnknownGateway):
		return "This payment method is not supported."
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return "The checkout request was incomplete. Please choose a plan and try again."
	default:
		return "Checkout is unavailable right now."
	}
}
