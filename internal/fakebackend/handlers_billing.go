package fakebackend

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/resumeforge-web/users"
)

type planPrice struct {
	tier   users.PlanTier
	amount int64
}

var planPrices = map[string]planPrice{
	"pro_monthly":     {tier: users.PlanPro, amount: 49900},
	"premium_monthly": {tier: users.PlanPremium, amount: 99900},
}

// featureAllowance reports whether one more use fits the user's plan and how many remain
func (b *Backend) featureAllowance(account *users.Account, feature string) (bool, int) {
	plan := account.Plan
	if plan == "" {
		plan = users.PlanFree
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	limit, known := b.quotas[plan][feature]
	if !known {
		return false, 0
	}
	if limit == unlimited {
		return true, unlimited
	}
	remaining := limit - b.usage[account.ID][feature]
	return remaining > 0, max(remaining, 0)
}

// consume records one use of feature, or reports false when the quota is spent
func (b *Backend) consume(account *users.Account, feature string) bool {
	allowed, _ := b.featureAllowance(account, feature)
	if !allowed {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.usage[account.ID] == nil {
		b.usage[account.ID] = make(map[string]int)
	}
	b.usage[account.ID][feature]++
	return true
}

func (b *Backend) handleCheckFeature(w http.ResponseWriter, r *http.Request) {
	feature := r.PathValue("feature")
	allowed, remaining := b.featureAllowance(accountFrom(r), feature)

	body := map[string]any{"feature": feature, "allowed": allowed}
	if remaining != unlimited {
		body["remaining"] = remaining
	}
	writeJSON(w, http.StatusOK, body)
}

func (b *Backend) handleStartSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request")
		return
	}
	price, ok := planPrices[req.PlanID]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown_plan", "Unknown plan")
		return
	}

	o := &order{
		ID:      "order_" + uuid.New().String()[:14],
		UserID:  accountFrom(r).ID,
		PlanID:  req.PlanID,
		Tier:    price.tier,
		Amount:  price.amount,
		Gateway: b.gateway,
	}
	b.mu.Lock()
	b.orders[o.ID] = o
	b.mu.Unlock()

	resp := map[string]any{"gateway": o.Gateway, "plan_id": o.PlanID}
	switch o.Gateway {
	case "stripe":
		resp["checkout_url"] = fmt.Sprintf("http://%s%s%s", r.Host, stripeCheckoutPathBase, o.ID)
	default:
		resp["order"] = map[string]any{
			"id":       o.ID,
			"amount":   o.Amount,
			"currency": "INR",
			"key_id":   b.razorpayKeyID,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SignPayment returns the signature Razorpay would attach to a successful payment
func (b *Backend) SignPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(b.razorpaySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (b *Backend) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var proof struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := decodeJSON(r, &proof); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request")
		return
	}

	account := accountFrom(r)
	b.mu.Lock()
	o, ok := b.orders[proof.OrderID]
	b.mu.Unlock()
	if !ok || o.UserID != account.ID {
		writeError(w, http.StatusNotFound, "unknown_order", "Order not found")
		return
	}

	expected := b.SignPayment(proof.OrderID, proof.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(proof.Signature)) {
		writeJSON(w, http.StatusOK, map[string]any{"verified": false, "message": "Signature mismatch"})
		return
	}

	b.mu.Lock()
	o.Paid = true
	b.mu.Unlock()
	if err := b.accounts.SetPlan(account.ID, o.Tier); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "Could not upgrade plan")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verified": true, "plan": o.Tier, "message": "Payment successful"})
}

// handleStripeCheckout stands in for the hosted Stripe page: visiting it pays the order.
func (b *Backend) handleStripeCheckout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	o, ok := b.orders[r.PathValue("id")]
	if ok {
		o.Paid = true
	}
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := b.accounts.SetPlan(o.UserID, o.Tier); err != nil {
		http.Error(w, "could not upgrade plan", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Order %s paid. You can close this tab.\n", o.ID)
}

// razorpayScript mimics the SDK surface the checkout page uses. Opening the
// overlay "pays" immediately and hands a correctly signed proof to the handler.
const razorpayScript = `(function () {
  var signURL = %q;
  window.Razorpay = function (options) {
    this.open = function () {
      var paymentId = "pay_fake_" + Date.now();
      fetch(signURL + "?order_id=" + encodeURIComponent(options.order_id) + "&payment_id=" + paymentId)
        .then(function (r) { return r.text(); })
        .then(function (signature) {
          options.handler({
            razorpay_order_id: options.order_id,
            razorpay_payment_id: paymentId,
            razorpay_signature: signature
          });
        });
    };
  };
})();
`

func (b *Backend) handleRazorpayScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = fmt.Fprintf(w, razorpayScript, "http://"+r.Host+razorpaySignPath)
}

func (b *Backend) handleRazorpaySign(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.SignPayment(r.URL.Query().Get("order_id"), r.URL.Query().Get("payment_id"))))
}
