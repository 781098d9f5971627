package checkout_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/checkout"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/stretchr/testify/require"
)

const sdkSource = "window.Razorpay = function () {};"

type scriptHost struct {
	server *httptest.Server
	hits   atomic.Int32
	fail   atomic.Bool
}

func newScriptHost(t *testing.T, delay time.Duration) *scriptHost {
	t.Helper()
	h := &scriptHost{}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		time.Sleep(delay)
		if h.fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(sdkSource))
	}))
	t.Cleanup(h.server.Close)
	return h
}

func loadConcurrently(loader *checkout.ScriptLoader, callers int) []error {
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = loader.Load(context.Background())
		}(i)
	}
	wg.Wait()
	return errs
}

func TestScriptLoader_ConcurrentLoadFetchesOnce(t *testing.T) {
	host := newScriptHost(t, 50*time.Millisecond)
	loader := checkout.NewScriptLoader(host.server.URL)

	for _, err := range loadConcurrently(loader, 10) {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), host.hits.Load())
	require.Equal(t, 1, loader.Fetches())

	script, loaded := loader.Script()
	require.True(t, loaded)
	require.Equal(t, sdkSource, string(script))

	t.Run("repeated load is a no-op", func(t *testing.T) {
		require.NoError(t, loader.Load(context.Background()))
		require.Equal(t, int32(1), host.hits.Load())
	})
}

func TestScriptLoader_FailureIsUniform(t *testing.T) {
	host := newScriptHost(t, 50*time.Millisecond)
	host.fail.Store(true)
	loader := checkout.NewScriptLoader(host.server.URL)

	errs := loadConcurrently(loader, 10)
	for _, err := range errs {
		require.ErrorIs(t, err, apperrors.ErrScriptLoad)
		require.Same(t, errs[0], err)
	}
	require.Equal(t, int32(1), host.hits.Load())

	_, loaded := loader.Script()
	require.False(t, loaded)

	t.Run("next load retries", func(t *testing.T) {
		host.fail.Store(false)
		require.NoError(t, loader.Load(context.Background()))
		require.Equal(t, int32(2), host.hits.Load())
	})
}

func TestScriptLoader_WaiterCancellation(t *testing.T) {
	host := newScriptHost(t, 200*time.Millisecond)
	loader := checkout.NewScriptLoader(host.server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, loader.Load(ctx), context.DeadlineExceeded)

	// The shared fetch was not abandoned with the first caller.
	require.NoError(t, loader.Load(context.Background()))
	require.Equal(t, int32(1), host.hits.Load())
}

type fakeOrders struct {
	order        *apiclient.CheckoutOrder
	startErr     error
	startCalls   int
	confirmation *apiclient.PaymentConfirmation
	verifyErr    error
	verified     []apiclient.PaymentProof
}

func (f *fakeOrders) StartSubscription(ctx context.Context, planID string) (*apiclient.CheckoutOrder, error) {
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	order := *f.order
	return &order, nil
}

func (f *fakeOrders) VerifyPayment(ctx context.Context, proof apiclient.PaymentProof) (*apiclient.PaymentConfirmation, error) {
	f.verified = append(f.verified, proof)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.confirmation, nil
}

type recordingGateway struct {
	name   string
	loads  int
	opened int
}

func (g *recordingGateway) Name() string { return g.name }

func (g *recordingGateway) Load(ctx context.Context) error {
	g.loads++
	return nil
}

func (g *recordingGateway) Open(ctx context.Context, order *apiclient.CheckoutOrder) (*checkout.Action, error) {
	g.opened++
	return &checkout.Action{Kind: checkout.ActionRedirect, Gateway: g.name, RedirectURL: "https://example.com"}, nil
}

func razorpayOrder() *apiclient.CheckoutOrder {
	return &apiclient.CheckoutOrder{
		Gateway: "razorpay",
		Order:   &apiclient.Order{ID: "order_123", Amount: 49900, Currency: "INR"},
	}
}

func TestBridge_Start(t *testing.T) {
	t.Run("razorpay opens overlay after load", func(t *testing.T) {
		host := newScriptHost(t, 0)
		orders := &fakeOrders{order: razorpayOrder()}
		razorpay := checkout.NewRazorpay("rzp_test_key", checkout.NewScriptLoader(host.server.URL), "/vendor/razorpay-checkout.js", "/payments/callback")
		bridge := checkout.NewBridge(orders, checkout.NewRegistry(razorpay, checkout.NewStripe()))

		action, err := bridge.Start(context.Background(), "pro_monthly")
		require.NoError(t, err)
		require.Equal(t, checkout.ActionOverlay, action.Kind)
		require.Equal(t, checkout.GatewayRazorpay, action.Gateway)
		require.Equal(t, &checkout.Overlay{
			KeyID:        "rzp_test_key",
			OrderID:      "order_123",
			Amount:       49900,
			Currency:     "INR",
			ScriptPath:   "/vendor/razorpay-checkout.js",
			CallbackPath: "/payments/callback",
			Description:  "pro_monthly",
		}, action.Overlay)
	})

	t.Run("stripe redirects", func(t *testing.T) {
		orders := &fakeOrders{order: &apiclient.CheckoutOrder{Gateway: "Stripe", CheckoutURL: "https://checkout.stripe.com/c/pay/cs_test"}}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry(checkout.NewStripe()))

		action, err := bridge.Start(context.Background(), "premium_monthly")
		require.NoError(t, err)
		require.Equal(t, checkout.ActionRedirect, action.Kind)
		require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test", action.RedirectURL)
	})

	t.Run("stripe rejects non-http checkout url", func(t *testing.T) {
		orders := &fakeOrders{order: &apiclient.CheckoutOrder{Gateway: "stripe", CheckoutURL: "javascript:alert(1)"}}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry(checkout.NewStripe()))

		_, err := bridge.Start(context.Background(), "premium_monthly")
		require.ErrorIs(t, err, apperrors.ErrOrderCreation)
	})

	t.Run("order creation failure enters no gateway", func(t *testing.T) {
		gateway := &recordingGateway{name: "razorpay"}
		orders := &fakeOrders{startErr: errors.New("backend down")}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry(gateway))

		_, err := bridge.Start(context.Background(), "pro_monthly")
		require.ErrorIs(t, err, apperrors.ErrOrderCreation)
		require.Zero(t, gateway.loads)
		require.Zero(t, gateway.opened)
	})

	t.Run("script failure opens no overlay", func(t *testing.T) {
		host := newScriptHost(t, 0)
		host.fail.Store(true)
		orders := &fakeOrders{order: razorpayOrder()}
		razorpay := checkout.NewRazorpay("rzp_test_key", checkout.NewScriptLoader(host.server.URL), "/vendor/razorpay-checkout.js", "/payments/callback")
		bridge := checkout.NewBridge(orders, checkout.NewRegistry(razorpay))

		action, err := bridge.Start(context.Background(), "pro_monthly")
		require.ErrorIs(t, err, apperrors.ErrScriptLoad)
		require.Nil(t, action)
	})

	t.Run("unknown gateway", func(t *testing.T) {
		orders := &fakeOrders{order: &apiclient.CheckoutOrder{Gateway: "paypal"}}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry(checkout.NewStripe()))

		_, err := bridge.Start(context.Background(), "pro_monthly")
		require.ErrorIs(t, err, apperrors.ErrUnknownGateway)
	})

	t.Run("unknown plan never reaches the backend", func(t *testing.T) {
		orders := &fakeOrders{order: razorpayOrder()}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry(checkout.NewStripe()))

		_, err := bridge.Start(context.Background(), "gold_forever")
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		require.Zero(t, orders.startCalls)
	})
}

func TestBridge_Complete(t *testing.T) {
	proof := apiclient.PaymentProof{OrderID: "order_123", PaymentID: "pay_456", Signature: "sig"}

	t.Run("verified", func(t *testing.T) {
		orders := &fakeOrders{confirmation: &apiclient.PaymentConfirmation{Verified: true, Plan: users.PlanPro}}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry())

		confirmation, err := bridge.Complete(context.Background(), proof)
		require.NoError(t, err)
		require.Equal(t, users.PlanPro, confirmation.Plan)
		require.Equal(t, []apiclient.PaymentProof{proof}, orders.verified)
	})

	t.Run("rejected", func(t *testing.T) {
		orders := &fakeOrders{confirmation: &apiclient.PaymentConfirmation{Verified: false}}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry())

		_, err := bridge.Complete(context.Background(), proof)
		require.ErrorIs(t, err, apperrors.ErrPaymentVerification)
	})

	t.Run("incomplete proof is not forwarded", func(t *testing.T) {
		orders := &fakeOrders{}
		bridge := checkout.NewBridge(orders, checkout.NewRegistry())

		_, err := bridge.Complete(context.Background(), apiclient.PaymentProof{OrderID: "order_123"})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		require.Empty(t, orders.verified)
	})
}

func TestPlans(t *testing.T) {
	plans := checkout.DefaultPlans()
	require.Len(t, plans, 2)
	require.Equal(t, "pro_monthly", plans[0].ID)
	require.Equal(t, users.PlanPro, plans[0].Tier)
	require.Equal(t, "INR 499.00", plans[0].DisplayPrice())

	_, err := checkout.ParsePlans([]byte("plans:\n  - id: a\n  - id: a\n"))
	require.Error(t, err)
}
