package server_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/resumeforge-web/internal/config"
	"github.com/jrsteele09/resumeforge-web/internal/fakebackend"
	"github.com/jrsteele09/resumeforge-web/server"
	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "jane@example.com"
	testPassword = "Password123"
)

type testApp struct {
	backend *fakebackend.Backend
	account *users.Account
	url     string
	client  *http.Client
}

func newTestApp(t *testing.T, env map[string]string, options ...fakebackend.Option) *testApp {
	t.Helper()

	backend := fakebackend.New(options...)
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	account, err := backend.CreateAccount("Jane Doe", testEmail, testPassword, users.PlanFree)
	require.NoError(t, err)

	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("API_BASE_URL", api.URL)
	t.Setenv("API_VERSION", fakebackend.DefaultPrefix)
	t.Setenv("SESSION_SECRET", "server-test-session-secret")
	t.Setenv("RAZORPAY_SCRIPT_URL", api.URL+fakebackend.RazorpayScriptPath)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("RATE_LIMIT_RPS", "0")
	for k, v := range env {
		t.Setenv(k, v)
	}

	s, err := server.New(config.New())
	require.NoError(t, err)
	frontend := httptest.NewServer(s)
	t.Cleanup(frontend.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{
		backend: backend,
		account: account,
		url:     frontend.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *testApp) get(t *testing.T, path string, headers ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.url+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.do(t, req)
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.url+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) login(t *testing.T) {
	t.Helper()
	resp, _ := a.postForm(t, server.RouteLogin, url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, server.RouteDashboard, resp.Header.Get("Location"))
}

func TestLogin_ReachesProtectedRoute(t *testing.T) {
	app := newTestApp(t, nil)

	app.login(t)

	resp, body := app.get(t, server.RouteDashboard)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
	assert.Contains(t, body, "Welcome, Jane Doe")
	assert.Equal(t, 1, app.backend.Calls("GET /auth/verify"))
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t, nil)

	resp, _ := app.postForm(t, server.RouteLogin, url.Values{"email": {testEmail}, "password": {"wrong-password"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, server.RouteLogin+"?"), location)
	assert.Contains(t, location, "email=jane%40example.com")

	resp, _ = app.get(t, server.RouteDashboard)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
}

func TestProtectedRoute_WithoutToken(t *testing.T) {
	app := newTestApp(t, nil)

	t.Run("browser navigation", func(t *testing.T) {
		resp, body := app.get(t, server.RouteDashboard)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
		assert.NotContains(t, body, "Welcome")
	})

	t.Run("htmx request", func(t *testing.T) {
		resp, _ := app.get(t, server.RouteATS, "HX-Request", "true")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, server.RouteLogin, resp.Header.Get("HX-Redirect"))
	})

	assert.Zero(t, app.backend.Calls("GET /auth/verify"), "no token means no verification call")
}

func TestPublicOnlyRoute_RedirectsSignedInUser(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := app.get(t, server.RouteLogin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sign in")

	app.login(t)

	for _, path := range []string{server.RouteLogin, server.RouteSignup, server.RouteForgotPassword} {
		resp, _ := app.get(t, path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, server.RouteDashboard, resp.Header.Get("Location"), path)
	}
}

func TestRevokedSession_SignsOut(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, _ := app.get(t, server.RouteDashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	app.backend.RevokeUser(app.account.ID)

	resp, body := app.get(t, server.RouteProfile)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
	assert.NotContains(t, body, "Your profile")
	verifyCalls := app.backend.Calls("GET /auth/verify")

	// The cookies were cleared, so the next visit is refused without a backend round trip
	resp, _ = app.get(t, server.RouteDashboard)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
	assert.Equal(t, verifyCalls, app.backend.Calls("GET /auth/verify"))

	resp, _ = app.get(t, server.RouteLogin)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "login page is reachable again")
}

func atsRequest(t *testing.T, app *testApp) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("job_description", "Senior Go engineer, distributed systems"))
	part, err := mw.CreateFormFile("resume", "resume.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Jane Doe\nGo, Kubernetes, PostgreSQL"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, app.url+server.RouteATS, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestATSCheck(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		app := newTestApp(t, nil)
		app.login(t)

		resp, body := app.do(t, atsRequest(t, app))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `class="artifact"`)
		assert.Equal(t, 1, app.backend.Calls("POST /ats/check"))
	})

	t.Run("allowance used up", func(t *testing.T) {
		app := newTestApp(t, nil)
		app.login(t)
		app.backend.SetUsage(app.account.ID, "ats_using", 3)

		resp, body := app.do(t, atsRequest(t, app))
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Contains(t, body, `data-feature="ats_using"`)
		assert.Contains(t, body, `href="/pricing"`)
		assert.Equal(t, 1, app.backend.Calls("GET /check-feature/ats_using"))
		assert.Zero(t, app.backend.Calls("POST /ats/check"), "denied check must not reach the paid action")
	})

	t.Run("htmx gets the result fragment", func(t *testing.T) {
		app := newTestApp(t, nil)
		app.login(t)
		app.backend.SetUsage(app.account.ID, "ats_using", 3)

		req := atsRequest(t, app)
		req.Header.Set("HX-Request", "true")
		resp, body := app.do(t, req)
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Contains(t, body, `data-feature="ats_using"`)
		assert.NotContains(t, body, "<html")
	})
}

func TestToolSubmit_RequiredField(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, body := app.postForm(t, server.RouteResume, url.Values{"company": {"Acme"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Job title is required")
	assert.Zero(t, app.backend.Calls("GET /check-feature/resume_generation"))
}

func TestTemplates(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, body := app.get(t, server.RouteTemplates)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Classic")
	assert.Contains(t, body, "Premium")

	resp, _ = app.get(t, "/templates/classic/download")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="classic.pdf"`, resp.Header.Get("Content-Disposition"))

	resp, _ = app.get(t, "/templates/bad.id/download")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	app.backend.SetUsage(app.account.ID, "template_download", 2)
	resp, body = app.get(t, "/templates/modern/download")
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Contains(t, body, `data-feature="template_download"`)
	assert.Equal(t, 1, app.backend.Calls("GET /templates/classic/download"))
	assert.Zero(t, app.backend.Calls("GET /templates/modern/download"))
}

var orderIDPattern = regexp.MustCompile(`data-order-id="([^"]+)"`)

func TestCheckout_Razorpay(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, body := app.postForm(t, server.RouteSubscribe, url.Values{"plan_id": {"pro_monthly"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `src="`+server.RouteVendorRazorpay+`"`)
	assert.Contains(t, body, `data-prefill-email="jane@example.com"`)
	match := orderIDPattern.FindStringSubmatch(body)
	require.Len(t, match, 2)
	orderID := match[1]
	assert.Equal(t, 1, app.backend.Calls("GET "+fakebackend.RazorpayScriptPath))

	resp, body = app.get(t, server.RouteVendorRazorpay)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "window.Razorpay")
	assert.Equal(t, 1, app.backend.Calls("GET "+fakebackend.RazorpayScriptPath), "script is fetched once")

	t.Run("forged signature", func(t *testing.T) {
		resp, _ := app.postForm(t, server.RoutePaymentCallback, url.Values{
			"razorpay_order_id":   {orderID},
			"razorpay_payment_id": {"pay_test"},
			"razorpay_signature":  {"forged"},
		})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), server.RoutePricing+"?error="))
	})

	t.Run("verified payment", func(t *testing.T) {
		resp, _ := app.postForm(t, server.RoutePaymentCallback, url.Values{
			"razorpay_order_id":   {orderID},
			"razorpay_payment_id": {"pay_test"},
			"razorpay_signature":  {app.backend.SignPayment(orderID, "pay_test")},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), server.RouteDashboard+"?notice="))

		resp, body := app.get(t, server.RouteDashboard)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "<strong>pro</strong>")
		assert.NotContains(t, body, "Upgrade")
	})
}

func TestCheckout_ScriptUnavailable(t *testing.T) {
	app := newTestApp(t, map[string]string{"RAZORPAY_SCRIPT_URL": "http://127.0.0.1:1/checkout.js"})
	app.login(t)

	resp, _ := app.postForm(t, server.RouteSubscribe, url.Values{"plan_id": {"pro_monthly"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, server.RoutePricing, location.Path)
	assert.Contains(t, location.Query().Get("error"), "payment provider failed to load")
}

func TestCheckout_Stripe(t *testing.T) {
	app := newTestApp(t, nil, fakebackend.WithGateway("stripe"))
	app.login(t)

	resp, _ := app.postForm(t, server.RouteSubscribe, url.Values{"plan_id": {"pro_monthly"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/stripe/checkout/order_")
	assert.Zero(t, app.backend.Calls("GET "+fakebackend.RazorpayScriptPath))
}

func TestCheckout_UnknownPlan(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, _ := app.postForm(t, server.RouteSubscribe, url.Values{"plan_id": {"gold_forever"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), server.RoutePricing+"?error="))
	assert.Zero(t, app.backend.Calls("POST /subscription/start"))
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, _ := app.postForm(t, server.RouteLogout, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteLogin, resp.Header.Get("Location"))

	resp, _ = app.get(t, server.RouteDashboard)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
}

func TestHealthzAndStatic(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := app.get(t, server.RouteHealthz)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = app.get(t, "/css/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.NotEmpty(t, resp.Header.Get("Cache-Control"))
	assert.Contains(t, body, ".topbar")

	resp, _ = app.get(t, "/js/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, map[string]string{"RATE_LIMIT_RPS": "0.001", "RATE_LIMIT_BURST": "2"})

	form := url.Values{"email": {testEmail}, "password": {"wrong-password"}}
	for i := 0; i < 2; i++ {
		resp, _ := app.postForm(t, server.RouteLogin, form)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}
	resp, _ := app.postForm(t, server.RouteLogin, form)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 2, app.backend.Calls("POST /login"))

	resp, _ = app.get(t, server.RouteLogin)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "page views are not limited")
}

func TestRateLimit_BeforeSessionCheck(t *testing.T) {
	app := newTestApp(t, map[string]string{"RATE_LIMIT_RPS": "0.001", "RATE_LIMIT_BURST": "2"})
	app.login(t) // Takes the first token

	form := url.Values{"resume_text": {"Go, Kubernetes"}, "job_description": {"Senior Go engineer"}}
	resp, _ := app.postForm(t, server.RouteJobFit, form)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verifyCalls := app.backend.Calls("GET /auth/verify")

	resp, _ = app.postForm(t, server.RouteJobFit, form)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, verifyCalls, app.backend.Calls("GET /auth/verify"), "throttled requests are not verified")
}

func TestLogout_RequiresPost(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, _ := app.get(t, server.RouteLogout)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = app.get(t, server.RouteDashboard)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "still signed in")
}

func TestToolSubmit_DuplicateSignedOutTogether(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var hold sync.Once
	app := newTestApp(t, nil, fakebackend.WithRequestHook(func(call string) {
		if call == "POST /job-fit/analyze" {
			hold.Do(func() {
				close(entered)
				<-release
			})
		}
	}))
	app.login(t)

	form := url.Values{"resume_text": {"Go, Kubernetes"}, "job_description": {"Senior Go engineer"}}
	type outcome struct {
		resp *http.Response
		err  error
	}
	outcomes := make(chan outcome, 2)
	submit := func() {
		req, err := http.NewRequest(http.MethodPost, app.url+server.RouteJobFit, strings.NewReader(form.Encode()))
		if err != nil {
			outcomes <- outcome{err: err}
			return
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := app.client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		outcomes <- outcome{resp: resp, err: err}
	}

	go submit()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first submission never reached the backend action")
	}

	go submit()
	require.Eventually(t, func() bool { return app.backend.Calls("GET /auth/verify") == 2 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond) // Let the second submission join the running call

	app.backend.RevokeUser(app.account.ID)
	close(release)

	for i := 0; i < 2; i++ {
		o := <-outcomes
		require.NoError(t, o.err)
		assert.Equal(t, http.StatusSeeOther, o.resp.StatusCode)
		assert.Equal(t, server.RouteLogin, o.resp.Header.Get("Location"))
	}
	assert.Equal(t, 1, app.backend.Calls("GET /check-feature/job_fit"))
	assert.Equal(t, 1, app.backend.Calls("POST /job-fit/analyze"))

	resp, _ := app.get(t, server.RouteDashboard)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 2, app.backend.Calls("GET /auth/verify"), "session cookies were cleared")
}

func TestRoutes(t *testing.T) {
	t.Setenv("ENV", "TEST")

	s, err := server.New(config.New())
	require.NoError(t, err)
	routes := s.Routes()
	assert.Contains(t, routes, "POST "+server.RouteATS)
	assert.Contains(t, routes, "GET "+server.RouteTemplateDownload)
	assert.Contains(t, routes, "POST "+server.RoutePaymentCallback)
	assert.NotContains(t, routes, "GET "+server.RouteLogout)
}
