package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/auth"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/jrsteele09/resumeforge-web/session"
	"github.com/jrsteele09/resumeforge-web/session/memstore"
	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/stretchr/testify/require"
)

const (
	testToken    = "backend-token-1"
	testEmail    = "jane@example.com"
	testPassword = "Password123"
)

var testUser = users.Profile{ID: "user-1", Name: "Jane Doe", Email: testEmail, Plan: users.PlanFree}

type fakeBackend struct {
	loginReq     *apiclient.LoginRequest
	signupReq    *apiclient.SignupRequest
	googleToken  string
	forgotEmail  string
	changes      *users.ProfileChanges
	authResp     *apiclient.AuthResponse
	profileResp  *users.Profile
	err          error
	backendCalls int
}

func (f *fakeBackend) Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.AuthResponse, error) {
	f.backendCalls++
	f.loginReq = &req
	return f.authResp, f.err
}

func (f *fakeBackend) Signup(ctx context.Context, req apiclient.SignupRequest) (*apiclient.AuthResponse, error) {
	f.backendCalls++
	f.signupReq = &req
	return f.authResp, f.err
}

func (f *fakeBackend) GoogleLogin(ctx context.Context, idToken string) (*apiclient.AuthResponse, error) {
	f.backendCalls++
	f.googleToken = idToken
	return f.authResp, f.err
}

func (f *fakeBackend) ForgotPassword(ctx context.Context, email string) error {
	f.backendCalls++
	f.forgotEmail = email
	return f.err
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, changes users.ProfileChanges) (*users.Profile, error) {
	f.backendCalls++
	f.changes = &changes
	return f.profileResp, f.err
}

type testFixture struct {
	backend *fakeBackend
	store   *session.Store
	nav     []string
	service *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		backend: &fakeBackend{authResp: &apiclient.AuthResponse{Token: testToken, User: testUser}},
	}
	f.store = session.NewStore(memstore.New(), session.WithNavigator(session.NavigatorFunc(func(path string) {
		f.nav = append(f.nav, path)
	})))
	f.service = auth.NewService(f.backend)
	return f
}

func TestService_Login(t *testing.T) {
	t.Run("saves token and user together", func(t *testing.T) {
		f := setupTestFixture(t)

		profile, err := f.service.Login(context.Background(), f.store, auth.LoginParameters{Email: "  Jane@Example.com ", Password: testPassword})
		require.NoError(t, err)
		require.Equal(t, testUser, *profile)
		require.Equal(t, testEmail, f.backend.loginReq.Email)

		current, ok := f.store.Read()
		require.True(t, ok)
		require.Equal(t, testToken, current.Token)
		require.Equal(t, testUser, *current.User)
	})

	t.Run("invalid input never reaches the backend", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.service.Login(context.Background(), f.store, auth.LoginParameters{Email: "nope", Password: testPassword})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		require.ErrorIs(t, err, auth.InvalidEmailErr)
		require.Zero(t, f.backend.backendCalls)
	})

	t.Run("rejected credentials leave the store empty", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.err = &apiclient.Error{StatusCode: 400, Message: "Invalid email or password"}

		_, err := f.service.Login(context.Background(), f.store, auth.LoginParameters{Email: testEmail, Password: "wrong"})
		require.Error(t, err)
		require.Equal(t, "Invalid email or password", apiclient.UserMessage(err))

		_, ok := f.store.Read()
		require.False(t, ok)
	})

	t.Run("empty token from backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.authResp = &apiclient.AuthResponse{User: testUser}

		_, err := f.service.Login(context.Background(), f.store, auth.LoginParameters{Email: testEmail, Password: testPassword})
		require.ErrorIs(t, err, apperrors.ErrInternal)
		_, ok := f.store.Read()
		require.False(t, ok)
	})
}

func TestService_Signup(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Signup(context.Background(), f.store, auth.SignupParameters{
		Name:            " Jane Doe ",
		Email:           testEmail,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, apiclient.SignupRequest{Name: "Jane Doe", Email: testEmail, Password: testPassword}, *f.backend.signupReq)
	require.Equal(t, testToken, f.store.Token())

	t.Run("mismatched passwords", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Signup(context.Background(), f.store, auth.SignupParameters{
			Name:            "Jane",
			Email:           testEmail,
			Password:        testPassword,
			ConfirmPassword: "Password456",
		})
		require.ErrorIs(t, err, auth.UserPasswordsDontMatchErr)
		require.Zero(t, f.backend.backendCalls)
	})
}

func TestService_ForgotPassword(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.service.ForgotPassword(context.Background(), " JANE@example.com"))
	require.Equal(t, testEmail, f.backend.forgotEmail)

	require.ErrorIs(t, f.service.ForgotPassword(context.Background(), ""), auth.EmailRequiredErr)
}

func TestService_Logout(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Save(testToken, testUser))

	f.service.Logout(f.store)
	_, ok := f.store.Read()
	require.False(t, ok)
	require.Equal(t, []string{session.DefaultLoginPath}, f.nav)
}

func TestService_UpdateProfile(t *testing.T) {
	t.Run("full profile from backend", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Save(testToken, testUser))
		updated := testUser
		updated.Name = "Jane Q"
		f.backend.profileResp = &updated

		var events []session.Event
		unsubscribe := f.store.Subscribe(func(e session.Event) { events = append(events, e) })
		defer unsubscribe()

		profile, err := f.service.UpdateProfile(context.Background(), f.store, auth.ProfileParameters{Name: "Jane Q"})
		require.NoError(t, err)
		require.Equal(t, "Jane Q", profile.Name)

		current, _ := f.store.Read()
		require.Equal(t, "Jane Q", current.User.Name)
		require.Equal(t, testToken, current.Token)
		require.Len(t, events, 1)
		require.Equal(t, session.EventUserUpdated, events[0].Type)
	})

	t.Run("partial response is merged", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Save(testToken, testUser))
		f.backend.profileResp = &users.Profile{}

		profile, err := f.service.UpdateProfile(context.Background(), f.store, auth.ProfileParameters{Avatar: "https://cdn.example.com/a.png"})
		require.NoError(t, err)
		require.Equal(t, testUser.ID, profile.ID)
		require.Equal(t, "https://cdn.example.com/a.png", profile.Avatar)
	})

	t.Run("backend failure leaves stored user alone", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Save(testToken, testUser))
		f.backend.err = errors.New("boom")

		_, err := f.service.UpdateProfile(context.Background(), f.store, auth.ProfileParameters{Name: "Jane Q"})
		require.Error(t, err)
		current, _ := f.store.Read()
		require.Equal(t, testUser.Name, current.User.Name)
	})
}

func TestService_GoogleDisabled(t *testing.T) {
	f := setupTestFixture(t)
	require.False(t, f.service.GoogleEnabled())

	_, err := f.service.BeginGoogleLogin(context.Background(), "/dashboard")
	require.ErrorIs(t, err, auth.GoogleSignInDisabledErr)

	_, _, err = f.service.CompleteGoogleLogin(context.Background(), f.store, "random-state-value", "code")
	require.ErrorIs(t, err, auth.GoogleSignInDisabledErr)
}
