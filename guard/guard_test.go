package guard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/guard"
	"github.com/jrsteele09/resumeforge-web/session"
	"github.com/jrsteele09/resumeforge-web/session/memstore"
	"github.com/jrsteele09/resumeforge-web/token"
	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	calls  int
	status string
	err    error
}

func (f *fakeVerifier) VerifySession(ctx context.Context) (*apiclient.VerifyResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &apiclient.VerifyResponse{Status: f.status}, nil
}

type recorder struct {
	paths []string
}

func (r *recorder) Navigate(path string) {
	r.paths = append(r.paths, path)
}

func jwtWithExpiry(t *testing.T, exp time.Time) string {
	t.Helper()
	raw, err := token.NewHMACSigner("secret").Sign(jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()})
	require.NoError(t, err)
	return raw
}

func contextWithToken(t *testing.T, raw string) (context.Context, *session.Store, *recorder) {
	t.Helper()
	nav := &recorder{}
	store := session.NewStore(memstore.New(), session.WithNavigator(nav))
	if raw != "" {
		require.NoError(t, store.Save(raw, users.Profile{ID: "user-1", Name: "Jane"}))
	}
	return session.NewContext(context.Background(), store), store, nav
}

func TestProtected_Evaluate(t *testing.T) {
	tests := []struct {
		name          string
		token         func(t *testing.T) string
		verifier      *fakeVerifier
		expectedState guard.State
		expectedCalls int
		expectedPath  []string
	}{
		{
			name:          "no token",
			token:         func(t *testing.T) string { return "" },
			verifier:      &fakeVerifier{status: apiclient.SessionStatusValid},
			expectedState: guard.Invalid,
			expectedCalls: 0,
			expectedPath:  []string{session.DefaultLoginPath},
		},
		{
			name:          "locally expired token skips the network",
			token:         func(t *testing.T) string { return jwtWithExpiry(t, time.Now().Add(-time.Hour)) },
			verifier:      &fakeVerifier{status: apiclient.SessionStatusValid},
			expectedState: guard.Invalid,
			expectedCalls: 0,
			expectedPath:  []string{session.DefaultLoginPath},
		},
		{
			name:          "future expiry verified valid",
			token:         func(t *testing.T) string { return jwtWithExpiry(t, time.Now().Add(time.Hour)) },
			verifier:      &fakeVerifier{status: apiclient.SessionStatusValid},
			expectedState: guard.Valid,
			expectedCalls: 1,
		},
		{
			name:          "future expiry rejected by backend",
			token:         func(t *testing.T) string { return jwtWithExpiry(t, time.Now().Add(time.Hour)) },
			verifier:      &fakeVerifier{status: "revoked"},
			expectedState: guard.Invalid,
			expectedCalls: 1,
			expectedPath:  []string{session.DefaultLoginPath},
		},
		{
			name:          "verification error",
			token:         func(t *testing.T) string { return jwtWithExpiry(t, time.Now().Add(time.Hour)) },
			verifier:      &fakeVerifier{err: errors.New("connection refused")},
			expectedState: guard.Invalid,
			expectedCalls: 1,
			expectedPath:  []string{session.DefaultLoginPath},
		},
		{
			name:          "opaque token is verified by the backend",
			token:         func(t *testing.T) string { return "opaque-token" },
			verifier:      &fakeVerifier{status: apiclient.SessionStatusValid},
			expectedState: guard.Valid,
			expectedCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, store, nav := contextWithToken(t, tt.token(t))
			g := guard.NewProtected(tt.verifier)

			state := g.Evaluate(ctx)
			require.Equal(t, tt.expectedState, state)
			require.Equal(t, tt.expectedCalls, tt.verifier.calls)
			require.Equal(t, tt.expectedPath, nav.paths)

			_, authenticated := store.Read()
			require.Equal(t, state == guard.Valid, authenticated)
		})
	}
}

func TestProtected_TransitionsAreObservable(t *testing.T) {
	ctx, _, _ := contextWithToken(t, jwtWithExpiry(t, time.Now().Add(time.Hour)))

	var seen []guard.Transition
	g := guard.NewProtected(&fakeVerifier{status: apiclient.SessionStatusValid}, guard.WithTransitionHook(func(tr guard.Transition) {
		seen = append(seen, tr)
	}))

	require.Equal(t, guard.Valid, g.Evaluate(ctx))
	require.Equal(t, []guard.Transition{
		{From: guard.Unknown, To: guard.Verifying},
		{From: guard.Verifying, To: guard.Valid},
	}, seen)

	t.Run("each evaluation verifies again", func(t *testing.T) {
		verifier := &fakeVerifier{status: apiclient.SessionStatusValid}
		g := guard.NewProtected(verifier)
		g.Evaluate(ctx)
		g.Evaluate(ctx)
		require.Equal(t, 2, verifier.calls)
	})
}

func TestProtected_CancelledNavigationKeepsSession(t *testing.T) {
	ctx, store, nav := contextWithToken(t, jwtWithExpiry(t, time.Now().Add(time.Hour)))
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	g := guard.NewProtected(&fakeVerifier{err: context.Canceled})
	require.Equal(t, guard.Invalid, g.Evaluate(ctx))

	_, authenticated := store.Read()
	require.True(t, authenticated)
	require.Empty(t, nav.paths)
}

func TestProtected_NoStoreInContext(t *testing.T) {
	verifier := &fakeVerifier{status: apiclient.SessionStatusValid}
	require.Equal(t, guard.Invalid, guard.NewProtected(verifier).Evaluate(context.Background()))
	require.Zero(t, verifier.calls)
}

func TestPublicOnly_Redirect(t *testing.T) {
	g := guard.NewPublicOnly("/dashboard")

	t.Run("signed in", func(t *testing.T) {
		ctx, _, _ := contextWithToken(t, "any-token")
		path, redirect := g.Redirect(ctx)
		require.True(t, redirect)
		require.Equal(t, "/dashboard", path)
	})

	t.Run("signed out", func(t *testing.T) {
		ctx, _, _ := contextWithToken(t, "")
		_, redirect := g.Redirect(ctx)
		require.False(t, redirect)
	})
}
