package server

import (
	"net/http"

	"github.com/jrsteele09/resumeforge-web/guard"
	"github.com/jrsteele09/resumeforge-web/session"
)

// navigationWriter gives a request a hard navigation. Once Navigate has run
// the redirect is the whole response: later headers and body writes from the
// handler are dropped.
type navigationWriter struct {
	http.ResponseWriter
	r           *http.Request
	navigated   bool
	wroteHeader bool
}

var _ session.Navigator = (*navigationWriter)(nil)

func newNavigationWriter(w http.ResponseWriter, r *http.Request) *navigationWriter {
	return &navigationWriter{ResponseWriter: w, r: r}
}

// Navigate redirects the browser to path. Only the first call has an effect,
// and none once the handler has started its own response.
func (w *navigationWriter) Navigate(path string) {
	if w.navigated || w.wroteHeader {
		w.navigated = true
		return
	}
	w.navigated = true

	if isHTMXRequest(w.r) {
		w.Header().Set("HX-Redirect", path)
		w.ResponseWriter.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Location", path)
	w.ResponseWriter.WriteHeader(http.StatusSeeOther)
}

// Navigated reports whether the response has been taken over by a navigation
func (w *navigationWriter) Navigated() bool {
	return w.navigated
}

func (w *navigationWriter) WriteHeader(code int) {
	if w.navigated || w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *navigationWriter) Write(b []byte) (int, error) {
	if w.navigated {
		return len(b), nil
	}
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// SessionMiddleware gives every request its own session store over the
// browser's sealed cookies and puts it in the request context.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nw := newNavigationWriter(w, r)
		options := s.cookieOptions
		options.Secure = options.Secure || getScheme(r) == "https"

		persister := session.NewCookiePersister(nw, r, s.sealer, options)
		store := session.NewStore(persister,
			session.WithNavigator(nw),
			session.WithLoginPath(RouteLogin),
		)
		next(nw, r.WithContext(session.NewContext(r.Context(), store)))
	}
}

// RequireSession admits the request only when the route guard settles on
// Valid. Nothing is written before the guard has decided.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.protected.Evaluate(r.Context()) != guard.Valid {
			if r.Context().Err() != nil {
				return // Browser went away mid-check
			}
			navigate(w, r, RouteLogin)
			return
		}
		next(w, r)
	}
}

// RequirePublicOnly sends browsers that hold a token to the dashboard
func (s *Server) RequirePublicOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if path, redirect := s.publicOnly.Redirect(r.Context()); redirect {
			redirectSuccess(w, r, path)
			return
		}
		next(w, r)
	}
}

// navigate performs a hard navigation through the request's navigation writer,
// or a plain redirect when the request has none.
func navigate(w http.ResponseWriter, r *http.Request, path string) {
	if nw, ok := w.(*navigationWriter); ok {
		nw.Navigate(path)
		return
	}
	redirectSuccess(w, r, path)
}

// navigated reports whether the store has already sent the browser elsewhere
func navigated(w http.ResponseWriter) bool {
	nw, ok := w.(*navigationWriter)
	return ok && nw.Navigated()
}

// storeFrom returns the request's session store
func storeFrom(r *http.Request) *session.Store {
	store, _ := session.FromContext(r.Context())
	return store
}
