package session

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CookiePrefix is prepended to entry names to form cookie names (rf_token, rf_user)
const CookiePrefix = "rf_"

// CookieOptions controls the attributes of session cookies
type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

// CookiePersister keeps entries in sealed browser cookies. It is bound to one
// request/response pair; writes made during the request shadow the cookies the
// request arrived with.
type CookiePersister struct {
	w       http.ResponseWriter
	r       *http.Request
	sealer  *Sealer
	options CookieOptions
	pending map[string]*string // nil value marks a removal
}

var _ Persister = (*CookiePersister)(nil)

// NewCookiePersister creates a persister for a single request
func NewCookiePersister(w http.ResponseWriter, r *http.Request, sealer *Sealer, options CookieOptions) *CookiePersister {
	return &CookiePersister{
		w:       w,
		r:       r,
		sealer:  sealer,
		options: options,
		pending: make(map[string]*string),
	}
}

func (c *CookiePersister) Load(name string) (string, bool) {
	if value, ok := c.pending[name]; ok {
		if value == nil {
			return "", false
		}
		return *value, true
	}

	cookie, err := c.r.Cookie(CookiePrefix + name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	value, err := c.sealer.Open(name, cookie.Value)
	if err != nil {
		// Tampered or sealed with a rotated secret: treat as absent
		log.Debug().Err(err).Str("cookie", cookie.Name).Msg("discarding unreadable session cookie")
		return "", false
	}
	return value, true
}

func (c *CookiePersister) Store(name, value string) error {
	sealed, err := c.sealer.Seal(name, value)
	if err != nil {
		return errors.Wrapf(err, "[CookiePersister.Store] seal %s", name)
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookiePrefix + name,
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.options.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.options.MaxAge.Seconds()),
	})
	c.pending[name] = &value
	return nil
}

func (c *CookiePersister) Remove(name string) {
	if value, ok := c.pending[name]; ok && value == nil {
		return
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookiePrefix + name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.options.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	c.pending[name] = nil
}
