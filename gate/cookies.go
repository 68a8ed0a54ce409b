package gate

import (
	"net/http"
	"time"
)

// Cookie names. All three are scoped to the registrable domain so that
// subdomains of the protected site share visitor state.
const (
	sidCookieName  = "cf_sid"
	authCookieName = "cf_auth"
	modeCookieName = "cf_mode"

	publicModeValue = "public"

	// modeCookieTTL bounds how long a placeholder choice sticks before the
	// visitor sees the gate again.
	modeCookieTTL = 7 * 24 * time.Hour
)

func (g *Gate) writeCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   g.cfg.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Gate) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   g.cfg.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil || c == nil {
		return ""
	}
	return c.Value
}
