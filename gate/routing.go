package gate

import "net/http"

// Route decides what a request for an unclaimed path gets. Precedence:
// a valid trust token reaches the upstream site, an explicit public-mode
// choice gets the placeholder, everyone else sees the gate. An expired or
// tampered trust token falls through to the gate rather than erroring.
func (g *Gate) Route(w http.ResponseWriter, r *http.Request) {
	if token := cookieValue(r, authCookieName); token != "" {
		if g.tokens.validate(token, g.now()) {
			g.proxy.ServeHTTP(w, r)
			return
		}
	}
	if cookieValue(r, modeCookieName) == publicModeValue {
		writePage(w, placeholderPage)
		return
	}
	writePage(w, gatePage)
}
