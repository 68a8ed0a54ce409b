package gate

import (
	_ "embed"
	"net/http"
)

//go:embed pages/gate.html
var gatePage []byte

//go:embed pages/placeholder.html
var placeholderPage []byte

// writePage renders one of the gate-owned HTML pages. Security headers are
// applied here rather than as router middleware so proxied upstream
// responses pass through untouched.
func writePage(w http.ResponseWriter, page []byte) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}
