package gate

import (
	"encoding/json"
	"net/http"
)

// Failure statuses follow a small taxonomy: 429 rate-limited, 401
// authentication mismatch (deliberately vague), 400 session missing, 410
// session expired, 502 configuration or remote-service trouble. Responses
// never carry stack traces or internal identifiers.

const maxBodySize = 4 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, APIResponse{OK: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{OK: false, Message: msg})
}

// decodeJSON reads a size-capped JSON body. On failure it writes the error
// response itself and reports false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}
