package gate

// StartRequest is the JSON body for POST /api/start.
type StartRequest struct {
	Phrase string `json:"phrase"`
}

// VerifyRequest is the JSON body for POST /api/verify.
type VerifyRequest struct {
	Code string `json:"code"`
}

// APIResponse is the uniform JSON envelope for both endpoints.
type APIResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
