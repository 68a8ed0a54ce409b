package smsapi

import "encoding/json"

// transportOKCode is the remote API's status sentinel for a request that was
// accepted at the transport level. It says nothing about whether a submitted
// code was correct.
const transportOKCode = "OK"

// verifyPassSentinel is the nested verification result meaning the submitted
// code matched. Any other value, including an absent field, is a failed
// verification.
const verifyPassSentinel = "PASS"

// Outcome is the normalized result of one API call.
//
// OK reflects transport-level success only (status field "OK" plus the
// success flag). Callers of CheckCode must additionally consult
// VerifyPassed: the remote API reports a wrong code as a transport-successful
// response whose verification result is not "PASS".
type Outcome struct {
	OK      bool
	Code    string
	Message string
	Model   map[string]any
}

// VerifyPassed reports whether the nested verification result equals the
// pass sentinel. Only meaningful for CheckCode outcomes.
func (o Outcome) VerifyPassed() bool {
	if !o.OK {
		return false
	}
	result, _ := o.Model["VerifyResult"].(string)
	return result == verifyPassSentinel
}

// apiResponse is the remote API's JSON envelope.
type apiResponse struct {
	RequestID string          `json:"RequestId"`
	Code      string          `json:"Code"`
	Message   string          `json:"Message"`
	Success   bool            `json:"Success"`
	Model     json.RawMessage `json:"Model"`
}
