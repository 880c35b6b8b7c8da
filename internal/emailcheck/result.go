// Package emailcheck verifies that a business email address exists before a
// lead is delivered.
package emailcheck

import "errors"

// Verdict classifies one verification attempt.
type Verdict string

const (
	VerdictValid       Verdict = "valid"
	VerdictInvalid     Verdict = "invalid"
	VerdictRejected    Verdict = "rejected"
	VerdictBadStatus   Verdict = "bad_status"
	VerdictUnavailable Verdict = "unavailable"
)

// Result is the outcome of Check. ProviderError is set for VerdictRejected;
// Err carries the transport or decode failure behind VerdictUnavailable.
type Result struct {
	Verdict       Verdict
	StatusCode    int
	ProviderError string
	Err           error
}

// OK reports whether the address passed.
func (r Result) OK() bool { return r.Verdict == VerdictValid }

// Response is the body served by POST /api/proxy-validate-email.
type Response struct {
	Success bool   `json:"success"`
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// Request is the body accepted by POST /api/proxy-validate-email.
type Request struct {
	Email string `json:"email"`
}

var (
	// ErrEmailRequired is returned for a blank address.
	ErrEmailRequired = errors.New("emailcheck: email is required")

	// ErrUpstreamUnavailable wraps transport failures talking to the upstream API.
	ErrUpstreamUnavailable = errors.New("emailcheck: upstream unavailable")
)
