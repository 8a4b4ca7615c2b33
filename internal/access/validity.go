package access

import (
	"time"

	"github.com/vidgate/server/internal/model"
)

// Validity is the detailed result of evaluating a token against the clock.
// The three conditions are independent; any failing one makes the token
// unusable.
type Validity struct {
	Inactive  bool
	Expired   bool
	Exhausted bool
}

// OK reports whether no condition failed.
func (v Validity) OK() bool {
	return !v.Inactive && !v.Expired && !v.Exhausted
}

// Evaluate computes whether a token may currently be used. Pure function:
// it depends only on the record and the supplied time. Expiry is strict
// (now must be before expires_at); a nil expires_at never expires. The
// view-budget inequality applies uniformly; practically-unlimited tokens
// (max_views at the sentinel) simply never trip it.
func Evaluate(tok model.AccessToken, now time.Time) Validity {
	var v Validity
	if !tok.IsActive {
		v.Inactive = true
	}
	if tok.ExpiresAt != nil && !now.Before(*tok.ExpiresAt) {
		v.Expired = true
	}
	if tok.Exhausted() {
		v.Exhausted = true
	}
	return v
}

// IsValid is the boolean shortcut over Evaluate.
func IsValid(tok model.AccessToken, now time.Time) bool {
	return Evaluate(tok, now).OK()
}
