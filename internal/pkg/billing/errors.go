package billing

import "errors"

// ErrorKind is the closed set of rejection reasons the billing core can
// surface. Each kind maps to a stable HTTP status in the API layer.
type ErrorKind string

const (
	// Promo validation kinds, one per eligibility check.
	KindPromoNotFound          ErrorKind = "promo_not_found"
	KindPromoExpired           ErrorKind = "promo_expired"
	KindPromoBelowMinimum      ErrorKind = "promo_below_minimum"
	KindPromoPlanNotEligible   ErrorKind = "promo_plan_not_eligible"
	KindPromoUsageExhausted    ErrorKind = "promo_usage_exhausted"
	KindPromoUserUsageExceeded ErrorKind = "promo_user_usage_exhausted"

	// Activation guard kinds.
	KindNoopConflict ErrorKind = "noop_conflict"
	KindTooSoon      ErrorKind = "too_soon"

	// General kinds.
	KindNotFound    ErrorKind = "not_found"
	KindValidation  ErrorKind = "validation"
	KindPersistence ErrorKind = "persistence"
)

// Error carries a rejection kind plus a human-readable reason. Every
// rejection the core produces is one of these; nothing fails silently.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the error kind, or an empty kind for foreign errors.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsKind reports whether err carries the given billing error kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
