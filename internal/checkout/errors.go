package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrIllegalTransition = errors.New("illegal checkout transition")
	ErrOptionRequired    = errors.New("a premium option must be selected")
	ErrUnknownOption     = errors.New("unknown premium option")
	ErrNotAuthenticated  = errors.New("authentication required")
	ErrMethodDetail      = errors.New("invalid payment method detail")
	ErrCodeRequired      = errors.New("authorization code is required")
	ErrSettling          = errors.New("payment is being settled")
)

type PaymentErrorKind string

const (
	KindInitiationFailed   PaymentErrorKind = "INITIATION_FAILED"
	KindVerificationFailed PaymentErrorKind = "VERIFICATION_FAILED"
	KindTimeout            PaymentErrorKind = "TIMEOUT"
	KindUnknown            PaymentErrorKind = "UNKNOWN"
)

// PaymentError is a settlement failure reported by a collaborator.
type PaymentError struct {
	Kind    PaymentErrorKind
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
