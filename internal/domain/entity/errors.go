package entity

import (
	"context"
	"errors"
)

// Service errors returned to callers of the generation service.
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded: too many generations")
	ErrInvalidRequest    = errors.New("invalid generation request")
)

// Failure taxonomy. Adapters wrap upstream failures with one of these so the
// tier executor can classify them with errors.Is.
var (
	ErrTimeout               = errors.New("provider call timed out")
	ErrParseFailure          = errors.New("no JSON object in provider output")
	ErrValidationFailure     = errors.New("payload failed schema validation")
	ErrLowConfidence         = errors.New("payload confidence below quality threshold")
	ErrAuthenticationFailure = errors.New("provider rejected credentials")
	ErrProviderUnavailable   = errors.New("provider unavailable")
	ErrTransientNetwork      = errors.New("transient network error")
)

// Outcome is the label recorded for one attempt.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeParseFailure   Outcome = "parse_failure"
	OutcomeValidation     Outcome = "validation_failure"
	OutcomeLowConfidence  Outcome = "low_confidence"
	OutcomeAuthentication Outcome = "authentication_failure"
	OutcomeUnavailable    Outcome = "provider_unavailable"
	OutcomeTransient      Outcome = "transient_network_error"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeDeterministic  Outcome = "deterministic"
)

// Classify maps an attempt error onto its outcome label. Unknown errors are
// treated as transient.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrAuthenticationFailure):
		return OutcomeAuthentication
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled
	case errors.Is(err, ErrParseFailure):
		return OutcomeParseFailure
	case errors.Is(err, ErrValidationFailure):
		return OutcomeValidation
	case errors.Is(err, ErrLowConfidence):
		return OutcomeLowConfidence
	case errors.Is(err, ErrProviderUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeTransient
	}
}

// IsRetryable reports whether another attempt in the same tier may succeed.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case OutcomeAuthentication, OutcomeCancelled, OutcomeUnavailable:
		return false
	}
	return true
}
