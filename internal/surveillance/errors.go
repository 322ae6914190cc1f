package surveillance

import "errors"

// Sentinel errors for the seven categories the engine distinguishes. Where
// the Engine returns one of these it also increments the matching counter
// on the Statistics component; see stats.go. config.Manager.Load returns
// ErrConfig without touching any counter. ErrDetectorFailure and
// ErrSinkFailure are not returned by any call: detector panics and sink
// failures are counted and logged instead.
var (
	ErrValidation        = errors.New("surveillance: validation error")
	ErrResourceExhausted = errors.New("surveillance: resource exhausted")
	ErrBackpressure      = errors.New("surveillance: backpressure")
	ErrDetectorFailure   = errors.New("surveillance: detector failure")
	ErrSinkFailure       = errors.New("surveillance: alert sink failure")
	ErrLifecycle         = errors.New("surveillance: lifecycle violation")
	ErrConfig            = errors.New("surveillance: configuration error")
)
