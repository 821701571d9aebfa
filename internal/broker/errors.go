package broker

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the KIS client. Wrapped with %w at the call
// sites, matched with errors.Is by callers deciding whether to retry,
// skip a ticker, or abort a job.
var (
	// ErrNetwork is a transport-level failure (dial, TLS, timeout).
	ErrNetwork = errors.New("broker: network error")

	// ErrDecode means the response body did not match the expected envelope.
	ErrDecode = errors.New("broker: decode error")

	// ErrRateExceeded is the gateway's per-second throttle (EGW00201).
	ErrRateExceeded = errors.New("broker: rate exceeded")

	// ErrTokenFailure means the bearer token could not be obtained.
	ErrTokenFailure = errors.New("broker: token failure")

	// ErrDataMissing means a 2xx response carried no usable payload.
	ErrDataMissing = errors.New("broker: data missing")

	// ErrArgumentInvalid is a caller error detected before any call.
	ErrArgumentInvalid = errors.New("broker: invalid argument")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("broker: http status %d: %s", e.Code, e.Body)
}

// RejectError is a broker-level business rejection: HTTP 200 with a
// non-zero rt_cd. Msg1 carries the human-readable reason.
type RejectError struct {
	RtCd string
	Msg1 string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("broker: rejected rt_cd=%s: %s", e.RtCd, e.Msg1)
}
