package riot

import (
	"errors"
	"fmt"
)

// ErrorKind classifies upstream failures.
type ErrorKind int

const (
	// KindTransport means no response was received.
	KindTransport ErrorKind = iota
	// KindThrottled means 429 responses outlasted the retry budget.
	KindThrottled
	// KindStatus means a non-retryable non-2xx response.
	KindStatus
	// KindDecode means the body did not match the expected schema.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindThrottled:
		return "throttled"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation that reached the network.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Body   string
	Cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindThrottled, KindStatus:
		return fmt.Sprintf("%s: riot api request failed with status %d: %s", e.Op, e.Status, e.Body)
	case KindDecode:
		return fmt.Sprintf("%s: failed to decode response: %v", e.Op, e.Cause)
	default:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of a riot error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind, true
	}
	return 0, false
}

// IsThrottled reports whether err is an exhausted 429 retry sequence.
func IsThrottled(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindThrottled
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == KindStatus && rerr.Status == 404
}
