package wyze

import (
	"fmt"

	"lock-sync/core/reconcile"
)

const (
	errNoOK             = 0
	errNoAlreadyDeleted = 5021
)

// errNoMessages translates lock API ErrNo values for logs and run
// summaries. Unknown values fall through to a generic message.
var errNoMessages = map[int]string{
	5030: "name already in use",
	5034: "operation too fast, wait a moment",
	5021: "already deleted",
	3027: "parameter incorrect, date time frame may not be valid",
	1001: "authentication failed",
	1002: "session expired",
	1003: "permission denied for this device",
	2000: "device is offline",
	2001: "device busy with another operation",
	2002: "device firmware needs an update",
	3000: "invalid request parameters",
	4000: "service unavailable",
	4001: "rate limit exceeded",
	5000: "internal server error",
	9000: "network connectivity issue",
}

// errNoKind classifies lock API ErrNo values. Unknown values count as
// transient so the engine's attempt budget gets a chance to clear them.
func errNoKind(errNo int) reconcile.ErrorKind {
	switch errNo {
	case 5034, 4001:
		return reconcile.KindRateLimited
	case 5030, 3027, 3000, 1001, 1002, 1003:
		return reconcile.KindRejected
	default:
		return reconcile.KindTransient
	}
}

// apiError is a non-zero ErrNo from the lock API.
type apiError struct {
	ErrNo int
	Msg   string
}

func (e *apiError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = errNoMessages[e.ErrNo]
	}
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("errno %d: %s", e.ErrNo, msg)
}

// classify wraps err as a VendorError for the engine. ErrNo failures
// map through errNoKind; anything else (transport, decode) is transient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := reconcile.KindTransient
	if ae, ok := err.(*apiError); ok {
		kind = errNoKind(ae.ErrNo)
	}
	return &reconcile.VendorError{Kind: kind, Op: op, Err: err}
}
