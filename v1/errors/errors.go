package errors

import "errors"

var (
	ErrTimeout          = errors.New("timeout")
	ErrConnectionClosed = errors.New("connection closed")

	// ErrStoreUnavailable wraps every failure to reach a store node.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrScriptLoad is returned when a server-side script cannot be installed.
	ErrScriptLoad = errors.New("script load failed")

	ErrNoNodes      = errors.New("no store nodes configured")
	ErrInvalidLease = errors.New("lease duration must be positive")
)
