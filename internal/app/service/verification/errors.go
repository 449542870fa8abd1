package verification

import "errors"

var (
	// ErrUnsupportedPlatform is a caller error, rejected before any remote
	// call is made.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrTransport marks network/timeout failures against a store backend.
	// Callers decide whether to retry; the adapters never loop internally.
	ErrTransport = errors.New("verification transport failure")

	// ErrNoCredentials signals a configuration problem: the adapter was
	// constructed without the credentials its backend requires.
	ErrNoCredentials = errors.New("verification credentials not configured")
)
