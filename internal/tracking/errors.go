package tracking

import "errors"

var (
	// ErrRemoteUnavailable covers every failure to get a usable answer from
	// the tracking service: timeouts, transport errors, non-200 responses
	// and undecodable bodies.
	ErrRemoteUnavailable = errors.New("tracking service unavailable")

	// ErrInvalidBaseURL is returned by NewClient for a malformed service URL.
	ErrInvalidBaseURL = errors.New("invalid tracking base URL")
)
