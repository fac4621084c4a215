package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrNotInChat         = fmt.Errorf("not in an active chat")
	ErrAlreadyInChat     = fmt.Errorf("already in an active chat")
	ErrAlreadyWaiting    = fmt.Errorf("already waiting for a partner")
	ErrStaleReveal       = fmt.Errorf("reveal request no longer matches the current pairing")
	ErrForbidden         = fmt.Errorf("operator is not the configured administrator")
	ErrDeliveryFailed    = fmt.Errorf("message delivery failed")
	ErrMalformedCallback = fmt.Errorf("malformed callback payload")
	ErrInviteUnavailable = fmt.Errorf("community group is not configured")
)
