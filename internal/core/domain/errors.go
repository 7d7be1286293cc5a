package domain

import (
	"errors"
	"fmt"
)

// Terminal auth errors. Both mean the session is gone and the user must
// re-authenticate; ErrRefreshFailed additionally records that a refresh
// attempt was what killed it.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrRefreshFailed   = errors.New("token refresh failed")
)

// Audio-tier errors. Absorbed by the negotiator by falling through to the
// next tier; they never propagate past it.
var (
	ErrPermissionDenied    = errors.New("capture permission denied")
	ErrResourceUnavailable = errors.New("audio resource unavailable")
)

// ErrNoSession is returned by a token vault that holds no pair.
var ErrNoSession = errors.New("no stored session")

// UpstreamError is a non-auth upstream rejection passed through verbatim
// so callers can interpret domain-specific statuses (403 premium required,
// 404 no active device, ...).
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream rejected request: status %d", e.Status)
}
