package domain

import "errors"

// Error taxonomy for the connection/room-dispatch core. Concrete errors are
// wrapped against these sentinels with fmt.Errorf("%w: ...", ErrX) so callers
// can classify failures with errors.Is while humans still get a readable
// message.
var (
	ErrTransport = errors.New("transport error")
	ErrDecode    = errors.New("decode error")
	ErrPublish   = errors.New("publish error")
	ErrPersist   = errors.New("persist error")
	ErrSubscribe = errors.New("subscribe error")
	ErrBootstrap = errors.New("bootstrap error")

	ErrNotFound = errors.New("not found")
)
