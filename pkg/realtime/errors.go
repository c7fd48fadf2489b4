package realtime

import "errors"

var (
	// ErrUnauthenticated is returned by Connect when no access token is available.
	ErrUnauthenticated = errors.New("realtime: unauthenticated")

	// ErrMaxReconnectAttempts is the terminal error after the reconnect budget is spent.
	ErrMaxReconnectAttempts = errors.New("maximum reconnection attempts reached")

	// ErrTransport wraps socket-level failures reported through OnError.
	ErrTransport = errors.New("realtime: transport error")

	// ErrClosed is returned by Connect after the manager was closed.
	ErrClosed = errors.New("realtime: manager closed")
)
