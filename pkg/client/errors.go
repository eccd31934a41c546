package client

import (
	"errors"
	"fmt"

	"github.com/vango-dev/livesync/pkg/protocol"
)

var (
	// ErrNotConnected is returned by Socket.Send before the connection is
	// open or after it was closed.
	ErrNotConnected = errors.New("client: not connected")

	// ErrDuplicateHandler is the panic value of registering two handlers for
	// one message type.
	ErrDuplicateHandler = errors.New("client: duplicate handler")

	// ErrNoThread is returned by operations that need a thread page.
	ErrNoThread = errors.New("client: not on a thread page")

	// ErrNotSynced is returned when an operation needs a synchronised
	// connection.
	ErrNotSynced = errors.New("client: connection not synchronised")

	// ErrNoPost is returned by input operations while no post is being
	// authored.
	ErrNoPost = errors.New("client: no post being authored")
)

// ProtocolError is a fatal error reported by the server with an invalid
// message.
type ProtocolError struct {
	Reason string
}

// Error returns the error message.
func (e *ProtocolError) Error() string {
	return "client: server reported invalid message: " + e.Reason
}

// HandlerError wraps an error returned by a message handler.
type HandlerError struct {
	Type protocol.MessageType
	Err  error
}

// Error returns the error message.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("client: handling %s: %v", e.Type, e.Err)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// SyncError reports a failed reconciliation. The connection stays in the
// syncing state.
type SyncError struct {
	PostID uint64
	Err    error
}

// Error returns the error message.
func (e *SyncError) Error() string {
	return fmt.Sprintf("client: sync failed fetching post %d: %v", e.PostID, e.Err)
}

// Unwrap returns the fetch error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response of the JSON API.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error returns the error message.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("client: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("client: http %d", e.StatusCode)
}
