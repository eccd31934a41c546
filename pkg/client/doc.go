// Package client keeps a local view of a live discussion thread in sync with
// the server over a single WebSocket connection.
//
// # Architecture
//
// A Client is assembled from the following parts:
//
//   - Manager: owns the socket and the connection state machine, including
//     reconnection with backoff
//   - Router: decodes inbound messages and dispatches each frame to the
//     handler registered for its type
//   - Synchronizer: performs the sync handshake after every (re)connect and
//     reconciles the local posts with the server's backlog
//   - Loop: a single goroutine on which all of the above run
//
// Socket reads, timers and HTTP fetches happen on their own goroutines but
// only ever post closures to the Loop, so protocol state needs no locking.
//
// # Connection states
//
//	loading --start--> connecting --open--> syncing --sync--> synced
//	dropped --retry--> reconnecting --open--> syncing
//	any --close--> dropped
//	any --error--> desynced
//
// # Usage
//
//	c, err := client.New(client.Options{
//	    Config: cfg,
//	    Page:   page,
//	    Posts:  posts.NewCollection(renderer),
//	})
//	if err != nil {
//	    return err
//	}
//	return c.Run(ctx)
package client
