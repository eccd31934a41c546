package client

// ConnState is the state of the connection.
type ConnState uint8

const (
	StateLoading ConnState = iota
	StateConnecting
	StateSyncing
	StateSynced
	StateReconnecting
	StateDropped
	StateDesynced
)

// String returns the string representation of the state.
func (s ConnState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateConnecting:
		return "connecting"
	case StateSyncing:
		return "syncing"
	case StateSynced:
		return "synced"
	case StateReconnecting:
		return "reconnecting"
	case StateDropped:
		return "dropped"
	case StateDesynced:
		return "desynced"
	default:
		return "unknown"
	}
}

// ConnEvent is an input of the connection state machine.
type ConnEvent uint8

const (
	EventStart ConnEvent = iota
	EventOpen
	EventClose
	EventRetry
	EventError
	EventSync
)

// String returns the string representation of the event.
func (e ConnEvent) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventRetry:
		return "retry"
	case EventError:
		return "error"
	case EventSync:
		return "sync"
	default:
		return "unknown"
	}
}

// SyncStatus is the user visible synchronisation status.
type SyncStatus uint8

const (
	StatusDisconnected SyncStatus = iota
	StatusConnecting
	StatusSyncing
	StatusSynced
	StatusDesynced
)

// String returns the string representation of the status.
func (s SyncStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusSyncing:
		return "syncing"
	case StatusSynced:
		return "synced"
	case StatusDesynced:
		return "desynced"
	default:
		return "unknown"
	}
}

// StatusOf projects a connection state to a sync status.
func StatusOf(s ConnState) SyncStatus {
	switch s {
	case StateConnecting, StateReconnecting:
		return StatusConnecting
	case StateSyncing:
		return StatusSyncing
	case StateSynced:
		return StatusSynced
	case StateDesynced:
		return StatusDesynced
	default:
		return StatusDisconnected
	}
}
