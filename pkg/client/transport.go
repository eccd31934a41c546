package client

// Socket is an open or opening bidirectional message connection.
type Socket interface {
	// Send writes one text message.
	Send(msg string) error

	// Close closes the connection. Events may still be delivered after
	// Close returns.
	Close() error
}

// SocketEvents receives the events of a Socket. Callbacks may be invoked
// from any goroutine. OnClose is called at most once, also when the
// connection could not be established.
type SocketEvents struct {
	OnOpen    func()
	OnMessage func(msg string)
	OnClose   func(err error)
}

// Dialer opens sockets. Dial must not block: it returns immediately and
// reports the outcome through ev.
type Dialer interface {
	Dial(url string, ev SocketEvents) Socket
}
