package client

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer opens sockets with gorilla/websocket.
type WebSocketDialer struct {
	// Dialer is the underlying dialer. Default: websocket.DefaultDialer
	// with HandshakeTimeout applied.
	Dialer *websocket.Dialer

	// Header is sent with the handshake request.
	Header http.Header

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	MaxMessageSize   int64

	Logger *slog.Logger
}

// NewWebSocketDialer returns a dialer configured from cfg.
func NewWebSocketDialer(cfg *Config, logger *slog.Logger) *WebSocketDialer {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketDialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		MaxMessageSize:   cfg.MaxMessageSize,
		Logger:           logger.With("component", "websocket"),
	}
}

// Dial starts connecting to url in the background.
func (d *WebSocketDialer) Dial(url string, ev SocketEvents) Socket {
	ctx, cancel := context.WithCancel(context.Background())
	s := &wsSocket{
		cancel:       cancel,
		writeTimeout: d.WriteTimeout,
	}
	go s.run(ctx, d, url, ev)
	return s
}

func (d *WebSocketDialer) dialer() *websocket.Dialer {
	if d.Dialer != nil {
		return d.Dialer
	}
	dialer := *websocket.DefaultDialer
	if d.HandshakeTimeout > 0 {
		dialer.HandshakeTimeout = d.HandshakeTimeout
	}
	return &dialer
}

type wsSocket struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	closed       bool
	cancel       context.CancelFunc
	writeTimeout time.Duration
}

func (s *wsSocket) run(ctx context.Context, d *WebSocketDialer, url string, ev SocketEvents) {
	conn, _, err := d.dialer().DialContext(ctx, url, d.Header)
	if err != nil {
		ev.OnClose(err)
		return
	}

	s.mu.Lock()
	if s.closed {
		// Closed while the handshake was in flight
		s.mu.Unlock()
		conn.Close()
		ev.OnClose(ErrNotConnected)
		return
	}
	s.conn = conn
	s.mu.Unlock()

	if d.MaxMessageSize > 0 {
		conn.SetReadLimit(d.MaxMessageSize)
	}
	ev.OnOpen()

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) && d.Logger != nil {
				d.Logger.Warn("read error", "error", err)
			}
			s.Close()
			ev.OnClose(err)
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		ev.OnMessage(string(data))
	}
}

// Send writes a text message.
func (s *wsSocket) Send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.closed {
		return ErrNotConnected
	}
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Close sends a close frame and closes the connection.
func (s *wsSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	if s.conn == nil {
		return nil
	}
	// The peer may already be gone.
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}
