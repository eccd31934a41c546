package client

import (
	"log/slog"
	"time"

	"github.com/vango-dev/livesync/pkg/protocol"
)

// timerSlot holds at most one pending timer. The sequence number
// invalidates callbacks of timers that fired after being replaced.
type timerSlot struct {
	timer Timer
	seq   uint64
}

// Manager owns the socket, the connection state machine and the
// reconnection timers. All methods must be called from the Loop goroutine,
// or before the Loop is started.
type Manager struct {
	cfg     *Config
	dialer  Dialer
	clock   Clock
	loop    *Loop
	logger  *slog.Logger
	metrics *Metrics
	fsm     *Machine[ConnState, ConnEvent]

	socket Socket
	gen    uint64 // Incremented for every socket; stale callbacks are ignored
	open   bool
	online bool

	cause error // Why the connection desynchronised

	attempts     int
	attemptReset timerSlot
	retry        timerSlot

	handler   func(raw string)
	openHooks []func()
}

// NewManager returns a Manager in the loading state. A nil clock uses the
// real clock; a nil logger uses slog.Default().
func NewManager(cfg *Config, dialer Dialer, clock Clock, loop *Loop, logger *slog.Logger, metrics *Metrics) *Manager {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:     cfg.withDefaults(),
		dialer:  dialer,
		clock:   clock,
		loop:    loop,
		logger:  logger.With("component", "connection"),
		metrics: metrics,
		online:  true,
	}

	fsm := NewMachine[ConnState, ConnEvent](StateLoading)
	fsm.Wild(EventClose, Transition[ConnState]{To: StateDropped, Action: m.onClose})
	fsm.Wild(EventError, Transition[ConnState]{To: StateDesynced, Action: m.onError})
	fsm.On(StateLoading, EventStart, Transition[ConnState]{
		To: StateConnecting,
		Action: func() {
			m.attempts = 0
			m.connect()
		},
	})
	for _, s := range []ConnState{StateConnecting, StateReconnecting} {
		fsm.On(s, EventOpen, Transition[ConnState]{To: StateSyncing, Action: m.prepareToSync})
	}
	fsm.On(StateSyncing, EventSync, Transition[ConnState]{To: StateSynced})
	fsm.On(StateDropped, EventRetry, Transition[ConnState]{
		To:    StateReconnecting,
		Guard: func() bool { return m.online },
		Action: func() {
			m.metrics.recordReconnect()
			m.connect()
		},
	})
	fsm.OnChange(func(from, to ConnState, event ConnEvent) {
		m.logger.Debug("state change", "from", from, "to", to, "event", event)
		m.metrics.recordTransition(from, to, event)
	})
	m.fsm = fsm
	return m
}

// Start begins the initial connection attempt.
func (m *Manager) Start() {
	m.Feed(EventStart)
}

// Feed advances the state machine. Returns whether a transition happened.
func (m *Manager) Feed(event ConnEvent) bool {
	return m.fsm.Feed(event)
}

// Desync records err as the cause and moves to the desynced state. Only
// the first cause is kept since the state is terminal.
func (m *Manager) Desync(err error) {
	if m.cause == nil {
		m.cause = err
	}
	m.Feed(EventError)
}

// Cause returns the error passed to Desync, or nil.
func (m *Manager) Cause() error {
	return m.cause
}

// State returns the connection state.
func (m *Manager) State() ConnState {
	return m.fsm.State()
}

// Status returns the user visible synchronisation status.
func (m *Manager) Status() SyncStatus {
	return StatusOf(m.fsm.State())
}

// Attempts returns the number of reconnection attempts since the counter
// was last reset.
func (m *Manager) Attempts() int {
	return m.attempts
}

// Connected reports whether the socket is open.
func (m *Manager) Connected() bool {
	return m.socket != nil && m.open
}

// SetHandler sets the sink of inbound messages.
func (m *Manager) SetHandler(fn func(raw string)) {
	m.handler = fn
}

// OnOpen registers fn to run every time a connection opens, after the
// state changed to syncing.
func (m *Manager) OnOpen(fn func()) {
	m.openHooks = append(m.openHooks, fn)
}

// OnStateChange registers fn to be called after every state transition.
func (m *Manager) OnStateChange(fn func(from, to ConnState, event ConnEvent)) {
	m.fsm.OnChange(fn)
}

// Send encodes payload and transmits it if the socket is open. Otherwise
// the frame is dropped with a warning; there is no queueing. Reports
// whether the frame was written to the socket.
func (m *Manager) Send(t protocol.MessageType, payload any) bool {
	raw, err := protocol.Encode(t, payload)
	if err != nil {
		m.logger.Error("encode failed", "type", t, "error", err)
		return false
	}
	return m.write(t, raw)
}

// SendEmpty transmits a frame without payload if the socket is open.
func (m *Manager) SendEmpty(t protocol.MessageType) bool {
	return m.write(t, protocol.EncodeEmpty(t))
}

func (m *Manager) write(t protocol.MessageType, raw string) bool {
	if !m.Connected() {
		m.logger.Warn("attempting to send while socket closed", "type", t)
		m.metrics.recordDropped(t)
		return false
	}
	if err := m.socket.Send(raw); err != nil {
		m.logger.Warn("send failed", "type", t, "error", err)
		m.metrics.recordDropped(t)
		return false
	}
	m.metrics.recordSent(t)
	return true
}

// Probe checks the connection after the page became visible again, for
// example after the machine woke from sleep.
func (m *Manager) Probe() {
	if !m.online {
		return
	}
	switch m.State() {
	case StateSynced:
		m.SendEmpty(protocol.MessageNOOP)
	case StateDesynced:
	default:
		m.Feed(EventRetry)
	}
}

// SetOnline reports a change of the host's network connectivity.
func (m *Manager) SetOnline(online bool) {
	m.online = online
	if online {
		m.resetAttempts()
		m.Feed(EventRetry)
		return
	}
	if m.State() != StateDesynced {
		m.Feed(EventClose)
	}
}

// Shutdown closes the socket and stops all timers. The state is left
// unchanged.
func (m *Manager) Shutdown() {
	m.teardown()
	m.disarm(&m.retry)
}

func (m *Manager) connect() {
	m.teardown()
	m.gen++
	gen := m.gen

	m.logger.Info("connecting", "url", m.cfg.URL, "attempt", m.attempts)
	m.socket = m.dialer.Dial(m.cfg.URL, SocketEvents{
		OnOpen: func() {
			m.loop.Post(func() {
				if gen != m.gen {
					return
				}
				m.open = true
				m.Feed(EventOpen)
			})
		},
		OnMessage: func(raw string) {
			m.loop.Post(func() {
				if gen != m.gen {
					return
				}
				if m.handler != nil {
					m.handler(raw)
				}
			})
		},
		OnClose: func(err error) {
			m.loop.Post(func() {
				if gen != m.gen {
					return
				}
				m.logger.Info("connection closed", "error", err)
				m.Feed(EventClose)
			})
		},
	})
}

func (m *Manager) prepareToSync() {
	m.arm(&m.attemptReset, m.cfg.ResetAttemptsAfter, m.resetAttempts)
	for _, fn := range m.openHooks {
		fn()
	}
}

func (m *Manager) onClose() {
	m.teardown()
	m.attempts++
	delay := m.cfg.Backoff.Delay(m.attempts)
	m.metrics.recordBackoff(delay)
	m.logger.Info("reconnecting", "delay", delay, "attempts", m.attempts)
	m.arm(&m.retry, delay, func() {
		m.Feed(EventRetry)
	})
}

func (m *Manager) onError() {
	m.logger.Error("connection desynchronised")
	m.teardown()
	m.disarm(&m.retry)
}

func (m *Manager) resetAttempts() {
	m.disarm(&m.attemptReset)
	m.attempts = 0
}

// teardown drops the socket and invalidates its callbacks.
func (m *Manager) teardown() {
	m.disarm(&m.attemptReset)
	if m.socket == nil {
		return
	}
	m.gen++
	if err := m.socket.Close(); err != nil {
		m.logger.Debug("closing socket", "error", err)
	}
	m.socket = nil
	m.open = false
}

// arm replaces the timer in s with one calling fn on the loop after d.
func (m *Manager) arm(s *timerSlot, d time.Duration, fn func()) {
	m.disarm(s)
	seq := s.seq
	s.timer = m.clock.AfterFunc(d, func() {
		m.loop.Post(func() {
			if s.seq != seq {
				return
			}
			s.timer = nil
			s.seq++
			fn()
		})
	})
}

func (m *Manager) disarm(s *timerSlot) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}
