package client

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestManagerLifecycle(t *testing.T) {
	m, dialer, clock, loop := newTestManager(t)

	m.Start()
	if got := m.State(); got != StateConnecting {
		t.Fatalf("after start: state = %v, want connecting", got)
	}
	if len(dialer.sockets) != 1 || dialer.urls[0] != DefaultConfig().URL {
		t.Fatalf("dialed %v, want one dial of the default URL", dialer.urls)
	}

	dialer.last().ev.OnOpen()
	loop.RunPending()
	if got := m.State(); got != StateSyncing {
		t.Fatalf("after open: state = %v, want syncing", got)
	}

	m.Feed(EventSync)
	if got := m.State(); got != StateSynced {
		t.Fatalf("after sync: state = %v, want synced", got)
	}

	dialer.last().ev.OnClose(errors.New("reset"))
	loop.RunPending()
	if got := m.State(); got != StateDropped {
		t.Fatalf("after close: state = %v, want dropped", got)
	}
	if got := clock.Pending(); got != 1 {
		t.Fatalf("pending timers = %d, want exactly one retry", got)
	}

	// Repeated closes keep a single retry timer
	m.Feed(EventClose)
	m.Feed(EventClose)
	if got := clock.Pending(); got != 1 {
		t.Fatalf("pending timers after repeated close = %d, want 1", got)
	}
}

func TestManagerRetry(t *testing.T) {
	m, dialer, clock, loop := newTestManager(t)
	m.Start()
	dialer.last().ev.OnClose(errors.New("refused"))
	loop.RunPending()

	if got := m.Attempts(); got != 1 {
		t.Fatalf("attempts = %d, want 1", got)
	}
	delay := DefaultBackoff.Delay(1)

	clock.Advance(delay - time.Millisecond)
	loop.RunPending()
	if got := m.State(); got != StateDropped {
		t.Fatalf("before delay: state = %v, want dropped", got)
	}

	clock.Advance(time.Millisecond)
	loop.RunPending()
	if got := m.State(); got != StateReconnecting {
		t.Fatalf("after delay: state = %v, want reconnecting", got)
	}
	if got := len(dialer.sockets); got != 2 {
		t.Fatalf("dials = %d, want 2", got)
	}

	dialer.last().ev.OnOpen()
	loop.RunPending()
	if got := m.State(); got != StateSyncing {
		t.Fatalf("after reopen: state = %v, want syncing", got)
	}
}

func TestManagerIgnoresStaleSocket(t *testing.T) {
	m, dialer, clock, loop := newTestManager(t)
	var handled []string
	m.SetHandler(func(raw string) { handled = append(handled, raw) })

	m.Start()
	first := dialer.last()
	first.ev.OnClose(errors.New("refused"))
	loop.RunPending()
	if !first.closed {
		t.Error("dropped socket was not closed")
	}

	clock.Advance(DefaultBackoff.Delay(1))
	loop.RunPending()
	second := dialer.last()
	if second == first {
		t.Fatal("no new socket dialed")
	}

	first.ev.OnOpen()
	first.ev.OnMessage("34")
	first.ev.OnClose(nil)
	loop.RunPending()
	if got := m.State(); got != StateReconnecting {
		t.Fatalf("state = %v after stale callbacks, want reconnecting", got)
	}
	if len(handled) != 0 {
		t.Fatalf("stale message handled: %v", handled)
	}

	second.ev.OnOpen()
	second.ev.OnMessage("34")
	loop.RunPending()
	if got := m.State(); got != StateSyncing {
		t.Fatalf("state = %v, want syncing", got)
	}
	if len(handled) != 1 || handled[0] != "34" {
		t.Fatalf("handled = %v, want [34]", handled)
	}
}

func TestManagerWildcards(t *testing.T) {
	states := []ConnState{
		StateLoading,
		StateConnecting,
		StateSyncing,
		StateSynced,
		StateReconnecting,
		StateDropped,
		StateDesynced,
	}

	for _, s := range states {
		t.Run(s.String(), func(t *testing.T) {
			m, _, _, _ := newTestManager(t)
			m.fsm.state = s
			if !m.Feed(EventClose) || m.State() != StateDropped {
				t.Errorf("close from %v: state = %v, want dropped", s, m.State())
			}

			m.fsm.state = s
			if !m.Feed(EventError) || m.State() != StateDesynced {
				t.Errorf("error from %v: state = %v, want desynced", s, m.State())
			}
		})
	}
}

func TestManagerIgnoresUnlistedEvents(t *testing.T) {
	tests := []struct {
		state ConnState
		event ConnEvent
	}{
		{StateLoading, EventOpen},
		{StateLoading, EventSync},
		{StateConnecting, EventSync},
		{StateSynced, EventOpen},
		{StateSynced, EventStart},
		{StateDesynced, EventRetry},
		{StateDesynced, EventOpen},
		{StateReconnecting, EventRetry},
	}

	for _, tc := range tests {
		m, dialer, _, _ := newTestManager(t)
		m.fsm.state = tc.state
		if m.Feed(tc.event) {
			t.Errorf("%v on %v: transitioned to %v, want no transition", tc.event, tc.state, m.State())
		}
		if len(dialer.sockets) != 0 {
			t.Errorf("%v on %v: dialed", tc.event, tc.state)
		}
	}
}

func TestManagerOffline(t *testing.T) {
	m, dialer, clock, loop := newTestManager(t)
	m.Start()
	dialer.last().ev.OnOpen()
	loop.RunPending()

	m.SetOnline(false)
	if got := m.State(); got != StateDropped {
		t.Fatalf("after offline: state = %v, want dropped", got)
	}

	clock.Advance(DefaultBackoff.Max())
	loop.RunPending()
	if got := m.State(); got != StateDropped {
		t.Fatalf("retry while offline: state = %v, want dropped", got)
	}
	m.Probe()
	if got := len(dialer.sockets); got != 1 {
		t.Fatalf("dials while offline = %d, want 1", got)
	}

	m.SetOnline(true)
	if got := m.State(); got != StateReconnecting {
		t.Fatalf("after online: state = %v, want reconnecting", got)
	}
	if got := m.Attempts(); got != 0 {
		t.Fatalf("attempts = %d, want reset to 0", got)
	}
	if got := len(dialer.sockets); got != 2 {
		t.Fatalf("dials = %d, want 2", got)
	}
}

func TestManagerOfflineWhileDesynced(t *testing.T) {
	m, _, clock, _ := newTestManager(t)
	m.fsm.state = StateDesynced
	m.SetOnline(false)
	if got := m.State(); got != StateDesynced {
		t.Fatalf("state = %v, want desynced", got)
	}
	if got := clock.Pending(); got != 0 {
		t.Fatalf("pending timers = %d, want 0", got)
	}
}

func TestManagerProbe(t *testing.T) {
	m, dialer, _, loop := newTestManager(t)
	m.Start()
	dialer.last().ev.OnOpen()
	loop.RunPending()
	m.Feed(EventSync)

	m.Probe()
	sent := dialer.last().sent
	if len(sent) != 1 || sent[0] != "34" {
		t.Fatalf("sent = %v, want a NOOP", sent)
	}

	dialer.last().ev.OnClose(nil)
	loop.RunPending()
	m.Probe()
	if got := m.State(); got != StateReconnecting {
		t.Fatalf("probe while dropped: state = %v, want reconnecting", got)
	}
}

func TestManagerResetsAttempts(t *testing.T) {
	m, dialer, clock, loop := newTestManager(t)
	m.Start()
	for i := 1; i <= 3; i++ {
		dialer.last().ev.OnClose(nil)
		loop.RunPending()
		clock.Advance(DefaultBackoff.Delay(i))
		loop.RunPending()
	}
	if got := m.Attempts(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}

	dialer.last().ev.OnOpen()
	loop.RunPending()
	clock.Advance(DefaultConfig().ResetAttemptsAfter - time.Second)
	loop.RunPending()
	if got := m.Attempts(); got != 3 {
		t.Fatalf("attempts reset early: %d", got)
	}

	clock.Advance(time.Second)
	loop.RunPending()
	if got := m.Attempts(); got != 0 {
		t.Fatalf("attempts = %d, want 0", got)
	}
}

func TestManagerOpenHooks(t *testing.T) {
	m, dialer, _, loop := newTestManager(t)
	var states []ConnState
	m.OnOpen(func() { states = append(states, m.State()) })

	m.Start()
	dialer.last().ev.OnOpen()
	loop.RunPending()
	if len(states) != 1 || states[0] != StateSyncing {
		t.Fatalf("hook saw %v, want [syncing]", states)
	}
}

func TestManagerSendWhileClosed(t *testing.T) {
	dialer := &fakeDialer{}
	metrics := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	m := NewManager(DefaultConfig(), dialer, newFakeClock(), NewLoop(), discardLogger(), metrics)

	if m.SendEmpty(34) {
		t.Error("SendEmpty() = true while closed")
	}
	if m.Send(3, []int{1, 97}) {
		t.Error("Send() = true while closed")
	}
	if got := testutil.ToFloat64(metrics.framesDropped.WithLabelValues("NOOP")); got != 1 {
		t.Errorf("dropped NOOP = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.framesDropped.WithLabelValues("Append")); got != 1 {
		t.Errorf("dropped Append = %v, want 1", got)
	}

	// Connecting but not yet open
	m.Start()
	m.SendEmpty(34)
	if got := len(dialer.last().sent); got != 0 {
		t.Fatalf("sent %d frames before open", got)
	}
}

func TestManagerShutdown(t *testing.T) {
	m, dialer, clock, loop := newTestManager(t)
	m.Start()
	dialer.last().ev.OnClose(nil)
	loop.RunPending()

	m.Shutdown()
	if got := clock.Pending(); got != 0 {
		t.Fatalf("pending timers = %d, want 0", got)
	}
	clock.Advance(time.Hour)
	loop.RunPending()
	if got := len(dialer.sockets); got != 1 {
		t.Fatalf("dials after shutdown = %d, want 1", got)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 750 * time.Millisecond},
		{3, 750 * time.Millisecond},
		{4, 1125 * time.Millisecond},
	}
	for _, tc := range tests {
		if got := DefaultBackoff.Delay(tc.attempt); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}

	prev := time.Duration(0)
	for n := 0; n <= 100; n++ {
		d := DefaultBackoff.Delay(n)
		if d < prev {
			t.Errorf("Delay(%d) = %v < Delay(%d) = %v", n, d, n-1, prev)
		}
		if d > DefaultBackoff.Max() {
			t.Errorf("Delay(%d) = %v exceeds max %v", n, d, DefaultBackoff.Max())
		}
		prev = d
	}
	if got := DefaultBackoff.Delay(100); got != DefaultBackoff.Max() {
		t.Errorf("Delay(100) = %v, want max %v", got, DefaultBackoff.Max())
	}
	if top := DefaultBackoff.Max(); top < 64*time.Second || top > 66*time.Second {
		t.Errorf("Max() = %v, want about 65s", top)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		state ConnState
		want  SyncStatus
	}{
		{StateLoading, StatusDisconnected},
		{StateConnecting, StatusConnecting},
		{StateSyncing, StatusSyncing},
		{StateSynced, StatusSynced},
		{StateReconnecting, StatusConnecting},
		{StateDropped, StatusDisconnected},
		{StateDesynced, StatusDesynced},
	}
	for _, tc := range tests {
		if got := StatusOf(tc.state); got != tc.want {
			t.Errorf("StatusOf(%v) = %v, want %v", tc.state, got, tc.want)
		}
	}
}
