package client

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/livesync/pkg/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward and runs the callbacks of due timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

type fakeDialer struct {
	urls    []string
	sockets []*fakeSocket
}

func (d *fakeDialer) Dial(url string, ev SocketEvents) Socket {
	s := &fakeSocket{ev: ev}
	d.urls = append(d.urls, url)
	d.sockets = append(d.sockets, s)
	return s
}

func (d *fakeDialer) last() *fakeSocket {
	if len(d.sockets) == 0 {
		return nil
	}
	return d.sockets[len(d.sockets)-1]
}

type fakeSocket struct {
	ev       SocketEvents
	sent     []string
	closed   bool
	failSend error
}

func (s *fakeSocket) Send(msg string) error {
	if s.closed {
		return ErrNotConnected
	}
	if s.failSend != nil {
		return s.failSend
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSocket) Close() error {
	s.closed = true
	return nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	posts map[uint64]protocol.PostData
	errs  map[uint64]error
	calls []uint64

	// gate, if set, blocks fetches until closed. With ignoreCancel the
	// fetch keeps waiting after its context is cancelled.
	gate         chan struct{}
	ignoreCancel bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		posts: make(map[uint64]protocol.PostData),
		errs:  make(map[uint64]error),
	}
}

func (f *fakeFetcher) FetchPost(ctx context.Context, id uint64) (*protocol.PostData, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	gate := f.gate
	ignoreCancel := f.ignoreCancel
	f.mu.Unlock()

	if gate != nil && ignoreCancel {
		<-gate
	} else if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	data, ok := f.posts[id]
	if !ok {
		return nil, &HTTPError{StatusCode: 404}
	}
	return &data, nil
}

func (f *fakeFetcher) Calls() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.calls...)
}

type alertRecorder struct {
	alerts []string
}

func (a *alertRecorder) Alert(msg string) {
	a.alerts = append(a.alerts, msg)
}

// waitFor runs the loop until cond holds. Fetch results arrive from other
// goroutines, so the loop may need several passes.
func waitFor(t *testing.T, loop *Loop, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		loop.RunPending()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeDialer, *fakeClock, *Loop) {
	t.Helper()
	dialer := &fakeDialer{}
	clock := newFakeClock()
	loop := NewLoop()
	m := NewManager(DefaultConfig(), dialer, clock, loop, discardLogger(), nil)
	return m, dialer, clock, loop
}

// testClient is a Client wired to fakes.
type testClient struct {
	*Client
	dialer  *fakeDialer
	clock   *fakeClock
	fetcher *fakeFetcher
	alerts  *alertRecorder
}

func newTestClient(t *testing.T, page Page) *testClient {
	t.Helper()
	tc := &testClient{
		dialer:  &fakeDialer{},
		clock:   newFakeClock(),
		fetcher: newFakeFetcher(),
		alerts:  &alertRecorder{},
	}
	tc.Client = New(Options{
		Page:    page,
		Dialer:  tc.dialer,
		Clock:   tc.clock,
		Fetcher: tc.fetcher,
		Alerter: tc.alerts,
		Logger:  discardLogger(),
	})
	return tc
}

// connect starts the client and opens the socket.
func (tc *testClient) connect() *fakeSocket {
	tc.Start()
	s := tc.dialer.last()
	s.ev.OnOpen()
	tc.loop.RunPending()
	return s
}

// receive delivers an inbound message on the current socket.
func (tc *testClient) receive(msg string) {
	tc.dialer.last().ev.OnMessage(msg)
	tc.loop.RunPending()
}

// handshake connects and completes a handshake in which the server agrees
// with the local view of open posts.
func (tc *testClient) handshake(t *testing.T) *fakeSocket {
	t.Helper()
	s := tc.connect()
	open := make(map[uint64]protocol.OpenPost)
	for _, p := range tc.Posts().Open() {
		open[p.ID()] = protocol.OpenPost{Body: p.Body()}
	}
	raw, err := protocol.Encode(protocol.MessageSynchronise, protocol.SyncData{
		Recent: []uint64{},
		Open:   open,
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	tc.receive(raw)
	if got := tc.conn.State(); got != StateSynced {
		t.Fatalf("state = %v, want synced", got)
	}
	return s
}
