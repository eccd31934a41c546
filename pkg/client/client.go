package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vango-dev/livesync/pkg/posts"
	"github.com/vango-dev/livesync/pkg/protocol"
)

// Options configures a Client. Only Page is required.
type Options struct {
	Config *Config
	Page   Page

	// Posts is the collection kept in sync. Defaults to an empty collection
	// rendering through Renderer.
	Posts    *posts.Collection
	Renderer posts.Renderer

	// Dialer opens sockets. Defaults to a WebSocketDialer.
	Dialer Dialer

	// Fetcher retrieves posts during reconciliation and for previews.
	// Defaults to an HTTPFetcher for Config.APIURL.
	Fetcher Fetcher

	Clock   Clock
	Alerter Alerter
	Logger  *slog.Logger
	Metrics *Metrics
}

// Client keeps a post collection synchronised with the server.
//
// Except for Run, Loop and the constructor, methods must be called on the
// client's Loop, for example through Loop().Do.
type Client struct {
	cfg     *Config
	page    Page
	loop    *Loop
	conn    *Manager
	router  *Router
	sync    *Synchronizer
	posts   *posts.Collection
	slot    *posts.Slot
	fetcher Fetcher
	alerter Alerter
	logger  *slog.Logger
	metrics *Metrics
}

// New returns a client in the loading state. Nothing happens until Start
// or Run is called.
func New(opts Options) *Client {
	cfg := opts.Config.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	page := opts.Page
	if page == nil {
		page = StaticPage{}
	}
	collection := opts.Posts
	if collection == nil {
		collection = posts.NewCollection(opts.Renderer)
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = NewWebSocketDialer(cfg, logger)
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(cfg.APIURL, nil)
	}
	alerter := opts.Alerter
	if alerter == nil {
		alertLogger := logger.With("component", "alert")
		alerter = AlertFunc(func(msg string) { alertLogger.Warn(msg) })
	}

	c := &Client{
		cfg:     cfg,
		page:    page,
		loop:    NewLoop(),
		posts:   collection,
		slot:    &posts.Slot{},
		fetcher: fetcher,
		alerter: alerter,
		logger:  logger.With("component", "client"),
		metrics: opts.Metrics,
	}
	c.conn = NewManager(cfg, dialer, opts.Clock, c.loop, logger, opts.Metrics)
	c.router = NewRouter(cfg.Codec, logger)
	c.router.SetMetrics(opts.Metrics)

	c.sync = NewSynchronizer(SyncOptions{
		Conn:    c.conn,
		Page:    page,
		Posts:   collection,
		Slot:    c.slot,
		Fetcher: fetcher,
		Alerter: alerter,
		Logger:  logger,
		Metrics: opts.Metrics,
	})
	c.sync.Register(c.router)
	handlers := &postHandlers{
		conn:    c.conn,
		page:    page,
		posts:   collection,
		slot:    c.slot,
		alerter: alerter,
		logger:  logger.With("component", "posts"),
	}
	handlers.register(c.router)

	c.conn.SetHandler(c.dispatch)
	c.conn.OnStateChange(func(_, to ConnState, _ ConnEvent) {
		if to != StateDropped && to != StateDesynced {
			return
		}
		// Input is locked until the post is reclaimed
		if a := c.slot.Current(); a != nil {
			a.Halt()
		}
	})
	return c
}

func (c *Client) dispatch(raw string) {
	err := c.router.Dispatch(raw)
	if err == nil {
		return
	}
	var decodeErr *protocol.DecodeError
	if errors.As(err, &decodeErr) {
		c.metrics.recordDecodeError()
	}
	c.logger.Error("message dispatch failed", "error", err)
}

// Loop returns the loop all client state is mutated on.
func (c *Client) Loop() *Loop { return c.loop }

// Posts returns the synchronised collection.
func (c *Client) Posts() *posts.Collection { return c.posts }

// Connection returns the connection manager.
func (c *Client) Connection() *Manager { return c.conn }

// Start begins connecting.
func (c *Client) Start() {
	c.conn.Start()
}

// Run connects and processes events until ctx is cancelled, then closes the
// connection.
func (c *Client) Run(ctx context.Context) error {
	c.sync.SetContext(ctx)
	c.loop.Post(c.Start)
	err := c.loop.Run(ctx)
	c.conn.Shutdown()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown closes the connection and stops its timers.
func (c *Client) Shutdown() {
	c.conn.Shutdown()
}

// Status returns the user visible synchronisation status.
func (c *Client) Status() SyncStatus {
	return c.conn.Status()
}

// OnStatusChange registers fn to be called when the status changes.
func (c *Client) OnStatusChange(fn func(SyncStatus)) {
	c.conn.OnStateChange(func(from, to ConnState, _ ConnEvent) {
		if StatusOf(from) != StatusOf(to) {
			fn(StatusOf(to))
		}
	})
}

// Err returns the error of the last failed reconciliation.
func (c *Client) Err() error {
	return c.sync.Err()
}

// DesyncErr returns the reason the client desynchronised, or nil. It is
// set before status listeners are notified.
func (c *Client) DesyncErr() error {
	return c.conn.Cause()
}

// Probe checks the connection, typically after the page became visible.
func (c *Client) Probe() {
	c.conn.Probe()
}

// SetOnline reports a change of network connectivity.
func (c *Client) SetOnline(online bool) {
	c.conn.SetOnline(online)
}

// BeginPost requests allocation of a new reply in the current thread. The
// post accepts input once the server assigned its ID.
func (c *Client) BeginPost(view posts.InputView, opts posts.AuthorOptions) (*posts.AuthoredPost, error) {
	if c.page.Thread() == 0 {
		return nil, ErrNoThread
	}
	if c.conn.State() != StateSynced {
		return nil, ErrNotSynced
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = c.cfg.MaxBodyLength
	}
	a := posts.NewAuthoredPost(c.conn, view, opts)
	if err := c.slot.Begin(a); err != nil {
		return nil, err
	}
	c.conn.Send(protocol.MessageInsertPost, a.Request())
	return a, nil
}

// Input commits the new contents of the input line of the authored post.
func (c *Client) Input(val string) error {
	a := c.slot.Current()
	if a == nil {
		return ErrNoPost
	}
	return a.ParseInput(val)
}

// ClosePost closes the authored post. Returns false if there was none.
func (c *Client) ClosePost() bool {
	a := c.slot.Current()
	if a == nil {
		return false
	}
	closed := a.CommitClose()
	c.slot.Release()
	return closed
}

// Preview calls fn on the loop with the post's data. Known posts are served
// from the collection; others are fetched and never added to it.
func (c *Client) Preview(ctx context.Context, id uint64, fn func(*protocol.PostData, error)) {
	if p, ok := c.posts.Get(id); ok {
		data := p.Data()
		fn(&data, nil)
		return
	}
	go func() {
		data, err := c.fetcher.FetchPost(ctx, id)
		c.loop.Post(func() { fn(data, err) })
	}()
}
