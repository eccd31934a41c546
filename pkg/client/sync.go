package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vango-dev/livesync/pkg/posts"
	"github.com/vango-dev/livesync/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Page describes what the client is looking at.
type Page interface {
	Board() string

	// Thread returns the thread ID, or 0 on a board index page.
	Thread() uint64

	// LastN returns the number of most recent replies shown, or 0 when the
	// whole thread is shown.
	LastN() int
}

// StaticPage is a Page with fixed values.
type StaticPage struct {
	BoardID  string
	ThreadID uint64
	Last     int
}

func (p StaticPage) Board() string  { return p.BoardID }
func (p StaticPage) Thread() uint64 { return p.ThreadID }
func (p StaticPage) LastN() int     { return p.Last }

// Alerter shows messages to the user.
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a function to the Alerter interface.
type AlertFunc func(msg string)

// Alert calls f(msg).
func (f AlertFunc) Alert(msg string) { f(msg) }

var errStaleSync = errors.New("client: superseded by a newer synchronisation")

// SyncOptions are the collaborators of a Synchronizer.
type SyncOptions struct {
	Conn    *Manager
	Page    Page
	Posts   *posts.Collection
	Slot    *posts.Slot
	Fetcher Fetcher
	Alerter Alerter
	Logger  *slog.Logger
	Metrics *Metrics
}

// Synchronizer performs the sync handshake every time the connection
// opens and reconciles the local posts with the backlog the server replies
// with. Only after reconciliation succeeds is the connection marked synced.
type Synchronizer struct {
	conn    *Manager
	page    Page
	posts   *posts.Collection
	slot    *posts.Slot
	fetcher Fetcher
	alerter Alerter
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	ctx     context.Context

	// Incremented by every sync request and lost connection. Fetch results
	// from an older epoch are discarded.
	epoch   uint64
	active  *syncRun
	lastErr error
}

type fetchJob struct {
	id       uint64
	required bool
	rev      uint64 // Revision of the local post when the fetch started
}

type syncRun struct {
	epoch   uint64
	pending int
	err     error
	start   time.Time
	span    trace.Span
	cancel  context.CancelFunc
}

// NewSynchronizer returns a Synchronizer hooked into the connection.
func NewSynchronizer(opts SyncOptions) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synchronizer{
		conn:    opts.Conn,
		page:    opts.Page,
		posts:   opts.Posts,
		slot:    opts.Slot,
		fetcher: opts.Fetcher,
		alerter: opts.Alerter,
		logger:  logger.With("component", "sync"),
		metrics: opts.Metrics,
		tracer:  tracer(""),
		ctx:     context.Background(),
	}
	if s.slot == nil {
		s.slot = &posts.Slot{}
	}
	if s.alerter == nil {
		s.alerter = AlertFunc(func(msg string) { s.logger.Warn("alert", "message", msg) })
	}

	s.conn.OnOpen(s.request)
	s.conn.OnStateChange(func(_, to ConnState, _ ConnEvent) {
		if to != StateDropped && to != StateDesynced {
			return
		}
		s.epoch++
		if s.active != nil {
			s.active.cancel()
			s.active = nil
		}
	})
	return s
}

// Register installs the synchronise and reclaim handlers.
func (s *Synchronizer) Register(r *Router) {
	HandleJSON(r, protocol.MessageSynchronise, s.handleSync)
	HandleJSON(r, protocol.MessageReclaim, s.handleReclaim)
}

// SetContext sets the parent context of reconciliation fetches.
func (s *Synchronizer) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// Err returns the error of the last failed reconciliation, or nil if the
// last one succeeded.
func (s *Synchronizer) Err() error {
	return s.lastErr
}

// request subscribes to the current page and reclaims a post lost with the
// previous connection.
func (s *Synchronizer) request() {
	s.epoch++
	s.active = nil
	s.conn.Send(protocol.MessageSynchronise, protocol.SyncRequest{
		Board:  s.page.Board(),
		Thread: s.page.Thread(),
	})
	s.reclaim()
}

func (s *Synchronizer) reclaim() {
	a := s.slot.Current()
	if a == nil {
		return
	}
	switch a.Status() {
	case posts.StatusDraft:
		// The allocation request or its reply was lost with the connection.
		s.logger.Info("abandoning unallocated post")
		a.Abandon()
		s.slot.Release()
		return
	case posts.StatusHalted:
	default:
		return
	}
	if s.page.Thread() == 0 {
		return
	}

	p := a.Post()
	age := s.conn.clock.Now().Sub(time.Unix(p.Time(), 0))
	if age < s.conn.cfg.ReclaimWindow {
		s.logger.Info("reclaiming post", "post", p.ID())
		s.conn.Send(protocol.MessageReclaim, protocol.ReclaimRequest{
			ID:       p.ID(),
			Password: a.Password(),
		})
		return
	}
	s.logger.Info("abandoning expired post", "post", p.ID(), "age", age)
	a.Abandon()
	s.slot.Release()
}

func (s *Synchronizer) handleReclaim(status protocol.ReclaimStatus) error {
	a := s.slot.Current()
	if a == nil || a.Status() != posts.StatusHalted {
		s.logger.Debug("unexpected reclaim reply", "status", status)
		return nil
	}
	if status == protocol.ReclaimOK {
		s.logger.Info("post reclaimed", "post", a.Post().ID())
		a.Resume()
		return nil
	}
	s.logger.Info("reclaim denied", "post", a.Post().ID())
	a.Abandon()
	s.slot.Release()
	return nil
}

func (s *Synchronizer) handleSync(data *protocol.SyncData) error {
	if s.conn.State() != StateSyncing {
		s.logger.Debug("ignoring sync reply", "state", s.conn.State())
		return nil
	}
	if s.active != nil && s.active.epoch == s.epoch {
		s.logger.Debug("ignoring duplicate sync reply")
		return nil
	}

	// Board pages have no backlog
	if data == nil {
		s.lastErr = nil
		s.conn.Feed(EventSync)
		return nil
	}

	// Statuses bump revisions, so they go first for plan to capture them.
	s.applyStatuses(data)
	jobs := s.plan(data)

	ctx, cancel := context.WithTimeout(s.ctx, s.conn.cfg.FetchTimeout)
	ctx, span := startSpan(ctx, s.tracer, "livesync.reconcile",
		attribute.String("livesync.board", s.page.Board()),
		attribute.Int64("livesync.thread", int64(s.page.Thread())),
		attribute.Int("livesync.fetches", len(jobs)),
	)
	run := &syncRun{
		epoch:  s.epoch,
		start:  s.conn.clock.Now(),
		span:   span,
		cancel: cancel,
	}
	s.active = run

	if len(jobs) == 0 {
		s.complete(run)
		return nil
	}

	run.pending = len(jobs)
	loop := s.conn.loop
	for _, job := range jobs {
		job := job
		go func() {
			data, err := s.fetcher.FetchPost(ctx, job.id)
			loop.Post(func() {
				s.finish(run, job, data, err)
			})
		}()
	}
	return nil
}

// plan lists the fetches needed to catch up with the server.
func (s *Synchronizer) plan(data *protocol.SyncData) []fetchJob {
	var jobs []fetchJob

	// Open posts the server no longer considers open were closed while we
	// were away.
	for _, p := range s.posts.Open() {
		if _, ok := data.Open[p.ID()]; !ok {
			jobs = append(jobs, fetchJob{id: p.ID(), required: true, rev: p.Revision()})
		}
	}

	// Posts created while we were away. Open ones are skipped.
	minID := s.minID()
	seen := make(map[uint64]bool, len(data.Recent))
	for _, id := range data.Recent {
		if seen[id] || id < minID || s.posts.Has(id) {
			continue
		}
		seen[id] = true
		if _, ok := data.Open[id]; ok {
			continue
		}
		jobs = append(jobs, fetchJob{id: id})
	}
	return jobs
}

// minID returns the lowest post ID shown on a shortened thread page.
func (s *Synchronizer) minID() uint64 {
	if s.page.LastN() <= 0 {
		return 0
	}
	if id := s.posts.MinReplyID(); id != 0 {
		return id
	}
	return s.page.Thread()
}

func (s *Synchronizer) applyStatuses(data *protocol.SyncData) {
	for _, id := range data.Banned {
		if p, ok := s.posts.Get(id); ok {
			p.SetBanned()
		}
	}
	for _, id := range data.Deleted {
		if p, ok := s.posts.Get(id); ok {
			p.SetDeleted()
		}
	}
	for _, id := range data.DeletedImage {
		if p, ok := s.posts.Get(id); ok {
			p.RemoveImage()
		}
	}
}

func (s *Synchronizer) finish(run *syncRun, job fetchJob, data *protocol.PostData, err error) {
	run.pending--
	stale := run.epoch != s.epoch

	switch {
	case stale:
	case err != nil && job.required:
		s.metrics.recordFetchError("required")
		if run.err == nil {
			run.err = &SyncError{PostID: job.id, Err: err}
		}
	case err != nil:
		s.metrics.recordFetchError("backfill")
		s.logger.Debug("backfill fetch failed", "post", job.id, "error", err)
	case job.required:
		s.overwrite(job, data)
	default:
		s.insert(data)
	}

	if run.pending > 0 {
		return
	}
	if stale {
		run.cancel()
		endSpan(run.span, errStaleSync)
		return
	}
	s.complete(run)
}

// overwrite replaces a post with fetched data, unless the post changed
// while the fetch was in flight.
func (s *Synchronizer) overwrite(job fetchJob, data *protocol.PostData) {
	p, ok := s.posts.Get(job.id)
	if !ok {
		return
	}
	if p.Revision() != job.rev {
		s.logger.Debug("post changed during fetch, keeping local state", "post", job.id)
		return
	}
	p.Extend(*data)
}

func (s *Synchronizer) insert(data *protocol.PostData) {
	if s.posts.Has(data.ID) {
		return
	}
	s.posts.Add(posts.NewPost(*data))
}

func (s *Synchronizer) complete(run *syncRun) {
	d := s.conn.clock.Now().Sub(run.start)
	s.metrics.recordSync(d, run.err)
	endSpan(run.span, run.err)
	run.cancel()

	if run.err != nil {
		s.lastErr = run.err
		s.logger.Error("synchronisation failed", "error", run.err)
		s.alerter.Alert(run.err.Error())
		return
	}
	s.lastErr = nil
	s.logger.Info("synchronised", "duration", d)
	s.conn.Feed(EventSync)
}
