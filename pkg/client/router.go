package client

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/livesync/pkg/protocol"
)

// Handler processes one decoded frame.
type Handler func(f protocol.Frame) error

// Router dispatches decoded frames to the handler registered for their
// message type. Frames of unregistered types are ignored, so servers can
// introduce new message types without breaking older clients.
type Router struct {
	codec    protocol.Codec
	handlers map[protocol.MessageType]Handler
	logger   *slog.Logger
	metrics  *Metrics
}

// NewRouter returns a router without handlers.
func NewRouter(codec protocol.Codec, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		codec:    codec,
		handlers: make(map[protocol.MessageType]Handler),
		logger:   logger.With("component", "router"),
	}
}

// SetMetrics enables metrics recording.
func (r *Router) SetMetrics(m *Metrics) {
	r.metrics = m
}

// Handle registers h for messages of type t. It panics if a handler is
// already registered for t.
func (r *Router) Handle(t protocol.MessageType, h Handler) {
	if _, ok := r.handlers[t]; ok {
		panic(fmt.Errorf("%w for %s", ErrDuplicateHandler, t))
	}
	r.handlers[t] = h
}

// HandleJSON registers fn for messages of type t, decoding the payload into
// a T first. A frame without payload passes the zero T.
func HandleJSON[T any](r *Router, t protocol.MessageType, fn func(T) error) {
	r.Handle(t, func(f protocol.Frame) error {
		var v T
		if f.HasPayload() {
			if err := f.Unmarshal(&v); err != nil {
				return fmt.Errorf("decoding %s payload: %w", t, err)
			}
		}
		return fn(v)
	})
}

// Dispatch decodes raw and runs the handler of every contained frame, in
// order, before returning. The first decode or handler error stops the
// remaining frames of the message and is returned.
func (r *Router) Dispatch(raw string) error {
	return r.codec.Walk(raw, func(f protocol.Frame) error {
		r.metrics.recordReceived(f.Type)
		h, ok := r.handlers[f.Type]
		if !ok {
			r.logger.Debug("ignoring message", "type", f.Type)
			return nil
		}
		if err := h(f); err != nil {
			return &HandlerError{Type: f.Type, Err: err}
		}
		return nil
	})
}
