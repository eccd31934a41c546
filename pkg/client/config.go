package client

import (
	"time"

	"github.com/vango-dev/livesync/pkg/protocol"
)

// Config holds the configuration of a Client.
type Config struct {
	// URL is the WebSocket endpoint.
	// Default: "ws://localhost:8000/api/socket".
	URL string

	// APIURL is the root of the JSON API used to fetch posts.
	// Default: "http://localhost:8000".
	APIURL string

	// Reconnection

	// ResetAttemptsAfter is how long a connection must stay open for the
	// reconnection attempt counter to reset.
	// Default: 10 seconds.
	ResetAttemptsAfter time.Duration

	// Backoff computes the delay between reconnection attempts.
	// Default: DefaultBackoff.
	Backoff Backoff

	// Sync

	// ReclaimWindow is how old an open authored post may be and still be
	// reclaimed after a reconnect.
	// Default: 15 minutes.
	ReclaimWindow time.Duration

	// FetchTimeout bounds every post fetch, retries included.
	// Default: 15 seconds.
	FetchTimeout time.Duration

	// Protocol

	// Codec decodes inbound messages.
	// Default: protocol.DefaultCodec.
	Codec protocol.Codec

	// MaxBodyLength is the post body length limit in characters.
	// Default: protocol.MaxBodyLength.
	MaxBodyLength int

	// WebSocket

	// HandshakeTimeout bounds the WebSocket handshake.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds a single socket write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum size of an inbound message.
	// Default: protocol.MaxFrameSize.
	MaxMessageSize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		URL:                "ws://localhost:8000/api/socket",
		APIURL:             "http://localhost:8000",
		ResetAttemptsAfter: 10 * time.Second,
		Backoff:            DefaultBackoff,
		ReclaimWindow:      15 * time.Minute,
		FetchTimeout:       15 * time.Second,
		Codec:              protocol.DefaultCodec,
		MaxBodyLength:      protocol.MaxBodyLength,
		HandshakeTimeout:   10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxMessageSize:     protocol.MaxFrameSize,
	}
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults returns a copy with zero values replaced by defaults.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := c.Clone()
	if out.URL == "" {
		out.URL = d.URL
	}
	if out.APIURL == "" {
		out.APIURL = d.APIURL
	}
	if out.ResetAttemptsAfter <= 0 {
		out.ResetAttemptsAfter = d.ResetAttemptsAfter
	}
	if out.Backoff.Base <= 0 {
		out.Backoff.Base = d.Backoff.Base
	}
	if out.Backoff.Factor < 1 {
		out.Backoff.Factor = d.Backoff.Factor
	}
	if out.Backoff.MaxExponent <= 0 {
		out.Backoff.MaxExponent = d.Backoff.MaxExponent
	}
	if out.ReclaimWindow <= 0 {
		out.ReclaimWindow = d.ReclaimWindow
	}
	if out.FetchTimeout <= 0 {
		out.FetchTimeout = d.FetchTimeout
	}
	if out.Codec.Concat == 0 {
		out.Codec = d.Codec
	}
	if out.MaxBodyLength <= 0 {
		out.MaxBodyLength = d.MaxBodyLength
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = d.HandshakeTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	return out
}
