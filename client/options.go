package client

import (
	"log/slog"
	"time"
)

const (
	defaultInlineThreshold = 1000
	defaultReadBufferSize  = 4096
	defaultDialTimeout     = time.Second
)

// options holds the only configuration the core recognizes (§6): the
// catalog-facing inline/array threshold, read-buffer tuning, and the
// ambient logging/metrics sinks.
type options struct {
	inlineThreshold int
	readBufferSize  int
	dialTimeout     time.Duration
	logger          *slog.Logger
	metrics         *Metrics
}

func defaultOptions() options {
	return options{
		inlineThreshold: defaultInlineThreshold,
		readBufferSize:  defaultReadBufferSize,
		dialTimeout:     defaultDialTimeout,
		logger:          slog.Default(),
	}
}

// Option configures a Conn at construction time.
type Option func(*options)

// WithInlineThreshold sets the byte-size threshold the command
// catalog should use to decide inline_hint. The core itself never
// reads this value for encoding decisions — CanInline governs
// correctness — but it is surfaced so a catalog layer built on this
// client can share one source of truth with whatever dialed it.
func WithInlineThreshold(bytes int) Option {
	return func(o *options) { o.inlineThreshold = bytes }
}

// InlineThreshold reports the configured threshold.
func (c *Conn) InlineThreshold() int { return c.opts.inlineThreshold }

// WithReadBufferSize sets the size of each buffer Conn.readLoop
// allocates per Read call. Tuning only; it has no effect on decoded
// results, only on how many syscalls a large bulk payload costs.
func WithReadBufferSize(bytes int) Option {
	return func(o *options) { o.readBufferSize = bytes }
}

// WithDialTimeout bounds Dial's connection-establishment time. Unused
// by New, which takes an already-connected stream.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithLogger installs the structured logger Conn hands to its Engine,
// which logs transport failures with it. Reply payloads are never
// logged, since they may carry arbitrary application data.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics installs a Metrics sink built with NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
