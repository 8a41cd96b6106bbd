package client

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/kvwire/respclient/resp"
)

// outcome is what a Submit call eventually receives: either a decoded
// reply or a failure (ServerError or *TransportError).
type outcome struct {
	reply resp.Reply
	err   error
}

// pending is a Queued Command (§3): created on Submit, destroyed when
// its outcome is delivered.
type pending struct {
	cmd        resp.Command
	inlineHint bool
	ctx        context.Context
	result     chan outcome
}

// Engine is the pipelined request/reply driver (§4.D): it serializes
// submitted commands onto w in FIFO order, and for each one awaits
// exactly one reply from dec before moving to the next. Exactly one
// pump goroutine runs at a time (the single-flight guard), started
// lazily by the first Submit call on an idle Engine and self
// terminating once the queue drains.
type Engine struct {
	w       io.Writer
	dec     *resp.Decoder
	logger  *slog.Logger
	metrics *Metrics

	mu         sync.Mutex
	queue      []*pending
	pumpActive bool
	pumpDone   chan struct{}
	rejectErr  error
}

// NewEngine wires an Engine to the byte-stream writer and the decoder
// reading from the same stream. Conn is the only caller; this split
// exists so the pump and the FIFO can be tested against a decoder fed
// by hand, without a real socket.
func NewEngine(w io.Writer, dec *resp.Decoder, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{w: w, dec: dec, logger: logger, metrics: metrics}
}

// Submit appends cmd to the FIFO and starts the pump if it is not
// already running. It blocks until a reply, a server error, or a
// transport error is available for this specific command.
//
// If ctx is cancelled before the pump reaches this command, it is
// resolved with ctx.Err() without ever being written — no wire bytes
// are spent on an abandoned command that was never sent. Once the
// pump has popped a command off the queue, cancellation is no longer
// honored: per §5, the core does not cancel an in-flight command,
// since its reply slot in the stream is already claimed.
func (e *Engine) Submit(ctx context.Context, cmd resp.Command, inlineHint bool) (resp.Reply, error) {
	e.mu.Lock()
	if e.rejectErr != nil {
		err := e.rejectErr
		e.mu.Unlock()
		return resp.Reply{}, err
	}

	p := &pending{cmd: cmd, inlineHint: inlineHint, ctx: ctx, result: make(chan outcome, 1)}
	e.queue = append(e.queue, p)

	start := !e.pumpActive
	var done chan struct{}
	if start {
		e.pumpActive = true
		done = make(chan struct{})
		e.pumpDone = done
	}
	if e.metrics != nil {
		e.metrics.setQueueDepth(len(e.queue))
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.observeSubmit()
	}
	if start {
		go e.pump(done)
	}

	out := <-p.result
	return out.reply, out.err
}

// Idle returns a channel that is closed once no pump is running —
// immediately, if none is running right now. Conn.Close uses this to
// implement the drain-then-close policy: reject new submissions, wait
// for the current pump to finish working through whatever was already
// queued, then close the socket.
func (e *Engine) Idle() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.pumpActive {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return e.pumpDone
}

// SetRejecting causes every future Submit call to fail immediately
// with err, without disturbing any work already queued or in flight.
func (e *Engine) SetRejecting(err error) {
	e.mu.Lock()
	if e.rejectErr == nil {
		e.rejectErr = err
	}
	e.mu.Unlock()
}

// Abort rejects future submissions with err and immediately resolves
// every command still waiting in the queue with err. It deliberately
// does not touch whatever command the pump currently has in flight —
// that command's reply slot on the wire is already claimed, so its
// fate is left to the natural failure the caller's subsequent socket
// Close() will trigger (the pump's write or NextReply call will
// error, landing in failAll below, which resolves that command with
// err as well).
func (e *Engine) Abort(err error) {
	e.mu.Lock()
	if e.rejectErr == nil {
		e.rejectErr = err
	}
	remaining := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, p := range remaining {
		p.result <- outcome{err: err}
	}
}

// pump is the single-flight driver loop (§4.D steps 1-5).
func (e *Engine) pump(done chan struct{}) {
	defer close(done)

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.pumpActive = false
			e.mu.Unlock()
			return
		}
		p := e.queue[0]
		e.queue = e.queue[1:]
		if e.metrics != nil {
			e.metrics.setQueueDepth(len(e.queue))
		}
		e.mu.Unlock()

		if p.ctx != nil && p.ctx.Err() != nil {
			p.result <- outcome{err: p.ctx.Err()}
			continue
		}

		if err := resp.Encode(e.w, p.cmd, p.inlineHint); err != nil {
			e.failAll(p, newTransportError(KindIO, err))
			return
		}

		reply, err := e.dec.NextReply()
		if err != nil {
			e.failAll(p, asTransportError(err))
			return
		}

		if e.metrics != nil {
			e.metrics.observeReply(reply.Kind)
		}
		if reply.Kind == resp.KindError {
			if e.metrics != nil {
				e.metrics.observeServerError()
			}
			p.result <- outcome{err: ServerError(reply.Err)}
			continue
		}
		p.result <- outcome{reply: reply}
	}
}

// failAll is reached only on a transport failure: the command
// currently in flight and every command still queued behind it all
// resolve with the same error instance, and no further submissions
// are accepted (§7, property 7). If Abort already installed a
// *TransportError, that instance is the one delivered.
func (e *Engine) failAll(inFlight *pending, err error) {
	e.mu.Lock()
	remaining := e.queue
	e.queue = nil
	e.pumpActive = false
	if e.rejectErr == nil {
		e.rejectErr = err
	} else if te, ok := e.rejectErr.(*TransportError); ok {
		err = te
	}
	e.mu.Unlock()

	e.logger.Warn("respclient: connection failed, failing queued commands",
		"error", err, "queued", len(remaining))
	if e.metrics != nil {
		e.metrics.observeTransportError()
	}

	inFlight.result <- outcome{err: err}
	for _, p := range remaining {
		p.result <- outcome{err: err}
	}
}
