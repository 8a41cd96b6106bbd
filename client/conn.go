// Package client implements the pipelined request/reply engine and
// connection facade on top of package resp's RESP codec.
package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kvwire/respclient/resp"
)

// Conn is the Connection Facade (§4.E): it owns the duplex byte
// stream, wires inbound bytes into the decoder, routes Submit calls
// into the engine, and coordinates shutdown of both background
// goroutines it runs — one feeding the decoder from the socket, one
// driving the pump once commands are in flight.
type Conn struct {
	netConn net.Conn
	dec     *resp.Decoder
	engine  *Engine
	opts    options
	logger  *slog.Logger

	group     *errgroup.Group
	closeOnce sync.Once
}

// New wraps an already-connected duplex byte stream, matching §6's
// requirement for "a constructor/factory that takes an
// already-connected duplex byte stream." Use Dial to also perform the
// connection establishment.
func New(conn net.Conn, opts ...Option) *Conn {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return newConn(conn, o)
}

// Dial establishes a TCP (or Unix domain socket, via network="unix")
// connection and wraps it, per §4.E. Connection establishment is an
// external collaborator per spec.md §1 — this is the one piece of it
// the core needs in order to have something to construct a Conn
// around when the caller has no socket of its own yet.
func Dial(ctx context.Context, network, addr string, opts ...Option) (*Conn, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	dialer := net.Dialer{Timeout: o.dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "respclient: dial %s %s", network, addr)
	}
	return newConn(conn, o), nil
}

func newConn(conn net.Conn, o options) *Conn {
	dec := resp.NewDecoder()
	eng := NewEngine(conn, dec, o.logger, o.metrics)

	c := &Conn{
		netConn: conn,
		dec:     dec,
		engine:  eng,
		opts:    o,
		logger:  o.logger,
	}

	c.group = new(errgroup.Group)
	c.group.Go(c.readLoop)
	return c
}

// readLoop is the sole reader of netConn: it feeds every chunk it
// reads straight to the decoder (§5's "byte chunks are fed to the
// decoder in arrival order") and, on any read failure including a
// clean EOF, closes the decoder with a *TransportError so every
// current and future NextReply call (and therefore every queued
// Submit) unblocks with it.
func (c *Conn) readLoop() error {
	for {
		buf := make([]byte, c.opts.readBufferSize)
		n, err := c.netConn.Read(buf)
		if n > 0 {
			if c.opts.metrics != nil {
				c.opts.metrics.addBytesRead(n)
			}
			// Feed only returns an error once the decoder is closed,
			// either by a framing error found while decoding or by this
			// loop below; such bytes can no longer be decoded, so the
			// error is ignored.
			_ = c.dec.Feed(buf[:n])
		}
		if err != nil {
			kind := KindIO
			if errors.Is(err, io.EOF) {
				kind = KindClosed
			}
			c.dec.Close(newTransportError(kind, err))
			return nil
		}
	}
}

// Submit is the sole command entry point (§6): it serializes cmd onto
// the wire (inline if inlineHint is true and every argument allows
// it, array-of-bulk-strings otherwise) and resolves once the
// server's matching reply has been decoded.
func (c *Conn) Submit(ctx context.Context, cmd resp.Command, inlineHint bool) (resp.Reply, error) {
	return c.engine.Submit(ctx, cmd, inlineHint)
}

// Close implements the drain-then-close policy (§4.E, §9 Open
// Questions): new submissions are rejected immediately, but whatever
// was already queued or in flight is allowed to finish normally
// before the socket is closed. The close is a full close of both
// directions; the socket is not half-closed. Safe to call more than once and
// concurrently with CloseNow; only the first call's outcome applies.
func (c *Conn) Close() error {
	return c.shutdown(false)
}

// CloseNow aborts immediately: new submissions are rejected, every
// queued (not yet written) command fails with a transport error right
// away, and the socket is closed without waiting for the command
// currently in flight — which will itself then fail with the same
// transport error once its write or read hits the closed socket.
func (c *Conn) CloseNow() error {
	return c.shutdown(true)
}

func (c *Conn) shutdown(abort bool) error {
	var err error
	c.closeOnce.Do(func() {
		if abort {
			c.engine.Abort(newTransportError(KindClosed, ErrConnClosing))
		} else {
			c.engine.SetRejecting(ErrConnClosing)
			<-c.engine.Idle()
		}
		err = c.netConn.Close()
		_ = c.group.Wait()
	})
	return err
}
