package client

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvwire/respclient/resp"
)

// newScriptedEngine wires an Engine to a throwaway writer and a
// Decoder preloaded with wire, so pump never blocks on NextReply for
// replies the script already provides.
func newScriptedEngine(t *testing.T, wire string) (*Engine, *bytes.Buffer) {
	t.Helper()
	dec := resp.NewDecoder()
	require.NoError(t, dec.Feed([]byte(wire)))
	var out bytes.Buffer
	return NewEngine(&out, dec, nil, nil), &out
}

// TestEnginePipelineOrderAndFIFOCorrelation drives the pump directly
// against three pre-queued commands and a scripted reply stream,
// matching spec.md's "three commands submitted without waiting" FIFO
// correlation property: replies come back in submission order purely
// from position, with no correlation id anywhere on the wire.
func TestEnginePipelineOrderAndFIFOCorrelation(t *testing.T) {
	eng, out := newScriptedEngine(t, "+A\r\n:2\r\n$1\r\nc\r\n")

	pendings := []*pending{
		{cmd: resp.NewCommand("GET", "a"), result: make(chan outcome, 1)},
		{cmd: resp.NewCommand("GET", "b"), result: make(chan outcome, 1)},
		{cmd: resp.NewCommand("GET", "c"), result: make(chan outcome, 1)},
	}
	eng.queue = append(eng.queue, pendings...)

	done := make(chan struct{})
	eng.pump(done)
	<-done

	out0 := <-pendings[0].result
	require.NoError(t, out0.err)
	assert.Equal(t, resp.KindSimpleString, out0.reply.Kind)
	assert.Equal(t, "A", out0.reply.Str)

	out1 := <-pendings[1].result
	require.NoError(t, out1.err)
	assert.Equal(t, resp.KindInteger, out1.reply.Kind)
	assert.EqualValues(t, 2, out1.reply.Int)

	out2 := <-pendings[2].result
	require.NoError(t, out2.err)
	assert.Equal(t, resp.KindBulkString, out2.reply.Kind)
	assert.Equal(t, []byte("c"), out2.reply.Bulk)

	assert.Greater(t, out.Len(), 0)
}

// TestEngineServerErrorIsNotFatal checks property 6: a "-..." reply in
// the middle of a pipeline resolves only its own command and the pump
// keeps driving the remaining queue.
func TestEngineServerErrorIsNotFatal(t *testing.T) {
	eng, _ := newScriptedEngine(t, "+OK\r\n-WRONGTYPE bad key\r\n+OK\r\n")

	pendings := []*pending{
		{cmd: resp.NewCommand("SET", "a", "1"), result: make(chan outcome, 1)},
		{cmd: resp.NewCommand("LPUSH", "a", "x"), result: make(chan outcome, 1)},
		{cmd: resp.NewCommand("SET", "b", "2"), result: make(chan outcome, 1)},
	}
	eng.queue = append(eng.queue, pendings...)

	done := make(chan struct{})
	eng.pump(done)
	<-done

	out0 := <-pendings[0].result
	require.NoError(t, out0.err)

	out1 := <-pendings[1].result
	require.Error(t, out1.err)
	var serr ServerError
	require.ErrorAs(t, out1.err, &serr)
	assert.Equal(t, "WRONGTYPE", serr.Prefix())

	out2 := <-pendings[2].result
	require.NoError(t, out2.err)
	assert.Equal(t, resp.KindSimpleString, out2.reply.Kind)

	assert.False(t, eng.pumpActive)
	assert.Nil(t, eng.rejectErr)
}

// TestEngineTransportErrorFansOutToQueue checks property 7: once the
// decoder fails, the in-flight command and everything still queued
// behind it resolve with the same transport error, and the engine
// rejects every later Submit with it too.
func TestEngineTransportErrorFansOutToQueue(t *testing.T) {
	eng, _ := newScriptedEngine(t, "+OK\r\n")
	eng.dec.Close(assertCloseErr)

	pendings := []*pending{
		{cmd: resp.NewCommand("SET", "a", "1"), result: make(chan outcome, 1)},
		{cmd: resp.NewCommand("SET", "b", "2"), result: make(chan outcome, 1)},
		{cmd: resp.NewCommand("SET", "c", "3"), result: make(chan outcome, 1)},
	}
	eng.queue = append(eng.queue, pendings...)

	done := make(chan struct{})
	eng.pump(done)
	<-done

	out0 := <-pendings[0].result
	require.NoError(t, out0.err)

	out1 := <-pendings[1].result
	require.Error(t, out1.err)
	var te1 *TransportError
	require.ErrorAs(t, out1.err, &te1)

	out2 := <-pendings[2].result
	require.Error(t, out2.err)
	var te2 *TransportError
	require.ErrorAs(t, out2.err, &te2)
	assert.Same(t, te1, te2)

	_, err := eng.Submit(context.Background(), resp.NewCommand("SET", "d", "4"), false)
	require.Error(t, err)
	assert.Same(t, te1, err)
}

// TestEngineSubmitSkipsCancelledCommandBeforeWrite checks that a
// context cancelled before the pump reaches its turn is resolved
// without ever reaching the writer, and does not disturb the commands
// queued around it.
func TestEngineSubmitSkipsCancelledCommandBeforeWrite(t *testing.T) {
	eng, out := newScriptedEngine(t, "+first\r\n+third\r\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &pending{cmd: resp.NewCommand("GET", "1"), result: make(chan outcome, 1)}
	cancelled := &pending{cmd: resp.NewCommand("GET", "2"), ctx: ctx, result: make(chan outcome, 1)}
	third := &pending{cmd: resp.NewCommand("GET", "3"), result: make(chan outcome, 1)}
	eng.queue = append(eng.queue, first, cancelled, third)

	done := make(chan struct{})
	eng.pump(done)
	<-done

	o0 := <-first.result
	require.NoError(t, o0.err)

	o1 := <-cancelled.result
	assert.ErrorIs(t, o1.err, context.Canceled)

	o2 := <-third.result
	require.NoError(t, o2.err)
	assert.Equal(t, "third", o2.reply.Str)

	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("GET")))
}

// TestEngineSubmitRejectsAfterSetRejecting checks that SetRejecting
// makes a new Submit call fail immediately with the installed error.
func TestEngineSubmitRejectsAfterSetRejecting(t *testing.T) {
	eng, _ := newScriptedEngine(t, "")
	eng.SetRejecting(ErrConnClosing)

	_, err := eng.Submit(context.Background(), resp.NewCommand("PING"), false)
	assert.ErrorIs(t, err, ErrConnClosing)
}

// TestEngineAbortResolvesQueuedNotInFlight checks that Abort fails
// everything still sitting in the queue, without requiring a pump to
// be running at all.
func TestEngineAbortResolvesQueuedNotInFlight(t *testing.T) {
	eng, _ := newScriptedEngine(t, "")

	p1 := &pending{cmd: resp.NewCommand("GET", "a"), result: make(chan outcome, 1)}
	p2 := &pending{cmd: resp.NewCommand("GET", "b"), result: make(chan outcome, 1)}
	eng.queue = append(eng.queue, p1, p2)

	abortErr := newTransportError(KindClosed, ErrConnClosing)
	eng.Abort(abortErr)

	o1 := <-p1.result
	assert.Same(t, abortErr, errAsTransport(t, o1.err))
	o2 := <-p2.result
	assert.Same(t, abortErr, errAsTransport(t, o2.err))

	_, err := eng.Submit(context.Background(), resp.NewCommand("GET", "c"), false)
	assert.Same(t, abortErr, err)
}

func errAsTransport(t *testing.T, err error) *TransportError {
	t.Helper()
	te, ok := err.(*TransportError)
	require.True(t, ok, "expected *TransportError, got %T", err)
	return te
}

var assertCloseErr = newTransportError(KindClosed, ErrConnClosing)
