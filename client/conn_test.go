package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvwire/respclient/resp"
)

func TestConnSubmitRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go echoServer(t, server, []string{"+PONG\r\n"})

	c := New(client)
	defer c.CloseNow()

	reply, err := c.Submit(context.Background(), resp.NewCommand("PING"), false)
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply.Str)
}

func TestConnClosePreventsFurtherSubmits(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go echoServer(t, server, []string{"+PONG\r\n"})

	c := New(client)

	_, err := c.Submit(context.Background(), resp.NewCommand("PING"), false)
	require.NoError(t, err)

	require.NoError(t, c.Close())

	_, err = c.Submit(context.Background(), resp.NewCommand("PING"), false)
	assert.ErrorIs(t, err, ErrConnClosing)
}

func TestConnCloseNowAbortsQueuedCommands(t *testing.T) {
	client, server := net.Pipe()

	// The server never replies, so the first Submit stays in flight
	// while later ones sit queued behind it.
	block := make(chan struct{})
	go func() {
		buf := make([]byte, 4096)
		server.Read(buf) //nolint:errcheck
		<-block
		server.Close()
	}()

	c := New(client)

	type result struct {
		err error
	}
	started := make(chan struct{})
	queuedDone := make(chan result, 1)
	go func() {
		close(started)
		_, err := c.Submit(context.Background(), resp.NewCommand("GET", "slow"), false)
		queuedDone <- result{err: err}
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	queued2 := make(chan result, 1)
	go func() {
		_, err := c.Submit(context.Background(), resp.NewCommand("GET", "queued"), false)
		queued2 <- result{err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, c.CloseNow())
	close(block)

	r2 := <-queued2
	require.Error(t, r2.err)

	r1 := <-queuedDone
	require.Error(t, r1.err)
}

func TestConnDialRejectsUnroutableAddress(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Dial(ctx, "tcp", "127.0.0.1:0", WithDialTimeout(10*time.Millisecond))
	require.Error(t, err)
}

func TestWithInlineThresholdOption(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go echoServer(t, server, nil)

	c := New(client, WithInlineThreshold(42))
	defer c.CloseNow()
	assert.Equal(t, 42, c.InlineThreshold())
}
