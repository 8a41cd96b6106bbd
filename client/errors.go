package client

import (
	"errors"
	"fmt"
	"io"

	"github.com/kvwire/respclient/resp"
)

// ErrConnClosing is the rejection reason Conn.Close and Conn.CloseNow
// install once shutdown has started: it is what Submit returns for
// any call that arrives after that point, as opposed to a command
// that was already queued before shutdown began.
var ErrConnClosing = errors.New("respclient: connection closing, no further commands accepted")

// ServerError is the server's own "-...\r\n" reply, preserved
// verbatim including its leading error-code token ("ERR", "WRONGTYPE",
// "BUSYGROUP", ...). It is not fatal to the connection: the pump
// resolves it to the submitter and moves on to the next command.
//
// Modeled on the corpus's own Redis clients (pascaldekloe/redis,
// twokaybee/redis in the retrieved examples), which both represent a
// server error as a defined string type with a Prefix accessor rather
// than a struct — there is nothing to wrap, the text is the error.
type ServerError string

func (e ServerError) Error() string {
	return fmt.Sprintf("respclient: server error: %s", string(e))
}

// Prefix returns the leading error-code token ("ERR", "WRONGTYPE",
// ...), i.e. the first space-delimited word.
func (e ServerError) Prefix() string {
	s := string(e)
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return s[:i]
		}
	}
	return s
}

// TransportKind distinguishes the ways a connection can die.
type TransportKind uint8

const (
	// KindClosed: the byte stream was closed locally (Close/CloseNow)
	// or the peer closed it (EOF) while commands were outstanding.
	KindClosed TransportKind = iota
	// KindFraming: the decoder detected a RESP framing violation.
	KindFraming
	// KindIO: a socket read or write failed for a reason other than
	// a clean close (reset, timeout, ...).
	KindIO
)

func (k TransportKind) String() string {
	switch k {
	case KindClosed:
		return "closed"
	case KindFraming:
		return "framing"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// TransportError is fatal to the connection: once produced, every
// outstanding and queued command resolves with the same
// *TransportError instance, and no further submissions are accepted
// (§7).
type TransportError struct {
	Kind  TransportKind
	cause error
}

func newTransportError(kind TransportKind, cause error) *TransportError {
	return &TransportError{Kind: kind, cause: cause}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("respclient: transport error (%s): %v", e.Kind, e.cause)
}

func (e *TransportError) Unwrap() error { return e.cause }

// asTransportError classifies an error surfaced by the decoder's
// NextReply into a *TransportError, preserving one if it already is
// one (the common case: Conn.readLoop already wrapped the read
// failure before calling dec.Close).
func asTransportError(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	var fe *resp.FramingError
	if errors.As(err, &fe) {
		return newTransportError(KindFraming, err)
	}
	if errors.Is(err, io.EOF) {
		return newTransportError(KindClosed, err)
	}
	return newTransportError(KindIO, err)
}
