package resp

import (
	"github.com/pkg/errors"
)

// ErrConcurrentRead is returned by NextReply when another call is
// already outstanding on the same Decoder. At most one pending
// receiver may exist at a time (§3); a second concurrent caller is a
// programmer error, not a wire condition.
var ErrConcurrentRead = errors.New("resp: concurrent NextReply call")

// ErrDecoderClosed is returned by Feed once the decoder has been
// closed (transport gone or a framing violation was detected).
var ErrDecoderClosed = errors.New("resp: decoder closed")

// FramingError reports an unrecoverable violation of the wire format:
// an unknown type byte or a non-numeric length/count. It always
// poisons the Decoder that produced it (§7).
type FramingError struct {
	cause error
}

func newFramingError(format string, args ...any) *FramingError {
	return &FramingError{cause: errors.Errorf(format, args...)}
}

func (e *FramingError) Error() string { return "resp: framing: " + e.cause.Error() }
func (e *FramingError) Unwrap() error { return e.cause }
