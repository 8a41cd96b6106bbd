package resp

import (
	"strconv"
	"sync"
)

// tokenKind distinguishes the two shapes a tokenized frame fragment
// can take: a CRLF-terminated line, or a raw bulk payload of a known
// length (its own trailing CRLF already consumed). A null sentinel
// ($-1 or *-1 as the start of a line) resolves directly to a Reply
// without going through tokenization of a second line, so it is
// folded into the line token's first-byte dispatch in assemble
// rather than getting a third tokenKind.
type tokenKind uint8

const (
	tokenLine tokenKind = iota
	tokenBulk
)

type token struct {
	kind tokenKind
	data []byte
}

type tokenResult struct {
	tok token
	err error
}

// decodeState is the tokenizer's position in the state machine from
// §4.B: either scanning for a CRLF-terminated line, or collecting a
// known number of bulk payload bytes.
type decodeState uint8

const (
	stateLine decodeState = iota
	stateBulk
)

// Decoder incrementally decodes a byte stream into a lazy sequence of
// RESP replies. Feed is synchronous and non-blocking; NextReply
// suspends the calling goroutine until a full top-level reply is
// available or the Decoder is closed.
//
// A Decoder is safe to Feed from one goroutine while another calls
// NextReply, which is the exact split Conn uses: the read loop feeds,
// the engine's pump reads replies.
type Decoder struct {
	mu sync.Mutex

	buf     chunkQueue
	state   decodeState
	bulkLen int

	tokens []token
	waiter chan tokenResult

	reading bool

	closed   bool
	closeErr error
}

// NewDecoder returns a Decoder ready to Feed.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk of bytes read from the wire and advances the
// tokenizer as far as the buffered bytes allow. It never blocks. The
// slice becomes owned by the Decoder; the caller must not reuse it.
func (d *Decoder) Feed(chunk []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDecoderClosed
	}
	d.buf.append(chunk)
	d.tokenize()
	return nil
}

// Close poisons the Decoder with err: any pending NextReply call is
// woken with err, and all future calls (once the token backlog, if
// any, drains) return err too. Feed after Close returns
// ErrDecoderClosed. Close is idempotent; only the first call's err is
// kept.
func (d *Decoder) Close(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.closeErr = err
	if d.waiter != nil {
		d.waiter <- tokenResult{err: err}
		d.waiter = nil
	}
}

// tokenize drains as many complete tokens out of the buffered bytes
// as possible, pushing each to the pending receiver (if any) or onto
// the token FIFO. Must be called with d.mu held.
func (d *Decoder) tokenize() {
	for {
		switch d.state {
		case stateLine:
			idx := d.buf.indexOfCRLF()
			if idx < 0 {
				return
			}
			line := d.buf.take(idx)
			d.buf.skip(2)

			if len(line) > 0 && line[0] == '$' {
				n, err := parseLen(line[1:])
				if err != nil {
					d.poison(newFramingError("bad bulk length %q", line[1:]))
					return
				}
				if n < 0 {
					d.emit(token{kind: tokenLine, data: line})
					continue
				}
				d.state = stateBulk
				d.bulkLen = n
				continue
			}
			d.emit(token{kind: tokenLine, data: line})

		case stateBulk:
			need := d.bulkLen + 2
			if d.buf.Len() < need {
				return
			}
			payload := d.buf.take(d.bulkLen)
			d.buf.skip(2)
			d.state = stateLine
			d.emit(token{kind: tokenBulk, data: payload})
		}
	}
}

// emit delivers a freshly tokenized frame fragment to whoever is
// waiting, or queues it. Must be called with d.mu held.
func (d *Decoder) emit(tok token) {
	if d.waiter != nil {
		ch := d.waiter
		d.waiter = nil
		ch <- tokenResult{tok: tok}
		return
	}
	d.tokens = append(d.tokens, tok)
}

// poison marks the decoder as fatally broken, per §7's framing-error
// handling: the connection is unrecoverable, so every outstanding and
// future reply resolves with the same error. Must be called with
// d.mu held.
func (d *Decoder) poison(err error) {
	d.closed = true
	d.closeErr = err
	if d.waiter != nil {
		d.waiter <- tokenResult{err: err}
		d.waiter = nil
	}
}

// nextToken pops the next tokenized frame fragment, suspending on a
// one-shot channel if none is buffered yet. This is the single-slot
// rendezvous the tokenizer and NextReply communicate through (§9):
// the token FIFO and the waiter slot are mutually exclusive by
// construction, since emit only ever populates one of them.
func (d *Decoder) nextToken() (token, error) {
	d.mu.Lock()
	if len(d.tokens) > 0 {
		tok := d.tokens[0]
		d.tokens = d.tokens[1:]
		d.mu.Unlock()
		return tok, nil
	}
	if d.closed {
		err := d.closeErr
		d.mu.Unlock()
		return token{}, err
	}
	ch := make(chan tokenResult, 1)
	d.waiter = ch
	d.mu.Unlock()

	r := <-ch
	return r.tok, r.err
}

// NextReply resolves when the next top-level reply has been fully
// decoded, recursively assembling arrays from as many tokens as their
// declared count requires. At most one NextReply call may be
// outstanding at a time; a second concurrent call returns
// ErrConcurrentRead immediately.
func (d *Decoder) NextReply() (Reply, error) {
	d.mu.Lock()
	if d.reading {
		d.mu.Unlock()
		return Reply{}, ErrConcurrentRead
	}
	d.reading = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.reading = false
		d.mu.Unlock()
	}()

	return d.assemble()
}

// assemble performs the actual token-to-Reply dispatch and recurses
// directly into itself for array elements, bypassing the
// single-outstanding-call guard (that guard protects external
// callers, not the decoder's own recursion).
func (d *Decoder) assemble() (Reply, error) {
	tok, err := d.nextToken()
	if err != nil {
		return Reply{}, err
	}

	if tok.kind == tokenBulk {
		return Reply{Kind: KindBulkString, Bulk: tok.data}, nil
	}

	line := tok.data
	if len(line) == 0 {
		err := newFramingError("empty reply line")
		d.Close(err)
		return Reply{}, err
	}

	switch line[0] {
	case '+':
		return Reply{Kind: KindSimpleString, Str: string(line[1:])}, nil
	case '-':
		return Reply{Kind: KindError, Err: string(line[1:])}, nil
	case ':':
		n, perr := strconv.ParseInt(string(line[1:]), 10, 64)
		if perr != nil {
			err := newFramingError("bad integer %q", line[1:])
			d.Close(err)
			return Reply{}, err
		}
		return Reply{Kind: KindInteger, Int: n}, nil
	case '$':
		// Only reached for the null-bulk sentinel ($-1); a positive
		// or zero length already switched the tokenizer to stateBulk
		// and this line was never re-emitted as a tokenLine.
		return Reply{Kind: KindNull}, nil
	case '*':
		n, perr := parseLen(line[1:])
		if perr != nil {
			err := newFramingError("bad array count %q", line[1:])
			d.Close(err)
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Kind: KindNull}, nil
		}
		elems := make([]Reply, n)
		for i := range elems {
			r, err := d.assemble()
			if err != nil {
				return Reply{}, err
			}
			elems[i] = r
		}
		return Reply{Kind: KindArray, Array: elems}, nil
	default:
		err := newFramingError("unknown type byte %q", line[0])
		d.Close(err)
		return Reply{}, err
	}
}

func parseLen(b []byte) (int, error) {
	n, err := strconv.ParseInt(string(b), 10, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
