package resp

import (
	"bytes"
	"io"
	"net"
	"strconv"
)

// Encode writes cmd onto w using the policy described in §4.C: the
// inline form when inlineHint is true and every argument is safe for
// it, the array-of-bulk-strings form otherwise. The array form is
// always correct and is what every binary-payload command must use.
//
// The array form's N+1 writes (the "*N\r\n" header plus a "$len\r\n
// bytes\r\n" per argument) are handed to w as a single net.Buffers
// batch. When w is a TCP or Unix socket connection this becomes one
// vectored write, so a single command reaches the socket as one
// write-level operation even though it is logically many frames,
// avoiding the small-write/Nagle interaction the spec calls out; any
// other writer receives one Write call per fragment.
func Encode(w io.Writer, cmd Command, inlineHint bool) error {
	if inlineHint && cmd.CanInline() {
		_, err := w.Write(encodeInline(cmd))
		return err
	}
	bufs := encodeArray(cmd)
	_, err := bufs.WriteTo(w)
	return err
}

func encodeInline(cmd Command) []byte {
	var buf bytes.Buffer
	for i, it := range cmd {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.Write(it.Raw())
	}
	buf.WriteString(CRLF)
	return buf.Bytes()
}

func encodeArray(cmd Command) net.Buffers {
	bufs := make(net.Buffers, 0, 1+2*len(cmd))
	bufs = append(bufs, []byte("*"+strconv.Itoa(len(cmd))+CRLF))
	for _, it := range cmd {
		raw := it.Raw()
		bufs = append(bufs, []byte("$"+strconv.Itoa(len(raw))+CRLF))
		bufs = append(bufs, raw)
		bufs = append(bufs, crlfBytes)
	}
	return bufs
}

const CRLF = "\r\n"

var crlfBytes = []byte(CRLF)
