package resp

// Item is one argument of a Command: either UTF-8 text or an opaque
// binary payload. Numeric arguments are rendered to text by the
// caller before submission (§3) — there is no numeric Item variant.
type Item struct {
	bytes  []byte
	isText bool
}

// Text wraps a string argument.
func Text(s string) Item { return Item{bytes: []byte(s), isText: true} }

// Bytes wraps an opaque binary argument.
func Bytes(b []byte) Item { return Item{bytes: b} }

// Raw returns the argument's bytes as they will be written to the
// wire (UTF-8 for text, untouched for binary).
func (it Item) Raw() []byte { return it.bytes }

// safeForInline reports whether this argument may appear in an inline
// command line: text, and free of whitespace and CR/LF.
func (it Item) safeForInline() bool {
	if !it.isText {
		return false
	}
	for _, b := range it.bytes {
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			return false
		}
	}
	return true
}

// Command is an ordered sequence of argument items.
type Command []Item

// NewCommand builds a Command from plain strings, the common case for
// the catalog layer issuing control/text commands.
func NewCommand(args ...string) Command {
	cmd := make(Command, len(args))
	for i, a := range args {
		cmd[i] = Text(a)
	}
	return cmd
}

// CanInline reports whether every argument is safe for the inline
// encoding (§4.C): all text, none containing whitespace or CR/LF. The
// encoder only ever uses inline form when both this and the caller's
// inline_hint agree.
func (c Command) CanInline() bool {
	for _, it := range c {
		if !it.safeForInline() {
			return false
		}
	}
	return true
}
