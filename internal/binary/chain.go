package binary

// Chain wraps a Cursor with deferred error checking, so fixed-layout
// payload decoders can read a run of fields and check the error once.
//
// After the first failure every further read returns a zero value without
// touching the cursor.
type Chain struct {
	c   *Cursor
	err error
}

// NewChain creates a Chain over c.
func NewChain(c *Cursor) *Chain {
	return &Chain{c: c}
}

// ChainBytes creates a Chain over an in-memory payload.
func ChainBytes(payload []byte, order Endianness) *Chain {
	c := NewBytesCursor(payload)
	c.SetByteOrder(order)
	return NewChain(c)
}

// ReadChained reads a value with deferred error checking.
// If a previous read failed, returns zero value without attempting read.
func ReadChained[T Unsigned](ch *Chain, what string) T {
	if ch.err != nil {
		var zero T
		return zero
	}

	val, err := ReadValue[T](ch.c, what)
	if err != nil {
		ch.err = err
		var zero T
		return zero
	}

	return val
}

// U8 reads a byte.
func (ch *Chain) U8(what string) uint8 { return ReadChained[uint8](ch, what) }

// U16 reads a 16-bit unsigned integer.
func (ch *Chain) U16(what string) uint16 { return ReadChained[uint16](ch, what) }

// U32 reads a 32-bit unsigned integer.
func (ch *Chain) U32(what string) uint32 { return ReadChained[uint32](ch, what) }

// U64 reads a 64-bit unsigned integer.
func (ch *Chain) U64(what string) uint64 { return ReadChained[uint64](ch, what) }

// I16 reads a 16-bit signed integer.
func (ch *Chain) I16(what string) int16 { return int16(ReadChained[uint16](ch, what)) }

// I32 reads a 32-bit signed integer.
func (ch *Chain) I32(what string) int32 { return int32(ReadChained[uint32](ch, what)) }

// String reads a string, accumulating any error.
func (ch *Chain) String(length int, what string) string {
	if ch.err != nil {
		return ""
	}

	val, err := ch.c.String(length, what)
	if err != nil {
		ch.err = err
		return ""
	}

	return val
}

// CString reads a NUL-terminated string of at most maxLen bytes.
func (ch *Chain) CString(maxLen int, what string) string {
	if ch.err != nil {
		return ""
	}

	val, err := ch.c.NullTerminatedString(maxLen, what)
	if err != nil {
		ch.err = err
		return ""
	}

	return val
}

// Bytes reads n raw bytes.
func (ch *Chain) Bytes(n int, what string) []byte {
	if ch.err != nil {
		return nil
	}

	val, err := ch.c.Bytes(n, what)
	if err != nil {
		ch.err = err
		return nil
	}

	return val
}

// Skip advances n bytes.
func (ch *Chain) Skip(n int64, what string) {
	if ch.err != nil {
		return
	}
	ch.err = ch.c.Skip(n, what)
}

// Remaining returns the unread byte count of the underlying cursor.
func (ch *Chain) Remaining() int64 {
	return ch.c.Remaining()
}

// Position returns the position of the underlying cursor.
func (ch *Chain) Position() int64 {
	return ch.c.Position()
}

// Error returns the accumulated error, if any.
func (ch *Chain) Error() error {
	return ch.err
}
