// Package codec provides the big-endian cursor primitives every XNS wire
// record is built from: a positioned view over a byte region with
// base/position/limit offsets, matching the fixed-layout Marshal/Unmarshal
// style used throughout this codebase's record types.
package codec

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a read or write would cross the cursor's limit.
var ErrShortBuffer = errors.New("codec: short buffer")

// ErrBadValue is returned when a decoded field violates a closed enumeration
// or other structural constraint the record declares.
var ErrBadValue = errors.New("codec: bad value")

// Cursor is a positioned view over a byte slice. It never reallocates the
// underlying storage: Sub returns an independent cursor sharing the same
// backing array. The zero value is not usable; construct with New or NewWriter.
type Cursor struct {
	buf      []byte
	base     int
	position int
	limit    int
}

// New wraps buf for decoding: base=0, position=0, limit=len(buf).
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf, base: 0, position: 0, limit: len(buf)}
}

// NewWriter wraps buf for encoding into, growing position as bytes are
// written; limit is cap(buf) so writes may extend buf up to its capacity.
func NewWriter(buf []byte) *Cursor {
	return &Cursor{buf: buf, base: 0, position: 0, limit: cap(buf)}
}

// Bytes returns the octets from base to position — the region written or
// consumed so far.
func (c *Cursor) Bytes() []byte {
	return c.buf[c.base:c.position]
}

// Remaining returns the number of unread/unwritten octets before limit.
func (c *Cursor) Remaining() int {
	return c.limit - c.position
}

// Position returns the current offset from the start of buf.
func (c *Cursor) Position() int { return c.position }

// SetPosition repositions the cursor within [base, limit].
func (c *Cursor) SetPosition(p int) error {
	if p < c.base || p > c.limit {
		return ErrShortBuffer
	}
	c.position = p
	return nil
}

// Limit returns the current limit.
func (c *Cursor) Limit() int { return c.limit }

// SetLimit adjusts the limit; it must not exceed cap(buf).
func (c *Cursor) SetLimit(l int) error {
	if l < c.position || l > cap(c.buf) {
		return ErrShortBuffer
	}
	c.limit = l
	return nil
}

// Checkpoint captures position and limit for later Restore.
type Checkpoint struct {
	position int
	limit    int
}

func (c *Cursor) Checkpoint() Checkpoint {
	return Checkpoint{position: c.position, limit: c.limit}
}

func (c *Cursor) Restore(cp Checkpoint) {
	c.position = cp.position
	c.limit = cp.limit
}

// Sub returns an independent cursor over [offset, offset+length) of the
// same backing array, positioned at its own start. The parent cursor's
// position is not advanced by calling Sub; callers that mean to consume
// the region must advance position themselves (see Rest).
func (c *Cursor) Sub(offset, length int) (*Cursor, error) {
	start := c.base + offset
	end := start + length
	if start < c.base || end > c.limit || end < start {
		return nil, ErrShortBuffer
	}
	return &Cursor{buf: c.buf, base: start, position: start, limit: end}, nil
}

// SubAt returns an independent cursor over [position, position+length) —
// i.e. relative to the cursor's current position rather than its base —
// without advancing this cursor. Used when a fixed-layout record needs a
// sub-cursor over a region whose size is only known after parsing a
// preceding length field (e.g. IDP's payload, sized by the Length field).
func (c *Cursor) SubAt(length int) (*Cursor, error) {
	start := c.position
	end := start + length
	if end > c.limit || end < start {
		return nil, ErrShortBuffer
	}
	return &Cursor{buf: c.buf, base: start, position: start, limit: end}, nil
}

// Rest returns a cursor over the remaining unread octets (position..limit)
// and advances this cursor's position to limit. Used for BLOCK fields that
// represent "the rest of the enclosing frame".
func (c *Cursor) Rest() (*Cursor, error) {
	sub, err := c.Sub(c.position-c.base, c.limit-c.position)
	if err != nil {
		return nil, err
	}
	c.position = c.limit
	return sub, nil
}

// RestBytes returns the remaining unread octets as a raw slice and
// advances position to limit, for BLOCK fields that are consumed as raw
// bytes rather than sliced into their own sub-cursor.
func (c *Cursor) RestBytes() ([]byte, error) {
	return c.ReadBytes(c.Remaining())
}

func (c *Cursor) need(n int) error {
	if c.position+n > c.limit {
		return ErrShortBuffer
	}
	return nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.position]
	c.position++
	return v, nil
}

func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.position:])
	c.position += 2
	return v, nil
}

func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.position:])
	c.position += 4
	return v, nil
}

// ReadU48 reads a 48-bit big-endian integer (used for XNS host addresses).
func (c *Cursor) ReadU48() (uint64, error) {
	if err := c.need(6); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 6; i++ {
		v = v<<8 | uint64(c.buf[c.position+i])
	}
	c.position += 6
	return v, nil
}

// ReadBytes reads n raw octets without interpretation.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	v := c.buf[c.position : c.position+n]
	c.position += n
	return v, nil
}

func (c *Cursor) grow(n int) error {
	if c.position+n > cap(c.buf) {
		return ErrShortBuffer
	}
	if c.position+n > len(c.buf) {
		c.buf = c.buf[:c.position+n]
	}
	if c.position+n > c.limit {
		c.limit = c.position + n
	}
	return nil
}

func (c *Cursor) WriteU8(v uint8) error {
	if err := c.grow(1); err != nil {
		return err
	}
	c.buf[c.position] = v
	c.position++
	return nil
}

func (c *Cursor) WriteU16(v uint16) error {
	if err := c.grow(2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(c.buf[c.position:], v)
	c.position += 2
	return nil
}

func (c *Cursor) WriteU32(v uint32) error {
	if err := c.grow(4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(c.buf[c.position:], v)
	c.position += 4
	return nil
}

func (c *Cursor) WriteU48(v uint64) error {
	if err := c.grow(6); err != nil {
		return err
	}
	for i := 5; i >= 0; i-- {
		c.buf[c.position+i] = byte(v)
		v >>= 8
	}
	c.position += 6
	return nil
}

func (c *Cursor) WriteBytes(b []byte) error {
	if err := c.grow(len(b)); err != nil {
		return err
	}
	copy(c.buf[c.position:], b)
	c.position += len(b)
	return nil
}
