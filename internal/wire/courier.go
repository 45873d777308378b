package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// ProtocolRange precedes a Courier message inside a PEX payload.
type ProtocolRange struct {
	Low, High uint16
}

func DecodeProtocolRange(c *codec.Cursor) (ProtocolRange, error) {
	var r ProtocolRange
	low, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	high, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	return ProtocolRange{Low: low, High: high}, nil
}

func EncodeProtocolRange(c *codec.Cursor, r ProtocolRange) error {
	if err := c.WriteU16(r.Low); err != nil {
		return err
	}
	return c.WriteU16(r.High)
}

// Includes reports whether protocol version v is within the range.
func (r ProtocolRange) Includes(v uint16) bool {
	return r.Low <= v && v <= r.High
}

// CourierProtocolVersion is the single Courier protocol version this
// stack implements.
const CourierProtocolVersion uint16 = 3

// MessageType is the Courier message-type discriminant.
type MessageType uint16

const (
	MessageTypeCall   MessageType = 0
	MessageTypeReject MessageType = 1
	MessageTypeReturn MessageType = 2
	MessageTypeAbort  MessageType = 3
)

// RejectCode is the Courier reject-message's code field.
type RejectCode uint16

const (
	RejectNoSuchProgram   RejectCode = 0
	RejectNoSuchVersion   RejectCode = 1
	RejectNoSuchProcedure RejectCode = 2
	RejectInvalidArgs     RejectCode = 3
)

// MessageHeader is the common `transaction(2)` prefix shared by every
// Courier message variant after the message-type discriminant.
type MessageHeader struct {
	Type        MessageType
	Transaction uint16
}

func DecodeMessageHeader(c *codec.Cursor) (MessageHeader, error) {
	var h MessageHeader
	typ, err := c.ReadU16()
	if err != nil {
		return h, err
	}
	txn, err := c.ReadU16()
	if err != nil {
		return h, err
	}
	return MessageHeader{Type: MessageType(typ), Transaction: txn}, nil
}

func EncodeMessageHeader(c *codec.Cursor, h MessageHeader) error {
	if err := c.WriteU16(uint16(h.Type)); err != nil {
		return err
	}
	return c.WriteU16(h.Transaction)
}

// Call is `transaction(2) | program(4) | version(2) | procedure(2) |
// args...`. Args is the BLOCK rest of the message.
type Call struct {
	Transaction uint16
	Program     uint32
	Version     uint16
	Procedure   uint16
	Args        []byte
}

func DecodeCall(c *codec.Cursor) (Call, error) {
	var call Call
	txn, err := c.ReadU16()
	if err != nil {
		return call, err
	}
	program, err := c.ReadU32()
	if err != nil {
		return call, err
	}
	version, err := c.ReadU16()
	if err != nil {
		return call, err
	}
	procedure, err := c.ReadU16()
	if err != nil {
		return call, err
	}
	args, err := c.RestBytes()
	if err != nil {
		return call, err
	}
	call = Call{Transaction: txn, Program: program, Version: version, Procedure: procedure, Args: args}
	return call, nil
}

func EncodeCall(c *codec.Cursor, call Call) error {
	if err := c.WriteU16(call.Transaction); err != nil {
		return err
	}
	if err := c.WriteU32(call.Program); err != nil {
		return err
	}
	if err := c.WriteU16(call.Version); err != nil {
		return err
	}
	if err := c.WriteU16(call.Procedure); err != nil {
		return err
	}
	return c.WriteBytes(call.Args)
}

// Return is `transaction(2) | results...`.
type Return struct {
	Transaction uint16
	Results     []byte
}

func DecodeReturn(c *codec.Cursor) (Return, error) {
	var r Return
	txn, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	results, err := c.RestBytes()
	if err != nil {
		return r, err
	}
	return Return{Transaction: txn, Results: results}, nil
}

func EncodeReturn(c *codec.Cursor, r Return) error {
	if err := c.WriteU16(r.Transaction); err != nil {
		return err
	}
	return c.WriteBytes(r.Results)
}

// Reject is `transaction(2) | code(2)` with an optional trailing
// versionRange when code == noSuchVersionNumber.
type Reject struct {
	Transaction  uint16
	Code         RejectCode
	VersionRange ProtocolRange // only meaningful when Code == RejectNoSuchVersion
}

func DecodeReject(c *codec.Cursor) (Reject, error) {
	var r Reject
	txn, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	code, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	r.Transaction = txn
	r.Code = RejectCode(code)
	if r.Code == RejectNoSuchVersion {
		vr, err := DecodeProtocolRange(c)
		if err != nil {
			return r, err
		}
		r.VersionRange = vr
	}
	return r, nil
}

func EncodeReject(c *codec.Cursor, r Reject) error {
	if err := c.WriteU16(r.Transaction); err != nil {
		return err
	}
	if err := c.WriteU16(uint16(r.Code)); err != nil {
		return err
	}
	if r.Code == RejectNoSuchVersion {
		return EncodeProtocolRange(c, r.VersionRange)
	}
	return nil
}

// Abort is `transaction(2) | abortCode(2) | abortArgs...`.
type Abort struct {
	Transaction uint16
	AbortCode   uint16
	AbortArgs   []byte
}

func DecodeAbort(c *codec.Cursor) (Abort, error) {
	var a Abort
	txn, err := c.ReadU16()
	if err != nil {
		return a, err
	}
	code, err := c.ReadU16()
	if err != nil {
		return a, err
	}
	args, err := c.RestBytes()
	if err != nil {
		return a, err
	}
	return Abort{Transaction: txn, AbortCode: code, AbortArgs: args}, nil
}

func EncodeAbort(c *codec.Cursor, a Abort) error {
	if err := c.WriteU16(a.Transaction); err != nil {
		return err
	}
	if err := c.WriteU16(a.AbortCode); err != nil {
		return err
	}
	return c.WriteBytes(a.AbortArgs)
}

// --- Composite type helpers ---

// WriteSequence writes a SEQUENCE<T,N>: count(2) followed by n elements
// written by write. It returns ErrBadValue if n exceeds max.
func WriteSequence(c *codec.Cursor, n, max int, write func(i int) error) error {
	if n > max {
		return codec.ErrBadValue
	}
	if err := c.WriteU16(uint16(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := write(i); err != nil {
			return err
		}
	}
	return nil
}

// ReadSequence reads a SEQUENCE<T,N> count then invokes read for each
// element; it rejects counts above max with ErrBadValue.
func ReadSequence(c *codec.Cursor, max int, read func(i int) error) (int, error) {
	count, err := c.ReadU16()
	if err != nil {
		return 0, err
	}
	if int(count) > max {
		return 0, codec.ErrBadValue
	}
	for i := 0; i < int(count); i++ {
		if err := read(i); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

// ReadString reads a STRING (SEQUENCE<byte,65535>) as raw bytes.
func ReadString(c *codec.Cursor) (string, error) {
	var out []byte
	_, err := ReadSequence(c, 65535, func(i int) error {
		b, err := c.ReadU8()
		if err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// WriteString writes s as a STRING.
func WriteString(c *codec.Cursor, s string) error {
	return WriteSequence(c, len(s), 65535, func(i int) error {
		return c.WriteU8(s[i])
	})
}

// StreamSegmentTag discriminates a StreamOf<T> segment.
type StreamSegmentTag uint16

const (
	StreamNextSegment StreamSegmentTag = 0
	StreamLastSegment StreamSegmentTag = 1
)
