package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// ErrorCode is the XNS Error packet's errorCode field. Only
// the codes this stack emits are named; unknown values round-trip as-is
// enum policy (the enumeration is not declared closed).
type ErrorCode uint16

const (
	ErrorCodeNoSocket          ErrorCode = 2
	ErrorCodeInvalidPacketType ErrorCode = 5
)

// XError is `errorCode(2) | param(2) | offendingPacket-prefix`.
type XError struct {
	Code      ErrorCode
	Param     uint16
	Offending []byte
}

func DecodeError(c *codec.Cursor) (XError, error) {
	var e XError
	code, err := c.ReadU16()
	if err != nil {
		return e, err
	}
	param, err := c.ReadU16()
	if err != nil {
		return e, err
	}
	e.Code = ErrorCode(code)
	e.Param = param
	off, err := c.RestBytes()
	if err != nil {
		return e, err
	}
	e.Offending = off
	return e, nil
}

func EncodeError(c *codec.Cursor, e XError) error {
	if err := c.WriteU16(uint16(e.Code)); err != nil {
		return err
	}
	if err := c.WriteU16(e.Param); err != nil {
		return err
	}
	return c.WriteBytes(e.Offending)
}
