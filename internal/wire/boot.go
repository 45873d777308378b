package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// BootOp is the Boot protocol's operation code. Only codec round-trip is
// required of the core; no Boot handler is registered by default.
type BootOp uint16

const (
	BootRequest BootOp = 1
	BootReply   BootOp = 2
)

// Boot carries an opcode and an opaque, protocol-specific body; the core
// does not interpret the body further.
type Boot struct {
	Op   BootOp
	Body []byte
}

func DecodeBoot(c *codec.Cursor) (Boot, error) {
	var b Boot
	op, err := c.ReadU16()
	if err != nil {
		return b, err
	}
	b.Op = BootOp(op)
	body, err := c.RestBytes()
	if err != nil {
		return b, err
	}
	b.Body = body
	return b, nil
}

func EncodeBoot(c *codec.Cursor, b Boot) error {
	if err := c.WriteU16(uint16(b.Op)); err != nil {
		return err
	}
	return c.WriteBytes(b.Body)
}
