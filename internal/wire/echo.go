package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

type EchoOp uint16

const (
	EchoRequest EchoOp = 1
	EchoReply   EchoOp = 2
)

// Echo is `type(2) | body`. Body is the BLOCK rest of the frame.
type Echo struct {
	Op   EchoOp
	Body []byte
}

func DecodeEcho(c *codec.Cursor) (Echo, error) {
	var e Echo
	op, err := c.ReadU16()
	if err != nil {
		return e, err
	}
	e.Op = EchoOp(op)
	body, err := c.RestBytes()
	if err != nil {
		return e, err
	}
	e.Body = body
	return e, nil
}

func EncodeEcho(c *codec.Cursor, e Echo) error {
	if err := c.WriteU16(uint16(e.Op)); err != nil {
		return err
	}
	return c.WriteBytes(e.Body)
}
