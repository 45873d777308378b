package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// ClientType is the PEX client-type field.
type ClientType uint16

const (
	ClientTypeUnspec    ClientType = 0
	ClientTypeTime      ClientType = 1
	ClientTypeCHS       ClientType = 2
	ClientTypeTeledebug ClientType = 8
)

// PEX is `id(4) | clientType(2) | payload`.
type PEX struct {
	ID         uint32
	ClientType ClientType
	Payload    []byte
}

func DecodePEX(c *codec.Cursor) (PEX, error) {
	var p PEX
	id, err := c.ReadU32()
	if err != nil {
		return p, err
	}
	ct, err := c.ReadU16()
	if err != nil {
		return p, err
	}
	p.ID = id
	p.ClientType = ClientType(ct)
	payload, err := c.RestBytes()
	if err != nil {
		return p, err
	}
	p.Payload = payload
	return p, nil
}

func EncodePEX(c *codec.Cursor, p PEX) error {
	if err := c.WriteU32(p.ID); err != nil {
		return err
	}
	if err := c.WriteU16(uint16(p.ClientType)); err != nil {
		return err
	}
	return c.WriteBytes(p.Payload)
}
