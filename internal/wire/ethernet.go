package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// EthernetMinFrame is the minimum frame size required on the wire;
// payload is padded to this by the IDP engine, not by this codec.
const EthernetMinFrame = 60

const EthernetHeaderLength = 14

// EtherTypeXNS selects the XNS protocol family on an Ethernet frame.
const EtherTypeXNS uint16 = 0x0600

// Ethernet is the frame header: dst(6) | src(6) | type(2) | payload.
// Payload is not copied by DecodeEthernet, which returns a sub-cursor over
// the remaining frame octets (a BLOCK field).
type Ethernet struct {
	Dst  Host
	Src  Host
	Type uint16
}

func DecodeEthernet(c *codec.Cursor) (Ethernet, *codec.Cursor, error) {
	var e Ethernet
	dst, err := ReadHost(c)
	if err != nil {
		return e, nil, err
	}
	src, err := ReadHost(c)
	if err != nil {
		return e, nil, err
	}
	typ, err := c.ReadU16()
	if err != nil {
		return e, nil, err
	}
	e.Dst, e.Src, e.Type = dst, src, typ
	body, err := c.Rest()
	if err != nil {
		return e, nil, err
	}
	return e, body, nil
}

// EncodeEthernet writes the header; callers append payload afterward.
func EncodeEthernet(c *codec.Cursor, e Ethernet) error {
	if err := WriteHost(c, e.Dst); err != nil {
		return err
	}
	if err := WriteHost(c, e.Src); err != nil {
		return err
	}
	return c.WriteU16(e.Type)
}
