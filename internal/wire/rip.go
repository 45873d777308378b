package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

type RIPOpType uint16

const (
	RIPRequest  RIPOpType = 1
	RIPResponse RIPOpType = 2
)

// RIPInfinity marks a network as unreachable.
const RIPInfinity uint16 = 16

type RIPEntry struct {
	Net      Net
	HopCount uint16
}

// RIP is `type(2) | entries[]`. Entries run to the end of the enclosing
// IDP payload; there is no explicit count.
type RIP struct {
	Op      RIPOpType
	Entries []RIPEntry
}

func DecodeRIP(c *codec.Cursor) (RIP, error) {
	var r RIP
	op, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	r.Op = RIPOpType(op)
	for c.Remaining() >= 6 {
		net, err := c.ReadU32()
		if err != nil {
			return r, err
		}
		hop, err := c.ReadU16()
		if err != nil {
			return r, err
		}
		r.Entries = append(r.Entries, RIPEntry{Net: Net(net), HopCount: hop})
	}
	return r, nil
}

func EncodeRIP(c *codec.Cursor, r RIP) error {
	if err := c.WriteU16(uint16(r.Op)); err != nil {
		return err
	}
	for _, e := range r.Entries {
		if err := c.WriteU32(uint32(e.Net)); err != nil {
			return err
		}
		if err := c.WriteU16(e.HopCount); err != nil {
			return err
		}
	}
	return nil
}
