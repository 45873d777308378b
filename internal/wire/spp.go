package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// SPP control bits.
const (
	SPPBitSystem       uint8 = 0x80
	SPPBitSendAck      uint8 = 0x40
	SPPBitAttention    uint8 = 0x20
	SPPBitEndOfMessage uint8 = 0x10
)

// SST is the SPP sub-system type.
type SST uint8

const (
	SSTCourier    SST = 0
	SSTBulkData   SST = 1
	SSTClose      SST = 254
	SSTCloseReply SST = 255
)

// SPPHeaderLength is the fixed SPP header size preceding data.
const SPPHeaderLength = 12

// SPP is `control(1) | sst(1) | srcConnId(2) | dstConnId(2) | seq(2) |
// ack(2) | alloc(2) | data[]`.
type SPP struct {
	Control   uint8
	SST       SST
	SrcConnID uint16
	DstConnID uint16
	Seq       uint16
	Ack       uint16
	Alloc     uint16
	Data      []byte
}

func (s SPP) IsSystem() bool       { return s.Control&SPPBitSystem != 0 }
func (s SPP) IsSendAck() bool      { return s.Control&SPPBitSendAck != 0 }
func (s SPP) IsAttention() bool    { return s.Control&SPPBitAttention != 0 }
func (s SPP) IsEndOfMessage() bool { return s.Control&SPPBitEndOfMessage != 0 }
func (s SPP) IsData() bool         { return s.Control&SPPBitSystem == 0 }

func DecodeSPP(c *codec.Cursor) (SPP, error) {
	var s SPP
	control, err := c.ReadU8()
	if err != nil {
		return s, err
	}
	sst, err := c.ReadU8()
	if err != nil {
		return s, err
	}
	srcConnID, err := c.ReadU16()
	if err != nil {
		return s, err
	}
	dstConnID, err := c.ReadU16()
	if err != nil {
		return s, err
	}
	seq, err := c.ReadU16()
	if err != nil {
		return s, err
	}
	ack, err := c.ReadU16()
	if err != nil {
		return s, err
	}
	alloc, err := c.ReadU16()
	if err != nil {
		return s, err
	}
	data, err := c.RestBytes()
	if err != nil {
		return s, err
	}
	s = SPP{
		Control:   control,
		SST:       SST(sst),
		SrcConnID: srcConnID,
		DstConnID: dstConnID,
		Seq:       seq,
		Ack:       ack,
		Alloc:     alloc,
		Data:      data,
	}
	return s, nil
}

func EncodeSPP(c *codec.Cursor, s SPP) error {
	if err := c.WriteU8(s.Control); err != nil {
		return err
	}
	if err := c.WriteU8(uint8(s.SST)); err != nil {
		return err
	}
	if err := c.WriteU16(s.SrcConnID); err != nil {
		return err
	}
	if err := c.WriteU16(s.DstConnID); err != nil {
		return err
	}
	if err := c.WriteU16(s.Seq); err != nil {
		return err
	}
	if err := c.WriteU16(s.Ack); err != nil {
		return err
	}
	if err := c.WriteU16(s.Alloc); err != nil {
		return err
	}
	return c.WriteBytes(s.Data)
}

// SeqLess reports whether a is strictly before b under circular sequence
// ordering: comparisons wrap modulo 2^16 and treat half the space as
// "ahead" and half as "behind", so a window straddling the wraparound
// point still compares correctly.
func SeqLess(a, b uint16) bool {
	return int16(a-b) < 0
}

// SeqLE reports a <= b under circular sequence ordering.
func SeqLE(a, b uint16) bool {
	return a == b || SeqLess(a, b)
}
