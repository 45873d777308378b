package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// IDPHeaderLength is the fixed IDP header size in octets.
const IDPHeaderLength = 30

// NoCheckChecksum is the on-wire sentinel meaning "checksum not computed".
const NoCheckChecksum uint16 = 0xFFFF

// PacketType is the IDP packet-type byte.
type PacketType uint8

const (
	PacketTypeRIP   PacketType = 1
	PacketTypeEcho  PacketType = 2
	PacketTypeError PacketType = 3
	PacketTypePEX   PacketType = 4
	PacketTypeSPP   PacketType = 5
	PacketTypeBoot  PacketType = 9
)

// IDP is the 30-octet IDP header. Payload is a BLOCK field: decoded as a
// sub-cursor over [30, length), not copied into this struct.
type IDP struct {
	Checksum  uint16
	Length    uint16
	Control   uint8
	Type      PacketType
	DstNet    Net
	DstHost   Host
	DstSocket Socket
	SrcNet    Net
	SrcHost   Host
	SrcSocket Socket
}

// DecodeIDP reads the fixed header and returns a sub-cursor over the
// payload region declared by Length; a Length that runs past the cursor's
// limit fails with the cursor's short-buffer error. It does not verify the
// checksum — internal/idp does that, and checks Length against the frame
// size first, as part of receive policy.
func DecodeIDP(c *codec.Cursor) (IDP, *codec.Cursor, error) {
	var h IDP

	checksum, err := c.ReadU16()
	if err != nil {
		return h, nil, err
	}
	length, err := c.ReadU16()
	if err != nil {
		return h, nil, err
	}
	control, err := c.ReadU8()
	if err != nil {
		return h, nil, err
	}
	typ, err := c.ReadU8()
	if err != nil {
		return h, nil, err
	}
	dstNet, err := c.ReadU32()
	if err != nil {
		return h, nil, err
	}
	dstHost, err := ReadHost(c)
	if err != nil {
		return h, nil, err
	}
	dstSocket, err := c.ReadU16()
	if err != nil {
		return h, nil, err
	}
	srcNet, err := c.ReadU32()
	if err != nil {
		return h, nil, err
	}
	srcHost, err := ReadHost(c)
	if err != nil {
		return h, nil, err
	}
	srcSocket, err := c.ReadU16()
	if err != nil {
		return h, nil, err
	}

	h = IDP{
		Checksum:  checksum,
		Length:    length,
		Control:   control,
		Type:      PacketType(typ),
		DstNet:    Net(dstNet),
		DstHost:   dstHost,
		DstSocket: Socket(dstSocket),
		SrcNet:    Net(srcNet),
		SrcHost:   srcHost,
		SrcSocket: Socket(srcSocket),
	}

	payloadLen := int(length) - IDPHeaderLength
	if payloadLen < 0 {
		return h, nil, codec.ErrBadValue
	}
	payload, err := c.SubAt(payloadLen)
	if err != nil {
		return h, nil, err
	}
	if err := c.SetPosition(payload.Limit()); err != nil {
		return h, nil, err
	}
	return h, payload, nil
}

func EncodeIDP(c *codec.Cursor, h IDP, payload []byte) error {
	if err := c.WriteU16(h.Checksum); err != nil {
		return err
	}
	if err := c.WriteU16(h.Length); err != nil {
		return err
	}
	if err := c.WriteU8(h.Control); err != nil {
		return err
	}
	if err := c.WriteU8(uint8(h.Type)); err != nil {
		return err
	}
	if err := c.WriteU32(uint32(h.DstNet)); err != nil {
		return err
	}
	if err := WriteHost(c, h.DstHost); err != nil {
		return err
	}
	if err := c.WriteU16(uint16(h.DstSocket)); err != nil {
		return err
	}
	if err := c.WriteU32(uint32(h.SrcNet)); err != nil {
		return err
	}
	if err := WriteHost(c, h.SrcHost); err != nil {
		return err
	}
	if err := c.WriteU16(uint16(h.SrcSocket)); err != nil {
		return err
	}
	return c.WriteBytes(payload)
}
