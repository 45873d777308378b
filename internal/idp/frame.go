package idp

import (
	"fmt"

	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

// MinIDPLength is the fixed 30-octet IDP header.
const MinIDPLength = wire.IDPHeaderLength

// MinTransmitLength is the minimum total IDP length (header+payload) a
// transmitted packet is padded up to.
const MinTransmitLength = 46

// Pad returns payload padded with zeros to at least MinTransmitLength
// total IDP length and to an even total length. Padding octets are not
// reflected in the IDP Length field.
func Pad(payload []byte) []byte {
	total := MinIDPLength + len(payload)
	padTo := total
	if padTo < MinTransmitLength {
		padTo = MinTransmitLength
	}
	if padTo%2 != 0 {
		padTo++
	}
	padLen := padTo - total
	if padLen <= 0 {
		return payload
	}
	out := make([]byte, len(payload)+padLen)
	copy(out, payload)
	return out
}

// EncodeFrame builds a complete Ethernet+IDP frame: header.Length is
// recomputed from len(payload) (not padded payload), the checksum is
// computed over the Length octets rounded up to even (padding beyond that
// is not covered), and the result is padded to MinTransmitLength/even.
func EncodeFrame(eth wire.Ethernet, hdr wire.IDP, payload []byte) ([]byte, error) {
	hdr.Length = uint16(MinIDPLength + len(payload))
	padded := Pad(payload)

	buf := make([]byte, 0, wire.EthernetHeaderLength+MinIDPLength+len(padded))
	w := codec.NewWriter(buf)
	if err := wire.EncodeEthernet(w, eth); err != nil {
		return nil, fmt.Errorf("idp: encode ethernet header: %w", err)
	}
	idpStart := w.Position()
	if err := wire.EncodeIDP(w, hdr, padded); err != nil {
		return nil, fmt.Errorf("idp: encode idp header: %w", err)
	}

	frame := w.Bytes()
	checksum := EncodedChecksum(frame[idpStart:], hdr.Length)
	frame[idpStart] = byte(checksum >> 8)
	frame[idpStart+1] = byte(checksum)
	return frame, nil
}

// DecodeFrame applies the receive policy: reject (returning
// an error, for the caller to drop-and-log) if length < 30, length
// exceeds the frame size, or a checksum is present and disagrees.
func DecodeFrame(frame []byte) (wire.Ethernet, wire.IDP, []byte, error) {
	r := codec.New(frame)
	eth, idpCursor, err := wire.DecodeEthernet(r)
	if err != nil {
		return eth, wire.IDP{}, nil, fmt.Errorf("idp: decode ethernet: %w", xnserr.ErrShortBuffer)
	}
	if eth.Type != wire.EtherTypeXNS {
		return eth, wire.IDP{}, nil, xnserr.ErrInvalidPacketType
	}

	idpBytes, err := idpCursor.RestBytes()
	if err != nil {
		return eth, wire.IDP{}, nil, fmt.Errorf("idp: slice idp region: %w", xnserr.ErrShortBuffer)
	}
	if len(idpBytes) < MinIDPLength {
		return eth, wire.IDP{}, nil, fmt.Errorf("idp: header too short: %w", xnserr.ErrShortBuffer)
	}

	if length := int(idpBytes[2])<<8 | int(idpBytes[3]); length > len(idpBytes) {
		return eth, wire.IDP{}, nil, fmt.Errorf("idp: length exceeds frame: %w", xnserr.ErrTooLong)
	}

	idpReader := codec.New(idpBytes)
	hdr, payloadCursor, err := wire.DecodeIDP(idpReader)
	if err != nil {
		return eth, hdr, nil, fmt.Errorf("idp: decode idp header: %w", xnserr.ErrShortBuffer)
	}
	if !VerifyChecksum(idpBytes, hdr.Length) {
		return eth, hdr, nil, fmt.Errorf("idp: checksum mismatch: %w", xnserr.ErrBadChecksum)
	}

	payload, err := payloadCursor.RestBytes()
	if err != nil {
		return eth, hdr, nil, fmt.Errorf("idp: slice payload: %w", xnserr.ErrShortBuffer)
	}
	return eth, hdr, payload, nil
}
