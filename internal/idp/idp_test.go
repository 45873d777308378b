package idp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/wire"
)

func echoFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	eth := wire.Ethernet{Dst: wire.Host(0x0A0B0C0D0E0F), Src: wire.Host(0x010203040506), Type: wire.EtherTypeXNS}
	hdr := wire.IDP{
		Control:   0,
		Type:      wire.PacketTypeEcho,
		DstNet:    wire.NetAll,
		DstHost:   wire.Host(0x0A0B0C0D0E0F),
		DstSocket: wire.SocketEcho,
		SrcNet:    wire.NetAll,
		SrcHost:   wire.Host(0x010203040506),
		SrcSocket: wire.SocketEcho,
	}
	frame, err := EncodeFrame(eth, hdr, payload)
	require.NoError(t, err)
	return frame
}

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	payload := []byte("hi")
	frame := echoFrame(t, payload)
	eth, hdr, gotPayload, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, wire.EtherTypeXNS, eth.Type)
	assert.Equal(t, uint16(wire.IDPHeaderLength+len(payload)), hdr.Length)
	assert.Equal(t, payload, gotPayload)
}

func TestFrameIsPaddedToMinimum(t *testing.T) {
	frame := echoFrame(t, []byte("hi"))
	assert.GreaterOrEqual(t, len(frame)-wire.EthernetHeaderLength, MinTransmitLength)
}

func TestChecksumDetectsCorruption(t *testing.T) {
	frame := echoFrame(t, []byte("hello!!!"))
	idpStart := wire.EthernetHeaderLength
	corrupt := append([]byte(nil), frame...)
	corrupt[idpStart+1+wire.IDPHeaderLength] ^= 0xFF // flip a payload bit
	_, _, _, err := DecodeFrame(corrupt)
	assert.Error(t, err)
}

func TestNoCheckChecksumAccepted(t *testing.T) {
	frame := echoFrame(t, []byte("hi"))
	idpStart := wire.EthernetHeaderLength
	frame[idpStart] = 0xFF
	frame[idpStart+1] = 0xFF
	_, _, _, err := DecodeFrame(frame)
	assert.NoError(t, err)
}

func TestWrongChecksumIsRejected(t *testing.T) {
	frame := echoFrame(t, []byte("hello!!!"))
	idpStart := wire.EthernetHeaderLength
	frame[idpStart] ^= 0xFF // flip the on-wire checksum field itself
	_, _, _, err := DecodeFrame(frame)
	assert.Error(t, err)
}

func TestIDPLengthHeaderOnlyAccepted(t *testing.T) {
	frame := echoFrame(t, nil)
	_, hdr, payload, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(wire.IDPHeaderLength), hdr.Length)
	assert.Empty(t, payload)
}

func TestOddLengthPayload(t *testing.T) {
	frame := echoFrame(t, []byte{0xAB})
	_, hdr, payload, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(wire.IDPHeaderLength+1), hdr.Length)
	assert.Equal(t, []byte{0xAB}, payload)
}
