package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/wire/codec"
)

func TestEthernetRoundTrip(t *testing.T) {
	buf := make([]byte, 0, 64)
	w := codec.NewWriter(buf)
	in := Ethernet{Dst: HostAll, Src: Host(0x010203040506), Type: EtherTypeXNS}
	require.NoError(t, EncodeEthernet(w, in))
	require.NoError(t, w.WriteBytes([]byte("payload")))

	r := codec.New(w.Bytes())
	out, body, err := DecodeEthernet(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	raw, err := body.RestBytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(raw))
}

func TestIDPRoundTrip(t *testing.T) {
	payload := []byte("hello!!!")
	hdr := IDP{
		Checksum:  NoCheckChecksum,
		Length:    uint16(IDPHeaderLength + len(payload)),
		Control:   0,
		Type:      PacketTypeEcho,
		DstNet:    NetAll,
		DstHost:   HostAll,
		DstSocket: Socket(SocketEcho),
		SrcNet:    Net(1),
		SrcHost:   Host(0xAABBCCDDEEFF),
		SrcSocket: Socket(3001),
	}
	buf := make([]byte, 0, 64)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeIDP(w, hdr, payload))

	r := codec.New(w.Bytes())
	out, body, err := DecodeIDP(r)
	require.NoError(t, err)
	assert.Equal(t, hdr, out)
	raw, err := body.RestBytes()
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestIDPLengthBoundary(t *testing.T) {
	// IDP length=30 (header only): accepted; payload empty.
	hdr := IDP{Checksum: NoCheckChecksum, Length: IDPHeaderLength, Type: PacketTypeEcho}
	buf := make([]byte, 0, 40)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeIDP(w, hdr, nil))
	r := codec.New(w.Bytes())
	_, body, err := DecodeIDP(r)
	require.NoError(t, err)
	assert.Equal(t, 0, body.Remaining())
}

func TestRIPRoundTrip(t *testing.T) {
	in := RIP{Op: RIPResponse, Entries: []RIPEntry{{Net: 2, HopCount: 3}, {Net: 5, HopCount: RIPInfinity}}}
	buf := make([]byte, 0, 32)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeRIP(w, in))
	r := codec.New(w.Bytes())
	out, err := DecodeRIP(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEchoRoundTrip(t *testing.T) {
	in := Echo{Op: EchoReply, Body: []byte("hello!")}
	buf := make([]byte, 0, 32)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeEcho(w, in))
	r := codec.New(w.Bytes())
	out, err := DecodeEcho(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSPPControlBits(t *testing.T) {
	s := SPP{Control: SPPBitSystem | SPPBitSendAck}
	assert.True(t, s.IsSystem())
	assert.True(t, s.IsSendAck())
	assert.False(t, s.IsAttention())
	assert.False(t, s.IsData())
}

func TestSPPRoundTrip(t *testing.T) {
	in := SPP{
		Control:   SPPBitEndOfMessage,
		SST:       SSTCourier,
		SrcConnID: 0x0042,
		DstConnID: 0xAAAA,
		Seq:       5,
		Ack:       0,
		Alloc:     3,
		Data:      []byte("record"),
	}
	buf := make([]byte, 0, 32)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeSPP(w, in))
	r := codec.New(w.Bytes())
	out, err := DecodeSPP(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSeqCircularOrdering(t *testing.T) {
	assert.True(t, SeqLess(5, 6))
	assert.True(t, SeqLess(0xFFFF, 0))
	assert.False(t, SeqLess(6, 5))
	assert.True(t, SeqLE(5, 5))
}

func TestCourierCallRoundTrip(t *testing.T) {
	in := Call{Transaction: 0x1234, Program: 2, Version: 99, Procedure: 0, Args: nil}
	buf := make([]byte, 0, 32)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeCall(w, in))
	r := codec.New(w.Bytes())
	out, err := DecodeCall(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCourierRejectWithVersionRange(t *testing.T) {
	in := Reject{Transaction: 0x1234, Code: RejectNoSuchVersion, VersionRange: ProtocolRange{Low: 2, High: 3}}
	buf := make([]byte, 0, 32)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeReject(w, in))
	r := codec.New(w.Bytes())
	out, err := DecodeReject(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStringRoundTrip(t *testing.T) {
	buf := make([]byte, 0, 32)
	w := codec.NewWriter(buf)
	require.NoError(t, WriteString(w, "hello"))
	r := codec.New(w.Bytes())
	out, err := ReadString(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestTimeResponseRoundTrip(t *testing.T) {
	in := TimeResponse{
		Time:            3814294400,
		OffsetDirection: TimeDirectionWest,
		OffsetHours:     8,
		OffsetMinutes:   0,
		DSTStart:        0,
		DSTEnd:          0,
		Tolerance:       ToleranceUnknown,
		ToleranceValue:  0,
	}
	buf := make([]byte, 0, 32)
	w := codec.NewWriter(buf)
	require.NoError(t, EncodeTimeResponse(w, in))
	r := codec.New(w.Bytes())
	out, err := DecodeTimeResponse(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
