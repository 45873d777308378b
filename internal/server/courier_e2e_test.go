package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/handlers/timeproto"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

// encodeCallEnvelope builds a complete PEX payload carrying one Courier
// call: protocolRange | messageType(call) | call.
func encodeCallEnvelope(t *testing.T, txn uint16, program uint32, version, procedure uint16, args []byte) []byte {
	t.Helper()
	w := codec.NewWriter(make([]byte, 0, 32))
	require.NoError(t, wire.EncodeProtocolRange(w, wire.ProtocolRange{Low: wire.CourierProtocolVersion, High: wire.CourierProtocolVersion}))
	require.NoError(t, w.WriteU16(uint16(wire.MessageTypeCall)))
	require.NoError(t, wire.EncodeCall(w, wire.Call{Transaction: txn, Program: program, Version: version, Procedure: procedure, Args: args}))
	return w.Bytes()
}

func encodePEXFrame(t *testing.T, id uint32, clientType wire.ClientType, payload []byte) []byte {
	t.Helper()
	w := codec.NewWriter(make([]byte, 0, len(payload)+8))
	require.NoError(t, wire.EncodePEX(w, wire.PEX{ID: id, ClientType: clientType, Payload: payload}))
	return w.Bytes()
}

func TestTimeRequestOverPEX(t *testing.T) {
	driver, stop := startTestServer(t)
	defer stop()

	call := encodeCallEnvelope(t, 42, timeproto.Program, timeproto.Version, timeproto.ProcGetTime, nil)
	pex := encodePEXFrame(t, 1, wire.ClientTypeTime, call)
	driver.inject(clientFrame(t, wire.SocketCourier, wire.PacketTypePEX, pex))

	hdr, payload := recvFrame(t, driver.tx)
	assert.Equal(t, wire.PacketTypePEX, hdr.Type)

	reply, err := wire.DecodePEX(codec.New(payload))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), reply.ID)

	pr, typ, rest, err := decodeEnvelopeForTest(reply.Payload)
	require.NoError(t, err)
	assert.True(t, pr.Includes(wire.CourierProtocolVersion))
	require.Equal(t, wire.MessageTypeReturn, typ)

	ret, err := wire.DecodeReturn(rest)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), ret.Transaction)

	resp, err := wire.DecodeTimeResponse(codec.New(ret.Results))
	require.NoError(t, err)
	assert.Equal(t, wire.TimeDirectionWest, resp.OffsetDirection)
	assert.Equal(t, uint16(8), resp.OffsetHours)
}

func TestCourierUnknownProgramIsRejected(t *testing.T) {
	driver, stop := startTestServer(t)
	defer stop()

	call := encodeCallEnvelope(t, 7, 0xDEADBEEF, 1, 1, nil)
	pex := encodePEXFrame(t, 2, wire.ClientTypeTime, call)
	driver.inject(clientFrame(t, wire.SocketCourier, wire.PacketTypePEX, pex))

	_, payload := recvFrame(t, driver.tx)
	reply, err := wire.DecodePEX(codec.New(payload))
	require.NoError(t, err)

	_, typ, rest, err := decodeEnvelopeForTest(reply.Payload)
	require.NoError(t, err)
	require.Equal(t, wire.MessageTypeReject, typ)

	reject, err := wire.DecodeReject(rest)
	require.NoError(t, err)
	assert.Equal(t, wire.RejectNoSuchProgram, reject.Code)
	assert.Equal(t, uint16(7), reject.Transaction)
}

// decodeEnvelopeForTest mirrors internal/courier's unexported
// decodeEnvelope: it is not exported, so the test rebuilds the same
// protocolRange+messageType prefix parse from the public wire helpers.
func decodeEnvelopeForTest(payload []byte) (wire.ProtocolRange, wire.MessageType, *codec.Cursor, error) {
	c := codec.New(payload)
	pr, err := wire.DecodeProtocolRange(c)
	if err != nil {
		return pr, 0, nil, err
	}
	typ, err := c.ReadU16()
	if err != nil {
		return pr, 0, nil, err
	}
	rest, err := c.Rest()
	if err != nil {
		return pr, 0, nil, err
	}
	return pr, wire.MessageType(typ), rest, nil
}
