package echo

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

func newTestListener(t *testing.T) (*Listener, *[]listener.Datagram) {
	t.Helper()
	l := NewListener(wire.SocketEcho, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var sent []listener.Datagram
	require.NoError(t, l.Init(listener.Handles{Transmit: func(dstNet wire.Net, dstHost wire.Host, dstSocket, srcSocket wire.Socket, pt wire.PacketType, payload []byte) error {
		sent = append(sent, listener.Datagram{SrcNet: dstNet, SrcHost: dstHost, SrcSocket: dstSocket, DstSocket: srcSocket, PacketType: pt, Payload: payload})
		return nil
	}}))
	return l, &sent
}

func TestEchoRequestReflectsBodyUnchanged(t *testing.T) {
	l, sent := newTestListener(t)

	w := codec.NewWriter(make([]byte, 0, 16))
	require.NoError(t, wire.EncodeEcho(w, wire.Echo{Op: wire.EchoRequest, Body: []byte("ping")}))

	l.Handle(listener.Datagram{SrcNet: wire.Net(1), SrcHost: wire.Host(0x99), SrcSocket: wire.Socket(3100), Payload: w.Bytes()})

	require.Len(t, *sent, 1)
	got := (*sent)[0]
	assert.Equal(t, wire.Net(1), got.SrcNet)
	assert.Equal(t, wire.Host(0x99), got.SrcHost)
	assert.Equal(t, wire.Socket(3100), got.SrcSocket)
	assert.Equal(t, wire.SocketEcho, got.DstSocket)
	assert.Equal(t, wire.PacketTypeEcho, got.PacketType)

	reply, err := wire.DecodeEcho(codec.New(got.Payload))
	require.NoError(t, err)
	assert.Equal(t, wire.EchoReply, reply.Op)
	assert.Equal(t, []byte("ping"), reply.Body)
}

func TestEchoReplyIsIgnored(t *testing.T) {
	l, sent := newTestListener(t)
	w := codec.NewWriter(make([]byte, 0, 16))
	require.NoError(t, wire.EncodeEcho(w, wire.Echo{Op: wire.EchoReply, Body: []byte("pong")}))
	l.Handle(listener.Datagram{Payload: w.Bytes()})
	assert.Empty(t, *sent)
}

func TestEchoMalformedPacketDropped(t *testing.T) {
	l, sent := newTestListener(t)
	l.Handle(listener.Datagram{Payload: []byte{0x01}})
	assert.Empty(t, *sent)
}
