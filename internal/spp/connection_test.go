package spp

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

type sentPacket struct {
	dstNet     wire.Net
	dstHost    wire.Host
	dstSocket  wire.Socket
	srcSocket  wire.Socket
	packetType wire.PacketType
	spp        wire.SPP
}

func newCapturingHarness(t *testing.T) (*listener.Registry, chan sentPacket) {
	t.Helper()
	sent := make(chan sentPacket, 32)
	transmit := func(dstNet wire.Net, dstHost wire.Host, dstSocket, srcSocket wire.Socket, packetType wire.PacketType, payload []byte) error {
		pkt, err := wire.DecodeSPP(codec.New(payload))
		require.NoError(t, err)
		sent <- sentPacket{dstNet: dstNet, dstHost: dstHost, dstSocket: dstSocket, srcSocket: srcSocket, packetType: packetType, spp: pkt}
		return nil
	}
	reg := listener.NewRegistry(transmit)
	require.NoError(t, reg.Start())
	return reg, sent
}

func encodeSPPFrame(t *testing.T, pkt wire.SPP) []byte {
	t.Helper()
	w := codec.NewWriter(make([]byte, 0, wire.SPPHeaderLength+len(pkt.Data)))
	require.NoError(t, wire.EncodeSPP(w, pkt))
	return w.Bytes()
}

func mustRecv(t *testing.T, ch chan sentPacket) sentPacket {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transmitted SPP packet")
		return sentPacket{}
	}
}

func acceptConnection(t *testing.T, reg *listener.Registry, sent chan sentPacket, remoteHost wire.Host, remoteConnID uint16) *Connection {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	acc := NewAcceptor(wire.Socket(3000), "spp-listen", wire.Net(1), log)

	connCh := make(chan *Connection, 1)
	acc.OnAccept = func(c *Connection) { connCh <- c }

	require.NoError(t, reg.Add(wire.Socket(3000), acc))

	syn := wire.SPP{Control: wire.SPPBitSystem | wire.SPPBitSendAck, SrcConnID: remoteConnID, Seq: 0, Alloc: 7}
	dg := listener.Datagram{
		SrcNet:     wire.Net(1),
		SrcHost:    remoteHost,
		SrcSocket:  wire.Socket(3500),
		DstSocket:  wire.Socket(3000),
		PacketType: wire.PacketTypeSPP,
		Payload:    encodeSPPFrame(t, syn),
	}
	acc.Handle(dg)

	ack := mustRecv(t, sent)
	assert.Equal(t, uint16(0), ack.spp.Ack)
	assert.Equal(t, uint16(7), ack.spp.Alloc)

	select {
	case conn := <-connCh:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("acceptor never accepted connection")
		return nil
	}
}

func TestAcceptorOpensConnectionAndAcksInitial(t *testing.T) {
	reg, sent := newCapturingHarness(t)
	conn := acceptConnection(t, reg, sent, wire.Host(0xAABBCCDDEEFF), 100)
	defer conn.Stop()

	assert.True(t, reg.IsRunning())
	l, ok := reg.Lookup(conn.Socket())
	require.True(t, ok)
	got, ok := l.(*Connection)
	require.True(t, ok)
	assert.Same(t, conn, got)
}

func TestConnectionPutSendsDataWithEndOfMessage(t *testing.T) {
	reg, sent := newCapturingHarness(t)
	conn := acceptConnection(t, reg, sent, wire.Host(1), 1)
	defer conn.Stop()

	conn.Put([]byte("hello"), true)

	p := mustRecv(t, sent)
	assert.Equal(t, []byte("hello"), p.spp.Data)
	assert.True(t, p.spp.IsEndOfMessage())
	assert.True(t, p.spp.IsSendAck())
	assert.Equal(t, uint16(0), p.spp.Seq)
}

func TestConnectionDeliversInboundDataInOrder(t *testing.T) {
	reg, sent := newCapturingHarness(t)
	conn := acceptConnection(t, reg, sent, wire.Host(2), 1)
	defer conn.Stop()

	data := wire.SPP{SST: wire.SSTCourier, Seq: 0, Ack: 0, Alloc: 8, Data: []byte("hi"), Control: wire.SPPBitEndOfMessage}
	conn.Handle(listener.Datagram{PacketType: wire.PacketTypeSPP, Payload: encodeSPPFrame(t, data)})

	select {
	case <-conn.Notify():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery notification")
	}

	ev := conn.Get()
	require.Equal(t, EventData, ev.Kind)
	assert.Equal(t, []byte("hi"), ev.Data)

	ev2 := conn.Get()
	assert.Equal(t, EventRecordEnd, ev2.Kind)
}

func TestConnectionOutOfOrderDataReordersBeforeDelivery(t *testing.T) {
	reg, sent := newCapturingHarness(t)
	conn := acceptConnection(t, reg, sent, wire.Host(3), 1)
	defer conn.Stop()

	second := wire.SPP{SST: wire.SSTCourier, Seq: 1, Alloc: 8, Data: []byte("B")}
	conn.Handle(listener.Datagram{PacketType: wire.PacketTypeSPP, Payload: encodeSPPFrame(t, second)})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, EventNone, conn.Get().Kind, "out-of-order packet must not be delivered yet")

	first := wire.SPP{SST: wire.SSTCourier, Seq: 0, Alloc: 8, Data: []byte("A")}
	conn.Handle(listener.Datagram{PacketType: wire.PacketTypeSPP, Payload: encodeSPPFrame(t, first)})

	var events []Event
	deadline := time.After(2 * time.Second)
	for len(events) < 2 {
		select {
		case <-conn.Notify():
			for {
				ev := conn.Get()
				if ev.Kind == EventNone {
					break
				}
				events = append(events, ev)
			}
		case <-deadline:
			t.Fatal("timed out waiting for reordered delivery")
		}
	}
	require.Len(t, events, 2)
	assert.Equal(t, []byte("A"), events[0].Data)
	assert.Equal(t, []byte("B"), events[1].Data)
}

func TestConnectionCloseHandshakeTearsDownOnPeerAck(t *testing.T) {
	reg, sent := newCapturingHarness(t)
	conn := acceptConnection(t, reg, sent, wire.Host(4), 1)

	conn.Close()
	closePkt := mustRecv(t, sent)
	assert.Equal(t, wire.SSTClose, closePkt.spp.SST)

	reply := wire.SPP{SST: wire.SSTCloseReply, Seq: 0, Alloc: 8}
	conn.Handle(listener.Datagram{PacketType: wire.PacketTypeSPP, Payload: encodeSPPFrame(t, reply)})

	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connection never tore down after peer acked close")
	}
}

func TestConnectionPeerInitiatedCloseDeliversEOS(t *testing.T) {
	reg, sent := newCapturingHarness(t)
	conn := acceptConnection(t, reg, sent, wire.Host(5), 1)
	defer conn.Stop()

	closeReq := wire.SPP{SST: wire.SSTClose, Seq: 0, Alloc: 8}
	conn.Handle(listener.Datagram{PacketType: wire.PacketTypeSPP, Payload: encodeSPPFrame(t, closeReq)})

	select {
	case <-conn.Notify():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for EOS notification")
	}
	ev := conn.Get()
	assert.Equal(t, EventEOS, ev.Kind)

	closeReply := mustRecv(t, sent)
	assert.Equal(t, wire.SSTCloseReply, closeReply.spp.SST)
}
