package spp

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

// Acceptor listens on one well-known socket for SPP connection requests
// (a SYSTEM packet with SEND-ACK set and no established connection-id
// match) and spins up a Connection per accepted peer, registering it on
// a freshly allocated ephemeral socket.
type Acceptor struct {
	listener.Base
	log      *slog.Logger
	localNet wire.Net

	reg      *listener.Registry
	transmit listener.TransmitFunc

	nextLocalConnID atomic.Uint32

	// OnAccept, if set, is called synchronously right after a new
	// connection has been registered and sent its initial ack — the
	// hook the Courier listener uses to start a RunStreamed consumer.
	OnAccept func(*Connection)

	mu    sync.Mutex
	conns map[connKey]*Connection
}

func NewAcceptor(socket wire.Socket, name string, localNet wire.Net, log *slog.Logger) *Acceptor {
	return &Acceptor{
		Base:     listener.NewBase(socket, name),
		log:      log,
		localNet: localNet,
		conns:    make(map[connKey]*Connection),
	}
}

func (a *Acceptor) Init(h listener.Handles) error {
	a.reg = h.Registry
	a.transmit = h.Transmit
	a.Base.SetInitialized()
	return nil
}

func (a *Acceptor) Start() error { a.Base.SetStarted(); return nil }
func (a *Acceptor) Stop() error  { a.Base.SetStopped(); return nil }

func (a *Acceptor) Handle(dg listener.Datagram) {
	pkt, err := wire.DecodeSPP(codec.New(dg.Payload))
	if err != nil {
		a.log.Warn("spp: acceptor dropping malformed packet", "error", err)
		return
	}
	if !pkt.IsSystem() || !pkt.IsSendAck() {
		return
	}

	probe := connKey{remoteHost: dg.SrcHost, remoteConnID: pkt.SrcConnID}
	a.mu.Lock()
	for k := range a.conns {
		if k.remoteHost == probe.remoteHost && k.remoteConnID == probe.remoteConnID {
			a.mu.Unlock()
			return
		}
	}
	a.mu.Unlock()

	ephSocket, err := a.reg.EphemeralSocket()
	if err != nil {
		a.log.Warn("spp: no ephemeral socket available for new connection", "error", err)
		return
	}
	localConnID := uint16(a.nextLocalConnID.Add(1))

	conn := newConnection(connConfig{
		socket:       ephSocket,
		localConnID:  localConnID,
		localNet:     a.localNet,
		remoteNet:    dg.SrcNet,
		remoteHost:   dg.SrcHost,
		remoteSocket: dg.SrcSocket,
		remoteConnID: pkt.SrcConnID,
		onClose:      a.removeConn,
		log:          a.log,
	})

	key := connKey{remoteHost: dg.SrcHost, remoteConnID: pkt.SrcConnID, localConnID: localConnID}
	a.mu.Lock()
	a.conns[key] = conn
	a.mu.Unlock()

	if err := a.reg.Add(ephSocket, conn); err != nil {
		a.log.Warn("spp: registering new connection failed", "socket", ephSocket, "error", err)
		a.removeConn(conn)
		return
	}

	conn.acceptInitial(pkt)
	metricConnectionsOpened.Inc()

	if a.OnAccept != nil {
		a.OnAccept(conn)
	}
}

func (a *Acceptor) removeConn(c *Connection) {
	a.mu.Lock()
	for k, v := range a.conns {
		if v == c {
			delete(a.conns, k)
			break
		}
	}
	a.mu.Unlock()
	if a.reg != nil {
		a.reg.Delete(c.Socket())
	}
}
