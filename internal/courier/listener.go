package courier

import (
	"log/slog"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/spp"
	"github.com/xnsstack/xnsd/internal/wire"
)

// Listener binds one well-known socket (Courier=5 by default) to both
// Courier transports sharing it: a PEX datagram is answered inline, an
// SPP SYSTEM+SEND-ACK datagram is handed to the embedded acceptor, which
// spins up a Connection (on its own ephemeral socket) and a RunStreamed
// goroutine to carry the rest of that call's records.
type Listener struct {
	listener.Base
	pex      *PEXListener
	acceptor *spp.Acceptor

	reg      *service.Registry
	sessions *service.Sessions
	log      *slog.Logger
}

func NewListener(socket wire.Socket, localNet wire.Net, reg *service.Registry, sessions *service.Sessions, log *slog.Logger) *Listener {
	l := &Listener{
		Base:     listener.NewBase(socket, "courier"),
		pex:      NewPEXListener(socket, reg, log),
		acceptor: spp.NewAcceptor(socket, "courier-spp-acceptor", localNet, log),
		reg:      reg,
		sessions: sessions,
		log:      log,
	}
	l.acceptor.OnAccept = l.onAccept
	return l
}

func (l *Listener) onAccept(conn *spp.Connection) {
	go RunStreamed(conn, l.reg, l.sessions, conn.Identity(), l.log, conn.Done())
}

func (l *Listener) Init(h listener.Handles) error {
	if err := l.pex.Init(h); err != nil {
		return err
	}
	if err := l.acceptor.Init(h); err != nil {
		return err
	}
	l.Base.SetInitialized()
	return nil
}

func (l *Listener) Start() error {
	if err := l.pex.Start(); err != nil {
		return err
	}
	if err := l.acceptor.Start(); err != nil {
		return err
	}
	l.Base.SetStarted()
	return nil
}

func (l *Listener) Stop() error {
	if err := l.acceptor.Stop(); err != nil {
		return err
	}
	if err := l.pex.Stop(); err != nil {
		return err
	}
	l.Base.SetStopped()
	return nil
}

func (l *Listener) Handle(dg listener.Datagram) {
	switch dg.PacketType {
	case wire.PacketTypePEX:
		l.pex.Handle(dg)
	case wire.PacketTypeSPP:
		l.acceptor.Handle(dg)
	}
}
