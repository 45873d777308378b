// Package echo reflects Echo protocol requests back to their sender,
// body unchanged. Grounded on internal/pim/server.go's
// decode-then-transmit shape.
package echo

import (
	"log/slog"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

// Listener answers Echo requests on the well-known Echo socket.
type Listener struct {
	listener.Base
	log *slog.Logger

	transmit listener.TransmitFunc
}

func NewListener(socket wire.Socket, log *slog.Logger) *Listener {
	return &Listener{Base: listener.NewBase(socket, "echo"), log: log}
}

func (l *Listener) Init(h listener.Handles) error {
	l.transmit = h.Transmit
	l.Base.SetInitialized()
	return nil
}

func (l *Listener) Start() error { l.Base.SetStarted(); return nil }
func (l *Listener) Stop() error  { l.Base.SetStopped(); return nil }

func (l *Listener) Handle(dg listener.Datagram) {
	req, err := wire.DecodeEcho(codec.New(dg.Payload))
	if err != nil {
		l.log.Warn("echo: dropping malformed packet", "error", err)
		return
	}
	if req.Op != wire.EchoRequest {
		return
	}

	reply := wire.Echo{Op: wire.EchoReply, Body: req.Body}
	buf := make([]byte, 0, 2+len(reply.Body))
	w := codec.NewWriter(buf)
	if err := wire.EncodeEcho(w, reply); err != nil {
		l.log.Warn("echo: encode reply failed", "error", err)
		return
	}
	if err := l.transmit(dg.SrcNet, dg.SrcHost, dg.SrcSocket, wire.SocketEcho, wire.PacketTypeEcho, w.Bytes()); err != nil {
		l.log.Warn("echo: transmit reply failed", "error", err)
	}
}
