// Package rip answers Routing Information Protocol requests from the
// statically configured network table: a generic request gets every
// configured entry back, a specific-net request gets that one entry (or
// silence if the net is unknown). Grounded on internal/pim/server.go's
// message-construction-then-transmit shape, adapted from PIM
// hello/join-prune to RIP request/response.
package rip

import (
	"log/slog"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnsconfig"
)

// Networks is the subset of xnsconfig.Config the responder needs.
type Networks interface {
	Networks() []xnsconfig.NetworkEntry
	LookupNet(net wire.Net) (xnsconfig.NetworkEntry, bool)
}

// Listener answers RIP requests on the well-known RIP socket. Peer
// responses are decoded and logged but never folded into the static
// table, per this core's stateless routing model.
type Listener struct {
	listener.Base
	log *slog.Logger
	nets Networks

	transmit listener.TransmitFunc
}

func NewListener(socket wire.Socket, nets Networks, log *slog.Logger) *Listener {
	return &Listener{Base: listener.NewBase(socket, "rip"), nets: nets, log: log}
}

func (l *Listener) Init(h listener.Handles) error {
	l.transmit = h.Transmit
	l.Base.SetInitialized()
	return nil
}

func (l *Listener) Start() error { l.Base.SetStarted(); return nil }
func (l *Listener) Stop() error  { l.Base.SetStopped(); return nil }

func (l *Listener) Handle(dg listener.Datagram) {
	req, err := wire.DecodeRIP(codec.New(dg.Payload))
	if err != nil {
		l.log.Warn("rip: dropping malformed packet", "error", err)
		return
	}

	switch req.Op {
	case wire.RIPResponse:
		l.log.Debug("rip: received peer response, not applied to local table", "entries", len(req.Entries))
		return
	case wire.RIPRequest:
		l.respond(dg, req)
	default:
		l.log.Debug("rip: ignoring unknown op", "op", req.Op)
	}
}

func (l *Listener) respond(dg listener.Datagram, req wire.RIP) {
	var resp wire.RIP
	resp.Op = wire.RIPResponse

	switch len(req.Entries) {
	case 0:
		for _, n := range l.nets.Networks() {
			resp.Entries = append(resp.Entries, wire.RIPEntry{Net: n.Net, HopCount: n.Hop})
		}
	default:
		for _, e := range req.Entries {
			n, ok := l.nets.LookupNet(e.Net)
			if !ok {
				continue
			}
			resp.Entries = append(resp.Entries, wire.RIPEntry{Net: n.Net, HopCount: n.Hop})
		}
		if len(resp.Entries) == 0 {
			return
		}
	}

	buf := make([]byte, 0, 2+6*len(resp.Entries))
	w := codec.NewWriter(buf)
	if err := wire.EncodeRIP(w, resp); err != nil {
		l.log.Warn("rip: encode response failed", "error", err)
		return
	}
	if err := l.transmit(dg.SrcNet, dg.SrcHost, dg.SrcSocket, wire.SocketRIP, wire.PacketTypeRIP, w.Bytes()); err != nil {
		l.log.Warn("rip: transmit response failed", "error", err)
	}
}
