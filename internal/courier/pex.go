package courier

import (
	"log/slog"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

const errorBodyBytes = 42

// PEXListener answers Expedited Courier calls: one complete call/reply
// per PEX payload, no connection state held between datagrams.
type PEXListener struct {
	listener.Base
	log *slog.Logger
	reg *service.Registry

	transmit listener.TransmitFunc
}

func NewPEXListener(socket wire.Socket, reg *service.Registry, log *slog.Logger) *PEXListener {
	return &PEXListener{Base: listener.NewBase(socket, "courier-pex"), reg: reg, log: log}
}

func (l *PEXListener) Init(h listener.Handles) error {
	l.transmit = h.Transmit
	l.Base.SetInitialized()
	return nil
}

func (l *PEXListener) Start() error { l.Base.SetStarted(); return nil }
func (l *PEXListener) Stop() error  { l.Base.SetStopped(); return nil }

func (l *PEXListener) Handle(dg listener.Datagram) {
	reply, err := l.handlePEX(dg.Payload)
	if err != nil {
		metricBadEnvelope.WithLabelValues("pex").Inc()
		l.replyInvalid(dg)
		return
	}
	if err := l.transmit(dg.SrcNet, dg.SrcHost, dg.SrcSocket, dg.DstSocket, wire.PacketTypePEX, reply); err != nil {
		l.log.Warn("courier: pex reply transmit failed", "error", err)
	}
}

func (l *PEXListener) handlePEX(payload []byte) ([]byte, error) {
	pex, err := wire.DecodePEX(codec.New(payload))
	if err != nil {
		return nil, err
	}
	if pex.ClientType != wire.ClientTypeTime && pex.ClientType != wire.ClientTypeCHS {
		return nil, xnserr.ErrInvalidPacketType
	}

	pr, typ, rest, err := decodeEnvelope(pex.Payload)
	if err != nil {
		return nil, err
	}
	if !pr.Includes(wire.CourierProtocolVersion) || typ != wire.MessageTypeCall {
		return nil, xnserr.ErrInvalidPacketType
	}
	call, err := wire.DecodeCall(rest)
	if err != nil {
		return nil, err
	}

	reply, outcome := Invoke(l.reg, call, nil)
	metricCallsHandled.WithLabelValues("pex", outcome).Inc()

	buf := make([]byte, 0, 6+len(reply))
	w := codec.NewWriter(buf)
	if err := wire.EncodePEX(w, wire.PEX{ID: pex.ID, ClientType: pex.ClientType, Payload: reply}); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (l *PEXListener) replyInvalid(dg listener.Datagram) {
	n := errorBodyBytes
	if n > len(dg.Payload) {
		n = len(dg.Payload)
	}
	buf := make([]byte, 0, 4+n)
	w := codec.NewWriter(buf)
	xerr := wire.XError{Code: wire.ErrorCodeInvalidPacketType, Offending: append([]byte(nil), dg.Payload[:n]...)}
	if err := wire.EncodeError(w, xerr); err != nil {
		l.log.Warn("courier: encode invalid-packet-type reply failed", "error", err)
		return
	}
	if err := l.transmit(dg.SrcNet, dg.SrcHost, dg.SrcSocket, wire.SocketError, wire.PacketTypeError, w.Bytes()); err != nil {
		l.log.Warn("courier: error reply transmit failed", "error", err)
	}
}
