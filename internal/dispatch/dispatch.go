// Package dispatch runs the single-reader packet ingress loop: it polls
// the driver, decodes Ethernet+IDP, routes by destination socket to the
// listener registry, and exposes the one shared transmit path every
// listener sends replies through. Grounded on
// internal/liveness/receiver.go's Receiver.Run read loop, adapted from
// UDP control packets to raw Ethernet/IDP frames.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/xnsstack/xnsd/internal/idp"
	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/netdriver"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

const (
	selectTimeout  = time.Second
	maxFrameBytes  = 1600
	errorBodyBytes = 42
)

// Dispatcher owns the driver and the listener registry, and serializes
// every transmit behind a mutex so listener tasks never interleave
// frames on the wire.
type Dispatcher struct {
	log      *slog.Logger
	iface    string
	localNet wire.Net
	driver   netdriver.Driver
	registry *listener.Registry
	localMAC wire.Host

	txMu sync.Mutex

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// New constructs a Dispatcher over driver, bound to iface for metric
// labels and localNet for outbound IDP source-net fields. The caller
// must call SetRegistry before Run.
func New(log *slog.Logger, iface string, localNet wire.Net, driver netdriver.Driver) (*Dispatcher, error) {
	mac, err := driver.LocalAddress()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		log:      log,
		iface:    iface,
		localNet: localNet,
		driver:   driver,
		localMAC: macToHost(mac),
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

func macToHost(mac [6]byte) wire.Host {
	var v uint64
	for _, b := range mac {
		v = v<<8 | uint64(b)
	}
	return wire.Host(v)
}

// SetRegistry binds the listener registry this dispatcher routes to.
func (d *Dispatcher) SetRegistry(r *listener.Registry) { d.registry = r }

// Run executes the receive loop until ctx is canceled or the driver
// reports a fatal error.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.driver.Discard(); err != nil {
		d.log.Warn("dispatch: discard at startup failed", "iface", d.iface, "error", err)
	}
	d.log.Debug("dispatch: rx loop started", "iface", d.iface)
	buf := make([]byte, maxFrameBytes)

	for {
		select {
		case <-ctx.Done():
			d.log.Debug("dispatch: rx loop stopped by context", "iface", d.iface)
			return nil
		default:
		}

		err := d.driver.Select(selectTimeout)
		if err != nil {
			if errors.Is(err, netdriver.ErrTimeout) {
				continue
			}
			return err
		}

		for {
			n, _, err := d.driver.Receive(buf)
			if err != nil {
				if errors.Is(err, netdriver.ErrWouldBlock) {
					break
				}
				return err
			}
			d.handleFrame(buf[:n])
		}
	}
}

func (d *Dispatcher) handleFrame(frame []byte) {
	metricFramesRX.WithLabelValues(d.iface).Inc()

	_, hdr, payload, err := idp.DecodeFrame(frame)
	switch {
	case errors.Is(err, xnserr.ErrInvalidPacketType):
		return // not XNS; silently ignore shared-wire traffic
	case errors.Is(err, xnserr.ErrShortBuffer):
		d.logDropped("short", err)
		metricFramesDropped.WithLabelValues(d.iface, "short").Inc()
		return
	case errors.Is(err, xnserr.ErrTooLong):
		d.logDropped("too_long", err)
		metricFramesDropped.WithLabelValues(d.iface, "too_long").Inc()
		return
	case errors.Is(err, xnserr.ErrBadChecksum):
		d.logDropped("bad_checksum", err)
		metricFramesDropped.WithLabelValues(d.iface, "bad_checksum").Inc()
		return
	case err != nil:
		d.logDropped("decode_error", err)
		metricFramesDropped.WithLabelValues(d.iface, "decode_error").Inc()
		return
	}

	socketLabel := hdr.DstSocket.String()
	l, ok := d.registry.Lookup(hdr.DstSocket)
	if !ok {
		metricNoListener.WithLabelValues(d.iface, socketLabel).Inc()
		d.replyNoSocket(frame, hdr)
		return
	}

	metricPacketsBySocket.WithLabelValues(d.iface, socketLabel).Inc()
	l.Handle(listener.Datagram{
		SrcNet:     hdr.SrcNet,
		SrcHost:    hdr.SrcHost,
		SrcSocket:  hdr.SrcSocket,
		DstSocket:  hdr.DstSocket,
		PacketType: hdr.Type,
		Payload:    payload,
	})
}

// replyNoSocket sends an XNS Error(noSocket) back to the sender, unless
// the sender address was a broadcast host.
func (d *Dispatcher) replyNoSocket(frame []byte, hdr wire.IDP) {
	if hdr.SrcHost.IsBroadcast() {
		return
	}
	idpRegion := frame[wire.EthernetHeaderLength:]
	n := errorBodyBytes
	if n > len(idpRegion) {
		n = len(idpRegion)
	}
	offending := append([]byte(nil), idpRegion[:n]...)

	buf := make([]byte, 0, 4+len(offending))
	w := codec.NewWriter(buf)
	xerr := wire.XError{Code: wire.ErrorCodeNoSocket, Param: 0, Offending: offending}
	if err := wire.EncodeError(w, xerr); err != nil {
		d.log.Warn("dispatch: encode error reply failed", "error", err)
		return
	}

	if err := d.Transmit(hdr.SrcNet, hdr.SrcHost, hdr.SrcSocket, wire.SocketError, wire.PacketTypeError, w.Bytes()); err != nil {
		d.log.Warn("dispatch: transmit error reply failed", "error", err)
	}
}

// Transmit builds and sends one complete Ethernet+IDP frame. Every
// listener's outbound replies flow through this single serialized path.
func (d *Dispatcher) Transmit(dstNet wire.Net, dstHost wire.Host, dstSocket, srcSocket wire.Socket, packetType wire.PacketType, payload []byte) error {
	eth := wire.Ethernet{Dst: dstHost, Src: d.localMAC, Type: wire.EtherTypeXNS}
	hdr := wire.IDP{
		Type:      packetType,
		DstNet:    dstNet,
		DstHost:   dstHost,
		DstSocket: dstSocket,
		SrcNet:    d.localNet,
		SrcHost:   d.localMAC,
		SrcSocket: srcSocket,
	}
	frame, err := idp.EncodeFrame(eth, hdr, payload)
	if err != nil {
		return err
	}

	d.txMu.Lock()
	_, err = d.driver.Transmit(frame)
	d.txMu.Unlock()

	if err != nil {
		metricTXErrors.WithLabelValues(d.iface).Inc()
		return err
	}
	metricFramesTX.WithLabelValues(d.iface).Inc()
	return nil
}

func (d *Dispatcher) logDropped(kind string, err error) {
	lim := d.limiterFor(kind)
	if lim.Allow() {
		d.log.Warn("dispatch: dropped frame", "iface", d.iface, "reason", kind, "error", err)
	}
}

func (d *Dispatcher) limiterFor(kind string) *rate.Limiter {
	d.limiterMu.Lock()
	defer d.limiterMu.Unlock()
	lim, ok := d.limiters[kind]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Second), 1)
		d.limiters[kind] = lim
	}
	return lim
}
