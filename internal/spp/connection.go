package spp

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

type outRecord struct {
	data      []byte
	endRecord bool
}

type pendingPacket struct {
	pkt          wire.SPP
	firstSentAt  time.Time
	nextDeadline time.Time
	bo           *backoff.ExponentialBackOff
}

func newPendingPacket(pkt wire.SPP) *pendingPacket {
	bo := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(InitialRTO),
		backoff.WithMultiplier(2.0),
		backoff.WithMaxInterval(MaxRTO),
		backoff.WithMaxElapsedTime(RetransmitAbort),
		backoff.WithRandomizationFactor(0),
	)
	now := time.Now()
	return &pendingPacket{pkt: pkt, firstSentAt: now, nextDeadline: now.Add(bo.NextBackOff()), bo: bo}
}

// Connection is one SPP connection's serializing task: all receive-side
// bookkeeping, retransmit timing, and application sends happen inside
// its run goroutine, reachable only through the channels below.
type Connection struct {
	listener.Base
	log *slog.Logger

	localNet     wire.Net
	remoteNet    wire.Net
	remoteHost   wire.Host
	remoteSocket wire.Socket
	remoteConnID uint16
	localConnID  uint16

	transmit listener.TransmitFunc
	onClose  func(*Connection)

	inbox    chan listener.Datagram
	wakeCh   chan struct{}
	notifyCh chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
	started  bool

	mu           sync.Mutex
	sendSeq      uint16
	recvSeq      uint16
	sendWindowLo uint16
	sendWindowHi uint16
	recvAlloc    uint16
	curSST       wire.SST

	reorder    map[uint16][]byte
	reorderEOM map[uint16]bool
	reorderSST map[uint16]wire.SST
	retransmit map[uint16]*pendingPacket
	outQueue   []outRecord
	deliveryQ  []deliverable
	sendCount  int

	sinceDataNoAck bool
	lastDataAt     time.Time

	closeSent      bool
	closeQueued    bool
	closeSentAt    time.Time
	peerClosed     bool
	peerAckedClose bool
	shouldTeardown bool
}

type connConfig struct {
	socket       wire.Socket
	localConnID  uint16
	localNet     wire.Net
	remoteNet    wire.Net
	remoteHost   wire.Host
	remoteSocket wire.Socket
	remoteConnID uint16
	onClose      func(*Connection)
	log          *slog.Logger
}

func newConnection(cfg connConfig) *Connection {
	return &Connection{
		Base:         listener.NewBase(cfg.socket, "spp-connection"),
		log:          cfg.log,
		localNet:     cfg.localNet,
		remoteNet:    cfg.remoteNet,
		remoteHost:   cfg.remoteHost,
		remoteSocket: cfg.remoteSocket,
		remoteConnID: cfg.remoteConnID,
		localConnID:  cfg.localConnID,
		onClose:      cfg.onClose,
		inbox:        make(chan listener.Datagram, inboxCapacity),
		wakeCh:       make(chan struct{}, 1),
		notifyCh:     make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		reorder:      make(map[uint16][]byte),
		reorderEOM:   make(map[uint16]bool),
		reorderSST:   make(map[uint16]wire.SST),
		retransmit:   make(map[uint16]*pendingPacket),
		curSST:       wire.SSTCourier,
	}
}

func (c *Connection) Init(h listener.Handles) error {
	c.transmit = h.Transmit
	c.Base.SetInitialized()
	return nil
}

func (c *Connection) Start() error {
	if !c.started {
		c.started = true
		go c.run()
	}
	c.Base.SetStarted()
	return nil
}

func (c *Connection) Stop() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.started {
		<-c.doneCh
	}
	c.Base.SetStopped()
	return nil
}

// Done returns a channel closed once the connection's run loop has
// exited, for a consumer goroutine (e.g. RunStreamed) that needs to
// stop reading when the connection tears down on its own.
func (c *Connection) Done() <-chan struct{} {
	return c.doneCh
}

// Identity returns a string unique to this connection's endpoint pair,
// suitable as a Sessions table key.
func (c *Connection) Identity() string {
	return fmt.Sprintf("%d/%d/%d", c.remoteHost, c.remoteConnID, c.localConnID)
}

// Handle is called on the dispatcher task; it only enqueues, honoring
// the contract that listeners doing real work must hand off quickly.
func (c *Connection) Handle(dg listener.Datagram) {
	select {
	case c.inbox <- dg:
	default:
		c.log.Warn("spp: inbox full, dropping datagram", "socket", c.Socket())
	}
}

func (c *Connection) wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
}

// Put enqueues data for transmission as (part of) one application
// record; endRecord marks the SPP end-of-message boundary. Non-blocking.
func (c *Connection) Put(data []byte, endRecord bool) {
	c.mu.Lock()
	c.outQueue = append(c.outQueue, outRecord{data: data, endRecord: endRecord})
	c.mu.Unlock()
	c.wake()
}

// Notify returns a channel that receives a value whenever Get has
// something new to return, for a consumer that wants to block instead
// of polling.
func (c *Connection) Notify() <-chan struct{} {
	return c.notifyCh
}

// Get returns the next delivered event, or EventNone if nothing is
// pending. Non-blocking.
func (c *Connection) Get() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.deliveryQ) == 0 {
		return Event{Kind: EventNone}
	}
	ev := c.deliveryQ[0].event
	c.deliveryQ = c.deliveryQ[1:]
	return ev
}

// AcceptSST resumes delivery after an EventSSTChange by rebinding the
// connection to the new sub-system type.
func (c *Connection) AcceptSST(sst wire.SST) {
	c.mu.Lock()
	c.curSST = sst
	c.advanceDeliveryLocked()
	c.mu.Unlock()
	c.wake()
}

// Close begins the graceful close handshake; non-blocking.
func (c *Connection) Close() {
	c.mu.Lock()
	if !c.closeSent {
		c.closeSent = true
		c.closeSentAt = time.Now()
	}
	c.mu.Unlock()
	c.wake()
}

func (c *Connection) run() {
	defer close(c.doneCh)

	idleTimer := time.NewTimer(IdleTimeout)
	retransmitTimer := time.NewTimer(time.Hour)
	ackTimer := time.NewTimer(time.Hour)
	defer idleTimer.Stop()
	defer retransmitTimer.Stop()
	defer ackTimer.Stop()

	for {
		select {
		case dg := <-c.inbox:
			c.handleInbound(dg)
			drainTimer(idleTimer)
			idleTimer.Reset(IdleTimeout)
		case <-c.wakeCh:
		case <-retransmitTimer.C:
			if abort := c.checkRetransmits(); abort {
				c.teardown("retransmit_timeout")
				return
			}
		case <-ackTimer.C:
			c.maybeSendDelayedAck()
		case <-idleTimer.C:
			c.teardown("idle_timeout")
			return
		case <-c.stopCh:
			c.teardown("stopped")
			return
		}

		c.trySend()
		c.rearmTimers(retransmitTimer, ackTimer)

		if c.isFullyClosed() {
			c.teardown("closed")
			return
		}
	}
}

func drainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (c *Connection) handleInbound(dg listener.Datagram) {
	pkt, err := wire.DecodeSPP(codec.New(dg.Payload))
	if err != nil {
		c.log.Warn("spp: dropping malformed packet", "socket", c.Socket(), "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.updateSendWindowLocked(pkt.Ack, pkt.Alloc)

	if pkt.IsAttention() {
		c.deliverLocked(Event{Kind: EventAttention, Data: append([]byte(nil), pkt.Data...)}, true)
		return
	}

	if !pkt.IsData() {
		if pkt.IsSendAck() {
			c.sendAckLocked()
		}
		return
	}

	if wire.SeqLess(pkt.Seq, c.recvSeq) {
		metricDuplicatesReceived.Inc()
		c.sendAckLocked()
		return
	}
	if wire.SeqLess(c.recvAlloc, pkt.Seq) {
		metricOutOfWindow.Inc()
		return
	}

	c.reorder[pkt.Seq] = pkt.Data
	c.reorderEOM[pkt.Seq] = pkt.IsEndOfMessage()
	c.reorderSST[pkt.Seq] = pkt.SST
	c.advanceDeliveryLocked()

	if pkt.IsSendAck() {
		c.sendAckLocked()
	} else {
		c.sinceDataNoAck = true
		c.lastDataAt = time.Now()
	}
}

// advanceDeliveryLocked delivers every contiguously-filled reorder slot
// starting at recvSeq, freeing each slot as it's consumed (which raises
// recvAlloc) and stopping at a sub-system-type change until the
// application rebinds via AcceptSST.
func (c *Connection) advanceDeliveryLocked() {
	for {
		data, ok := c.reorder[c.recvSeq]
		if !ok {
			return
		}
		sst := c.reorderSST[c.recvSeq]
		eom := c.reorderEOM[c.recvSeq]

		if sst != c.curSST && sst != wire.SSTClose && sst != wire.SSTCloseReply {
			c.deliverLocked(Event{Kind: EventSSTChange, SST: sst}, false)
			return
		}

		c.clearReorderSlotLocked(c.recvSeq)
		c.recvSeq++
		c.recvAlloc++

		switch sst {
		case wire.SSTClose:
			c.sendCloseReplyLocked()
			c.deliverLocked(Event{Kind: EventEOS}, false)
			c.peerClosed = true
			c.shouldTeardown = true
			return
		case wire.SSTCloseReply:
			c.peerAckedClose = true
			continue
		}

		if len(data) > 0 {
			c.deliverLocked(Event{Kind: EventData, Data: data}, false)
		}
		if eom {
			c.deliverLocked(Event{Kind: EventRecordEnd}, false)
		}
	}
}

func (c *Connection) clearReorderSlotLocked(seq uint16) {
	delete(c.reorder, seq)
	delete(c.reorderEOM, seq)
	delete(c.reorderSST, seq)
}

func (c *Connection) deliverLocked(ev Event, urgent bool) {
	if urgent {
		c.deliveryQ = append([]deliverable{{event: ev}}, c.deliveryQ...)
	} else {
		c.deliveryQ = append(c.deliveryQ, deliverable{event: ev})
	}
	select {
	case c.notifyCh <- struct{}{}:
	default:
	}
}

func (c *Connection) updateSendWindowLocked(ack, alloc uint16) {
	for seq := range c.retransmit {
		if wire.SeqLE(seq, ack) {
			delete(c.retransmit, seq)
		}
	}
	if wire.SeqLess(c.sendWindowLo, ack+1) {
		c.sendWindowLo = ack + 1
	}
	c.sendWindowHi = alloc
}

func (c *Connection) sendAckLocked() {
	pkt := wire.SPP{
		Control:   wire.SPPBitSystem,
		SST:       c.curSST,
		SrcConnID: c.localConnID,
		DstConnID: c.remoteConnID,
		Seq:       c.sendSeq,
		Ack:       c.recvSeq,
		Alloc:     c.recvAlloc,
	}
	c.transmitPacketLocked(pkt)
	c.sinceDataNoAck = false
}

func (c *Connection) sendCloseReplyLocked() {
	pkt := wire.SPP{
		SST:       wire.SSTCloseReply,
		SrcConnID: c.localConnID,
		DstConnID: c.remoteConnID,
		Seq:       c.sendSeq,
		Ack:       c.recvSeq,
		Alloc:     c.recvAlloc,
	}
	c.sendSeq++
	c.transmitPacketLocked(pkt)
}

func (c *Connection) transmitPacketLocked(pkt wire.SPP) {
	buf := make([]byte, 0, wire.SPPHeaderLength+len(pkt.Data))
	w := codec.NewWriter(buf)
	if err := wire.EncodeSPP(w, pkt); err != nil {
		c.log.Warn("spp: encode packet failed", "error", err)
		return
	}
	if err := c.transmit(c.remoteNet, c.remoteHost, c.remoteSocket, c.Socket(), wire.PacketTypeSPP, w.Bytes()); err != nil {
		c.log.Warn("spp: transmit failed", "error", err)
	}
}

// acceptInitial seeds receive state from the SYSTEM+SEND-ACK packet
// that opened this connection and replies with the matching SYSTEM ack.
func (c *Connection) acceptInitial(pkt wire.SPP) {
	c.mu.Lock()
	c.recvSeq = pkt.Seq
	c.recvAlloc = c.recvSeq + DefaultWindowSize - 1
	c.sendWindowHi = pkt.Alloc
	c.sendAckLocked()
	c.mu.Unlock()
}

func (c *Connection) trySend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closeSent && !c.closeQueued {
		if !wire.SeqLess(c.sendWindowHi, c.sendSeq) {
			pkt := wire.SPP{
				SST:       wire.SSTClose,
				SrcConnID: c.localConnID,
				DstConnID: c.remoteConnID,
				Seq:       c.sendSeq,
				Ack:       c.recvSeq,
				Alloc:     c.recvAlloc,
			}
			c.retransmit[c.sendSeq] = newPendingPacket(pkt)
			c.sendSeq++
			c.transmitPacketLocked(pkt)
			c.closeQueued = true
		}
	}

	for len(c.outQueue) > 0 {
		if wire.SeqLess(c.sendWindowHi, c.sendSeq) {
			break
		}
		rec := &c.outQueue[0]
		chunk := rec.data
		last := true
		if len(chunk) > MaxPayload {
			chunk = chunk[:MaxPayload]
			last = false
		}

		seq := c.sendSeq
		c.sendSeq++
		c.sendCount++

		var control uint8
		if last && rec.endRecord {
			control |= wire.SPPBitEndOfMessage
		}
		if c.sendCount%AckEveryN == 0 || (last && rec.endRecord) {
			control |= wire.SPPBitSendAck
		}

		pkt := wire.SPP{
			Control:   control,
			SST:       c.curSST,
			SrcConnID: c.localConnID,
			DstConnID: c.remoteConnID,
			Seq:       seq,
			Ack:       c.recvSeq,
			Alloc:     c.recvAlloc,
			Data:      append([]byte(nil), chunk...),
		}
		c.retransmit[seq] = newPendingPacket(pkt)
		c.transmitPacketLocked(pkt)

		if last {
			c.outQueue = c.outQueue[1:]
		} else {
			rec.data = rec.data[len(chunk):]
		}
	}
}

// checkRetransmits resends any packet whose RTO elapsed, reporting
// whether the connection should abort (some packet has gone
// unacknowledged for RetransmitAbort).
func (c *Connection) checkRetransmits() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, pp := range c.retransmit {
		if now.Before(pp.nextDeadline) {
			continue
		}
		if now.Sub(pp.firstSentAt) >= RetransmitAbort {
			return true
		}
		c.transmitPacketLocked(pp.pkt)
		metricPacketsRetransmitted.Inc()
		d := pp.bo.NextBackOff()
		if d == backoff.Stop {
			d = MaxRTO
		}
		pp.nextDeadline = now.Add(d)
	}
	return false
}

func (c *Connection) maybeSendDelayedAck() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sinceDataNoAck && time.Since(c.lastDataAt) >= DelayedAckInterval {
		c.sendAckLocked()
	}
}

func (c *Connection) rearmTimers(retransmitTimer, ackTimer *time.Timer) {
	c.mu.Lock()
	var earliestRT time.Time
	for _, pp := range c.retransmit {
		if earliestRT.IsZero() || pp.nextDeadline.Before(earliestRT) {
			earliestRT = pp.nextDeadline
		}
	}
	sinceDataNoAck := c.sinceDataNoAck
	lastDataAt := c.lastDataAt
	c.mu.Unlock()

	drainTimer(retransmitTimer)
	if earliestRT.IsZero() {
		retransmitTimer.Reset(time.Hour)
	} else if d := time.Until(earliestRT); d > 0 {
		retransmitTimer.Reset(d)
	} else {
		retransmitTimer.Reset(time.Millisecond)
	}

	drainTimer(ackTimer)
	if !sinceDataNoAck {
		ackTimer.Reset(time.Hour)
	} else if d := DelayedAckInterval - time.Since(lastDataAt); d > 0 {
		ackTimer.Reset(d)
	} else {
		ackTimer.Reset(time.Millisecond)
	}
}

func (c *Connection) isFullyClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shouldTeardown {
		return true
	}
	if c.closeSent && c.peerAckedClose {
		return true
	}
	if c.closeSent && !c.closeSentAt.IsZero() && time.Since(c.closeSentAt) > closeTimeout {
		return true
	}
	return false
}

func (c *Connection) teardown(reason string) {
	metricConnectionsClosed.WithLabelValues(reason).Inc()
	c.Base.SetStopped()
	if c.onClose != nil {
		c.onClose(c)
	}
}
