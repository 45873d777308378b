// Package spp implements the Sequenced Packet Protocol connection
// engine: a reliable, in-order, flow-controlled byte-stream-with-record-
// marks over unreliable IDP. Grounded on internal/liveness/session.go's
// per-entity mutex-guarded state struct with explicit transition
// methods, and internal/probing/scheduler.go + worker.go's timer-driven
// retry loop — here narrowed to one goroutine per connection driving
// its own retransmit/delayed-ack timers instead of a shared scheduler,
// since each SPP connection already serializes its own state.
package spp

import (
	"time"

	"github.com/xnsstack/xnsd/internal/wire"
)

const (
	// DefaultWindowSize bounds how many unacknowledged packets the
	// connection's acceptor advertises initially via alloc.
	DefaultWindowSize = 8

	// MaxPayload is the largest SPP data payload per packet: 506 octets
	// of IDP payload minus the 12-octet SPP header leaves room under a
	// conservative 512-octet ceiling many XNS stacks assumed.
	MaxPayload = 506 - wire.SPPHeaderLength

	// AckEveryN sets SEND-ACK on every Nth outgoing data packet.
	AckEveryN = 4

	// DelayedAckInterval is the maximum time data may sit unacknowledged
	// before an ACK-only packet is sent anyway.
	DelayedAckInterval = 200 * time.Millisecond

	// InitialRTO and MaxRTO bound the retransmit backoff curve.
	InitialRTO = 500 * time.Millisecond
	MaxRTO     = 4 * time.Second

	// RetransmitAbort is the total unacknowledged duration after which a
	// connection is aborted.
	RetransmitAbort = 30 * time.Second

	// IdleTimeout destroys a connection that has seen no traffic at all.
	IdleTimeout = 600 * time.Second

	// closeTimeout bounds how long a closer waits for a close-reply.
	closeTimeout = 30 * time.Second

	// inboxCapacity matches the concurrency model's "window size + 4"
	// bound on a connection's incoming datagram queue.
	inboxCapacity = DefaultWindowSize + 4
)

// connKey identifies a connection in the acceptor's accept table: by the
// remote endpoint and both connection-ids.
type connKey struct {
	remoteHost   wire.Host
	remoteConnID uint16
	localConnID  uint16
}
