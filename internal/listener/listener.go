// Package listener maps IDP destination sockets to registered Listener
// implementations: well-known assignments made at startup and ephemeral
// ones allocated on demand (SPP acceptors, Courier sessions). Grounded
// on probing's manager/worker split: an atomic running flag gates
// whether Add also starts the listener immediately.
package listener

import (
	"github.com/xnsstack/xnsd/internal/wire"
)

type State int

const (
	StateNew State = iota
	StateInitialized
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Datagram is one IDP payload delivered to a listener, with enough of
// the originating header left intact for the listener to reply.
type Datagram struct {
	SrcNet     wire.Net
	SrcHost    wire.Host
	SrcSocket  wire.Socket
	DstSocket  wire.Socket
	PacketType wire.PacketType
	Payload    []byte
}

// TransmitFunc sends payload as a complete IDP datagram of the given
// packet type to the given destination; the dispatcher supplies the
// concrete implementation (source MAC, checksum, padding).
type TransmitFunc func(dstNet wire.Net, dstHost wire.Host, dstSocket, srcSocket wire.Socket, packetType wire.PacketType, payload []byte) error

// Handles is the capability set passed to Listener.Init: a transmit
// path and a handle back to the registry so acceptor-style listeners
// (SPP, Courier) can allocate ephemeral sockets and register new
// listeners for accepted connections.
type Handles struct {
	Transmit TransmitFunc
	Registry *Registry
}

// Listener is the contract every socket handler implements.
type Listener interface {
	Socket() wire.Socket
	Name() string
	State() State
	Init(h Handles) error
	Start() error
	Stop() error
	Handle(dg Datagram)
}

const (
	minWellKnown   = 1
	maxWellKnown   = wire.MaxWellKnownSocket
	minEphemeral   = wire.MinEphemeralSocket
	maxEphemeral   = 65535
	ephemeralSpace = maxEphemeral - minEphemeral + 1
)
