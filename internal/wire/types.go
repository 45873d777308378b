// Package wire defines the on-wire record types of the XNS protocol
// family and their codec glue over internal/wire/codec.Cursor. Every
// type here follows the same two-operation contract: Decode(cursor)
// and Encode(cursor), matching this codebase's fixed-layout
// Marshal/Unmarshal record style.
package wire

import (
	"fmt"

	"github.com/xnsstack/xnsd/internal/wire/codec"
)

// Net is a 32-bit XNS network number. Zero means unknown, all-ones means
// every network.
type Net uint32

const (
	NetUnknown Net = 0
	NetAll     Net = 0xFFFFFFFF
)

func (n Net) String() string { return fmt.Sprintf("%08x", uint32(n)) }

// Host is a 48-bit XNS host address (an Ethernet MAC in practice). Zero
// means unknown, all-ones means broadcast.
type Host uint64

const (
	HostUnknown Host = 0
	HostAll     Host = 0xFFFFFFFFFFFF
)

func (h Host) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		byte(h>>40), byte(h>>32), byte(h>>24), byte(h>>16), byte(h>>8), byte(h))
}

func (h Host) IsBroadcast() bool { return h == HostAll }

func ReadHost(c *codec.Cursor) (Host, error) {
	v, err := c.ReadU48()
	return Host(v), err
}

func WriteHost(c *codec.Cursor, h Host) error {
	return c.WriteU48(uint64(h))
}

// Socket is a 16-bit XNS socket number. 1..3000 are well-known; ephemeral
// allocation draws from 3001..65535.
type Socket uint16

const (
	SocketRIP       Socket = 1
	SocketEcho      Socket = 2
	SocketError     Socket = 3
	SocketEnvoy     Socket = 4
	SocketCourier   Socket = 5
	SocketCHSOld    Socket = 7
	SocketTime      Socket = 8
	SocketBoot      Socket = 10
	SocketDiag      Socket = 19
	SocketCHS       Socket = 20
	SocketAuth      Socket = 21
	SocketMail      Socket = 22
	SocketNetExec   Socket = 23
	SocketWSInfo    Socket = 24
	SocketBinding   Socket = 28
	SocketGerm      Socket = 35
	SocketTeledebug Socket = 48

	MaxWellKnownSocket Socket = 3000
	MinEphemeralSocket Socket = 3001
)

func (s Socket) IsWellKnown() bool { return s >= 1 && s <= MaxWellKnownSocket }

func (s Socket) String() string { return fmt.Sprintf("%d", uint16(s)) }
