package listener

import (
	"sync/atomic"

	"github.com/xnsstack/xnsd/internal/wire"
)

// Base provides the socket/name/state bookkeeping common to every
// Listener implementation; handlers embed it and implement Init,
// Start, Stop and Handle themselves.
type Base struct {
	socket wire.Socket
	name   string
	state  atomic.Int32
}

// NewBase constructs a Base in StateNew for the given socket and name.
func NewBase(socket wire.Socket, name string) Base {
	return Base{socket: socket, name: name}
}

func (b *Base) Socket() wire.Socket { return b.socket }
func (b *Base) Name() string        { return b.name }
func (b *Base) State() State        { return State(b.state.Load()) }
func (b *Base) setState(s State)    { b.state.Store(int32(s)) }

// SetInitialized, SetStarted, and SetStopped record lifecycle
// transitions; callers invoke them from their own Init/Start/Stop once
// the real setup/teardown work succeeds.
func (b *Base) SetInitialized() { b.setState(StateInitialized) }
func (b *Base) SetStarted()     { b.setState(StateStarted) }
func (b *Base) SetStopped()     { b.setState(StateStopped) }
