package listener

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

// Registry holds the process-wide socket→Listener map. It is frozen-ish
// in spirit but not in structure: SPP acceptors and Courier sessions add
// and remove ephemeral entries for the life of the server.
type Registry struct {
	transmit TransmitFunc

	mu        sync.Mutex
	listeners map[wire.Socket]Listener
	nextEph   wire.Socket

	running atomic.Bool
}

// NewRegistry constructs a registry bound to the dispatcher's transmit
// path. The registry is not running until Start is called; listeners
// added before Start are only Init'd, not Start'd.
func NewRegistry(transmit TransmitFunc) *Registry {
	return &Registry{
		transmit:  transmit,
		listeners: make(map[wire.Socket]Listener),
		nextEph:   wire.MinEphemeralSocket,
	}
}

// Add registers l at socket, failing if the socket is already in use.
// If the registry is running, l is also started immediately.
func (r *Registry) Add(socket wire.Socket, l Listener) error {
	r.mu.Lock()
	if _, exists := r.listeners[socket]; exists {
		r.mu.Unlock()
		return fmt.Errorf("listener: socket %d: %w", socket, xnserr.ErrSocketInUse)
	}
	r.listeners[socket] = l
	running := r.running.Load()
	r.mu.Unlock()

	if err := l.Init(Handles{Transmit: r.transmit, Registry: r}); err != nil {
		r.mu.Lock()
		delete(r.listeners, socket)
		r.mu.Unlock()
		return fmt.Errorf("listener: init socket %d: %w", socket, err)
	}
	if running {
		if err := l.Start(); err != nil {
			return fmt.Errorf("listener: start socket %d: %w", socket, err)
		}
	}
	return nil
}

// Remove stops l and, if autoDelete, drops it from the map.
func (r *Registry) Remove(socket wire.Socket, autoDelete bool) error {
	r.mu.Lock()
	l, exists := r.listeners[socket]
	r.mu.Unlock()
	if !exists {
		return nil
	}
	if err := l.Stop(); err != nil {
		return fmt.Errorf("listener: stop socket %d: %w", socket, err)
	}
	if autoDelete {
		r.mu.Lock()
		delete(r.listeners, socket)
		r.mu.Unlock()
	}
	return nil
}

// Delete drops socket from the map without calling Stop, for a listener
// tearing itself down that would otherwise deadlock waiting on its own
// Stop to return.
func (r *Registry) Delete(socket wire.Socket) {
	r.mu.Lock()
	delete(r.listeners, socket)
	r.mu.Unlock()
}

// Lookup returns the listener bound to socket, if any.
func (r *Registry) Lookup(socket wire.Socket) (Listener, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listeners[socket]
	return l, ok
}

// EphemeralSocket allocates an unused socket from 3001..65535 via a
// linear probe from a rolling counter, wrapping once.
func (r *Registry) EphemeralSocket() (wire.Socket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := r.nextEph
	for i := 0; i < int(ephemeralSpace); i++ {
		candidate := r.nextEph
		if r.nextEph == maxEphemeral {
			r.nextEph = minEphemeral
		} else {
			r.nextEph++
		}
		if _, exists := r.listeners[candidate]; !exists {
			return candidate, nil
		}
	}
	r.nextEph = start
	return 0, xnserr.ErrNoEphemeralSockets
}

// Start marks the registry running and starts every already-registered
// listener still in the Initialized state.
func (r *Registry) Start() error {
	r.running.Store(true)
	r.mu.Lock()
	snapshot := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		snapshot = append(snapshot, l)
	}
	r.mu.Unlock()

	for _, l := range snapshot {
		if l.State() == StateInitialized {
			if err := l.Start(); err != nil {
				return fmt.Errorf("listener: start socket %d: %w", l.Socket(), err)
			}
		}
	}
	return nil
}

// Stop marks the registry stopped and stops every registered listener.
func (r *Registry) Stop() error {
	r.running.Store(false)
	r.mu.Lock()
	snapshot := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		snapshot = append(snapshot, l)
	}
	r.mu.Unlock()

	var firstErr error
	for _, l := range snapshot {
		if err := l.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("listener: stop socket %d: %w", l.Socket(), err)
		}
	}
	return firstErr
}

// IsRunning reports whether Start has been called without a matching Stop.
func (r *Registry) IsRunning() bool { return r.running.Load() }
