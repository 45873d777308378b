// Package netdriver defines the narrow byte-level Ethernet driver
// interface the core depends on; concrete collaborators live
// in the rawsock and pcapdriver subpackages.
package netdriver

import (
	"errors"
	"time"
)

// ErrWouldBlock is returned by Receive when no frame is currently
// available (a non-blocking poll outcome, not an error condition).
var ErrWouldBlock = errors.New("netdriver: would block")

// ErrTimeout is returned by Select when no frame becomes readable before
// the timeout elapses.
var ErrTimeout = errors.New("netdriver: select timeout")

// Driver is the narrow interface the core calls: open,
// select(timeout), transmit(bytes), receive(bytes)->(len,timestamp),
// discard, close.
type Driver interface {
	// Select blocks up to timeout for readability, or returns ErrTimeout.
	Select(timeout time.Duration) error

	// Receive reads one frame into buf, returning its length and receipt
	// timestamp, or ErrWouldBlock if none is currently queued.
	Receive(buf []byte) (n int, timestamp time.Time, err error)

	// Transmit writes exactly one complete Ethernet frame (the caller has
	// already filled in the source MAC — header-complete mode).
	Transmit(frame []byte) (int, error)

	// Discard purges any buffered pending reads; called once at startup.
	Discard() error

	// LocalAddress returns the driver's bound device Ethernet address.
	LocalAddress() (mac [6]byte, err error)

	// Close releases the underlying socket/handle.
	Close() error
}
