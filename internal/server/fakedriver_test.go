package server

import (
	"time"

	"github.com/xnsstack/xnsd/internal/netdriver"
)

// fakeDriver is an in-memory netdriver.Driver: injected frames are
// delivered through Select/Receive, and transmitted frames are captured
// for assertions. It never touches a real socket.
type fakeDriver struct {
	mac    [6]byte
	rx     chan []byte
	tx     chan []byte
	done   chan struct{}
	peeked []byte
}

func newFakeDriver(mac [6]byte) *fakeDriver {
	return &fakeDriver{
		mac:  mac,
		rx:   make(chan []byte, 16),
		tx:   make(chan []byte, 16),
		done: make(chan struct{}),
	}
}

func (f *fakeDriver) inject(frame []byte) {
	select {
	case f.rx <- frame:
	case <-f.done:
	}
}

func (f *fakeDriver) Select(timeout time.Duration) error {
	select {
	case <-f.done:
		return netdriver.ErrTimeout
	default:
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case frame := <-f.rx:
		// Peek-then-push-back: Receive expects to pull from the same
		// channel, so stash it on a one-slot buffer.
		f.peeked = frame
		return nil
	case <-t.C:
		return netdriver.ErrTimeout
	case <-f.done:
		return netdriver.ErrTimeout
	}
}

func (f *fakeDriver) Receive(buf []byte) (int, time.Time, error) {
	if f.peeked != nil {
		n := copy(buf, f.peeked)
		f.peeked = nil
		return n, time.Now(), nil
	}
	select {
	case frame := <-f.rx:
		n := copy(buf, frame)
		return n, time.Now(), nil
	default:
		return 0, time.Now(), netdriver.ErrWouldBlock
	}
}

func (f *fakeDriver) Transmit(frame []byte) (int, error) {
	cp := append([]byte(nil), frame...)
	select {
	case f.tx <- cp:
	default:
	}
	return len(frame), nil
}

func (f *fakeDriver) Discard() error { return nil }

func (f *fakeDriver) LocalAddress() ([6]byte, error) { return f.mac, nil }

func (f *fakeDriver) Close() error {
	close(f.done)
	return nil
}
