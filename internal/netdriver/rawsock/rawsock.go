//go:build linux

// Package rawsock implements netdriver.Driver over an AF_PACKET raw
// socket bound to one Ethernet interface. Grounded on
// tools/uping/pkg/uping/listener.go's raw-socket lifecycle: a
// nonblocking fd, unix.Poll against an eventfd for cancellation, and a
// manually-built frame header (there: IPv4 HDRINCL; here: the Ethernet
// header itself, since XNS sits directly on Ethernet rather than IP).
package rawsock

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xnsstack/xnsd/internal/netdriver"
)

// EtherTypeXNS matches wire.EtherTypeXNS; duplicated as an untyped
// constant here to keep this package's only internal dependency on
// golang.org/x/sys/unix, not on the wire package.
const etherTypeXNS = 0x0600

// Config binds the raw driver to one kernel interface.
type Config struct {
	Interface string
	// BPFProgram, if non-nil, is attached via SO_ATTACH_FILTER to
	// restrict captured frames to EtherType 0x0600 (XNS) before they
	// reach userspace.
	BPFProgram []unix.SockFilter
}

type Driver struct {
	cfg     Config
	iface   *net.Interface
	fd      int
	efd     int
	closeCh chan struct{}
}

// Open binds a raw AF_PACKET socket to cfg.Interface, filtering for
// EtherType 0x0600 frames only.
func Open(cfg Config) (*Driver, error) {
	ifi, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("rawsock: lookup interface %q: %w", cfg.Interface, err)
	}

	proto := htons(etherTypeXNS)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(proto))
	if err != nil {
		return nil, fmt.Errorf("rawsock: socket: %w", err)
	}

	sa := &unix.SockaddrLinklayer{Protocol: proto, Ifindex: ifi.Index}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: bind %q: %w", cfg.Interface, err)
	}

	if len(cfg.BPFProgram) > 0 {
		prog := unix.SockFprog{
			Len:    uint16(len(cfg.BPFProgram)),
			Filter: &cfg.BPFProgram[0],
		}
		if err := unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &prog); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("rawsock: attach filter: %w", err)
		}
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: set nonblock: %w", err)
	}

	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: eventfd: %w", err)
	}

	return &Driver{cfg: cfg, iface: ifi, fd: fd, efd: efd, closeCh: make(chan struct{})}, nil
}

func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.LittleEndian.Uint16(b[:])
}

func (d *Driver) Select(timeout time.Duration) error {
	ms := int(timeout / time.Millisecond)
	if ms <= 0 {
		ms = 0
	}
	pfds := []unix.PollFd{
		{Fd: int32(d.fd), Events: unix.POLLIN},
		{Fd: int32(d.efd), Events: unix.POLLIN},
	}
	for {
		n, err := unix.Poll(pfds, ms)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("rawsock: poll: %w", err)
		}
		if pfds[1].Revents&unix.POLLIN != 0 {
			return netdriver.ErrTimeout // woken for shutdown; caller checks its own stop flag
		}
		if n == 0 {
			return netdriver.ErrTimeout
		}
		if pfds[0].Revents&(unix.POLLIN|unix.POLLERR) != 0 {
			return nil
		}
		return netdriver.ErrTimeout
	}
}

func (d *Driver) Receive(buf []byte) (int, time.Time, error) {
	n, _, err := unix.Recvfrom(d.fd, buf, 0)
	now := time.Now()
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, now, netdriver.ErrWouldBlock
		}
		return 0, now, fmt.Errorf("rawsock: recvfrom: %w", err)
	}
	return n, now, nil
}

func (d *Driver) Transmit(frame []byte) (int, error) {
	sa := &unix.SockaddrLinklayer{Ifindex: d.iface.Index, Halen: 6}
	if err := unix.Sendto(d.fd, frame, 0, sa); err != nil {
		return 0, fmt.Errorf("rawsock: sendto: %w", err)
	}
	return len(frame), nil
}

// Discard drains any frames already queued in the socket buffer at
// startup, mirroring the driver contract's discard().
func (d *Driver) Discard() error {
	buf := make([]byte, 65535)
	for {
		_, _, err := unix.Recvfrom(d.fd, buf, unix.MSG_DONTWAIT)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return nil
			}
			return fmt.Errorf("rawsock: discard: %w", err)
		}
	}
}

func (d *Driver) LocalAddress() ([6]byte, error) {
	var mac [6]byte
	copy(mac[:], d.iface.HardwareAddr)
	return mac, nil
}

// Close unblocks any in-flight Select via the eventfd and releases the
// socket.
func (d *Driver) Close() error {
	var one [8]byte
	binary.LittleEndian.PutUint64(one[:], 1)
	_, _ = unix.Write(d.efd, one[:])
	unix.Close(d.efd)
	return unix.Close(d.fd)
}
