// Package pcapdriver implements netdriver.Driver over a live libpcap
// capture handle, as an alternative to rawsock for platforms or
// deployments where AF_PACKET sockets aren't available or a BPF
// filter expressed as pcap syntax is preferred. Grounded on
// telemetry/flow-enricher's PcapFlowConsumer, which drives the same
// gopacket/pcap package against an offline file; this driver opens a
// live handle instead and adds the Select/Transmit halves the
// dispatcher's driver contract requires.
package pcapdriver

import (
	"fmt"
	"time"

	"github.com/gopacket/gopacket/pcap"

	"github.com/xnsstack/xnsd/internal/netdriver"
)

const snaplen = 1600

// Config binds the driver to one capture device and an XNS-only BPF
// filter, so frames belonging to other protocols are dropped by the
// kernel before reaching userspace.
type Config struct {
	Device  string
	Promisc bool
}

type Driver struct {
	handle *pcap.Handle
	mac    [6]byte
}

func Open(cfg Config) (*Driver, error) {
	handle, err := pcap.OpenLive(cfg.Device, snaplen, cfg.Promisc, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("pcapdriver: open live %q: %w", cfg.Device, err)
	}
	if err := handle.SetBPFFilter("ether proto 0x0600"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("pcapdriver: set filter: %w", err)
	}
	mac, err := deviceMAC(cfg.Device)
	if err != nil {
		handle.Close()
		return nil, err
	}
	return &Driver{handle: handle, mac: mac}, nil
}

// Select does not wait itself: it sets the handle's read timeout and
// returns, so the wait of up to timeout happens inside Receive's
// ZeroCopyReadPacketData rather than in a separate poll loop —
// gopacket/pcap has no fd to hand to unix.Poll portably.
func (d *Driver) Select(timeout time.Duration) error {
	if err := d.handle.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("pcapdriver: set read timeout: %w", err)
	}
	return nil
}

func (d *Driver) Receive(buf []byte) (int, time.Time, error) {
	data, ci, err := d.handle.ZeroCopyReadPacketData()
	if err != nil {
		if err == pcap.NextErrorTimeoutExpired {
			return 0, ci.Timestamp, netdriver.ErrWouldBlock
		}
		return 0, time.Now(), fmt.Errorf("pcapdriver: read: %w", err)
	}
	n := copy(buf, data)
	return n, ci.Timestamp, nil
}

func (d *Driver) Transmit(frame []byte) (int, error) {
	if err := d.handle.WritePacketData(frame); err != nil {
		return 0, fmt.Errorf("pcapdriver: write: %w", err)
	}
	return len(frame), nil
}

// Discard is a no-op: pcap's live handle has no pre-open backlog to
// flush the way a raw socket inherited from before process start would.
func (d *Driver) Discard() error { return nil }

func (d *Driver) LocalAddress() ([6]byte, error) { return d.mac, nil }

func (d *Driver) Close() error {
	d.handle.Close()
	return nil
}
