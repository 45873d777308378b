// Command xnsdump is a read-only diagnostic frame dumper: it captures
// Ethernet frames on one interface, decodes every XNS layer it
// recognizes, and prints one line per frame. It never transmits.
// Grounded on tools/uping's small-CLI convention (spf13/pflag,
// signal.NotifyContext) and the original xnsDump tool's per-layer
// decode-then-log dump loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/xnsstack/xnsd/internal/idp"
	"github.com/xnsstack/xnsd/internal/netdriver"
	"github.com/xnsstack/xnsd/internal/netdriver/pcapdriver"
	"github.com/xnsstack/xnsd/internal/netdriver/rawsock"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

func main() {
	var (
		iface   string
		backend string
		verbose bool
	)
	pflag.StringVarP(&iface, "iface", "i", "", "interface to capture on (required)")
	pflag.StringVarP(&backend, "capture-backend", "b", "raw", "frame capture backend: raw or pcap")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if iface == "" {
		fmt.Fprintln(os.Stderr, "error: --iface is required")
		pflag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	driver, err := openDriver(backend, iface)
	if err != nil {
		log.Error("xnsdump: open driver", "backend", backend, "error", err)
		os.Exit(1)
	}
	defer driver.Close()
	if err := driver.Discard(); err != nil {
		log.Warn("xnsdump: discard at startup", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("xnsdump: capturing", "iface", iface, "backend", backend)
	if err := run(ctx, driver); err != nil {
		log.Error("xnsdump: exited with error", "error", err)
		os.Exit(1)
	}
}

func openDriver(backend, iface string) (netdriver.Driver, error) {
	switch backend {
	case "raw", "":
		return rawsock.Open(rawsock.Config{Interface: iface})
	case "pcap":
		return pcapdriver.Open(pcapdriver.Config{Device: iface, Promisc: true})
	default:
		return nil, fmt.Errorf("xnsdump: unknown capture backend %q", backend)
	}
}

func run(ctx context.Context, driver netdriver.Driver) error {
	buf := make([]byte, 1600)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := driver.Select(1_000_000_000); err != nil {
			if errors.Is(err, netdriver.ErrTimeout) {
				continue
			}
			return err
		}
		for {
			n, ts, err := driver.Receive(buf)
			if err != nil {
				if errors.Is(err, netdriver.ErrWouldBlock) {
					break
				}
				return err
			}
			dumpFrame(ts.Format("2006-01-02 15:04:05.000"), buf[:n])
		}
	}
}

func dumpFrame(timestamp string, frame []byte) {
	_, hdr, payload, err := idp.DecodeFrame(frame)
	if err != nil {
		fmt.Printf("%s  ???   decode error: %v\n", timestamp, err)
		return
	}

	header := fmt.Sprintf("%s  %s->%s  type=%d", timestamp, hdr.SrcHost, hdr.DstHost, hdr.Type)
	c := codec.New(payload)

	switch hdr.Type {
	case wire.PacketTypeRIP:
		v, err := wire.DecodeRIP(c)
		printLayer(header, "RIP", v, err)
	case wire.PacketTypeEcho:
		v, err := wire.DecodeEcho(c)
		printLayer(header, "ECHO", v, err)
	case wire.PacketTypeError:
		v, err := wire.DecodeError(c)
		printLayer(header, "ERROR", v, err)
	case wire.PacketTypePEX:
		v, err := wire.DecodePEX(c)
		printLayer(header, "PEX", v, err)
	case wire.PacketTypeSPP:
		v, err := wire.DecodeSPP(c)
		printLayer(header, "SPP", v, err)
	case wire.PacketTypeBoot:
		v, err := wire.DecodeBoot(c)
		printLayer(header, "BOOT", v, err)
	default:
		fmt.Printf("%s  ???   %d bytes\n", header, len(payload))
	}
}

func printLayer(header, name string, v any, err error) {
	if err != nil {
		fmt.Printf("%s  %-5s decode error: %v\n", header, name, err)
		return
	}
	fmt.Printf("%s  %-5s %+v\n", header, name, v)
}
