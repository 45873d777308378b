// Command xnsd runs the XNS protocol stack: RIP, Echo, Time and
// Clearinghouse responders plus the Courier/SPP framer, over one
// Ethernet interface. Grounded on cmd/doublezerod/main.go's flag +
// log/slog + signal.NotifyContext startup sequence.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xnsstack/xnsd/internal/handlers/chs"
	"github.com/xnsstack/xnsd/internal/netdriver"
	"github.com/xnsstack/xnsd/internal/netdriver/pcapdriver"
	"github.com/xnsstack/xnsd/internal/netdriver/rawsock"
	"github.com/xnsstack/xnsd/internal/server"
	"github.com/xnsstack/xnsd/internal/xnsconfig"
)

var (
	configPath     = flag.String("config", "/etc/xnsd/config.json", "path to the JSON configuration file")
	captureBackend = flag.String("capture-backend", "raw", "frame capture backend: raw or pcap")
	verbose        = flag.Bool("v", false, "enable debug logging")
	jsonLogs       = flag.Bool("json-logs", false, "emit JSON logs instead of the console format")
	metricsAddr    = flag.String("metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")

	version = "dev"
	commit  = "none"
)

func main() {
	flag.Parse()
	log := newLogger(*verbose, *jsonLogs)

	cfg, err := xnsconfig.Load(*configPath)
	if err != nil {
		log.Error("xnsd: load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("xnsd: invalid config", "error", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		serveMetrics(log, *metricsAddr)
	}

	driver, err := openDriver(*captureBackend, cfg.Interface())
	if err != nil {
		log.Error("xnsd: open driver", "backend", *captureBackend, "error", err)
		os.Exit(1)
	}
	defer driver.Close()

	srv, err := server.New(server.Config{
		Log:    log,
		Iface:  cfg.Interface(),
		Driver: driver,
		XNS:    cfg,
		CHS:    defaultClearinghouse(),
	})
	if err != nil {
		log.Error("xnsd: construct server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("xnsd: starting", "iface", cfg.Interface(), "backend", *captureBackend, "version", version)
	if err := srv.Run(ctx); err != nil {
		log.Error("xnsd: server exited with error", "error", err)
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
		return nil, fmt.Errorf("xnsd: unknown capture backend %q", backend)
	}
}

// defaultClearinghouse returns an empty directory: a deployment wires
// its own entries by replacing this with config-loaded records. Kept
// non-nil so the Clearinghouse responder is always exercised.
func defaultClearinghouse() *chs.Directory {
	return chs.NewDirectory(nil)
}

func newLogger(verbose, jsonLogs bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}))
}

func serveMetrics(log *slog.Logger, addr string) {
	buildInfo := promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xnsd_build_info",
		Help: "Build information of xnsd.",
	}, []string{"version", "commit"})
	buildInfo.WithLabelValues(version, commit).Set(1)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("xnsd: metrics listener", "addr", addr, "error", err)
		os.Exit(1)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info("xnsd: metrics server started", "addr", ln.Addr().String())
		if err := http.Serve(ln, mux); err != nil {
			log.Error("xnsd: metrics server stopped", "error", err)
		}
	}()
}
