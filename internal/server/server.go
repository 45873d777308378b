// Package server assembles the driver, dispatcher, listener registry,
// Courier service registry, and per-service responders into one
// runnable process, and owns its init→start→stop lifecycle. Grounded on
// cmd/doublezerod/main.go's top-level construct-then-run wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xnsstack/xnsd/internal/courier"
	"github.com/xnsstack/xnsd/internal/dispatch"
	"github.com/xnsstack/xnsd/internal/handlers/chs"
	"github.com/xnsstack/xnsd/internal/handlers/echo"
	"github.com/xnsstack/xnsd/internal/handlers/rip"
	"github.com/xnsstack/xnsd/internal/handlers/timeproto"
	"github.com/xnsstack/xnsd/internal/listener"
	"github.com/xnsstack/xnsd/internal/netdriver"
	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/xnsconfig"
)

// sessionSweepInterval is how often expired Courier sessions are
// reclaimed; well under the 10-minute session TTL so a sweep always
// runs several times within one session's lifetime.
const sessionSweepInterval = time.Minute

// Config bundles everything Server needs to construct the listener
// topology; the caller supplies an already-opened driver so the choice
// of rawsock vs pcapdriver stays outside this package.
type Config struct {
	Log    *slog.Logger
	Iface  string
	Driver netdriver.Driver
	XNS    *xnsconfig.Config
	CHS    *chs.Directory // nil disables the Clearinghouse responder
}

// Server owns every long-lived component and the background sweep
// goroutine; canceling the context passed to Run tears all of it down
// within the dispatcher's one-second select timeout.
type Server struct {
	log        *slog.Logger
	dispatcher *dispatch.Dispatcher
	registry   *listener.Registry
	sessions   *service.Sessions

	done chan struct{}
}

// New constructs the full listener topology but does not start it;
// call Run to do that.
func New(cfg Config) (*Server, error) {
	localNet, ok := cfg.XNS.LocalNet()
	if !ok {
		return nil, fmt.Errorf("server: no network with hop=0 in configuration")
	}

	d, err := dispatch.New(cfg.Log, cfg.Iface, localNet, cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("server: dispatcher: %w", err)
	}

	reg := listener.NewRegistry(d.Transmit)
	d.SetRegistry(reg)

	svc := service.NewRegistry()
	sessions := service.NewSessions()

	timeproto.Register(svc, cfg.XNS, time.Now)
	if cfg.CHS != nil {
		chs.Register(svc, cfg.CHS)
	}

	s := &Server{
		log:        cfg.Log,
		dispatcher: d,
		registry:   reg,
		sessions:   sessions,
		done:       make(chan struct{}),
	}

	if err := reg.Add(wire.SocketRIP, rip.NewListener(wire.SocketRIP, cfg.XNS, cfg.Log)); err != nil {
		return nil, fmt.Errorf("server: add rip listener: %w", err)
	}
	if err := reg.Add(wire.SocketEcho, echo.NewListener(wire.SocketEcho, cfg.Log)); err != nil {
		return nil, fmt.Errorf("server: add echo listener: %w", err)
	}
	courierListener := courier.NewListener(wire.SocketCourier, localNet, svc, sessions, cfg.Log)
	if err := reg.Add(wire.SocketCourier, courierListener); err != nil {
		return nil, fmt.Errorf("server: add courier listener: %w", err)
	}

	return s, nil
}

// Run starts every listener and the dispatcher's receive loop, and
// blocks until ctx is canceled or a fatal driver error occurs.
func (s *Server) Run(ctx context.Context) error {
	if err := s.registry.Start(); err != nil {
		return fmt.Errorf("server: start listeners: %w", err)
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	go s.sweepLoop(sweepCtx)

	err := s.dispatcher.Run(ctx)

	cancel()
	<-s.done
	if stopErr := s.registry.Stop(); stopErr != nil {
		s.log.Warn("server: stopping listeners", "error", stopErr)
	}
	return err
}

func (s *Server) sweepLoop(ctx context.Context) {
	defer close(s.done)
	t := time.NewTicker(sessionSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.sessions.Sweep(now); n > 0 {
				s.log.Debug("server: reclaimed expired courier sessions", "count", n)
			}
		}
	}
}
