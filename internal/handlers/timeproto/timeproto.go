// Package timeproto answers the Time service's GetTime call, carried as
// a Courier procedure over PEX clientType=time per this stack's framing
// (the original Time protocol is PEX-direct with no program/version
// indirection; this core folds it into the same (program,version,
// procedure) registry every other Courier service uses, so Program,
// Version and Procedure below are this implementation's own numbering,
// not a wire-observed value).
package timeproto

import (
	"time"

	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnsconfig"
)

const (
	Program     uint32 = 15
	Version     uint16 = 2
	ProcGetTime uint16 = 1
)

// TimeSource is the subset of xnsconfig.Config the handler needs.
type TimeSource interface {
	Time() xnsconfig.TimeConfig
}

// Register binds the GetTime procedure to reg, reading the current
// offset/DST fields from src and the current wall-clock time from now
// (time.Now in production, fixed in tests).
func Register(reg *service.Registry, src TimeSource, now func() time.Time) {
	reg.Register(Program, Version, ProcGetTime, func(args *codec.Cursor, _ *service.Session) ([]byte, error) {
		if _, err := wire.DecodeTimeRequest(args); err != nil {
			return nil, err
		}
		return handle(src, now)
	}, false)
}

func handle(src TimeSource, now func() time.Time) ([]byte, error) {
	cfg := src.Time()
	resp := wire.TimeResponse{
		Time:            uint32(now().Unix() + wire.XNSEpochOffset),
		OffsetDirection: cfg.OffsetDirection,
		OffsetHours:     cfg.OffsetHours,
		OffsetMinutes:   cfg.OffsetMinutes,
		DSTStart:        cfg.DSTStart,
		DSTEnd:          cfg.DSTEnd,
		Tolerance:       wire.ToleranceUnknown,
		ToleranceValue:  0,
	}
	buf := make([]byte, 0, 18)
	w := codec.NewWriter(buf)
	if err := wire.EncodeTimeResponse(w, resp); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
