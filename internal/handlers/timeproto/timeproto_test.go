package timeproto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnsconfig"
)

type fixedSource struct{ cfg xnsconfig.TimeConfig }

func (f fixedSource) Time() xnsconfig.TimeConfig { return f.cfg }

func TestGetTimeReturnsConfiguredOffsetAndCurrentTime(t *testing.T) {
	reg := service.NewRegistry()
	src := fixedSource{cfg: xnsconfig.TimeConfig{
		OffsetDirection: wire.TimeDirectionWest,
		OffsetHours:     8,
		OffsetMinutes:   0,
		DSTStart:        90,
		DSTEnd:          300,
	}}
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	Register(reg, src, func() time.Time { return fixedNow })

	out, err := reg.Invoke(Program, Version, ProcGetTime, codec.New(nil), nil)
	require.NoError(t, err)

	resp, err := wire.DecodeTimeResponse(codec.New(out))
	require.NoError(t, err)
	assert.Equal(t, uint32(fixedNow.Unix()+wire.XNSEpochOffset), resp.Time)
	assert.Equal(t, wire.TimeDirectionWest, resp.OffsetDirection)
	assert.Equal(t, uint16(8), resp.OffsetHours)
	assert.Equal(t, uint16(90), resp.DSTStart)
	assert.Equal(t, uint16(300), resp.DSTEnd)
	assert.Equal(t, wire.ToleranceUnknown, resp.Tolerance)
}

func TestUnregisteredProcedureFails(t *testing.T) {
	reg := service.NewRegistry()
	Register(reg, fixedSource{}, time.Now)
	_, err := reg.Invoke(Program, Version, ProcGetTime+1, codec.New(nil), nil)
	assert.Error(t, err)
}
