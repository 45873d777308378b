package wire

import "github.com/xnsstack/xnsd/internal/wire/codec"

// TimeDirection is the Time protocol's offset-direction field.
type TimeDirection uint16

const (
	TimeDirectionWest TimeDirection = 0
	TimeDirectionEast TimeDirection = 1
)

// ToleranceCode is the Time protocol's tolerance field.
type ToleranceCode uint16

const ToleranceUnknown ToleranceCode = 0

// TimeRequest carries no arguments: the Time service's GetTime procedure
// takes an empty argument list.
type TimeRequest struct{}

func DecodeTimeRequest(c *codec.Cursor) (TimeRequest, error) {
	return TimeRequest{}, nil
}

func EncodeTimeRequest(c *codec.Cursor, r TimeRequest) error {
	return nil
}

// TimeResponse is the GetTime procedure's result: current time as XNS
// Time seconds (Unix seconds plus XNSEpochOffset), local offset from GMT,
// and DST rule fields.
type TimeResponse struct {
	Time            uint32
	OffsetDirection TimeDirection
	OffsetHours     uint16
	OffsetMinutes   uint16
	DSTStart        uint16
	DSTEnd          uint16
	Tolerance       ToleranceCode
	ToleranceValue  uint32
}

func DecodeTimeResponse(c *codec.Cursor) (TimeResponse, error) {
	var r TimeResponse
	t, err := c.ReadU32()
	if err != nil {
		return r, err
	}
	dir, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	hrs, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	mins, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	dstStart, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	dstEnd, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	tol, err := c.ReadU16()
	if err != nil {
		return r, err
	}
	tolVal, err := c.ReadU32()
	if err != nil {
		return r, err
	}
	r = TimeResponse{
		Time:            t,
		OffsetDirection: TimeDirection(dir),
		OffsetHours:     hrs,
		OffsetMinutes:   mins,
		DSTStart:        dstStart,
		DSTEnd:          dstEnd,
		Tolerance:       ToleranceCode(tol),
		ToleranceValue:  tolVal,
	}
	return r, nil
}

func EncodeTimeResponse(c *codec.Cursor, r TimeResponse) error {
	if err := c.WriteU32(r.Time); err != nil {
		return err
	}
	if err := c.WriteU16(uint16(r.OffsetDirection)); err != nil {
		return err
	}
	if err := c.WriteU16(r.OffsetHours); err != nil {
		return err
	}
	if err := c.WriteU16(r.OffsetMinutes); err != nil {
		return err
	}
	if err := c.WriteU16(r.DSTStart); err != nil {
		return err
	}
	if err := c.WriteU16(r.DSTEnd); err != nil {
		return err
	}
	if err := c.WriteU16(uint16(r.Tolerance)); err != nil {
		return err
	}
	return c.WriteU32(r.ToleranceValue)
}

// XNSEpochOffset is the number of seconds added to a Unix-epoch time
// (seconds since 1970-01-01) to give the XNS Time protocol's time value.
const XNSEpochOffset = 2114294400
