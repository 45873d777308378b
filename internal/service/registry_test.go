package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

func echoHandler(body []byte) Handler {
	return func(args *codec.Cursor, sess *Session) ([]byte, error) {
		return body, nil
	}
}

func TestInvokeDispatchesToRegisteredHandler(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, 1, 5, echoHandler([]byte("ok")), false)

	out, err := reg.Invoke(1, 1, 5, codec.New(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), out)
}

func TestInvokeUnknownProgram(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke(99, 1, 1, codec.New(nil), nil)
	assert.ErrorIs(t, err, xnserr.ErrNoSuchProgram)
}

func TestInvokeUnknownVersionReturnsRegisteredRange(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, 1, 1, echoHandler(nil), false)
	reg.Register(1, 3, 1, echoHandler(nil), false)

	_, err := reg.Invoke(1, 2, 1, codec.New(nil), nil)
	require.Error(t, err)
	var verr *xnserr.VersionRangeError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, uint16(1), verr.Low)
	assert.Equal(t, uint16(3), verr.High)
}

func TestInvokeUnknownProcedure(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, 1, 1, echoHandler(nil), false)

	_, err := reg.Invoke(1, 1, 2, codec.New(nil), nil)
	assert.ErrorIs(t, err, xnserr.ErrNoSuchProcedure)
}

func TestRegisterTracksVersionRangeAcrossCalls(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, 5, 1, echoHandler(nil), false)
	reg.Register(1, 2, 1, echoHandler(nil), false)
	reg.Register(1, 9, 1, echoHandler(nil), false)

	_, err := reg.Invoke(1, 100, 1, codec.New(nil), nil)
	var verr *xnserr.VersionRangeError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, uint16(2), verr.Low)
	assert.Equal(t, uint16(9), verr.High)
}
