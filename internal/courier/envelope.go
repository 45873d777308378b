// Package courier frames Courier call/return/reject/abort messages over
// both transports this stack carries them on — Expedited (PEX) for
// short calls and streamed (SPP) for long calls — and dispatches
// decoded calls into an internal/service.Registry, sharing one
// reply-encoding path between the two. Grounded on
// internal/bgp/plugin.go's decode→switch-on-discriminant→build-typed-
// reply shape, adapted from BGP UPDATE handling to Courier framing.
package courier

import (
	"errors"

	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

// decodeEnvelope reads the protocolRange+messageType common prefix and
// returns a cursor over the remaining, message-type-specific body.
func decodeEnvelope(payload []byte) (wire.ProtocolRange, wire.MessageType, *codec.Cursor, error) {
	c := codec.New(payload)
	pr, err := wire.DecodeProtocolRange(c)
	if err != nil {
		return pr, 0, nil, err
	}
	typ, err := c.ReadU16()
	if err != nil {
		return pr, 0, nil, err
	}
	rest, err := c.Rest()
	if err != nil {
		return pr, 0, nil, err
	}
	return pr, wire.MessageType(typ), rest, nil
}

func encodeEnvelope(typ wire.MessageType, write func(c *codec.Cursor) error) []byte {
	buf := make([]byte, 0, 16)
	w := codec.NewWriter(buf)
	_ = wire.EncodeProtocolRange(w, wire.ProtocolRange{Low: wire.CourierProtocolVersion, High: wire.CourierProtocolVersion})
	_ = w.WriteU16(uint16(typ))
	_ = write(w)
	return w.Bytes()
}

func encodeReturn(txn uint16, results []byte) []byte {
	return encodeEnvelope(wire.MessageTypeReturn, func(c *codec.Cursor) error {
		return wire.EncodeReturn(c, wire.Return{Transaction: txn, Results: results})
	})
}

func encodeReject(txn uint16, code wire.RejectCode, vr wire.ProtocolRange) []byte {
	return encodeEnvelope(wire.MessageTypeReject, func(c *codec.Cursor) error {
		return wire.EncodeReject(c, wire.Reject{Transaction: txn, Code: code, VersionRange: vr})
	})
}

func encodeAbort(txn uint16, code uint16, args []byte) []byte {
	return encodeEnvelope(wire.MessageTypeAbort, func(c *codec.Cursor) error {
		return wire.EncodeAbort(c, wire.Abort{Transaction: txn, AbortCode: code, AbortArgs: args})
	})
}

// Invoke dispatches one decoded call against reg and returns the
// complete Courier reply envelope (return, reject, or abort) plus an
// outcome label for metrics, ready to be wrapped by the transport.
func Invoke(reg *service.Registry, call wire.Call, sess *service.Session) ([]byte, string) {
	args := codec.New(call.Args)
	result, err := reg.Invoke(call.Program, call.Version, call.Procedure, args, sess)
	if err == nil {
		return encodeReturn(call.Transaction, result), "return"
	}

	var verr *xnserr.VersionRangeError
	var herr *xnserr.HandlerError
	switch {
	case errors.As(err, &verr):
		return encodeReject(call.Transaction, wire.RejectNoSuchVersion, wire.ProtocolRange{Low: verr.Low, High: verr.High}), "reject_version"
	case errors.Is(err, xnserr.ErrNoSuchProgram):
		return encodeReject(call.Transaction, wire.RejectNoSuchProgram, wire.ProtocolRange{}), "reject_program"
	case errors.Is(err, xnserr.ErrNoSuchProcedure):
		return encodeReject(call.Transaction, wire.RejectNoSuchProcedure, wire.ProtocolRange{}), "reject_procedure"
	case errors.Is(err, xnserr.ErrInvalidArgs):
		return encodeReject(call.Transaction, wire.RejectInvalidArgs, wire.ProtocolRange{}), "reject_args"
	case errors.As(err, &herr):
		return encodeAbort(call.Transaction, uint16(herr.Code), herr.Body), "abort"
	default:
		return encodeAbort(call.Transaction, 0, nil), "abort"
	}
}
