package courier

import (
	"log/slog"

	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/spp"
	"github.com/xnsstack/xnsd/internal/wire"
)

// RunStreamed drives one SPP connection's sst=Courier record stream:
// it accumulates EventData into a record buffer, dispatches a call on
// every EventRecordEnd, and writes the reply back as a single record.
// Call it as a goroutine per accepted connection; it returns when the
// connection reaches end-of-stream or done is closed.
func RunStreamed(conn *spp.Connection, reg *service.Registry, sessions *service.Sessions, sessionKey string, log *slog.Logger, done <-chan struct{}) {
	defer sessions.Drop(sessionKey)

	sess := sessions.Get(sessionKey)
	var buf []byte

	for {
		select {
		case <-done:
			return
		case <-conn.Notify():
		}

	drain:
		for {
			ev := conn.Get()
			switch ev.Kind {
			case spp.EventNone:
				break drain
			case spp.EventData:
				buf = append(buf, ev.Data...)
			case spp.EventRecordEnd:
				reply := handleStreamedRecord(reg, sess, buf, log)
				buf = nil
				if reply != nil {
					conn.Put(reply, true)
				}
			case spp.EventEOS:
				return
			case spp.EventSSTChange:
				// The core framer only answers sst=Courier records; a
				// bulk-data substream (sst=bulk) is a companion
				// connection a handler reads/writes directly, not a
				// record type this loop decodes.
				conn.AcceptSST(wire.SSTCourier)
			case spp.EventAttention:
			}
		}
	}
}

func handleStreamedRecord(reg *service.Registry, sess *service.Session, payload []byte, log *slog.Logger) []byte {
	pr, typ, rest, err := decodeEnvelope(payload)
	if err != nil {
		metricBadEnvelope.WithLabelValues("spp").Inc()
		log.Warn("courier: malformed streamed envelope", "error", err)
		return nil
	}
	if !pr.Includes(wire.CourierProtocolVersion) || typ != wire.MessageTypeCall {
		metricBadEnvelope.WithLabelValues("spp").Inc()
		return nil
	}
	call, err := wire.DecodeCall(rest)
	if err != nil {
		metricBadEnvelope.WithLabelValues("spp").Inc()
		log.Warn("courier: malformed streamed call", "error", err)
		return nil
	}

	reply, outcome := Invoke(reg, call, sess)
	metricCallsHandled.WithLabelValues("spp", outcome).Inc()
	return reply
}
