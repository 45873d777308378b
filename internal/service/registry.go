// Package service implements the Courier (program, version, procedure)
// registry: handlers register against a program/version pair at
// startup, and Invoke dispatches a decoded call to the matching one,
// turning a missing version into the noSuchVersionNumber range reject
// the Courier framer needs. Grounded on the same register/lookup shape
// internal/listener uses for sockets, narrowed to a three-level key.
package service

import (
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

// Handler implements one Courier procedure: it receives a cursor
// positioned at the call's argument block and the session the call
// arrived on (nil for PEX-Expedited calls). A returned
// *xnserr.HandlerError becomes an abort; xnserr.ErrInvalidArgs becomes
// an invalidArguments reject; any other error becomes an abort with
// code 0.
type Handler func(args *codec.Cursor, sess *Session) ([]byte, error)

type registeredProgram struct {
	versions  map[uint16]map[uint16]Handler
	low, high uint16
}

// Registry is the process-wide (program,version,procedure)→Handler
// table built up at startup by each handler package's registration call.
type Registry struct {
	programs map[uint32]*registeredProgram
}

func NewRegistry() *Registry {
	return &Registry{programs: make(map[uint32]*registeredProgram)}
}

// Register binds handler to (program,version,procedure). bulkAllowed is
// carried for documentation only; whether a given call actually uses a
// bulk-data substream is a property of the call's arguments, decided by
// the streamed Courier framer.
func (r *Registry) Register(program uint32, version uint16, procedure uint16, handler Handler, bulkAllowed bool) {
	_ = bulkAllowed
	p, ok := r.programs[program]
	if !ok {
		p = &registeredProgram{versions: make(map[uint16]map[uint16]Handler), low: version, high: version}
		r.programs[program] = p
	}
	if version < p.low {
		p.low = version
	}
	if version > p.high {
		p.high = version
	}
	procs, ok := p.versions[version]
	if !ok {
		procs = make(map[uint16]Handler)
		p.versions[version] = procs
	}
	procs[procedure] = handler
}

// Invoke dispatches a decoded call. The returned error is
// xnserr.ErrNoSuchProgram, *xnserr.VersionRangeError (wrapping
// xnserr.ErrNoSuchVersion), xnserr.ErrNoSuchProcedure, or whatever the
// handler itself returned.
func (r *Registry) Invoke(program uint32, version uint16, procedure uint16, args *codec.Cursor, sess *Session) ([]byte, error) {
	p, ok := r.programs[program]
	if !ok {
		return nil, xnserr.ErrNoSuchProgram
	}
	procs, ok := p.versions[version]
	if !ok {
		return nil, &xnserr.VersionRangeError{Low: p.low, High: p.high}
	}
	handler, ok := procs[procedure]
	if !ok {
		return nil, xnserr.ErrNoSuchProcedure
	}
	return handler(args, sess)
}
