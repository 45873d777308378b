// Package chs is a reference Clearinghouse handler: it answers
// RetrieveAddresses and ListDomainsServed against a static name→address
// table whose entries the caller passes to NewDirectory; nothing here
// loads entries from configuration. A real directory service is an external
// collaborator per this stack's scope; this package exists so the
// Courier registry has something to exercise without a reader needing
// to write one from scratch. Grounded on
// original_source/src/courierImpl/CHService.cpp and
// src/xnsServerImpl/CHSListener.cpp's lookup-by-name, reply-with-
// address-list shape.
package chs

import (
	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/chs"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

// maxDomainsServed bounds the ListDomainsServed reply's SEQUENCE count.
const maxDomainsServed = 256

// Entry is one directory record: a name serving zero or more network
// addresses.
type Entry struct {
	Name      chs.Name
	Addresses []chs.NetworkAddress
}

// Directory is a static, in-memory Clearinghouse table; RetrieveAddresses
// matches an entry by its full three-part Name.
type Directory struct {
	entries []Entry
}

// NewDirectory builds an immutable directory from entries; the handler
// holds no mutable state beyond this slice.
func NewDirectory(entries []Entry) *Directory {
	return &Directory{entries: append([]Entry(nil), entries...)}
}

func (d *Directory) retrieveAddresses(name chs.Name) (chs.RetrieveAddressesResult, bool) {
	for _, e := range d.entries {
		if e.Name == name {
			return chs.RetrieveAddressesResult{Addresses: e.Addresses}, true
		}
	}
	return chs.RetrieveAddressesResult{}, false
}

func (d *Directory) domainsServed() []chs.DomainName {
	seen := make(map[chs.DomainName]bool)
	var out []chs.DomainName
	for _, e := range d.entries {
		dn := chs.DomainName{Organization: e.Name.Organization, Domain: e.Name.Domain}
		if !seen[dn] {
			seen[dn] = true
			out = append(out, dn)
		}
	}
	return out
}

// Register binds RetrieveAddresses and ListDomainsServed to reg.
func Register(reg *service.Registry, dir *Directory) {
	reg.Register(chs.Program, chs.Version, chs.ProcRetrieveAddresses, func(args *codec.Cursor, _ *service.Session) ([]byte, error) {
		name, err := chs.DecodeName(args)
		if err != nil {
			return nil, xnserr.ErrInvalidArgs
		}
		result, ok := dir.retrieveAddresses(name)
		if !ok {
			return nil, &xnserr.HandlerError{Code: 1, Body: nil}
		}
		buf := make([]byte, 0, 16*(1+len(result.Addresses)))
		w := codec.NewWriter(buf)
		if err := chs.EncodeRetrieveAddressesResult(w, result); err != nil {
			return nil, err
		}
		return w.Bytes(), nil
	}, false)

	reg.Register(chs.Program, chs.Version, chs.ProcListDomainsServed, func(args *codec.Cursor, _ *service.Session) ([]byte, error) {
		domains := dir.domainsServed()
		buf := make([]byte, 0, 8*(1+len(domains)))
		w := codec.NewWriter(buf)
		err := wire.WriteSequence(w, len(domains), maxDomainsServed, func(i int) error {
			return chs.EncodeDomainName(w, domains[i])
		})
		if err != nil {
			return nil, err
		}
		return w.Bytes(), nil
	}, true)
}
