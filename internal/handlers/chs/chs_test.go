package chs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/service"
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/chs"
	"github.com/xnsstack/xnsd/internal/wire/codec"
	"github.com/xnsstack/xnsd/internal/xnserr"
)

func sampleDirectory() *Directory {
	return NewDirectory([]Entry{
		{
			Name:      chs.Name{Organization: "acme", Domain: "eng", Object: "printserver"},
			Addresses: []chs.NetworkAddress{{Network: wire.Net(1), Host: wire.Host(0xAABBCCDDEEFF), Socket: wire.Socket(100)}},
		},
		{
			Name:      chs.Name{Organization: "acme", Domain: "eng", Object: "fileserver"},
			Addresses: []chs.NetworkAddress{{Network: wire.Net(2), Host: wire.Host(0x1), Socket: wire.Socket(200)}},
		},
		{
			Name: chs.Name{Organization: "acme", Domain: "ops", Object: "backup"},
		},
	})
}

func encodeName(t *testing.T, n chs.Name) []byte {
	t.Helper()
	w := codec.NewWriter(make([]byte, 0, 64))
	require.NoError(t, chs.EncodeName(w, n))
	return w.Bytes()
}

func TestRetrieveAddressesFound(t *testing.T) {
	reg := service.NewRegistry()
	Register(reg, sampleDirectory())

	args := codec.New(encodeName(t, chs.Name{Organization: "acme", Domain: "eng", Object: "printserver"}))
	out, err := reg.Invoke(chs.Program, chs.Version, chs.ProcRetrieveAddresses, args, nil)
	require.NoError(t, err)

	result, err := chs.DecodeRetrieveAddressesResult(codec.New(out))
	require.NoError(t, err)
	require.Len(t, result.Addresses, 1)
	assert.Equal(t, wire.Net(1), result.Addresses[0].Network)
	assert.Equal(t, wire.Socket(100), result.Addresses[0].Socket)
}

func TestRetrieveAddressesNotFoundReturnsHandlerError(t *testing.T) {
	reg := service.NewRegistry()
	Register(reg, sampleDirectory())

	args := codec.New(encodeName(t, chs.Name{Organization: "acme", Domain: "eng", Object: "nope"}))
	_, err := reg.Invoke(chs.Program, chs.Version, chs.ProcRetrieveAddresses, args, nil)
	require.Error(t, err)
	var handlerErr *xnserr.HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, 1, handlerErr.Code)
}

func TestRetrieveAddressesMalformedArgsRejected(t *testing.T) {
	reg := service.NewRegistry()
	Register(reg, sampleDirectory())

	_, err := reg.Invoke(chs.Program, chs.Version, chs.ProcRetrieveAddresses, codec.New(nil), nil)
	require.ErrorIs(t, err, xnserr.ErrInvalidArgs)
}

func TestListDomainsServedDedupes(t *testing.T) {
	reg := service.NewRegistry()
	Register(reg, sampleDirectory())

	out, err := reg.Invoke(chs.Program, chs.Version, chs.ProcListDomainsServed, codec.New(nil), nil)
	require.NoError(t, err)

	c := codec.New(out)
	var domains []chs.DomainName
	_, err = wire.ReadSequence(c, 256, func(i int) error {
		d, err := chs.DecodeDomainName(c)
		if err != nil {
			return err
		}
		domains = append(domains, d)
		return nil
	})
	require.NoError(t, err)

	// Three entries share two distinct organization.domain pairs.
	require.Len(t, domains, 2)
	assert.Contains(t, domains, chs.DomainName{Organization: "acme", Domain: "eng"})
	assert.Contains(t, domains, chs.DomainName{Organization: "acme", Domain: "ops"})
}
