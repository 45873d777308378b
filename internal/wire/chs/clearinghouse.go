// Package chs decodes and encodes the Clearinghouse program's (Courier
// program 2) Name, NetworkAddress, RetrieveAddresses result and
// DomainName record shapes consumed by the reference Clearinghouse
// handler. It defines no Object or Property record.
package chs

import (
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

const (
	Program = 2
	Version = 2

	// RetrieveAddresses and ListDomainsServed procedure numbers.
	ProcRetrieveAddresses = 0
	ProcListDomainsServed = 1
)

const (
	MaxOrganizationLength = 20
	MaxDomainLength       = 20
	MaxObjectLength       = 40
)

// Name is a ThreePartName: organization.domain:object.
type Name struct {
	Organization string
	Domain       string
	Object       string
}

func DecodeName(c *codec.Cursor) (Name, error) {
	var n Name
	org, err := wire.ReadString(c)
	if err != nil {
		return n, err
	}
	dom, err := wire.ReadString(c)
	if err != nil {
		return n, err
	}
	obj, err := wire.ReadString(c)
	if err != nil {
		return n, err
	}
	n.Organization, n.Domain, n.Object = org, dom, obj
	return n, nil
}

func EncodeName(c *codec.Cursor, n Name) error {
	if err := wire.WriteString(c, n.Organization); err != nil {
		return err
	}
	if err := wire.WriteString(c, n.Domain); err != nil {
		return err
	}
	return wire.WriteString(c, n.Object)
}

// NetworkAddress is one entry of a RetrieveAddresses result: a
// (network, host, socket) triple identifying where a Clearinghouse
// service instance listens.
type NetworkAddress struct {
	Network wire.Net
	Host    wire.Host
	Socket  wire.Socket
}

func DecodeNetworkAddress(c *codec.Cursor) (NetworkAddress, error) {
	var a NetworkAddress
	net, err := c.ReadU32()
	if err != nil {
		return a, err
	}
	host, err := wire.ReadHost(c)
	if err != nil {
		return a, err
	}
	sock, err := c.ReadU16()
	if err != nil {
		return a, err
	}
	a.Network, a.Host, a.Socket = wire.Net(net), host, wire.Socket(sock)
	return a, nil
}

func EncodeNetworkAddress(c *codec.Cursor, a NetworkAddress) error {
	if err := c.WriteU32(uint32(a.Network)); err != nil {
		return err
	}
	if err := wire.WriteHost(c, a.Host); err != nil {
		return err
	}
	return c.WriteU16(uint16(a.Socket))
}

// maxAddressList bounds the RetrieveAddresses result's SEQUENCE count;
// a handful of listening sockets is the realistic ceiling for one host.
const maxAddressList = 64

// RetrieveAddressesResult is RetrieveAddresses' (procedure 0) reply:
// `address: SEQUENCE OF NetworkAddress`.
type RetrieveAddressesResult struct {
	Addresses []NetworkAddress
}

func DecodeRetrieveAddressesResult(c *codec.Cursor) (RetrieveAddressesResult, error) {
	var r RetrieveAddressesResult
	_, err := wire.ReadSequence(c, maxAddressList, func(i int) error {
		a, err := DecodeNetworkAddress(c)
		if err != nil {
			return err
		}
		r.Addresses = append(r.Addresses, a)
		return nil
	})
	return r, err
}

func EncodeRetrieveAddressesResult(c *codec.Cursor, r RetrieveAddressesResult) error {
	return wire.WriteSequence(c, len(r.Addresses), maxAddressList, func(i int) error {
		return EncodeNetworkAddress(c, r.Addresses[i])
	})
}

// DomainName is a two-part organization.domain name; the reference
// handler returns ListDomainsServed's result as a SEQUENCE OF DomainName
// inside the Courier return message.
type DomainName struct {
	Organization string
	Domain       string
}

func DecodeDomainName(c *codec.Cursor) (DomainName, error) {
	var d DomainName
	org, err := wire.ReadString(c)
	if err != nil {
		return d, err
	}
	dom, err := wire.ReadString(c)
	if err != nil {
		return d, err
	}
	d.Organization, d.Domain = org, dom
	return d, nil
}

func EncodeDomainName(c *codec.Cursor, d DomainName) error {
	if err := wire.WriteString(c, d.Organization); err != nil {
		return err
	}
	return wire.WriteString(c, d.Domain)
}
