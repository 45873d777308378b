// Package bulkdata decodes and encodes the Bulk Data descriptor variants
// a Courier call uses to point a sink/source parameter at a companion
// SPP connection carrying sst=bulk data.
package bulkdata

import (
	"github.com/xnsstack/xnsd/internal/wire"
	"github.com/xnsstack/xnsd/internal/wire/codec"
)

// DescriptorTag discriminates a Descriptor (original source:
// "null(0), immediate(1) => RECORD[], passive(2), active(3) => RECORD
// [network, host, identifier]").
type DescriptorTag uint16

const (
	DescriptorNull      DescriptorTag = 0
	DescriptorImmediate DescriptorTag = 1
	DescriptorPassive   DescriptorTag = 2
	DescriptorActive    DescriptorTag = 3
)

// Identifier is `host(3 words) | hostRelativeIdentifier(2 words)`.
type Identifier struct {
	Host                   wire.Host
	HostRelativeIdentifier uint32
}

func DecodeIdentifier(c *codec.Cursor) (Identifier, error) {
	var id Identifier
	h, err := wire.ReadHost(c)
	if err != nil {
		return id, err
	}
	rel, err := c.ReadU32()
	if err != nil {
		return id, err
	}
	id.Host = h
	id.HostRelativeIdentifier = rel
	return id, nil
}

func EncodeIdentifier(c *codec.Cursor, id Identifier) error {
	if err := wire.WriteHost(c, id.Host); err != nil {
		return err
	}
	return c.WriteU32(id.HostRelativeIdentifier)
}

// Descriptor is a CHOICE over DescriptorTag: null and immediate carry no
// fields; passive and active carry {Network, Host, Identifier}.
type Descriptor struct {
	Tag        DescriptorTag
	Network    wire.Net
	Host       wire.Host
	Identifier Identifier
}

func DecodeDescriptor(c *codec.Cursor) (Descriptor, error) {
	var d Descriptor
	tag, err := c.ReadU16()
	if err != nil {
		return d, err
	}
	d.Tag = DescriptorTag(tag)
	switch d.Tag {
	case DescriptorNull, DescriptorImmediate:
		return d, nil
	case DescriptorPassive, DescriptorActive:
		net, err := c.ReadU32()
		if err != nil {
			return d, err
		}
		host, err := wire.ReadHost(c)
		if err != nil {
			return d, err
		}
		id, err := DecodeIdentifier(c)
		if err != nil {
			return d, err
		}
		d.Network = wire.Net(net)
		d.Host = host
		d.Identifier = id
		return d, nil
	default:
		return d, codec.ErrBadValue
	}
}

func EncodeDescriptor(c *codec.Cursor, d Descriptor) error {
	if err := c.WriteU16(uint16(d.Tag)); err != nil {
		return err
	}
	switch d.Tag {
	case DescriptorNull, DescriptorImmediate:
		return nil
	case DescriptorPassive, DescriptorActive:
		if err := c.WriteU32(uint32(d.Network)); err != nil {
			return err
		}
		if err := wire.WriteHost(c, d.Host); err != nil {
			return err
		}
		return EncodeIdentifier(c, d.Identifier)
	default:
		return codec.ErrBadValue
	}
}
