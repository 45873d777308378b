// Package idp implements the IDP engine: checksum computation and
// verification, transmit-side padding, and receive-side frame validation
//. The checksum algorithm is grounded byte-for-byte on
// XNS::IDP::computeChecksum in the original mesa-emulator-unix source.
package idp

import (
	"encoding/binary"

	"github.com/xnsstack/xnsd/internal/wire"
)

// NoCheck is the on-wire sentinel meaning "checksum not computed".
const NoCheck = wire.NoCheckChecksum

// ComputeChecksum runs the one's-complement fletcher-style algorithm over
// region, which must start at the IDP length field and run through the
// end of the payload (i.e. NOT including the 2-octet checksum field
// itself). If region has an odd length, the final word is implicitly
// zero-padded and §8's boundary behavior.
func ComputeChecksum(region []byte) uint16 {
	var s uint32
	n := len(region)
	for i := 0; i+1 < n; i += 2 {
		s = step(s, uint32(binary.BigEndian.Uint16(region[i:])))
	}
	if n%2 == 1 {
		s = step(s, uint32(region[n-1])<<8)
	}
	return uint16(s)
}

func step(s, w uint32) uint32 {
	s += w
	if s >= 0x10000 {
		s = (s + 1) & 0xFFFF
	}
	s <<= 1
	if s >= 0x10000 {
		s = (s + 1) & 0xFFFF
	}
	return s
}

// ChecksumRegion returns the slice of buf (an IDP datagram, checksum
// field first) that ComputeChecksum must be run over: from the length
// field (offset 2) through the declared Length octets, rounded up to an
// even count. buf must have at least one octet of transmit padding
// available beyond an odd Length (the transmit padding rule guarantees
// this for every real wire frame, since total frame length is always
// padded to even and at least 46 octets).
func ChecksumRegion(buf []byte, length uint16) ([]byte, bool) {
	need := int(length) - 2 // length field itself is part of the sum
	if need < 0 {
		return nil, false
	}
	rounded := need
	if rounded%2 != 0 {
		rounded++
	}
	if 2+rounded > len(buf) {
		return nil, false
	}
	return buf[2 : 2+rounded], true
}

// EncodedChecksum computes the wire-ready checksum for buf, an IDP
// datagram whose Length field is at offset 2 and already set. It
// substitutes NoCheck for a computed 0x0000, which the algorithm cannot
// otherwise produce checksum invariant.
func EncodedChecksum(buf []byte, length uint16) uint16 {
	region, ok := ChecksumRegion(buf, length)
	if !ok {
		return NoCheck
	}
	v := ComputeChecksum(region)
	if v == 0 {
		return NoCheck
	}
	return v
}

// VerifyChecksum reports whether buf's on-wire checksum field (the first
// two octets) is either NoCheck or matches the recomputed value, given
// the datagram's declared Length.
func VerifyChecksum(buf []byte, length uint16) bool {
	if len(buf) < 2 {
		return false
	}
	wireChecksum := binary.BigEndian.Uint16(buf[0:2])
	if wireChecksum == NoCheck {
		return true
	}
	return wireChecksum == EncodedChecksum(buf, length)
}
