package xnsconfig

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xnsstack/xnsd/internal/wire"
)

// HostValue is a 48-bit host address parsed from any of the three
// textual notations the config file accepts for host.list[].value:
// octal with a trailing "b" (e.g. "1000b"), colon-separated hex octets
// (e.g. "aa:bb:cc:dd:ee:ff"), or hyphen-separated decimal byte groups,
// 4 or 5 of them, left-padding the unwritten high-order bytes with zero
// (e.g. "2-52-0-1" for the low 4 bytes of the address).
type HostValue wire.Host

func (v HostValue) String() string { return wire.Host(v).String() }

func (v HostValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire.Host(v).String())
}

func (v *HostValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("host value must be a string: %w", err)
	}
	h, err := ParseHostValue(s)
	if err != nil {
		return err
	}
	*v = HostValue(h)
	return nil
}

// ParseHostValue parses one of the three accepted host-address
// notations. It returns an error naming the attempted forms if s
// matches none of them.
func ParseHostValue(s string) (wire.Host, error) {
	s = strings.TrimSpace(s)

	if h, ok := parseOctalHost(s); ok {
		return h, nil
	}
	if h, ok := parseHexHost(s); ok {
		return h, nil
	}
	if h, ok := parseDecimalTripletHost(s); ok {
		return h, nil
	}
	return wire.HostUnknown, fmt.Errorf("xnsconfig: host value %q is not octal nnnnb, hex aa:bb:cc:dd:ee:ff, or decimal NNN-NNN-NNN-NNN[-NNN]", s)
}

// parseOctalHost accepts a run of octal digits followed by a literal
// "b" suffix.
func parseOctalHost(s string) (wire.Host, bool) {
	if len(s) < 2 || (s[len(s)-1] != 'b' && s[len(s)-1] != 'B') {
		return wire.HostUnknown, false
	}
	digits := s[:len(s)-1]
	if digits == "" {
		return wire.HostUnknown, false
	}
	v, err := strconv.ParseUint(digits, 8, 48)
	if err != nil {
		return wire.HostUnknown, false
	}
	return wire.Host(v), true
}

// parseHexHost accepts exactly six colon-separated hex octets.
func parseHexHost(s string) (wire.Host, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return wire.HostUnknown, false
	}
	var v uint64
	for _, p := range parts {
		if len(p) != 1 && len(p) != 2 {
			return wire.HostUnknown, false
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return wire.HostUnknown, false
		}
		v = v<<8 | b
	}
	return wire.Host(v), true
}

// parseDecimalTripletHost accepts 4 or 5 hyphen-separated decimal byte
// groups (each 0..255), left-padding the unwritten high-order bytes
// with zero to fill out the 48-bit address.
func parseDecimalTripletHost(s string) (wire.Host, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 && len(parts) != 5 {
		return wire.HostUnknown, false
	}
	var bytes []byte
	for _, p := range parts {
		if len(p) == 0 || len(p) > 3 {
			return wire.HostUnknown, false
		}
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n > 255 {
			return wire.HostUnknown, false
		}
		bytes = append(bytes, byte(n))
	}
	var v uint64
	for len(bytes) < 6 {
		bytes = append([]byte{0}, bytes...)
	}
	for _, b := range bytes {
		v = v<<8 | uint64(b)
	}
	return wire.Host(v), true
}
