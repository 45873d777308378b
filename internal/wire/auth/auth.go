// Package auth decodes and encodes the XNS Authentication program's
// Credentials/Verifier record shapes (Courier program 14, versions 1 and
// 3 of the original Xerox Authentication protocol). Per the core's
// Non-goals, this package is codec-only: it does not derive key
// schedules or validate DES-encrypted contents, only the byte layout of
// the records that carry them.
package auth

import "github.com/xnsstack/xnsd/internal/wire/codec"

// CredentialsType discriminates a Credentials record (Authentication3
// names this {simple(0), strong(1)}; Authentication1 only has simple).
type CredentialsType uint16

const (
	CredentialsSimple CredentialsType = 0
	CredentialsStrong CredentialsType = 1
)

// VerifierLength is the fixed SEQUENCE 12 OF UNSPECIFIED size of a
// Verifier (24 octets: 12 sixteen-bit words).
const VerifierLength = 12

// Credentials is `type(2) | value: SEQUENCE OF UNSPECIFIED`. The value
// bytes are opaque: for simpleCredentials they hold a Clearinghouse Name;
// for strongCredentials they hold an encrypted StrongCredentials block
// that this package does not interpret.
type Credentials struct {
	Type  CredentialsType
	Value []byte
}

func DecodeCredentials(c *codec.Cursor) (Credentials, error) {
	var out Credentials
	typ, err := c.ReadU16()
	if err != nil {
		return out, err
	}
	out.Type = CredentialsType(typ)
	count, err := c.ReadU16()
	if err != nil {
		return out, err
	}
	value, err := c.ReadBytes(int(count) * 2)
	if err != nil {
		return out, err
	}
	out.Value = value
	return out, nil
}

func EncodeCredentials(c *codec.Cursor, cr Credentials) error {
	if err := c.WriteU16(uint16(cr.Type)); err != nil {
		return err
	}
	if len(cr.Value)%2 != 0 {
		return codec.ErrBadValue
	}
	if err := c.WriteU16(uint16(len(cr.Value) / 2)); err != nil {
		return err
	}
	return c.WriteBytes(cr.Value)
}

// Verifier is a fixed-size SEQUENCE 12 OF UNSPECIFIED (24 octets): for
// simple authentication a HashedPassword padded into the sequence; for
// strong authentication an encrypted StrongVerifier block.
type Verifier struct {
	Value [VerifierLength * 2]byte
}

func DecodeVerifier(c *codec.Cursor) (Verifier, error) {
	var v Verifier
	b, err := c.ReadBytes(len(v.Value))
	if err != nil {
		return v, err
	}
	copy(v.Value[:], b)
	return v, nil
}

func EncodeVerifier(c *codec.Cursor, v Verifier) error {
	return c.WriteBytes(v.Value[:])
}
