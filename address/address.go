// Package address implements the KleverChain account address codec.
//
// An address is a 32-byte account identifier, rendered for humans as a
// bech32 string with the "klv" prefix (e.g. klv1...). The SDK carries
// addresses as the raw 32 bytes everywhere a transaction is encoded and
// converts at the API boundary only.
package address

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// HRP is the bech32 human-readable prefix for account addresses.
const HRP = "klv"

// Bytes is the raw length of an account address.
const Bytes = 32

// Address is a 32-byte account identifier.
type Address [Bytes]byte

// zero is the all-zero address, used only for IsZero.
var zero Address

// NewAddress parses a bech32 klv1... string into an Address.
func NewAddress(s string) (Address, error) {
	var a Address
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode address %q: %w", s, err)
	}
	if hrp != HRP {
		return a, fmt.Errorf("invalid address prefix %q: expected %q", hrp, HRP)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return a, fmt.Errorf("convert address bits: %w", err)
	}
	if len(decoded) != Bytes {
		return a, fmt.Errorf("invalid address length: expected %d bytes, got %d", Bytes, len(decoded))
	}
	copy(a[:], decoded)
	return a, nil
}

// NewAddressFromBytes wraps a raw 32-byte account identifier.
func NewAddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Bytes {
		return a, fmt.Errorf("invalid address length: expected %d bytes, got %d", Bytes, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// NewAddressFromHex parses a 64-character hex account identifier.
func NewAddressFromHex(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("decode hex address: %w", err)
	}
	return NewAddressFromBytes(b)
}

// Bytes returns a copy of the raw 32-byte identifier.
func (a Address) Bytes() []byte {
	out := make([]byte, Bytes)
	copy(out, a[:])
	return out
}

// Bech32 renders the address as a klv1... string. Encoding a well-formed
// address cannot fail; a failure here indicates memory corruption and
// panics.
func (a Address) Bech32() string {
	data, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(fmt.Sprintf("address: convert bits: %v", err))
	}
	s, err := bech32.Encode(HRP, data)
	if err != nil {
		panic(fmt.Sprintf("address: bech32 encode: %v", err))
	}
	return s
}

// Hex renders the raw identifier as lowercase hex.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String implements fmt.Stringer using the bech32 form.
func (a Address) String() string {
	return a.Bech32()
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return bytes.Equal(a[:], zero[:])
}
