// Package wire implements the binary wire codec used by KleverChain
// transactions.
//
// The format is the Protocol Buffers wire format: every field is preceded by
// a tag `(fieldNumber << 3) | wireType`, integers are base-128 varints,
// strings/bytes/sub-messages are length-delimited. Instead of generated
// per-message code, one generic engine walks plain structs whose fields
// declare their field number through a `wire:"N"` struct tag; the wire type
// is inferred from the Go type:
//
//	bool, int32, int64, uint32, uint64 (and named kinds thereof)  varint
//	string, []byte                                                length-delimited
//	*Struct, []Struct, []*Struct                                  length-delimited sub-message
//	[][]byte, []string                                            repeated length-delimited
//
// Encoding follows proto3 semantics: zero values are omitted, repeated
// fields are written one tag per element in slice order, and fields are
// written in ascending field-number order, so the output is canonical and
// deterministic for a given value. Fields without a `wire` tag are ignored
// by the codec.
//
// Decoding is a single forward scan bounded by the buffer (or by the
// declared sub-length for nested messages). Unknown field numbers are
// skipped according to their wire type, which is the forward-compatibility
// path: a consumer built against an older schema keeps every field it knows
// and silently drops the rest.
package wire

import (
	"errors"
	"fmt"
)

// Wire types as they appear in the low three bits of a tag. Only varint and
// length-delimited are produced by this codec; fixed32/fixed64 are accepted
// and skipped on decode so foreign fields relay cleanly.
const (
	typeVarint  = 0
	typeFixed64 = 1
	typeBytes   = 2
	typeFixed32 = 5
)

// Decode errors. These cover structurally impossible byte layouts only;
// merely-unknown field numbers never fail.
var (
	// ErrTruncatedInput is returned when the buffer ends inside a value, or
	// a length-delimited field declares more bytes than remain.
	ErrTruncatedInput = errors.New("wire: truncated input")

	// ErrInvalidTag is returned for field number zero or a wire type this
	// format never uses (the deprecated group types).
	ErrInvalidTag = errors.New("wire: invalid tag")

	// ErrLengthOverflow is returned when a declared length does not fit in
	// an int.
	ErrLengthOverflow = errors.New("wire: length overflow")

	// ErrVarintOverflow is returned when a varint runs past ten bytes or
	// overflows 64 bits.
	ErrVarintOverflow = errors.New("wire: varint overflow")
)

// appendVarint appends v in base-128 little-endian-group order, seven value
// bits plus one continuation bit per byte.
func appendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// consumeVarint reads one varint from b, returning the value and the number
// of bytes consumed.
func consumeVarint(b []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < len(b); i++ {
		if i == 10 || (i == 9 && b[i] > 1) {
			return 0, 0, ErrVarintOverflow
		}
		v |= uint64(b[i]&0x7f) << (7 * uint(i))
		if b[i] < 0x80 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrTruncatedInput
}

// appendTag appends the tag for field number num with wire type wt.
func appendTag(b []byte, num uint64, wt uint8) []byte {
	return appendVarint(b, num<<3|uint64(wt))
}

// consumeTag splits one tag into field number and wire type.
func consumeTag(b []byte) (num uint64, wt uint8, n int, err error) {
	v, n, err := consumeVarint(b)
	if err != nil {
		return 0, 0, 0, err
	}
	num, wt = v>>3, uint8(v&7)
	if num == 0 {
		return 0, 0, 0, fmt.Errorf("%w: field number 0", ErrInvalidTag)
	}
	return num, wt, n, nil
}

// appendBytes appends a length-delimited byte segment.
func appendBytes(b, v []byte) []byte {
	b = appendVarint(b, uint64(len(v)))
	return append(b, v...)
}

// skipValue returns the size of the value following a tag with wire type wt,
// without interpreting it. Used for unknown fields.
func skipValue(b []byte, wt uint8) (int, error) {
	switch wt {
	case typeVarint:
		_, n, err := consumeVarint(b)
		return n, err
	case typeFixed64:
		if len(b) < 8 {
			return 0, ErrTruncatedInput
		}
		return 8, nil
	case typeFixed32:
		if len(b) < 4 {
			return 0, ErrTruncatedInput
		}
		return 4, nil
	case typeBytes:
		l, n, err := consumeVarint(b)
		if err != nil {
			return 0, err
		}
		if l > uint64(maxLen) {
			return 0, ErrLengthOverflow
		}
		if uint64(len(b)-n) < l {
			return 0, ErrTruncatedInput
		}
		return n + int(l), nil
	default:
		return 0, fmt.Errorf("%w: wire type %d", ErrInvalidTag, wt)
	}
}

const maxLen = int(^uint(0) >> 2)
