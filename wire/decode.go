package wire

import (
	"fmt"
	"reflect"
)

// Unmarshal decodes data into m, which must be a non-nil pointer to a
// struct. Unknown field numbers are consumed and discarded; repeated fields
// are appended in arrival order, which for canonical input reproduces the
// encoded order. Scalar fields seen more than once keep the last value, as
// the format prescribes.
func Unmarshal(data []byte, m interface{}) error {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("wire: unmarshal target must be a non-nil pointer, got %T", m)
	}
	v = v.Elem()
	d, err := descriptorOf(v.Type())
	if err != nil {
		return err
	}
	return decodeMessage(data, d, v)
}

func decodeMessage(b []byte, d *messageDesc, v reflect.Value) error {
	for len(b) > 0 {
		num, wt, n, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = b[n:]

		fd, known := d.byNum[num]
		if !known {
			n, err := skipValue(b, wt)
			if err != nil {
				return err
			}
			b = b[n:]
			continue
		}

		switch fd.kind {
		case kindBool, kindInt, kindUint:
			if wt != typeVarint {
				return fmt.Errorf("%w: field %d: wire type %d for varint field", ErrInvalidTag, num, wt)
			}
			val, n, err := consumeVarint(b)
			if err != nil {
				return err
			}
			b = b[n:]
			fv := v.Field(fd.index)
			switch fd.kind {
			case kindBool:
				fv.SetBool(val != 0)
			case kindInt:
				// 32-bit fields keep the low bits, as the format
				// prescribes for foreign 64-bit values.
				if fv.Kind() == reflect.Int32 {
					fv.SetInt(int64(int32(val)))
				} else {
					fv.SetInt(int64(val))
				}
			case kindUint:
				if fv.Kind() == reflect.Uint32 {
					fv.SetUint(uint64(uint32(val)))
				} else {
					fv.SetUint(val)
				}
			}

		default:
			if wt != typeBytes {
				return fmt.Errorf("%w: field %d: wire type %d for length-delimited field", ErrInvalidTag, num, wt)
			}
			seg, n, err := consumeSegment(b)
			if err != nil {
				return fmt.Errorf("field %d: %w", num, err)
			}
			b = b[n:]
			if err := setDelimited(fd, v.Field(fd.index), seg); err != nil {
				return err
			}
		}
	}
	return nil
}

// consumeSegment reads one length-delimited segment, returning the segment
// contents and the total bytes consumed including the length prefix.
func consumeSegment(b []byte) ([]byte, int, error) {
	l, n, err := consumeVarint(b)
	if err != nil {
		return nil, 0, err
	}
	if l > uint64(maxLen) {
		return nil, 0, ErrLengthOverflow
	}
	if uint64(len(b)-n) < l {
		return nil, 0, ErrTruncatedInput
	}
	return b[n : n+int(l)], n + int(l), nil
}

// setDelimited assigns one length-delimited value to its struct field.
// Byte segments are copied: decoded messages never alias the input buffer.
func setDelimited(fd *fieldDesc, fv reflect.Value, seg []byte) error {
	switch fd.kind {
	case kindBytes:
		fv.SetBytes(cloneBytes(seg))
	case kindString:
		fv.SetString(string(seg))
	case kindMessage:
		sd, err := descriptorOf(fd.elem)
		if err != nil {
			return err
		}
		ev := reflect.New(fd.elem)
		if err := decodeMessage(seg, sd, ev.Elem()); err != nil {
			return err
		}
		fv.Set(ev)
	case kindRepeatedBytes:
		fv.Set(reflect.Append(fv, reflect.ValueOf(cloneBytes(seg))))
	case kindRepeatedString:
		fv.Set(reflect.Append(fv, reflect.ValueOf(string(seg)).Convert(fv.Type().Elem())))
	case kindRepeatedMessage:
		sd, err := descriptorOf(fd.elem)
		if err != nil {
			return err
		}
		ev := reflect.New(fd.elem)
		if err := decodeMessage(seg, sd, ev.Elem()); err != nil {
			return err
		}
		if fd.elemPtr {
			fv.Set(reflect.Append(fv, ev))
		} else {
			fv.Set(reflect.Append(fv, ev.Elem()))
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
