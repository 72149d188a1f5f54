package wire

import (
	"fmt"
	"reflect"
)

// Marshal encodes m into the wire format. m must be a struct or a non-nil
// pointer to one. The output is canonical: the same value always yields the
// same bytes.
func Marshal(m interface{}) ([]byte, error) {
	v := reflect.ValueOf(m)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("wire: marshal of nil %s", v.Type())
		}
		v = v.Elem()
	}
	d, err := descriptorOf(v.Type())
	if err != nil {
		return nil, err
	}
	return appendMessage(nil, d, v)
}

func appendMessage(b []byte, d *messageDesc, v reflect.Value) ([]byte, error) {
	var err error
	for i := range d.fields {
		fd := &d.fields[i]
		fv := v.Field(fd.index)

		switch fd.kind {
		case kindBool:
			if fv.Bool() {
				b = appendTag(b, fd.num, typeVarint)
				b = appendVarint(b, 1)
			}
		case kindInt:
			if n := fv.Int(); n != 0 {
				b = appendTag(b, fd.num, typeVarint)
				b = appendVarint(b, uint64(n))
			}
		case kindUint:
			if n := fv.Uint(); n != 0 {
				b = appendTag(b, fd.num, typeVarint)
				b = appendVarint(b, n)
			}
		case kindBytes:
			if fv.Len() > 0 {
				b = appendTag(b, fd.num, typeBytes)
				b = appendBytes(b, fv.Bytes())
			}
		case kindString:
			if fv.Len() > 0 {
				b = appendTag(b, fd.num, typeBytes)
				b = appendBytes(b, []byte(fv.String()))
			}
		case kindMessage:
			if !fv.IsNil() {
				b, err = appendSub(b, fd.num, fv.Elem())
				if err != nil {
					return nil, err
				}
			}
		case kindRepeatedBytes:
			for j := 0; j < fv.Len(); j++ {
				b = appendTag(b, fd.num, typeBytes)
				b = appendBytes(b, fv.Index(j).Bytes())
			}
		case kindRepeatedString:
			for j := 0; j < fv.Len(); j++ {
				b = appendTag(b, fd.num, typeBytes)
				b = appendBytes(b, []byte(fv.Index(j).String()))
			}
		case kindRepeatedMessage:
			for j := 0; j < fv.Len(); j++ {
				ev := fv.Index(j)
				if fd.elemPtr {
					if ev.IsNil() {
						return nil, fmt.Errorf("wire: nil element in repeated field %d", fd.num)
					}
					ev = ev.Elem()
				}
				b, err = appendSub(b, fd.num, ev)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	return b, nil
}

// appendSub writes a nested message: tag, varint length, then the encoded
// sub-message bytes.
func appendSub(b []byte, num uint64, v reflect.Value) ([]byte, error) {
	sd, err := descriptorOf(v.Type())
	if err != nil {
		return nil, err
	}
	sub, err := appendMessage(nil, sd, v)
	if err != nil {
		return nil, err
	}
	b = appendTag(b, num, typeBytes)
	return appendBytes(b, sub), nil
}
