package wire

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
)

// fieldKind classifies how a struct field maps onto the wire.
type fieldKind uint8

const (
	kindBool fieldKind = iota
	kindInt            // int32/int64 and named kinds: varint, sign-extended
	kindUint           // uint32/uint64 and named kinds: varint
	kindBytes
	kindString
	kindMessage         // *Struct
	kindRepeatedBytes   // [][]byte
	kindRepeatedString  // []string
	kindRepeatedMessage // []Struct or []*Struct
)

// fieldDesc is one row of a message's descriptor table.
type fieldDesc struct {
	num     uint64
	index   int // struct field index
	kind    fieldKind
	elem    reflect.Type // element type for repeated/message kinds
	elemPtr bool         // repeated element is a pointer
}

// messageDesc is the per-type field-descriptor table, sorted by field number.
type messageDesc struct {
	fields []fieldDesc
	byNum  map[uint64]*fieldDesc
}

var descCache sync.Map // reflect.Type -> *messageDesc

// descriptorOf builds (or fetches) the descriptor table for a struct type.
func descriptorOf(t reflect.Type) (*messageDesc, error) {
	if d, ok := descCache.Load(t); ok {
		return d.(*messageDesc), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("wire: %s is not a struct", t)
	}

	d := &messageDesc{byNum: make(map[uint64]*fieldDesc)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("wire")
		if !ok || tag == "-" {
			continue
		}
		num, err := strconv.ParseUint(tag, 10, 64)
		if err != nil || num == 0 {
			return nil, fmt.Errorf("wire: %s.%s: bad field number %q", t, sf.Name, tag)
		}

		fd := fieldDesc{num: num, index: i}
		ft := sf.Type
		switch ft.Kind() {
		case reflect.Bool:
			fd.kind = kindBool
		case reflect.Int32, reflect.Int64:
			fd.kind = kindInt
		case reflect.Uint32, reflect.Uint64:
			fd.kind = kindUint
		case reflect.String:
			fd.kind = kindString
		case reflect.Ptr:
			if ft.Elem().Kind() != reflect.Struct {
				return nil, fmt.Errorf("wire: %s.%s: unsupported pointer type %s", t, sf.Name, ft)
			}
			fd.kind = kindMessage
			fd.elem = ft.Elem()
		case reflect.Slice:
			et := ft.Elem()
			switch {
			case et.Kind() == reflect.Uint8:
				fd.kind = kindBytes
			case et.Kind() == reflect.Slice && et.Elem().Kind() == reflect.Uint8:
				fd.kind = kindRepeatedBytes
			case et.Kind() == reflect.String:
				fd.kind = kindRepeatedString
			case et.Kind() == reflect.Struct:
				fd.kind = kindRepeatedMessage
				fd.elem = et
			case et.Kind() == reflect.Ptr && et.Elem().Kind() == reflect.Struct:
				fd.kind = kindRepeatedMessage
				fd.elem = et.Elem()
				fd.elemPtr = true
			default:
				return nil, fmt.Errorf("wire: %s.%s: unsupported slice type %s", t, sf.Name, ft)
			}
		default:
			return nil, fmt.Errorf("wire: %s.%s: unsupported type %s", t, sf.Name, ft)
		}
		d.fields = append(d.fields, fd)
	}

	sort.Slice(d.fields, func(i, j int) bool { return d.fields[i].num < d.fields[j].num })
	for i := range d.fields {
		fd := &d.fields[i]
		if _, dup := d.byNum[fd.num]; dup {
			return nil, fmt.Errorf("wire: %s: duplicate field number %d", t, fd.num)
		}
		d.byNum[fd.num] = fd
	}

	actual, _ := descCache.LoadOrStore(t, d)
	return actual.(*messageDesc), nil
}
