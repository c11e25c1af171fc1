package vmstate

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// field data is always big-endian, whatever the target's byte order
var order = binary.BigEndian

type Kind int

const (
	KindBool Kind = iota
	KindUint8
	KindUint32
	KindInt32
	KindUint64
)

func (k Kind) Size() int {
	switch k {
	case KindBool, KindUint8:
		return 1
	case KindUint32, KindInt32:
		return 4
	case KindUint64:
		return 8
	}
	panic(fmt.Sprintf("vmstate: unknown field kind %d", k))
}

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindUint8:
		return "uint8"
	case KindUint32:
		return "uint32"
	case KindInt32:
		return "int32"
	case KindUint64:
		return "uint64"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field describes one persisted value of an opaque object. The accessor
// returns a pointer into the object matching Kind.
type Field struct {
	Name string
	Kind Kind
	// Since is the first record version carrying this field (0 = always).
	Since int

	ptr func(opaque interface{}) interface{}
}

func Bool(name string, ptr func(opaque interface{}) *bool) Field {
	return Field{Name: name, Kind: KindBool, ptr: func(o interface{}) interface{} { return ptr(o) }}
}

func Uint8(name string, ptr func(opaque interface{}) *uint8) Field {
	return Field{Name: name, Kind: KindUint8, ptr: func(o interface{}) interface{} { return ptr(o) }}
}

func Uint32(name string, ptr func(opaque interface{}) *uint32) Field {
	return Field{Name: name, Kind: KindUint32, ptr: func(o interface{}) interface{} { return ptr(o) }}
}

func Int32(name string, ptr func(opaque interface{}) *int32) Field {
	return Field{Name: name, Kind: KindInt32, ptr: func(o interface{}) interface{} { return ptr(o) }}
}

func Uint64(name string, ptr func(opaque interface{}) *uint64) Field {
	return Field{Name: name, Kind: KindUint64, ptr: func(o interface{}) interface{} { return ptr(o) }}
}

// V returns a copy of the field that only exists in records of version >= since.
func (f Field) V(since int) Field {
	f.Since = since
	return f
}

func (f Field) present(version int) bool {
	return version >= f.Since
}

func (f Field) get(opaque interface{}) uint64 {
	switch p := f.ptr(opaque).(type) {
	case *bool:
		if *p {
			return 1
		}
		return 0
	case *uint8:
		return uint64(*p)
	case *uint32:
		return uint64(*p)
	case *int32:
		return uint64(uint32(*p))
	case *uint64:
		return *p
	}
	panic("vmstate: bad accessor for field " + f.Name)
}

func (f Field) set(opaque interface{}, val uint64) {
	switch p := f.ptr(opaque).(type) {
	case *bool:
		*p = val != 0
	case *uint8:
		*p = uint8(val)
	case *uint32:
		*p = uint32(val)
	case *int32:
		*p = int32(uint32(val))
	case *uint64:
		*p = val
	default:
		panic("vmstate: bad accessor for field " + f.Name)
	}
}

func packUint(size int, buf []byte, n uint64) ([]byte, error) {
	if len(buf) < size {
		return nil, errors.Errorf("buffer too small (%d < %d)", len(buf), size)
	}
	switch size {
	case 8:
		order.PutUint64(buf[:size], n)
	case 4:
		order.PutUint32(buf[:size], uint32(n))
	case 1:
		buf[0] = byte(n)
	default:
		return nil, errors.Errorf("unsupported uint size: %d", size)
	}
	return buf[:size], nil
}

func unpackUint(size int, buf []byte) (uint64, error) {
	if len(buf) < size {
		return 0, errors.Errorf("short field data (%d < %d)", len(buf), size)
	}
	switch size {
	case 8:
		return order.Uint64(buf), nil
	case 4:
		return uint64(order.Uint32(buf)), nil
	case 1:
		return uint64(buf[0]), nil
	default:
		return 0, errors.Errorf("unsupported uint size: %d", size)
	}
}

// dataSize is the number of field bytes a record of this version carries.
func dataSize(fields []Field, version int) int {
	n := 0
	for _, f := range fields {
		if f.present(version) {
			n += f.Kind.Size()
		}
	}
	return n
}
