package sd

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/arloliu/bpx/endian"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/iobits"
)

// ReadObject decodes one BPXSD object from r. maxDepth bounds the nesting
// the same way it does for WriteObject.
func ReadObject(r io.Reader, maxDepth int) (*Object, error) {
	return parseObject(r, &maxDepth)
}

// readExact fills buf from r, failing with errs.ErrTruncatedValue tagged
// with the value type when the stream runs dry.
func readExact(r io.Reader, buf []byte, ty Type) error {
	n, err := iobits.ReadFill(r, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("%s value needs %d bytes, got %d: %w", ty, len(buf), n, errs.ErrTruncatedValue)
	}

	return nil
}

func parseObject(r io.Reader, maxDepth *int) (*Object, error) {
	*maxDepth -= 1
	if *maxDepth <= 0 {
		return nil, errs.ErrMaxDepthExceeded
	}

	var count [1]byte
	if err := readExact(r, count[:], TypeObject); err != nil {
		return nil, err
	}

	engine := endian.GetLittleEndianEngine()
	obj := NewObject()
	for range int(count[0]) {
		var head [9]byte
		if err := readExact(r, head[:], TypeObject); err != nil {
			return nil, err
		}
		hash := engine.Uint64(head[0:8])
		value, err := parseValue(r, Type(head[8]), maxDepth)
		if err != nil {
			return nil, err
		}
		obj.RawSet(hash, value)
	}

	return obj, nil
}

func parseArray(r io.Reader, maxDepth *int) (*Array, error) {
	*maxDepth -= 1
	if *maxDepth <= 0 {
		return nil, errs.ErrMaxDepthExceeded
	}

	var count [1]byte
	if err := readExact(r, count[:], TypeArray); err != nil {
		return nil, err
	}

	arr := NewArray()
	for range int(count[0]) {
		var code [1]byte
		if err := readExact(r, code[:], TypeArray); err != nil {
			return nil, err
		}
		value, err := parseValue(r, Type(code[0]), maxDepth)
		if err != nil {
			return nil, err
		}
		arr.Push(value)
	}

	return arr, nil
}

func parseString(r io.Reader) (Value, error) {
	var raw []byte
	var chr [1]byte
	for {
		if err := readExact(r, chr[:], TypeString); err != nil {
			return Value{}, err
		}
		if chr[0] == 0x0 {
			break
		}
		raw = append(raw, chr[0])
	}
	if !utf8.Valid(raw) {
		return Value{}, errs.ErrInvalidUTF8
	}

	return String(string(raw)), nil
}

func parseValue(r io.Reader, ty Type, maxDepth *int) (Value, error) {
	engine := endian.GetLittleEndianEngine()

	switch ty {
	case TypeNull:
		return Null(), nil
	case TypeBool:
		var b [1]byte
		if err := readExact(r, b[:], ty); err != nil {
			return Value{}, err
		}
		return Bool(b[0] == 1), nil
	case TypeUint8, TypeInt8:
		var b [1]byte
		if err := readExact(r, b[:], ty); err != nil {
			return Value{}, err
		}
		return Value{typ: ty, num: uint64(b[0])}, nil
	case TypeUint16, TypeInt16:
		var b [2]byte
		if err := readExact(r, b[:], ty); err != nil {
			return Value{}, err
		}
		return Value{typ: ty, num: uint64(engine.Uint16(b[:]))}, nil
	case TypeUint32, TypeInt32, TypeFloat:
		var b [4]byte
		if err := readExact(r, b[:], ty); err != nil {
			return Value{}, err
		}
		return Value{typ: ty, num: uint64(engine.Uint32(b[:]))}, nil
	case TypeUint64, TypeInt64, TypeDouble:
		var b [8]byte
		if err := readExact(r, b[:], ty); err != nil {
			return Value{}, err
		}
		return Value{typ: ty, num: engine.Uint64(b[:])}, nil
	case TypeString:
		return parseString(r)
	case TypeArray:
		arr, err := parseArray(r, maxDepth)
		if err != nil {
			return Value{}, err
		}
		return ArrayValue(arr), nil
	case TypeObject:
		obj, err := parseObject(r, maxDepth)
		if err != nil {
			return Value{}, err
		}
		return ObjectValue(obj), nil
	default:
		return Value{}, fmt.Errorf("%w: 0x%X", errs.ErrBadTypeCode, uint8(ty))
	}
}
