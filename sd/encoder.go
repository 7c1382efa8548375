package sd

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/endian"
	"github.com/arloliu/bpx/errs"
)

// DefaultMaxDepth is the nesting depth limit applied when callers do not
// provide their own.
const DefaultMaxDepth = 32

// maxCollectionLen is the entry limit of one object or array; the count is
// stored as a single byte.
const maxCollectionLen = 255

// WriteObject encodes obj and writes it to w. maxDepth bounds the nesting:
// the counter is decremented entering every object or array, and hitting
// zero fails with errs.ErrMaxDepthExceeded.
func WriteObject(w io.Writer, obj *Object, maxDepth int) error {
	buf, err := appendObject(nil, obj, &maxDepth)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)

	return err
}

func appendObject(buf []byte, obj *Object, maxDepth *int) ([]byte, error) {
	*maxDepth -= 1
	if *maxDepth <= 0 {
		return nil, errs.ErrMaxDepthExceeded
	}
	if obj.Len() > maxCollectionLen {
		return nil, fmt.Errorf("object holds %d entries: %w", obj.Len(), errs.ErrCapacityExceeded)
	}

	engine := endian.GetLittleEndianEngine()

	buf = append(buf, uint8(obj.Len()))
	for hash, value := range obj.All() {
		buf = engine.AppendUint64(buf, hash)
		buf = append(buf, uint8(value.Type()))
		var err error
		buf, err = appendValue(buf, value, maxDepth)
		if err != nil {
			return nil, err
		}
	}

	return buf, nil
}

func appendArray(buf []byte, arr *Array, maxDepth *int) ([]byte, error) {
	*maxDepth -= 1
	if *maxDepth <= 0 {
		return nil, errs.ErrMaxDepthExceeded
	}
	if arr.Len() > maxCollectionLen {
		return nil, fmt.Errorf("array holds %d entries: %w", arr.Len(), errs.ErrCapacityExceeded)
	}

	buf = append(buf, uint8(arr.Len()))
	for _, value := range arr.All() {
		buf = append(buf, uint8(value.Type()))
		var err error
		buf, err = appendValue(buf, value, maxDepth)
		if err != nil {
			return nil, err
		}
	}

	return buf, nil
}

func appendValue(buf []byte, value Value, maxDepth *int) ([]byte, error) {
	engine := endian.GetLittleEndianEngine()

	switch value.Type() {
	case TypeNull:
		return buf, nil
	case TypeBool, TypeUint8, TypeInt8:
		return append(buf, uint8(value.num)), nil
	case TypeUint16, TypeInt16:
		return engine.AppendUint16(buf, uint16(value.num)), nil
	case TypeUint32, TypeInt32, TypeFloat:
		return engine.AppendUint32(buf, uint32(value.num)), nil
	case TypeUint64, TypeInt64, TypeDouble:
		return engine.AppendUint64(buf, value.num), nil
	case TypeString:
		buf = append(buf, value.str...)
		return append(buf, 0x0), nil
	case TypeArray:
		return appendArray(buf, value.arr, maxDepth)
	case TypeObject:
		return appendObject(buf, value.obj, maxDepth)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrBadTypeCode, value.Type())
	}
}
