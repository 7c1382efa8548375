package sd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bpx/errs"
)

func TestHash(t *testing.T) {
	// djb2 reference values.
	require.Equal(t, uint64(5381), Hash(""))
	require.Equal(t, uint64(5381*33+'a'), Hash("a"))
	require.NotEqual(t, Hash("Test"), Hash("test"))
}

func TestObject_InsertionOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("charlie", U8(3))
	obj.Set("alpha", U8(1))
	obj.Set("bravo", U8(2))

	var hashes []uint64
	for hash := range obj.All() {
		hashes = append(hashes, hash)
	}
	require.Equal(t, []uint64{Hash("charlie"), Hash("alpha"), Hash("bravo")}, hashes)

	// Re-setting keeps the original position.
	obj.Set("charlie", U8(9))
	require.Equal(t, 3, obj.Len())
	v, ok := obj.Get("charlie")
	require.True(t, ok)
	got, ok := v.AsU8()
	require.True(t, ok)
	require.Equal(t, uint8(9), got)
}

func TestValue_Accessors(t *testing.T) {
	v, ok := I16(-5).AsI64()
	require.True(t, ok)
	require.Equal(t, int64(-5), v)

	u, ok := U16(7).AsU64()
	require.True(t, ok)
	require.Equal(t, uint64(7), u)

	// Narrowing is refused.
	_, ok = U64(7).AsU32()
	require.False(t, ok)
	_, ok = I64(7).AsI32()
	require.False(t, ok)
	_, ok = F64(1.5).AsF32()
	require.False(t, ok)

	f, ok := F32(1.5).AsF64()
	require.True(t, ok)
	require.Equal(t, 1.5, f)

	require.True(t, Null().IsNull())
	require.False(t, Bool(false).IsNull())
}

func sampleObject() *Object {
	arr := NewArray()
	arr.Push(U32(42))
	arr.Push(String("in array"))
	arr.Push(Null())

	nested := NewObject()
	nested.Set("pi", F64(3.14159))
	nested.Set("flag", Bool(true))

	obj := NewObject()
	obj.Set("null", Null())
	obj.Set("bool", Bool(true))
	obj.Set("u8", U8(0xFF))
	obj.Set("u16", U16(0xFFFF))
	obj.Set("u32", U32(0xFFFFFFFF))
	obj.Set("u64", U64(0xFFFFFFFFFFFFFFFF))
	obj.Set("i8", I8(-128))
	obj.Set("i16", I16(-32768))
	obj.Set("i32", I32(-2147483648))
	obj.Set("i64", I64(-9223372036854775808))
	obj.Set("f32", F32(1.25))
	obj.Set("f64", F64(-2.5))
	obj.Set("str", String("hello 你好"))
	obj.Set("arr", ArrayValue(arr))
	obj.Set("obj", ObjectValue(nested))

	return obj
}

func TestRoundTrip(t *testing.T) {
	obj := sampleObject()

	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, obj, DefaultMaxDepth))

	parsed, err := ReadObject(&buf, DefaultMaxDepth)
	require.NoError(t, err)
	require.Equal(t, obj, parsed)
}

func TestRoundTrip_EmptyObject(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, NewObject(), DefaultMaxDepth))
	require.Equal(t, []byte{0}, buf.Bytes())

	parsed, err := ReadObject(&buf, DefaultMaxDepth)
	require.NoError(t, err)
	require.Equal(t, 0, parsed.Len())
}

func TestWrite_CapacityExceeded(t *testing.T) {
	obj := NewObject()
	for i := range 256 {
		obj.Set(fmt.Sprintf("key%d", i), U8(uint8(i)))
	}

	var buf bytes.Buffer
	err := WriteObject(&buf, obj, DefaultMaxDepth)
	require.ErrorIs(t, err, errs.ErrCapacityExceeded)
}

func TestWrite_ArrayCapacityExceeded(t *testing.T) {
	arr := NewArray()
	for range 256 {
		arr.Push(Null())
	}
	obj := NewObject()
	obj.Set("big", ArrayValue(arr))

	var buf bytes.Buffer
	err := WriteObject(&buf, obj, DefaultMaxDepth)
	require.ErrorIs(t, err, errs.ErrCapacityExceeded)
}

func TestWrite_MaxDepthExceeded(t *testing.T) {
	// Build a chain of nested objects deeper than the limit.
	root := NewObject()
	current := root
	for range DefaultMaxDepth {
		child := NewObject()
		current.Set("child", ObjectValue(child))
		current = child
	}

	var buf bytes.Buffer
	err := WriteObject(&buf, root, DefaultMaxDepth)
	require.ErrorIs(t, err, errs.ErrMaxDepthExceeded)

	// A shallow tree with a generous limit is fine.
	buf.Reset()
	require.NoError(t, WriteObject(&buf, sampleObject(), DefaultMaxDepth))
}

func TestRead_MaxDepthExceeded(t *testing.T) {
	// Encode a moderately nested tree, then decode it with a tight limit.
	root := NewObject()
	current := root
	for range 5 {
		child := NewObject()
		current.Set("child", ObjectValue(child))
		current = child
	}

	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, root, DefaultMaxDepth))

	_, err := ReadObject(&buf, 3)
	require.ErrorIs(t, err, errs.ErrMaxDepthExceeded)
}

func TestRead_BadTypeCode(t *testing.T) {
	// count=1, key hash, bogus type code 0x7F.
	data := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0x7F}
	_, err := ReadObject(bytes.NewReader(data), DefaultMaxDepth)
	require.ErrorIs(t, err, errs.ErrBadTypeCode)
}

func TestRead_Truncated(t *testing.T) {
	obj := NewObject()
	obj.Set("v", U64(12345))

	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, obj, DefaultMaxDepth))

	data := buf.Bytes()
	_, err := ReadObject(bytes.NewReader(data[:len(data)-2]), DefaultMaxDepth)
	require.ErrorIs(t, err, errs.ErrTruncatedValue)
}

func TestRead_InvalidUTF8(t *testing.T) {
	obj := NewObject()
	obj.Set("s", String("ok"))

	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, obj, DefaultMaxDepth))

	data := buf.Bytes()
	// Corrupt the string payload with a lone continuation byte.
	data[len(data)-2] = 0x80
	_, err := ReadObject(bytes.NewReader(data), DefaultMaxDepth)
	require.ErrorIs(t, err, errs.ErrInvalidUTF8)
}

func TestWire_Layout(t *testing.T) {
	obj := NewObject()
	obj.Set("k", U16(0x1234))

	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, obj, DefaultMaxDepth))

	data := buf.Bytes()
	require.Equal(t, byte(1), data[0]) // count
	// 8-byte LE key hash.
	var hash uint64
	for i := 7; i >= 0; i-- {
		hash = hash<<8 | uint64(data[1+i])
	}
	require.Equal(t, Hash("k"), hash)
	require.Equal(t, byte(TypeUint16), data[9])
	require.Equal(t, []byte{0x34, 0x12}, data[10:12])
}
