// Package sd implements BPXSD, the schema-less structured data language
// used for container metadata and extended symbol data.
//
// A Value is one of fifteen tagged variants: Null, Bool, the eight
// fixed-width integers, two floats, String, Array and Object. Objects map
// 64-bit key hashes to values in insertion order; keys are hashed with
// djb2 so the original names never appear on disk. Collections hold at
// most 255 entries, and encoding and decoding enforce a maximum nesting
// depth.
package sd

import "math"

// Type is a BPXSD value type code as stored on disk.
type Type uint8

const (
	TypeNull   Type = 0x0
	TypeBool   Type = 0x1
	TypeUint8  Type = 0x2
	TypeUint16 Type = 0x3
	TypeUint32 Type = 0x4
	TypeUint64 Type = 0x5
	TypeInt8   Type = 0x6
	TypeInt16  Type = 0x7
	TypeInt32  Type = 0x8
	TypeInt64  Type = 0x9
	TypeFloat  Type = 0xA
	TypeDouble Type = 0xB
	TypeString Type = 0xC
	TypeArray  Type = 0xD
	TypeObject Type = 0xE
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeUint64:
		return "uint64"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one BPXSD value. The zero Value is Null.
type Value struct {
	typ Type
	num uint64
	str string
	arr *Array
	obj *Object
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a bool.
func Bool(v bool) Value {
	var num uint64
	if v {
		num = 1
	}

	return Value{typ: TypeBool, num: num}
}

// U8 wraps an 8-bit unsigned integer.
func U8(v uint8) Value { return Value{typ: TypeUint8, num: uint64(v)} }

// U16 wraps a 16-bit unsigned integer.
func U16(v uint16) Value { return Value{typ: TypeUint16, num: uint64(v)} }

// U32 wraps a 32-bit unsigned integer.
func U32(v uint32) Value { return Value{typ: TypeUint32, num: uint64(v)} }

// U64 wraps a 64-bit unsigned integer.
func U64(v uint64) Value { return Value{typ: TypeUint64, num: v} }

// I8 wraps an 8-bit integer.
func I8(v int8) Value { return Value{typ: TypeInt8, num: uint64(uint8(v))} }

// I16 wraps a 16-bit integer.
func I16(v int16) Value { return Value{typ: TypeInt16, num: uint64(uint16(v))} }

// I32 wraps a 32-bit integer.
func I32(v int32) Value { return Value{typ: TypeInt32, num: uint64(uint32(v))} }

// I64 wraps a 64-bit integer.
func I64(v int64) Value { return Value{typ: TypeInt64, num: uint64(v)} }

// F32 wraps a 32-bit float.
func F32(v float32) Value { return Value{typ: TypeFloat, num: uint64(math.Float32bits(v))} }

// F64 wraps a 64-bit float.
func F64(v float64) Value { return Value{typ: TypeDouble, num: math.Float64bits(v)} }

// String wraps a string.
func String(v string) Value { return Value{typ: TypeString, str: v} }

// ArrayValue wraps an array.
func ArrayValue(v *Array) Value { return Value{typ: TypeArray, arr: v} }

// ObjectValue wraps an object.
func ObjectValue(v *Object) Value { return Value{typ: TypeObject, obj: v} }

// Type returns the value's type code.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// AsBool returns the bool payload.
func (v Value) AsBool() (bool, bool) {
	if v.typ != TypeBool {
		return false, false
	}

	return v.num != 0, true
}

// AsU8 returns the uint8 payload.
func (v Value) AsU8() (uint8, bool) {
	if v.typ != TypeUint8 {
		return 0, false
	}

	return uint8(v.num), true
}

// AsU16 returns the payload widened from any unsigned type up to 16 bits.
func (v Value) AsU16() (uint16, bool) {
	switch v.typ {
	case TypeUint8, TypeUint16:
		return uint16(v.num), true
	default:
		return 0, false
	}
}

// AsU32 returns the payload widened from any unsigned type up to 32 bits.
func (v Value) AsU32() (uint32, bool) {
	switch v.typ {
	case TypeUint8, TypeUint16, TypeUint32:
		return uint32(v.num), true
	default:
		return 0, false
	}
}

// AsU64 returns the payload widened from any unsigned type.
func (v Value) AsU64() (uint64, bool) {
	switch v.typ {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return v.num, true
	default:
		return 0, false
	}
}

// AsI8 returns the int8 payload.
func (v Value) AsI8() (int8, bool) {
	if v.typ != TypeInt8 {
		return 0, false
	}

	return int8(uint8(v.num)), true
}

// AsI16 returns the payload widened from any signed type up to 16 bits.
func (v Value) AsI16() (int16, bool) {
	switch v.typ {
	case TypeInt8:
		return int16(int8(uint8(v.num))), true
	case TypeInt16:
		return int16(uint16(v.num)), true
	default:
		return 0, false
	}
}

// AsI32 returns the payload widened from any signed type up to 32 bits.
func (v Value) AsI32() (int32, bool) {
	switch v.typ {
	case TypeInt8:
		return int32(int8(uint8(v.num))), true
	case TypeInt16:
		return int32(int16(uint16(v.num))), true
	case TypeInt32:
		return int32(uint32(v.num)), true
	default:
		return 0, false
	}
}

// AsI64 returns the payload widened from any signed type.
func (v Value) AsI64() (int64, bool) {
	switch v.typ {
	case TypeInt8:
		return int64(int8(uint8(v.num))), true
	case TypeInt16:
		return int64(int16(uint16(v.num))), true
	case TypeInt32:
		return int64(int32(uint32(v.num))), true
	case TypeInt64:
		return int64(v.num), true
	default:
		return 0, false
	}
}

// AsF32 returns the float32 payload.
func (v Value) AsF32() (float32, bool) {
	if v.typ != TypeFloat {
		return 0, false
	}

	return math.Float32frombits(uint32(v.num)), true
}

// AsF64 returns the payload widened from either float type.
func (v Value) AsF64() (float64, bool) {
	switch v.typ {
	case TypeFloat:
		return float64(math.Float32frombits(uint32(v.num))), true
	case TypeDouble:
		return math.Float64frombits(v.num), true
	default:
		return 0, false
	}
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.typ != TypeString {
		return "", false
	}

	return v.str, true
}

// AsArray returns the array payload.
func (v Value) AsArray() (*Array, bool) {
	if v.typ != TypeArray {
		return nil, false
	}

	return v.arr, true
}

// AsObject returns the object payload.
func (v Value) AsObject() (*Object, bool) {
	if v.typ != TypeObject {
		return nil, false
	}

	return v.obj, true
}
