package sd

import "iter"

// Hash computes the djb2 hash of a property name. BPXSD objects store only
// these 64-bit hashes on disk, never the names themselves.
func Hash(name string) uint64 {
	var h uint64 = 5381
	for _, b := range []byte(name) {
		h = ((h << 5) + h) + uint64(b)
	}

	return h
}

// Object is an insertion-ordered map from 64-bit key hash to Value.
type Object struct {
	keys  []uint64
	props map[uint64]Value
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{props: make(map[uint64]Value)}
}

// Set stores a property under the hash of name.
func (o *Object) Set(name string, value Value) {
	o.RawSet(Hash(name), value)
}

// RawSet stores a property under a precomputed key hash. Re-setting an
// existing key keeps its original position.
func (o *Object) RawSet(hash uint64, value Value) {
	if _, exists := o.props[hash]; !exists {
		o.keys = append(o.keys, hash)
	}
	o.props[hash] = value
}

// Get returns the property stored under the hash of name.
func (o *Object) Get(name string) (Value, bool) {
	return o.RawGet(Hash(name))
}

// RawGet returns the property stored under a precomputed key hash.
func (o *Object) RawGet(hash uint64) (Value, bool) {
	v, ok := o.props[hash]
	return v, ok
}

// Len returns the number of properties.
func (o *Object) Len() int {
	return len(o.keys)
}

// All iterates over the properties in insertion order.
func (o *Object) All() iter.Seq2[uint64, Value] {
	return func(yield func(uint64, Value) bool) {
		for _, hash := range o.keys {
			if !yield(hash, o.props[hash]) {
				return
			}
		}
	}
}

// Array is an ordered sequence of values.
type Array struct {
	items []Value
}

// NewArray creates an empty array.
func NewArray() *Array {
	return &Array{}
}

// Push appends a value.
func (a *Array) Push(value Value) {
	a.items = append(a.items, value)
}

// Get returns the value at index i.
func (a *Array) Get(i int) Value {
	return a.items[i]
}

// Len returns the number of values.
func (a *Array) Len() int {
	return len(a.items)
}

// All iterates over the values in order.
func (a *Array) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for i, v := range a.items {
			if !yield(i, v) {
				return
			}
		}
	}
}
