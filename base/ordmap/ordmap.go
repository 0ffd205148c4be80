// Copyright (c) 2022, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ordmap implements an ordered map that retains the order in which
items were added, while also providing fast key-based lookup.

A slice holds the key-value pairs in insertion order and a map holds the
index of each key into that slice, so iteration follows insertion order.
*/
package ordmap

import (
	"fmt"
	"iter"
	"slices"
)

// KeyValue represents a key-value pair.
type KeyValue[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is a generic ordered map.
type Map[K comparable, V any] struct {

	// Order is the list of key-value pairs, in the order added.
	Order []KeyValue[K, V]

	// index maps each key to its position in Order.
	index map[K]int
}

// New returns a new ordered map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{index: make(map[K]int)}
}

// Add sets the value for the given key. An existing key keeps its
// position; a new key is appended at the end.
func (om *Map[K, V]) Add(key K, val V) {
	if om.index == nil {
		om.index = make(map[K]int)
	}
	if idx, has := om.index[key]; has {
		om.Order[idx].Value = val
		return
	}
	om.index[key] = len(om.Order)
	om.Order = append(om.Order, KeyValue[K, V]{Key: key, Value: val})
}

// Value returns the value for the given key and whether it exists.
func (om *Map[K, V]) Value(key K) (V, bool) {
	if idx, ok := om.index[key]; ok {
		return om.Order[idx].Value, true
	}
	var zv V
	return zv, false
}

// Has returns whether the key is in the map.
func (om *Map[K, V]) Has(key K) bool {
	_, ok := om.index[key]
	return ok
}

// Delete removes the item with the given key, returning false if it
// was not present. Later items shift down, preserving order.
func (om *Map[K, V]) Delete(key K) bool {
	idx, ok := om.index[key]
	if !ok {
		return false
	}
	for o := idx + 1; o < len(om.Order); o++ {
		om.index[om.Order[o].Key] = o - 1
	}
	delete(om.index, key)
	om.Order = slices.Delete(om.Order, idx, idx+1)
	return true
}

// Len returns the number of items in the map.
func (om *Map[K, V]) Len() int {
	if om == nil {
		return 0
	}
	return len(om.Order)
}

// Values returns a slice of the values in order.
func (om *Map[K, V]) Values() []V {
	vl := make([]V, om.Len())
	for i, kv := range om.Order {
		vl[i] = kv.Value
	}
	return vl
}

// All iterates over the key-value pairs in order.
func (om *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, kv := range om.Order {
			if !yield(kv.Key, kv.Value) {
				return
			}
		}
	}
}

// Clone returns a shallow copy of the map: the values themselves
// are copied by assignment.
func (om *Map[K, V]) Clone() *Map[K, V] {
	cp := &Map[K, V]{
		Order: slices.Clone(om.Order),
		index: make(map[K]int, om.Len()),
	}
	for i, kv := range cp.Order {
		cp.index[kv.Key] = i
	}
	return cp
}

// String returns a string representation of the map.
func (om *Map[K, V]) String() string {
	return fmt.Sprintf("%v", om.Order)
}
