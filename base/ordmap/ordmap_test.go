// Copyright (c) 2022, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ordmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	om := New[string, int]()
	om.Add("a", 1)
	om.Add("b", 2)
	om.Add("c", 3)
	om.Add("a", 10)

	assert.Equal(t, 3, om.Len())
	assert.Equal(t, []int{10, 2, 3}, om.Values())

	v, ok := om.Value("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	assert.True(t, om.Delete("a"))
	assert.False(t, om.Delete("a"))
	assert.Equal(t, []int{2, 3}, om.Values())
	v, ok = om.Value("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	var keys []string
	for k := range om.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestClone(t *testing.T) {
	om := New[int, string]()
	om.Add(1, "x")
	cp := om.Clone()
	om.Add(2, "y")
	cp.Add(1, "z")
	assert.Equal(t, 1, cp.Len())
	v, _ := om.Value(1)
	assert.Equal(t, "x", v)
	assert.True(t, cp.Has(1))
	assert.False(t, cp.Has(2))
}

func TestZeroValue(t *testing.T) {
	var om Map[string, int]
	om.Add("k", 5)
	assert.Equal(t, 1, om.Len())
	assert.True(t, om.Has("k"))
}
