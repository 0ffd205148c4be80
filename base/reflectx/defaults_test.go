// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflectx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Rate  float32 `default:"0.5"`
	Label string  `default:"in"`
}

type settings struct {
	Name    string     `default:"sim"`
	Steps   int        `default:"20"`
	Mask    uint8      `default:"0x0f"`
	Scale   float64    `default:"0.002"`
	On      bool       `default:"true"`
	Gravity [3]float64 `default:"[0, 0, -9.81]"`
	Tags    []string   `default:"['a', 'b']"`
	Plain   int
	Inner   inner
	Ptr     *inner
	NilPtr  *inner
	hidden  int `default:"3"`
}

func TestSetFromDefaultTags(t *testing.T) {
	st := &settings{Plain: 7, Ptr: &inner{}}
	require.NoError(t, SetFromDefaultTags(st))
	assert.Equal(t, "sim", st.Name)
	assert.Equal(t, 20, st.Steps)
	assert.Equal(t, uint8(15), st.Mask)
	assert.Equal(t, 0.002, st.Scale)
	assert.True(t, st.On)
	assert.Equal(t, [3]float64{0, 0, -9.81}, st.Gravity)
	assert.Equal(t, []string{"a", "b"}, st.Tags)
	assert.Equal(t, 7, st.Plain)
	assert.Equal(t, inner{Rate: 0.5, Label: "in"}, st.Inner)
	assert.Equal(t, inner{Rate: 0.5, Label: "in"}, *st.Ptr)
	assert.Nil(t, st.NilPtr)
	assert.Equal(t, 0, st.hidden)
}

func TestSetFromDefaultTagsErrors(t *testing.T) {
	type bad struct {
		N    int     `default:"many"`
		F    float64 `default:"1.5"`
		Func func()  `default:"x"`
	}
	b := &bad{}
	assert.Error(t, SetFromDefaultTags(b))
	assert.Equal(t, 1.5, b.F)

	assert.NoError(t, SetFromDefaultTags(nil))
	assert.NoError(t, SetFromDefaultTags(settings{}))
}

func TestSetFromString(t *testing.T) {
	var i int16
	assert.Error(t, SetFromString(reflect.ValueOf(&i).Elem(), "70000"))
	assert.Error(t, SetFromString(reflect.ValueOf(i), "1"))
	require.NoError(t, SetFromString(reflect.ValueOf(&i).Elem(), "-12"))
	assert.Equal(t, int16(-12), i)
}
