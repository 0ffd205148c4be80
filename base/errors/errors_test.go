// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog1(t *testing.T) {
	assert.Equal(t, 3, Log1(3, nil))
	assert.Equal(t, 0, Log1(0, fmt.Errorf("bad value: %w", ErrInvalidArgument)))
}

func TestWrappedSentinels(t *testing.T) {
	err := fmt.Errorf("sim.Scene: entity %q: %w", "box", ErrNotPresent)
	assert.True(t, Is(err, ErrNotPresent))
	assert.False(t, Is(err, ErrAlreadyPresent))
	assert.ErrorIs(t, Log(err), ErrNotPresent)
	assert.Nil(t, Log(nil))
}

func TestMust(t *testing.T) {
	assert.Panics(t, func() { Must(ErrInvalidState) })
	assert.NotPanics(t, func() { Must(nil) })
	assert.Equal(t, "x", Must1("x", nil))
}
