// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import "errors"

// Sentinel errors of the simulation kernel. Operations wrap them with
// context using fmt.Errorf and the %w verb, so callers test them with [Is].
var (
	// ErrInvalidArgument is returned for out-of-range numeric inputs,
	// such as a non-positive density or timestep.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousName is returned when a name lookup matches more than one item.
	ErrAmbiguousName = errors.New("ambiguous name")

	// ErrNotPresent is returned when removing something that is not a member.
	ErrNotPresent = errors.New("not present")

	// ErrAlreadyPresent is returned when adding something that is already a member.
	ErrAlreadyPresent = errors.New("already present")

	// ErrDimensionMismatch is returned when a vector length does not match a DOF count.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrAssetLoadFailure is returned when an asset description cannot be read or parsed.
	ErrAssetLoadFailure = errors.New("asset load failure")

	// ErrUnsupportedMode is returned for render modes or channels that are not implemented.
	ErrUnsupportedMode = errors.New("unsupported mode")

	// ErrInvalidState is returned for operations that are illegal in the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrCorrupted is returned by every step after the simulation state became non-finite.
	ErrCorrupted = errors.New("simulation state corrupted")
)
