// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"cmp"
	"slices"
)

// colliderPair is a candidate pair from the broad phase, ordered so
// that a has the lower key.
type colliderPair struct {
	a, b *collider
}

// movable reports whether the solver can move the body.
func movable(b Body) bool {
	switch x := b.(type) {
	case *RigidBody:
		return x.Type == Dynamic
	case *Link:
		return x.movable()
	}
	return false
}

// movable reports whether any degree of freedom moves the link.
func (ln *Link) movable() bool {
	for l := ln; ; l = ln.art.Links[l.Parent] {
		if l.dof >= 0 || (l.Parent < 0 && ln.art.nb > 0) {
			return true
		}
		if l.Parent < 0 {
			return false
		}
	}
}

// canCollide filters pairs: different bodies, at least one movable,
// and not two links of the same articulation.
func canCollide(a, b *collider) bool {
	if a.body == b.body {
		return false
	}
	if !movable(a.body) && !movable(b.body) {
		return false
	}
	la, oka := a.body.(*Link)
	lb, okb := b.body.(*Link)
	return !(oka && okb && la.art == lb.art)
}

// sweepAndPrune returns the overlapping pairs, sorted by body key and
// shape index so that contact order is deterministic.
func sweepAndPrune(cls []*collider) []colliderPair {
	sorted := slices.Clone(cls)
	slices.SortStableFunc(sorted, func(x, y *collider) int {
		if c := cmp.Compare(x.lo[0], y.lo[0]); c != 0 {
			return c
		}
		return cmp.Compare(x.index, y.index)
	})
	var pairs []colliderPair
	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if b.lo[0] > a.hi[0] {
				break
			}
			if !a.overlaps(b) || !canCollide(a, b) {
				continue
			}
			if b.index < a.index {
				pairs = append(pairs, colliderPair{a: b, b: a})
			} else {
				pairs = append(pairs, colliderPair{a: a, b: b})
			}
		}
	}
	slices.SortFunc(pairs, func(x, y colliderPair) int {
		if c := cmp.Compare(x.a.index, y.a.index); c != 0 {
			return c
		}
		return cmp.Compare(x.b.index, y.b.index)
	})
	return pairs
}
