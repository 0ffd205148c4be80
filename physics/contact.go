// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "github.com/go-gl/mathgl/mgl64"

// ContactPoint is one point of a [Contact].
type ContactPoint struct {

	// Position is the world position, midway between the two surfaces.
	Position mgl64.Vec3

	// Normal is the unit normal pointing from the second body toward the first.
	Normal mgl64.Vec3

	// Impulse is the normal impulse applied to the first body during
	// the step (force times dt). The second body receives its negation.
	Impulse mgl64.Vec3

	// Separation is the signed distance between the surfaces along
	// Normal: positive for a gap, negative for penetration.
	Separation float64
}

// Contact is the set of contact points between two shapes of two bodies
// found during a step.
type Contact struct {
	Bodies [2]Body
	Shapes [2]*CollisionShape
	Points []ContactPoint
}

// TotalImpulse returns the sum of the point impulses on the first body.
func (ct *Contact) TotalImpulse() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, pt := range ct.Points {
		sum = sum.Add(pt.Impulse)
	}
	return sum
}

// pairKey identifies a shape pair across steps for warm starting.
type pairKey struct {
	a, b *CollisionShape
}

// cachedPoint is the accumulated impulse of a contact point, kept for
// warm starting the next step.
type cachedPoint struct {
	pos       mgl64.Vec3
	normal    mgl64.Vec3
	n, t1, t2 float64
}
