// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"cogentcore.org/sim/physics"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is the contact between one collision shape of each of two
// bodies during the last step. Point normals point from the second
// body toward the first, and point impulses act on the first body.
type Contact struct {
	Bodies [2]Body
	Shapes [2]*physics.CollisionShape
	Points []physics.ContactPoint
}

// Entities returns the entities of the two bodies.
func (ct *Contact) Entities() [2]*Entity {
	return [2]*Entity{ct.Bodies[0].AsComponentBase().Entity(), ct.Bodies[1].AsComponentBase().Entity()}
}

// TotalImpulse returns the sum of the point impulses on the first body.
func (ct *Contact) TotalImpulse() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, pt := range ct.Points {
		sum = sum.Add(pt.Impulse)
	}
	return sum
}

// Involves reports whether e is one of the two entities.
func (ct *Contact) Involves(e *Entity) bool {
	es := ct.Entities()
	return es[0] == e || es[1] == e
}

// newContact maps a physics contact to the body components that own
// its bodies; it returns false for bodies without an owner.
func newContact(pc *physics.Contact) (Contact, bool) {
	ct := Contact{Shapes: pc.Shapes, Points: append([]physics.ContactPoint(nil), pc.Points...)}
	for i, b := range pc.Bodies {
		owner, ok := b.AsBodyBase().Owner.(Body)
		if !ok {
			return ct, false
		}
		ct.Bodies[i] = owner
	}
	return ct, true
}
