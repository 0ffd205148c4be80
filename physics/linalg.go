// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"math"

	"cogentcore.org/sim/base/errors"
)

// cholesky is the lower triangular factor of a symmetric positive
// definite matrix, stored row-major as a dense n×n slice.
type cholesky struct {
	n int
	l []float64
}

// factor computes the Cholesky factor of the n×n matrix m (row-major).
func (ch *cholesky) factor(m []float64, n int) error {
	ch.n = n
	if cap(ch.l) < n*n {
		ch.l = make([]float64, n*n)
	}
	ch.l = ch.l[:n*n]
	clear(ch.l)
	for i := range n {
		for j := 0; j <= i; j++ {
			s := m[i*n+j]
			for k := range j {
				s -= ch.l[i*n+k] * ch.l[j*n+k]
			}
			if i == j {
				if !(s > 0) {
					return fmt.Errorf("physics: mass matrix is not positive definite at row %d: %w", i, errors.ErrInvalidState)
				}
				ch.l[i*n+i] = math.Sqrt(s)
			} else {
				ch.l[i*n+j] = s / ch.l[j*n+j]
			}
		}
	}
	return nil
}

// solve returns x with L Lᵀ x = b.
func (ch *cholesky) solve(b []float64) []float64 {
	n := ch.n
	x := make([]float64, n)
	copy(x, b)
	for i := range n {
		s := x[i]
		for k := range i {
			s -= ch.l[i*n+k] * x[k]
		}
		x[i] = s / ch.l[i*n+i]
	}
	for i := n - 1; i >= 0; i-- {
		s := x[i]
		for k := i + 1; k < n; k++ {
			s -= ch.l[k*n+i] * x[k]
		}
		x[i] = s / ch.l[i*n+i]
	}
	return x
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
