/*
 * Copyright (c) 2018 XLAB d.o.o
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package matrix implements matrices over GF(2), stored column-major as a
// slice of bitvec.Vector, with Gauss-Jordan inversion and the Goppa
// generator extraction keygen for the classical and Niederreiter variants
// relies on.
package matrix

import (
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/perm"
)

// Matrix is a GF(2) matrix stored as a slice of columns.
type Matrix struct {
	Cols []*bitvec.Vector
}

// New returns a zero matrix of the given width (columns) and height
// (rows).
func New(width, height int) *Matrix {
	cols := make([]*bitvec.Vector, width)
	for i := range cols {
		cols[i] = bitvec.New(height)
	}
	return &Matrix{Cols: cols}
}

// Width returns the number of columns.
func (m *Matrix) Width() int { return len(m.Cols) }

// Height returns the number of rows.
func (m *Matrix) Height() int {
	if len(m.Cols) == 0 {
		return 0
	}
	return m.Cols[0].Len()
}

// Get returns the bit at (row, col).
func (m *Matrix) Get(row, col int) bool {
	return m.Cols[col].Get(row)
}

// Set assigns the bit at (row, col).
func (m *Matrix) Set(row, col int, val bool) {
	m.Cols[col].Set(row, val)
}

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	cols := make([]*bitvec.Vector, len(m.Cols))
	for i, c := range m.Cols {
		cols[i] = c.Clone()
	}
	return &Matrix{Cols: cols}
}

// Unit returns the n x n identity matrix.
func Unit(n int) *Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, true)
	}
	return m
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	w, h := m.Width(), m.Height()
	t := New(h, w)
	for c := 0; c < w; c++ {
		for r := 0; r < h; r++ {
			if m.Get(r, c) {
				t.Set(c, r, true)
			}
		}
	}
	return t
}

// Mult returns m * other (right multiplication).
func (m *Matrix) Mult(other *Matrix) (*Matrix, error) {
	if m.Width() != other.Height() {
		return nil, errors.New("matrix: dimension mismatch in multiplication")
	}
	r := New(other.Width(), m.Height())
	for oc := 0; oc < other.Width(); oc++ {
		acc := bitvec.New(m.Height())
		for k := 0; k < m.Width(); k++ {
			if other.Get(k, oc) {
				acc.Add(m.Cols[k])
			}
		}
		r.Cols[oc] = acc
	}
	return r, nil
}

// MultVector returns m * v (v interpreted as a column vector).
func (m *Matrix) MultVector(v *bitvec.Vector) (*bitvec.Vector, error) {
	if m.Width() != v.Len() {
		return nil, errors.New("matrix: dimension mismatch in matrix-vector product")
	}
	acc := bitvec.New(m.Height())
	for k := 0; k < m.Width(); k++ {
		if v.Get(k) {
			acc.Add(m.Cols[k])
		}
	}
	return acc, nil
}

// MultVecLeft returns v * m (v interpreted as a row vector on the left):
// out[j] = dot(v, column j). Used to encode a plaintext through a
// systematic generator matrix, where the message is the row vector.
func (m *Matrix) MultVecLeft(v *bitvec.Vector) (*bitvec.Vector, error) {
	if m.Height() != v.Len() {
		return nil, errors.New("matrix: dimension mismatch in vector-matrix product")
	}
	out := bitvec.New(m.Width())
	for j, col := range m.Cols {
		out.Set(j, v.Dot(col))
	}
	return out, nil
}

// ComputeInversion inverts m via Gauss-Jordan elimination with row
// pivoting. upperTri/lowerTri let callers skip the a-priori-zero
// elimination passes when m is known triangular. Returns an error if m is
// singular.
func ComputeInversion(m *Matrix, upperTri, lowerTri bool) (*Matrix, error) {
	n := m.Width()
	if m.Height() != n {
		return nil, errors.New("matrix: inversion requires a square matrix")
	}

	work := m.Clone()
	inv := Unit(n)

	for col := 0; col < n; col++ {
		pivot := -1
		for row := col; row < n; row++ {
			if work.Get(row, col) {
				pivot = row
				break
			}
		}
		if pivot < 0 {
			return nil, errors.New("matrix: singular matrix, no inversion exists")
		}
		if pivot != col {
			swapRows(work, pivot, col)
			swapRows(inv, pivot, col)
		}

		if !lowerTri {
			for row := 0; row < col; row++ {
				if work.Get(row, col) {
					xorRow(work, row, col)
					xorRow(inv, row, col)
				}
			}
		}
		if !upperTri {
			for row := col + 1; row < n; row++ {
				if work.Get(row, col) {
					xorRow(work, row, col)
					xorRow(inv, row, col)
				}
			}
		}
	}

	return inv, nil
}

func swapRows(m *Matrix, a, b int) {
	for _, c := range m.Cols {
		va, vb := c.Get(a), c.Get(b)
		c.Set(a, vb)
		c.Set(b, va)
	}
}

// xorRow adds (row `src`'s pivot row, i.e. row `pivot`) into row `dst`
// across every column. Here `pivot` is taken to be the column index being
// eliminated, consistent with Gauss-Jordan: add row `pivot` into row
// `dst`.
func xorRow(m *Matrix, dst, pivot int) {
	for _, c := range m.Cols {
		if c.Get(pivot) {
			c.Set(dst, !c.Get(dst))
		}
	}
}

// GetBlock extracts the sub-matrix [col0:col0+w) x [row0:row0+h).
func (m *Matrix) GetBlock(row0, col0, w, h int) *Matrix {
	r := New(w, h)
	for c := 0; c < w; c++ {
		r.Cols[c] = m.Cols[col0+c].GetBlock(row0, h)
	}
	return r
}

// SetBlock writes sub into m at (row0, col0).
func (m *Matrix) SetBlock(row0, col0 int, sub *Matrix) {
	for c := 0; c < sub.Width(); c++ {
		m.Cols[col0+c].SetBlock(sub.Cols[c], row0)
	}
}

// RightSquare returns the right height x height square block of m
// (m must have width >= height).
func (m *Matrix) RightSquare() (*Matrix, error) {
	h := m.Height()
	w := m.Width()
	if w < h {
		return nil, errors.New("matrix: matrix narrower than tall, no right square block")
	}
	return m.GetBlock(0, w-h, h, h), nil
}

// StripRightSquare returns m with its right height-wide square block
// removed.
func (m *Matrix) StripRightSquare() (*Matrix, error) {
	h := m.Height()
	w := m.Width()
	if w < h {
		return nil, errors.New("matrix: matrix narrower than tall, no right square block")
	}
	return m.GetBlock(0, 0, w-h, h), nil
}

// ExtendLeftCompact prepends the identity matrix to the left of m,
// returning [I | m].
func (m *Matrix) ExtendLeftCompact() *Matrix {
	h := m.Height()
	r := New(h+m.Width(), h)
	for i := 0; i < h; i++ {
		r.Cols[i].Set(i, true)
	}
	for c := 0; c < m.Width(); c++ {
		r.Cols[h+c] = m.Cols[c].Clone()
	}
	return r
}

// CreateGoppaGenerator applies a random column permutation to the check
// matrix h, inverts its right square block (retrying with a fresh
// permutation on singularity, up to maxAttempts times), computes
// S = Hr^-1 * H_permuted, strips the square block back off, and returns
// the systematic generator G = [I | transpose(S-with-square-stripped)]
// together with the permutation used, such that G * H_permuted^T = 0.
func CreateGoppaGenerator(h *Matrix, rng io.Reader, maxAttempts int) (gen *Matrix, usedPerm *perm.Perm, err error) {
	n := h.Width()
	for attempt := 0; attempt < maxAttempts; attempt++ {
		p, err := perm.Random(n, rng)
		if err != nil {
			return nil, nil, err
		}

		permuted := applyColumnPermutation(h, p)

		hr, err := permuted.RightSquare()
		if err != nil {
			return nil, nil, err
		}

		hrInv, err := ComputeInversion(hr, false, false)
		if err != nil {
			continue // singular right block, retry with a fresh permutation
		}

		s, err := hrInv.Mult(permuted)
		if err != nil {
			return nil, nil, err
		}

		sStripped, err := s.StripRightSquare()
		if err != nil {
			return nil, nil, err
		}

		g := sStripped.Transpose().ExtendLeftCompact()
		return g, p, nil
	}
	return nil, nil, errors.New("matrix: could not build Goppa generator within attempt budget")
}

// CreateGoppaGeneratorWithPerm rebuilds the generator for an explicit,
// already-chosen permutation (the private-key "prepare" path, where the
// permutation was already sampled once at keygen and is now being
// replayed to recompute cached derived state).
func CreateGoppaGeneratorWithPerm(h *Matrix, p *perm.Perm) (*Matrix, error) {
	permuted := applyColumnPermutation(h, p)
	hr, err := permuted.RightSquare()
	if err != nil {
		return nil, err
	}
	hrInv, err := ComputeInversion(hr, false, false)
	if err != nil {
		return nil, err
	}
	s, err := hrInv.Mult(permuted)
	if err != nil {
		return nil, err
	}
	sStripped, err := s.StripRightSquare()
	if err != nil {
		return nil, err
	}
	return sStripped.Transpose().ExtendLeftCompact(), nil
}

func applyColumnPermutation(m *Matrix, p *perm.Perm) *Matrix {
	r := New(m.Width(), m.Height())
	for i, col := range m.Cols {
		r.Cols[p.Apply(i)] = col.Clone()
	}
	return r
}
