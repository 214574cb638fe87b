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

// Package qd implements the quasi-dyadic matrix utilities MCE-QD key
// generation and encryption build on: a Fast Walsh-Hadamard Transform (FWHT)
// based O(t log t) multiply of dyadic-matrix signatures, and a blockwise
// Gauss-Jordan reduction of a matrix of such signatures to right echelon
// form (spec.md §4.x quasi-dyadic structures).
package qd

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
)

// fwht computes the Fast Walsh-Hadamard Transform of x in place over the
// integers, ping-ponging between two buffers (the original's in-place
// swap dance, unrolled into a plain two-buffer loop).
func fwht(input []int) []int {
	n := len(input)
	cur := append([]int(nil), input...)
	next := make([]int, n)
	for bs := n >> 1; bs > 0; bs >>= 1 {
		for i := 0; i < n; i++ {
			if (i/bs)&1 == 1 {
				next[i] = cur[i-bs] - cur[i]
			} else {
				next[i] = cur[i] + cur[i+bs]
			}
		}
		cur, next = next, cur
	}
	return cur
}

// DyadicMultiply computes the signature of the product of the two
// dyadic matrices whose (Delta-construction) signatures are a and b, in
// O(t log t) using three FWHTs instead of the O(t^2) naive dyadic-matrix
// product.
func DyadicMultiply(a, b *bitvec.Vector) *bitvec.Vector {
	n := a.Len()

	ta := make([]int, n)
	tb := make([]int, n)
	for i := 0; i < n; i++ {
		if a.Get(i) {
			ta[i] = 1
		}
		if b.Get(i) {
			tb[i] = 1
		}
	}

	ga := fwht(ta)
	gb := fwht(tb)
	for i := range ga {
		ga[i] *= gb[i]
	}
	prod := fwht(ga)

	bitpos := n
	out := bitvec.New(n)
	for i := 0; i < n; i++ {
		if prod[i]&bitpos != 0 {
			out.Set(i, true)
		}
	}
	return out
}

// ToRightEchelonForm reduces a w-by-h block matrix of bs-size dyadic
// signatures (mat[col][row]) to right echelon form in place by blockwise
// Gauss-Jordan elimination, where every pivot operation is an O(t log t)
// DyadicMultiply instead of an O(t^2) general matrix inversion. Returns
// false if the right square of the matrix is singular.
func ToRightEchelonForm(mat [][]*bitvec.Vector) bool {
	w := len(mat)
	if w == 0 {
		return false
	}
	h := len(mat[0])
	if h == 0 {
		return false
	}

	for i := 0; i < h; i++ {
		// find a row with an odd-weight (nonsingular) pivot block
		j := i
		for ; j < h; j++ {
			if mat[w-h+i][j].HammingWeight()%2 == 1 {
				break
			}
		}
		if j >= h {
			return false
		}
		if j > i {
			for k := 0; k < w; k++ {
				mat[k][i], mat[k][j] = mat[k][j], mat[k][i]
			}
		}

		for j := i; j < h; j++ {
			l := mat[w-h+i][j].HammingWeight()
			if l == 0 {
				continue
			}
			if l%2 == 0 {
				for k := 0; k < w; k++ {
					mat[k][j].Add(mat[k][i])
				}
			}

			for k := 0; k < w; k++ {
				if k == w-h+i {
					continue
				}
				mat[k][j] = DyadicMultiply(mat[w-h+i][j], mat[k][j])
			}
			mat[w-h+i][j] = DyadicMultiply(mat[w-h+i][j], mat[w-h+i][j])

			if j > i {
				for k := 0; k < w; k++ {
					mat[k][j].Add(mat[k][i])
				}
			}
		}
	}

	for i := 0; i < h; i++ {
		for k := 0; k < w-i; k++ {
			mat[k][h-i-1] = DyadicMultiply(mat[w-i-1][h-i-1], mat[k][h-i-1])
		}

		for j := i + 1; j < h; j++ {
			l := mat[w-i-1][h-j-1].HammingWeight()
			if l == 0 {
				continue
			}
			if l%2 == 0 {
				for k := 0; k < w; k++ {
					mat[k][h-j-1].Add(mat[k][h-i-1])
				}
			}
			for k := 0; k < w-i; k++ {
				mat[k][h-j-1] = DyadicMultiply(mat[w-i-1][h-j-1], mat[k][h-j-1])
			}
			for k := 0; k < w; k++ {
				mat[k][h-j-1].Add(mat[k][h-i-1])
			}
		}
	}

	return true
}

// ChooseRandom draws a value in [1, limit-1] not already present in
// used, records it, and returns it — a disjunct random selector for
// placing diagonal blocks/support elements without collision; no key
// generator in this module calls it. Returns 0 if the pool is exhausted.
func ChooseRandom(limit int, rng io.Reader, used map[int]bool) (int, error) {
	if limit < 2 || len(used) >= limit-1 {
		return 0, nil
	}
	for {
		a, err := randIndex(rng, limit-1)
		if err != nil {
			return 0, err
		}
		a++ // shift [0, limit-2] to [1, limit-1]
		if used[a] {
			continue
		}
		used[a] = true
		return a, nil
	}
}

func randIndex(rng io.Reader, bound int) (int, error) {
	if bound <= 0 {
		return 0, nil
	}
	var buf [4]byte
	limit := uint32(bound)
	threshold := (uint32(0xFFFFFFFF) / limit) * limit
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return 0, errors.Wrap(err, "qd: reading randomness")
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < threshold || threshold == 0 {
			return int(v % limit), nil
		}
	}
}
