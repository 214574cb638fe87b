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

// Package perm implements index-array permutations: inversion, uniform
// random generation via a Knuth shuffle, sequence application, and the
// "dyadic permutation" helper used by the quasi-dyadic variant.
package perm

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
)

// Perm is a permutation of {0, ..., len(P)-1}; P[i] is the image of i.
type Perm struct {
	P []int
}

// Identity returns the identity permutation of size n.
func Identity(n int) *Perm {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &Perm{P: p}
}

// Random returns a uniformly random permutation of size n, sampled with a
// Knuth (Fisher-Yates) shuffle seeded from rng.
func Random(n int, rng io.Reader) (*Perm, error) {
	p := Identity(n)
	for i := n - 1; i > 0; i-- {
		j, err := randIndex(rng, i+1)
		if err != nil {
			return nil, err
		}
		p.P[i], p.P[j] = p.P[j], p.P[i]
	}
	return p, nil
}

func randIndex(rng io.Reader, bound int) (int, error) {
	if bound <= 0 {
		return 0, nil
	}
	var buf [4]byte
	limit := uint32(bound)
	// rejection sampling to avoid modulo bias
	threshold := (uint32(0xFFFFFFFF) / limit) * limit
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return 0, errors.Wrap(err, "perm: reading randomness")
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < threshold || threshold == 0 {
			return int(v % limit), nil
		}
	}
}

// Len returns the permutation's size.
func (p *Perm) Len() int { return len(p.P) }

// Apply returns p[i], the image of i.
func (p *Perm) Apply(i int) int { return p.P[i] }

// Inverse returns the inverse permutation.
func (p *Perm) Inverse() *Perm {
	inv := make([]int, len(p.P))
	for i, v := range p.P {
		inv[v] = i
	}
	return &Perm{P: inv}
}

// ApplyToSequence returns a new slice r with r[p[i]] = seq[i].
func (p *Perm) ApplyToSequence(seq []int) []int {
	r := make([]int, len(seq))
	for i, v := range seq {
		r[p.P[i]] = v
	}
	return r
}

// InverseApplyToSequence returns a new slice r with r[i] = seq[p[i]].
func (p *Perm) InverseApplyToSequence(seq []int) []int {
	r := make([]int, len(seq))
	for i := range seq {
		r[i] = seq[p.P[i]]
	}
	return r
}

// PermuteBitVector returns a new vector r with r[p[i]] = v[i] for every
// i: the "shuffle into a different bit order" operation used throughout
// the cryptosystem variants to apply a code permutation to a codeword.
func (p *Perm) PermuteBitVector(v *bitvec.Vector) *bitvec.Vector {
	r := bitvec.New(v.Len())
	for i := 0; i < v.Len(); i++ {
		r.Set(p.P[i], v.Get(i))
	}
	return r
}

// InversePermuteBitVector returns a new vector r with r[i] = v[p[i]] for
// every i — the inverse of PermuteBitVector without needing to construct
// Inverse() first.
func (p *Perm) InversePermuteBitVector(v *bitvec.Vector) *bitvec.Vector {
	r := bitvec.New(v.Len())
	for i := 0; i < v.Len(); i++ {
		r.Set(i, v.Get(p.P[i]))
	}
	return r
}

// Validate checks that P is a bijection on {0,...,len(P)-1}.
func (p *Perm) Validate() error {
	seen := make([]bool, len(p.P))
	for _, v := range p.P {
		if v < 0 || v >= len(p.P) || seen[v] {
			return errors.New("perm: not a valid permutation")
		}
		seen[v] = true
	}
	return nil
}

// Dyadic computes the "dyadic permutation" of a power-of-two-length
// sequence seeded by sig: out[sig ^ gray(i)] = seq[i], where gray(i) =
// i ^ (i>>1) is the standard binary-reflected Gray code and sig is
// updated one Gray-code step at a time (flipping the bit at the
// trailing-zero position of i+1) rather than recomputed from scratch —
// the same incremental walk the original performs, kept here in its
// unrolled form for clarity.
func Dyadic(seq []uint, sig uint) []uint {
	n := len(seq)
	out := make([]uint, n)
	for i := 0; i < n; i++ {
		out[sig] = seq[i]
		t := uint(i + 1)
		x := uint(1)
		for t&1 == 0 {
			t >>= 1
			x <<= 1
		}
		sig ^= x
	}
	return out
}
