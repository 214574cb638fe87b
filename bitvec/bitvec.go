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

// Package bitvec implements dense vectors over GF(2), packed into 64-bit
// words, with the xor/offset-xor/weight/colex/cotrace operations the
// code-based primitives are built from.
package bitvec

import (
	"math/big"
	"math/bits"

	"github.com/pkg/errors"
)

// Vector is a dense GF(2) vector of explicit bit length. The invariant
// "bits past Len, inside the last word, are zero" must hold after every
// mutation.
type Vector struct {
	data []uint64
	size int
}

func wordsFor(n int) int {
	return (n + 63) / 64
}

// New returns a zero vector of the given bit length.
func New(size int) *Vector {
	return &Vector{data: make([]uint64, wordsFor(size)), size: size}
}

// Len returns the vector's bit length.
func (v *Vector) Len() int { return v.size }

func (v *Vector) fixPadding() {
	if v.size&63 == 0 {
		return
	}
	last := wordsFor(v.size) - 1
	if last < 0 {
		return
	}
	keep := uint(v.size & 63)
	v.data[last] &= (uint64(1) << keep) - 1
}

// Resize changes the vector's length, zero- or one-filling new bits
// depending on fill.
func (v *Vector) Resize(size int, fill bool) {
	oldWords := wordsFor(v.size)
	newWords := wordsFor(size)
	oldSize := v.size
	if newWords > len(v.data) {
		v.data = append(v.data, make([]uint64, newWords-len(v.data))...)
	} else if newWords < len(v.data) {
		v.data = v.data[:newWords]
	}
	v.size = size
	if fill && size > oldSize {
		v.fillOnes(oldSize, size)
	}
	_ = oldWords
	v.fixPadding()
}

func (v *Vector) fillOnes(from, to int) {
	for i := from; i < to; i++ {
		v.Set(i, true)
	}
}

// Get returns the bit at position i.
func (v *Vector) Get(i int) bool {
	return (v.data[i>>6]>>uint(i&63))&1 != 0
}

// Set assigns the bit at position i.
func (v *Vector) Set(i int, val bool) {
	if val {
		v.data[i>>6] |= uint64(1) << uint(i&63)
	} else {
		v.data[i>>6] &^= uint64(1) << uint(i&63)
	}
}

// Clone returns an independent copy.
func (v *Vector) Clone() *Vector {
	d := make([]uint64, len(v.data))
	copy(d, v.data)
	return &Vector{data: d, size: v.size}
}

// Zero reports whether every bit is zero.
func (v *Vector) Zero() bool {
	for _, w := range v.data {
		if w != 0 {
			return false
		}
	}
	return true
}

// Append extends v with the bits of a.
func (v *Vector) Append(a *Vector) {
	base := v.size
	v.Resize(base+a.size, false)
	for i := 0; i < a.size; i++ {
		if a.Get(i) {
			v.Set(base+i, true)
		}
	}
}

// Add xors a into v, growing v if a is longer.
func (v *Vector) Add(a *Vector) {
	if a.size > v.size {
		v.Resize(a.size, false)
	}
	for i := 0; i < len(a.data); i++ {
		v.data[i] ^= a.data[i]
	}
}

// AddOffset xors cnt bits of a, starting at offsetFrom, into v starting
// at offsetTo. cnt==0 means "all remaining bits of a from offsetFrom".
// The general case is bit-by-bit; aligned offsets could be special-cased
// for speed, but correctness does not depend on it.
func (v *Vector) AddOffset(a *Vector, offsetFrom, offsetTo, cnt int) {
	if cnt == 0 {
		cnt = a.size - offsetFrom
	}
	need := offsetTo + cnt
	if need > v.size {
		v.Resize(need, false)
	}
	for i := 0; i < cnt; i++ {
		if a.Get(offsetFrom + i) {
			v.Set(offsetTo+i, !v.Get(offsetTo+i))
		}
	}
}

// RotAdd xors a into v, rotating a left by shift positions (mod a.size)
// before adding.
func (v *Vector) RotAdd(a *Vector, shift int) {
	if a.size == 0 {
		return
	}
	if v.size < a.size {
		v.Resize(a.size, false)
	}
	shift = ((shift % a.size) + a.size) % a.size
	for i := 0; i < a.size; i++ {
		src := (i + shift) % a.size
		if a.Get(src) {
			v.Set(i, !v.Get(i))
		}
	}
}

// SetBlock copies a into v starting at bit offset.
func (v *Vector) SetBlock(a *Vector, offset int) {
	need := offset + a.size
	if need > v.size {
		v.Resize(need, false)
	}
	for i := 0; i < a.size; i++ {
		v.Set(offset+i, a.Get(i))
	}
}

// GetBlock extracts a length-cnt sub-vector starting at offset.
func (v *Vector) GetBlock(offset, cnt int) *Vector {
	r := New(cnt)
	for i := 0; i < cnt; i++ {
		if v.Get(offset + i) {
			r.Set(i, true)
		}
	}
	return r
}

// HammingWeight counts set bits.
func (v *Vector) HammingWeight() int {
	w := 0
	for _, word := range v.data {
		w += bits.OnesCount64(word)
	}
	return w
}

// AndHammingWeight counts set bits of (v AND a).
func (v *Vector) AndHammingWeight(a *Vector) int {
	n := len(v.data)
	if len(a.data) < n {
		n = len(a.data)
	}
	w := 0
	for i := 0; i < n; i++ {
		w += bits.OnesCount64(v.data[i] & a.data[i])
	}
	return w
}

// Dot returns the GF(2) dot product of v and a.
func (v *Vector) Dot(a *Vector) bool {
	return v.AndHammingWeight(a)&1 != 0
}

// ToBytes packs the vector, little-endian bit order within each byte, into
// a byte string; the bit length must be a multiple of 8.
func (v *Vector) ToBytes() ([]byte, error) {
	if v.size&7 != 0 {
		return nil, errors.New("bitvec: length is not a whole number of bytes")
	}
	out := make([]byte, v.size/8)
	for i := 0; i < v.size; i++ {
		if v.Get(i) {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out, nil
}

// FromBytes reconstructs a vector from a packed byte string. If nbits>0 it
// overrides the resulting length (truncating/zero-extending); otherwise
// the length is len(b)*8.
func FromBytes(b []byte, nbits int) *Vector {
	if nbits <= 0 {
		nbits = len(b) * 8
	}
	v := New(nbits)
	for i := 0; i < nbits && i/8 < len(b); i++ {
		if b[i/8]&(1<<uint(i%8)) != 0 {
			v.Set(i, true)
		}
	}
	return v
}

// FromPolyCotrace builds a length s*m bit-vector from an s-coefficient
// polynomial over GF(2^m): bit i = (poly[i mod s] >> (i div s)) & 1.
func FromPolyCotrace(coeffs []uint, m int) *Vector {
	s := len(coeffs)
	v := New(s * m)
	for i := 0; i < s*m; i++ {
		if (coeffs[i%s]>>uint(i/s))&1 != 0 {
			v.Set(i, true)
		}
	}
	return v
}

// ToPolyCotrace is the inverse of FromPolyCotrace, recovering s
// coefficients of m bits each.
func ToPolyCotrace(v *Vector, s int) []uint {
	coeffs := make([]uint, s)
	for i := 0; i < v.size; i++ {
		if v.Get(i) {
			coeffs[i%s] |= uint(1) << uint(i/s)
		}
	}
	return coeffs
}

// ColexRank interprets v as an indicator of the chosen positions of a
// k-subset of an n-set and returns its colex rank as an arbitrary
// precision integer, via the standard "walking" Pascal-triangle
// recurrence.
func ColexRank(v *Vector) *big.Int {
	rank := big.NewInt(0)
	k := 0
	for i := 0; i < v.size; i++ {
		if v.Get(i) {
			k++
			rank.Add(rank, binomial(i, k))
		}
	}
	return rank
}

// ColexUnrank reconstructs the n-bit, weight-k vector with the given colex
// rank. Returns an error if rank is out of [0, C(n,k)) range.
func ColexUnrank(rank *big.Int, n, k int) (*Vector, error) {
	if rank.Sign() < 0 {
		return nil, errors.New("bitvec: colex rank is negative")
	}
	total := binomial(n, k)
	if rank.Cmp(total) >= 0 {
		return nil, errors.New("bitvec: colex rank out of range")
	}

	v := New(n)
	r := new(big.Int).Set(rank)
	pos := n - 1
	for j := k; j >= 1; j-- {
		c := j - 1
		for c+1 <= pos && binomial(c+1, j).Cmp(r) <= 0 {
			c++
		}
		v.Set(c, true)
		r.Sub(r, binomial(c, j))
		pos = c - 1
	}
	if r.Sign() != 0 {
		return nil, errors.New("bitvec: colex rank out of range")
	}
	return v, nil
}

var binomialCache = map[[2]int]*big.Int{}

// binomial computes C(n,k) with small-n memoization; colex callers only
// ever query nondecreasing small ranges so a simple map cache keeps the
// O(n+k) recurrence from degenerating into repeated work.
func binomial(n, k int) *big.Int {
	if k < 0 || k > n {
		return big.NewInt(0)
	}
	key := [2]int{n, k}
	if v, ok := binomialCache[key]; ok {
		return v
	}
	if k == 0 || k == n {
		binomialCache[key] = big.NewInt(1)
		return binomialCache[key]
	}
	v := new(big.Int).Add(binomial(n-1, k-1), binomial(n-1, k))
	binomialCache[key] = v
	return v
}

// ExtGCD computes the extended Euclidean algorithm over GF(2)[x], treating
// each Vector as a polynomial with bit i the coefficient of x^i (used by
// colex-adjacent bit-level polynomial operations distinct from the
// GF(2^m)-coefficient polynomials of package poly).
func ExtGCD(a, b *Vector) (gcd, x, y *Vector) {
	if b.Zero() {
		return a.Clone(), New(1).setOne(), New(1)
	}
	q, r := gf2PolyDivMod(a, b)
	g, x1, y1 := ExtGCD(b, r)
	// x = y1, y = x1 - q*y1 (xor since char 2)
	qy1 := gf2PolyMul(q, y1)
	y := x1.Clone()
	y.Add(qy1)
	return g, y1, y
}

// GF2PolyMod reduces a modulo m, both treated as GF(2)[x] polynomials.
func GF2PolyMod(a, m *Vector) *Vector {
	_, r := gf2PolyDivMod(a, m)
	return r
}

// GF2PolyMulMod multiplies a*b and reduces the product modulo m, all
// treated as GF(2)[x] polynomials — the circulant-block arithmetic
// quasi-cyclic MDPC keygen relies on (GF(2)[x]/(x^n-1) is isomorphic to
// n-by-n circulant matrices over GF(2)).
func GF2PolyMulMod(a, b, m *Vector) *Vector {
	return GF2PolyMod(gf2PolyMul(a, b), m)
}

// IsGF2PolyOne reports whether v, as a GF(2)[x] polynomial, equals the
// constant 1.
func IsGF2PolyOne(v *Vector) bool {
	return v.HammingWeight() == 1 && v.Get(0)
}

func (v *Vector) setOne() *Vector {
	v.Set(0, true)
	return v
}

func degreeOf(v *Vector) int {
	for i := v.size - 1; i >= 0; i-- {
		if v.Get(i) {
			return i
		}
	}
	return -1
}

func gf2PolyDivMod(a, b *Vector) (q, r *Vector) {
	db := degreeOf(b)
	r = a.Clone()
	da := degreeOf(r)
	if db < 0 {
		return New(1), r
	}
	qlen := da - db + 1
	if qlen < 1 {
		qlen = 1
	}
	q = New(qlen)
	for {
		da = degreeOf(r)
		if da < db {
			break
		}
		shift := da - db
		q.Resize(shift+1, false)
		q.Set(shift, true)
		shifted := New(da + 1)
		shifted.SetBlock(b, shift)
		r.Add(shifted)
	}
	return q, r
}

func gf2PolyMul(a, b *Vector) *Vector {
	da, db := degreeOf(a), degreeOf(b)
	if da < 0 || db < 0 {
		return New(1)
	}
	r := New(da + db + 1)
	for i := 0; i <= da; i++ {
		if !a.Get(i) {
			continue
		}
		shifted := New(da + db + 1)
		shifted.SetBlock(b, i)
		r.Add(shifted)
	}
	return r
}
