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

// Package poly implements polynomials over GF(2^m): the coefficient
// arithmetic, modular reduction, square roots, extended Euclid, and the
// irreducibility test/generator that keygen across every code variant
// relies on.
package poly

import (
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/field"
)

// Poly is a polynomial over GF(2^m); Coeffs[i] is the coefficient of x^i.
type Poly struct {
	Coeffs []uint
}

// New wraps a coefficient slice (index = power) as a polynomial.
func New(coeffs []uint) *Poly {
	p := &Poly{Coeffs: append([]uint(nil), coeffs...)}
	p.strip()
	return p
}

// Zero returns the zero polynomial.
func Zero() *Poly { return &Poly{} }

func (p *Poly) strip() {
	d := len(p.Coeffs) - 1
	for d >= 0 && p.Coeffs[d] == 0 {
		d--
	}
	p.Coeffs = p.Coeffs[:d+1]
}

// Degree returns the highest nonzero-coefficient index, or -1 for zero.
func (p *Poly) Degree() int {
	return len(p.Coeffs) - 1
}

// IsZero reports whether p is the zero polynomial.
func (p *Poly) IsZero() bool {
	return len(p.Coeffs) == 0
}

// IsOne reports whether p equals the constant 1.
func (p *Poly) IsOne() bool {
	return len(p.Coeffs) == 1 && p.Coeffs[0] == 1
}

// Clone returns an independent copy.
func (p *Poly) Clone() *Poly {
	return New(p.Coeffs)
}

// Coeff returns the coefficient of x^i, 0 if out of range.
func (p *Poly) Coeff(i int) uint {
	if i < 0 || i >= len(p.Coeffs) {
		return 0
	}
	return p.Coeffs[i]
}

// Eval evaluates p(x) at x in GF(2^m).
func (p *Poly) Eval(x uint, f *field.Field) uint {
	r := uint(0)
	for i := p.Degree(); i >= 0; i-- {
		r = f.Add(f.Mult(r, x), p.Coeffs[i])
	}
	return r
}

// Add returns p+q (xor of coefficients, char 2).
func Add(p, q *Poly) *Poly {
	n := len(p.Coeffs)
	if len(q.Coeffs) > n {
		n = len(q.Coeffs)
	}
	c := make([]uint, n)
	copy(c, p.Coeffs)
	for i, v := range q.Coeffs {
		c[i] ^= v
	}
	return New(c)
}

// Mult returns p*q over GF(2^m).
func Mult(p, q *Poly, f *field.Field) *Poly {
	if p.IsZero() || q.IsZero() {
		return Zero()
	}
	c := make([]uint, p.Degree()+q.Degree()+1)
	for i, a := range p.Coeffs {
		if a == 0 {
			continue
		}
		for j, b := range q.Coeffs {
			if b == 0 {
				continue
			}
			c[i+j] = f.Add(c[i+j], f.Mult(a, b))
		}
	}
	return New(c)
}

// Shift returns x^n * p.
func Shift(p *Poly, n int) *Poly {
	if p.IsZero() {
		return Zero()
	}
	c := make([]uint, len(p.Coeffs)+n)
	copy(c[n:], p.Coeffs)
	return New(c)
}

// DivMod returns the quotient and remainder of p / q over GF(2^m).
func DivMod(p, q *Poly, f *field.Field) (quot, rem *Poly, err error) {
	if q.IsZero() {
		return nil, nil, errors.New("poly: division by zero polynomial")
	}
	r := p.Clone()
	dq := q.Degree()
	lead := f.Inv(q.Coeffs[dq])

	qc := make([]uint, 0)
	for r.Degree() >= dq {
		dr := r.Degree()
		coeff := f.Mult(r.Coeffs[dr], lead)
		shift := dr - dq
		for len(qc) <= shift {
			qc = append(qc, 0)
		}
		qc[shift] = coeff

		term := Shift(Mult(q, New([]uint{coeff}), f), shift)
		r = Add(r, term)
	}
	return New(qc), r, nil
}

// Mod returns p mod q.
func Mod(p, q *Poly, f *field.Field) (*Poly, error) {
	_, r, err := DivMod(p, q, f)
	return r, err
}

// MakeMonic scales p so that its leading coefficient is 1.
func (p *Poly) MakeMonic(f *field.Field) {
	if p.IsZero() {
		return
	}
	lead := p.Coeffs[p.Degree()]
	if lead == 1 {
		return
	}
	inv := f.Inv(lead)
	for i := range p.Coeffs {
		p.Coeffs[i] = f.Mult(p.Coeffs[i], inv)
	}
}

// GCD returns gcd(p, q) over GF(2^m)[x].
func GCD(p, q *Poly, f *field.Field) (*Poly, error) {
	a, b := p.Clone(), q.Clone()
	for !b.IsZero() {
		_, r, err := DivMod(a, b, f)
		if err != nil {
			return nil, err
		}
		a, b = b, r
	}
	a.MakeMonic(f)
	return a, nil
}

// ExtEuclid runs the extended Euclidean algorithm on (p, q), stopping as
// soon as the running remainder's degree drops to at most stopDeg, and
// returns the Bezout pair (a, b) such that a*p + b*q == the remainder at
// that point (the alternant/Goppa decoders call this with stopDeg=t/2 or
// t-1 to recover the error locator as a ratio of two low-degree
// polynomials).
func ExtEuclid(p, q *Poly, f *field.Field, stopDeg int) (rem, a, b *Poly, err error) {
	r0, r1 := p.Clone(), q.Clone()
	a0, a1 := New([]uint{1}), Zero()
	b0, b1 := Zero(), New([]uint{1})

	for r1.Degree() > stopDeg {
		quot, r, derr := DivMod(r0, r1, f)
		if derr != nil {
			return nil, nil, nil, derr
		}
		qa := Mult(quot, a1, f)
		qb := Mult(quot, b1, f)
		na := Add(a0, qa)
		nb := Add(b0, qb)

		r0, r1 = r1, r
		a0, a1 = a1, na
		b0, b1 = b1, nb
	}
	return r1, a1, b1, nil
}

// Sqrt computes the square root of p modulo g, using the companion matrix
// sqInv such that result[i] = sqrt( sum_j sqInv[j][i] * p[j] ).
func Sqrt(p *Poly, sqInv [][]uint, g *Poly, f *field.Field) *Poly {
	deg := g.Degree()
	out := make([]uint, deg)
	for i := 0; i < deg; i++ {
		acc := uint(0)
		for j := 0; j < deg && j < len(p.Coeffs); j++ {
			if p.Coeffs[j] == 0 {
				continue
			}
			acc = f.Add(acc, f.Mult(sqInv[j][i], p.Coeffs[j]))
		}
		out[i] = f.SqRoot(acc)
	}
	return New(out)
}

// ComputeSquareRootMatrix computes sqInv, the deg(g) x deg(g) companion
// matrix of "sqrt(x) mod g" in the sqInv[j][i] layout Sqrt reads:
// sqInv[j] holds the squared coefficients of sqrt(x^j) mod g.
func ComputeSquareRootMatrix(g *Poly, f *field.Field) ([][]uint, error) {
	deg := g.Degree()
	// sq[i] = (x^i)^2 mod g = x^(2i) mod g
	sq := make([]*Poly, deg)
	for i := 0; i < deg; i++ {
		c := make([]uint, 2*i+1)
		c[2*i] = 1
		xi2 := New(c)
		r, err := Mod(xi2, g, f)
		if err != nil {
			return nil, err
		}
		sq[i] = r
	}

	// sq is the matrix of x -> x^2 mod g in the basis {1,x,...,x^{deg-1}}.
	// sqInv must satisfy sqInv * sq = I (so that applying sqInv undoes the
	// squaring/Frobenius map); invert it by Gauss-Jordan over GF(2^m).
	aug := make([][]uint, deg)
	for i := 0; i < deg; i++ {
		aug[i] = make([]uint, 2*deg)
		for j := 0; j < deg; j++ {
			aug[i][j] = sq[j].Coeff(i)
		}
		aug[i][deg+i] = 1
	}

	for col := 0; col < deg; col++ {
		pivot := -1
		for row := col; row < deg; row++ {
			if aug[row][col] != 0 {
				pivot = row
				break
			}
		}
		if pivot < 0 {
			return nil, errors.New("poly: square-root matrix is singular")
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		inv := f.Inv(aug[col][col])
		for j := 0; j < 2*deg; j++ {
			aug[col][j] = f.Mult(aug[col][j], inv)
		}
		for row := 0; row < deg; row++ {
			if row == col || aug[row][col] == 0 {
				continue
			}
			factor := aug[row][col]
			for j := 0; j < 2*deg; j++ {
				aug[row][j] = f.Add(aug[row][j], f.Mult(factor, aug[col][j]))
			}
		}
	}

	sqInv := make([][]uint, deg)
	for i := 0; i < deg; i++ {
		sqInv[i] = make([]uint, deg)
		for j := 0; j < deg; j++ {
			sqInv[i][j] = aug[j][deg+i]
		}
	}
	return sqInv, nil
}

// IsIrreducible runs the Ben-Or test: for i = 1..deg/2, gcd(x^(2^i)-x, f)
// must equal 1.
func IsIrreducible(p *Poly, f *field.Field) bool {
	deg := p.Degree()
	if deg < 1 {
		return false
	}
	x := New([]uint{0, 1})
	cur := x.Clone()
	for i := 1; i <= deg/2; i++ {
		// cur = cur^2 mod p, repeated doubling gives x^(2^i) mod p
		sq := Mult(cur, cur, f)
		r, err := Mod(sq, p, f)
		if err != nil {
			return false
		}
		cur = r

		diff := Add(cur, x)
		g, err := GCD(diff, p, f)
		if err != nil {
			return false
		}
		if !g.IsOne() {
			return false
		}
	}
	return true
}

// GenerateRandomIrreducible samples a random monic degree-s polynomial
// over GF(2^m) with nonzero constant term and flips random internal bits
// (coefficients) until the result is irreducible.
func GenerateRandomIrreducible(s int, f *field.Field, rng io.Reader) (*Poly, error) {
	coeffs := make([]uint, s+1)
	coeffs[s] = 1
	for {
		for i := 1; i < s; i++ {
			v, err := randUint(rng, f.N)
			if err != nil {
				return nil, err
			}
			coeffs[i] = v
		}
		v, err := randUint(rng, f.N-1)
		if err != nil {
			return nil, err
		}
		coeffs[0] = v + 1 // nonzero constant term

		p := New(coeffs)
		for attempts := 0; attempts < 4096; attempts++ {
			if IsIrreducible(p, f) {
				return p, nil
			}
			idx, err := randUint(rng, uint(s))
			if err != nil {
				return nil, err
			}
			val, err := randUint(rng, f.N)
			if err != nil {
				return nil, err
			}
			p.Coeffs[idx] = val
		}
	}
}

func randUint(rng io.Reader, bound uint) (uint, error) {
	if bound == 0 {
		return 0, nil
	}
	bits := 0
	for b := bound; b > 0; b >>= 1 {
		bits++
	}
	nbytes := (bits + 7) / 8
	buf := make([]byte, nbytes)
	for {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return 0, errors.Wrap(err, "poly: reading randomness")
		}
		v := uint(0)
		for _, b := range buf {
			v = (v << 8) | uint(b)
		}
		mask := (uint(1) << uint(bits)) - 1
		v &= mask
		if v < bound {
			return v, nil
		}
	}
}
