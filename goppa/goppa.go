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

// Package goppa implements the classical binary Goppa code machinery:
// check-matrix construction over the full field support, the error
// locator of the Goppa decoder, and Berlekamp-trace root evaluation.
package goppa

import (
	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/field"
	"github.com/exaexa/ccr/matrix"
	"github.com/exaexa/ccr/poly"
)

// CheckMatrix builds the binary parity-check matrix of the Goppa code
// defined by g over the full field support {0, ..., n-1}: column j holds
// the deg(g) coefficients of 1/(x - alpha_j) mod g, expanded into
// deg(g)*m rows of GF(2) in the bitvec.FromPolyCotrace layout (bit b of
// coefficient i at row b*deg(g)+i), so that H*e read back with
// bitvec.ToPolyCotrace is the syndrome polynomial Decode expects.
func CheckMatrix(g *poly.Poly, f *field.Field) (*matrix.Matrix, error) {
	t := g.Degree()
	if t < 1 {
		return nil, errors.New("goppa: Goppa polynomial must have positive degree")
	}

	h := matrix.New(int(f.N), t*int(f.M))
	for j := uint(0); j < f.N; j++ {
		gv := g.Eval(j, f)
		if gv == 0 {
			return nil, errors.New("goppa: Goppa polynomial has a root in the support")
		}
		gInv := f.Inv(gv)

		// 1/(x - alpha_j) == q(x)/g(alpha_j) mod g, where q is the quotient
		// of g by (x - alpha_j), produced top-down by synthetic division.
		q := g.Coeff(t)
		for i := t - 1; i >= 0; i-- {
			entry := f.Mult(q, gInv)
			for b := 0; b < int(f.M); b++ {
				if (entry>>uint(b))&1 != 0 {
					h.Set(b*t+i, int(j), true)
				}
			}
			q = f.Add(g.Coeff(i), f.Mult(q, j))
		}
	}
	return h, nil
}

// Decode recovers the Goppa error locator sigma(x) from a syndrome and
// Goppa polynomial using the classical construction of spec §4.5:
// v = sqrt(1/s(x) + x) mod g, write v = a/b via extended Euclid stopping
// at deg(a) <= t/2, then sigma = a^2 + x*b^2, made monic.
func Decode(syndrome *poly.Poly, g *poly.Poly, sqInv [][]uint, f *field.Field) (*poly.Poly, error) {
	t := g.Degree()

	sInv, err := invertModG(syndrome, g, f)
	if err != nil {
		return nil, err
	}

	x := poly.New([]uint{0, 1})
	v := poly.Add(sInv, x)

	vMod, err := poly.Mod(v, g, f)
	if err != nil {
		return nil, err
	}
	sq := poly.Sqrt(vMod, sqInv, g, f)

	a, _, b, err := poly.ExtEuclid(g, sq, f, t/2)
	if err != nil {
		return nil, err
	}

	aSq := poly.Mult(a, a, f)
	bSq := poly.Mult(b, b, f)
	sigma := poly.Add(aSq, poly.Shift(bSq, 1))

	if sigma.IsZero() {
		return nil, errors.New("goppa: decoding failed to converge (zero error locator)")
	}
	sigma.MakeMonic(f)
	return sigma, nil
}

func invertModG(s, g *poly.Poly, f *field.Field) (*poly.Poly, error) {
	if s.IsZero() {
		return nil, errors.New("goppa: cannot invert a zero syndrome")
	}
	rem, _, b, err := poly.ExtEuclid(g, s, f, 0)
	if err != nil {
		return nil, err
	}
	if rem.Degree() != 0 {
		return nil, errors.New("goppa: syndrome is not invertible modulo the Goppa polynomial")
	}
	// a*g + b*s == rem, a nonzero constant, so b/rem == s^-1 mod g.
	out, err := poly.Mod(scale(b, f.Inv(rem.Coeff(0)), f), g, f)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// traceNode pairs an iteration index with the factor being refined, the
// Berlekamp-trace work items of spec §4.6.
type traceNode struct {
	i   int
	cur *poly.Poly
}

// EvaluateErrorLocatorTrace finds every root of sigma over GF(2^m) by
// recursively splitting along Frobenius traces, HyMES-style. Returns the
// length-f.N indicator vector of roots and whether every branch of the
// recursion resolved to a linear factor (false means the factorization
// failed for at least one branch and the result must not be trusted).
func EvaluateErrorLocatorTrace(sigma *poly.Poly, f *field.Field) (roots *bitvec.Vector, ok bool) {
	roots = bitvec.New(int(f.N))

	traceAux := make([]*poly.Poly, f.M)
	trace := make([]*poly.Poly, f.M)

	x := poly.New([]uint{0, 1})
	traceAux[0] = x
	trace[0] = x.Clone()

	for i := uint(1); i < f.M; i++ {
		sq := poly.Mult(traceAux[i-1], traceAux[i-1], f)
		m, err := poly.Mod(sq, sigma, f)
		if err != nil {
			return roots, false
		}
		traceAux[i] = m
		trace[0] = poly.Add(trace[0], traceAux[i])
	}

	stack := []traceNode{{0, sigma}}
	failed := false

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		deg := n.cur.Degree()
		if deg <= 0 {
			continue
		}
		if deg == 1 {
			root := f.Mult(n.cur.Coeff(0), f.Inv(n.cur.Coeff(1)))
			roots.Set(int(root), true)
			continue
		}
		if n.i >= int(f.M) {
			failed = true
			continue
		}

		if trace[n.i] == nil {
			a := f.ExpX(n.i)
			acc := poly.Zero()
			for j := uint(0); j < f.M; j++ {
				acc = poly.Add(acc, scale(traceAux[j], a, f))
				a = f.Mult(a, a)
			}
			trace[n.i] = acc
		}

		g, err := poly.GCD(n.cur, trace[n.i], f)
		if err != nil {
			failed = true
			continue
		}
		q, _, err := poly.DivMod(n.cur, g, f)
		if err != nil {
			failed = true
			continue
		}

		stack = append(stack, traceNode{n.i + 1, g})
		stack = append(stack, traceNode{n.i + 1, q})
	}

	return roots, !failed
}

func scale(p *poly.Poly, c uint, f *field.Field) *poly.Poly {
	out := make([]uint, len(p.Coeffs))
	for i, v := range p.Coeffs {
		out[i] = f.Mult(v, c)
	}
	return poly.New(out)
}

// DecodeAlternant recovers an error locator directly from the syndrome
// of a general alternant code (no Goppa square-root step): run extended
// Euclid on (syndrome, x^2t) stopping once the remainder's degree drops
// to t-1, and take the Bezout "b" coefficient, normalized to be monic at
// its constant term. Used by the quasi-dyadic decoder, whose check
// matrix is a plain Vandermonde/diagonal alternant matrix rather than a
// binary Goppa code's.
func DecodeAlternant(syndrome *poly.Poly, f *field.Field, t int) (*poly.Poly, error) {
	if syndrome.IsZero() {
		return poly.New([]uint{1}), nil
	}

	x2t := poly.Shift(poly.New([]uint{1}), 2*t)
	_, b, _, err := poly.ExtEuclid(syndrome, x2t, f, t-1)
	if err != nil {
		return nil, err
	}
	if b.Coeff(0) == 0 {
		return nil, errors.New("goppa: alternant decoding produced a non-invertible locator constant term")
	}
	bInv := f.Inv(b.Coeff(0))
	return scale(b, bInv, f), nil
}
