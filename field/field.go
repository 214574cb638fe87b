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

// Package field implements GF(2^m), the binary extension field used
// throughout the code-based primitives: log/antilog table construction,
// and the add/mult/inv/exp/sqRoot operations built on top of them.
package field

import (
	"github.com/pkg/errors"
)

// Field is a binary extension field GF(2^M), represented by a degree-M
// modulus polynomial (packed as an integer, high and low bit set) and the
// log/antilog tables it induces. Immutable once created.
type Field struct {
	M    uint
	N    uint // 2^M
	Poly uint // modulus polynomial, degree M

	log    []uint
	antilog []uint
}

// degree returns the degree of a GF(2)-polynomial packed into an integer,
// or -1 for the zero polynomial.
func degree(p uint) int {
	d := -1
	for p != 0 {
		d++
		p >>= 1
	}
	return d
}

func gf2Mod(a, p uint) uint {
	if p == 0 {
		return 0
	}
	degP := degree(p)
	for {
		t := degree(a)
		if t < degP {
			break
		}
		a ^= p << uint(t-degP)
	}
	return a
}

func gf2Gcd(a, b uint) uint {
	if a == 0 {
		return b
	}
	for b != 0 {
		a, b = b, gf2Mod(a, b)
	}
	return a
}

func gf2ModMult(a, b, p uint) uint {
	a = gf2Mod(a, p)
	b = gf2Mod(b, p)
	var r uint
	d := uint(1) << uint(degree(p))
	for b != 0 && a != 0 {
		if a&1 != 0 {
			r ^= b
		}
		a >>= 1
		b <<= 1
		if b >= d {
			b ^= p
		}
	}
	return r
}

func gf2IsIrreducible(p uint) bool {
	if p == 0 {
		return false
	}
	d := degree(p) / 2
	test := uint(2) // x^1
	for i := 1; i <= d; i++ {
		test = gf2ModMult(test, test, p)
		if gf2Gcd(test^2, p) != 1 {
			return false
		}
	}
	return true
}

// New constructs GF(2^m): it finds the smallest modulus polynomial with
// both the leading and trailing bit set that is irreducible over GF(2) and
// for which x generates the full multiplicative group, then builds the
// log/antilog tables from it.
func New(m uint) (*Field, error) {
	if m < 1 {
		return nil, errors.New("field: degree must be at least 1")
	}
	n := uint(1) << m
	if n == 0 {
		return nil, errors.New("field: degree too large")
	}

	f := &Field{M: m, N: n}

	for t := (uint(1) << m) + 1; t < (uint(1) << (m + 1)); t += 2 {
		if !gf2IsIrreducible(t) {
			continue
		}

		log := make([]uint, n)
		antilog := make([]uint, n)
		log[0] = n - 1
		antilog[n-1] = 0

		ok := true
		xi := uint(1)
		var i uint
		for i = 0; i < n-1; i++ {
			if i != 0 && log[xi] != 0 {
				ok = false
				break
			}
			log[xi] = i
			antilog[i] = xi

			xi <<= 1
			xi = gf2Mod(xi, t)
		}
		if !ok {
			continue
		}

		f.Poly = t
		f.log = log
		f.antilog = antilog
		return f, nil
	}

	return nil, errors.New("field: no generator polynomial found")
}

// Add returns a xor b (field addition is xor in characteristic 2).
func (f *Field) Add(a, b uint) uint {
	return a ^ b
}

// Mult returns a*b via the log/antilog tables.
func (f *Field) Mult(a, b uint) uint {
	if a == 0 || b == 0 {
		return 0
	}
	return f.antilog[(f.log[a]+f.log[b])%(f.N-1)]
}

// Inv returns the multiplicative inverse of a. Zero has no inverse and
// returns 0 by the log[0]=n-1 sentinel convention.
func (f *Field) Inv(a uint) uint {
	if a == 0 {
		return 0
	}
	return f.antilog[(f.N-1-f.log[a])%(f.N-1)]
}

// InvSquare returns 1/a^2, the per-support-point scaling factor used by
// alternant syndrome computation (g(L_i)^-2).
func (f *Field) InvSquare(a uint) uint {
	return f.Inv(f.Mult(a, a))
}

// Exp returns a^k via square-and-multiply, accepting negative k by
// inverting first.
func (f *Field) Exp(a uint, k int) uint {
	if a == 0 {
		return 0
	}
	if a == 1 {
		return 1
	}
	if k < 0 {
		a = f.Inv(a)
		k = -k
	}
	r := uint(1)
	for k != 0 {
		if k&1 != 0 {
			r = f.Mult(r, a)
		}
		a = f.Mult(a, a)
		k >>= 1
	}
	return r
}

// ExpX returns x^k, x being the field's formal generator element (2).
func (f *Field) ExpX(k int) uint {
	return f.Exp(2, k)
}

// SqRoot returns the unique square root of a, computed as the Frobenius
// inverse a^(2^(m-1)).
func (f *Field) SqRoot(a uint) uint {
	for i := uint(1); i < f.M; i++ {
		a = f.Mult(a, a)
	}
	return a
}

// Log returns the discrete log of a nonzero element.
func (f *Field) Log(a uint) uint {
	return f.log[a]
}

// Antilog returns the element whose discrete log is i.
func (f *Field) Antilog(i uint) uint {
	return f.antilog[i%(f.N-1)]
}
