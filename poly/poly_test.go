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

package poly

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/field"
)

func TestModDistributesOverMult(t *testing.T) {
	f, err := field.New(5)
	require.NoError(t, err)

	a := New([]uint{3, 7, 1})
	b := New([]uint{2, 0, 5, 1})
	m := New([]uint{1, 1, 0, 0, 1})

	lhs, err := Mod(Mult(a, b, f), m, f)
	require.NoError(t, err)

	am, err := Mod(a, m, f)
	require.NoError(t, err)
	bm, err := Mod(b, m, f)
	require.NoError(t, err)
	rhs, err := Mod(Mult(am, bm, f), m, f)
	require.NoError(t, err)

	assert.Equal(t, rhs.Coeffs, lhs.Coeffs)
}

func TestGenerateRandomIrreducible(t *testing.T) {
	f, err := field.New(5)
	require.NoError(t, err)

	for s := 1; s <= 4; s++ {
		p, err := GenerateRandomIrreducible(s, f, rand.Reader)
		require.NoError(t, err)
		assert.True(t, IsIrreducible(p, f))
		assert.Equal(t, s, p.Degree())
	}
}

func TestSquareRootMatrixRoundTrip(t *testing.T) {
	f, err := field.New(5)
	require.NoError(t, err)

	g, err := GenerateRandomIrreducible(4, f, rand.Reader)
	require.NoError(t, err)

	sqInv, err := ComputeSquareRootMatrix(g, f)
	require.NoError(t, err)

	p := New([]uint{3, 9, 2, 17})
	pm, err := Mod(p, g, f)
	require.NoError(t, err)

	sq := Mult(pm, pm, f)
	sqm, err := Mod(sq, g, f)
	require.NoError(t, err)

	root := Sqrt(sqm, sqInv, g, f)
	rootMod, err := Mod(root, g, f)
	require.NoError(t, err)

	assert.Equal(t, pm.Coeffs, rootMod.Coeffs)
}

func TestExtEuclidBezout(t *testing.T) {
	f, err := field.New(5)
	require.NoError(t, err)

	p := New([]uint{1, 0, 1, 1, 1})
	q := New([]uint{1, 1, 0, 1})

	rem, a, b, err := ExtEuclid(p, q, f, 0)
	require.NoError(t, err)

	lhs := Add(Mult(a, p, f), Mult(b, q, f))
	assert.Equal(t, rem.Coeffs, lhs.Coeffs)
}
