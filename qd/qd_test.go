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

package qd

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/bitvec"
)

// dyadicMatrix expands a length-n signature into the full n-by-n dyadic
// matrix: entry (i,j) = signature[i xor j].
func dyadicMatrix(sig *bitvec.Vector) [][]bool {
	n := sig.Len()
	m := make([][]bool, n)
	for i := range m {
		m[i] = make([]bool, n)
		for j := range m[i] {
			m[i][j] = sig.Get(i ^ j)
		}
	}
	return m
}

func naiveMatMulGF2(a, b [][]bool) [][]bool {
	n := len(a)
	out := make([][]bool, n)
	for i := range out {
		out[i] = make([]bool, n)
		for j := 0; j < n; j++ {
			var acc bool
			for k := 0; k < n; k++ {
				acc = acc != (a[i][k] && b[k][j])
			}
			out[i][j] = acc
		}
	}
	return out
}

func vecFromBits(bits []bool) *bitvec.Vector {
	v := bitvec.New(len(bits))
	for i, b := range bits {
		v.Set(i, b)
	}
	return v
}

func TestDyadicMultiplyMatchesNaiveMatrixProduct(t *testing.T) {
	a := vecFromBits([]bool{true, false, true, true})
	b := vecFromBits([]bool{false, true, true, false})

	got := DyadicMultiply(a, b)
	gotMatrix := dyadicMatrix(got)

	want := naiveMatMulGF2(dyadicMatrix(a), dyadicMatrix(b))

	for i := range want {
		for j := range want[i] {
			assert.Equal(t, want[i][j], gotMatrix[i][j], "mismatch at (%d,%d)", i, j)
		}
	}
}

func TestToRightEchelonFormSucceedsOnIdentityLikeBlock(t *testing.T) {
	// 2x1 block matrix (w=2 columns, h=1 row) of 2-size signatures; the
	// right square (last column) is the identity signature [1,0], which
	// is already nonsingular (odd weight), so reduction should succeed
	// and leave it as the identity.
	id := vecFromBits([]bool{true, false})
	other := vecFromBits([]bool{true, true})

	mat := [][]*bitvec.Vector{
		{other.Clone()},
		{id.Clone()},
	}

	ok := ToRightEchelonForm(mat)
	require.True(t, ok)

	// right square (column w-h..w-1 = column 1) should now be identity
	assert.Equal(t, true, mat[1][0].Get(0))
	assert.Equal(t, false, mat[1][0].Get(1))
}

func TestChooseRandomNoCollisionsAndExhausts(t *testing.T) {
	used := map[int]bool{}
	limit := 5
	for i := 0; i < limit-1; i++ {
		v, err := ChooseRandom(limit, rand.Reader, used)
		require.NoError(t, err)
		assert.NotEqual(t, 0, v)
		assert.GreaterOrEqual(t, v, 1)
		assert.Less(t, v, limit)
	}
	// pool now exhausted
	v, err := ChooseRandom(limit, rand.Reader, used)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}
