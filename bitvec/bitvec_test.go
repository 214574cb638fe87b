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

package bitvec

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecFromBits(bits string) *Vector {
	v := New(len(bits))
	for i, c := range bits {
		if c == '1' {
			v.Set(i, true)
		}
	}
	return v
}

func TestSelfXorIsZero(t *testing.T) {
	v := vecFromBits("1011010110")
	v.Add(v.Clone())
	assert.True(t, v.Zero())
}

func TestByteRoundTrip(t *testing.T) {
	v := vecFromBits("1010000111010110")
	b, err := v.ToBytes()
	require.NoError(t, err)

	back := FromBytes(b, v.Len())
	assert.Equal(t, v.data, back.data)
	assert.Equal(t, v.Len(), back.Len())
}

func TestColexConcreteScenario(t *testing.T) {
	// bitsString prints bit 0 first: rank 0 is bits {0,1}, rank 9 is
	// bits {3,4}.
	v, err := ColexUnrank(big.NewInt(0), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, "11000", bitsString(v))

	v, err = ColexUnrank(big.NewInt(9), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, "00011", bitsString(v))

	assert.EqualValues(t, 9, ColexRank(v).Int64())
}

func bitsString(v *Vector) string {
	out := make([]byte, v.Len())
	for i := 0; i < v.Len(); i++ {
		if v.Get(i) {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

func TestColexRankUnrankRoundTrip(t *testing.T) {
	n, k := 8, 3
	total := binomial(n, k)
	for r := int64(0); r < total.Int64(); r++ {
		v, err := ColexUnrank(big.NewInt(r), n, k)
		require.NoError(t, err)
		assert.EqualValues(t, r, ColexRank(v).Int64())
		assert.Equal(t, k, v.HammingWeight())
	}
}

func TestColexOutOfRange(t *testing.T) {
	total := binomial(5, 2)
	_, err := ColexUnrank(total, 5, 2)
	assert.Error(t, err)
}

func TestPolyCotraceRoundTrip(t *testing.T) {
	m := 4
	coeffs := []uint{3, 10, 0, 15, 7}
	v := FromPolyCotrace(coeffs, m)
	assert.Equal(t, len(coeffs)*m, v.Len())
	back := ToPolyCotrace(v, len(coeffs))
	assert.Equal(t, coeffs, back)
}

func TestAddOffset(t *testing.T) {
	dst := New(10)
	src := vecFromBits("111")
	dst.AddOffset(src, 0, 3, 3)
	assert.Equal(t, "0001110000", bitsString(dst))
}
