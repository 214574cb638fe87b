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

package perm

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIsBijection(t *testing.T) {
	p, err := Random(64, rand.Reader)
	require.NoError(t, err)
	assert.NoError(t, p.Validate())
}

func TestInverseRoundTrip(t *testing.T) {
	p, err := Random(32, rand.Reader)
	require.NoError(t, err)
	inv := p.Inverse()
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, i, inv.Apply(p.Apply(i)))
	}
}

func TestDyadicIsPermutation(t *testing.T) {
	seq := []uint{1, 2, 3, 4, 5, 6, 7, 8}
	for sig := uint(0); sig < 8; sig++ {
		out := Dyadic(seq, sig)
		require.Len(t, out, len(seq))
		seen := make(map[uint]bool)
		for _, v := range out {
			seen[v] = true
		}
		for _, v := range seq {
			assert.True(t, seen[v], "value %d missing from permuted output", v)
		}
	}
}

func TestDyadicMatchesGrayCodeWalk(t *testing.T) {
	seq := []uint{10, 11, 12, 13}
	out := Dyadic(seq, 0)
	// sig=0, gray(0..3) = 0,1,3,2: a[0]->r[0], a[1]->r[1], a[2]->r[3], a[3]->r[2].
	assert.Equal(t, []uint{10, 11, 13, 12}, out)
}
