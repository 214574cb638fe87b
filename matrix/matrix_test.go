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

package matrix

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomInvertible(t *testing.T, n int) *Matrix {
	for {
		m := New(n, n)
		for c := 0; c < n; c++ {
			for r := 0; r < n; r++ {
				var b [1]byte
				_, err := rand.Read(b[:])
				require.NoError(t, err)
				if b[0]&1 == 1 {
					m.Set(r, c, true)
				}
			}
		}
		if inv, err := ComputeInversion(m, false, false); err == nil {
			_ = inv
			return m
		}
	}
}

func TestInversionRoundTrip(t *testing.T) {
	n := 10
	m := randomInvertible(t, n)

	inv, err := ComputeInversion(m, false, false)
	require.NoError(t, err)

	prod, err := m.Mult(inv)
	require.NoError(t, err)

	assert.Equal(t, Unit(n).Cols, prod.Cols)
}

func TestTransposeInvolution(t *testing.T) {
	m := New(5, 3)
	m.Set(0, 0, true)
	m.Set(2, 1, true)
	m.Set(1, 4, true)

	assert.Equal(t, m.Cols, m.Transpose().Transpose().Cols)
}

func TestSingularInversionFails(t *testing.T) {
	m := New(3, 3) // all zero -> singular
	_, err := ComputeInversion(m, false, false)
	assert.Error(t, err)
}

func TestExtendLeftCompactAndStrip(t *testing.T) {
	sub := New(2, 3)
	sub.Set(0, 0, true)
	sub.Set(2, 1, true)

	ext := sub.ExtendLeftCompact()
	assert.Equal(t, 5, ext.Width())
	assert.Equal(t, 3, ext.Height())

	stripped, err := ext.StripRightSquare()
	require.NoError(t, err)
	assert.Equal(t, sub.Cols, stripped.Cols)
}
