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

package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGF16ConcreteScenario(t *testing.T) {
	f, err := New(4)
	require.NoError(t, err)
	assert.EqualValues(t, 0x13, f.Poly)

	assert.EqualValues(t, 0b1011, f.Mult(0b1010, 0b1100))
	assert.EqualValues(t, 0b1001, f.Inv(0b1010))
	assert.EqualValues(t, 0b0110, f.SqRoot(0b0100))
}

func TestFieldInvariants(t *testing.T) {
	f, err := New(6)
	require.NoError(t, err)

	for a := uint(1); a < f.N; a++ {
		assert.EqualValues(t, 0, f.Add(a, a))
		assert.EqualValues(t, 1, f.Mult(a, f.Inv(a)))
		sq := f.Mult(a, a)
		assert.EqualValues(t, a, f.SqRoot(sq))
	}

	for a := uint(1); a < f.N; a++ {
		for b := uint(0); b < f.N; b++ {
			for c := uint(0); c < f.N; c++ {
				lhs := f.Mult(a, f.Add(b, c))
				rhs := f.Add(f.Mult(a, b), f.Mult(a, c))
				assert.EqualValues(t, rhs, lhs)
			}
		}
		break // the triple loop is O(n^3); one representative a suffices
	}
}

func TestExpAndAntilog(t *testing.T) {
	f, err := New(5)
	require.NoError(t, err)

	for a := uint(1); a < f.N; a++ {
		assert.EqualValues(t, f.antilog[f.log[a]], a)
		assert.EqualValues(t, a, f.Exp(2, int(f.Log(a))))
	}
}
