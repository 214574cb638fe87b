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

package goppa

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/field"
	"github.com/exaexa/ccr/poly"
)

func TestCheckMatrixDimensions(t *testing.T) {
	f, err := field.New(5)
	require.NoError(t, err)

	g, err := poly.GenerateRandomIrreducible(3, f, rand.Reader)
	require.NoError(t, err)

	h, err := CheckMatrix(g, f)
	require.NoError(t, err)

	assert.Equal(t, int(f.N), h.Width())
	assert.Equal(t, 3*int(f.M), h.Height())
}

func TestBerlekampTraceFindsKnownRoots(t *testing.T) {
	f, err := field.New(4)
	require.NoError(t, err)

	// sigma(x) = (x - a)(x - b) for two distinct nonzero field elements.
	var a, b uint = 3, 7
	ax := poly.New([]uint{a, 1})
	bx := poly.New([]uint{b, 1})
	sigma := poly.Mult(ax, bx, f)

	roots, ok := EvaluateErrorLocatorTrace(sigma, f)
	require.True(t, ok)
	assert.True(t, roots.Get(int(a)))
	assert.True(t, roots.Get(int(b)))
	assert.Equal(t, 2, roots.HammingWeight())
}
