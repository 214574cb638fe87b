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

package alternant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/field"
	"github.com/exaexa/ccr/poly"
)

// TestComputeErrorLocatorRecoversKnownLocator builds a syndrome from a
// hand-picked error locator and two error positions, via the classic
// syndrome = sum_i y_i/(1 - alpha_i x) series truncated to 2t terms, and
// checks that the recovered locator has the expected roots.
func TestComputeErrorLocatorRecoversKnownLocator(t *testing.T) {
	f, err := field.New(5)
	require.NoError(t, err)

	tErrs := 2
	positions := []uint{3, 11}

	// syndrome coefficients S_i = sum_pos alpha_pos^i, i=0..2t-1
	synCoeffs := make([]uint, 2*tErrs)
	for i := range synCoeffs {
		acc := uint(0)
		for _, p := range positions {
			acc = f.Add(acc, f.Exp(p, i))
		}
		synCoeffs[i] = acc
	}
	syndrome := poly.New(synCoeffs)

	sigma, err := ComputeErrorLocator(syndrome, f, tErrs)
	require.NoError(t, err)

	assert.EqualValues(t, 1, sigma.Coeff(0))
	for _, p := range positions {
		pInv := f.Inv(p)
		assert.EqualValues(t, 0, sigma.Eval(pInv, f))
	}
}
