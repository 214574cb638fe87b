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

// Package alternant implements the extended-Euclid error-locator
// construction for general alternant codes, as distinct from the
// classical Goppa decoder's square-root step in package goppa. The
// quasi-dyadic variant decodes through goppa.DecodeAlternant and QC-MDPC
// through bit flipping; neither imports this package.
package alternant

import (
	"github.com/pkg/errors"

	"github.com/exaexa/ccr/field"
	"github.com/exaexa/ccr/poly"
)

// ComputeErrorLocator computes sigma from a syndrome of degree <= 2t-1 via
// extended Euclid of (syndrome, x^2t), stopping once the remainder's
// degree is at most t-1, and normalizes so sigma(0) = 1.
func ComputeErrorLocator(syndrome *poly.Poly, f *field.Field, t int) (*poly.Poly, error) {
	if syndrome.IsZero() {
		return poly.New([]uint{1}), nil
	}

	x2t := poly.Shift(poly.New([]uint{1}), 2*t)

	_, _, b, err := poly.ExtEuclid(x2t, syndrome, f, t-1)
	if err != nil {
		return nil, err
	}
	if b.IsZero() || b.Coeff(0) == 0 {
		return nil, errors.New("alternant: error locator is not invertible at zero")
	}

	inv := f.Inv(b.Coeff(0))
	out := make([]uint, len(b.Coeffs))
	for i, c := range b.Coeffs {
		out[i] = f.Mult(c, inv)
	}
	return poly.New(out), nil
}
