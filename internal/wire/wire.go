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

// Package wire collects the sencode encode/decode helpers shared by
// every cryptosystem variant's key serialization: the field, polynomial,
// matrix, permutation, and square-root-matrix building blocks that
// appear, in different combinations, in every one of mce/nd/mceqd/
// qcmdpc's public and private keys (spec.md §4.11 — "every entity has a
// serialize/unserialize pair").
package wire

import (
	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/field"
	"github.com/exaexa/ccr/matrix"
	"github.com/exaexa/ccr/perm"
	"github.com/exaexa/ccr/poly"
	"github.com/exaexa/ccr/sencode"
)

// EncodeField renders f as its degree (the field is fully determined by
// m, per field.New's canonical modulus choice).
func EncodeField(f *field.Field) sencode.Value {
	return sencode.Int{V: uint64(f.M)}
}

// DecodeField reconstructs the canonical GF(2^m) field named by v.
func DecodeField(v sencode.Value) (*field.Field, error) {
	n, err := sencode.AsInt(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding field degree")
	}
	f, err := field.New(uint(n.V))
	if err != nil {
		return nil, errors.Wrap(err, "wire: reconstructing field")
	}
	return f, nil
}

// EncodePoly renders p as a list of its coefficients.
func EncodePoly(p *poly.Poly) sencode.Value {
	items := make([]sencode.Value, len(p.Coeffs))
	for i, c := range p.Coeffs {
		items[i] = sencode.Int{V: uint64(c)}
	}
	return sencode.List{Items: items}
}

// DecodePoly parses a list of coefficients produced by EncodePoly.
func DecodePoly(v sencode.Value) (*poly.Poly, error) {
	l, err := sencode.AsList(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding polynomial")
	}
	coeffs := make([]uint, len(l.Items))
	for i, it := range l.Items {
		n, err := sencode.AsInt(it)
		if err != nil {
			return nil, errors.Wrap(err, "wire: decoding polynomial coefficient")
		}
		coeffs[i] = uint(n.V)
	}
	return poly.New(coeffs), nil
}

// EncodeMatrix renders m as its width, height, and one byte-string per
// column, each column zero-padded to a whole number of bytes.
func EncodeMatrix(m *matrix.Matrix) (sencode.Value, error) {
	cols := make([]sencode.Value, m.Width())
	for i, c := range m.Cols {
		padded := c.Clone()
		padded.Resize((c.Len()+7)/8*8, false)
		b, err := padded.ToBytes()
		if err != nil {
			return nil, errors.Wrap(err, "wire: encoding matrix column")
		}
		cols[i] = sencode.Bytes{V: b}
	}
	return sencode.List{Items: []sencode.Value{
		sencode.Int{V: uint64(m.Width())},
		sencode.Int{V: uint64(m.Height())},
		sencode.List{Items: cols},
	}}, nil
}

// DecodeMatrix parses a matrix produced by EncodeMatrix.
func DecodeMatrix(v sencode.Value) (*matrix.Matrix, error) {
	l, err := sencode.AsList(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding matrix")
	}
	if len(l.Items) != 3 {
		return nil, errors.New("wire: malformed matrix")
	}
	w, err := sencode.AsInt(l.Items[0])
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding matrix width")
	}
	h, err := sencode.AsInt(l.Items[1])
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding matrix height")
	}
	colsList, err := sencode.AsList(l.Items[2])
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding matrix columns")
	}
	if len(colsList.Items) != int(w.V) {
		return nil, errors.New("wire: matrix column count does not match stated width")
	}

	out := matrix.New(int(w.V), int(h.V))
	for i, it := range colsList.Items {
		b, err := sencode.AsBytes(it)
		if err != nil {
			return nil, errors.Wrap(err, "wire: decoding matrix column bytes")
		}
		out.Cols[i] = bitvec.FromBytes(b.V, int(h.V))
	}
	return out, nil
}

// EncodePerm renders p as a list of its image indices.
func EncodePerm(p *perm.Perm) sencode.Value {
	items := make([]sencode.Value, len(p.P))
	for i, v := range p.P {
		items[i] = sencode.Int{V: uint64(v)}
	}
	return sencode.List{Items: items}
}

// DecodePerm parses a permutation produced by EncodePerm, validating
// that it is a genuine bijection.
func DecodePerm(v sencode.Value) (*perm.Perm, error) {
	l, err := sencode.AsList(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding permutation")
	}
	p := make([]int, len(l.Items))
	for i, it := range l.Items {
		n, err := sencode.AsInt(it)
		if err != nil {
			return nil, errors.Wrap(err, "wire: decoding permutation entry")
		}
		p[i] = int(n.V)
	}
	out := &perm.Perm{P: p}
	if err := out.Validate(); err != nil {
		return nil, errors.Wrap(err, "wire: decoded permutation is invalid")
	}
	return out, nil
}

// EncodeSqInv renders a square-root matrix (poly.ComputeSquareRootMatrix's
// result) as a list of coefficient lists.
func EncodeSqInv(sqInv [][]uint) sencode.Value {
	rows := make([]sencode.Value, len(sqInv))
	for i, row := range sqInv {
		items := make([]sencode.Value, len(row))
		for j, c := range row {
			items[j] = sencode.Int{V: uint64(c)}
		}
		rows[i] = sencode.List{Items: items}
	}
	return sencode.List{Items: rows}
}

// DecodeSqInv parses a square-root matrix produced by EncodeSqInv.
func DecodeSqInv(v sencode.Value) ([][]uint, error) {
	l, err := sencode.AsList(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding square-root matrix")
	}
	out := make([][]uint, len(l.Items))
	for i, rowVal := range l.Items {
		rowList, err := sencode.AsList(rowVal)
		if err != nil {
			return nil, errors.Wrap(err, "wire: decoding square-root matrix row")
		}
		row := make([]uint, len(rowList.Items))
		for j, it := range rowList.Items {
			n, err := sencode.AsInt(it)
			if err != nil {
				return nil, errors.Wrap(err, "wire: decoding square-root matrix entry")
			}
			row[j] = uint(n.V)
		}
		out[i] = row
	}
	return out, nil
}

// EncodeUintSlice renders a plain []uint as a sencode list of integers,
// for the small auxiliary arrays (essence, per-block dyadic signatures)
// the quasi-dyadic variant carries alongside its
// field/poly/matrix/perm building blocks.
func EncodeUintSlice(s []uint) sencode.Value {
	items := make([]sencode.Value, len(s))
	for i, v := range s {
		items[i] = sencode.Int{V: uint64(v)}
	}
	return sencode.List{Items: items}
}

// DecodeUintSlice parses a []uint produced by EncodeUintSlice.
func DecodeUintSlice(v sencode.Value) ([]uint, error) {
	l, err := sencode.AsList(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding integer list")
	}
	out := make([]uint, len(l.Items))
	for i, it := range l.Items {
		n, err := sencode.AsInt(it)
		if err != nil {
			return nil, errors.Wrap(err, "wire: decoding integer list entry")
		}
		out[i] = uint(n.V)
	}
	return out, nil
}

// EncodeBitVector renders v as (bit length, bytes), the bytes zero-padded
// to a whole number of bytes.
func EncodeBitVector(v *bitvec.Vector) (sencode.Value, error) {
	padded := v.Clone()
	padded.Resize((v.Len()+7)/8*8, false)
	b, err := padded.ToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "wire: encoding bit-vector")
	}
	return sencode.List{Items: []sencode.Value{
		sencode.Int{V: uint64(v.Len())},
		sencode.Bytes{V: b},
	}}, nil
}

// DecodeBitVector parses a bit-vector produced by EncodeBitVector.
func DecodeBitVector(v sencode.Value) (*bitvec.Vector, error) {
	l, err := sencode.AsList(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding bit-vector")
	}
	if len(l.Items) != 2 {
		return nil, errors.New("wire: malformed bit-vector")
	}
	n, err := sencode.AsInt(l.Items[0])
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding bit-vector length")
	}
	b, err := sencode.AsBytes(l.Items[1])
	if err != nil {
		return nil, errors.Wrap(err, "wire: decoding bit-vector bytes")
	}
	return bitvec.FromBytes(b.V, int(n.V)), nil
}
