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

// Package nd implements the classical Niederreiter cryptosystem: the
// dual of McEliece, where the plaintext itself is a weight-t error
// vector and encryption is just the syndrome H*e under a scrambled,
// permuted Goppa check matrix.
package nd

import (
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/field"
	"github.com/exaexa/ccr/goppa"
	"github.com/exaexa/ccr/internal"
	"github.com/exaexa/ccr/internal/wire"
	"github.com/exaexa/ccr/matrix"
	"github.com/exaexa/ccr/perm"
	"github.com/exaexa/ccr/poly"
	"github.com/exaexa/ccr/sencode"
)

const pubKeyTag = "CCR-PUBLIC-KEY-ND"
const privKeyTag = "CCR-PRIVATE-KEY-ND"

// PublicKey is the scrambled, permuted Goppa check matrix, plus the
// error weight t it expects of any plaintext.
type PublicKey struct {
	H *matrix.Matrix
	T int
}

// PrivateKey holds the inverse scramble, the permutation used to build
// the public check matrix, the Goppa polynomial and field, and the
// cached square-root matrix needed to decode.
type PrivateKey struct {
	Sinv  *matrix.Matrix
	Pinv  *perm.Perm
	G     *poly.Poly
	Field *field.Field

	SqInv [][]uint
}

// CipherSize is the syndrome length.
func (pub *PublicKey) CipherSize() int { return pub.H.Height() }

// PlainSize is the error-vector length.
func (pub *PublicKey) PlainSize() int { return pub.H.Width() }

// CipherSize is the syndrome length.
func (priv *PrivateKey) CipherSize() int { return priv.Sinv.Height() }

// PlainSize is the error-vector length.
func (priv *PrivateKey) PlainSize() int { return priv.Pinv.Len() }

// PlainWeight is the Hamming weight every valid plaintext must carry.
func (priv *PrivateKey) PlainWeight() int { return priv.G.Degree() }

// Generate builds a new Niederreiter key pair for field degree m and
// error weight t.
func Generate(m, t int, rng io.Reader) (*PublicKey, *PrivateKey, error) {
	f, err := field.New(uint(m))
	if err != nil {
		return nil, nil, errors.Wrap(err, "nd: constructing field")
	}

	g, err := poly.GenerateRandomIrreducible(t, f, rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "nd: generating Goppa polynomial")
	}

	h, err := goppa.CheckMatrix(g, f)
	if err != nil {
		return nil, nil, errors.Wrap(err, "nd: building check matrix")
	}

	s, sInv, err := randomInvertibleMatrix(h.Height(), rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "nd: generating scrambling matrix")
	}

	pinv, err := perm.Random(h.Width(), rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "nd: generating scrambling permutation")
	}

	scrambled, err := s.Mult(h)
	if err != nil {
		return nil, nil, errors.Wrap(err, "nd: scrambling check matrix")
	}
	pubH := permuteColumns(scrambled, pinv)

	pub := &PublicKey{H: pubH, T: t}
	priv := &PrivateKey{Sinv: sInv, Pinv: pinv, G: g, Field: f}
	if err := priv.Prepare(); err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// Prepare (re)computes the square-root matrix used by Decrypt/Sign.
func (priv *PrivateKey) Prepare() error {
	sqInv, err := poly.ComputeSquareRootMatrix(priv.G, priv.Field)
	if err != nil {
		return errors.Wrap(err, "nd: computing square-root matrix")
	}
	priv.SqInv = sqInv
	return nil
}

func permuteColumns(m *matrix.Matrix, p *perm.Perm) *matrix.Matrix {
	out := matrix.New(m.Width(), m.Height())
	for i, col := range m.Cols {
		out.Cols[p.Apply(i)] = col.Clone()
	}
	return out
}

func randomInvertibleMatrix(n int, rng io.Reader) (s, sInv *matrix.Matrix, err error) {
	for {
		s = matrix.New(n, n)
		for c := 0; c < n; c++ {
			for r := 0; r < n; r++ {
				b, err := randBit(rng)
				if err != nil {
					return nil, nil, err
				}
				s.Set(r, c, b)
			}
		}
		inv, err := matrix.ComputeInversion(s, false, false)
		if err == nil {
			return s, inv, nil
		}
	}
}

func randBit(rng io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(rng, b[:]); err != nil {
		return false, errors.Wrap(err, "nd: reading randomness")
	}
	return b[0]&1 != 0, nil
}

// Encrypt computes the syndrome H*msg. msg must already be a weight-t
// vector; Niederreiter carries no separate error-generation step since
// the plaintext itself plays that role.
func (pub *PublicKey) Encrypt(msg *bitvec.Vector) (*bitvec.Vector, error) {
	if msg.Len() != pub.PlainSize() {
		return nil, internal.ErrInputSize
	}
	return pub.H.MultVector(msg)
}

// Decrypt recovers the weight-t error vector a ciphertext's syndrome
// came from.
func (priv *PrivateKey) Decrypt(ct *bitvec.Vector) (*bitvec.Vector, error) {
	if ct.Len() != priv.CipherSize() {
		return nil, internal.ErrInputSize
	}

	unsc, err := priv.Sinv.MultVector(ct)
	if err != nil {
		return nil, errors.Wrap(err, "nd: unscrambling syndrome")
	}

	syndrome := poly.New(bitvec.ToPolyCotrace(unsc, priv.G.Degree()))
	loc, err := goppa.Decode(syndrome, priv.G, priv.SqInv, priv.Field)
	if err != nil {
		return nil, internal.ErrDecodingFailed
	}

	ev, ok := goppa.EvaluateErrorLocatorTrace(loc, priv.Field)
	if !ok || weight(ev) != priv.G.Degree() {
		return nil, internal.ErrDecodingFailed
	}

	return priv.Pinv.PermuteBitVector(ev), nil
}

func weight(v *bitvec.Vector) int {
	n := 0
	for i := 0; i < v.Len(); i++ {
		if v.Get(i) {
			n++
		}
	}
	return n
}

// Sign implements the CFS-style signature: it flips delta random bits
// of the message hash and attempts to decode the result as a syndrome,
// retrying up to attempts times until one flips into a decodable
// syndrome.
func (priv *PrivateKey) Sign(hash *bitvec.Vector, delta, attempts int, rng io.Reader) (*bitvec.Vector, error) {
	if hash.Len() != priv.CipherSize() {
		return nil, internal.ErrInputSize
	}

	for try := 0; try < attempts; try++ {
		synd := hash.Clone()
		for i := 0; i < delta; i++ {
			pos, err := randIndex(rng, synd.Len())
			if err != nil {
				return nil, err
			}
			synd.Set(pos, !synd.Get(pos))
		}

		unsc, err := priv.Sinv.MultVector(synd)
		if err != nil {
			return nil, errors.Wrap(err, "nd: unscrambling syndrome")
		}

		syndromePoly := poly.New(bitvec.ToPolyCotrace(unsc, priv.G.Degree()))
		loc, err := goppa.Decode(syndromePoly, priv.G, priv.SqInv, priv.Field)
		if err != nil {
			continue
		}

		ev, ok := goppa.EvaluateErrorLocatorTrace(loc, priv.Field)
		if !ok {
			continue
		}

		return priv.Pinv.PermuteBitVector(ev), nil
	}
	return nil, internal.ErrDecodingFailed
}

func randIndex(rng io.Reader, bound int) (int, error) {
	var b [4]byte
	limit := uint32(bound)
	threshold := (uint32(0xFFFFFFFF) / limit) * limit
	for {
		if _, err := io.ReadFull(rng, b[:]); err != nil {
			return 0, errors.Wrap(err, "nd: reading randomness")
		}
		v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		if v < threshold || threshold == 0 {
			return int(v % limit), nil
		}
	}
}

// Verify checks that signature, pushed back through the public check
// matrix, differs from hash in at most delta bit positions.
func (pub *PublicKey) Verify(signature, hash *bitvec.Vector, delta int) (bool, error) {
	tmp, err := pub.H.MultVector(signature)
	if err != nil {
		return false, errors.Wrap(err, "nd: recomputing syndrome")
	}
	if tmp.Len() != hash.Len() {
		return false, internal.ErrInputSize
	}
	tmp.Add(hash)
	return weight(tmp) <= delta, nil
}

// Serialize renders pub as a tagged sencode list.
func (pub *PublicKey) Serialize() (sencode.Value, error) {
	hVal, err := wire.EncodeMatrix(pub.H)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(pubKeyTag, hVal, sencode.Int{V: uint64(pub.T)}), nil
}

// DeserializePublicKey parses a tagged sencode list produced by
// Serialize.
func DeserializePublicKey(v sencode.Value) (*PublicKey, error) {
	items, err := sencode.ExpectTag(v, pubKeyTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, internal.ErrMalformed
	}
	h, err := wire.DecodeMatrix(items[0])
	if err != nil {
		return nil, err
	}
	t, err := sencode.AsInt(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "nd: decoding error weight")
	}
	return &PublicKey{H: h, T: int(t.V)}, nil
}

// Serialize renders priv as a tagged sencode list. SqInv is not
// serialized; DeserializePrivateKey calls Prepare to rebuild it.
func (priv *PrivateKey) Serialize() (sencode.Value, error) {
	sInvVal, err := wire.EncodeMatrix(priv.Sinv)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(privKeyTag,
		sInvVal,
		wire.EncodePerm(priv.Pinv),
		wire.EncodePoly(priv.G),
		wire.EncodeField(priv.Field),
	), nil
}

// DeserializePrivateKey parses a tagged sencode list produced by
// Serialize and recomputes the derived square-root matrix.
func DeserializePrivateKey(v sencode.Value) (*PrivateKey, error) {
	items, err := sencode.ExpectTag(v, privKeyTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, internal.ErrMalformed
	}

	sInv, err := wire.DecodeMatrix(items[0])
	if err != nil {
		return nil, err
	}
	pinv, err := wire.DecodePerm(items[1])
	if err != nil {
		return nil, err
	}
	g, err := wire.DecodePoly(items[2])
	if err != nil {
		return nil, err
	}
	f, err := wire.DecodeField(items[3])
	if err != nil {
		return nil, err
	}

	priv := &PrivateKey{Sinv: sInv, Pinv: pinv, G: g, Field: f}
	if err := priv.Prepare(); err != nil {
		return nil, err
	}
	return priv, nil
}
