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

// Package mce implements the classical McEliece cryptosystem: keygen
// builds a random irreducible binary Goppa code, scrambles its
// systematic generator with a random invertible matrix and a random
// column permutation; encryption adds a random small-weight error
// pattern to a codeword; decryption and the CFS-style signature scheme
// both decode through the private Goppa structure.
package mce

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

const pubKeyTag = "CCR-PUBLIC-KEY-MCE"
const privKeyTag = "CCR-PRIVATE-KEY-MCE"

const maxGeneratorAttempts = 1 << 16

// PublicKey is the scrambled, permuted systematic generator matrix of a
// random irreducible binary Goppa code, plus the error weight t it
// tolerates.
type PublicKey struct {
	G *matrix.Matrix
	T int
}

// PrivateKey holds the private structure needed to undo the scramble and
// decode through the Goppa code: the inverse scrambling matrix, the
// inverse column permutation, the Goppa polynomial and field, and the
// permutation used to build the generator from the check matrix. H and
// SqInv are derivable from Field/G via Prepare and are cached here for
// repeated decode/sign calls.
type PrivateKey struct {
	Sinv  *matrix.Matrix
	Pinv  *perm.Perm
	G     *poly.Poly
	HPerm *perm.Perm
	Field *field.Field

	H     *matrix.Matrix
	SqInv [][]uint
}

// CipherSize returns the code length (ciphertext/hash size).
func (pub *PublicKey) CipherSize() int { return pub.G.Width() }

// PlainSize returns the message/signature size.
func (pub *PublicKey) PlainSize() int { return pub.G.Height() }

// ErrorCount is the number of error bits every ciphertext carries.
func (pub *PublicKey) ErrorCount() int { return pub.T }

// CipherSize returns the code length.
func (priv *PrivateKey) CipherSize() int { return priv.Pinv.Len() }

// PlainSize returns the message/signature size.
func (priv *PrivateKey) PlainSize() int { return priv.Sinv.Width() }

// Generate builds a new classical McEliece key pair for field degree m
// and error-correction capacity t: a random irreducible Goppa polynomial
// of degree t, its check matrix, a scrambled/permuted systematic
// generator, and the inverse scramble and permutation kept private.
func Generate(m, t int, rng io.Reader) (*PublicKey, *PrivateKey, error) {
	f, err := field.New(uint(m))
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: constructing field")
	}

	g, err := poly.GenerateRandomIrreducible(t, f, rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: generating Goppa polynomial")
	}

	h, err := goppa.CheckMatrix(g, f)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: building check matrix")
	}

	generator, hperm, err := matrix.CreateGoppaGenerator(h, rng, maxGeneratorAttempts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: building Goppa generator")
	}

	s, sInv, err := randomInvertibleMatrix(generator.Height(), rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: generating scrambling matrix")
	}

	p, err := perm.Random(generator.Width(), rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: generating scrambling permutation")
	}

	scrambled, err := s.Mult(generator)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: scrambling generator")
	}
	pubG := permuteColumns(scrambled, p)

	pub := &PublicKey{G: pubG, T: t}
	priv := &PrivateKey{
		Sinv:  sInv,
		Pinv:  p.Inverse(),
		G:     g,
		HPerm: hperm,
		Field: f,
		H:     h,
	}
	if err := priv.Prepare(); err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// Prepare (re)computes the check matrix and square-root matrix from the
// field and Goppa polynomial, caching them for Decrypt/Sign. Called
// automatically by Generate, and again after deserializing a private key
// that did not carry the derived fields.
func (priv *PrivateKey) Prepare() error {
	h, err := goppa.CheckMatrix(priv.G, priv.Field)
	if err != nil {
		return errors.Wrap(err, "mce: recomputing check matrix")
	}
	priv.H = h

	sqInv, err := poly.ComputeSquareRootMatrix(priv.G, priv.Field)
	if err != nil {
		return errors.Wrap(err, "mce: computing square-root matrix")
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
		return false, errors.Wrap(err, "mce: reading randomness")
	}
	return b[0]&1 != 0, nil
}

// Encrypt draws a uniformly random weight-t error pattern and adds it to
// the codeword produced by encoding msg through the public generator.
func (pub *PublicKey) Encrypt(msg *bitvec.Vector, rng io.Reader) (*bitvec.Vector, error) {
	s := pub.CipherSize()
	if pub.T > s {
		return nil, internal.ErrInputSize
	}

	e := bitvec.New(s)
	used := map[int]bool{}
	for n := pub.T; n > 0; {
		p, err := randIndex(rng, s)
		if err != nil {
			return nil, err
		}
		if !used[p] {
			used[p] = true
			e.Set(p, true)
			n--
		}
	}
	return pub.EncryptWithErrors(msg, e)
}

// EncryptWithErrors encodes msg through the public generator and adds
// the caller-supplied error pattern, for deterministic testing or
// protocols that derive the error vector themselves (e.g. the FO
// transform).
func (pub *PublicKey) EncryptWithErrors(msg, errVec *bitvec.Vector) (*bitvec.Vector, error) {
	if msg.Len() != pub.PlainSize() || errVec.Len() != pub.CipherSize() {
		return nil, internal.ErrInputSize
	}
	out, err := pub.G.MultVecLeft(msg)
	if err != nil {
		return nil, errors.Wrap(err, "mce: encoding message")
	}
	out.Add(errVec)
	return out, nil
}

func randIndex(rng io.Reader, bound int) (int, error) {
	var b [4]byte
	limit := uint32(bound)
	threshold := (uint32(0xFFFFFFFF) / limit) * limit
	for {
		if _, err := io.ReadFull(rng, b[:]); err != nil {
			return 0, errors.Wrap(err, "mce: reading randomness")
		}
		v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		if v < threshold || threshold == 0 {
			return int(v % limit), nil
		}
	}
}

// Decrypt recovers the plaintext, discarding the recovered error
// pattern.
func (priv *PrivateKey) Decrypt(ct *bitvec.Vector) (*bitvec.Vector, error) {
	plain, _, err := priv.DecryptWithErrors(ct)
	return plain, err
}

// DecryptWithErrors recovers both the plaintext and the exact error
// pattern, in the same coordinate order as the ciphertext it was given,
// by undoing the scrambling permutation/matrix and running the Goppa
// decoder.
func (priv *PrivateKey) DecryptWithErrors(ct *bitvec.Vector) (plain, errs *bitvec.Vector, err error) {
	if ct.Len() != priv.CipherSize() {
		return nil, nil, internal.ErrInputSize
	}

	notPermuted := priv.Pinv.PermuteBitVector(ct)
	hpermInv := priv.HPerm.Inverse()
	canonical := hpermInv.PermuteBitVector(notPermuted)

	syndromeVec, err := priv.H.MultVector(canonical)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: computing syndrome")
	}

	syndrome := poly.New(bitvec.ToPolyCotrace(syndromeVec, priv.G.Degree()))
	loc, err := goppa.Decode(syndrome, priv.G, priv.SqInv, priv.Field)
	if err != nil {
		return nil, nil, internal.ErrDecodingFailed
	}

	ev, ok := goppa.EvaluateErrorLocatorTrace(loc, priv.Field)
	if !ok {
		return nil, nil, internal.ErrDecodingFailed
	}

	canonical.Add(ev)

	backToSystematic := priv.HPerm.PermuteBitVector(canonical)

	// ev is in canonical (check-matrix) order; undo HPerm the same way
	// backToSystematic does to reach the pre-public-permutation frame,
	// then undo the public column permutation P (priv.Pinv is P's
	// inverse, so reversing it back to P needs InversePermuteBitVector,
	// not PermuteBitVector again) to land in the same coordinates as the
	// ciphertext handed to DecryptWithErrors.
	systematicErrs := priv.HPerm.PermuteBitVector(ev)
	errs = priv.Pinv.InversePermuteBitVector(systematicErrs)

	backToSystematic.Resize(priv.PlainSize(), false)
	plain, err = priv.Sinv.MultVecLeft(backToSystematic)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mce: unscrambling plaintext")
	}
	return plain, errs, nil
}

// Sign implements the CFS-style signature used by classical McEliece: it
// treats hash as if it were a ciphertext, permutes it into the Goppa
// code's canonical (check-matrix) frame the same way DecryptWithErrors
// does, then tries flipping delta random canonical-frame bit positions
// of the resulting syndrome, retrying up to attempts times, until the
// perturbed syndrome decodes. The corrected canonical codeword is then
// unscrambled through the same path Decrypt uses to produce the
// signature.
func (priv *PrivateKey) Sign(hash *bitvec.Vector, delta, attempts int, rng io.Reader) (*bitvec.Vector, error) {
	if hash.Len() != priv.CipherSize() {
		return nil, internal.ErrInputSize
	}

	notPermuted := priv.Pinv.PermuteBitVector(hash)
	hpermInv := priv.HPerm.Inverse()
	canonical := hpermInv.PermuteBitVector(notPermuted)

	syndOrig, err := priv.H.MultVector(canonical)
	if err != nil {
		return nil, errors.Wrap(err, "mce: computing syndrome")
	}

	for try := 0; try < attempts; try++ {
		synd := syndOrig.Clone()
		extra := bitvec.New(canonical.Len())
		for i := 0; i < delta; i++ {
			pos, err := randIndex(rng, canonical.Len())
			if err != nil {
				return nil, err
			}
			if !extra.Get(pos) {
				synd.Add(priv.H.Cols[pos])
			}
			extra.Set(pos, true)
		}

		syndromePoly := poly.New(bitvec.ToPolyCotrace(synd, priv.G.Degree()))
		loc, err := goppa.Decode(syndromePoly, priv.G, priv.SqInv, priv.Field)
		if err != nil {
			continue
		}
		ev, ok := goppa.EvaluateErrorLocatorTrace(loc, priv.Field)
		if !ok {
			continue
		}

		corrected := canonical.Clone()
		corrected.Add(extra)
		corrected.Add(ev)

		backToSystematic := priv.HPerm.PermuteBitVector(corrected)
		backToSystematic.Resize(priv.PlainSize(), false)
		sig, err := priv.Sinv.MultVecLeft(backToSystematic)
		if err != nil {
			return nil, errors.Wrap(err, "mce: unscrambling signature")
		}
		return sig, nil
	}
	return nil, internal.ErrDecodingFailed
}

// Verify checks that signature, encoded back through the public
// generator, differs from hash in at most t+delta bit positions.
func (pub *PublicKey) Verify(signature, hash *bitvec.Vector, delta int) (bool, error) {
	tmp, err := pub.G.MultVecLeft(signature)
	if err != nil {
		return false, errors.Wrap(err, "mce: recomputing codeword")
	}
	if tmp.Len() != hash.Len() {
		return false, internal.ErrInputSize
	}
	tmp.Add(hash)
	return tmp.HammingWeight() <= pub.T+delta, nil
}

// Serialize renders pub as a tagged sencode list.
func (pub *PublicKey) Serialize() (sencode.Value, error) {
	gVal, err := wire.EncodeMatrix(pub.G)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(pubKeyTag, gVal, sencode.Int{V: uint64(pub.T)}), nil
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
	g, err := wire.DecodeMatrix(items[0])
	if err != nil {
		return nil, err
	}
	t, err := sencode.AsInt(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "mce: decoding error-correction capacity")
	}
	return &PublicKey{G: g, T: int(t.V)}, nil
}

// Serialize renders priv as a tagged sencode list. The derived H/SqInv
// fields are not serialized; DeserializePrivateKey calls Prepare to
// rebuild them, matching the original's "derivable things not needed in
// actual key" comment.
func (priv *PrivateKey) Serialize() (sencode.Value, error) {
	sInvVal, err := wire.EncodeMatrix(priv.Sinv)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(privKeyTag,
		sInvVal,
		wire.EncodePerm(priv.Pinv),
		wire.EncodePoly(priv.G),
		wire.EncodePerm(priv.HPerm),
		wire.EncodeField(priv.Field),
	), nil
}

// DeserializePrivateKey parses a tagged sencode list produced by
// Serialize and recomputes the derived check/square-root matrices.
func DeserializePrivateKey(v sencode.Value) (*PrivateKey, error) {
	items, err := sencode.ExpectTag(v, privKeyTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 5 {
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
	hperm, err := wire.DecodePerm(items[3])
	if err != nil {
		return nil, err
	}
	f, err := wire.DecodeField(items[4])
	if err != nil {
		return nil, err
	}

	priv := &PrivateKey{Sinv: sInv, Pinv: pinv, G: g, HPerm: hperm, Field: f}
	if err := priv.Prepare(); err != nil {
		return nil, err
	}
	return priv, nil
}
