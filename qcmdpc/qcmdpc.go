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

// Package qcmdpc implements quasi-cyclic MDPC McEliece (Misoczki,
// Tillich, Sendrier, Barreto): a check matrix built from low-weight
// circulant blocks, decoded probabilistically by an iterative
// bit-flipping algorithm rather than an algebraic syndrome decoder.
package qcmdpc

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/internal"
	"github.com/exaexa/ccr/internal/wire"
	"github.com/exaexa/ccr/matrix"
	"github.com/exaexa/ccr/sencode"
)

const pubKeyTag = "CCR-PUBLIC-KEY-QCMDPC"
const privKeyTag = "CCR-PRIVATE-KEY-QCMDPC"

// PublicKey stores, per non-final block, the defining row of that
// block's checksum-generating circulant (G.Cols[i], length blockSize).
type PublicKey struct {
	G *matrix.Matrix
	T int
}

// PrivateKey stores, per block, the defining row of that block's
// circulant (H.Cols[i], length blockSize), plus the bit-flipping
// decoder's iteration budget and threshold margin.
type PrivateKey struct {
	H      *matrix.Matrix
	T      int
	Rounds int
	Delta  int
}

// CipherSize is the ciphertext length in bits.
func (pub *PublicKey) CipherSize() int { return pub.G.Height() * (pub.G.Width() + 1) }

// PlainSize is the plaintext length in bits.
func (pub *PublicKey) PlainSize() int { return pub.G.Height() * pub.G.Width() }

// ErrorCount is the number of error bits every ciphertext carries.
func (pub *PublicKey) ErrorCount() int { return pub.T }

// CipherSize is the ciphertext length in bits.
func (priv *PrivateKey) CipherSize() int { return priv.H.Height() * priv.H.Width() }

// PlainSize is the plaintext length in bits.
func (priv *PrivateKey) PlainSize() int { return priv.H.Height() * (priv.H.Width() - 1) }

// reversePoly returns the GF(2)[x]/(x^n-1) reciprocal of v: index 0
// stays fixed, every other index j maps to n-j. Converts between a
// circulant block's "first row" (direct weight-pattern form, used by
// rot_add at encrypt/decrypt time) and its "first column" (standard
// polynomial coefficient order, used by the GF(2)[x] gcd/mult/mod
// arithmetic below).
func reversePoly(v *bitvec.Vector) *bitvec.Vector {
	n := v.Len()
	out := bitvec.New(n)
	for j := 0; j < n; j++ {
		if v.Get(j) {
			if j == 0 {
				out.Set(0, true)
			} else {
				out.Set(n-j, true)
			}
		}
	}
	return out
}

// modulusPoly returns x^n + 1 over GF(2).
func modulusPoly(n int) *bitvec.Vector {
	v := bitvec.New(n + 1)
	v.Set(0, true)
	v.Set(n, true)
	return v
}

func randomWeightVector(n, weight int, rng io.Reader) (*bitvec.Vector, error) {
	v := bitvec.New(n)
	set := 0
	for set < weight {
		pos, err := randIndex(rng, n)
		if err != nil {
			return nil, err
		}
		if v.Get(pos) {
			continue
		}
		v.Set(pos, true)
		set++
	}
	return v, nil
}

func randIndex(rng io.Reader, bound int) (int, error) {
	if bound <= 0 {
		return 0, nil
	}
	var buf [4]byte
	limit := uint32(bound)
	threshold := (uint32(0xFFFFFFFF) / limit) * limit
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return 0, errors.Wrap(err, "qcmdpc: reading randomness")
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < threshold || threshold == 0 {
			return int(v % limit), nil
		}
	}
}

// Generate builds a new QC-MDPC key pair: blockCount blocks of
// blockSize bits each, every block's defining row of Hamming weight wi,
// decrypting with up to rounds bit-flipping iterations and threshold
// margin delta, for an error pattern of weight t.
func Generate(blockSize, blockCount, wi, t, rounds, delta int, rng io.Reader) (*PublicKey, *PrivateKey, error) {
	if wi > blockSize/2 {
		return nil, nil, errors.New("qcmdpc: row weight too large for block size")
	}

	xnm1 := modulusPoly(blockSize)

	var lastInv *bitvec.Vector
	h := matrix.New(blockCount, blockSize)
	for {
		g, err := randomWeightVector(blockSize, wi, rng)
		if err != nil {
			return nil, nil, err
		}
		gcd, x, _ := bitvec.ExtGCD(g, xnm1)
		if !bitvec.IsGF2PolyOne(gcd) {
			continue // not coprime to x^n-1, retry
		}
		lastInv = bitvec.GF2PolyMod(x, xnm1)
		h.Cols[blockCount-1] = reversePoly(g)
		break
	}

	pubG := matrix.New(blockCount-1, blockSize)
	for i := 0; i < blockCount-1; i++ {
		hi, err := randomWeightVector(blockSize, wi, rng)
		if err != nil {
			return nil, nil, err
		}
		h.Cols[i] = reversePoly(hi)
		pubG.Cols[i] = bitvec.GF2PolyMulMod(hi, lastInv, xnm1)
	}

	pub := &PublicKey{G: pubG, T: t}
	priv := &PrivateKey{H: h, T: t, Rounds: rounds, Delta: delta}
	return pub, priv, nil
}

// Prepare exists for API symmetry with the other variants; QC-MDPC's
// private key carries no derived state to recompute.
func (priv *PrivateKey) Prepare() error { return nil }

// Encrypt draws a random weight-t error pattern and encrypts msg with it.
func (pub *PublicKey) Encrypt(msg *bitvec.Vector, rng io.Reader) (*bitvec.Vector, error) {
	s := pub.CipherSize()
	if pub.T > s {
		return nil, internal.ErrInputSize
	}
	errs, err := randomWeightVector(s, pub.T, rng)
	if err != nil {
		return nil, err
	}
	return pub.EncryptWithErrors(msg, errs)
}

// EncryptWithErrors encrypts msg with an explicit error pattern: the
// checksum is built by rotate-adding each circulant block's row for
// every set plaintext bit, then appended and xored with errs.
func (pub *PublicKey) EncryptWithErrors(msg, errs *bitvec.Vector) (*bitvec.Vector, error) {
	ps := pub.PlainSize()
	if msg.Len() != ps {
		return nil, internal.ErrInputSize
	}
	if errs.Len() != pub.CipherSize() {
		return nil, internal.ErrInputSize
	}
	bs := pub.G.Height()

	bcheck := bitvec.New(bs)
	for i := 0; i < ps; i++ {
		if msg.Get(i) {
			bcheck.RotAdd(pub.G.Cols[i/bs], i%bs)
		}
	}

	out := msg.Clone()
	out.Append(bcheck)
	out.Add(errs)
	return out, nil
}

// Decrypt recovers the plaintext block of a ciphertext.
func (priv *PrivateKey) Decrypt(ct *bitvec.Vector) (*bitvec.Vector, error) {
	out, _, err := priv.DecryptWithErrors(ct)
	return out, err
}

// DecryptWithErrors runs the probabilistic bit-flipping decoder: each
// round recomputes, for every ciphertext bit, how many syndrome
// equations it participates in that are currently unsatisfied, flips
// every bit whose count is within delta of the round's maximum, and
// stops either when the syndrome vanishes (success) or the round budget
// is exhausted (failure).
func (priv *PrivateKey) DecryptWithErrors(ctOrig *bitvec.Vector) (out, errs *bitvec.Vector, err error) {
	cs := priv.CipherSize()
	if ctOrig.Len() != cs {
		return nil, nil, internal.ErrInputSize
	}
	bs := priv.H.Height()

	in := ctOrig.Clone()
	syndrome := bitvec.New(bs)
	for i := 0; i < cs; i++ {
		if in.Get(i) {
			syndrome.RotAdd(priv.H.Cols[i/bs], (bs-i%bs)%bs)
		}
	}

	unsatisfied := make([]int, cs)
	converged := false
	for round := 0; round < priv.Rounds; round++ {
		maxUnsat := 0
		for bit := 0; bit < cs; bit++ {
			tmp := bitvec.New(bs)
			tmp.RotAdd(priv.H.Cols[bit/bs], (bs-bit%bs)%bs)
			unsatisfied[bit] = tmp.AndHammingWeight(syndrome)
			if unsatisfied[bit] > maxUnsat {
				maxUnsat = unsatisfied[bit]
			}
		}

		if maxUnsat == 0 {
			converged = true
			break
		}

		threshold := 0
		if maxUnsat > priv.Delta {
			threshold = maxUnsat - priv.Delta
		}
		for bit := 0; bit < cs; bit++ {
			if unsatisfied[bit] > threshold {
				in.Set(bit, !in.Get(bit))
				syndrome.RotAdd(priv.H.Cols[bit/bs], (bs-bit%bs)%bs)
			}
		}
	}

	if !converged {
		return nil, nil, internal.ErrDecodingFailed
	}

	errs = ctOrig.Clone()
	errs.Add(in)
	out = in.Clone()
	out.Resize(priv.PlainSize(), false)
	return out, errs, nil
}

// Serialize renders pub as a tagged sencode list.
func (pub *PublicKey) Serialize() (sencode.Value, error) {
	gVal, err := wire.EncodeMatrix(pub.G)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(pubKeyTag, sencode.Int{V: uint64(pub.T)}, gVal), nil
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
	t, err := sencode.AsInt(items[0])
	if err != nil {
		return nil, errors.Wrap(err, "qcmdpc: decoding error weight")
	}
	g, err := wire.DecodeMatrix(items[1])
	if err != nil {
		return nil, err
	}
	return &PublicKey{G: g, T: int(t.V)}, nil
}

// Serialize renders priv as a tagged sencode list.
func (priv *PrivateKey) Serialize() (sencode.Value, error) {
	hVal, err := wire.EncodeMatrix(priv.H)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(privKeyTag,
		sencode.Int{V: uint64(priv.T)},
		sencode.Int{V: uint64(priv.Rounds)},
		sencode.Int{V: uint64(priv.Delta)},
		hVal,
	), nil
}

// DeserializePrivateKey parses a tagged sencode list produced by
// Serialize.
func DeserializePrivateKey(v sencode.Value) (*PrivateKey, error) {
	items, err := sencode.ExpectTag(v, privKeyTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, internal.ErrMalformed
	}
	t, err := sencode.AsInt(items[0])
	if err != nil {
		return nil, errors.Wrap(err, "qcmdpc: decoding error weight")
	}
	rounds, err := sencode.AsInt(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "qcmdpc: decoding round budget")
	}
	delta, err := sencode.AsInt(items[2])
	if err != nil {
		return nil, errors.Wrap(err, "qcmdpc: decoding flip threshold margin")
	}
	h, err := wire.DecodeMatrix(items[3])
	if err != nil {
		return nil, err
	}
	return &PrivateKey{H: h, T: int(t.V), Rounds: int(rounds.V), Delta: int(delta.V)}, nil
}
