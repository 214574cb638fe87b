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

package registry

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/hashstream"
	"github.com/exaexa/ccr/internal"
	"github.com/exaexa/ccr/sencode"
)

// codePublicKey is the shape mce.PublicKey, mceqd.PublicKey and
// qcmdpc.PublicKey all already satisfy: an error-correcting code used as
// a one-way trapdoor, parametrized by a fixed error weight. The FO
// construction of spec.md §4.13 only ever needs this much of each
// variant's public half.
type codePublicKey interface {
	PlainSize() int
	CipherSize() int
	ErrorCount() int
	EncryptWithErrors(msg, errs *bitvec.Vector) (*bitvec.Vector, error)
	Serialize() (sencode.Value, error)
}

// codePrivateKey is the corresponding private-half shape.
type codePrivateKey interface {
	CipherSize() int
	DecryptWithErrors(ct *bitvec.Vector) (msg, errs *bitvec.Vector, err error)
	Prepare() error
	Serialize() (sencode.Value, error)
}

// codeFamily bundles a code variant's keygen and deserializers behind the
// codePublicKey/codePrivateKey shape, so the FO wrapper below can stay
// generic across mce, mceqd and qcmdpc — the "data table, not a class
// hierarchy" redesign of spec.md §9 applied one level below the
// algorithm names themselves.
type codeFamily struct {
	generate  func(rng io.Reader) (codePublicKey, codePrivateKey, error)
	deserPub  func(v sencode.Value) (codePublicKey, error)
	deserPriv func(v sencode.Value) (codePrivateKey, error)
}

// randIndexFrom draws a value uniformly in [0, bound) from r by rejection
// sampling on 4-byte reads, exactly as mce.randIndex/mceqd.randIndex/
// qcmdpc.randIndex do against crypto/rand — generalized here to draw from
// a deterministic keystream reader instead.
func randIndexFrom(r io.Reader, bound int) (int, error) {
	var b [4]byte
	limit := uint32(bound)
	threshold := (uint32(0xFFFFFFFF) / limit) * limit
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, errors.Wrap(err, "registry: reading deterministic error-vector stream")
		}
		v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		if v < threshold || threshold == 0 {
			return int(v % limit), nil
		}
	}
}

// deterministicWeightVector draws a length-n, Hamming-weight-`weight`
// vector whose bit positions are a pure function of seed: the FO
// construction's "hash of seed and ciphertext serves as the error
// vector" (spec.md §4.13) needs the error pattern to be exactly
// reproducible by the verifier from public information, unlike the
// uniformly-random draw each code family's own Encrypt use against
// crypto/rand.
func deterministicWeightVector(n, weight int, seed []byte, cipher hashstream.StreamCipher) (*bitvec.Vector, error) {
	bufLen := 256 + weight*256
	stream, err := cipher.KeyStream(seed, bufLen)
	if err != nil {
		return nil, errors.Wrap(err, "registry: expanding error-vector seed")
	}
	r := bytes.NewReader(stream)

	v := bitvec.New(n)
	used := map[int]bool{}
	for k := weight; k > 0; {
		p, err := randIndexFrom(r, n)
		if err != nil {
			return nil, err
		}
		if !used[p] {
			used[p] = true
			v.Set(p, true)
			k--
		}
	}
	return v, nil
}

// packBytes renders v as bytes for hashing/keying purposes, zero-padding
// to the next byte boundary first: unlike bitvec.Vector.ToBytes, it never
// errors on a bit length that isn't a multiple of 8, which the code
// families' PlainSize/CipherSize frequently aren't. Both sides of the FO
// construction pad the same way, so the extra zero bits never cause a
// mismatch.
func packBytes(v *bitvec.Vector) ([]byte, error) {
	c := v.Clone()
	if c.Len()%8 != 0 {
		c.Resize(c.Len()+(8-c.Len()%8), false)
	}
	return c.ToBytes()
}

// foEncrypt implements spec.md §4.13's Fujisaki-Okamoto-style
// construction over any codeFamily member: draw a random seed the size
// of the code primitive's own plaintext; expand it through the named
// stream cipher into a one-time pad for the caller's message; derive the
// code primitive's error pattern deterministically from the hash of the
// seed and the padded message, so the receiver can recompute and check
// it; encrypt the seed itself through the code primitive with that error
// pattern. The wire ciphertext is the code ciphertext followed by the
// one-time-pad-masked message.
func foEncrypt(pub codePublicKey, msg *bitvec.Vector, hash hashstream.Hash, cipher hashstream.StreamCipher, rng io.Reader) (*bitvec.Vector, error) {
	seedBytes := make([]byte, (pub.PlainSize()+7)/8)
	if _, err := io.ReadFull(rng, seedBytes); err != nil {
		return nil, errors.Wrap(err, "registry: drawing FO seed")
	}
	seed := bitvec.FromBytes(seedBytes, pub.PlainSize())

	seedRaw, err := packBytes(seed)
	if err != nil {
		return nil, errors.Wrap(err, "registry: packing FO seed")
	}

	padBytes, err := cipher.KeyStream(hash.Sum(seedRaw), (msg.Len()+7)/8)
	if err != nil {
		return nil, errors.Wrap(err, "registry: generating one-time pad")
	}
	ote := msg.Clone()
	ote.Add(bitvec.FromBytes(padBytes, msg.Len()))

	oteRaw, err := packBytes(ote)
	if err != nil {
		return nil, errors.Wrap(err, "registry: packing one-time-pad ciphertext")
	}

	errSeed := hash.Sum(append(append([]byte{}, seedRaw...), oteRaw...))
	errs, err := deterministicWeightVector(pub.CipherSize(), pub.ErrorCount(), errSeed, cipher)
	if err != nil {
		return nil, err
	}

	codeCt, err := pub.EncryptWithErrors(seed, errs)
	if err != nil {
		return nil, err
	}

	out := codeCt.Clone()
	out.Append(ote)
	return out, nil
}

// foDecrypt reverses foEncrypt: split the code ciphertext from the
// one-time-pad tail, decode the seed, re-derive the error pattern the
// sender must have used and reject the ciphertext if the decoder's
// recovered pattern doesn't match it (the FO transform's validity check,
// turning a decryption oracle into nothing more useful than a decoding
// oracle), then unmask the message.
func foDecrypt(priv codePrivateKey, codeCipherSize int, ct *bitvec.Vector, hash hashstream.Hash, cipher hashstream.StreamCipher) (*bitvec.Vector, error) {
	if ct.Len() <= codeCipherSize {
		return nil, internal.ErrInputSize
	}
	codeCt := ct.GetBlock(0, codeCipherSize)
	ote := ct.GetBlock(codeCipherSize, ct.Len()-codeCipherSize)

	seed, errs, err := priv.DecryptWithErrors(codeCt)
	if err != nil {
		return nil, err
	}

	seedRaw, err := packBytes(seed)
	if err != nil {
		return nil, errors.Wrap(err, "registry: packing decoded FO seed")
	}
	oteRaw, err := packBytes(ote)
	if err != nil {
		return nil, errors.Wrap(err, "registry: packing one-time-pad ciphertext")
	}

	errSeed := hash.Sum(append(append([]byte{}, seedRaw...), oteRaw...))
	expectedErrs, err := deterministicWeightVector(errs.Len(), errs.HammingWeight(), errSeed, cipher)
	if err != nil {
		return nil, err
	}
	expectedRaw, err := packBytes(expectedErrs)
	if err != nil {
		return nil, errors.Wrap(err, "registry: packing expected error vector")
	}
	gotRaw, err := packBytes(errs)
	if err != nil {
		return nil, errors.Wrap(err, "registry: packing decoded error vector")
	}
	if !bytes.Equal(expectedRaw, gotRaw) {
		return nil, internal.ErrDecodingFailed
	}

	padBytes, err := cipher.KeyStream(hash.Sum(seedRaw), (ote.Len()+7)/8)
	if err != nil {
		return nil, errors.Wrap(err, "registry: generating one-time pad")
	}
	msg := ote.Clone()
	msg.Add(bitvec.FromBytes(padBytes, ote.Len()))
	return msg, nil
}
