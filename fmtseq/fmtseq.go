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

// Package fmtseq implements FMTseq: a stateful hash-based one-time
// signature scheme built from a Merkle authentication tree of Winternitz
// (w=2) one-time leaves. A key pair is good for 2^(h*l) signatures,
// where h is the sub-tree height and l the number of stacked levels;
// every signature consumes the next unused leaf and must never be
// replayed.
package fmtseq

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/hashstream"
	"github.com/exaexa/ccr/internal"
	"github.com/exaexa/ccr/sencode"
)

const pubKeyTag = "CCR-PUBLIC-KEY-FMTSEQ"
const privKeyTag = "CCR-PRIVATE-KEY-FMTSEQ"

// PrivateKey holds the PRNG seed every leaf's one-time key material is
// derived from, the tree shape parameters, and the sequential leaf
// counter that must never move backwards or be reused across processes.
type PrivateKey struct {
	SK       []byte
	H, L     uint
	HS       int // padded-message hash size, in bits — independent of Hash.Size()
	SigsUsed uint64
	Hash     hashstream.Hash
	Cipher   hashstream.StreamCipher

	tree [][][]byte // tree[level][index], level 0 = leaves, last level = root
}

// PublicKey is the Merkle tree's top hash, plus the total tree height
// needed to size an authentication path at verify time.
type PublicKey struct {
	Check []byte
	H     uint
	HS    int
	Hash  hashstream.Hash
}

// totalHeight is the tree height h*l: sigs_remaining()'s exponent and
// the authentication path length every signature carries.
func (priv *PrivateKey) totalHeight() uint { return priv.H * priv.L }

// SigsRemaining reports how many one-time leaves are still unused.
func (priv *PrivateKey) SigsRemaining() uint64 {
	total := uint64(1) << priv.totalHeight()
	return total - priv.SigsUsed
}

func log2Floor(x int) int {
	r := -1
	for x > 0 {
		r++
		x >>= 1
	}
	return r
}

// checksumBits is the number of extra Winternitz digits appended after
// the message-hash bits to carry a count of how many message digits were
// 0 — without it, an attacker who observes a signature could turn any
// revealed "digit 0" preimage into a valid "digit 1" reveal for free
// (one more hash), silently growing the signed message's value.
func checksumBits(msgBits int) int {
	return log2Floor(msgBits) + 1
}

func leafIndexBytes(i uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], i)
	return b[:]
}

// leafSecrets derives the totalPositions secret preimages for leaf i,
// deterministically from SK and i alone — regenerated on demand both at
// keygen (to build the public tree) and at sign time (to reveal the
// digits of one message), never stored.
func leafSecrets(cipher hashstream.StreamCipher, hash hashstream.Hash, sk []byte, leaf uint64, totalPositions int) ([][]byte, error) {
	seed := hash.Sum(append(append([]byte{}, sk...), leafIndexBytes(leaf)...))
	stream, err := cipher.KeyStream(seed, totalPositions*hash.Size())
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: deriving leaf key stream")
	}
	xs := make([][]byte, totalPositions)
	for j := 0; j < totalPositions; j++ {
		xs[j] = stream[j*hash.Size() : (j+1)*hash.Size()]
	}
	return xs, nil
}

// leafPublicHash folds a leaf's secret preimages into the single hash
// that the Merkle tree is built from: one more hash per position (the
// Winternitz w=2 public value), concatenated and hashed again.
func leafPublicHash(hash hashstream.Hash, xs [][]byte) []byte {
	var y bytes.Buffer
	for _, x := range xs {
		y.Write(hash.Sum(x))
	}
	return hash.Sum(y.Bytes())
}

// Generate builds a new FMTseq key pair good for 2^(h*l) signatures. hs
// is the padded-message hash size in bits (spec.md §4.10's explicit
// parameter); hash folds tree nodes and Winternitz commitments, and may
// be a narrower digest than the message hash the caller hashes messages
// with before calling Sign.
func Generate(h, l uint, hs int, hash hashstream.Hash, cipher hashstream.StreamCipher, rng io.Reader) (*PublicKey, *PrivateKey, error) {
	if h == 0 || l == 0 {
		return nil, nil, errors.New("fmtseq: h and l must be positive")
	}
	if hs <= 0 {
		return nil, nil, errors.New("fmtseq: hash size must be positive")
	}

	sk := make([]byte, hash.Size())
	if _, err := io.ReadFull(rng, sk); err != nil {
		return nil, nil, errors.Wrap(err, "fmtseq: generating seed")
	}

	priv := &PrivateKey{SK: sk, H: h, L: l, HS: hs, Hash: hash, Cipher: cipher}
	if err := priv.buildTree(); err != nil {
		return nil, nil, err
	}

	top := priv.tree[len(priv.tree)-1][0]
	pub := &PublicKey{Check: top, H: priv.totalHeight(), HS: hs, Hash: hash}
	return pub, priv, nil
}

// buildTree recomputes the full leaf-to-root hash tree from SK. It is
// the "prepare" step for a deserialized private key, and is also called
// once by Generate: the tree is always a pure function of SK, H and L.
func (priv *PrivateKey) buildTree() error {
	totalPositions := priv.HS + checksumBits(priv.HS)

	sigs := uint64(1) << priv.totalHeight()
	level := make([][]byte, sigs)
	for i := uint64(0); i < sigs; i++ {
		xs, err := leafSecrets(priv.Cipher, priv.Hash, priv.SK, i, totalPositions)
		if err != nil {
			return err
		}
		level[i] = leafPublicHash(priv.Hash, xs)
	}

	tree := [][][]byte{level}
	for len(level) > 1 {
		next := make([][]byte, len(level)/2)
		for i := range next {
			next[i] = priv.Hash.Sum(append(append([]byte{}, level[2*i]...), level[2*i+1]...))
		}
		tree = append(tree, next)
		level = next
	}

	priv.tree = tree
	return nil
}

// Prepare rebuilds the in-memory tree cache after deserializing a
// private key; every other derived quantity is recomputed on demand.
func (priv *PrivateKey) Prepare() error {
	return priv.buildTree()
}

func messageDigits(hash *bitvec.Vector, msgBits, totalPositions int) []bool {
	digits := make([]bool, totalPositions)
	zeros := 0
	for i := 0; i < msgBits; i++ {
		digits[i] = hash.Get(i)
		if !digits[i] {
			zeros++
		}
	}
	nChecksumBits := totalPositions - msgBits
	for i := 0; i < nChecksumBits; i++ {
		bit := (zeros >> uint(nChecksumBits-1-i)) & 1
		digits[msgBits+i] = bit != 0
	}
	return digits
}

// Sign consumes the next unused leaf and emits a Winternitz one-time
// signature of hash (already padded and hashed to hash.Size() bytes by
// the caller) plus the leaf's Merkle authentication path. rng is unused:
// FMTseq's signing is entirely deterministic given the private state,
// but the parameter is kept for interface symmetry with the other
// variants' Sign methods.
func (priv *PrivateKey) Sign(hash *bitvec.Vector, rng io.Reader) (*bitvec.Vector, error) {
	if hash.Len() != priv.HS {
		return nil, internal.ErrInputSize
	}
	if priv.SigsRemaining() == 0 {
		return nil, internal.ErrSignaturesExhausted
	}

	totalPositions := priv.HS + checksumBits(priv.HS)
	digits := messageDigits(hash, priv.HS, totalPositions)

	leaf := priv.SigsUsed
	xs, err := leafSecrets(priv.Cipher, priv.Hash, priv.SK, leaf, totalPositions)
	if err != nil {
		return nil, err
	}

	reveals := make([][]byte, totalPositions)
	for j := 0; j < totalPositions; j++ {
		if digits[j] {
			reveals[j] = priv.Hash.Sum(xs[j])
		} else {
			reveals[j] = xs[j]
		}
	}

	height := int(priv.totalHeight())
	authPath := make([][]byte, height)
	idx := leaf
	for lvl := 0; lvl < height; lvl++ {
		authPath[lvl] = priv.tree[lvl][idx^1]
		idx >>= 1
	}

	priv.SigsUsed++

	var buf bytes.Buffer
	buf.Write(leafIndexBytes(leaf))
	for _, r := range reveals {
		buf.Write(r)
	}
	for _, a := range authPath {
		buf.Write(a)
	}
	return bitvec.FromBytes(buf.Bytes(), buf.Len()*8), nil
}

// Verify checks signature against hash using pub.
func (pub *PublicKey) Verify(hash, signature *bitvec.Vector) bool {
	if hash.Len() != pub.HS {
		return false
	}

	totalPositions := pub.HS + checksumBits(pub.HS)
	hsz := pub.Hash.Size()
	height := int(pub.H)
	wantBytes := 8 + totalPositions*hsz + height*hsz

	sigBytes, err := signature.ToBytes()
	if err != nil || len(sigBytes) != wantBytes {
		return false
	}

	leaf := binary.BigEndian.Uint64(sigBytes[:8])
	if leaf >= uint64(1)<<uint(height) {
		return false
	}

	off := 8
	reveals := make([][]byte, totalPositions)
	for j := 0; j < totalPositions; j++ {
		reveals[j] = sigBytes[off : off+hsz]
		off += hsz
	}
	authPath := make([][]byte, height)
	for lvl := 0; lvl < height; lvl++ {
		authPath[lvl] = sigBytes[off : off+hsz]
		off += hsz
	}

	digits := messageDigits(hash, pub.HS, totalPositions)

	var y bytes.Buffer
	for j := 0; j < totalPositions; j++ {
		if digits[j] {
			y.Write(reveals[j])
		} else {
			y.Write(pub.Hash.Sum(reveals[j]))
		}
	}
	cur := pub.Hash.Sum(y.Bytes())

	idx := leaf
	for lvl := 0; lvl < height; lvl++ {
		if idx&1 == 0 {
			cur = pub.Hash.Sum(append(append([]byte{}, cur...), authPath[lvl]...))
		} else {
			cur = pub.Hash.Sum(append(append([]byte{}, authPath[lvl]...), cur...))
		}
		idx >>= 1
	}

	return bytes.Equal(cur, pub.Check)
}

// Serialize renders pub as a tagged sencode list.
func (pub *PublicKey) Serialize() (sencode.Value, error) {
	return sencode.Tagged(pubKeyTag,
		sencode.Bytes{V: pub.Check},
		sencode.Int{V: uint64(pub.H)},
		sencode.Int{V: uint64(pub.HS)},
		sencode.Str(pub.Hash.Name()),
	), nil
}

// DeserializePublicKey parses a tagged sencode list produced by
// Serialize.
func DeserializePublicKey(v sencode.Value) (*PublicKey, error) {
	items, err := sencode.ExpectTag(v, pubKeyTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, internal.ErrMalformed
	}
	check, err := sencode.AsBytes(items[0])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding check hash")
	}
	h, err := sencode.AsInt(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding tree height")
	}
	hs, err := sencode.AsInt(items[2])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding message hash size")
	}
	hashName, err := sencode.AsBytes(items[3])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding hash name")
	}
	hash, err := hashstream.HashByName(string(hashName.V))
	if err != nil {
		return nil, err
	}
	return &PublicKey{Check: check.V, H: uint(h.V), HS: int(hs.V), Hash: hash}, nil
}

// Serialize renders priv as a tagged sencode list.
func (priv *PrivateKey) Serialize() (sencode.Value, error) {
	return sencode.Tagged(privKeyTag,
		sencode.Bytes{V: priv.SK},
		sencode.Int{V: uint64(priv.H)},
		sencode.Int{V: uint64(priv.L)},
		sencode.Int{V: uint64(priv.HS)},
		sencode.Int{V: priv.SigsUsed},
		sencode.Str(priv.Hash.Name()),
		sencode.Str(priv.Cipher.Name()),
	), nil
}

// DeserializePrivateKey parses a tagged sencode list produced by
// Serialize and rebuilds the tree cache via Prepare.
func DeserializePrivateKey(v sencode.Value) (*PrivateKey, error) {
	items, err := sencode.ExpectTag(v, privKeyTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 7 {
		return nil, internal.ErrMalformed
	}
	sk, err := sencode.AsBytes(items[0])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding seed")
	}
	h, err := sencode.AsInt(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding sub-tree height")
	}
	l, err := sencode.AsInt(items[2])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding level count")
	}
	hs, err := sencode.AsInt(items[3])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding message hash size")
	}
	sigsUsed, err := sencode.AsInt(items[4])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding signature counter")
	}
	hashName, err := sencode.AsBytes(items[5])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding hash name")
	}
	hash, err := hashstream.HashByName(string(hashName.V))
	if err != nil {
		return nil, err
	}
	cipherName, err := sencode.AsBytes(items[6])
	if err != nil {
		return nil, errors.Wrap(err, "fmtseq: decoding cipher name")
	}
	cipher, err := hashstream.StreamCipherByName(string(cipherName.V))
	if err != nil {
		return nil, err
	}

	priv := &PrivateKey{
		SK:       sk.V,
		H:        uint(h.V),
		L:        uint(l.V),
		HS:       int(hs.V),
		SigsUsed: sigsUsed.V,
		Hash:     hash,
		Cipher:   cipher,
	}
	if err := priv.Prepare(); err != nil {
		return nil, err
	}
	return priv, nil
}
