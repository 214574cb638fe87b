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

// Package mceqd implements the quasi-dyadic McEliece variant: a McEliece
// cryptosystem whose check matrix is built from dyadic blocks so the
// public key stores only one signature vector per block instead of the
// whole block, and encryption multiplies blocks in O(t log t) via the
// Fast Walsh-Hadamard Transform instead of a dense matrix product;
// decryption accumulates an alternant syndrome bit by bit.
package mceqd

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/field"
	"github.com/exaexa/ccr/goppa"
	"github.com/exaexa/ccr/hashstream"
	"github.com/exaexa/ccr/internal"
	"github.com/exaexa/ccr/internal/wire"
	"github.com/exaexa/ccr/matrix"
	"github.com/exaexa/ccr/perm"
	"github.com/exaexa/ccr/poly"
	"github.com/exaexa/ccr/qd"
	"github.com/exaexa/ccr/sencode"
)

// attackWarning is emitted once per process by Generate/EncryptWithErrors/
// DecryptWithErrors: quasi-dyadic McEliece's structured check matrix is
// subject to an algebraic key-recovery attack (Faugere et al.) that plain
// McEliece isn't, and callers should be aware the variant trades that
// margin for a smaller public key.
const attackWarning = "mceqd: quasi-dyadic McEliece is vulnerable to algebraic key-recovery attacks; prefer mce or qcmdpc unless the smaller public key is required"

const pubKeyTag = "CCR-PUBLIC-KEY-MCEQD"
const privKeyTag = "CCR-PRIVATE-KEY-MCEQD"

// PublicKey is the quasi-dyadic signature matrix: QdSigs.Width() columns
// (one per kept, non-parity block) of QdSigs.Height() = blockSize*m bits
// each (one dyadic signature per field bit-plane), plus the per-block
// error weight exponent T (blockSize = 2^T).
type PublicKey struct {
	QdSigs *matrix.Matrix
	T      int
}

// PrivateKey holds the dyadic support function's essence (the m basis
// images whose XOR-closure is the support function), the block and
// within-block permutations used to scramble support placement, and the
// field. G, SupportPos and PermutedSupport are derived state,
// recomputed by Prepare.
type PrivateKey struct {
	Essence    []uint
	Field      *field.Field
	T          int
	BlockPerm  *perm.Perm // permutes the h_block_count candidate blocks; values >= HPerm.Len() are discarded
	BlockPerms []uint     // per-candidate-block dyadic signature, indexed like BlockPerm

	HPerm *perm.Perm // permutes the kept blocks into their final column order

	G               *poly.Poly
	SupportPos      []int
	PermutedSupport []uint
}

// PlainSize is the plaintext length in bits.
func (pub *PublicKey) PlainSize() int {
	return (1 << uint(pub.T)) * pub.QdSigs.Width()
}

// CipherSize is the ciphertext length in bits.
func (pub *PublicKey) CipherSize() int {
	return pub.PlainSize() + pub.QdSigs.Height()
}

// ErrorCount is the number of error bits every ciphertext carries.
func (pub *PublicKey) ErrorCount() int {
	return 1 << uint(pub.T)
}

// CipherSize is the ciphertext length in bits.
func (priv *PrivateKey) CipherSize() int {
	return priv.HPerm.Len() * (1 << uint(priv.T))
}

// PlainSize is the plaintext length in bits.
func (priv *PrivateKey) PlainSize() int {
	return (priv.HPerm.Len() - int(priv.Field.M)) * (1 << uint(priv.T))
}

// ErrorCount is the number of error bits every ciphertext carries.
func (priv *PrivateKey) ErrorCount() int {
	return 1 << uint(priv.T)
}

// computeHsig evaluates the support function defined by essence (a
// GF(2)-linear map from the log2(count)-bit index to a field element,
// Hsig(i) = xor of essence[b] over every set bit b of i) at every index
// in [0, count).
func computeHsig(essence []uint, count int) []uint {
	hsig := make([]uint, count)
	for i := 0; i < count; i++ {
		var v uint
		for b, e := range essence {
			if i&(1<<uint(b)) != 0 {
				v ^= e
			}
		}
		hsig[i] = v
	}
	return hsig
}

// generateEssence draws m field elements such that the support function
// they define (see computeHsig) is injective over its full 2^m domain:
// at each step a candidate is accepted only if XORing it into every
// value already reachable produces no collision, i.e. it is linearly
// independent of the essence chosen so far.
func generateEssence(f *field.Field, m int, rng io.Reader) ([]uint, error) {
	essence := make([]uint, m)
	known := []uint{0}
	seen := map[uint]bool{0: true}

	for b := 0; b < m; b++ {
		found := false
		for attempt := 0; attempt < 4096; attempt++ {
			v, err := randFieldElement(rng, f.N)
			if err != nil {
				return nil, err
			}
			if v == 0 || seen[v] {
				continue
			}
			collide := false
			for _, k := range known {
				if k != 0 && seen[k^v] {
					collide = true
					break
				}
			}
			if collide {
				continue
			}

			essence[b] = v
			extra := make([]uint, 0, len(known))
			for _, k := range known {
				nv := k ^ v
				seen[nv] = true
				extra = append(extra, nv)
			}
			known = append(known, extra...)
			found = true
			break
		}
		if !found {
			return nil, errors.New("mceqd: could not extend dyadic support basis")
		}
	}
	return essence, nil
}

// polyFromRoots returns the monic polynomial whose roots are exactly
// roots (assumed pairwise distinct).
func polyFromRoots(roots []uint, f *field.Field) *poly.Poly {
	g := poly.New([]uint{1})
	for _, r := range roots {
		g = poly.Mult(g, poly.New([]uint{r, 1}), f)
	}
	return g
}

func shiftAll(vs []uint, by uint) []uint {
	out := make([]uint, len(vs))
	for i, v := range vs {
		out[i] = v ^ by
	}
	return out
}

// Generate builds a new quasi-dyadic McEliece key pair: field degree m,
// per-block error exponent T (blockSize = 2^T), blockCount kept blocks,
// and blockDiscard additional candidate blocks drawn but thrown away
// (widening the pool the right-echelon reduction can succeed from).
func Generate(m, T, blockCount, blockDiscard int, rng io.Reader) (*PublicKey, *PrivateKey, error) {
	hashstream.WarnOnce("mceqd", attackWarning)

	if blockCount <= m {
		return nil, nil, errors.New("mceqd: block count must exceed the field degree")
	}
	f, err := field.New(uint(m))
	if err != nil {
		return nil, nil, errors.Wrap(err, "mceqd: constructing field")
	}

	blockSize := 1 << uint(T)
	totalBlocks := blockCount + blockDiscard
	domainSize := (totalBlocks + 1) * blockSize
	if domainSize > int(f.N)/2 {
		return nil, nil, errors.New("mceqd: block configuration does not fit the field")
	}

	const maxAttempts = 64
	for attempt := 0; attempt < maxAttempts; attempt++ {
		essence, err := generateEssence(f, m, rng)
		if err != nil {
			return nil, nil, err
		}
		hsigAll := computeHsig(essence, domainSize)
		gRoots := hsigAll[:blockSize]
		g := polyFromRoots(gRoots, f)

		blockPerm, err := perm.Random(totalBlocks, rng)
		if err != nil {
			return nil, nil, err
		}
		blockPerms := make([]uint, totalBlocks)
		for i := range blockPerms {
			v, err := randIndex(rng, blockSize)
			if err != nil {
				return nil, nil, err
			}
			blockPerms[i] = uint(v)
		}

		blockSupport := make([][]uint, totalBlocks)
		degenerate := false
		for i := 0; i < totalBlocks; i++ {
			raw := append([]uint(nil), hsigAll[(i+1)*blockSize:(i+2)*blockSize]...)
			blockSupport[i] = perm.Dyadic(raw, blockPerms[i])
			for _, sv := range blockSupport[i] {
				if g.Eval(sv, f) == 0 {
					degenerate = true
				}
			}
		}
		if degenerate {
			continue
		}

		ok, hperm, hblocks, err := tryBuildEchelon(f, m, blockSize, blockCount, totalBlocks, blockPerm, blockSupport, g, rng)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}

		qdSigs := matrix.New(blockCount-m, blockSize*m)
		for i := 0; i < blockCount-m; i++ {
			full := bitvec.New(blockSize * m)
			for j := 0; j < m; j++ {
				full.SetBlock(hblocks[i][j], j*blockSize)
			}
			qdSigs.Cols[i] = full
		}

		pub := &PublicKey{QdSigs: qdSigs, T: T}
		priv := &PrivateKey{
			Essence:    essence,
			Field:      f,
			T:          T,
			BlockPerm:  blockPerm,
			BlockPerms: blockPerms,
			HPerm:      hperm,
		}
		if err := priv.Prepare(); err != nil {
			return nil, nil, err
		}
		return pub, priv, nil
	}

	return nil, nil, errors.New("mceqd: exhausted attempts building a key pair")
}

// tryBuildEchelon retries random column orderings (hperm) until the
// resulting block-signature grid reduces to right echelon form, up to
// blockCount attempts, matching the original's retry budget for this
// step.
func tryBuildEchelon(f *field.Field, m, blockSize, blockCount, totalBlocks int, blockPerm *perm.Perm, blockSupport [][]uint, g *poly.Poly, rng io.Reader) (bool, *perm.Perm, [][]*bitvec.Vector, error) {
	for try := 0; try < blockCount; try++ {
		hperm, err := perm.Random(blockCount, rng)
		if err != nil {
			return false, nil, nil, err
		}

		hblocks := make([][]*bitvec.Vector, blockCount)
		for i := 0; i < totalBlocks; i++ {
			pos := blockPerm.Apply(i)
			if pos >= blockCount {
				continue
			}
			finalCol := hperm.Apply(pos)

			scaled := make([]uint, blockSize)
			for j, sv := range blockSupport[i] {
				scaled[j] = f.Inv(g.Eval(sv, f))
			}
			col := bitvec.FromPolyCotrace(scaled, m)
			rows := make([]*bitvec.Vector, m)
			for j := 0; j < m; j++ {
				rows[j] = col.GetBlock(j*blockSize, blockSize)
			}
			hblocks[finalCol] = rows
		}

		if qd.ToRightEchelonForm(hblocks) {
			return true, hperm, hblocks, nil
		}
	}
	return false, nil, nil, nil
}

// Prepare (re)derives G, SupportPos and PermutedSupport from the stored
// essence and permutations.
func (priv *PrivateKey) Prepare() error {
	hashstream.WarnOnce("mceqd", attackWarning)

	f := priv.Field
	m := int(f.M)
	blockSize := 1 << uint(priv.T)
	totalBlocks := priv.BlockPerm.Len()
	blockCount := priv.HPerm.Len()
	domainSize := (totalBlocks + 1) * blockSize

	hsigAll := computeHsig(priv.Essence, domainSize)
	gRoots := hsigAll[:blockSize]

	blockSupport := make([][]uint, totalBlocks)
	for i := 0; i < totalBlocks; i++ {
		raw := append([]uint(nil), hsigAll[(i+1)*blockSize:(i+2)*blockSize]...)
		blockSupport[i] = perm.Dyadic(raw, priv.BlockPerms[i])
	}

	used := make(map[uint]bool)
	for i := 0; i < totalBlocks; i++ {
		if priv.BlockPerm.Apply(i) >= blockCount {
			continue
		}
		for _, v := range blockSupport[i] {
			used[v] = true
		}
	}
	omega, found := uint(0), false
	for cand := uint(0); cand < f.N; cand++ {
		if !used[cand] {
			omega = cand
			found = true
			break
		}
	}
	if !found {
		return errors.New("mceqd: no unused field element available to shift the support")
	}

	priv.G = polyFromRoots(shiftAll(gRoots, omega), f)

	permutedSupport := make([]uint, blockCount*blockSize)
	supportPos := make([]int, f.N)
	for i := range supportPos {
		supportPos[i] = int(f.N)
	}
	for i := 0; i < totalBlocks; i++ {
		pos := priv.BlockPerm.Apply(i)
		if pos >= blockCount {
			continue
		}
		finalCol := priv.HPerm.Apply(pos)
		for j, v := range blockSupport[i] {
			sv := v ^ omega
			idx := finalCol*blockSize + j
			permutedSupport[idx] = sv
			supportPos[sv] = idx
		}
	}
	priv.PermutedSupport = permutedSupport
	priv.SupportPos = supportPos
	return nil
}

// Encrypt draws a random weight-(2^T) error pattern and encrypts msg
// with it.
func (pub *PublicKey) Encrypt(msg *bitvec.Vector, rng io.Reader) (*bitvec.Vector, error) {
	t := 1 << uint(pub.T)
	cs := pub.CipherSize()
	if t > cs {
		return nil, internal.ErrInputSize
	}

	used := make(map[int]bool)
	errs := bitvec.New(cs)
	for len(used) < t {
		pos, err := randIndex(rng, cs)
		if err != nil {
			return nil, err
		}
		if used[pos] {
			continue
		}
		used[pos] = true
		errs.Set(pos, true)
	}
	return pub.EncryptWithErrors(msg, errs)
}

// EncryptWithErrors encrypts msg with an explicit error pattern: for
// each plaintext block, the dyadic product against each signature
// block's column is folded into the running checksum, which is
// appended to the plaintext and then xored with errs.
func (pub *PublicKey) EncryptWithErrors(msg, errs *bitvec.Vector) (*bitvec.Vector, error) {
	hashstream.WarnOnce("mceqd", attackWarning)

	if msg.Len() != pub.PlainSize() {
		return nil, internal.ErrInputSize
	}
	if errs.Len() != pub.CipherSize() {
		return nil, internal.ErrInputSize
	}

	t := 1 << uint(pub.T)
	blocks := 0
	if t > 0 {
		blocks = pub.QdSigs.Height() / t
	}
	cksum := bitvec.New(pub.QdSigs.Height())
	for i := 0; i < pub.QdSigs.Width(); i++ {
		p := msg.GetBlock(i*t, t)
		col := pub.QdSigs.Cols[i]
		for j := 0; j < blocks; j++ {
			g := col.GetBlock(j*t, t)
			r := qd.DyadicMultiply(p, g)
			cksum.AddOffset(r, 0, t*j, 0)
		}
	}

	out := msg.Clone()
	out.Append(cksum)
	out.Add(errs)
	return out, nil
}

// addMults accumulates tmp*x^k into synd[k] for every k, the Newton-
// identity-style syndrome update alternant decoding relies on.
func addMults(synd []uint, tmp, x uint, f *field.Field) {
	cur := tmp
	for k := range synd {
		synd[k] ^= cur
		cur = f.Mult(cur, x)
	}
}

// Decrypt recovers the plaintext block of a ciphertext.
func (priv *PrivateKey) Decrypt(ct *bitvec.Vector) (*bitvec.Vector, error) {
	out, _, err := priv.DecryptWithErrors(ct)
	return out, err
}

// DecryptWithErrors recovers both the plaintext and the error pattern
// that was added during encryption.
func (priv *PrivateKey) DecryptWithErrors(ct *bitvec.Vector) (out, errs *bitvec.Vector, err error) {
	hashstream.WarnOnce("mceqd", attackWarning)

	if ct.Len() != priv.CipherSize() {
		return nil, nil, internal.ErrInputSize
	}

	t := 1 << uint(priv.T)
	synd := make([]uint, 2*t)
	for i := 0; i < ct.Len(); i++ {
		if !ct.Get(i) {
			continue
		}
		sv := priv.PermutedSupport[i]
		tmp := priv.Field.InvSquare(priv.G.Eval(sv, priv.Field))
		addMults(synd, tmp, sv, priv.Field)
	}

	loc, derr := goppa.DecodeAlternant(poly.New(synd), priv.Field, t)
	if derr != nil {
		return nil, nil, internal.ErrDecodingFailed
	}
	ev, ok := goppa.EvaluateErrorLocatorTrace(loc, priv.Field)
	if !ok {
		return nil, nil, internal.ErrDecodingFailed
	}

	out = ct.Clone()
	out.Resize(priv.PlainSize(), false)
	errs = bitvec.New(priv.CipherSize())
	for i := 0; i < ev.Len(); i++ {
		if !ev.Get(i) {
			continue
		}
		sv := priv.Field.Inv(uint(i))
		epos := priv.SupportPos[sv]
		if epos >= priv.CipherSize() {
			return nil, nil, internal.ErrDecodingFailed
		}
		errs.Set(epos, true)
		if epos < priv.PlainSize() {
			out.Set(epos, !out.Get(epos))
		}
	}
	return out, errs, nil
}

func randFieldElement(rng io.Reader, n uint) (uint, error) {
	v, err := randIndex(rng, int(n))
	if err != nil {
		return 0, err
	}
	return uint(v), nil
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
			return 0, errors.Wrap(err, "mceqd: reading randomness")
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < threshold || threshold == 0 {
			return int(v % limit), nil
		}
	}
}

// Serialize renders pub as a tagged sencode list.
func (pub *PublicKey) Serialize() (sencode.Value, error) {
	qdVal, err := wire.EncodeMatrix(pub.QdSigs)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(pubKeyTag, qdVal, sencode.Int{V: uint64(pub.T)}), nil
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
	qdSigs, err := wire.DecodeMatrix(items[0])
	if err != nil {
		return nil, err
	}
	t, err := sencode.AsInt(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "mceqd: decoding error exponent")
	}
	return &PublicKey{QdSigs: qdSigs, T: int(t.V)}, nil
}

// Serialize renders priv as a tagged sencode list. G, SupportPos and
// PermutedSupport are not serialized; DeserializePrivateKey recomputes
// them via Prepare.
func (priv *PrivateKey) Serialize() (sencode.Value, error) {
	return sencode.Tagged(privKeyTag,
		wire.EncodeUintSlice(priv.Essence),
		wire.EncodeField(priv.Field),
		sencode.Int{V: uint64(priv.T)},
		wire.EncodePerm(priv.BlockPerm),
		wire.EncodeUintSlice(priv.BlockPerms),
		wire.EncodePerm(priv.HPerm),
	), nil
}

// DeserializePrivateKey parses a tagged sencode list produced by
// Serialize and recomputes the derived support state.
func DeserializePrivateKey(v sencode.Value) (*PrivateKey, error) {
	items, err := sencode.ExpectTag(v, privKeyTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 6 {
		return nil, internal.ErrMalformed
	}

	essence, err := wire.DecodeUintSlice(items[0])
	if err != nil {
		return nil, err
	}
	f, err := wire.DecodeField(items[1])
	if err != nil {
		return nil, err
	}
	t, err := sencode.AsInt(items[2])
	if err != nil {
		return nil, errors.Wrap(err, "mceqd: decoding error exponent")
	}
	blockPerm, err := wire.DecodePerm(items[3])
	if err != nil {
		return nil, err
	}
	blockPerms, err := wire.DecodeUintSlice(items[4])
	if err != nil {
		return nil, err
	}
	hperm, err := wire.DecodePerm(items[5])
	if err != nil {
		return nil, err
	}

	priv := &PrivateKey{
		Essence:    essence,
		Field:      f,
		T:          int(t.V),
		BlockPerm:  blockPerm,
		BlockPerms: blockPerms,
		HPerm:      hperm,
	}
	if err := priv.Prepare(); err != nil {
		return nil, err
	}
	return priv, nil
}
