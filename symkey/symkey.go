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

// Package symkey implements the layered stream-cipher/hash container that
// locks a private key (or any other sensitive blob) at rest: a one-time
// key is generated per encryption, every configured stream cipher's
// keystream is XORed over the data in sequence, and every configured hash
// authenticates each block against tampering (spec.md §4.12).
package symkey

import (
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20"

	"github.com/exaexa/ccr/hashstream"
	"github.com/exaexa/ccr/sencode"
)

const minBlockSize = 1024
const maxBlockSize = 0x10000000 // 256M
const minKeySize = 32           // 256 bits
const maxKeySize = 2048
const defaultBlockSize = 1024 * 1024
const defaultKeySize = 64
const shortBlockSize = 1024
const longBlockSize = 64 * 1024 * 1024
const longKeySize = 512

// Key is a symmetric container key: the set of ciphers/hashes it layers,
// the block size its framing uses, and the long-term key material itself.
type Key struct {
	Ciphers   []string // sorted, deduplicated
	Hashes    []string // sorted, deduplicated
	BlockSize int
	KeyBytes  []byte
}

var availableHashes = map[string]func() hashstream.Hash{
	"SHA3-256":    func() hashstream.Hash { return hashstream.NewSHA3_256() },
	"SHA3-512":    func() hashstream.Hash { return hashstream.NewSHA3_512() },
	"CUBEHASH256": func() hashstream.Hash { return hashstream.CubeHash256{} },
	"CUBEHASH512": func() hashstream.Hash { return hashstream.CubeHash512{} },
}

var availableCiphers = map[string]bool{
	"CHACHA20": true,
}

func addSorted(set map[string]bool, tok string) {
	set[tok] = true
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Create builds a fresh symmetric key from a comma-separated token
// specification (e.g. "CHACHA20,SHA3-256,LONGKEY") and random key
// material drawn from rng, mirroring codecrypt's symkey::create token
// grammar: SHORTBLOCK/LONGBLOCK shrink/grow the framing block size,
// LONGKEY widens the key to 512 bytes, and any other recognized token
// names a cipher or hash to layer in.
func Create(spec string, rng io.Reader) (*Key, error) {
	k := &Key{BlockSize: defaultBlockSize}
	keySize := defaultKeySize

	ciphers := map[string]bool{}
	hashes := map[string]bool{}

	for _, rawTok := range strings.Split(spec, ",") {
		tok := strings.ToUpper(strings.TrimSpace(rawTok))
		if tok == "" {
			continue
		}
		switch {
		case tok == "SHORTBLOCK":
			k.BlockSize = shortBlockSize
		case tok == "LONGBLOCK":
			k.BlockSize = longBlockSize
		case tok == "LONGKEY":
			keySize = longKeySize
		case availableCiphers[tok]:
			addSorted(ciphers, tok)
		case availableHashes[tok] != nil:
			addSorted(hashes, tok)
		default:
			return nil, errors.Errorf("symkey: unknown token: %q", rawTok)
		}
	}

	k.Ciphers = sortedKeys(ciphers)
	k.Hashes = sortedKeys(hashes)

	k.KeyBytes = make([]byte, keySize)
	if _, err := io.ReadFull(rng, k.KeyBytes); err != nil {
		return nil, errors.Wrap(err, "symkey: drawing key material")
	}

	if !k.IsValid() {
		return nil, errors.New("symkey: failed to produce a valid symmetric key; check that at least one hash and cipher were named")
	}
	return k, nil
}

// IsValid reports whether the key's parameters are within the accepted
// ranges and at least one cipher and hash are configured.
func (k *Key) IsValid() bool {
	return k.BlockSize >= minBlockSize &&
		k.BlockSize < maxBlockSize &&
		len(k.Ciphers) > 0 &&
		len(k.Hashes) > 0 &&
		len(k.KeyBytes) >= minKeySize &&
		len(k.KeyBytes) < maxKeySize
}

// xorStream is a keyed, position-continuing XOR keystream: successive
// Apply calls continue the same stream rather than restarting it, which
// is what lets a single cipher instance be layered over an arbitrarily
// long sequence of framing blocks.
type xorStream interface {
	Apply(dst, src []byte)
}

type chachaStream struct {
	c *chacha20.Cipher
}

func (s *chachaStream) Apply(dst, src []byte) { s.c.XORKeyStream(dst, src) }

// newStream derives a cipher-specific key from the long-term key and the
// one-time key (domain-separated by cipher name through SHA3-512, since
// the on-disk format never reveals the original generator's internal key
// schedule and this keeps the derivation both simple and reproducible)
// and returns its continuing keystream.
func newStream(name string, key, otkey []byte) (xorStream, error) {
	if !availableCiphers[name] {
		return nil, errors.Errorf("symkey: unsupported cipher: %q", name)
	}

	h := hashstream.NewSHA3_512()
	material := append([]byte(name+":"), key...)
	material = append(material, otkey...)
	derived := h.Sum(material)

	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(derived[:chacha20.KeySize], nonce)
	if err != nil {
		return nil, errors.Wrap(err, "symkey: constructing cipher stream")
	}
	return &chachaStream{c: c}, nil
}

func blockHashes(k *Key, block, key, otkey []byte) ([]byte, error) {
	var out []byte
	for _, name := range k.Hashes {
		factory, ok := availableHashes[name]
		if !ok {
			return nil, errors.Errorf("symkey: unsupported hash function: %q", name)
		}
		h := factory()
		material := append(append([]byte{}, block...), key...)
		material = append(material, otkey...)
		out = append(out, h.Sum(material)...)
	}
	return out, nil
}

// Encrypt writes a one-time key header followed by a sequence of framing
// blocks: each block's plaintext, the digest of (block || key || otkey)
// under every configured hash, all XORed under every configured cipher's
// continuing keystream layered in sequence.
func (k *Key) Encrypt(in io.Reader, out io.Writer, rng io.Reader) error {
	if !k.IsValid() {
		return errors.New("symkey: key is not valid")
	}

	otkey := make([]byte, len(k.KeyBytes))
	if _, err := io.ReadFull(rng, otkey); err != nil {
		return errors.Wrap(err, "symkey: drawing one-time key")
	}

	streams := make([]xorStream, len(k.Ciphers))
	for i, name := range k.Ciphers {
		s, err := newStream(name, k.KeyBytes, otkey)
		if err != nil {
			return err
		}
		streams[i] = s
	}

	hashesSize := 0
	for _, name := range k.Hashes {
		factory, ok := availableHashes[name]
		if !ok {
			return errors.Errorf("symkey: unsupported hash function: %q", name)
		}
		hashesSize += factory().Size()
	}

	if _, err := out.Write(otkey); err != nil {
		return errors.Wrap(err, "symkey: writing one-time key header")
	}

	buf := make([]byte, k.BlockSize)
	cip := make([]byte, k.BlockSize+hashesSize)
	for {
		n, err := io.ReadFull(in, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return errors.Wrap(err, "symkey: reading input")
		}

		frame := make([]byte, 0, n+hashesSize)
		frame = append(frame, buf[:n]...)

		digests, herr := blockHashes(k, buf[:n], k.KeyBytes, otkey)
		if herr != nil {
			return herr
		}
		frame = append(frame, digests...)

		for _, s := range streams {
			s.Apply(cip[:len(frame)], frame)
			copy(frame, cip[:len(frame)])
		}

		if _, werr := out.Write(frame); werr != nil {
			return errors.Wrap(werr, "symkey: writing output")
		}

		if n < k.BlockSize {
			break
		}
	}
	return nil
}

// ErrMangled is returned by Decrypt when a block's hash digests fail to
// verify against the recovered plaintext.
var ErrMangled = errors.New("symkey: mangled input")

// Decrypt reverses Encrypt, verifying every block's digests before
// writing its plaintext and failing closed with ErrMangled on the first
// mismatch.
func (k *Key) Decrypt(in io.Reader, out io.Writer) error {
	if !k.IsValid() {
		return errors.New("symkey: key is not valid")
	}

	otkey := make([]byte, len(k.KeyBytes))
	if _, err := io.ReadFull(in, otkey); err != nil {
		return errors.Wrap(err, "symkey: reading one-time key header")
	}

	streams := make([]xorStream, len(k.Ciphers))
	for i, name := range k.Ciphers {
		s, err := newStream(name, k.KeyBytes, otkey)
		if err != nil {
			return err
		}
		streams[i] = s
	}

	hashesSize := 0
	for _, name := range k.Hashes {
		factory, ok := availableHashes[name]
		if !ok {
			return errors.Errorf("symkey: unsupported hash function: %q", name)
		}
		hashesSize += factory().Size()
	}

	frameSize := k.BlockSize + hashesSize
	buf := make([]byte, frameSize)
	cip := make([]byte, frameSize)

	for {
		n, err := io.ReadFull(in, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return errors.Wrap(err, "symkey: reading input")
		}
		if n < hashesSize {
			return errors.New("symkey: failed reading input")
		}

		frame := append([]byte{}, buf[:n]...)
		for _, s := range streams {
			s.Apply(cip[:n], frame)
			copy(frame, cip[:n])
		}

		plainLen := n - hashesSize
		digests, herr := blockHashes(k, frame[:plainLen], k.KeyBytes, otkey)
		if herr != nil {
			return herr
		}
		if string(digests) != string(frame[plainLen:n]) {
			return ErrMangled
		}

		if _, werr := out.Write(frame[:plainLen]); werr != nil {
			return errors.Wrap(werr, "symkey: writing output")
		}

		if plainLen < k.BlockSize {
			break
		}
	}

	var extra [1]byte
	if _, err := io.ReadFull(in, extra[:]); err != io.EOF {
		return errors.New("symkey: trailing data after last block")
	}
	return nil
}

// Serialize renders the key as a tagged sencode list.
func (k *Key) Serialize() sencode.Value {
	ciphers := make([]sencode.Value, len(k.Ciphers))
	for i, c := range k.Ciphers {
		ciphers[i] = sencode.Str(c)
	}
	hashes := make([]sencode.Value, len(k.Hashes))
	for i, h := range k.Hashes {
		hashes[i] = sencode.Str(h)
	}
	return sencode.Tagged("symkey",
		sencode.List{Items: ciphers},
		sencode.List{Items: hashes},
		sencode.Int{V: uint64(k.BlockSize)},
		sencode.Bytes{V: k.KeyBytes},
	)
}

// Deserialize parses a tagged sencode list produced by Serialize.
func Deserialize(v sencode.Value) (*Key, error) {
	items, err := sencode.ExpectTag(v, "symkey")
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, errors.New("symkey: malformed serialized key")
	}

	ciphersList, err := sencode.AsList(items[0])
	if err != nil {
		return nil, errors.Wrap(err, "symkey: reading ciphers")
	}
	hashesList, err := sencode.AsList(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "symkey: reading hashes")
	}
	blockSize, err := sencode.AsInt(items[2])
	if err != nil {
		return nil, errors.Wrap(err, "symkey: reading block size")
	}
	keyBytes, err := sencode.AsBytes(items[3])
	if err != nil {
		return nil, errors.Wrap(err, "symkey: reading key bytes")
	}

	k := &Key{BlockSize: int(blockSize.V), KeyBytes: keyBytes.V}
	for _, it := range ciphersList.Items {
		b, err := sencode.AsBytes(it)
		if err != nil {
			return nil, errors.Wrap(err, "symkey: reading cipher name")
		}
		k.Ciphers = append(k.Ciphers, string(b.V))
	}
	for _, it := range hashesList.Items {
		b, err := sencode.AsBytes(it)
		if err != nil {
			return nil, errors.Wrap(err, "symkey: reading hash name")
		}
		k.Hashes = append(k.Hashes, string(b.V))
	}

	if !k.IsValid() {
		return nil, errors.New("symkey: deserialized key is not valid")
	}
	return k, nil
}
