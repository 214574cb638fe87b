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

// Package hashstream decomposes the "Algorithm" capability of spec.md §9
// into its Hash and StreamCipher halves, and provides the concrete
// instances the registry wires into named algorithms: CubeHash
// (hand-rolled, §6's KeyID digest), SHA3 (golang.org/x/crypto/sha3), and
// ChaCha20 (golang.org/x/crypto/chacha20).
package hashstream

import (
	"golang.org/x/crypto/sha3"
)

// Hash is a fixed-output digest capability. Every instance is stateless
// and safe for concurrent use.
type Hash interface {
	Name() string
	Size() int
	Sum(data []byte) []byte
}

// SHA3Hash wraps golang.org/x/crypto/sha3's SHA3-256/512 instances behind
// the Hash capability.
type SHA3Hash struct {
	bits int
}

// NewSHA3_256 returns the SHA3-256 Hash capability.
func NewSHA3_256() SHA3Hash { return SHA3Hash{bits: 256} }

// NewSHA3_512 returns the SHA3-512 Hash capability.
func NewSHA3_512() SHA3Hash { return SHA3Hash{bits: 512} }

// Name returns the canonical algorithm-name fragment for this hash.
func (h SHA3Hash) Name() string {
	if h.bits == 512 {
		return "SHA3-512"
	}
	return "SHA3-256"
}

// Size returns the digest size in bytes.
func (h SHA3Hash) Size() int { return h.bits / 8 }

// Sum returns the SHA3 digest of data.
func (h SHA3Hash) Sum(data []byte) []byte {
	if h.bits == 512 {
		d := sha3.Sum512(data)
		return d[:]
	}
	d := sha3.Sum256(data)
	return d[:]
}

var (
	_ Hash = CubeHash256{}
	_ Hash = CubeHash512{}
	_ Hash = SHA3Hash{}
)
