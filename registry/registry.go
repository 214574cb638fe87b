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

// Package registry maps an algorithm-name string to the capability set
// spec.md §4.13/§9 describes: a small virtual-interface-shaped value
// exposing provides_encryption/provides_signatures and the
// encrypt/decrypt/sign/verify/create_keypair operations, resolved from a
// plain name->instance table rather than a generated class hierarchy
// (spec.md §9's explicit redesign direction), mirroring how
// original_source/src/algo_suite.cpp's fill_algorithm_suite populates its
// std::map<std::string, algorithm*>.
package registry

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/internal"
	"github.com/exaexa/ccr/sencode"
)

// Algorithm is the capability set a registered name resolves to. Keys
// travel as opaque sencode.Value — exactly the wire shape a keyring
// stores them in — so a caller never needs to know which concrete
// package's PublicKey/PrivateKey backs a given name.
type Algorithm interface {
	ID() string
	ProvidesEncryption() bool
	ProvidesSignatures() bool

	CreateKeypair(rng io.Reader) (pub, priv sencode.Value, err error)
	Encrypt(plain *bitvec.Vector, pub sencode.Value, rng io.Reader) (*bitvec.Vector, error)
	Decrypt(ciphertext *bitvec.Vector, priv sencode.Value) (*bitvec.Vector, error)

	// Sign returns the signature and the (possibly mutated) private key
	// the caller must persist before releasing the signature, per the
	// privkey-update contract of spec.md §4.10/§5.
	Sign(msg []byte, priv sencode.Value, rng io.Reader) (sig *bitvec.Vector, newPriv sencode.Value, err error)
	Verify(msg []byte, sig *bitvec.Vector, pub sencode.Value) (bool, error)
}

var suite = map[string]Algorithm{}

func register(a Algorithm) {
	suite[a.ID()] = a
}

// aliases expands a small set of short, memorable names into the full
// dash-separated algorithm name, per spec.md §4.13 ("ENC" -> the default
// encryption algorithm, etc). Canonicalized to upper-case like every
// other lookup.
var aliases = map[string]string{
	"ENC":    "MCEQCMDPC128FO-CUBE256-CHACHA20",
	"ENC256": "MCEQCMDPC256FO-CUBE512-CHACHA20",
	"SIG":    "FMTSEQ128H20C-CUBE256-CUBE256",
	"SIG256": "FMTSEQ256H20C-CUBE512-CUBE256",
}

// Lookup resolves name (case-insensitively, with short-alias expansion)
// to its Algorithm, or ErrAlgorithmMismatch if nothing is registered
// under it.
func Lookup(name string) (Algorithm, error) {
	canon := strings.ToUpper(strings.TrimSpace(name))
	if full, ok := aliases[canon]; ok {
		canon = full
	}
	a, ok := suite[canon]
	if !ok {
		return nil, errors.Wrapf(internal.ErrAlgorithmMismatch, "registry: unknown algorithm %q", name)
	}
	return a, nil
}

// Names lists every registered algorithm name, sorted is not guaranteed;
// callers needing a stable order should sort the result themselves.
func Names() []string {
	names := make([]string, 0, len(suite))
	for name := range suite {
		names = append(names, name)
	}
	return names
}
