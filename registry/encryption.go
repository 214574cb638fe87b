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
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/hashstream"
	"github.com/exaexa/ccr/mce"
	"github.com/exaexa/ccr/mceqd"
	"github.com/exaexa/ccr/qcmdpc"
	"github.com/exaexa/ccr/sencode"
)

func mceFamily(m, t int) codeFamily {
	return codeFamily{
		generate: func(rng io.Reader) (codePublicKey, codePrivateKey, error) {
			pub, priv, err := mce.Generate(m, t, rng)
			if err != nil {
				return nil, nil, err
			}
			return pub, priv, nil
		},
		deserPub: func(v sencode.Value) (codePublicKey, error) { return mce.DeserializePublicKey(v) },
		deserPriv: func(v sencode.Value) (codePrivateKey, error) {
			return mce.DeserializePrivateKey(v)
		},
	}
}

func mceqdFamily(m, t, blockCount, blockDiscard int) codeFamily {
	return codeFamily{
		generate: func(rng io.Reader) (codePublicKey, codePrivateKey, error) {
			pub, priv, err := mceqd.Generate(m, t, blockCount, blockDiscard, rng)
			if err != nil {
				return nil, nil, err
			}
			return pub, priv, nil
		},
		deserPub: func(v sencode.Value) (codePublicKey, error) { return mceqd.DeserializePublicKey(v) },
		deserPriv: func(v sencode.Value) (codePrivateKey, error) {
			return mceqd.DeserializePrivateKey(v)
		},
	}
}

func qcmdpcFamily(blockSize, blockCount, wi, t, rounds, delta int) codeFamily {
	return codeFamily{
		generate: func(rng io.Reader) (codePublicKey, codePrivateKey, error) {
			pub, priv, err := qcmdpc.Generate(blockSize, blockCount, wi, t, rounds, delta, rng)
			if err != nil {
				return nil, nil, err
			}
			return pub, priv, nil
		},
		deserPub: func(v sencode.Value) (codePublicKey, error) { return qcmdpc.DeserializePublicKey(v) },
		deserPriv: func(v sencode.Value) (codePrivateKey, error) {
			priv, err := qcmdpc.DeserializePrivateKey(v)
			if err != nil {
				return nil, err
			}
			if err := priv.Prepare(); err != nil {
				return nil, err
			}
			return priv, nil
		},
	}
}

// codeEncryptionAlgorithm is the Algorithm implementation for every
// "<CODE-FAMILY><LEVEL>FO-<HASH>-<CIPHER>" name: a code family wrapped in
// the FO construction of spec.md §4.13. Signing methods are unsupported.
type codeEncryptionAlgorithm struct {
	id     string
	family codeFamily
	hash   hashstream.Hash
	cipher hashstream.StreamCipher
}

func (a *codeEncryptionAlgorithm) ID() string               { return a.id }
func (a *codeEncryptionAlgorithm) ProvidesEncryption() bool { return true }
func (a *codeEncryptionAlgorithm) ProvidesSignatures() bool { return false }

func (a *codeEncryptionAlgorithm) CreateKeypair(rng io.Reader) (sencode.Value, sencode.Value, error) {
	pub, priv, err := a.family.generate(rng)
	if err != nil {
		return nil, nil, err
	}
	pubVal, err := pub.Serialize()
	if err != nil {
		return nil, nil, err
	}
	privVal, err := priv.Serialize()
	if err != nil {
		return nil, nil, err
	}
	return pubVal, privVal, nil
}

func (a *codeEncryptionAlgorithm) Encrypt(plain *bitvec.Vector, pub sencode.Value, rng io.Reader) (*bitvec.Vector, error) {
	pubKey, err := a.family.deserPub(pub)
	if err != nil {
		return nil, err
	}
	return foEncrypt(pubKey, plain, a.hash, a.cipher, rng)
}

func (a *codeEncryptionAlgorithm) Decrypt(cipher *bitvec.Vector, priv sencode.Value) (*bitvec.Vector, error) {
	privKey, err := a.family.deserPriv(priv)
	if err != nil {
		return nil, err
	}
	return foDecrypt(privKey, privKey.CipherSize(), cipher, a.hash, a.cipher)
}

func (a *codeEncryptionAlgorithm) Sign(msg []byte, priv sencode.Value, rng io.Reader) (*bitvec.Vector, sencode.Value, error) {
	return nil, nil, errors.New("registry: " + a.id + " does not provide signatures")
}

func (a *codeEncryptionAlgorithm) Verify(msg []byte, sig *bitvec.Vector, pub sencode.Value) (bool, error) {
	return false, errors.New("registry: " + a.id + " does not provide signatures")
}

var _ Algorithm = (*codeEncryptionAlgorithm)(nil)
