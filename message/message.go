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

// Package message implements the small envelope structs that bind a
// ciphertext or signature to the {algorithm-id, key-id} pair naming the
// key that produced it: encrypted_msg and signed_msg (spec.md §4.x
// "Message envelopes"), plus the KeyID digest that names a public key by
// the hash of its own serialized bytes.
package message

import (
	"encoding/hex"
	"io"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/hashstream"
	"github.com/exaexa/ccr/sencode"
)

const encryptedMsgTag = "CCR-ENCRYPTED-MSG-v2"
const signedMsgTag = "CCR-SIGNED-MSG-v2"

// Encrypter is the capability an algorithm's public key exposes to
// encrypt a message produced by Encrypt.
type Encrypter interface {
	Encrypt(msg *bitvec.Vector, rng io.Reader) (*bitvec.Vector, error)
}

// Decrypter is the capability an algorithm's private key exposes to
// decrypt a ciphertext recovered from an EncryptedMsg.
type Decrypter interface {
	Decrypt(ciphertext *bitvec.Vector) (*bitvec.Vector, error)
}

// Signer is the capability an algorithm's private key exposes to produce
// a signature for Sign.
type Signer interface {
	Sign(msg *bitvec.Vector, rng io.Reader) (*bitvec.Vector, error)
}

// Verifier is the capability an algorithm's public key exposes to check
// a signature recovered from a SignedMsg.
type Verifier interface {
	Verify(msg, signature *bitvec.Vector) bool
}

// KeyID computes the fixed-length hex digest (Cubehash-256) of a
// serialized public key's exact byte form. It is algorithm-agnostic,
// deterministic, and depends only on the serialized bytes, never on
// generation order or any unserialized cache.
func KeyID(serializedPubKey []byte) string {
	h := hashstream.CubeHash256{}
	sum := h.Sum(serializedPubKey)
	return hex.EncodeToString(sum)
}

func encodeVector(v *bitvec.Vector) (sencode.Value, error) {
	padded := v.Clone()
	padded.Resize((v.Len()+7)/8*8, false)
	b, err := padded.ToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "message: encoding bit-vector")
	}
	return sencode.List{Items: []sencode.Value{
		sencode.Int{V: uint64(v.Len())},
		sencode.Bytes{V: b},
	}}, nil
}

func decodeVector(v sencode.Value) (*bitvec.Vector, error) {
	l, err := sencode.AsList(v)
	if err != nil {
		return nil, errors.Wrap(err, "message: decoding bit-vector")
	}
	if len(l.Items) != 2 {
		return nil, errors.New("message: malformed bit-vector encoding")
	}
	n, err := sencode.AsInt(l.Items[0])
	if err != nil {
		return nil, errors.Wrap(err, "message: decoding bit-vector length")
	}
	b, err := sencode.AsBytes(l.Items[1])
	if err != nil {
		return nil, errors.Wrap(err, "message: decoding bit-vector bytes")
	}
	return bitvec.FromBytes(b.V, int(n.V)), nil
}

// EncryptedMsg binds a ciphertext to the algorithm and key that produced
// it.
type EncryptedMsg struct {
	AlgID      string
	KeyID      string
	Ciphertext *bitvec.Vector
}

// Encrypt builds an EncryptedMsg by running msg through enc.
func Encrypt(msg *bitvec.Vector, algID, keyID string, enc Encrypter, rng io.Reader) (*EncryptedMsg, error) {
	ct, err := enc.Encrypt(msg, rng)
	if err != nil {
		return nil, errors.Wrap(err, "message: encrypting")
	}
	return &EncryptedMsg{AlgID: algID, KeyID: keyID, Ciphertext: ct}, nil
}

// Decrypt recovers the plaintext bit-vector using dec, which must
// correspond to the private key named by m.KeyID/m.AlgID.
func (m *EncryptedMsg) Decrypt(dec Decrypter) (*bitvec.Vector, error) {
	pt, err := dec.Decrypt(m.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "message: decrypting")
	}
	return pt, nil
}

// Serialize renders the envelope as a tagged sencode list.
func (m *EncryptedMsg) Serialize() (sencode.Value, error) {
	ctVal, err := encodeVector(m.Ciphertext)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(encryptedMsgTag,
		sencode.Str(m.AlgID),
		sencode.Str(m.KeyID),
		ctVal,
	), nil
}

// DeserializeEncryptedMsg parses a tagged sencode list produced by
// Serialize.
func DeserializeEncryptedMsg(v sencode.Value) (*EncryptedMsg, error) {
	items, err := sencode.ExpectTag(v, encryptedMsgTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 3 {
		return nil, errors.New("message: malformed encrypted message")
	}
	algID, err := sencode.AsBytes(items[0])
	if err != nil {
		return nil, errors.Wrap(err, "message: reading algorithm id")
	}
	keyID, err := sencode.AsBytes(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "message: reading key id")
	}
	ct, err := decodeVector(items[2])
	if err != nil {
		return nil, err
	}
	return &EncryptedMsg{AlgID: string(algID.V), KeyID: string(keyID.V), Ciphertext: ct}, nil
}

// SignedMsg binds a message and its signature to the algorithm and key
// that produced the signature.
type SignedMsg struct {
	AlgID     string
	KeyID     string
	Message   *bitvec.Vector
	Signature *bitvec.Vector
}

// Sign builds a SignedMsg by signing msg with signer.
func Sign(msg *bitvec.Vector, algID, keyID string, signer Signer, rng io.Reader) (*SignedMsg, error) {
	sig, err := signer.Sign(msg, rng)
	if err != nil {
		return nil, errors.Wrap(err, "message: signing")
	}
	return &SignedMsg{AlgID: algID, KeyID: keyID, Message: msg, Signature: sig}, nil
}

// Verify checks m.Signature against m.Message using verifier, which must
// correspond to the public key named by m.KeyID/m.AlgID.
func (m *SignedMsg) Verify(verifier Verifier) bool {
	return verifier.Verify(m.Message, m.Signature)
}

// Serialize renders the envelope as a tagged sencode list.
func (m *SignedMsg) Serialize() (sencode.Value, error) {
	msgVal, err := encodeVector(m.Message)
	if err != nil {
		return nil, err
	}
	sigVal, err := encodeVector(m.Signature)
	if err != nil {
		return nil, err
	}
	return sencode.Tagged(signedMsgTag,
		sencode.Str(m.AlgID),
		sencode.Str(m.KeyID),
		msgVal,
		sigVal,
	), nil
}

// DeserializeSignedMsg parses a tagged sencode list produced by
// Serialize.
func DeserializeSignedMsg(v sencode.Value) (*SignedMsg, error) {
	items, err := sencode.ExpectTag(v, signedMsgTag)
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, errors.New("message: malformed signed message")
	}
	algID, err := sencode.AsBytes(items[0])
	if err != nil {
		return nil, errors.Wrap(err, "message: reading algorithm id")
	}
	keyID, err := sencode.AsBytes(items[1])
	if err != nil {
		return nil, errors.Wrap(err, "message: reading key id")
	}
	msg, err := decodeVector(items[2])
	if err != nil {
		return nil, err
	}
	sig, err := decodeVector(items[3])
	if err != nil {
		return nil, err
	}
	return &SignedMsg{AlgID: string(algID.V), KeyID: string(keyID.V), Message: msg, Signature: sig}, nil
}
