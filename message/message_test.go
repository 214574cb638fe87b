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

package message

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/sencode"
)

// xorCodec is a trivial stand-in Encrypter/Decrypter that XORs the
// message with a fixed pad, just enough to exercise the envelope
// plumbing without a real cryptosystem.
type xorCodec struct{ pad *bitvec.Vector }

func (c xorCodec) Encrypt(msg *bitvec.Vector, rng io.Reader) (*bitvec.Vector, error) {
	out := msg.Clone()
	out.Add(c.pad)
	return out, nil
}

func (c xorCodec) Decrypt(ct *bitvec.Vector) (*bitvec.Vector, error) {
	out := ct.Clone()
	out.Add(c.pad)
	return out, nil
}

func makeVector(bits string) *bitvec.Vector {
	v := bitvec.New(len(bits))
	for i, c := range bits {
		if c == '1' {
			v.Set(i, true)
		}
	}
	return v
}

func TestEncryptedMsgRoundTrip(t *testing.T) {
	pad := makeVector("1010110011")
	codec := xorCodec{pad: pad}

	plaintext := makeVector("1100001111")
	em, err := Encrypt(plaintext, "TEST-ALG", "deadbeef", codec, rand.Reader)
	require.NoError(t, err)
	assert.Equal(t, "TEST-ALG", em.AlgID)

	v, err := em.Serialize()
	require.NoError(t, err)
	enc := v.Encode()

	decoded, err := sencode.Decode(enc)
	require.NoError(t, err)

	em2, err := DeserializeEncryptedMsg(decoded)
	require.NoError(t, err)
	assert.Equal(t, em.AlgID, em2.AlgID)
	assert.Equal(t, em.KeyID, em2.KeyID)

	recovered, err := em2.Decrypt(codec)
	require.NoError(t, err)
	assert.Equal(t, plaintext.Len(), recovered.Len())
	for i := 0; i < plaintext.Len(); i++ {
		assert.Equal(t, plaintext.Get(i), recovered.Get(i))
	}
}

func TestSignedMsgSerializeRoundTrip(t *testing.T) {
	msg := makeVector("111000111")
	sig := makeVector("0101")

	sm := &SignedMsg{AlgID: "TEST-SIG", KeyID: "cafef00d", Message: msg, Signature: sig}
	v, err := sm.Serialize()
	require.NoError(t, err)

	decoded, err := sencode.Decode(v.Encode())
	require.NoError(t, err)

	sm2, err := DeserializeSignedMsg(decoded)
	require.NoError(t, err)
	assert.Equal(t, sm.AlgID, sm2.AlgID)
	assert.Equal(t, sm.KeyID, sm2.KeyID)
	assert.Equal(t, sm.Message.Len(), sm2.Message.Len())
	assert.Equal(t, sm.Signature.Len(), sm2.Signature.Len())
}

func TestKeyIDDeterministic(t *testing.T) {
	a := KeyID([]byte("some public key bytes"))
	b := KeyID([]byte("some public key bytes"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // 32-byte cubehash-256 digest, hex-encoded

	c := KeyID([]byte("different public key bytes"))
	assert.NotEqual(t, a, c)
}
