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

package mce

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/sencode"
)

func randomMessage(n int) *bitvec.Vector {
	v := bitvec.New(n)
	for i := 0; i < n; i++ {
		var b [1]byte
		rand.Read(b[:])
		v.Set(i, b[0]&1 != 0)
	}
	return v
}

func TestGenerateEncryptDecryptRoundTrip(t *testing.T) {
	pub, priv, err := Generate(6, 5, rand.Reader)
	require.NoError(t, err)

	msg := randomMessage(pub.PlainSize())

	ct, err := pub.Encrypt(msg, rand.Reader)
	require.NoError(t, err)

	plain, err := priv.Decrypt(ct)
	require.NoError(t, err)

	assert.Equal(t, msg.Len(), plain.Len())
	for i := 0; i < msg.Len(); i++ {
		assert.Equal(t, msg.Get(i), plain.Get(i), "bit %d mismatch", i)
	}
}

func TestDecryptWithErrorsRecoversErrorPattern(t *testing.T) {
	pub, priv, err := Generate(6, 5, rand.Reader)
	require.NoError(t, err)

	msg := randomMessage(pub.PlainSize())
	errVec := bitvec.New(pub.CipherSize())
	errVec.Set(0, true)
	errVec.Set(3, true)

	ct, err := pub.EncryptWithErrors(msg, errVec)
	require.NoError(t, err)

	plain, recoveredErrs, err := priv.DecryptWithErrors(ct)
	require.NoError(t, err)

	for i := 0; i < msg.Len(); i++ {
		assert.Equal(t, msg.Get(i), plain.Get(i), "bit %d mismatch", i)
	}
	require.Equal(t, errVec.Len(), recoveredErrs.Len())
	for i := 0; i < errVec.Len(); i++ {
		assert.Equal(t, errVec.Get(i), recoveredErrs.Get(i), "error bit %d mismatch", i)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := Generate(6, 5, rand.Reader)
	require.NoError(t, err)

	hash := bitvec.New(pub.CipherSize())
	for i := 0; i < hash.Len(); i += 3 {
		hash.Set(i, true)
	}

	sig, err := priv.Sign(hash, 2, 200, rand.Reader)
	require.NoError(t, err)

	ok, err := pub.Verify(sig, hash, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsWrongHash(t *testing.T) {
	pub, priv, err := Generate(6, 5, rand.Reader)
	require.NoError(t, err)

	hash := bitvec.New(pub.CipherSize())
	for i := 0; i < hash.Len(); i += 3 {
		hash.Set(i, true)
	}

	sig, err := priv.Sign(hash, 2, 200, rand.Reader)
	require.NoError(t, err)

	other := hash.Clone()
	other.Set(1, !other.Get(1))
	other.Set(2, !other.Get(2))
	other.Set(4, !other.Get(4))
	other.Set(5, !other.Get(5))
	other.Set(7, !other.Get(7))

	ok, err := pub.Verify(sig, other, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEncryptRejectsWrongSizeMessage(t *testing.T) {
	pub, _, err := Generate(5, 3, rand.Reader)
	require.NoError(t, err)

	_, err = pub.Encrypt(bitvec.New(pub.PlainSize()+1), rand.Reader)
	assert.Error(t, err)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	pub, priv, err := Generate(5, 3, rand.Reader)
	require.NoError(t, err)

	pubVal, err := pub.Serialize()
	require.NoError(t, err)
	pubEnc := pubVal.Encode()

	privVal, err := priv.Serialize()
	require.NoError(t, err)
	privEnc := privVal.Encode()

	pubV, err := sencode.Decode(pubEnc)
	require.NoError(t, err)
	pub2, err := DeserializePublicKey(pubV)
	require.NoError(t, err)
	assert.Equal(t, pub.T, pub2.T)
	assert.Equal(t, pub.G.Width(), pub2.G.Width())
	assert.Equal(t, pub.G.Height(), pub2.G.Height())

	privV, err := sencode.Decode(privEnc)
	require.NoError(t, err)
	priv2, err := DeserializePrivateKey(privV)
	require.NoError(t, err)

	msg := randomMessage(pub.PlainSize())
	ct, err := pub2.Encrypt(msg, rand.Reader)
	require.NoError(t, err)
	plain, err := priv2.Decrypt(ct)
	require.NoError(t, err)
	for i := 0; i < msg.Len(); i++ {
		assert.Equal(t, msg.Get(i), plain.Get(i))
	}
}
