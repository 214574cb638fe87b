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

package mceqd

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

func weightOf(v *bitvec.Vector) int {
	n := 0
	for i := 0; i < v.Len(); i++ {
		if v.Get(i) {
			n++
		}
	}
	return n
}

func TestGenerateEncryptDecryptRoundTrip(t *testing.T) {
	pub, priv, err := Generate(5, 1, 6, 0, rand.Reader)
	require.NoError(t, err)

	msg := randomMessage(pub.PlainSize())

	ct, err := pub.Encrypt(msg, rand.Reader)
	require.NoError(t, err)
	assert.Equal(t, pub.CipherSize(), ct.Len())

	plain, err := priv.Decrypt(ct)
	require.NoError(t, err)

	require.Equal(t, msg.Len(), plain.Len())
	for i := 0; i < msg.Len(); i++ {
		assert.Equal(t, msg.Get(i), plain.Get(i), "bit %d mismatch", i)
	}
}

func TestDecryptWithErrorsRecoversErrorPattern(t *testing.T) {
	pub, priv, err := Generate(5, 1, 6, 0, rand.Reader)
	require.NoError(t, err)

	msg := randomMessage(pub.PlainSize())
	errs := bitvec.New(pub.CipherSize())
	errs.Set(0, true)

	ct, err := pub.EncryptWithErrors(msg, errs)
	require.NoError(t, err)

	plain, recovered, err := priv.DecryptWithErrors(ct)
	require.NoError(t, err)

	for i := 0; i < msg.Len(); i++ {
		assert.Equal(t, msg.Get(i), plain.Get(i), "bit %d mismatch", i)
	}
	assert.Equal(t, 1, weightOf(recovered))
}

func TestEncryptRejectsWrongSizeMessage(t *testing.T) {
	pub, _, err := Generate(5, 1, 6, 0, rand.Reader)
	require.NoError(t, err)

	_, err = pub.Encrypt(bitvec.New(pub.PlainSize()+1), rand.Reader)
	assert.Error(t, err)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	pub, priv, err := Generate(5, 1, 6, 0, rand.Reader)
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
	assert.Equal(t, pub.QdSigs.Width(), pub2.QdSigs.Width())
	assert.Equal(t, pub.QdSigs.Height(), pub2.QdSigs.Height())

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
