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

package nd

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/sencode"
)

func randomWeightVector(n, w int) *bitvec.Vector {
	v := bitvec.New(n)
	used := map[int]bool{}
	for len(used) < w {
		var b [2]byte
		rand.Read(b[:])
		pos := (int(b[0])<<8 | int(b[1])) % n
		if !used[pos] {
			used[pos] = true
			v.Set(pos, true)
		}
	}
	return v
}

func TestGenerateEncryptDecryptRoundTrip(t *testing.T) {
	pub, priv, err := Generate(6, 5, rand.Reader)
	require.NoError(t, err)

	msg := randomWeightVector(pub.PlainSize(), 5)

	ct, err := pub.Encrypt(msg)
	require.NoError(t, err)

	plain, err := priv.Decrypt(ct)
	require.NoError(t, err)

	assert.Equal(t, msg.Len(), plain.Len())
	for i := 0; i < msg.Len(); i++ {
		assert.Equal(t, msg.Get(i), plain.Get(i), "bit %d mismatch", i)
	}
}

func TestEncryptRejectsWrongSize(t *testing.T) {
	pub, _, err := Generate(5, 3, rand.Reader)
	require.NoError(t, err)

	_, err = pub.Encrypt(bitvec.New(pub.PlainSize() + 1))
	assert.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := Generate(6, 4, rand.Reader)
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

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	pub, priv, err := Generate(5, 3, rand.Reader)
	require.NoError(t, err)

	pubVal, err := pub.Serialize()
	require.NoError(t, err)
	privVal, err := priv.Serialize()
	require.NoError(t, err)

	pubV, err := sencode.Decode(pubVal.Encode())
	require.NoError(t, err)
	pub2, err := DeserializePublicKey(pubV)
	require.NoError(t, err)

	privV, err := sencode.Decode(privVal.Encode())
	require.NoError(t, err)
	priv2, err := DeserializePrivateKey(privV)
	require.NoError(t, err)

	msg := randomWeightVector(pub.PlainSize(), 3)
	ct, err := pub2.Encrypt(msg)
	require.NoError(t, err)
	plain, err := priv2.Decrypt(ct)
	require.NoError(t, err)
	for i := 0; i < msg.Len(); i++ {
		assert.Equal(t, msg.Get(i), plain.Get(i))
	}
}
