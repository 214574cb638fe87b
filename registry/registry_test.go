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
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/bitvec"
	"github.com/exaexa/ccr/hashstream"
)

func randomMessage(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}

// small-parameter variants of the registered families, so these tests
// exercise the same code paths the real suite entries do without paying
// for production-sized keygen.
func smallMCEAlgorithm() *codeEncryptionAlgorithm {
	return &codeEncryptionAlgorithm{
		id:     "TEST-MCE",
		family: mceFamily(6, 5),
		hash:   hashstream.CubeHash256{},
		cipher: hashstream.ChaCha20Cipher{},
	}
}

func smallQCMDPCAlgorithm() *codeEncryptionAlgorithm {
	return &codeEncryptionAlgorithm{
		id:     "TEST-QCMDPC",
		family: qcmdpcFamily(64, 4, 6, 4, 20, 2),
		hash:   hashstream.CubeHash256{},
		cipher: hashstream.ChaCha20Cipher{},
	}
}

func smallFmtseqAlgorithm() *fmtseqAlgorithm {
	hash := hashstream.CubeHash256{}
	return &fmtseqAlgorithm{
		id:          "TEST-FMTSEQ",
		h:           2,
		l:           2,
		hs:          8 * hash.Size(),
		messageHash: hash,
		treeHash:    hash,
		cipher:      hashstream.ChaCha20Cipher{},
	}
}

func smallNDAlgorithm() *ndCFSAlgorithm {
	return &ndCFSAlgorithm{
		id:          "TEST-NDCFS",
		m:           6,
		t:           4,
		delta:       2,
		tries:       4096,
		messageHash: hashstream.CubeHash256{},
	}
}

func TestCodeEncryptionAlgorithmRoundTrip(t *testing.T) {
	for _, alg := range []*codeEncryptionAlgorithm{smallMCEAlgorithm(), smallQCMDPCAlgorithm()} {
		alg := alg
		t.Run(alg.ID(), func(t *testing.T) {
			assert.True(t, alg.ProvidesEncryption())
			assert.False(t, alg.ProvidesSignatures())

			pub, priv, err := alg.CreateKeypair(rand.Reader)
			require.NoError(t, err)

			msg := randomMessage(16)
			ct, err := alg.Encrypt(bitvec.FromBytes(msg, 8*len(msg)), pub, rand.Reader)
			require.NoError(t, err)

			plain, err := alg.Decrypt(ct, priv)
			require.NoError(t, err)

			got, err := packBytes(plain)
			require.NoError(t, err)
			assert.Equal(t, msg, got[:len(msg)])
		})
	}
}

func TestCodeEncryptionAlgorithmRejectsTamperedCiphertext(t *testing.T) {
	alg := smallMCEAlgorithm()
	pub, priv, err := alg.CreateKeypair(rand.Reader)
	require.NoError(t, err)

	msg := randomMessage(16)
	ct, err := alg.Encrypt(bitvec.FromBytes(msg, 8*len(msg)), pub, rand.Reader)
	require.NoError(t, err)

	ct.Set(0, !ct.Get(0))

	_, err = alg.Decrypt(ct, priv)
	assert.Error(t, err)
}

func TestFmtseqAlgorithmSignVerify(t *testing.T) {
	alg := smallFmtseqAlgorithm()
	assert.False(t, alg.ProvidesEncryption())
	assert.True(t, alg.ProvidesSignatures())

	pub, priv, err := alg.CreateKeypair(rand.Reader)
	require.NoError(t, err)

	msg := []byte("a short message")
	sig, newPriv, err := alg.Sign(msg, priv, rand.Reader)
	require.NoError(t, err)

	ok, err := alg.Verify(msg, sig, pub)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = alg.Verify([]byte("a different message"), sig, pub)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = alg.Sign(msg, newPriv, rand.Reader)
	require.NoError(t, err)
}

func TestNDCFSAlgorithmSignVerify(t *testing.T) {
	alg := smallNDAlgorithm()
	assert.False(t, alg.ProvidesEncryption())
	assert.True(t, alg.ProvidesSignatures())

	pub, priv, err := alg.CreateKeypair(rand.Reader)
	require.NoError(t, err)

	msg := []byte("sign me")
	sig, _, err := alg.Sign(msg, priv, rand.Reader)
	require.NoError(t, err)

	ok, err := alg.Verify(msg, sig, pub)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLookupExpandsAliases(t *testing.T) {
	enc, err := Lookup("enc")
	require.NoError(t, err)
	assert.Equal(t, "MCEQCMDPC128FO-CUBE256-CHACHA20", enc.ID())

	sig, err := Lookup("SIG")
	require.NoError(t, err)
	assert.True(t, sig.ProvidesSignatures())
}

func TestLookupUnknownName(t *testing.T) {
	_, err := Lookup("NOT-A-REAL-ALGORITHM")
	assert.Error(t, err)
}

func TestNamesListsEveryRegisteredAlgorithm(t *testing.T) {
	names := Names()
	assert.NotEmpty(t, names)
	found := false
	for _, n := range names {
		if n == "FMTSEQ256C-CUBE512-CUBE256" {
			found = true
		}
	}
	assert.True(t, found)
}
