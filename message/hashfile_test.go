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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaexa/ccr/sencode"
)

func TestHashFileCreateVerify(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")

	hf, err := CreateHashFile(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Contains(t, hf.Hashes, "SHA3-256")
	assert.Contains(t, hf.Hashes, "SIZE64")

	ok, err := hf.Verify(bytes.NewReader(content))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashFileVerifyDetectsTampering(t *testing.T) {
	content := []byte("original content")
	hf, err := CreateHashFile(bytes.NewReader(content))
	require.NoError(t, err)

	ok, err := hf.Verify(bytes.NewReader([]byte("tampered content")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashFileSerializeRoundTrip(t *testing.T) {
	content := []byte("hash me please")
	hf, err := CreateHashFile(bytes.NewReader(content))
	require.NoError(t, err)

	v := hf.Serialize()
	decoded, err := sencode.Decode(v.Encode())
	require.NoError(t, err)

	hf2, err := DeserializeHashFile(decoded)
	require.NoError(t, err)
	assert.Equal(t, hf.Hashes, hf2.Hashes)

	ok, err := hf2.Verify(bytes.NewReader(content))
	require.NoError(t, err)
	assert.True(t, ok)
}
