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

package hashstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeHash256Deterministic(t *testing.T) {
	h := CubeHash256{}
	a := h.Sum([]byte("codecrypt"))
	b := h.Sum([]byte("codecrypt"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	c := h.Sum([]byte("codecrypt2"))
	assert.NotEqual(t, a, c)
}

func TestCubeHashMultiBlock(t *testing.T) {
	h := CubeHash256{}
	// exercise both the block loop (>32 bytes) and the final partial
	// block path.
	long := make([]byte, 100)
	for i := range long {
		long[i] = byte(i)
	}
	sum := h.Sum(long)
	assert.Len(t, sum, 32)
}

func TestChaCha20KeyStreamDeterministic(t *testing.T) {
	c := ChaCha20Cipher{}
	key := []byte("some key material, any length")

	a, err := c.KeyStream(key, 128)
	require.NoError(t, err)
	b, err := c.KeyStream(key, 128)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := c.KeyStream([]byte("different key"), 128)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestWarnOnceFiresOnce(t *testing.T) {
	count := 0
	SetLogger(func(string) { count++ })

	for i := 0; i < 5; i++ {
		WarnOnce("test-warn-once-key", "warned")
	}
	assert.Equal(t, 1, count)
}
