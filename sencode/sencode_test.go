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

package sencode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWorkedExample(t *testing.T) {
	v := List{Items: []Value{Int{V: 7}, Str("ok")}}
	assert.Equal(t, "si7e2:oke", string(v.Encode()))
}

func TestDecodeRoundTrip(t *testing.T) {
	orig := List{Items: []Value{
		Int{V: 0},
		Int{V: 999999999},
		Str(""),
		Str("hello world"),
		List{Items: []Value{Int{V: 1}, Int{V: 2}}},
	}}
	enc := orig.Encode()

	got, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestDecodeRejectsLeadingZeroInteger(t *testing.T) {
	_, err := Decode([]byte("i09e"))
	assert.Error(t, err)
}

func TestDecodeAcceptsBareZeroInteger(t *testing.T) {
	v, err := Decode([]byte("i0e"))
	require.NoError(t, err)
	assert.Equal(t, Int{V: 0}, v)
}

func TestDecodeRejectsShortByteString(t *testing.T) {
	// claims length 3 but only 2 bytes follow
	_, err := Decode([]byte("3:ab"))
	assert.Error(t, err)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte("i1ei2e"))
	assert.Error(t, err)
}

func TestDecodeRejectsLeadingZeroLength(t *testing.T) {
	_, err := Decode([]byte("02:ab"))
	assert.Error(t, err)
}

func TestDecodeRejectsOverlongInteger(t *testing.T) {
	_, err := Decode([]byte("i1000000000e"))
	assert.Error(t, err)
}

func TestDecodeRejectsUnterminatedList(t *testing.T) {
	_, err := Decode([]byte("si1e"))
	assert.Error(t, err)
}

func TestDecodeEmptyList(t *testing.T) {
	v, err := Decode([]byte("se"))
	require.NoError(t, err)
	assert.Equal(t, List{Items: []Value{}}, v)
}

func TestTaggedHelpers(t *testing.T) {
	tagged := Tagged("mce-pubkey", Int{V: 42})
	items, err := ExpectTag(tagged, "mce-pubkey")
	require.NoError(t, err)
	require.Len(t, items, 1)

	i, err := AsInt(items[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(42), i.V)

	_, err = ExpectTag(tagged, "wrong-tag")
	assert.Error(t, err)
}
