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

// Package sencode implements the recursive prefix-length serialization
// format every persisted structure (keys, messages, field/matrix/
// polynomial state) is encoded in: integers (`i<decimal>e`), byte-strings
// (`<decimal>:<bytes>`), and lists (`s<item*>e`), parsed strictly so that
// encoding is a bijection from the abstract tree (required for stable
// KeyID hashing).
package sencode

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

const maxIntLen = 9      // at most 9 decimal digits
const maxInt = 999999999 // 10^9 - 1

// Value is the tagged variant every sencode node implements: Integer,
// Bytes, or List (spec.md §9's "polymorphic sencode" redesign note).
type Value interface {
	Encode() []byte
	isValue()
}

// Int is a non-negative integer node, 0 <= v <= 10^9 - 1.
type Int struct {
	V uint64
}

func (Int) isValue() {}

// Encode renders the node as `i<decimal>e`.
func (n Int) Encode() []byte {
	if n.V > maxInt {
		return []byte("i0e") // failure fallback, mirrors the original's behavior
	}
	return []byte(fmt.Sprintf("i%de", n.V))
}

// Bytes is a byte-string node, `<decimal-length>:<bytes>`.
type Bytes struct {
	V []byte
}

func (Bytes) isValue() {}

// Encode renders the node as `<len>:<bytes>`.
func (n Bytes) Encode() []byte {
	if len(n.V) > maxInt {
		return []byte("0:") // failure fallback, mirrors the original's behavior
	}
	out := []byte(strconv.Itoa(len(n.V)))
	out = append(out, ':')
	out = append(out, n.V...)
	return out
}

// List is a recursive sequence node, `s<item*>e`.
type List struct {
	Items []Value
}

func (List) isValue() {}

// Encode renders the node as `s<item0><item1>...e`.
func (n List) Encode() []byte {
	out := []byte{'s'}
	for _, it := range n.Items {
		out = append(out, it.Encode()...)
	}
	out = append(out, 'e')
	return out
}

// Str is a convenience constructor for a Bytes node from a Go string.
func Str(s string) Bytes { return Bytes{V: []byte(s)} }

// Decode parses the full byte string as a single top-level sencode value,
// rejecting leading-zero integers (except `i0e`), over-length integers or
// byte-strings, malformed terminators, and any trailing input after the
// top value — the strictness spec.md §4.11 requires for a bijective wire
// format.
func Decode(data []byte) (Value, error) {
	v, pos, err := decodeOne(data, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(data) {
		return nil, errors.New("sencode: trailing data after top-level value")
	}
	return v, nil
}

func decodeOne(data []byte, pos int) (Value, int, error) {
	if pos >= len(data) {
		return nil, 0, errors.New("sencode: unexpected end of input")
	}

	switch {
	case data[pos] == 's':
		pos++
		items := []Value{}
		for {
			if pos >= len(data) {
				return nil, 0, errors.New("sencode: unterminated list")
			}
			if data[pos] == 'e' {
				pos++
				return List{Items: items}, pos, nil
			}
			item, next, err := decodeOne(data, pos)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
			pos = next
		}

	case data[pos] == 'i':
		v, next, err := parseInt(data, pos)
		if err != nil {
			return nil, 0, err
		}
		return Int{V: v}, next, nil

	case data[pos] >= '0' && data[pos] <= '9':
		v, next, err := parseBytes(data, pos)
		if err != nil {
			return nil, 0, err
		}
		return Bytes{V: v}, next, nil

	default:
		return nil, 0, errors.Errorf("sencode: unexpected byte %q at offset %d", data[pos], pos)
	}
}

func parseInt(data []byte, pos int) (uint64, int, error) {
	pos++ // skip 'i'
	if pos >= len(data) {
		return 0, 0, errors.New("sencode: truncated integer")
	}
	if data[pos] == 'e' {
		return 0, 0, errors.New("sencode: empty integer")
	}
	if data[pos] == '0' {
		pos++
		if pos < len(data) && data[pos] == 'e' {
			return 0, pos + 1, nil
		}
		return 0, 0, errors.New("sencode: leading zero in integer")
	}

	var v uint64
	length := 0
	for {
		if pos >= len(data) {
			return 0, 0, errors.New("sencode: unterminated integer")
		}
		if data[pos] == 'e' {
			return v, pos + 1, nil
		}
		if data[pos] < '0' || data[pos] > '9' {
			return 0, 0, errors.New("sencode: malformed integer")
		}
		v = v*10 + uint64(data[pos]-'0')
		pos++
		length++
		if length > maxIntLen {
			return 0, 0, errors.New("sencode: integer too long")
		}
	}
}

func parseBytes(data []byte, pos int) ([]byte, int, error) {
	if data[pos] == '0' {
		pos++
		if pos < len(data) && data[pos] == ':' {
			return []byte{}, pos + 1, nil
		}
		return nil, 0, errors.New("sencode: leading zero in byte-string length")
	}

	var n int
	length := 0
	for {
		if pos >= len(data) {
			return nil, 0, errors.New("sencode: unterminated byte-string length")
		}
		if data[pos] == ':' {
			break
		}
		if data[pos] < '0' || data[pos] > '9' {
			return nil, 0, errors.New("sencode: malformed byte-string length")
		}
		n = n*10 + int(data[pos]-'0')
		pos++
		length++
		if length > maxIntLen {
			return nil, 0, errors.New("sencode: byte-string length too long")
		}
	}
	pos++ // skip ':'
	if pos+n > len(data) {
		return nil, 0, errors.New("sencode: byte-string runs past end of input")
	}
	return data[pos : pos+n], pos + n, nil
}

// AsList type-asserts v as a List, returning a structural-decode error on
// mismatch.
func AsList(v Value) (List, error) {
	l, ok := v.(List)
	if !ok {
		return List{}, errors.New("sencode: expected a list")
	}
	return l, nil
}

// AsBytes type-asserts v as Bytes.
func AsBytes(v Value) (Bytes, error) {
	b, ok := v.(Bytes)
	if !ok {
		return Bytes{}, errors.New("sencode: expected a byte-string")
	}
	return b, nil
}

// AsInt type-asserts v as Int.
func AsInt(v Value) (Int, error) {
	i, ok := v.(Int)
	if !ok {
		return Int{}, errors.New("sencode: expected an integer")
	}
	return i, nil
}

// ExpectTag decodes tagged is a helper for the key/message formats of
// spec.md §4.11: a top-level list whose first item is a fixed type-tag
// byte-string. It checks the tag and returns the remaining items.
func ExpectTag(v Value, tag string) ([]Value, error) {
	l, err := AsList(v)
	if err != nil {
		return nil, err
	}
	if len(l.Items) < 1 {
		return nil, errors.New("sencode: missing type tag")
	}
	gotTag, err := AsBytes(l.Items[0])
	if err != nil {
		return nil, errors.Wrap(err, "sencode: reading type tag")
	}
	if string(gotTag.V) != tag {
		return nil, errors.Errorf("sencode: type tag mismatch: expected %q, got %q", tag, gotTag.V)
	}
	return l.Items[1:], nil
}

// Tagged builds a tagged list: the type-tag byte-string followed by
// items.
func Tagged(tag string, items ...Value) List {
	all := append([]Value{Str(tag)}, items...)
	return List{Items: all}
}
