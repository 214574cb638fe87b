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
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/exaexa/ccr/hashstream"
	"github.com/exaexa/ccr/sencode"
)

const hashfileTag = "CCR-HASHFILE-v1"
const hashfileBufSize = 8192

// HashFile records the multi-algorithm digest set of a detached stream
// (spec.md's supplemented hashfile feature): every registered hash plus a
// synthetic "SIZE64" byte-count, so a later verify can detect both
// content and length tampering.
type HashFile struct {
	Hashes map[string][]byte
}

func hashSuite() map[string]hashstream.Hash {
	return map[string]hashstream.Hash{
		"SHA3-256":    hashstream.NewSHA3_256(),
		"SHA3-512":    hashstream.NewSHA3_512(),
		"CUBEHASH256": hashstream.CubeHash256{},
		"CUBEHASH512": hashstream.CubeHash512{},
	}
}

// size64 is a synthetic "hash" recording only the total byte count, to
// catch truncation/extension that content hashes alone might miss on
// pathological inputs.
type size64 struct{ n uint64 }

func (s *size64) eat(b []byte) { s.n += uint64(len(b)) }
func (s *size64) finish() []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, s.n)
	return out
}

// CreateHashFile streams in once, computing every known hash (plus
// SIZE64) over it.
func CreateHashFile(in io.Reader) (*HashFile, error) {
	suite := hashSuite()
	// hashstream.Hash.Sum is one-shot, so accumulate the whole stream;
	// codecrypt's original incremental eat()/finish() split is not
	// reproducible without an incremental hash capability, and hashfiles
	// are bounded by available memory in practice.
	buf, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(err, "message: reading hashfile input")
	}

	hf := &HashFile{Hashes: map[string][]byte{}}
	for name, h := range suite {
		hf.Hashes[name] = h.Sum(buf)
	}
	var sz size64
	sz.eat(buf)
	hf.Hashes["SIZE64"] = sz.finish()
	return hf, nil
}

// Verify recomputes every hash this HashFile recognizes from its own
// suite and compares. It returns (false, err) if none of the recorded
// algorithms are recognized (nothing to verify) or on a read failure,
// and (false, nil) on a digest mismatch.
func (hf *HashFile) Verify(in io.Reader) (bool, error) {
	suite := hashSuite()
	names := make([]string, 0, len(hf.Hashes))
	for name := range hf.Hashes {
		if name == "SIZE64" || suite[name] != nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return false, errors.New("message: no verifiable hash found in hashfile")
	}
	sort.Strings(names)

	buf, err := io.ReadAll(in)
	if err != nil {
		return false, errors.Wrap(err, "message: reading verify input")
	}

	for _, name := range names {
		var got []byte
		if name == "SIZE64" {
			var sz size64
			sz.eat(buf)
			got = sz.finish()
		} else {
			got = suite[name].Sum(buf)
		}
		want := hf.Hashes[name]
		if len(got) != len(want) {
			return false, nil
		}
		for i := range got {
			if got[i] != want[i] {
				return false, nil
			}
		}
	}
	return true, nil
}

// Serialize renders the hash file as a tagged sencode list of
// (name, digest) pairs, sorted by name for a deterministic encoding.
func (hf *HashFile) Serialize() sencode.Value {
	names := make([]string, 0, len(hf.Hashes))
	for name := range hf.Hashes {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]sencode.Value, 0, len(names))
	for _, name := range names {
		items = append(items, sencode.List{Items: []sencode.Value{
			sencode.Str(name),
			sencode.Bytes{V: hf.Hashes[name]},
		}})
	}
	return sencode.Tagged(hashfileTag, items...)
}

// DeserializeHashFile parses a tagged sencode list produced by
// Serialize.
func DeserializeHashFile(v sencode.Value) (*HashFile, error) {
	items, err := sencode.ExpectTag(v, hashfileTag)
	if err != nil {
		return nil, err
	}

	hf := &HashFile{Hashes: map[string][]byte{}}
	for _, it := range items {
		pair, err := sencode.AsList(it)
		if err != nil {
			return nil, errors.Wrap(err, "message: reading hashfile entry")
		}
		if len(pair.Items) != 2 {
			return nil, errors.New("message: malformed hashfile entry")
		}
		name, err := sencode.AsBytes(pair.Items[0])
		if err != nil {
			return nil, errors.Wrap(err, "message: reading hashfile entry name")
		}
		digest, err := sencode.AsBytes(pair.Items[1])
		if err != nil {
			return nil, errors.Wrap(err, "message: reading hashfile entry digest")
		}
		hf.Hashes[string(name.V)] = digest.V
	}
	return hf, nil
}
