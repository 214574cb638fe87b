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

import "github.com/pkg/errors"

// HashByName resolves one of this package's Hash instances by its
// Name(), the inverse of storing a Hash choice as a short string in a
// serialized key (fmtseq's privkey/pubkey, and later the algorithm
// registry's name parsing, spec.md §9).
func HashByName(name string) (Hash, error) {
	switch name {
	case "CUBE256":
		return CubeHash256{}, nil
	case "CUBE512":
		return CubeHash512{}, nil
	case "SHA3-256":
		return NewSHA3_256(), nil
	case "SHA3-512":
		return NewSHA3_512(), nil
	}
	return nil, errors.Errorf("hashstream: unknown hash name %q", name)
}

// StreamCipherByName resolves one of this package's StreamCipher
// instances by its Name().
func StreamCipherByName(name string) (StreamCipher, error) {
	switch name {
	case "CHACHA20":
		return ChaCha20Cipher{}, nil
	}
	return nil, errors.Errorf("hashstream: unknown stream cipher name %q", name)
}
