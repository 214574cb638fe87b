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

// Package internal carries the sentinel errors shared across the
// cryptosystem variants: the five-class taxonomy of input-validation,
// structural-decode, cryptographic-failure, I/O, and randomness-
// exhaustion errors. Callers compare against these with errors.Is rather
// than parsing message strings, and wrap them with context via
// github.com/pkg/errors where a reason is needed.
package internal

import "errors"

// ErrInputSize is an input-validation error: a vector/key/message had the
// wrong size for the algorithm it was passed to.
var ErrInputSize = errors.New("ccr: input has the wrong size for this algorithm")

// ErrAlgorithmMismatch is an input-validation error: the named algorithm
// does not match the key or registry entry it was used with.
var ErrAlgorithmMismatch = errors.New("ccr: algorithm mismatch")

// ErrMalformed is a structural-decode error: sencode parsed, but the
// resulting shape (tag, field count, field type) did not match what the
// caller expected.
var ErrMalformed = errors.New("ccr: malformed data")

// ErrDecodingFailed is a cryptographic-failure error: the stated
// plaintext could not be recovered (a failed syndrome decode, a
// non-linear error-locator factor, an exhausted retry budget). Never
// distinguishes which internal step failed.
var ErrDecodingFailed = errors.New("ccr: decoding failed")

// ErrVerificationFailed is a cryptographic-failure error: a signature or
// symkey/hashfile digest did not match.
var ErrVerificationFailed = errors.New("ccr: verification failed")

// ErrRandomnessExhausted is a randomness-exhaustion error: the seed
// source could not supply the bytes an operation needed.
var ErrRandomnessExhausted = errors.New("ccr: randomness source exhausted")

// ErrSignaturesExhausted is a cryptographic-failure error specific to
// stateful signature schemes: every available one-time leaf has already
// been used.
var ErrSignaturesExhausted = errors.New("ccr: signatures exhausted")
