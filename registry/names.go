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

import "github.com/exaexa/ccr/hashstream"

// init populates the name->Algorithm suite the way
// original_source/src/algo_suite.cpp's fill_algorithm_suite populates its
// own map: one literal entry per supported (code family/signature scheme,
// security level, hash, cipher) combination. Parameter choices below are
// illustrative rather than independently verified against the original's
// production constants: algos_enc.cpp, the source of those constants, is
// truncated in the retrieved tree to two mceqd create_keypair bodies
// (DESIGN.md's registry entry records this).
func init() {
	cube256 := hashstream.CubeHash256{}
	cube512 := hashstream.CubeHash512{}
	chacha := hashstream.ChaCha20Cipher{}

	register(&codeEncryptionAlgorithm{
		id:     "MCEQCMDPC128FO-CUBE256-CHACHA20",
		family: qcmdpcFamily(4801, 2, 45, 84, 20, 5),
		hash:   cube256,
		cipher: chacha,
	})
	register(&codeEncryptionAlgorithm{
		id:     "MCEQCMDPC256FO-CUBE512-CHACHA20",
		family: qcmdpcFamily(9857, 2, 90, 133, 20, 6),
		hash:   cube512,
		cipher: chacha,
	})

	register(&codeEncryptionAlgorithm{
		id:     "MCE128FO-CUBE256-CHACHA20",
		family: mceFamily(11, 32),
		hash:   cube256,
		cipher: chacha,
	})
	register(&codeEncryptionAlgorithm{
		id:     "MCE256FO-CUBE512-CHACHA20",
		family: mceFamily(12, 64),
		hash:   cube512,
		cipher: chacha,
	})

	register(&codeEncryptionAlgorithm{
		id:     "MCEQD128FO-CUBE256-CHACHA20",
		family: mceqdFamily(11, 32, 8, 2),
		hash:   cube256,
		cipher: chacha,
	})
	register(&codeEncryptionAlgorithm{
		id:     "MCEQD256FO-CUBE512-CHACHA20",
		family: mceqdFamily(12, 64, 8, 2),
		hash:   cube512,
		cipher: chacha,
	})

	// fmtseq's message hash and tree hash are independent construction
	// parameters per algos_sig.cpp's fmtseq_create_funcs instantiations
	// (DESIGN.md's fmtseq entry). The original pairs a 256-bit message
	// hash with a narrower 128-bit tree hash for its "128" level; this
	// module's hashstream package only offers 256- and 512-bit hashes
	// (no CUBE128/CUBE192/CUBE384), so the narrower level below reuses
	// CUBE256 for both roles instead of a hash size this module doesn't
	// provide.
	register(&fmtseqAlgorithm{
		id:          "FMTSEQ128C-CUBE256-CUBE256",
		h:           4,
		l:           4,
		hs:          256,
		messageHash: cube256,
		treeHash:    cube256,
		cipher:      chacha,
	})
	register(&fmtseqAlgorithm{
		id:          "FMTSEQ128H20C-CUBE256-CUBE256",
		h:           4,
		l:           5,
		hs:          256,
		messageHash: cube256,
		treeHash:    cube256,
		cipher:      chacha,
	})
	register(&fmtseqAlgorithm{
		id:          "FMTSEQ256C-CUBE512-CUBE256",
		h:           4,
		l:           4,
		hs:          512,
		messageHash: cube512,
		treeHash:    cube256,
		cipher:      chacha,
	})
	register(&fmtseqAlgorithm{
		id:          "FMTSEQ256H20C-CUBE512-CUBE256",
		h:           4,
		l:           5,
		hs:          512,
		messageHash: cube512,
		treeHash:    cube256,
		cipher:      chacha,
	})

	// Niederreiter-as-CFS-signature: not present in algo_suite.cpp at all
	// (DESIGN.md's registry entry records the decision to supplement it
	// here). m=16, t=9 matches the classical CFS parameter choice of
	// accepting a large (t!-scale) expected attempt count per signature in
	// exchange for a compact public key.
	register(&ndCFSAlgorithm{
		id:          "NDCFS128-CUBE256",
		m:           16,
		t:           9,
		delta:       1,
		tries:       1 << 20,
		messageHash: cube256,
	})
}
