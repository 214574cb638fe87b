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

import "sync"

// logger is the process-wide, read-only-after-startup log hook of
// spec.md §9 ("global allocators / log hook" design note). The embedding
// CLI (out of scope for this module) may call SetLogger once during
// startup; everything in this module logs through it rather than writing
// to stderr directly.
var logger func(string) = func(string) {}

var loggerOnce sync.Once

// SetLogger installs the process-wide log sink. Only the first call has
// any effect, matching "set once during startup, read-only thereafter".
func SetLogger(f func(string)) {
	loggerOnce.Do(func() {
		logger = f
	})
}

// Log sends a message to the installed logger (a no-op sink by default).
func Log(msg string) {
	logger(msg)
}

var warnOnce sync.Map

// WarnOnce logs msg the first time it is called with a given key for the
// lifetime of the process, regardless of how many times the caller
// re-triggers it — the mechanism spec.md scenario 5 requires for MCE-QD's
// one-time algebraic-attack warning.
func WarnOnce(key, msg string) {
	if _, loaded := warnOnce.LoadOrStore(key, struct{}{}); !loaded {
		Log(msg)
	}
}
