/*
   Copyright Mycophonic.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package platocmp

import "sync"

// TimestampProvider returns the 48-bit entity timestamp the chunk
// driver stamps at the start and end of an encode call. Its return
// value's "unknown vs. valid epoch-zero" meaning is otherwise
// unresolved; this module treats zero as "no provider installed" and
// never claims it means a real PLATO-epoch timestamp (see DESIGN.md).
type TimestampProvider func() uint64

//nolint:gochecknoglobals
var initState = struct {
	mu        sync.RWMutex
	timestamp TimestampProvider
	versionID uint32
}{}

// InitTimestampProvider installs the process-wide timestamp provider
// the chunk driver calls at the start and end of Encode. It follows
// maxbits.Registry's single-threaded-before-first-use discipline:
// callers must install it before any concurrent Encode call.
func InitTimestampProvider(p TimestampProvider) {
	initState.mu.Lock()
	defer initState.mu.Unlock()

	initState.timestamp = p
}

// InitVersionID installs the process-wide version_id stamped into
// every entity header's generic section, once, before any concurrent
// Encode call.
func InitVersionID(v uint32) {
	initState.mu.Lock()
	defer initState.mu.Unlock()

	initState.versionID = v
}

func currentTimestamp() uint64 {
	initState.mu.RLock()
	defer initState.mu.RUnlock()

	if initState.timestamp == nil {
		return 0
	}

	return initState.timestamp()
}

func currentVersionID() uint32 {
	initState.mu.RLock()
	defer initState.mu.RUnlock()

	return initState.versionID
}
