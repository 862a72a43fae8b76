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

package cmppar

import "errors"

// ErrParGeneric and ErrParSpecific are this package's sentinels for
// errors.Is matching. The root package wraps them into its own Code
// taxonomy (CodeParGeneric/CodeParSpecific) without cmppar needing to
// import the root package back.
var (
	ErrParGeneric  = errors.New("cmppar: mode/model-value/round out of range")
	ErrParSpecific = errors.New("cmppar: field (golomb_par, spill) invalid or incompatible")
)
