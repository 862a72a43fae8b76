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

package field

import "github.com/heliotrope/platocmp/internal/golomb"

// MaxSpill returns the largest spill value for which every Golomb
// codeword this escape mechanism can emit under gp/maxUsedBits/maxCwBits
// stays within the codec's codeword budget (32 bits for ICU, 16 for
// RDCU). The literal or 2k-bit payload that follows an escape codeword
// is not counted against that budget. spill values above this bound
// risk a Golomb codeword longer than maxCwBits, which a
// configuration-time check rejects before any bytes are written.
//
// Rather than re-deriving a closed-form ICU formula and RDCU lookup
// table blind, this computes the bound directly from the same
// EncodedBits cost model Encode/Decode use, so MaxSpill and the codec
// it bounds can never disagree (see DESIGN.md).
func MaxSpill(gp golomb.Params, maxUsedBits uint8, escape Escape, maxCwBits int) uint32 {
	switch escape {
	case ZeroEscape:
		return maxSpillZeroEscape(gp, maxUsedBits, maxCwBits)
	case MultiEscape:
		return maxSpillMultiEscape(gp, maxUsedBits, maxCwBits)
	default:
		panic("field: unknown escape mechanism")
	}
}

// largestWithinBudget returns the largest v>=0 such that cost(v) <=
// budget, given that cost is monotonically non-decreasing in v. If
// even cost(0) exceeds budget, returns -1 (no valid value).
func largestWithinBudget(budget int, cost func(uint32) int) int64 {
	if cost(0) > budget {
		return -1
	}

	var lo int64 = 0

	hi := int64(1)
	for cost(uint32(hi)) <= budget {
		lo = hi
		hi *= 2

		if hi > 1<<40 {
			break
		}
	}

	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		if cost(uint32(mid)) <= budget {
			lo = mid
		} else {
			hi = mid
		}
	}

	return lo
}

// maxSpillZeroEscape bounds spill by the worst non-escaped codeword,
// Golomb(spill-1, m), the largest value encoded on the ordinary path
// before u+1 reaches spill and triggers the escape. The escape
// codeword itself is Golomb(0, m), never longer than that, and the
// maxUsedBits literal after it is outside the codeword budget, so
// maxUsedBits does not affect the bound.
func maxSpillZeroEscape(gp golomb.Params, _ uint8, maxCwBits int) uint32 {
	vmax := largestWithinBudget(maxCwBits, gp.EncodedBits)
	if vmax < 1 {
		return 0
	}

	return uint32(vmax) + 1
}

// maxSpillMultiEscape bounds spill by both the worst non-escaped
// codeword (Golomb(spill-1, m)) and the Golomb codeword of the largest
// escape symbol, spill+maxK-1, with maxK = ceil(maxUsedBits/2). The
// 2k-bit payload after the escape codeword is not counted.
func maxSpillMultiEscape(gp golomb.Params, maxUsedBits uint8, maxCwBits int) uint32 {
	vmax := largestWithinBudget(maxCwBits, gp.EncodedBits)
	if vmax < 1 {
		return 0
	}

	normalBound := uint64(vmax) + 1
	maxK := (int(maxUsedBits) + 1) / 2

	escCost := func(spill uint32) int {
		escSymbol := spill + uint32(maxK-1)

		return gp.EncodedBits(escSymbol)
	}

	escBound := uint64(largestWithinBudget(maxCwBits, escCost))

	bound := normalBound
	if escBound < bound {
		bound = escBound
	}

	if bound < 2 {
		return 0
	}

	if bound > 1<<32-1 {
		bound = 1<<32 - 1
	}

	return uint32(bound)
}
