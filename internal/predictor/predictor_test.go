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

package predictor_test

import (
	"math"
	"testing"

	"github.com/heliotrope/platocmp/internal/predictor"
)

func TestMapUnmapInvolution(t *testing.T) {
	values := []int32{0, 1, -1, 1000, -1000, math.MaxInt32, math.MinInt32 + 1}

	for _, n := range values {
		got := predictor.Unmap(predictor.Map(n))
		if got != n {
			t.Errorf("Unmap(Map(%d)) = %d, want %d", n, got, n)
		}
	}
}

func TestMapSaturatesAtMinInt32(t *testing.T) {
	got := predictor.Map(math.MinInt32)
	if got != math.MaxUint32 {
		t.Errorf("Map(MinInt32) = %#x, want MaxUint32", got)
	}

	if predictor.Unmap(math.MaxUint32) != math.MinInt32 {
		t.Errorf("Unmap(MaxUint32) = %d, want MinInt32", predictor.Unmap(math.MaxUint32))
	}
}

func TestRoundForwardInverse(t *testing.T) {
	for _, round := range []uint8{0, 1, 2, 3} {
		for _, x := range []int32{0, 1, -1, 127, -128, 1000} {
			got := predictor.RoundInverse(predictor.RoundForward(x, round), round)
			want := (x >> round) << round
			if got != want {
				t.Errorf("round=%d x=%d: got %d, want %d", round, x, got, want)
			}
		}
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	for _, round := range []uint8{0, 1, 2, 3} {
		for _, x := range []int32{0, 5, -5, 12345} {
			once := predictor.Quantize(x, round)
			twice := predictor.Quantize(once, round)

			if once != twice {
				t.Errorf("round=%d x=%d: Quantize not idempotent: once=%d twice=%d", round, x, once, twice)
			}
		}
	}
}

func TestDiffResidualReconstruct(t *testing.T) {
	data := []int32{42, 23, 1, 13, 20, 1000}

	res := predictor.DiffResidual(data)
	got := predictor.DiffReconstruct(res)

	for i, v := range data {
		if got[i] != v {
			t.Errorf("sample %d: got %d, want %d", i, got[i], v)
		}
	}
}

func TestModelResidualReconstruct(t *testing.T) {
	data := []int32{42, 23, 1, 13, 20, 1000}
	model := []int32{0, 22, 3, 42, 23, 16}

	res := predictor.ModelResidual(data, model)

	for i := range data {
		got := predictor.ModelReconstructSample(res[i], model[i])
		if got != data[i] {
			t.Errorf("sample %d: got %d, want %d", i, got, data[i])
		}
	}
}

func TestUpdateModelBlendsEvenly(t *testing.T) {
	// With model_value=8 and round=0, the updated model equals
	// (model*8 + data*8) / 16 per element.
	data := []int32{42, 23, 1, 13, 20, 1000}
	model := []int32{0, 22, 3, 42, 23, 16}

	for i := range data {
		got := predictor.UpdateModel(model[i], data[i], 8, 0)
		want := (model[i]*8 + data[i]*8) / 16
		if got != want {
			t.Errorf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestUpdateModelExtremes(t *testing.T) {
	if got := predictor.UpdateModel(5, 9, 16, 0); got != 5 {
		t.Errorf("model_value=16 should keep the model unchanged: got %d, want 5", got)
	}

	if got := predictor.UpdateModel(5, 9, 0, 0); got != 9 {
		t.Errorf("model_value=0 should replace the model with data: got %d, want 9", got)
	}
}
