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

// Package predictor implements the signed/unsigned zig-zag mapping, the
// lossy rounding transform, and the two residual-prediction strategies
// (sample-to-sample differencing, and model-buffer prediction) used
// ahead of the Golomb/Rice stage. Ported in spirit from the fixed-width
// integer idioms of an ALAC-style predictor (its branch-free sign
// trick and shift-based sign extension) applied to a simpler,
// non-adaptive predictor.
package predictor

// Map performs the signed-to-unsigned zig-zag transform used ahead of
// Golomb/Rice coding: map(n) = (n<<1) ^ (n>>31), with the C-UB trap at
// n == math.MinInt32 pinned to saturate at math.MaxUint32 instead of
// wrapping.
func Map(n int32) uint32 {
	if n == -1<<31 {
		return 1<<32 - 1
	}

	return uint32(n<<1) ^ uint32(n>>31)
}

// Unmap inverts Map: unmap(u) = (u>>1) ^ -(u&1), saturating the reverse
// at math.MinInt32 (the image of the saturated forward map).
func Unmap(u uint32) int32 {
	if u == 1<<32-1 {
		return -1 << 31
	}

	return int32(u>>1) ^ -int32(u&1)
}

// RoundForward applies lossy bit-rounding: y = x >> round. round is in
// [0,3]; round == 0 is lossless.
func RoundForward(x int32, round uint8) int32 {
	if round == 0 {
		return x
	}

	return x >> round
}

// RoundInverse reconstructs the rounded value: x' = y << round. Applied
// on both the encode side (to compute what the decoder will see, for
// model updates) and the decode side (to recover the output sample).
func RoundInverse(y int32, round uint8) int32 {
	if round == 0 {
		return y
	}

	return y << round
}

// Quantize applies the lossy round forward-then-inverse round trip to
// x, the value both the residual predictors and UpdateModel treat as
// "the sample the decoder will actually recover": round == 0 is the
// identity.
func Quantize(x int32, round uint8) int32 {
	return RoundInverse(RoundForward(x, round), round)
}

// UpdateModel computes the new model value after observing data: the
// data is first rounded forward then back (so encoder and decoder
// compute an identical update), then blended with the
// existing model by modelValue/16, in 64-bit arithmetic to avoid
// overflow in the weighted sum.
//
// modelValue must be in [0,16]; a modelValue of 16 keeps the old model
// unchanged, a modelValue of 0 replaces it with the (rounded) data.
func UpdateModel(model, data int32, modelValue uint8, round uint8) int32 {
	reconstructed := Quantize(data, round)

	sum := int64(model)*int64(modelValue) + int64(reconstructed)*int64(16-modelValue)

	return int32(sum / 16)
}

// DiffResidual computes the difference-mode prediction residual for
// sample i: data[i] - data[i-1], with the first sample predicted
// against zero.
func DiffResidual(data []int32) []int32 {
	res := make([]int32, len(data))

	var prev int32

	for i, v := range data {
		res[i] = v - prev
		prev = v
	}

	return res
}

// DiffReconstruct inverts DiffResidual in place: out[i] = res[i] +
// out[i-1], first sample predicted against zero.
func DiffReconstruct(res []int32) []int32 {
	out := make([]int32, len(res))

	var prev int32

	for i, r := range res {
		prev += r
		out[i] = prev
	}

	return out
}

// ModelResidual computes the model-mode prediction residual for sample
// i: data[i] - model[i]. model is read but not modified; the caller is
// responsible for replacing model[i] with UpdateModel's result after a
// successful encode of sample i.
func ModelResidual(data, model []int32) []int32 {
	res := make([]int32, len(data))

	for i, v := range data {
		res[i] = v - model[i]
	}

	return res
}

// ModelReconstructSample inverts ModelResidual for one sample: it
// returns res + modelSample. As with ModelResidual, the caller must
// update the model sample itself after each sample is reconstructed
// (the decoder needs the reconstructed value, not data[i], to match
// the encoder's UpdateModel call).
func ModelReconstructSample(res, modelSample int32) int32 {
	return res + modelSample
}
