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

// Package golomb implements single-symbol Golomb/Rice coding under a
// positive parameter m, with a Rice fast path when m is a power of two.
// Ported in spirit from the unary-prefix counting and bit-shifting
// idioms of an ALAC-style Golomb coder, simplified from its adaptive
// mean-tracking scheme to the static per-field parameter this codec
// uses.
package golomb

import (
	"errors"
	"math/bits"

	"github.com/heliotrope/platocmp/internal/bitio"
)

// ErrInvalidParam is returned when m is not a positive parameter.
var ErrInvalidParam = errors.New("golomb: m must be >= 1")

// ErrUnaryOverflow is returned when the decoder's unary prefix exceeds
// maxUnary without terminating; this indicates either a corrupt stream
// or a decode call against data encoded under a different m.
var ErrUnaryOverflow = errors.New("golomb: unary prefix exceeds bound")

// IsPowerOfTwo reports whether m qualifies for the Rice fast path.
func IsPowerOfTwo(m uint32) bool {
	return m != 0 && m&(m-1) == 0
}

// Params precomputes the quantities needed to code repeatedly under a
// fixed m, avoiding recomputing log2/cutoff per symbol.
type Params struct {
	M      uint32
	Rice   bool   // m is a power of two
	K      uint32 // log2(m), only meaningful when Rice
	L      uint32 // ceil(log2(m)), general case
	Cutoff uint32 // (1<<L) - m, general case
}

// NewParams validates m and precomputes the coding constants.
func NewParams(m uint32) (Params, error) {
	if m == 0 {
		return Params{}, ErrInvalidParam
	}

	if IsPowerOfTwo(m) {
		return Params{M: m, Rice: true, K: uint32(bits.TrailingZeros32(m))}, nil
	}

	l := uint32(bits.Len32(m - 1)) // ceil(log2(m)), m is not a power of two here
	cutoff := (uint32(1) << l) - m

	return Params{M: m, L: l, Cutoff: cutoff}, nil
}

// EncodedBits returns the number of bits Encode would emit for x,
// without writing anything. Used by the per-field encoder to verify
// the bit budget before committing any bits for a sample.
func (p Params) EncodedBits(x uint32) int {
	if p.Rice {
		q := x >> p.K
		return int(q) + 1 + int(p.K)
	}

	q := x / p.M
	r := x % p.M

	if r < p.Cutoff {
		return int(q) + 1 + int(p.L-1)
	}

	return int(q) + 1 + int(p.L)
}

// Encode writes the Golomb/Rice code for unsigned symbol x under p to w.
func (p Params) Encode(w *bitio.Writer, x uint32) error {
	if p.Rice {
		q := x >> p.K
		r := x & (p.M - 1)

		if err := putUnary(w, q); err != nil {
			return err
		}

		return w.PutBits(r, int(p.K))
	}

	q := x / p.M
	r := x % p.M

	if err := putUnary(w, q); err != nil {
		return err
	}

	if r < p.Cutoff {
		if p.L == 0 {
			return nil
		}

		return w.PutBits(r, int(p.L-1))
	}

	return w.PutBits(r+p.Cutoff, int(p.L))
}

// putUnary writes q one-bits followed by a terminating zero-bit.
func putUnary(w *bitio.Writer, q uint32) error {
	for ; q > 0; q-- {
		if err := w.PutBits(1, 1); err != nil {
			return err
		}
	}

	return w.PutBits(0, 1)
}

// Decode reads one Golomb/Rice-coded symbol from r under p. maxUnary
// bounds the number of leading one-bits counted before giving up with
// ErrUnaryOverflow, matching the codec's max codeword length budget
// (32 bits for ICU, 16 for RDCU-supported types).
func (p Params) Decode(r *bitio.Reader, maxUnary int) (x uint32, bitsRead int, err error) {
	var q uint32

	startPos := r.BitPos()

	for {
		bit, err := r.PeekOne()
		if err != nil {
			return 0, 0, err
		}

		if bit == 0 {
			r.SkipOne()

			break
		}

		r.SkipOne()
		q++

		if int(q) > maxUnary {
			return 0, 0, ErrUnaryOverflow
		}
	}

	if p.Rice {
		rem, err := r.GetBits(int(p.K))
		if err != nil {
			return 0, 0, err
		}

		x = q<<p.K | rem

		return x, r.BitPos() - startPos, nil
	}

	if p.L == 0 {
		return q * p.M, r.BitPos() - startPos, nil
	}

	rem, err := r.GetBits(int(p.L - 1))
	if err != nil {
		return 0, 0, err
	}

	if rem < p.Cutoff {
		x = q*p.M + rem

		return x, r.BitPos() - startPos, nil
	}

	extraBit, err := r.GetBits(1)
	if err != nil {
		return 0, 0, err
	}

	rem = (rem << 1) | extraBit
	x = q*p.M + (rem - p.Cutoff)

	return x, r.BitPos() - startPos, nil
}
