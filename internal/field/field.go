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

// Package field implements the per-field encoder/decoder (spec
// component D): it wraps internal/golomb with one of the two outlier
// mechanisms (zero-escape, multi-escape), enforcing the max-used-bits
// literal width and the bit budget contract. It is built on the same
// "count a unary prefix, then read a fixed-width literal" shape as
// internal/alac/golomb.go's escape path (residual >= maxPrefix32 falls
// back to a literal read of maxSize bits) adapted from ALAC's adaptive
// mean-tracking scheme to this codec's static per-field parameters.
package field

import (
	"errors"
	"fmt"

	"github.com/heliotrope/platocmp/internal/bitio"
	"github.com/heliotrope/platocmp/internal/golomb"
)

// Escape selects the outlier mechanism applied around the Golomb/Rice
// core.
type Escape uint8

const (
	// ZeroEscape reserves the Golomb codeword for 0 as an escape marker.
	ZeroEscape Escape = iota
	// MultiEscape groups large outliers by increasing power-of-four bins.
	MultiEscape
)

// ErrDataValueTooLarge is returned when a symbol's Golomb codeword
// would exceed MaxCwBits, or when an outlier does not fit the escape
// literal or payload width that MaxUsedBits allows.
var ErrDataValueTooLarge = errors.New("field: encoded value exceeds codec's maximum codeword length")

// Params configures one field's encode/decode.
type Params struct {
	Golomb      golomb.Params
	Spill       uint32
	MaxUsedBits uint8 // literal width used by both escape mechanisms
	Escape      Escape
	MaxCwBits   int // 32 for ICU, 16 for RDCU-supported types
}

// NewParams validates m/spill combinatorially and precomputes the
// Golomb coding constants.
func NewParams(m, spill uint32, maxUsedBits uint8, escape Escape, maxCwBits int) (Params, error) {
	gp, err := golomb.NewParams(m)
	if err != nil {
		return Params{}, err
	}

	if spill < 2 {
		return Params{}, fmt.Errorf("field: spill must be >= 2, got %d", spill)
	}

	return Params{Golomb: gp, Spill: spill, MaxUsedBits: maxUsedBits, Escape: escape, MaxCwBits: maxCwBits}, nil
}

// bitsForK returns the number of 2-bit groups needed to represent v,
// i.e. the smallest positive k such that v < 1<<(2k).
func bitsForK(v uint32) int {
	k := 1
	for v >= 1<<(2*k) {
		k++
	}

	return k
}

// Encode writes one mapped unsigned symbol u under the outlier
// mechanism selected by p. Before writing any bits it computes the
// exact bit cost of this sample and checks it against w's remaining
// capacity, returning bitio.ErrSmallBuf (with the stream untouched)
// rather than a partial write.
func (p Params) Encode(w *bitio.Writer, u uint32) error {
	switch p.Escape {
	case ZeroEscape:
		return p.encodeZeroEscape(w, u)
	case MultiEscape:
		return p.encodeMultiEscape(w, u)
	default:
		panic("field: unknown escape mechanism")
	}
}

func (p Params) encodeZeroEscape(w *bitio.Writer, u uint32) error {
	if u+1 < p.Spill {
		needed := p.Golomb.EncodedBits(u + 1)
		if needed > p.MaxCwBits {
			return ErrDataValueTooLarge
		}

		if needed > w.Remaining() {
			return bitio.ErrSmallBuf
		}

		return p.Golomb.Encode(w, u+1)
	}

	escBits := p.Golomb.EncodedBits(0)
	if escBits > p.MaxCwBits {
		return ErrDataValueTooLarge
	}

	if escBits+int(p.MaxUsedBits) > w.Remaining() {
		return bitio.ErrSmallBuf
	}

	if p.MaxUsedBits < 32 && u >= 1<<p.MaxUsedBits {
		return ErrDataValueTooLarge
	}

	if err := p.Golomb.Encode(w, 0); err != nil {
		return err
	}

	return w.PutBits(u, int(p.MaxUsedBits))
}

func (p Params) encodeMultiEscape(w *bitio.Writer, u uint32) error {
	if u < p.Spill {
		needed := p.Golomb.EncodedBits(u)
		if needed > p.MaxCwBits {
			return ErrDataValueTooLarge
		}

		if needed > w.Remaining() {
			return bitio.ErrSmallBuf
		}

		return p.Golomb.Encode(w, u)
	}

	k := bitsForK(u - p.Spill)

	maxK := (int(p.MaxUsedBits) + 1) / 2
	if k > maxK {
		return ErrDataValueTooLarge
	}

	escSymbol := p.Spill + uint32(k-1)

	escBits := p.Golomb.EncodedBits(escSymbol)
	if escBits > p.MaxCwBits {
		return ErrDataValueTooLarge
	}

	if escBits+2*k > w.Remaining() {
		return bitio.ErrSmallBuf
	}

	if err := p.Golomb.Encode(w, escSymbol); err != nil {
		return err
	}

	return w.PutBits(u-p.Spill, 2*k)
}

// Decode reads one mapped unsigned symbol back from r.
func (p Params) Decode(r *bitio.Reader) (uint32, error) {
	switch p.Escape {
	case ZeroEscape:
		return p.decodeZeroEscape(r)
	case MultiEscape:
		return p.decodeMultiEscape(r)
	default:
		panic("field: unknown escape mechanism")
	}
}

func (p Params) decodeZeroEscape(r *bitio.Reader) (uint32, error) {
	code, _, err := p.Golomb.Decode(r, p.MaxCwBits)
	if err != nil {
		return 0, err
	}

	if code == 0 {
		lit, err := r.GetBits(int(p.MaxUsedBits))
		if err != nil {
			return 0, err
		}

		if lit < p.Spill-1 && lit != 0 {
			return 0, fmt.Errorf("field: zero-escape literal %d below spill-1 bound %d", lit, p.Spill-1)
		}

		return lit, nil
	}

	return code - 1, nil
}

func (p Params) decodeMultiEscape(r *bitio.Reader) (uint32, error) {
	code, _, err := p.Golomb.Decode(r, p.MaxCwBits)
	if err != nil {
		return 0, err
	}

	if code < p.Spill {
		return code, nil
	}

	k := int(code-p.Spill) + 1

	lit, err := r.GetBits(2 * k)
	if err != nil {
		return 0, err
	}

	return p.Spill + lit, nil
}
