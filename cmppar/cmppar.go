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

// Package cmppar implements the parameter-validation and configuration
// engine: CmpPar, the per-field (golomb_par, spill) pairs it carries,
// and the range/combination checks gating every encode/decode call.
// The validate-each-setting-and-return-a-narrow-error shape is
// grounded on arloliu/mebo's blob/numeric_encoder_config.go setter
// methods (setTimestampEncoding/setValueCompression and friends, each
// validating one concern and returning a plain error), generalized
// here to a richer per-field parameter space and wired into this
// module's Code taxonomy instead of mebo's bare fmt.Errorf strings.
package cmppar

import (
	"fmt"

	"github.com/heliotrope/platocmp/format"
	"github.com/heliotrope/platocmp/internal/field"
	"github.com/heliotrope/platocmp/internal/golomb"
	"github.com/heliotrope/platocmp/maxbits"
)

// Target identifies which compressor a CmpPar is being validated for:
// the software compressor (ICU, this module's core) or the external
// hardware compressor (RDCU), whose configuration surface this module
// only validates and serializes.
type Target uint8

const (
	// ICU is the software compressor: max_used_bits-driven literal
	// widths, 32-bit codewords, and Stuff mode.
	ICU Target = iota
	// RDCU is the external hardware compressor: 16-bit codewords, no
	// Stuff mode, m restricted to [1,63].
	RDCU
)

// MaxCwBits returns the codec's maximum codeword length for t: 32 bits
// for ICU, 16 bits for RDCU-supported types.
func (t Target) MaxCwBits() int {
	if t == RDCU {
		return 16
	}

	return 32
}

// MaxRound returns the largest valid lossy-rounding value for t:
// round <= 2 for RDCU, <= 3 for ICU.
func (t Target) MaxRound() uint8 {
	if t == RDCU {
		return 2
	}

	return 3
}

// MaxGolombPar returns the largest valid Golomb parameter m for t:
// m in [1,63] for RDCU, [1, 2^32-1] for ICU.
func (t Target) MaxGolombPar() uint32 {
	if t == RDCU {
		return 63
	}

	return 1<<32 - 1
}

// FieldPar is one field's Golomb parameter and spill threshold.
type FieldPar struct {
	GolombPar uint32
	Spill     uint32
}

// CmpPar is the per-field compression parameter set: the
// configuration surface shared by every encode/decode call.
type CmpPar struct {
	Mode               format.CmpMode
	ModelValue         uint8 // 0..16
	Round              uint8 // 0..3 (ICU) or 0..2 (RDCU)
	MaxUsedBitsVersion uint8
	Fields             map[maxbits.Field]FieldPar
}

// escapeFor maps a CmpMode to the outlier mechanism its field encoders
// use: the Zero/Multi suffix selects the mechanism.
func escapeFor(mode format.CmpMode) field.Escape {
	if mode == format.ModeDiffZero || mode == format.ModeModelZero {
		return field.ZeroEscape
	}

	return field.MultiEscape
}

// Validate checks p's global settings and every field pair it carries
// against target's ranges. It does not check buffers
// (ParBuffers/ParNull/ParNoModel): those depend on the caller-supplied
// slices at encode/decode time and are checked by the chunk driver
// immediately before it touches any buffer.
func (p CmpPar) Validate(target Target, registry *maxbits.Registry) error {
	if err := p.validateGeneric(target); err != nil {
		return err
	}

	if p.Mode == format.ModeRaw {
		return nil // raw mode carries no per-field parameters to check
	}

	escape := escapeFor(p.Mode)
	maxCw := target.MaxCwBits()

	for name, fp := range p.Fields {
		if err := validateFieldPar(name, fp, target, escape, maxCw, p.MaxUsedBitsVersion, registry); err != nil {
			return err
		}
	}

	return nil
}

func (p CmpPar) validateGeneric(target Target) error {
	switch target {
	case ICU:
		if !p.Mode.ValidForICU() {
			return fmt.Errorf("cmppar: mode %s not valid for ICU: %w", p.Mode, ErrParGeneric)
		}
	case RDCU:
		if !p.Mode.ValidForRDCU() {
			return fmt.Errorf("cmppar: mode %s not valid for RDCU: %w", p.Mode, ErrParGeneric)
		}
	default:
		return fmt.Errorf("cmppar: unknown target %d: %w", target, ErrParGeneric)
	}

	if p.ModelValue > 16 {
		return fmt.Errorf("cmppar: model_value %d exceeds 16: %w", p.ModelValue, ErrParGeneric)
	}

	if p.Round > target.MaxRound() {
		return fmt.Errorf("cmppar: round %d exceeds %d for target: %w", p.Round, target.MaxRound(), ErrParGeneric)
	}

	return nil
}

func validateFieldPar(
	name maxbits.Field, fp FieldPar, target Target, escape field.Escape, maxCw int,
	version uint8, registry *maxbits.Registry,
) error {
	if fp.GolombPar < 1 || fp.GolombPar > target.MaxGolombPar() {
		return fmt.Errorf("cmppar: field %q golomb_par %d out of range: %w", name, fp.GolombPar, ErrParSpecific)
	}

	gp, err := golomb.NewParams(fp.GolombPar)
	if err != nil {
		return fmt.Errorf("cmppar: field %q: %w: %w", name, err, ErrParSpecific)
	}

	maxUsedBits, err := registry.Width(version, name)
	if err != nil {
		return fmt.Errorf("cmppar: field %q: %w: %w", name, err, ErrParSpecific)
	}

	maxSpill := field.MaxSpill(gp, maxUsedBits, escape, maxCw)
	if fp.Spill < 2 || fp.Spill > maxSpill {
		return fmt.Errorf(
			"cmppar: field %q spill %d out of range [2,%d]: %w",
			name, fp.Spill, maxSpill, ErrParSpecific,
		)
	}

	return nil
}

// FieldParams builds the internal/field.Params for name, assuming p has
// already passed Validate. It is the bridge between the public
// configuration surface and the per-field encoder/decoder.
//
// NOTE: this always builds against ICU.MaxCwBits() regardless of which
// target p was validated for. Only the ICU (software) encode/decode
// path calls FieldParams today — RDCU runs its own per-pair checks
// independently via rdcu.validatePair — so this is latent, not
// reachable through any implemented path; see DESIGN.md. Wire an
// explicit Target through here before ever calling FieldParams from an
// RDCU path.
func (p CmpPar) FieldParams(name maxbits.Field, registry *maxbits.Registry) (field.Params, error) {
	fp, ok := p.Fields[name]
	if !ok {
		return field.Params{}, fmt.Errorf("cmppar: no parameters configured for field %q: %w", name, ErrParSpecific)
	}

	maxUsedBits, err := registry.Width(p.MaxUsedBitsVersion, name)
	if err != nil {
		return field.Params{}, fmt.Errorf("cmppar: field %q: %w", name, err)
	}

	return field.NewParams(fp.GolombPar, fp.Spill, maxUsedBits, escapeFor(p.Mode), ICU.MaxCwBits())
}
