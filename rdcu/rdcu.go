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

// Package rdcu validates the configuration surface of the external
// hardware compressor (RDCU) and serializes its CmpInfo result into an
// entity header. The RDCU device itself — register mirrors, SpaceWire
// packet assembly, interrupt handling — is explicitly out of scope;
// this package only covers the configuration-validation and
// result-serialization seam. Grounded on cmppar.CmpPar.Validate's
// per-field range-check shape, generalized to RdcuConfig's flat field
// list and its buffer-alignment/SRAM-window checks.
package rdcu

import (
	"errors"
	"fmt"

	"github.com/heliotrope/platocmp/cmppar"
	"github.com/heliotrope/platocmp/entity"
	"github.com/heliotrope/platocmp/format"
	"github.com/heliotrope/platocmp/internal/field"
	"github.com/heliotrope/platocmp/internal/golomb"
	"github.com/heliotrope/platocmp/maxbits"
)

// sramWindowSize is the 4 MiB SRAM window every RDCU buffer address
// must lie within.
const sramWindowSize = 4 * 1024 * 1024

var (
	// ErrParGeneric mirrors cmppar.ErrParGeneric for RDCU-specific
	// global-field checks.
	ErrParGeneric = errors.New("rdcu: mode/model-value/round out of range")
	// ErrParSpecific mirrors cmppar.ErrParSpecific for RDCU-specific
	// per-pair checks.
	ErrParSpecific = errors.New("rdcu: golomb_par/spill pair invalid")
	// ErrParBuffers marks a null, overlapping, misaligned, or
	// out-of-SRAM-range buffer address.
	ErrParBuffers = errors.New("rdcu: buffer address invalid")
)

// Config is the hardware compressor's configuration surface.
type Config struct {
	Mode       format.CmpMode
	GolombPar  uint32
	Spill      uint32
	ModelValue uint8
	Round      uint8

	AP1GolombPar uint32
	AP1Spill     uint32
	AP2GolombPar uint32
	AP2Spill     uint32

	DataAddr     uint32
	ModelAddr    uint32
	NewModelAddr uint32
	BufferAddr   uint32
	Samples      uint32
	BufferLength uint32
}

// Validate checks c's global settings, its three (golomb_par, spill)
// pairs, and its buffer addresses against the RDCU target's ranges.
// maxUsedBits bounds the literal/escape width the
// same way it does for the software compressor, via the
// max-used-bits registry entry for maxbits.FieldImagette (RDCU only
// ever compresses the imagette family).
func (c Config) Validate(registry *maxbits.Registry, maxUsedBitsVersion uint8) error {
	if !c.Mode.ValidForRDCU() {
		return fmt.Errorf("rdcu: mode %s not valid for RDCU: %w", c.Mode, ErrParGeneric)
	}

	if c.ModelValue > 16 {
		return fmt.Errorf("rdcu: model_value %d exceeds 16: %w", c.ModelValue, ErrParGeneric)
	}

	if c.Round > cmppar.RDCU.MaxRound() {
		return fmt.Errorf("rdcu: round %d exceeds %d: %w", c.Round, cmppar.RDCU.MaxRound(), ErrParGeneric)
	}

	if c.Mode == format.ModeRaw {
		return c.validateBuffers() // raw mode carries no per-field parameters to check
	}

	maxUsedBits, err := registry.Width(maxUsedBitsVersion, maxbits.FieldImagette)
	if err != nil {
		return fmt.Errorf("rdcu: %w", err)
	}

	escape := field.ZeroEscape
	if c.Mode == format.ModeDiffMulti || c.Mode == format.ModeModelMulti {
		escape = field.MultiEscape
	}

	pairs := []struct {
		name      string
		golombPar uint32
		spill     uint32
	}{
		{"primary", c.GolombPar, c.Spill},
		{"ap1", c.AP1GolombPar, c.AP1Spill},
		{"ap2", c.AP2GolombPar, c.AP2Spill},
	}

	for _, p := range pairs {
		if err := validatePair(p.golombPar, p.spill, maxUsedBits, escape); err != nil {
			return fmt.Errorf("rdcu: %s: %w", p.name, err)
		}
	}

	return c.validateBuffers()
}

func validatePair(golombPar, spill uint32, maxUsedBits uint8, escape field.Escape) error {
	if golombPar < 1 || golombPar > cmppar.RDCU.MaxGolombPar() {
		return fmt.Errorf("golomb_par %d out of [1,%d]: %w", golombPar, cmppar.RDCU.MaxGolombPar(), ErrParSpecific)
	}

	gp, err := golomb.NewParams(golombPar)
	if err != nil {
		return fmt.Errorf("%w: %w", err, ErrParSpecific)
	}

	maxSpill := field.MaxSpill(gp, maxUsedBits, escape, cmppar.RDCU.MaxCwBits())
	if spill < 2 || spill > maxSpill {
		return fmt.Errorf("spill %d out of [2,%d]: %w", spill, maxSpill, ErrParSpecific)
	}

	return nil
}

// rdcuImagetteSampleBytes is the per-sample byte width of the
// imagette family, the only data type RDCU compresses: used to derive
// how many bytes the input/model buffers actually span from Samples.
const rdcuImagetteSampleBytes = 2

func (c Config) validateBuffers() error {
	type named struct {
		name string
		addr uint32
		size uint32 // byte span, for the overlap check below
	}

	sampleBytes := c.Samples * rdcuImagetteSampleBytes

	bufs := []named{
		{"data", c.DataAddr, sampleBytes},
		{"buffer", c.BufferAddr, c.BufferLength},
	}
	if c.Mode.IsModel() {
		bufs = append(bufs, named{"model", c.ModelAddr, sampleBytes})

		if c.NewModelAddr != 0 {
			bufs = append(bufs, named{"new_model", c.NewModelAddr, sampleBytes})
		}
	}

	for _, b := range bufs {
		if b.addr%4 != 0 {
			return fmt.Errorf("rdcu: %s address %#x not 4-byte aligned: %w", b.name, b.addr, ErrParBuffers)
		}

		if b.addr >= sramWindowSize {
			return fmt.Errorf("rdcu: %s address %#x outside the 4 MiB SRAM window: %w", b.name, b.addr, ErrParBuffers)
		}
	}

	for i, a := range bufs {
		for _, b := range bufs[i+1:] {
			if a.addr == b.addr {
				return fmt.Errorf("rdcu: %s and %s buffers share address %#x: %w", a.name, b.name, a.addr, ErrParBuffers)
			}

			lo, hi := a, b
			if lo.addr > hi.addr {
				lo, hi = hi, lo
			}

			if lo.addr+lo.size > hi.addr {
				return fmt.Errorf(
					"rdcu: %s and %s buffers overlap (addresses %#x+%d, %#x+%d): %w",
					a.name, b.name, a.addr, a.size, b.addr, b.size, ErrParBuffers,
				)
			}
		}
	}

	if c.Samples != 0 && c.BufferLength == 0 {
		return fmt.Errorf("rdcu: buffer_length zero with %d samples requested: %w", c.Samples, ErrParBuffers)
	}

	return nil
}

// CmpInfo is the immutable result the hardware driver returns once a
// compression run completes: the (golomb_par, spill) pair the
// hardware actually used — RDCU's adaptive modes may settle on a pair
// different from the one requested — the model_id it ran under, and
// the compressed bitstream length in bits.
type CmpInfo struct {
	GolombPar   uint32
	Spill       uint32
	ModelID     uint16
	CmpSizeBits uint64
}

// ApplyTo patches info's fields into an already-built imagette-family
// entity buffer, without re-running any encoder: the actual
// (golomb_par, spill) pair into the imagette tail, model_id into the
// generic header, and cmp_ent_size recomputed from the compressed
// bitstream length, rounded up to a whole byte and then to the
// entity's 4-byte boundary.
func (info CmpInfo) ApplyTo(dst []byte) error {
	if info.GolombPar > 1<<16-1 || info.Spill > 1<<16-1 {
		return fmt.Errorf("rdcu: golomb_par/spill exceeds the tail's 16-bit width: %w", ErrParSpecific)
	}

	if err := entity.PatchImagettePar(dst, entity.Pair{
		GolombPar: uint16(info.GolombPar), //nolint:gosec // checked above
		Spill:     uint16(info.Spill),     //nolint:gosec // checked above
	}); err != nil {
		return err
	}

	if err := entity.PatchModelID(dst, info.ModelID); err != nil {
		return err
	}

	cmpBytes := (info.CmpSizeBits + 7) / 8
	cmpEntSize := entity.RoundUp4(entity.GenericSize + entity.ImagetteTailSize + int(cmpBytes)) //nolint:gosec // bounded by PatchCmpEntSize's own 24-bit check

	return entity.PatchCmpEntSize(dst, uint32(cmpEntSize)) //nolint:gosec // checked by PatchCmpEntSize
}
