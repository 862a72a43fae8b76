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

// Package format defines the closed enumerations shared by the entity
// header, collection header, and data-type walker: CmpMode and
// CmpDataType. Grounded on arloliu/mebo's format/types.go, which
// defines the analogous EncodingType/CompressionType closed
// enumerations for its own wire header.
package format

// CmpMode selects the prediction and outlier strategy applied to a
// collection's payload.
type CmpMode uint8

const (
	// ModeRaw copies the payload verbatim (big-endian on the wire).
	ModeRaw CmpMode = iota
	// ModeDiffZero uses sample-to-sample differencing with the
	// zero-escape outlier mechanism.
	ModeDiffZero
	// ModeDiffMulti uses sample-to-sample differencing with the
	// multi-escape outlier mechanism.
	ModeDiffMulti
	// ModeModelZero uses model-buffer prediction with the zero-escape
	// outlier mechanism.
	ModeModelZero
	// ModeModelMulti uses model-buffer prediction with the multi-escape
	// outlier mechanism.
	ModeModelMulti
	// ModeStuff is an ICU-only dry-run mode: validate and size a would-be
	// encode without requiring a real output buffer.
	ModeStuff
)

// String returns the mode's stable name.
func (m CmpMode) String() string {
	switch m {
	case ModeRaw:
		return "Raw"
	case ModeDiffZero:
		return "DiffZero"
	case ModeDiffMulti:
		return "DiffMulti"
	case ModeModelZero:
		return "ModelZero"
	case ModeModelMulti:
		return "ModelMulti"
	case ModeStuff:
		return "Stuff"
	default:
		return "Unknown"
	}
}

// IsModel reports whether m predicts against a caller-supplied model
// buffer (as opposed to differencing or raw copy).
func (m CmpMode) IsModel() bool {
	return m == ModeModelZero || m == ModeModelMulti
}

// IsDiff reports whether m predicts via sample-to-sample differencing.
func (m CmpMode) IsDiff() bool {
	return m == ModeDiffZero || m == ModeDiffMulti
}

// ValidForICU reports whether m is one of the modes the software
// compressor (ICU) accepts: Raw, the four Diff/Model x Zero/Multi
// combinations, and Stuff.
func (m CmpMode) ValidForICU() bool {
	return m <= ModeStuff
}

// ValidForRDCU reports whether m is one of the modes the hardware
// compressor (RDCU) accepts: Raw and the four Diff/Model x Zero/Multi
// combinations, but never Stuff (RDCU has no dry-run mode).
func (m CmpMode) ValidForRDCU() bool {
	return m <= ModeModelMulti
}

// CmpDataType is a closed enumeration of 23 values: Unknown, 21 real
// collection types, and the synthetic Chunk type. RawFlag in the
// entity header is an orthogonal bit set
// whenever the collection was compressed under ModeRaw; it is not part
// of this enum.
type CmpDataType uint16

const (
	// Unknown marks an entity whose data type was never set.
	Unknown CmpDataType = iota

	// Imagette family: plain pixel arrays, single parameter pair.
	DataImagette
	DataImagetteAdaptive
	SatImagette
	SatImagetteAdaptive

	// Offset/Background/Smearing family: mean, variance, optional
	// outlier-pixel count.
	Offset
	Background
	Smearing

	// Short/Long/Fast flux families: combinations of exposure flags,
	// flux, error-flux, center-of-brightness and its error, and their
	// variances.
	SFx
	SFxEfx
	SFxNcob
	SFxEfxNcobEcob
	LFx
	LFxEfx
	LFxNcob
	LFxEfxNcobEcob
	FFx
	FFxEfx
	FFxNcob
	FFxEfxNcobEcob

	// F-camera offset/background variants (endianness swap unconfirmed
	// in the original source; see DESIGN.md).
	FCamOffset
	FCamBackground

	// Chunk is the synthetic data type written when a chunk's
	// collections form one of the allowed heterogeneous groupings
	// rather than a single repeated subservice.
	Chunk

	numDataTypes
)

// String returns the data type's stable name.
func (t CmpDataType) String() string {
	switch t {
	case Unknown:
		return "Unknown"
	case DataImagette:
		return "DataImagette"
	case DataImagetteAdaptive:
		return "DataImagetteAdaptive"
	case SatImagette:
		return "SatImagette"
	case SatImagetteAdaptive:
		return "SatImagetteAdaptive"
	case Offset:
		return "Offset"
	case Background:
		return "Background"
	case Smearing:
		return "Smearing"
	case SFx:
		return "SFx"
	case SFxEfx:
		return "SFxEfx"
	case SFxNcob:
		return "SFxNcob"
	case SFxEfxNcobEcob:
		return "SFxEfxNcobEcob"
	case LFx:
		return "LFx"
	case LFxEfx:
		return "LFxEfx"
	case LFxNcob:
		return "LFxNcob"
	case LFxEfxNcobEcob:
		return "LFxEfxNcobEcob"
	case FFx:
		return "FFx"
	case FFxEfx:
		return "FFxEfx"
	case FFxNcob:
		return "FFxNcob"
	case FFxEfxNcobEcob:
		return "FFxEfxNcobEcob"
	case FCamOffset:
		return "FCamOffset"
	case FCamBackground:
		return "FCamBackground"
	case Chunk:
		return "Chunk"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is a recognized, non-Unknown data type.
func (t CmpDataType) Valid() bool {
	return t > Unknown && t < numDataTypes
}

// IsAdaptive reports whether t carries two alternative (m, spill) pairs
// in its entity header tail for downstream re-evaluation.
func (t CmpDataType) IsAdaptive() bool {
	return t == DataImagetteAdaptive || t == SatImagetteAdaptive
}

// IsImagette reports whether t belongs to the plain-pixel imagette
// family (2-byte samples, a single parameter pair).
func (t CmpDataType) IsImagette() bool {
	return t == DataImagette || t == DataImagetteAdaptive || t == SatImagette || t == SatImagetteAdaptive
}
