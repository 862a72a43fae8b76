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

// Package datatype implements the data-type walker: the per-schema
// field list for each of the 21 collection variants (19 with a layout,
// the two F-camera variants unsupported), and the loop that swaps
// endianness and dispatches each field's sample array through
// internal/field. Unifying the per-variant switch into a field-list
// table, rather than near-duplicate byte-swap routines,
// matches how a per-bit-depth matrix writer is itself parameterized
// by a single stride/offset pair rather than one function per depth.
package datatype

import (
	"errors"
	"fmt"

	"github.com/heliotrope/platocmp/format"
	"github.com/heliotrope/platocmp/maxbits"
)

// ErrUnsupportedDataType is returned for data types the walker
// recognizes but does not implement, currently the F-camera
// offset/background variants: their endianness-swap layout is not
// fully specified, so this module treats them as unsupported until
// confirmed (see DESIGN.md).
var ErrUnsupportedDataType = errors.New("datatype: unsupported data type")

// ErrNotASchema is returned for CmpDataType values with no per-sample
// field layout of their own: Unknown and the synthetic Chunk type.
var ErrNotASchema = errors.New("datatype: not a schema-bearing data type")

// SampleField describes one column of a schema: the per-sample raw
// byte width on the wire, and the CmpPar/max-used-bits field key that
// governs its Golomb parameters and literal width.
type SampleField struct {
	Key      maxbits.Field
	RawBytes int
}

// Schema lists, in wire order, the fields that make up one sample of a
// given CmpDataType. The payload for a collection of this type is the
// concatenation of one array per field (column-major/"columnar"
// layout, following arloliu/mebo's encoding/columnar.go convention)
// rather than one interleaved per-sample record, so each field's
// residual stream is independent and can use its own (m, spill) pair.
type Schema struct {
	Type   format.CmpDataType
	Fields []SampleField
}

// SampleSize returns the constant per-sample byte count for the
// schema, summed across its fields.
func (s Schema) SampleSize() int {
	n := 0
	for _, f := range s.Fields {
		n += f.RawBytes
	}

	return n
}

//nolint:gochecknoglobals
var schemas = buildSchemas()

func buildSchemas() map[format.CmpDataType]Schema {
	m := make(map[format.CmpDataType]Schema, int(format.Chunk))

	imagette := []SampleField{{maxbits.FieldImagette, 2}}
	m[format.DataImagette] = Schema{format.DataImagette, imagette}
	m[format.DataImagetteAdaptive] = Schema{format.DataImagetteAdaptive, imagette}
	m[format.SatImagette] = Schema{format.SatImagette, imagette}
	m[format.SatImagetteAdaptive] = Schema{format.SatImagetteAdaptive, imagette}

	m[format.Offset] = Schema{format.Offset, []SampleField{
		{maxbits.FieldOffsetMean, 2},
		{maxbits.FieldOffsetVariance, 4},
	}}
	m[format.Background] = Schema{format.Background, []SampleField{
		{maxbits.FieldBackgroundMean, 2},
		{maxbits.FieldBackgroundVariance, 4},
		{maxbits.FieldBackgroundOutlierPixels, 2},
	}}
	m[format.Smearing] = Schema{format.Smearing, []SampleField{
		{maxbits.FieldSmearingMean, 2},
		{maxbits.FieldSmearingVariance, 4},
		{maxbits.FieldSmearingOutlierPixels, 2},
	}}

	for _, fam := range []struct {
		fx, fxEfx, fxNcob, fxEfxNcobEcob format.CmpDataType
	}{
		{format.SFx, format.SFxEfx, format.SFxNcob, format.SFxEfxNcobEcob},
		{format.LFx, format.LFxEfx, format.LFxNcob, format.LFxEfxNcobEcob},
		{format.FFx, format.FFxEfx, format.FFxNcob, format.FFxEfxNcobEcob},
	} {
		m[fam.fx] = Schema{fam.fx, []SampleField{
			{maxbits.FieldExpFlags, 1},
			{maxbits.FieldFx, 4},
		}}
		m[fam.fxEfx] = Schema{fam.fxEfx, []SampleField{
			{maxbits.FieldExpFlags, 1},
			{maxbits.FieldFx, 4},
			{maxbits.FieldEfx, 4},
		}}
		m[fam.fxNcob] = Schema{fam.fxNcob, []SampleField{
			{maxbits.FieldExpFlags, 1},
			{maxbits.FieldFx, 4},
			{maxbits.FieldNcob, 4}, // ncob_x
			{maxbits.FieldNcob, 4}, // ncob_y
			{maxbits.FieldFxCobVariance, 4},
		}}
		m[fam.fxEfxNcobEcob] = Schema{fam.fxEfxNcobEcob, []SampleField{
			{maxbits.FieldExpFlags, 1},
			{maxbits.FieldFx, 4},
			{maxbits.FieldEfx, 4},
			{maxbits.FieldNcob, 4}, // ncob_x
			{maxbits.FieldNcob, 4}, // ncob_y
			{maxbits.FieldEcob, 4}, // ecob_x
			{maxbits.FieldEcob, 4}, // ecob_y
			{maxbits.FieldFxCobVariance, 4},
		}}
	}

	return m
}

// SchemaFor returns the field layout for t. It returns ErrNotASchema
// for Unknown and Chunk, and ErrUnsupportedDataType for the F-camera
// variants.
func SchemaFor(t format.CmpDataType) (Schema, error) {
	switch t {
	case format.Unknown, format.Chunk:
		return Schema{}, fmt.Errorf("%w: %s", ErrNotASchema, t)
	case format.FCamOffset, format.FCamBackground:
		return Schema{}, fmt.Errorf("%w: %s", ErrUnsupportedDataType, t)
	}

	s, ok := schemas[t]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrNotASchema, t)
	}

	return s, nil
}

// subserviceTable is the fixed subservice->CmpDataType mapping. The
// concrete subservice numbering was not recoverable from the
// available reference material, so this assigns the 21 real types
// sequential codes 1..21 — an explicit decision rather than
// leaving the mapping ambiguous; see DESIGN.md.
//
//nolint:gochecknoglobals
var subserviceTable = []format.CmpDataType{
	0: format.Unknown,
	1: format.DataImagette,
	2: format.DataImagetteAdaptive,
	3: format.SatImagette,
	4: format.SatImagetteAdaptive,
	5: format.Offset,
	6: format.Background,
	7: format.Smearing,
	8: format.SFx,
	9: format.SFxEfx,
	10: format.SFxNcob,
	11: format.SFxEfxNcobEcob,
	12: format.LFx,
	13: format.LFxEfx,
	14: format.LFxNcob,
	15: format.LFxEfxNcobEcob,
	16: format.FFx,
	17: format.FFxEfx,
	18: format.FFxNcob,
	19: format.FFxEfxNcobEcob,
	20: format.FCamOffset,
	21: format.FCamBackground,
}

// ErrSubserviceUnsupported is returned by DataTypeForSubservice for any
// subservice value with no schema entry.
var ErrSubserviceUnsupported = errors.New("datatype: subservice has no known collection type")

// DataTypeForSubservice maps a collection header's 6-bit subservice
// field to its CmpDataType via the fixed subserviceTable.
func DataTypeForSubservice(subservice uint8) (format.CmpDataType, error) {
	if int(subservice) >= len(subserviceTable) {
		return format.Unknown, fmt.Errorf("%w: %d", ErrSubserviceUnsupported, subservice)
	}

	t := subserviceTable[subservice]
	if t == format.Unknown {
		return format.Unknown, fmt.Errorf("%w: %d", ErrSubserviceUnsupported, subservice)
	}

	return t, nil
}

// SubserviceForDataType is the inverse of DataTypeForSubservice: it
// returns the subservice code subserviceTable assigns to t.
func SubserviceForDataType(t format.CmpDataType) (uint8, error) {
	for i, dt := range subserviceTable {
		if dt == t {
			return uint8(i), nil //nolint:gosec // table length is 22, well within uint8
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrSubserviceUnsupported, t)
}
