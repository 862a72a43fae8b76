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

package datatype

import (
	"encoding/binary"
	"fmt"

	"github.com/heliotrope/platocmp/cmppar"
	"github.com/heliotrope/platocmp/format"
	"github.com/heliotrope/platocmp/internal/bitio"
	"github.com/heliotrope/platocmp/internal/field"
	"github.com/heliotrope/platocmp/internal/predictor"
	"github.com/heliotrope/platocmp/maxbits"
)

// Column is one field's per-sample values in full-scale (not yet
// rounded or residual-mapped) signed domain, decoded from its raw
// big-endian bytes on the wire. Unsigned wire quantities are carried as
// their non-negative int32 representation; the 22 schema variants
// never need more than 32 usable bits per field.
type Column []int32

// ReadColumn decodes count big-endian values of rawBytes width each
// from raw, the inverse of WriteColumn. Only widths of 1, 2, or 4 bytes
// occur in the fixed schemas (buildSchemas).
func ReadColumn(raw []byte, rawBytes, count int) (Column, error) {
	if len(raw) < rawBytes*count {
		return nil, fmt.Errorf("%w: column shorter than %d samples of %d bytes", ErrNotASchema, count, rawBytes)
	}

	col := make(Column, count)

	for i := range col {
		b := raw[i*rawBytes : (i+1)*rawBytes]

		switch rawBytes {
		case 1:
			col[i] = int32(b[0])
		case 2:
			col[i] = int32(binary.BigEndian.Uint16(b))
		case 4:
			col[i] = int32(binary.BigEndian.Uint32(b)) //nolint:gosec // wire values are treated as 32-bit patterns
		default:
			return nil, fmt.Errorf("%w: unsupported raw width %d", ErrNotASchema, rawBytes)
		}
	}

	return col, nil
}

// WriteColumn encodes col back to its big-endian raw byte form.
func WriteColumn(col Column, rawBytes int) []byte {
	raw := make([]byte, rawBytes*len(col))

	for i, v := range col {
		b := raw[i*rawBytes : (i+1)*rawBytes]

		switch rawBytes {
		case 1:
			b[0] = byte(v)
		case 2:
			binary.BigEndian.PutUint16(b, uint16(v)) //nolint:gosec // truncation to the field's declared width is intended
		case 4:
			binary.BigEndian.PutUint32(b, uint32(v)) //nolint:gosec // truncation to the field's declared width is intended
		}
	}

	return raw
}

// EncodeColumn runs one field's samples through the predictor selected
// by mode, then through fp's outlier-aware Golomb coder, writing to w.
// model is read (and, for model modes, updated in place); it is
// ignored for diff and raw modes.
//
// Returns bitio.ErrSmallBuf, untouched past the last fully-written
// sample, the moment any single sample's worst-case cost would not
// fit w's remaining capacity — individual Encode calls already
// enforce this per-sample.
func EncodeColumn(w *bitio.Writer, data Column, model Column, mode format.CmpMode, modelValue, round uint8, fp field.Params) error {
	switch {
	case mode.IsDiff():
		return encodeDiffColumn(w, data, round, fp)
	case mode.IsModel():
		return encodeModelColumn(w, data, model, modelValue, round, fp)
	default:
		return fmt.Errorf("%w: mode %s has no residual encoding", ErrUnsupportedDataType, mode)
	}
}

func encodeDiffColumn(w *bitio.Writer, data Column, round uint8, fp field.Params) error {
	quantized := make([]int32, len(data))
	for i, v := range data {
		quantized[i] = predictor.Quantize(v, round)
	}

	res := predictor.DiffResidual(quantized)

	for _, r := range res {
		if err := fp.Encode(w, predictor.Map(r)); err != nil {
			return err
		}
	}

	return nil
}

func encodeModelColumn(w *bitio.Writer, data, model Column, modelValue, round uint8, fp field.Params) error {
	for i, v := range data {
		qv := predictor.Quantize(v, round)
		qm := predictor.Quantize(model[i], round)
		r := qv - qm

		if err := fp.Encode(w, predictor.Map(r)); err != nil {
			return err
		}

		model[i] = predictor.UpdateModel(model[i], v, modelValue, round)
	}

	return nil
}

// DecodeColumn is EncodeColumn's inverse: it reads n residuals from r,
// reconstructs the (possibly lossily-rounded) sample values, and for
// model modes updates model in place the same way the encoder did.
func DecodeColumn(r *bitio.Reader, n int, model Column, mode format.CmpMode, modelValue, round uint8, fp field.Params) (Column, error) {
	switch {
	case mode.IsDiff():
		return decodeDiffColumn(r, n, round, fp)
	case mode.IsModel():
		return decodeModelColumn(r, n, model, modelValue, round, fp)
	default:
		return nil, fmt.Errorf("%w: mode %s has no residual decoding", ErrUnsupportedDataType, mode)
	}
}

func decodeDiffColumn(r *bitio.Reader, n int, round uint8, fp field.Params) (Column, error) {
	res := make([]int32, n)

	for i := range res {
		u, err := fp.Decode(r)
		if err != nil {
			return nil, err
		}

		res[i] = predictor.Unmap(u)
	}

	// DiffReconstruct already yields values in the reconstructed
	// (round-forward-then-inverse) domain, since the encoder built its
	// residuals from Quantize(v, round), not v itself.
	return predictor.DiffReconstruct(res), nil
}

func decodeModelColumn(r *bitio.Reader, n int, model Column, modelValue, round uint8, fp field.Params) (Column, error) {
	out := make(Column, n)

	for i := 0; i < n; i++ {
		u, err := fp.Decode(r)
		if err != nil {
			return nil, err
		}

		res := predictor.Unmap(u)
		qm := predictor.Quantize(model[i], round)
		out[i] = res + qm

		model[i] = predictor.UpdateModel(model[i], out[i], modelValue, round)
	}

	return out, nil
}

// FieldValues is the decoded columnar payload of one collection: one
// Column per schema field, in schema order.
type FieldValues map[maxbits.Field]Column

// EncodeSchema walks schema's fields in order, encoding each one's
// column via EncodeColumn. model may be nil for diff/raw modes; for
// model modes, its per-field columns are updated in place (the chunk
// driver writes these back to the caller's model buffer on success).
func EncodeSchema(
	w *bitio.Writer, schema Schema, data FieldValues, model FieldValues,
	mode format.CmpMode, par cmppar.CmpPar, registry *maxbits.Registry,
) error {
	for _, sf := range schema.Fields {
		fp, err := par.FieldParams(sf.Key, registry)
		if err != nil {
			return err
		}

		var modelCol Column
		if mode.IsModel() {
			modelCol = model[sf.Key]
			if modelCol == nil {
				return fmt.Errorf("%w: model mode requires a model column for field %q", ErrUnsupportedDataType, sf.Key)
			}
		}

		if err := EncodeColumn(w, data[sf.Key], modelCol, mode, par.ModelValue, par.Round, fp); err != nil {
			return fmt.Errorf("datatype: field %q: %w", sf.Key, err)
		}
	}

	return nil
}

// DecodeSchema is EncodeSchema's inverse, reading n samples per field.
func DecodeSchema(
	r *bitio.Reader, schema Schema, n int, model FieldValues,
	mode format.CmpMode, par cmppar.CmpPar, registry *maxbits.Registry,
) (FieldValues, error) {
	out := make(FieldValues, len(schema.Fields))

	for _, sf := range schema.Fields {
		fp, err := par.FieldParams(sf.Key, registry)
		if err != nil {
			return nil, err
		}

		var modelCol Column
		if mode.IsModel() {
			modelCol = model[sf.Key]
			if modelCol == nil {
				return nil, fmt.Errorf("%w: model mode requires a model column for field %q", ErrUnsupportedDataType, sf.Key)
			}
		}

		col, err := DecodeColumn(r, n, modelCol, mode, par.ModelValue, par.Round, fp)
		if err != nil {
			return nil, fmt.Errorf("datatype: field %q: %w", sf.Key, err)
		}

		out[sf.Key] = col
	}

	return out, nil
}
