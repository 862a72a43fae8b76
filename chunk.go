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

// Package platocmp implements the chunk driver: the public Encode/
// Decode entry points that walk a chunk's collections,
// infer its data type, and drive the entity/collection/datatype
// packages to produce or consume a compressed entity. Its shape — a
// single top-level driver function fanning out to per-section
// encode/decode helpers, with a package-level error taxonomy — is
// grounded on a NewDecoder/Decode entry point dispatching to
// lower-level bit routines, generalized from one fixed audio layout
// to this module's heterogeneous collection sequences.
package platocmp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/heliotrope/platocmp/cmppar"
	"github.com/heliotrope/platocmp/collection"
	"github.com/heliotrope/platocmp/entity"
	"github.com/heliotrope/platocmp/format"
	"github.com/heliotrope/platocmp/internal/bitio"
	"github.com/heliotrope/platocmp/internal/datatype"
	"github.com/heliotrope/platocmp/internal/field"
	"github.com/heliotrope/platocmp/maxbits"
)

// lengthPrefixSize is the 2 big-endian bytes of compressed length that
// precede every collection's payload in the compressed body.
const lengthPrefixSize = 2

// ChunkBound returns a capacity, in bytes, that suffices for the
// generic entity header plus a chunk of chunkSize raw bytes (headers
// and payloads together, as ParseChunk/Encode's OriginalSize counts
// them) split across numCollections collections: the entity's fixed
// 32-byte generic header, the chunk bytes themselves, and one 2-byte
// compressed-length prefix per collection, rounded up to a 4-byte
// entity boundary.
//
// This does not add the variant tail (4 to 32 bytes, chosen by the
// chunk's inferred data type): callers sizing a destination buffer
// ahead of encoding should add entity.GenericTailSize's worst case on
// top. Raw mode encodes with no per-sample expansion, so for it this
// bound plus that worst-case tail margin is exact headroom, not just
// sufficient; for a coded mode the bit-budget-safety contract (every
// sample's codeword bounded by the target's MaxCwBits) keeps coded
// output from exceeding this same margin in practice, but this helper
// does not attempt to prove that bound formally.
func ChunkBound(chunkSize, numCollections int) int {
	return entity.RoundUp4(entity.GenericSize + chunkSize + numCollections*lengthPrefixSize)
}

// Col is one collection's verbatim 12-byte header plus its raw
// (uncompressed, big-endian) payload bytes, the input unit the chunk
// driver walks.
type Col struct {
	Header  collection.Header
	Payload []byte
}

// ParseChunk splits a raw input chunk into its constituent
// collections, each bounded by its own header's DataLength. It returns
// ErrChunkTooSmall if data is shorter than one collection header, and
// ErrChunkSizeInconsistent if the trailing bytes don't exactly tile
// into whole collections.
func ParseChunk(data []byte) ([]Col, error) {
	if len(data) < collection.Size {
		return nil, ErrChunkTooSmall
	}

	var cols []Col

	for len(data) > 0 {
		if len(data) < collection.Size {
			return nil, fmt.Errorf("%w: %d trailing bytes short of a header", ErrChunkSizeInconsistent, len(data))
		}

		h, err := collection.Parse(data[:collection.Size])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrChunkSizeInconsistent, err)
		}

		rest := data[collection.Size:]
		if len(rest) < int(h.DataLength) {
			return nil, fmt.Errorf("%w: payload shorter than data_length %d", ErrChunkSizeInconsistent, h.DataLength)
		}

		cols = append(cols, Col{Header: h, Payload: rest[:h.DataLength]})
		data = rest[h.DataLength:]
	}

	return cols, nil
}

// allowedHeterogeneousGroupings lists the subservice-order sequences
// the chunk driver accepts for a multi-type chunk, beyond a single
// repeated subservice. These permutations are a design decision
// recorded in DESIGN.md rather than something derivable from a single
// field width or mode value.
//
//nolint:gochecknoglobals
var allowedHeterogeneousGroupings = [][]format.CmpDataType{
	{format.Offset, format.Background},
	{format.Background, format.Offset, format.Smearing},
}

// chunkDataType infers the chunk's overall CmpDataType: a single
// repeated subservice maps directly; an allowed
// heterogeneous ordering maps to the synthetic format.Chunk type;
// anything else is ErrChunkSubserviceInconsistent.
func chunkDataType(cols []Col) (format.CmpDataType, error) {
	if len(cols) == 0 {
		return format.Unknown, ErrChunkNull
	}

	types := make([]format.CmpDataType, len(cols))

	for i, c := range cols {
		t, err := datatype.DataTypeForSubservice(c.Header.Subservice)
		if err != nil {
			return format.Unknown, fmt.Errorf("%w: %w", ErrColSubserviceUnsupported, err)
		}

		types[i] = t
	}

	uniform := true

	for _, t := range types {
		if t != types[0] {
			uniform = false

			break
		}
	}

	if uniform {
		return types[0], nil
	}

	for _, grouping := range allowedHeterogeneousGroupings {
		if sameOrder(types, grouping) {
			return format.Chunk, nil
		}
	}

	return format.Unknown, ErrChunkSubserviceInconsistent
}

func sameOrder(types, grouping []format.CmpDataType) bool {
	if len(types) != len(grouping) {
		return false
	}

	for i, t := range types {
		if t != grouping[i] {
			return false
		}
	}

	return true
}

// EncodeParams bundles the inputs the chunk driver needs beyond the
// input chunk itself.
type EncodeParams struct {
	Par      cmppar.CmpPar
	Target   cmppar.Target
	Registry *maxbits.Registry // nil selects maxbits.Default
	Model    []Col             // optional; must match Chunk's collection headers byte-for-byte
}

func (p EncodeParams) registry() *maxbits.Registry {
	if p.Registry != nil {
		return p.Registry
	}

	return maxbits.Default
}

// Encode runs the chunk driver's encode path: validate
// cols and par, infer the chunk's data type, build the entity header,
// and emit one collection-header + length-prefix + payload block per
// collection. The entity is returned as a freshly-allocated slice; on
// any error the returned slice is nil.
func Encode(cols []Col, params EncodeParams) ([]byte, error) {
	if len(cols) == 0 {
		return nil, ErrChunkNull
	}

	registry := params.registry()
	if err := params.Par.Validate(params.Target, registry); err != nil {
		return nil, err
	}

	if params.Par.Mode.IsModel() && params.Model == nil {
		return nil, ErrParNoModel
	}

	dt, err := chunkDataType(cols)
	if err != nil {
		return nil, err
	}

	originalSize := 0
	for _, c := range cols {
		originalSize += collection.Size + len(c.Payload)
	}

	if originalSize > 1<<24-1 {
		return nil, ErrChunkTooLarge
	}

	body, err := encodeBody(cols, dt, params, registry)
	if err != nil {
		return nil, err
	}

	h := entity.Header{
		VersionID:          currentVersionID(),
		OriginalSize:       uint32(originalSize), //nolint:gosec // checked above
		StartTimestamp:     currentTimestamp(),
		EndTimestamp:       currentTimestamp(),
		RawFlag:            params.Par.Mode == format.ModeRaw,
		DataType:           dt,
		CmpModeUsed:        uint8(params.Par.Mode),
		ModelValueUsed:     params.Par.ModelValue,
		MaxUsedBitsVersion: params.Par.MaxUsedBitsVersion,
	}

	tail := buildTail(dt, params.Par)
	h.ImagettePar, h.AdaptivePar, h.AdaptiveN, h.GenericPars = tail.imagette, tail.adaptive, tail.adaptiveN, tail.generic

	h.CmpEntSize = uint32(entity.GenericSize + h.TailSize() + len(body)) //nolint:gosec // h.Bytes rejects a value over 24 bits

	headerBytes, err := h.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntityHeader, err)
	}

	out := append(headerBytes, body...)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}

	return out, nil
}

type tailPars struct {
	imagette  entity.Pair
	adaptive  [2]entity.Pair
	adaptiveN uint32
	generic   []entity.Pair
}

// buildTail derives the entity header's variant tail from par's
// per-field parameters, selecting the field(s) relevant to dt's
// schema family.
func buildTail(dt format.CmpDataType, par cmppar.CmpPar) tailPars {
	toPair := func(fp cmppar.FieldPar) entity.Pair {
		return entity.Pair{GolombPar: uint16(fp.GolombPar), Spill: uint16(fp.Spill)} //nolint:gosec // validated range fits 16 bits per §4.8
	}

	switch {
	case dt.IsImagette() && !dt.IsAdaptive():
		return tailPars{imagette: toPair(par.Fields[maxbits.FieldImagette])}
	case dt.IsAdaptive():
		pr := toPair(par.Fields[maxbits.FieldImagette])

		return tailPars{adaptive: [2]entity.Pair{pr, pr}}
	default:
		schema, err := datatype.SchemaFor(dt)
		if err != nil {
			return tailPars{} // Chunk/unsupported: no per-field pairs to report
		}

		pars := make([]entity.Pair, 0, len(schema.Fields))
		for _, sf := range schema.Fields {
			pars = append(pars, toPair(par.Fields[sf.Key]))
		}

		return tailPars{generic: pars}
	}
}

func encodeBody(cols []Col, dt format.CmpDataType, params EncodeParams, registry *maxbits.Registry) ([]byte, error) {
	var body []byte

	for i, c := range cols {
		headerBytes, err := c.Header.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrColSizeInconsistent, err)
		}

		var payload []byte

		if params.Par.Mode == format.ModeRaw {
			payload = c.Payload
		} else {
			var modelCol *Col
			if params.Model != nil {
				modelCol = &params.Model[i]
			}

			payload, err = encodeCollectionPayload(c, modelCol, dt, params.Par, registry)
			if err != nil {
				return nil, err
			}
		}

		lenPrefix := make([]byte, lengthPrefixSize)
		if len(payload) > 1<<16-1 {
			return nil, ErrIntCmpColTooLarge
		}

		binary.BigEndian.PutUint16(lenPrefix, uint16(len(payload))) //nolint:gosec // checked above

		body = append(body, headerBytes...)
		body = append(body, lenPrefix...)
		body = append(body, payload...)
	}

	return body, nil
}

func encodeCollectionPayload(c Col, model *Col, dt format.CmpDataType, par cmppar.CmpPar, registry *maxbits.Registry) ([]byte, error) {
	subDT, err := datatype.DataTypeForSubservice(c.Header.Subservice)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColSubserviceUnsupported, err)
	}

	_ = dt // overall chunk type; the per-collection schema is driven by its own subservice

	schema, err := datatype.SchemaFor(subDT)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColSubserviceUnsupported, err)
	}

	n := schema.SampleSize()
	if n == 0 || len(c.Payload)%n != 0 {
		return nil, fmt.Errorf("%w: payload not a multiple of the %d-byte sample size", ErrColSizeInconsistent, n)
	}

	count := len(c.Payload) / n

	data, err := readFieldValues(schema, c.Payload, count)
	if err != nil {
		return nil, err
	}

	var modelValues datatype.FieldValues

	if par.Mode.IsModel() {
		if model == nil {
			return nil, ErrParNoModel
		}

		modelValues, err = readFieldValues(schema, model.Payload, count)
		if err != nil {
			return nil, err
		}
	}

	// Worst case, every sample of every field hits the outlier path: a
	// Golomb codeword of up to 32 bits plus an escape literal or
	// payload of up to 32 bits. Size the scratch buffer for that bound
	// rather than the (usually much smaller) raw byte count.
	buf := make([]byte, len(schema.Fields)*count*8+4)
	w := bitio.NewWriter(buf)

	if err := datatype.EncodeSchema(w, schema, data, modelValues, par.Mode, par, registry); err != nil {
		switch {
		case errors.Is(err, bitio.ErrSmallBuf):
			return nil, fmt.Errorf("%w: %w", ErrSmallBuf, err)
		case errors.Is(err, field.ErrDataValueTooLarge):
			return nil, fmt.Errorf("%w: %w", ErrDataValueTooLarge, err)
		}

		return nil, err
	}

	if err := w.PadToByte(); err != nil {
		return nil, err
	}

	if par.Mode.IsModel() {
		writeFieldValues(schema, model.Payload, modelValues)
	}

	return buf[:w.ByteLen()], nil
}

// writeFieldValues writes updated's per-field columns back into dst in
// place: the model buffer a caller supplies for Model* modes is
// updated in place rather than returned as a copy.
func writeFieldValues(schema datatype.Schema, dst []byte, updated datatype.FieldValues) {
	offset := 0

	for _, sf := range schema.Fields {
		raw := datatype.WriteColumn(updated[sf.Key], sf.RawBytes)
		copy(dst[offset:offset+len(raw)], raw)
		offset += len(raw)
	}
}

func readFieldValues(schema datatype.Schema, payload []byte, count int) (datatype.FieldValues, error) {
	fv := make(datatype.FieldValues, len(schema.Fields))
	offset := 0

	for _, sf := range schema.Fields {
		raw := payload[offset : offset+sf.RawBytes*count]

		col, err := datatype.ReadColumn(raw, sf.RawBytes, count)
		if err != nil {
			return nil, err
		}

		fv[sf.Key] = col
		offset += sf.RawBytes * count
	}

	return fv, nil
}
