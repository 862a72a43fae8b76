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

package platocmp_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	platocmp "github.com/heliotrope/platocmp"
	"github.com/heliotrope/platocmp/cmppar"
	"github.com/heliotrope/platocmp/collection"
	"github.com/heliotrope/platocmp/entity"
	"github.com/heliotrope/platocmp/format"
	"github.com/heliotrope/platocmp/maxbits"
)

func init() {
	platocmp.InitTimestampProvider(func() uint64 {
		return entity.EncodeTimestamp(entity.Epoch.Add(time.Hour))
	})
	platocmp.InitVersionID(1)
}

func imagetteCol(subservice uint8, samples []uint16) platocmp.Col {
	payload := make([]byte, len(samples)*2)
	for i, v := range samples {
		payload[i*2] = byte(v >> 8)
		payload[i*2+1] = byte(v)
	}

	h := collection.Header{
		Timestamp:   entity.EncodeTimestamp(entity.Epoch.Add(time.Hour)),
		ConfigID:    1,
		Subservice:  subservice,
		SequenceNum: 0,
		DataLength:  uint16(len(payload)), //nolint:gosec // test fixture
	}

	return platocmp.Col{Header: h, Payload: payload}
}

func imagetteCmpPar(mode format.CmpMode, golombPar, spill uint32) cmppar.CmpPar {
	return cmppar.CmpPar{
		Mode:               mode,
		ModelValue:         8,
		Round:              0,
		MaxUsedBitsVersion: 0,
		Fields: map[maxbits.Field]cmppar.FieldPar{
			maxbits.FieldImagette: {GolombPar: golombPar, Spill: spill},
		},
	}
}

func TestEncodeDecodeModelModeRoundTrip(t *testing.T) {
	// Model-mode encode/decode round-trips the original samples and
	// updates the model buffer identically on both sides.
	data := imagetteCol(1, []uint16{42, 23, 1, 13, 20, 1000})
	encModel := imagetteCol(1, []uint16{0, 22, 3, 42, 23, 16})
	decModel := imagetteCol(1, []uint16{0, 22, 3, 42, 23, 16})

	par := imagetteCmpPar(format.ModeModelZero, 16, 16)

	encoded, err := platocmp.Encode([]platocmp.Col{data}, platocmp.EncodeParams{
		Par: par, Target: cmppar.ICU, Model: []platocmp.Col{encModel},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := platocmp.Decode(encoded, platocmp.DecodeParams{
		Par: par, Target: cmppar.ICU, Model: []platocmp.Col{decModel},
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d collections, want 1", len(got))
	}

	if !bytes.Equal(got[0].Payload, data.Payload) {
		t.Errorf("payload round-trip: got %v, want %v", got[0].Payload, data.Payload)
	}

	if !bytes.Equal(encModel.Payload, decModel.Payload) {
		t.Errorf("model buffers diverged: encoder %v, decoder %v", encModel.Payload, decModel.Payload)
	}
}

func TestEncodeDecodeRawMode(t *testing.T) {
	// Raw mode copies the payload verbatim and sets RawFlag on the
	// entity header.
	data := imagetteCol(1, []uint16{7, 8, 9, 10})
	par := cmppar.CmpPar{Mode: format.ModeRaw}

	encoded, err := platocmp.Encode([]platocmp.Col{data}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	h, err := entity.Parse(encoded)
	if err != nil {
		t.Fatalf("entity.Parse: %v", err)
	}

	if !h.RawFlag {
		t.Error("RawFlag should be set for ModeRaw")
	}

	got, err := platocmp.Decode(encoded, platocmp.DecodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(got[0].Payload, data.Payload) {
		t.Errorf("payload round-trip: got %v, want %v", got[0].Payload, data.Payload)
	}
}

func TestEncodeDecodeMultiEscapeOutlier(t *testing.T) {
	// A sample far outside the spill threshold must round-trip through
	// the multi-escape outlier mechanism.
	data := imagetteCol(1, []uint16{10, 11, 12, 11, 2000})
	par := imagetteCmpPar(format.ModeDiffMulti, 4, 4)

	encoded, err := platocmp.Encode([]platocmp.Col{data}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := platocmp.Decode(encoded, platocmp.DecodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(got[0].Payload, data.Payload) {
		t.Errorf("payload round-trip: got %v, want %v", got[0].Payload, data.Payload)
	}
}

func TestEncodeDecodeZeroEscapeOutlier(t *testing.T) {
	// A sample well past the spill threshold must round-trip through
	// the zero-escape literal path.
	data := imagetteCol(1, []uint16{10, 11, 12, 11, 3000})
	par := imagetteCmpPar(format.ModeDiffZero, 4, 4)

	encoded, err := platocmp.Encode([]platocmp.Col{data}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := platocmp.Decode(encoded, platocmp.DecodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(got[0].Payload, data.Payload) {
		t.Errorf("payload round-trip: got %v, want %v", got[0].Payload, data.Payload)
	}
}

func offsetBackgroundCol(t *testing.T, subservice uint8, rawBytes int, n int) platocmp.Col {
	t.Helper()

	payload := make([]byte, n*rawBytes)
	for i := range payload {
		payload[i] = byte(i + 1)
	}

	h := collection.Header{
		Timestamp:   entity.EncodeTimestamp(entity.Epoch.Add(time.Hour)),
		ConfigID:    1,
		Subservice:  subservice,
		SequenceNum: 0,
		DataLength:  uint16(len(payload)), //nolint:gosec // test fixture
	}

	return platocmp.Col{Header: h, Payload: payload}
}

func TestEncodeDecodeHeterogeneousOffsetBackground(t *testing.T) {
	// An Offset+Background chunk is an allowed heterogeneous grouping,
	// stamped as the synthetic Chunk data type.
	offset := offsetBackgroundCol(t, 5, 2, 2)     // Offset: 2-byte mean + 4-byte variance per sample, use raw mode for simplicity
	background := offsetBackgroundCol(t, 6, 2, 2) // same shape check

	par := cmppar.CmpPar{Mode: format.ModeRaw}

	encoded, err := platocmp.Encode([]platocmp.Col{offset, background}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	h, err := entity.Parse(encoded)
	if err != nil {
		t.Fatalf("entity.Parse: %v", err)
	}

	if h.DataType != format.Chunk {
		t.Errorf("data type: got %v, want Chunk", h.DataType)
	}
}

func TestEncodeRejectsInconsistentSubserviceOrdering(t *testing.T) {
	smearing := offsetBackgroundCol(t, 7, 2, 2)
	offset := offsetBackgroundCol(t, 5, 2, 2)

	par := cmppar.CmpPar{Mode: format.ModeRaw}

	// Smearing followed by Offset matches neither allowed grouping.
	_, err := platocmp.Encode([]platocmp.Col{smearing, offset}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if !errors.Is(err, platocmp.ErrChunkSubserviceInconsistent) {
		t.Fatalf("got %v, want ErrChunkSubserviceInconsistent", err)
	}
}

func TestEncodeRejectsSpillTooLarge(t *testing.T) {
	// An out-of-range spill is rejected before any bytes are produced.
	data := imagetteCol(1, []uint16{1, 2, 3})
	par := imagetteCmpPar(format.ModeDiffZero, 16, 1<<20)

	out, err := platocmp.Encode([]platocmp.Col{data}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if !errors.Is(err, cmppar.ErrParSpecific) {
		t.Fatalf("got %v, want ErrParSpecific", err)
	}

	if out != nil {
		t.Error("no bytes should be written when parameter validation fails")
	}
}

func TestEncodeRejectsEmptyChunk(t *testing.T) {
	par := cmppar.CmpPar{Mode: format.ModeRaw}

	if _, err := platocmp.Encode(nil, platocmp.EncodeParams{Par: par, Target: cmppar.ICU}); !errors.Is(err, platocmp.ErrChunkNull) {
		t.Fatalf("got %v, want ErrChunkNull", err)
	}
}

func TestParseChunkRoundTrip(t *testing.T) {
	data := imagetteCol(1, []uint16{1, 2, 3})

	headerBytes, err := data.Header.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	raw := append(headerBytes, data.Payload...)

	cols, err := platocmp.ParseChunk(raw)
	if err != nil {
		t.Fatalf("ParseChunk: %v", err)
	}

	if len(cols) != 1 {
		t.Fatalf("got %d collections, want 1", len(cols))
	}

	if !bytes.Equal(cols[0].Payload, data.Payload) {
		t.Errorf("payload: got %v, want %v", cols[0].Payload, data.Payload)
	}
}

func TestWalkMatchesDecode(t *testing.T) {
	data := imagetteCol(1, []uint16{42, 23, 1, 13, 20, 1000})
	encModel := imagetteCol(1, []uint16{0, 22, 3, 42, 23, 16})
	walkModel := imagetteCol(1, []uint16{0, 22, 3, 42, 23, 16})

	par := imagetteCmpPar(format.ModeModelZero, 16, 16)

	encoded, err := platocmp.Encode([]platocmp.Col{data}, platocmp.EncodeParams{
		Par: par, Target: cmppar.ICU, Model: []platocmp.Col{encModel},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got []platocmp.Col

	err = platocmp.Walk(encoded, platocmp.DecodeParams{
		Par: par, Target: cmppar.ICU, Model: []platocmp.Col{walkModel},
	}, func(h collection.Header, payload []byte) bool {
		got = append(got, platocmp.Col{Header: h, Payload: payload})
		return true
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d collections, want 1", len(got))
	}

	if !bytes.Equal(got[0].Payload, data.Payload) {
		t.Errorf("payload round-trip: got %v, want %v", got[0].Payload, data.Payload)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	a := imagetteCol(1, []uint16{1, 2, 3})
	b := imagetteCol(1, []uint16{4, 5, 6})
	par := cmppar.CmpPar{Mode: format.ModeRaw}

	encoded, err := platocmp.Encode([]platocmp.Col{a, b}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	visited := 0

	err = platocmp.Walk(encoded, platocmp.DecodeParams{Par: par, Target: cmppar.ICU}, func(collection.Header, []byte) bool {
		visited++
		return false
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if visited != 1 {
		t.Fatalf("got %d collections visited, want 1 (yield returned false)", visited)
	}
}

func TestStatReportsPerCollectionSizes(t *testing.T) {
	a := imagetteCol(1, []uint16{1, 2, 3})
	b := imagetteCol(1, []uint16{4, 5, 6, 7})
	par := cmppar.CmpPar{Mode: format.ModeRaw}

	encoded, err := platocmp.Encode([]platocmp.Col{a, b}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	stats, err := platocmp.Stat(encoded)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}

	if stats[0].RawBytes != len(a.Payload) || stats[1].RawBytes != len(b.Payload) {
		t.Errorf("raw bytes: got %d,%d want %d,%d", stats[0].RawBytes, stats[1].RawBytes, len(a.Payload), len(b.Payload))
	}

	for i, s := range stats {
		if s.CompressedBytes != s.RawBytes {
			t.Errorf("collection %d: raw mode should report equal raw/compressed bytes, got %d/%d", i, s.RawBytes, s.CompressedBytes)
		}
	}
}

func TestChunkBoundCoversRawModeEncoding(t *testing.T) {
	a := imagetteCol(1, []uint16{1, 2, 3})
	b := imagetteCol(1, []uint16{4, 5, 6, 7, 8})
	par := cmppar.CmpPar{Mode: format.ModeRaw}

	encoded, err := platocmp.Encode([]platocmp.Col{a, b}, platocmp.EncodeParams{Par: par, Target: cmppar.ICU})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	chunkSize := 2*collection.Size + len(a.Payload) + len(b.Payload)
	bound := platocmp.ChunkBound(chunkSize, 2) + entity.GenericTailSize

	if len(encoded) > bound {
		t.Errorf("encoded size %d exceeds ChunkBound(%d, 2)+tail margin %d", len(encoded), chunkSize, bound)
	}
}
