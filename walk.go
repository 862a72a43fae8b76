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

package platocmp

import (
	"encoding/binary"
	"fmt"

	"github.com/heliotrope/platocmp/collection"
	"github.com/heliotrope/platocmp/entity"
)

// Walk streams a compressed entity's collections one at a time,
// decoding each payload exactly as Decode would but without
// materializing the whole result slice up front, one collection per
// call. yield is called once per
// collection in wire order; returning false from yield stops the walk
// early without error. Decode is built on top of Walk.
func Walk(data []byte, params DecodeParams, yield func(collection.Header, []byte) bool) error {
	if len(data) == 0 {
		return ErrEntityNull
	}

	h, err := entity.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEntityHeader, err)
	}

	if int(h.CmpEntSize) > len(data) {
		return fmt.Errorf("%w: cmp_ent_size %d exceeds buffer length %d", ErrEntityTooSmall, h.CmpEntSize, len(data))
	}

	registry := params.registry()
	if err := params.Par.Validate(params.Target, registry); err != nil {
		return err
	}

	body := data[h.Size():h.CmpEntSize]
	i := 0

	for len(body) > 0 {
		colHeader, compressed, rest, err := nextBlock(body)
		if err != nil {
			return err
		}

		body = rest

		var modelCol *Col
		if params.Model != nil && i < len(params.Model) {
			modelCol = &params.Model[i]
		}

		payload, err := decodeCollectionPayload(colHeader, compressed, modelCol, h.RawFlag, params.Par, registry)
		if err != nil {
			return err
		}

		if !yield(colHeader, payload) {
			return nil
		}

		i++
	}

	return nil
}

// nextBlock splits the header, 2-byte length prefix, and compressed
// payload of the next collection block off the front of body,
// returning the remaining bytes.
func nextBlock(body []byte) (collection.Header, []byte, []byte, error) {
	if len(body) < collection.Size+lengthPrefixSize {
		return collection.Header{}, nil, nil, fmt.Errorf("%w: trailing %d bytes short of a block", ErrChunkSizeInconsistent, len(body))
	}

	colHeader, err := collection.Parse(body[:collection.Size])
	if err != nil {
		return collection.Header{}, nil, nil, fmt.Errorf("%w: %w", ErrColSizeInconsistent, err)
	}

	body = body[collection.Size:]

	compLen := binary.BigEndian.Uint16(body[:lengthPrefixSize])
	body = body[lengthPrefixSize:]

	if len(body) < int(compLen) {
		return collection.Header{}, nil, nil, fmt.Errorf("%w: compressed length %d exceeds remaining body", ErrIntCmpColTooLarge, compLen)
	}

	return colHeader, body[:compLen], body[compLen:], nil
}

// CollectionStat reports one collection's raw and compressed byte
// footprint, for telemetry-budget reporting, derived from
// already-parsed structure rather than by re-running the decoder.
type CollectionStat struct {
	Header          collection.Header
	RawBytes        int
	CompressedBytes int
}

// Stat reports per-collection byte footprints from an already-encoded
// entity buffer without decoding any payload.
func Stat(data []byte) ([]CollectionStat, error) {
	if len(data) == 0 {
		return nil, ErrEntityNull
	}

	h, err := entity.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntityHeader, err)
	}

	if int(h.CmpEntSize) > len(data) {
		return nil, fmt.Errorf("%w: cmp_ent_size %d exceeds buffer length %d", ErrEntityTooSmall, h.CmpEntSize, len(data))
	}

	body := data[h.Size():h.CmpEntSize]

	var stats []CollectionStat

	for len(body) > 0 {
		colHeader, compressed, rest, err := nextBlock(body)
		if err != nil {
			return nil, err
		}

		body = rest

		stats = append(stats, CollectionStat{
			Header:          colHeader,
			RawBytes:        int(colHeader.DataLength),
			CompressedBytes: len(compressed),
		})
	}

	return stats, nil
}
