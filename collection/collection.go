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

// Package collection implements the 12-byte collection header (spec
// component F): accessors for its packed 48-bit timestamp and 16-bit
// collection-id bitfield, and the subservice invariants that gate
// which bytes the chunk driver will accept. Grounded, like package
// entity, on arloliu/mebo/section/numeric_header.go's fixed-size
// Parse/Bytes header convention, here generalized to a header small
// enough that most of its fields are sub-byte bitfields rather than
// whole bytes.
package collection

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/heliotrope/platocmp/internal/datatype"
)

// Size is the fixed wire size of a collection header.
const Size = 12

// ErrHeader marks a malformed collection header: wrong length, or a
// bitfield subcomponent out of range.
var ErrHeader = errors.New("collection: malformed header")

// Header is the 12-byte per-collection header.
type Header struct {
	Timestamp    uint64 // 48-bit
	ConfigID     uint16
	PktType      uint8 // 1-bit: 0..1
	Subservice   uint8 // 6-bit: 0..63
	CCDID        uint8 // 2-bit: 0..3
	SequenceNum  uint8 // 7-bit: 0..127
	DataLength   uint16
}

// Validate checks h's bitfield subcomponents against their wire
// widths: pkt_type <= 1, subservice <= 63, ccd_id <= 3,
// sequence_num <= 127.
func (h Header) Validate() error {
	if h.PktType > 1 {
		return fmt.Errorf("%w: pkt_type %d exceeds 1", ErrHeader, h.PktType)
	}

	if h.Subservice > 63 {
		return fmt.Errorf("%w: subservice %d exceeds 63", ErrHeader, h.Subservice)
	}

	if h.CCDID > 3 {
		return fmt.Errorf("%w: ccd_id %d exceeds 3", ErrHeader, h.CCDID)
	}

	if h.SequenceNum > 127 {
		return fmt.Errorf("%w: sequence_num %d exceeds 127", ErrHeader, h.SequenceNum)
	}

	if h.Timestamp > 1<<48-1 {
		return fmt.Errorf("%w: timestamp exceeds 48 bits", ErrHeader)
	}

	return nil
}

// DataType resolves h's subservice to its CmpDataType via the fixed
// subservice table and returns that type's schema.
func (h Header) DataType() (datatype.Schema, error) {
	t, err := datatype.DataTypeForSubservice(h.Subservice)
	if err != nil {
		return datatype.Schema{}, err
	}

	return datatype.SchemaFor(t)
}

// collectionID packs h's four bitfields into the 16-bit collection-id
// word: bit 15 pkt_type, bits 14..9 subservice, bits 8..7 ccd_id, bits
// 6..0 sequence_num.
func (h Header) collectionID() uint16 {
	return uint16(h.PktType)<<15 | uint16(h.Subservice)<<9 | uint16(h.CCDID)<<7 | uint16(h.SequenceNum)
}

func unpackCollectionID(word uint16) (pktType, subservice, ccdID, sequenceNum uint8) {
	pktType = uint8(word >> 15 & 0x1)
	subservice = uint8(word >> 9 & 0x3F)
	ccdID = uint8(word >> 7 & 0x3)
	sequenceNum = uint8(word & 0x7F)

	return pktType, subservice, ccdID, sequenceNum
}

// Bytes serializes h into a freshly-allocated 12-byte big-endian
// buffer.
func (h Header) Bytes() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, Size)

	put48(buf[0:6], h.Timestamp)
	binary.BigEndian.PutUint16(buf[6:8], h.ConfigID)
	binary.BigEndian.PutUint16(buf[8:10], h.collectionID())
	binary.BigEndian.PutUint16(buf[10:12], h.DataLength)

	return buf, nil
}

// Parse decodes a Header from data[:Size].
func Parse(data []byte) (Header, error) {
	if len(data) < Size {
		return Header{}, fmt.Errorf("%w: buffer shorter than %d bytes", ErrHeader, Size)
	}

	var h Header

	h.Timestamp = get48(data[0:6])
	h.ConfigID = binary.BigEndian.Uint16(data[6:8])

	word := binary.BigEndian.Uint16(data[8:10])
	h.PktType, h.Subservice, h.CCDID, h.SequenceNum = unpackCollectionID(word)

	h.DataLength = binary.BigEndian.Uint16(data[10:12])

	if err := h.Validate(); err != nil {
		return Header{}, err
	}

	return h, nil
}

func put48(dst []byte, v uint64) {
	dst[0] = byte(v >> 40)
	dst[1] = byte(v >> 32)
	dst[2] = byte(v >> 24)
	dst[3] = byte(v >> 16)
	dst[4] = byte(v >> 8)
	dst[5] = byte(v)
}

func get48(src []byte) uint64 {
	return uint64(src[0])<<40 | uint64(src[1])<<32 | uint64(src[2])<<24 |
		uint64(src[3])<<16 | uint64(src[4])<<8 | uint64(src[5])
}
