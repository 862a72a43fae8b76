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

// Package entity implements the compression-entity header (spec
// component G): the 32-byte generic header plus its three
// variant-specific tails. The Parse/Bytes pair, and packing/unpacking
// the 24-bit and 48-bit fields by hand into a byte slice rather than
// casting a struct over memory, are grounded on
// arloliu/mebo/section/numeric_header.go's NumericHeader.Parse/Bytes,
// generalized from mebo's all-power-of-two field widths to this
// header's 24-bit and 48-bit packed fields.
package entity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/heliotrope/platocmp/format"
)

// GenericSize is the fixed size of the generic entity header, before
// any variant-specific tail.
const GenericSize = 32

// Tail sizes per variant family.
const (
	ImagetteTailSize = 4
	AdaptiveTailSize = 12
	GenericTailSize  = 32 // non-imagette: up to 8 (golomb_par, spill) slots
)

// maxGenericFields is the number of (golomb_par, spill) slots the
// non-imagette tail carries: the widest schema, {Fx,Efx,Ncob,Ecob}
// flux family, has exactly 8 fields, so GenericTailSize/4 == 8 is not a
// coincidence the tail was sized to fit it exactly.
const maxGenericFields = GenericTailSize / 4

// Epoch is the PLATO epoch. EncodeTimestamp clamps a time before it to
// timestamp 0; it does not reject it.
//
//nolint:gochecknoglobals
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	// ErrHeader marks a malformed generic or variant header: wrong
	// length, a size field that doesn't fit its 24-bit or 48-bit width,
	// or a tail that doesn't match the declared data type.
	ErrHeader = errors.New("entity: malformed header")
	// ErrTimestamp marks a timestamp earlier than Epoch.
	ErrTimestamp = errors.New("entity: timestamp precedes PLATO epoch")
)

const (
	max24 = 1<<24 - 1
	max48 = 1<<48 - 1
)

// Pair is one field's Golomb parameter and spill threshold, as carried
// in a variant tail.
type Pair struct {
	GolombPar uint16
	Spill     uint16
}

// Header is the generic 32-byte entity header plus its variant tail.
// Exactly one of ImagettePar, AdaptivePar, or GenericPars is populated,
// selected by DataType.IsImagette()/IsAdaptive().
type Header struct {
	VersionID          uint32
	CmpEntSize         uint32 // 24-bit on the wire
	OriginalSize       uint32 // 24-bit on the wire
	StartTimestamp     uint64 // 48-bit on the wire
	EndTimestamp       uint64 // 48-bit on the wire
	RawFlag            bool
	DataType           format.CmpDataType
	CmpModeUsed        uint8
	ModelValueUsed     uint8
	MaxUsedBitsVersion uint8
	LossyCmpParUsed    uint16
	ModelID            uint16

	ImagettePar Pair    // imagette family
	AdaptivePar [2]Pair // adaptive-imagette family (ap1, ap2)
	AdaptiveN   uint32  // sample count carried alongside AdaptivePar
	GenericPars []Pair  // non-imagette family, up to maxGenericFields entries
}

// TailSize returns the wire size of h's variant tail, chosen by its
// DataType.
func (h Header) TailSize() int {
	switch {
	case h.DataType.IsImagette() && !h.DataType.IsAdaptive():
		return ImagetteTailSize
	case h.DataType.IsAdaptive():
		return AdaptiveTailSize
	default:
		return GenericTailSize
	}
}

// Size returns h's total wire size: GenericSize plus its tail, rounded
// up to a multiple of 4 bytes at write time; a read takes the size
// as-is.
func (h Header) Size() int {
	n := GenericSize + h.TailSize()

	return roundUp4(n)
}

func roundUp4(n int) int {
	return RoundUp4(n)
}

// RoundUp4 rounds n up to the next multiple of 4, the padding every
// entity body and variant tail is stored at.
func RoundUp4(n int) int {
	return (n + 3) &^ 3
}

// ValidateTimestamps rejects any timestamp before Epoch and any value
// exceeding the 48-bit wire width.
func (h Header) ValidateTimestamps() error {
	if h.StartTimestamp > max48 || h.EndTimestamp > max48 {
		return fmt.Errorf("%w: timestamp exceeds 48 bits", ErrHeader)
	}

	epoch := EncodeTimestamp(Epoch)
	if h.StartTimestamp < epoch || h.EndTimestamp < epoch {
		return ErrTimestamp
	}

	return nil
}

// EncodeTimestamp converts a UTC wall-clock time to the 48-bit PLATO
// timestamp: coarse seconds since Epoch in the upper 32 bits, a
// always-zero 16-bit fine field in the lower 16 (sub-second resolution
// is a caller concern the timestamp provider, not this encoding, owns).
func EncodeTimestamp(t time.Time) uint64 {
	coarse := t.UTC().Unix() - Epoch.Unix()
	if coarse < 0 {
		coarse = 0
	}

	return uint64(coarse) << 16 //nolint:gosec // coarse is a seconds-since-2020 delta, well within 32 bits
}

// DecodeTimestamp converts a 48-bit PLATO timestamp back to a UTC
// time.Time, dropping the fine field.
func DecodeTimestamp(ts uint64) time.Time {
	coarse := int64(ts >> 16) //nolint:gosec // coarse delta fits an int64 trivially
	return Epoch.Add(time.Duration(coarse) * time.Second)
}

// Bytes serializes h into a freshly-allocated, zero-padded big-endian
// buffer of h.Size() bytes.
func (h Header) Bytes() ([]byte, error) {
	if h.CmpEntSize > max24 || h.OriginalSize > max24 {
		return nil, fmt.Errorf("%w: size field exceeds 24 bits", ErrHeader)
	}

	if err := h.ValidateTimestamps(); err != nil {
		return nil, err
	}

	buf := make([]byte, h.Size())

	binary.BigEndian.PutUint32(buf[0:4], h.VersionID)
	put24(buf[4:7], h.CmpEntSize)
	put24(buf[7:10], h.OriginalSize)
	put48(buf[10:16], h.StartTimestamp)
	put48(buf[16:22], h.EndTimestamp)

	dt := uint16(h.DataType) //nolint:gosec // CmpDataType is a 23-value enum, well within 15 bits
	if h.RawFlag {
		dt |= 1 << 15
	}

	binary.BigEndian.PutUint16(buf[22:24], dt)

	buf[24] = h.CmpModeUsed
	buf[25] = h.ModelValueUsed
	buf[26] = h.MaxUsedBitsVersion
	buf[27] = 0 // reserved, zero per §4.7

	binary.BigEndian.PutUint16(buf[28:30], h.LossyCmpParUsed)
	binary.BigEndian.PutUint16(buf[30:32], h.ModelID)

	if err := h.writeTail(buf[GenericSize:]); err != nil {
		return nil, err
	}

	return buf, nil
}

func (h Header) writeTail(tail []byte) error {
	switch {
	case h.DataType.IsImagette() && !h.DataType.IsAdaptive():
		putPair(tail[0:4], h.ImagettePar)

		return nil
	case h.DataType.IsAdaptive():
		putPair(tail[0:4], h.AdaptivePar[0])
		putPair(tail[4:8], h.AdaptivePar[1])
		binary.BigEndian.PutUint32(tail[8:12], h.AdaptiveN)

		return nil
	default:
		if len(h.GenericPars) > maxGenericFields {
			return fmt.Errorf("%w: %d field pairs exceeds the %d-slot tail", ErrHeader, len(h.GenericPars), maxGenericFields)
		}

		for i, p := range h.GenericPars {
			putPair(tail[i*4:i*4+4], p)
		}

		return nil
	}
}

func putPair(dst []byte, p Pair) {
	binary.BigEndian.PutUint16(dst[0:2], p.GolombPar)
	binary.BigEndian.PutUint16(dst[2:4], p.Spill)
}

func getPair(src []byte) Pair {
	return Pair{
		GolombPar: binary.BigEndian.Uint16(src[0:2]),
		Spill:     binary.BigEndian.Uint16(src[2:4]),
	}
}

func put24(dst []byte, v uint32) {
	dst[0] = byte(v >> 16)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v)
}

func get24(src []byte) uint32 {
	return uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2])
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

// Parse decodes the generic header from data[:GenericSize], then its
// variant tail from data[GenericSize:], dispatching on the decoded
// DataType/RawFlag. data must be at least GenericSize+4 bytes (the
// narrowest tail); a longer buffer is accepted and only its head
// consumed.
func Parse(data []byte) (Header, error) {
	if len(data) < GenericSize+ImagetteTailSize {
		return Header{}, fmt.Errorf("%w: buffer shorter than the narrowest header", ErrHeader)
	}

	var h Header

	h.VersionID = binary.BigEndian.Uint32(data[0:4])
	h.CmpEntSize = get24(data[4:7])
	h.OriginalSize = get24(data[7:10])
	h.StartTimestamp = get48(data[10:16])
	h.EndTimestamp = get48(data[16:22])

	dt := binary.BigEndian.Uint16(data[22:24])
	h.RawFlag = dt&(1<<15) != 0
	h.DataType = format.CmpDataType(dt &^ (1 << 15))

	h.CmpModeUsed = data[24]
	h.ModelValueUsed = data[25]
	h.MaxUsedBitsVersion = data[26]
	// data[27] reserved, ignored on read
	h.LossyCmpParUsed = binary.BigEndian.Uint16(data[28:30])
	h.ModelID = binary.BigEndian.Uint16(data[30:32])

	tailSize := h.TailSize()
	if len(data) < GenericSize+tailSize {
		return Header{}, fmt.Errorf("%w: buffer shorter than its variant's tail", ErrHeader)
	}

	if err := h.readTail(data[GenericSize : GenericSize+tailSize]); err != nil {
		return Header{}, err
	}

	if err := h.ValidateTimestamps(); err != nil {
		return Header{}, err
	}

	return h, nil
}

func (h *Header) readTail(tail []byte) error {
	switch {
	case h.DataType.IsImagette() && !h.DataType.IsAdaptive():
		h.ImagettePar = getPair(tail[0:4])

		return nil
	case h.DataType.IsAdaptive():
		h.AdaptivePar[0] = getPair(tail[0:4])
		h.AdaptivePar[1] = getPair(tail[4:8])
		h.AdaptiveN = binary.BigEndian.Uint32(tail[8:12])

		return nil
	default:
		h.GenericPars = make([]Pair, 0, maxGenericFields)
		for i := 0; i < maxGenericFields; i++ {
			p := getPair(tail[i*4 : i*4+4])
			if p.GolombPar == 0 && p.Spill == 0 {
				continue // unused slot, zero-padded
			}

			h.GenericPars = append(h.GenericPars, p)
		}

		return nil
	}
}

// PatchModelID overwrites the model_id field of an already-built
// entity in place, without touching any other byte: a cheap post-patch
// that does not re-run the encoder.
func PatchModelID(dst []byte, modelID uint16) error {
	if len(dst) < GenericSize {
		return fmt.Errorf("%w: buffer shorter than the generic header", ErrHeader)
	}

	binary.BigEndian.PutUint16(dst[30:32], modelID)

	return nil
}

// PatchCmpEntSize overwrites the cmp_ent_size field of an already-built
// entity in place, for callers that learn the final compressed size
// only after the fact (e.g. a hardware compression run).
func PatchCmpEntSize(dst []byte, size uint32) error {
	if len(dst) < GenericSize {
		return fmt.Errorf("%w: buffer shorter than the generic header", ErrHeader)
	}

	if size > max24 {
		return fmt.Errorf("%w: size field exceeds 24 bits", ErrHeader)
	}

	put24(dst[4:7], size)

	return nil
}

// PatchImagettePar overwrites the (golomb_par, spill) pair in an
// already-built imagette-family entity's tail in place. Callers must
// only use this on an entity whose DataType is an imagette variant;
// it does not check the tail it's about to overwrite belongs to one.
func PatchImagettePar(dst []byte, p Pair) error {
	if len(dst) < GenericSize+ImagetteTailSize {
		return fmt.Errorf("%w: buffer shorter than an imagette header", ErrHeader)
	}

	putPair(dst[GenericSize:GenericSize+ImagetteTailSize], p)

	return nil
}
