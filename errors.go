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
	"errors"

	"github.com/heliotrope/platocmp/cmppar"
)

// Code is the stable error taxonomy, mirrored from the
// original C ABI's negative-enum-tag convention so callers that need
// the numeric code (for parity logging, say) can get one, while Go
// callers use errors.Is/errors.As against the sentinels below, each
// wrapped with fmt.Errorf("%w: ...") at the package boundary.
type Code int32

// Error kinds. Generic is used only when no narrower kind applies.
const (
	CodeOK Code = iota
	CodeGeneric
	CodeSmallBuf
	CodeDataValueTooLarge
	CodeParGeneric
	CodeParSpecific
	CodeParBuffers
	CodeParNull
	CodeParNoModel
	CodeChunkNull
	CodeChunkTooLarge
	CodeChunkTooSmall
	CodeChunkSizeInconsistent
	CodeChunkSubserviceInconsistent
	CodeColSubserviceUnsupported
	CodeColSizeInconsistent
	CodeEntityNull
	CodeEntityTooSmall
	CodeEntityHeader
	CodeEntityTimestamp
	CodeIntDecoder
	CodeIntDataTypeUnsupported
	CodeIntCmpColTooLarge

	codeMax
)

//nolint:gochecknoglobals
var codeNames = [...]string{
	CodeOK:                          "OK",
	CodeGeneric:                     "GENERIC",
	CodeSmallBuf:                    "SMALL_BUF",
	CodeDataValueTooLarge:           "DATA_VALUE_TOO_LARGE",
	CodeParGeneric:                  "PAR_GENERIC",
	CodeParSpecific:                 "PAR_SPECIFIC",
	CodeParBuffers:                  "PAR_BUFFERS",
	CodeParNull:                     "PAR_NULL",
	CodeParNoModel:                  "PAR_NO_MODEL",
	CodeChunkNull:                   "CHUNK_NULL",
	CodeChunkTooLarge:               "CHUNK_TOO_LARGE",
	CodeChunkTooSmall:               "CHUNK_TOO_SMALL",
	CodeChunkSizeInconsistent:       "CHUNK_SIZE_INCONSISTENT",
	CodeChunkSubserviceInconsistent: "CHUNK_SUBSERVICE_INCONSISTENT",
	CodeColSubserviceUnsupported:    "COL_SUBSERVICE_UNSUPPORTED",
	CodeColSizeInconsistent:         "COL_SIZE_INCONSISTENT",
	CodeEntityNull:                  "ENTITY_NULL",
	CodeEntityTooSmall:              "ENTITY_TOO_SMALL",
	CodeEntityHeader:                "ENTITY_HEADER",
	CodeEntityTimestamp:             "ENTITY_TIMESTAMP",
	CodeIntDecoder:                  "INT_DECODER",
	CodeIntDataTypeUnsupported:      "INT_DATA_TYPE_UNSUPPORTED",
	CodeIntCmpColTooLarge:           "INT_CMP_COL_TOO_LARGE",
}

// ErrMaxCode is the largest valid Code value; a uint32 result greater
// than ErrMaxCode signals an error, and the negated value is the enum
// tag.
const ErrMaxCode = Code(codeMax - 1)

// String returns the stable name for c, or a stripped-build placeholder
// for an out-of-range value.
func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return "UNKNOWN_ERROR"
	}

	return codeNames[c]
}

// Public sentinel errors, one per Code, for errors.Is matching. Each
// package-internal sentinel (bitio.ErrSmallBuf, golomb.ErrUnaryOverflow,
// field.ErrDataValueTooLarge, entity's header errors, ...) is wrapped
// into one of these via fmt.Errorf("%w: %w", ...) at the package
// boundary, following decoder.go's ErrDecode/ErrConfig wrapping.
var (
	ErrGeneric                     = errors.New("platocmp: generic failure")
	ErrSmallBuf                    = errors.New("platocmp: destination buffer exhausted")
	ErrDataValueTooLarge           = errors.New("platocmp: sample exceeds max-used-bits width")
	ErrParBuffers                  = errors.New("platocmp: null, overlapping, misaligned, or out-of-range buffer")
	ErrParNull                     = errors.New("platocmp: configuration missing")
	ErrParNoModel                  = errors.New("platocmp: model mode requested without a model buffer")
	ErrChunkNull                   = errors.New("platocmp: chunk pointer/size missing")
	ErrChunkTooLarge               = errors.New("platocmp: chunk exceeds the 24-bit original_size limit")
	ErrChunkTooSmall               = errors.New("platocmp: chunk smaller than one collection header")
	ErrChunkSizeInconsistent       = errors.New("platocmp: chunk size does not match its collection headers")
	ErrChunkSubserviceInconsistent = errors.New("platocmp: chunk mixes subservices outside an allowed grouping")
	ErrColSubserviceUnsupported    = errors.New("platocmp: collection subservice has no known data type")
	ErrColSizeInconsistent         = errors.New("platocmp: collection data length does not match its payload")
	ErrEntityNull                  = errors.New("platocmp: entity buffer missing")
	ErrEntityTooSmall              = errors.New("platocmp: entity buffer smaller than its header")
	ErrEntityHeader                = errors.New("platocmp: malformed entity header")
	ErrEntityTimestamp             = errors.New("platocmp: timestamp precedes the PLATO epoch")
	ErrIntDecoder                  = errors.New("platocmp: internal decoder invariant violated")
	ErrIntDataTypeUnsupported      = errors.New("platocmp: internal: data type not implemented")
	ErrIntCmpColTooLarge           = errors.New("platocmp: internal: compressed collection exceeds its length field")
)

// codeForErr maps each sentinel to its Code, for CodeOf.
//
//nolint:gochecknoglobals
var codeForErr = map[error]Code{
	ErrGeneric:                     CodeGeneric,
	ErrSmallBuf:                    CodeSmallBuf,
	ErrDataValueTooLarge:           CodeDataValueTooLarge,
	cmppar.ErrParGeneric:           CodeParGeneric,
	cmppar.ErrParSpecific:          CodeParSpecific,
	ErrParBuffers:                  CodeParBuffers,
	ErrParNull:                     CodeParNull,
	ErrParNoModel:                  CodeParNoModel,
	ErrChunkNull:                   CodeChunkNull,
	ErrChunkTooLarge:               CodeChunkTooLarge,
	ErrChunkTooSmall:               CodeChunkTooSmall,
	ErrChunkSizeInconsistent:       CodeChunkSizeInconsistent,
	ErrChunkSubserviceInconsistent: CodeChunkSubserviceInconsistent,
	ErrColSubserviceUnsupported:    CodeColSubserviceUnsupported,
	ErrColSizeInconsistent:         CodeColSizeInconsistent,
	ErrEntityNull:                  CodeEntityNull,
	ErrEntityTooSmall:              CodeEntityTooSmall,
	ErrEntityHeader:                CodeEntityHeader,
	ErrEntityTimestamp:             CodeEntityTimestamp,
	ErrIntDecoder:                  CodeIntDecoder,
	ErrIntDataTypeUnsupported:      CodeIntDataTypeUnsupported,
	ErrIntCmpColTooLarge:           CodeIntCmpColTooLarge,
}

// CodeOf walks err's chain (via errors.Is) against the taxonomy above
// and returns the most specific matching Code, or CodeGeneric if err
// does not match any sentinel here.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}

	for sentinel, code := range codeForErr {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeGeneric
}
