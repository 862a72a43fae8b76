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
	"fmt"

	"github.com/heliotrope/platocmp/cmppar"
	"github.com/heliotrope/platocmp/collection"
	"github.com/heliotrope/platocmp/internal/bitio"
	"github.com/heliotrope/platocmp/internal/datatype"
	"github.com/heliotrope/platocmp/maxbits"
)

// DecodeParams mirrors EncodeParams for the decode path: the
// configuration the data was encoded under, and the model chunk to
// read from and update for Model* modes.
type DecodeParams struct {
	Par      cmppar.CmpPar
	Target   cmppar.Target
	Registry *maxbits.Registry
	Model    []Col
}

func (p DecodeParams) registry() *maxbits.Registry {
	if p.Registry != nil {
		return p.Registry
	}

	return maxbits.Default
}

// Decode is Encode's inverse: it parses an entity header, walks its
// compressed body one collection at a time via Walk, and returns the
// reconstructed collections with big-endian raw payload bytes
// identical to what Encode was given.
func Decode(data []byte, params DecodeParams) ([]Col, error) {
	cols := make([]Col, 0)

	err := Walk(data, params, func(h collection.Header, payload []byte) bool {
		cols = append(cols, Col{Header: h, Payload: payload})
		return true
	})
	if err != nil {
		return nil, err
	}

	return cols, nil
}

func decodeCollectionPayload(
	h collection.Header, compressed []byte, model *Col, raw bool, par cmppar.CmpPar, registry *maxbits.Registry,
) ([]byte, error) {
	subDT, err := datatype.DataTypeForSubservice(h.Subservice)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColSubserviceUnsupported, err)
	}

	schema, err := datatype.SchemaFor(subDT)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColSubserviceUnsupported, err)
	}

	n := schema.SampleSize()
	if n == 0 {
		return nil, fmt.Errorf("%w: data type %s has no sample layout", ErrIntDataTypeUnsupported, subDT)
	}

	if raw {
		if int(h.DataLength)%n != 0 {
			return nil, fmt.Errorf("%w: data_length not a multiple of the %d-byte sample size", ErrColSizeInconsistent, n)
		}

		return compressed, nil
	}

	count := int(h.DataLength) / n
	if count*n != int(h.DataLength) {
		return nil, fmt.Errorf("%w: data_length not a multiple of the %d-byte sample size", ErrColSizeInconsistent, n)
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

	r := bitio.NewReader(compressed)

	data, err := datatype.DecodeSchema(r, schema, count, modelValues, par.Mode, par, registry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntDecoder, err)
	}

	if par.Mode.IsModel() {
		writeFieldValues(schema, model.Payload, modelValues)
	}

	payload := make([]byte, 0, int(h.DataLength))
	for _, sf := range schema.Fields {
		payload = append(payload, datatype.WriteColumn(data[sf.Key], sf.RawBytes)...)
	}

	return payload, nil
}
