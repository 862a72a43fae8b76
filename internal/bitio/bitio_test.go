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

package bitio_test

import (
	"errors"
	"testing"

	"github.com/heliotrope/platocmp/internal/bitio"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []uint32
		widths []int
	}{
		{"single byte", []uint32{0xAB}, []int{8}},
		{"mixed widths", []uint32{1, 0, 7, 1023, 0xFFFFFFFF}, []int{1, 1, 3, 10, 32}},
		{"straddles byte boundary", []uint32{5, 5, 5, 5, 5}, []int{3, 3, 3, 3, 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			totalBits := 0
			for _, w := range tc.widths {
				totalBits += w
			}

			buf := make([]byte, (totalBits+7)/8)
			w := bitio.NewWriter(buf)

			for i, v := range tc.values {
				if err := w.PutBits(v, tc.widths[i]); err != nil {
					t.Fatalf("PutBits(%d): %v", i, err)
				}
			}

			r := bitio.NewReader(buf)

			for i, want := range tc.values {
				mask := uint32(1)<<uint(tc.widths[i]) - 1
				if tc.widths[i] == 32 {
					mask = 0xFFFFFFFF
				}

				got, err := r.GetBits(tc.widths[i])
				if err != nil {
					t.Fatalf("GetBits(%d): %v", i, err)
				}

				if got != want&mask {
					t.Errorf("value %d: got %#x, want %#x", i, got, want&mask)
				}
			}
		})
	}
}

func TestPutBitsSmallBuf(t *testing.T) {
	buf := make([]byte, 1)
	w := bitio.NewWriter(buf)

	if err := w.PutBits(0xFF, 8); err != nil {
		t.Fatalf("first write: %v", err)
	}

	before := w.BitPos()

	err := w.PutBits(1, 1)
	if !errors.Is(err, bitio.ErrSmallBuf) {
		t.Fatalf("got %v, want ErrSmallBuf", err)
	}

	if w.BitPos() != before {
		t.Errorf("bit position moved on a failed write: got %d, want %d", w.BitPos(), before)
	}
}

func TestGetBitsOverrun(t *testing.T) {
	buf := []byte{0xFF}
	r := bitio.NewReader(buf)

	if _, err := r.GetBits(8); err != nil {
		t.Fatalf("first read: %v", err)
	}

	if _, err := r.GetBits(1); !errors.Is(err, bitio.ErrOverrun) {
		t.Fatalf("got %v, want ErrOverrun", err)
	}
}

func TestPadToByte(t *testing.T) {
	buf := make([]byte, 2)
	w := bitio.NewWriter(buf)

	if err := w.PutBits(0b101, 3); err != nil {
		t.Fatal(err)
	}

	if err := w.PadToByte(); err != nil {
		t.Fatal(err)
	}

	if w.BitPos() != 8 {
		t.Errorf("BitPos after pad: got %d, want 8", w.BitPos())
	}

	if buf[0] != 0b10100000 {
		t.Errorf("padded byte: got %08b, want %08b", buf[0], 0b10100000)
	}
}
