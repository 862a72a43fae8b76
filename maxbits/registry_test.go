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

package maxbits_test

import (
	"errors"
	"testing"

	"github.com/heliotrope/platocmp/maxbits"
)

func TestBuiltinVersionsHaveImagette(t *testing.T) {
	r := maxbits.NewRegistry()

	for _, v := range []uint8{0, 1} {
		w, err := r.Width(v, maxbits.FieldImagette)
		if err != nil {
			t.Fatalf("version %d: %v", v, err)
		}

		if w != 16 {
			t.Errorf("version %d: imagette width got %d, want 16", v, w)
		}
	}
}

func TestUnknownVersion(t *testing.T) {
	r := maxbits.NewRegistry()

	if _, err := r.Width(42, maxbits.FieldImagette); !errors.Is(err, maxbits.ErrUnknownVersion) {
		t.Fatalf("got %v, want ErrUnknownVersion", err)
	}
}

func TestUnknownField(t *testing.T) {
	r := maxbits.NewRegistry()

	if _, err := r.Width(0, maxbits.Field("bogus")); !errors.Is(err, maxbits.ErrUnknownField) {
		t.Fatalf("got %v, want ErrUnknownField", err)
	}
}

func TestRegisterReadOnlyVersions(t *testing.T) {
	r := maxbits.NewRegistry()

	for _, v := range []uint8{0, 1} {
		err := r.Register(v, map[maxbits.Field]uint8{maxbits.FieldImagette: 10})
		if !errors.Is(err, maxbits.ErrVersionReadOnly) {
			t.Errorf("version %d: got %v, want ErrVersionReadOnly", v, err)
		}
	}
}

func TestRegisterRejectsInvalidWidth(t *testing.T) {
	r := maxbits.NewRegistry()

	err := r.Register(2, map[maxbits.Field]uint8{maxbits.FieldImagette: 33})
	if !errors.Is(err, maxbits.ErrInvalidWidth) {
		t.Fatalf("got %v, want ErrInvalidWidth", err)
	}

	if r.HasVersion(2) {
		t.Error("a failed Register must not leave a partial version registered")
	}
}

func TestRegisterNewVersion(t *testing.T) {
	r := maxbits.NewRegistry()

	err := r.Register(2, map[maxbits.Field]uint8{maxbits.FieldImagette: 12})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	w, err := r.Width(2, maxbits.FieldImagette)
	if err != nil {
		t.Fatalf("Width: %v", err)
	}

	if w != 12 {
		t.Errorf("got %d, want 12", w)
	}
}

func TestRegisterCopiesInputMap(t *testing.T) {
	r := maxbits.NewRegistry()

	widths := map[maxbits.Field]uint8{maxbits.FieldImagette: 12}
	if err := r.Register(2, widths); err != nil {
		t.Fatal(err)
	}

	widths[maxbits.FieldImagette] = 99

	w, err := r.Width(2, maxbits.FieldImagette)
	if err != nil {
		t.Fatal(err)
	}

	if w != 12 {
		t.Errorf("Register should snapshot its input map: got %d, want 12", w)
	}
}
