package packsize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		size *float64
		name string
		in   string
		unit string
		cfg  string
	}{
		{name: "plain size and unit", in: "500g", size: fptr(500), unit: "g"},
		{name: "decimal size", in: "1.5l", size: fptr(1.5), unit: "l"},
		{name: "size unit times count", in: "250ml x 2", size: fptr(250), unit: "ml", cfg: "2"},
		{name: "size unit times count with word", in: "250ml x 2 bottles", size: fptr(250), unit: "ml", cfg: "2 bottles"},
		{name: "count times size unit", in: "2 x 250ml", size: fptr(250), unit: "ml", cfg: "2"},
		{name: "count times size unit with word", in: "4 x 330ml cans", size: fptr(330), unit: "ml", cfg: "4 cans"},
		{name: "bonus count", in: "3+1 tablets", size: fptr(3), cfg: "1 tablets"},
		{name: "size unit plus bonus", in: "500g + 2 wipes", size: fptr(500), unit: "g", cfg: "2 wipes"},
		{name: "unit before size", in: "pk 4", size: fptr(4), unit: "pk"},
		{name: "bare multiplication falls through", in: "4x2", cfg: "4x2"},
		{name: "opaque configuration", in: "Family Bundle", cfg: "family bundle"},
		{name: "mixed case normalized", in: "500G", size: fptr(500), unit: "g"},
		{name: "surrounding whitespace", in: "  500g  ", size: fptr(500), unit: "g"},
		{name: "empty input", in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if tt.size == nil {
				assert.Nil(t, got.Size)
			} else {
				require.NotNil(t, got.Size)
				assert.InDelta(t, *tt.size, *got.Size, 1e-9)
			}
			assert.Equal(t, tt.unit, got.Unit)
			assert.Equal(t, tt.cfg, got.Configuration)
		})
	}
}

func TestPackSizeA2C(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "size and unit only", in: "500g", want: "500g"},
		{name: "size unit and configuration", in: "2 x 250ml", want: "250ml x 2"},
		{name: "configuration only", in: "Family Bundle", want: "family bundle"},
		{name: "bonus count keeps additive form", in: "3+1 tablets", want: "3 + 1 tablets"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in).A2C())
		})
	}
}

// Parsing the canonical string of a parsed result must reproduce the same
// size and unit.
func TestParseA2CIdempotent(t *testing.T) {
	inputs := []string{
		"500g",
		"0.5kg",
		"250ml x 2",
		"2 x 250ml",
		"4 x 330ml cans",
		"500g + 2 wipes",
		"3+1 tablets",
		"pk 4",
		"Family Bundle",
		"4x2",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first := Parse(in)
			second := Parse(first.A2C())

			if first.Size == nil {
				assert.Nil(t, second.Size)
			} else {
				require.NotNil(t, second.Size)
				assert.InDelta(t, *first.Size, *second.Size, 1e-9)
			}
			assert.Equal(t, first.Unit, second.Unit)
			assert.Equal(t, first.A2C(), second.A2C())
		})
	}
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "same string", a: "500g", b: "500g", want: true},
		{name: "kilo against grams", a: "0.5kg", b: "500g", want: true},
		{name: "multipack against total", a: "2 x 250ml", b: "500ml", want: true},
		{name: "volume folds into mass class", a: "500ml", b: "500g", want: true},
		{name: "bonus pack total", a: "3+1 tablets", b: "4 tablets", want: true},
		{name: "bare multiplication", a: "4x2", b: "8", want: true},
		{name: "different totals", a: "500g", b: "750g", want: false},
		{name: "different classes", a: "500g", b: "500 pack", want: false},
		{name: "unparseable left", a: "bundle", b: "500g", want: false},
		{name: "mixed units rejected", a: "500g + 2 tablets", b: "502g", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equivalent(tt.a, tt.b))
			// equivalence is symmetric
			assert.Equal(t, Equivalent(tt.a, tt.b), Equivalent(tt.b, tt.a))
		})
	}
}
