package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

func iptr(v int64) *int64 { return &v }

func testTree() []model.Category {
	return []model.Category{
		{ID: 1, Name: "Home"},
		{ID: 2, Name: "Grocery", ParentID: iptr(1)},
		{ID: 3, Name: "Snacks", ParentID: iptr(2)},
		{ID: 4, Name: "Pets", ParentID: iptr(1)},
		{ID: 5, Name: "Snacks", ParentID: iptr(4)},
		{ID: 6, Name: "Health & Beauty", ParentID: iptr(1)},
	}
}

func TestIndexResolve(t *testing.T) {
	ix := NewIndex(testTree())

	tests := []struct {
		name string
		path string
		want int64
	}{
		{name: "full path disambiguates duplicate leaf", path: "Home > Grocery > Snacks", want: 3},
		{name: "duplicate leaf under other parent", path: "Home > Pets > Snacks", want: 5},
		{name: "single known segment", path: "Grocery", want: 2},
		{name: "punctuation stripped in lookup", path: "Home > Health & Beauty", want: 6},
		{name: "unknown parent falls back to first candidate", path: "Bazaar > Snacks", want: 3},
		{name: "unknown leaf walks up the path", path: "Home > Grocery > Quantum Widgets", want: 2},
		{name: "nothing resolves", path: "Completely > Unknown", want: 1},
		{name: "empty path", path: "", want: 1},
		{name: "case insensitive", path: "HOME > GROCERY", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ix.Resolve(tt.path))
		})
	}
}

func TestIndexDefault(t *testing.T) {
	t.Run("home root preferred", func(t *testing.T) {
		ix := NewIndex([]model.Category{
			{ID: 9, Name: "Clearance"},
			{ID: 1, Name: "Home"},
		})
		assert.Equal(t, int64(1), ix.DefaultID())
	})

	t.Run("first root stands in without home", func(t *testing.T) {
		ix := NewIndex([]model.Category{
			{ID: 9, Name: "Clearance"},
			{ID: 10, Name: "Seasonal"},
		})
		assert.Equal(t, int64(9), ix.DefaultID())
	})

	t.Run("empty table resolves to zero", func(t *testing.T) {
		ix := NewIndex(nil)
		assert.Equal(t, int64(0), ix.Resolve("Home > Grocery"))
	})
}
