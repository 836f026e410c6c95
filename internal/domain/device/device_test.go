package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		ids   string
		sizes string
		want  []Unit
	}{
		{
			name:  "matched lists",
			ids:   "356938035643809,490154203237518",
			sizes: "128GB,256GB",
			want: []Unit{
				{ID: "356938035643809", Size: "128GB"},
				{ID: "490154203237518", Size: "256GB"},
			},
		},
		{
			name:  "whitespace trimmed",
			ids:   " 356938035643809 , 490154203237518 ",
			sizes: " 128GB , 256GB ",
			want: []Unit{
				{ID: "356938035643809", Size: "128GB"},
				{ID: "490154203237518", Size: "256GB"},
			},
		},
		{
			name:  "blank id drops positional size",
			ids:   "A1,,A3",
			sizes: "S,M,L",
			want: []Unit{
				{ID: "A1", Size: "S"},
				{ID: "A3", Size: "L"},
			},
		},
		{
			name:  "missing sizes padded with empty",
			ids:   "A1,A2,A3",
			sizes: "S",
			want: []Unit{
				{ID: "A1", Size: "S"},
				{ID: "A2", Size: ""},
				{ID: "A3", Size: ""},
			},
		},
		{
			name:  "extra sizes ignored",
			ids:   "A1",
			sizes: "S,M,L",
			want:  []Unit{{ID: "A1", Size: "S"}},
		},
		{
			name:  "empty ids",
			ids:   "",
			sizes: "S,M",
			want:  nil,
		},
		{
			name:  "only separators",
			ids:   " , , ",
			sizes: "S,M,L",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.ids, tt.sizes))
		})
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name      string
		units     []Unit
		wantIDs   string
		wantSizes string
	}{
		{
			name: "two units",
			units: []Unit{
				{ID: "A1", Size: "S"},
				{ID: "A2", Size: "M"},
			},
			wantIDs:   "A1,A2",
			wantSizes: "S,M",
		},
		{
			name: "blank id filtered",
			units: []Unit{
				{ID: "A1", Size: "S"},
				{ID: "  ", Size: "M"},
				{ID: "A3", Size: "L"},
			},
			wantIDs:   "A1,A3",
			wantSizes: "S,L",
		},
		{
			name:      "empty sizes kept positional",
			units:     []Unit{{ID: "A1"}, {ID: "A2", Size: "M"}},
			wantIDs:   "A1,A2",
			wantSizes: ",M",
		},
		{
			name:      "nil",
			units:     nil,
			wantIDs:   "",
			wantSizes: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, sizes := Join(tt.units)
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantSizes, sizes)
		})
	}
}

func TestJoinParseRoundTrip(t *testing.T) {
	ids := " A1 ,, A2 ,A3"
	sizes := "S,M,L"

	gotIDs, gotSizes := Join(Parse(ids, sizes))

	assert.Equal(t, "A1,A2,A3", gotIDs)
	assert.Equal(t, "S,L,", gotSizes)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("abc123", "ABC123"))
	assert.True(t, Equal(" abc123 ", "abc123"))
	assert.False(t, Equal("abc123", "abc124"))
	assert.True(t, Equal("", "  "))
}

func TestContainsAndSizeFor(t *testing.T) {
	units := []Unit{
		{ID: "A1", Size: "S"},
		{ID: "B2", Size: ""},
	}

	assert.True(t, Contains(units, "a1"))
	assert.False(t, Contains(units, "C3"))
	assert.Equal(t, "S", SizeFor(units, " A1"))
	assert.Equal(t, "", SizeFor(units, "B2"))
	assert.Equal(t, "", SizeFor(units, "missing"))
}
