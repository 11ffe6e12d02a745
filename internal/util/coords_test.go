package util

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestRewind(t *testing.T) {
	// clockwise exterior, counterclockwise hole
	poly := orb.Polygon{
		{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
	}

	out := Rewind(poly).(orb.Polygon)

	assert.Equal(t, orb.CCW, out[0].Orientation())
	assert.Equal(t, orb.CW, out[1].Orientation())
}

func TestRewind_AlreadyOriented(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	want := orb.Clone(poly)

	assert.Equal(t, want, Rewind(poly))
}

func TestCleanCoords(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Geometry
		want orb.Geometry
	}{
		{
			name: "line duplicates",
			in:   orb.LineString{{0, 0}, {0, 0}, {1, 1}, {1, 1}, {2, 2}},
			want: orb.LineString{{0, 0}, {1, 1}, {2, 2}},
		},
		{
			name: "ring stays closed",
			in:   orb.Polygon{{{0, 0}, {1, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
			want: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
		},
		{
			name: "degenerate line untouched",
			in:   orb.LineString{{3, 3}, {3, 3}},
			want: orb.LineString{{3, 3}, {3, 3}},
		},
		{
			name: "multipoint",
			in:   orb.MultiPoint{{1, 1}, {2, 2}, {1, 1}},
			want: orb.MultiPoint{{1, 1}, {2, 2}},
		},
		{
			name: "point",
			in:   orb.Point{1, 2},
			want: orb.Point{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCoords(tt.in))
		})
	}
}
