package surface

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(id string, g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	if id != "" {
		f.ID = id
	}
	return f
}

func TestSource_AddAndLookup(t *testing.T) {
	src := NewSource()
	a := feature("a", orb.Point{1, 1})
	b := feature("", orb.Point{2, 2})

	src.AddFeature(a)
	src.AddFeature(a)
	src.AddFeature(b)

	assert.Equal(t, 2, src.Len())
	got, ok := src.FeatureByID("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = src.FeatureByID("")
	assert.False(t, ok)
}

func TestSource_RemoveFeature(t *testing.T) {
	src := NewSource()
	a := feature("a", orb.Point{1, 1})
	src.AddFeature(a)

	assert.True(t, src.RemoveFeature(a))
	assert.False(t, src.RemoveFeature(a))
	_, ok := src.FeatureByID("a")
	assert.False(t, ok)
	assert.Empty(t, src.FeaturesAt(orb.Point{1, 1}, 1))
}

func TestSource_FeaturesAt(t *testing.T) {
	src := NewSource()
	poly := feature("poly", orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}})
	pt := feature("pt", orb.Point{5, 5})
	line := feature("line", orb.LineString{{20, 0}, {30, 0}})
	src.AddFeatures([]*geojson.Feature{poly, pt, line})

	hits := src.FeaturesAt(orb.Point{5, 5}, 0.5)
	require.Len(t, hits, 2)
	assert.Same(t, pt, hits[0], "topmost first")
	assert.Same(t, poly, hits[1])

	hits = src.FeaturesAt(orb.Point{25, 0.4}, 0.5)
	require.Len(t, hits, 1)
	assert.Same(t, line, hits[0])

	assert.Empty(t, src.FeaturesAt(orb.Point{50, 50}, 1))
}

func TestSource_ForEachAt(t *testing.T) {
	src := NewSource()
	a := feature("a", orb.Point{1, 1})
	b := feature("b", orb.Point{1, 1})
	src.AddFeatures([]*geojson.Feature{a, b})

	var seen []*geojson.Feature
	src.ForEachAt(orb.Point{1, 1}, 0.5, func(f *geojson.Feature) bool {
		seen = append(seen, f)
		return true
	})
	assert.Equal(t, []*geojson.Feature{b}, seen)
}

func TestSource_FeaturesInBound(t *testing.T) {
	src := NewSource()
	a := feature("a", orb.Point{1, 1})
	b := feature("b", orb.LineString{{5, 5}, {20, 20}})
	c := feature("c", orb.Point{50, 50})
	src.AddFeatures([]*geojson.Feature{a, b, c})

	got := src.FeaturesInBound(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})
	assert.Equal(t, []*geojson.Feature{a, b}, got)

	assert.Empty(t, src.FeaturesInBound(orb.Bound{Min: orb.Point{30, 30}, Max: orb.Point{40, 40}}))
	assert.Empty(t, NewSource().FeaturesInBound(orb.Bound{Max: orb.Point{1, 1}}))
}

func TestSource_ChangedReindexes(t *testing.T) {
	src := NewSource()
	f := feature("", orb.Point{0, 0})
	src.AddFeature(f)

	before := CloneFeature(f)
	f.ID = "moved"
	f.Geometry = orb.Point{100, 100}
	src.Changed(f, before)

	got, ok := src.FeatureByID("moved")
	require.True(t, ok)
	assert.Same(t, f, got)
	assert.Empty(t, src.FeaturesAt(orb.Point{0, 0}, 1))
	assert.Len(t, src.FeaturesAt(orb.Point{100, 100}, 1), 1)
}

func TestSource_FeatureWithoutGeometry(t *testing.T) {
	src := NewSource()
	a := feature("a", nil)
	b := feature("b", orb.Point{1, 1})
	src.AddFeatures([]*geojson.Feature{a, b})

	assert.Equal(t, 2, src.Len())
	got, ok := src.FeatureByID("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, []*geojson.Feature{b}, src.FeaturesAt(orb.Point{1, 1}, 1))
	assert.Equal(t, []*geojson.Feature{b}, src.FeaturesInBound(orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}))

	before := CloneFeature(a)
	a.Geometry = orb.Point{5, 5}
	src.Changed(a, before)
	assert.Equal(t, []*geojson.Feature{a}, src.FeaturesAt(orb.Point{5, 5}, 1))

	src.Replace(a, before)
	assert.Nil(t, a.Geometry)
	assert.Empty(t, src.FeaturesAt(orb.Point{5, 5}, 1))

	assert.True(t, src.RemoveFeature(a))
	assert.Equal(t, 1, src.Len())
}

func TestSource_WatchAndBatch(t *testing.T) {
	src := NewSource()
	var types []SourceEventType
	cancel := src.Watch(func(ev SourceEvent) { types = append(types, ev.Type) })

	src.AddFeatures([]*geojson.Feature{feature("a", orb.Point{0, 0})})
	src.Clear()
	cancel()
	src.AddFeature(feature("b", orb.Point{0, 0}))

	assert.Equal(t, []SourceEventType{SourceBatchStart, SourceAdd, SourceBatchEnd, SourceClear}, types)
	assert.Zero(t, src.Watchers())
}

func TestSource_Replace(t *testing.T) {
	src := NewSource()
	f := feature("a", orb.Point{0, 0})
	f.Properties["color"] = "red"
	src.AddFeature(f)

	state := feature("a", orb.Point{3, 3})
	state.Properties["color"] = "blue"
	src.Replace(f, state)

	assert.Equal(t, orb.Point{3, 3}, f.Geometry)
	assert.Equal(t, "blue", f.Properties["color"])

	// the restored state is a copy
	state.Properties["color"] = "green"
	assert.Equal(t, "blue", f.Properties["color"])
}

func TestCollection(t *testing.T) {
	a := feature("a", orb.Point{0, 0})
	b := feature("b", orb.Point{1, 1})
	c := NewCollection(a, b, a)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []*geojson.Feature{a, b}, c.Items())
	assert.True(t, c.Remove(a))
	assert.False(t, c.Remove(a))
	c.Clear()
	assert.Zero(t, c.Len())
}
