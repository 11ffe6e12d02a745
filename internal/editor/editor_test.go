package editor

import (
	"errors"
	"fmt"
	"testing"

	"geoeditor/internal/featurestore"
	"geoeditor/internal/interaction"
	"geoeditor/internal/model"
	"geoeditor/internal/surface"
	"geoeditor/internal/tool"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	m      *surface.Map
	source *surface.Source
	store  *featurestore.Store
	editor *Editor
}

func newFixture(opts ...Option) *fixture {
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("f-%d", n)
	}
	fx := &fixture{m: surface.NewMap(), source: surface.NewSource(), store: featurestore.New()}
	fx.editor = New(fx.m, fx.source, fx.store, append([]Option{WithIDGenerator(ids)}, opts...)...)
	return fx
}

func (fx *fixture) click(p orb.Point) {
	fx.editor.Dispatch(&surface.MapEvent{Type: surface.PointerClick, Coordinate: p})
}

func (fx *fixture) exclusive() []surface.Interaction {
	var result []surface.Interaction
	for _, i := range fx.m.Interactions() {
		switch i.(type) {
		case *interaction.Select, *interaction.Snap, *interaction.UndoRedo:
		default:
			result = append(result, i)
		}
	}
	return result
}

func TestNew_DefaultState(t *testing.T) {
	fx := newFixture()
	assert.Equal(t, model.ToolDefault, fx.editor.Tool())
	assert.False(t, fx.editor.SnapEnabled())
	assert.Nil(t, fx.editor.Active())
	assert.Len(t, fx.m.Interactions(), 2)
}

func TestScenario_DrawPoint(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.editor.SetTool(model.ToolPoint))

	p := fx.m.EventCoordinate(139.7, 35.6)
	fx.click(p)

	assert.Equal(t, model.ToolTranslate, fx.editor.Tool())
	assert.IsType(t, &interaction.Translate{}, fx.editor.Active())
	assert.Len(t, fx.exclusive(), 1)

	features, err := fx.store.Features()
	require.NoError(t, err)
	require.Len(t, features, 1)
	f := features[0]
	assert.Equal(t, "f-1", f.ID)
	assert.Equal(t, model.DefaultColor, f.Properties[model.PropColor])
	assert.Equal(t, float64(0), f.Properties[model.PropLevel])
	assert.True(t, fx.store.Refresh())

	fc, err := geojson.UnmarshalFeatureCollection(fx.store.GeoJSON())
	require.NoError(t, err)
	stored := fc.Features[0].Geometry.(orb.Point)
	assert.InDelta(t, 139.7, stored.Lon(), 1e-9)
	assert.InDelta(t, 35.6, stored.Lat(), 1e-9)
	assert.Equal(t, 1, fx.source.Len())
}

func TestOnCreate_IdentityStable(t *testing.T) {
	fx := newFixture()
	f := geojson.NewFeature(orb.Point{1, 1})

	fx.editor.Lifecycle().OnCreate(f)
	id := f.ID
	fx.editor.Lifecycle().OnCreate(f)

	assert.Equal(t, id, f.ID)
	assert.Equal(t, 1, fx.store.Count())
	assert.Equal(t, 1, fx.source.Len())
}

func TestOnCreate_KeepsGivenAttributes(t *testing.T) {
	fx := newFixture()
	f := geojson.NewFeature(orb.Point{1, 1})
	f.Properties[model.PropColor] = "red"

	fx.editor.Lifecycle().OnCreate(f)

	assert.Equal(t, "red", f.Properties[model.PropColor])
	assert.Contains(t, f.Properties, model.PropThickness)
}

func TestScenario_ModifyThenDelete(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.editor.SetTool(model.ToolModify))
	modify := fx.editor.Active()
	fx.editor.selection.Push(geojson.NewFeature(orb.Point{0, 0}))

	require.NoError(t, fx.editor.SetTool(model.ToolDelete))

	assert.False(t, fx.m.HasInteraction(modify))
	assert.IsType(t, &interaction.Delete{}, fx.editor.Active())
	assert.Len(t, fx.exclusive(), 1)
	assert.Empty(t, fx.editor.Selection())
}

func TestSetTool_Exclusivity(t *testing.T) {
	fx := newFixture()
	listeners := fx.m.ListenerCount()
	for _, id := range append(model.Tools, model.Tools...) {
		require.NoError(t, fx.editor.SetTool(id))
		assert.LessOrEqual(t, len(fx.exclusive()), 1, "after %s", id)
	}
	require.NoError(t, fx.editor.SetTool(model.ToolDefault))
	assert.Empty(t, fx.exclusive())
	assert.Equal(t, listeners, fx.m.ListenerCount(), "no listeners left behind")
}

func TestSetTool_UnknownTool(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.editor.SetTool(model.ToolModify))

	err := fx.editor.SetTool("lasso")

	assert.True(t, errors.Is(err, tool.ErrUnknownTool))
	assert.Equal(t, model.ToolID("lasso"), fx.editor.Tool())
	assert.Empty(t, fx.exclusive())
}

func TestSetTool_DiscardsGestureInProgress(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.editor.SetTool(model.ToolPolygon))
	draw := fx.editor.Active().(*interaction.Draw)
	fx.click(orb.Point{0, 0})
	fx.click(orb.Point{100, 0})

	require.NoError(t, fx.editor.SetTool(model.ToolLine))

	assert.Empty(t, draw.Sketch())
	assert.Equal(t, 0, fx.source.Len())
	assert.Equal(t, 0, fx.store.Count())
}

func TestSetTool_TransformTakesSelection(t *testing.T) {
	fx := newFixture()
	f := geojson.NewFeature(orb.Polygon{{{10, 10}, {20, 10}, {20, 20}, {10, 10}}})
	fx.editor.Lifecycle().OnCreate(f)
	fx.editor.selection.Push(f)

	require.NoError(t, fx.editor.SetTool(model.ToolTransform))

	tr := fx.editor.Active().(*interaction.Transform)
	assert.Equal(t, []*geojson.Feature{f}, tr.Selection())
	c, ok := tr.Center()
	require.True(t, ok)
	assert.Equal(t, orb.Point{10, 10}, c)
	assert.Empty(t, fx.editor.Selection())
}

func TestToggleSnap(t *testing.T) {
	fx := newFixture()
	assert.True(t, fx.editor.ToggleSnap())
	assert.True(t, fx.m.HasInteraction(fx.editor.snap))

	require.NoError(t, fx.editor.SetTool(model.ToolPoint))
	assert.True(t, fx.m.HasInteraction(fx.editor.snap), "snapping survives tool switches")

	assert.False(t, fx.editor.ToggleSnap())
	assert.False(t, fx.m.HasInteraction(fx.editor.snap))
}

func TestCommitUpdate_MergesIntoExisting(t *testing.T) {
	fx := newFixture()
	f := geojson.NewFeature(orb.Point{1, 1})
	fx.editor.Lifecycle().OnCreate(f)

	edit := geojson.NewFeature(nil)
	edit.ID = f.ID
	edit.Properties["name"] = "station"
	fx.editor.Lifecycle().CommitUpdate(edit)

	assert.Equal(t, "station", f.Properties["name"])
	assert.Equal(t, orb.Point{1, 1}, f.Geometry)
	features, err := fx.store.Features()
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "station", features[0].Properties["name"])
}

func TestCommitUpdate_UnknownIsNoop(t *testing.T) {
	fx := newFixture()
	fx.editor.selection.Push(geojson.NewFeature(orb.Point{0, 0}))
	doc := fx.store.GeoJSON()

	stray := geojson.NewFeature(orb.Point{0, 0})
	stray.ID = "nope"
	fx.editor.Lifecycle().CommitUpdate(stray)

	assert.Equal(t, doc, fx.store.GeoJSON())
	assert.Empty(t, fx.editor.Selection())
}

func TestDeleteFeature_Idempotent(t *testing.T) {
	fx := newFixture()
	a := geojson.NewFeature(orb.Point{1, 1})
	b := geojson.NewFeature(orb.Point{2, 2})
	fx.editor.Lifecycle().OnCreate(a)
	fx.editor.Lifecycle().OnCreate(b)
	require.Equal(t, 2, fx.store.Count())

	fx.editor.Lifecycle().DeleteFeature(a)
	doc := fx.store.GeoJSON()
	assert.Equal(t, 1, fx.store.Count())
	assert.False(t, fx.source.Has(a))

	fx.editor.Lifecycle().DeleteFeature(a)
	assert.Equal(t, doc, fx.store.GeoJSON())
}

func TestScenario_ClearAll(t *testing.T) {
	fx := newFixture()
	for i := 0; i < 5; i++ {
		fx.editor.Lifecycle().OnCreate(geojson.NewFeature(orb.Point{float64(i), 0}))
	}
	require.Equal(t, 5, fx.store.Count())
	fx.store.SetRefresh(false)

	require.NoError(t, fx.editor.Lifecycle().ClearAll())

	assert.Equal(t, 0, fx.store.Count())
	assert.Equal(t, 0, fx.source.Len())
	assert.True(t, fx.store.Refresh())
}

func TestRedraw_ReconcilesFromStore(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.store.SetGeoJSON([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"a","geometry":{"type":"Point","coordinates":[139.7,35.6]},"properties":{"name":"x"}}
	]}`)))

	require.NoError(t, fx.editor.Lifecycle().Redraw())

	f, ok := fx.source.FeatureByID("a")
	require.True(t, ok)
	want := project.Point(orb.Point{139.7, 35.6}, project.WGS84.ToMercator)
	got := f.Geometry.(orb.Point)
	assert.InDelta(t, want[0], got[0], 1e-6)
	assert.InDelta(t, want[1], got[1], 1e-6)
}

func TestRedraw_KeepsFeaturesWithoutGeometry(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.store.SetGeoJSON([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"a","geometry":null,"properties":{"name":"empty"}},
		{"type":"Feature","id":"b","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}
	]}`)))
	require.Equal(t, 2, fx.store.Count())

	require.NoError(t, fx.editor.Lifecycle().Redraw())
	fx.editor.Lifecycle().Sync()

	assert.Equal(t, 2, fx.source.Len())
	assert.Equal(t, 2, fx.store.Count())
	features, err := fx.store.Features()
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "a", features[0].ID)
	assert.Nil(t, features[0].Geometry)
	assert.Equal(t, "b", features[1].ID)
}

func TestUndoRedo_SyncsStore(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.editor.SetTool(model.ToolPoint))
	fx.click(orb.Point{5, 5})
	require.Equal(t, 1, fx.store.Count())

	assert.True(t, fx.editor.Undo())
	assert.Equal(t, 0, fx.store.Count())
	assert.Equal(t, 0, fx.source.Len())
	assert.True(t, fx.editor.CanRedo())

	assert.True(t, fx.editor.Redo())
	assert.Equal(t, 1, fx.store.Count())
	assert.False(t, fx.editor.Redo())
}

func TestTranslate_SyncsStore(t *testing.T) {
	fx := newFixture()
	f := geojson.NewFeature(orb.Point{0, 0})
	fx.editor.Lifecycle().OnCreate(f)
	require.Equal(t, model.ToolTranslate, fx.editor.Tool())

	fx.click(orb.Point{0, 0})
	require.Equal(t, []*geojson.Feature{f}, fx.editor.Selection())
	for _, ev := range []surface.MapEvent{
		{Type: surface.PointerDown, Coordinate: orb.Point{0, 0}},
		{Type: surface.PointerDrag, Coordinate: orb.Point{1000, 0}},
		{Type: surface.PointerUp, Coordinate: orb.Point{1000, 0}},
	} {
		ev := ev
		fx.editor.Dispatch(&ev)
	}

	features, err := fx.store.Features()
	require.NoError(t, err)
	assert.InDelta(t, 1000, features[0].Geometry.(orb.Point)[0], 1e-6)
	assert.Equal(t, []*geojson.Feature{f}, fx.editor.Selection(), "sync keeps the selection")
}

func TestHole_NeverAddsSketch(t *testing.T) {
	fx := newFixture()
	poly := geojson.NewFeature(orb.Polygon{{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}})
	fx.editor.Lifecycle().OnCreate(poly)
	require.NoError(t, fx.editor.SetTool(model.ToolHole))

	for _, p := range []orb.Point{{20, 20}, {40, 20}, {40, 40}, {20, 20}} {
		fx.click(p)
	}

	assert.Equal(t, 1, fx.source.Len())
	assert.Equal(t, 1, fx.store.Count())
	features, err := fx.store.Features()
	require.NoError(t, err)
	assert.Len(t, features[0].Geometry.(orb.Polygon), 2)
}

func TestEditHook(t *testing.T) {
	var picked *geojson.Feature
	fx := newFixture(WithEditHook(func(f *geojson.Feature) { picked = f }))
	f := geojson.NewFeature(orb.Point{0, 0})
	fx.editor.Lifecycle().OnCreate(f)
	require.NoError(t, fx.editor.SetTool(model.ToolDefault))

	fx.click(orb.Point{0, 0})

	assert.Same(t, f, picked)
	assert.Same(t, f, fx.editor.FeatureToEdit())
	fx.editor.Unselect()
	assert.Nil(t, fx.editor.FeatureToEdit())
}

func TestSelect_WithoutEditHookLeavesFeatureToEdit(t *testing.T) {
	fx := newFixture()
	f := geojson.NewFeature(orb.Point{0, 0})
	fx.editor.Lifecycle().OnCreate(f)
	require.NoError(t, fx.editor.SetTool(model.ToolDefault))

	fx.click(orb.Point{0, 0})

	assert.Equal(t, []*geojson.Feature{f}, fx.editor.Selection())
	assert.Nil(t, fx.editor.FeatureToEdit())
}

func TestDispose_Idempotent(t *testing.T) {
	fx := newFixture()
	fx.editor.ToggleSnap()
	require.NoError(t, fx.editor.SetTool(model.ToolModify))

	fx.editor.Dispose()
	assert.Empty(t, fx.m.Interactions())
	assert.Equal(t, 0, fx.m.ListenerCount())
	assert.Equal(t, 0, fx.source.Watchers())

	assert.NotPanics(t, fx.editor.Dispose)
	assert.ErrorIs(t, fx.editor.SetTool(model.ToolPoint), ErrDisposed)
}
