package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb/geojson"
)

// FillAttribute writes a fixed set of attributes into the clicked feature
type FillAttribute struct {
	source       *surface.Source
	Name         string
	Attributes   geojson.Properties
	HitTolerance float64
}

func NewFillAttribute(source *surface.Source, name string, attributes geojson.Properties, hitTolerance float64) *FillAttribute {
	return &FillAttribute{source: source, Name: name, Attributes: attributes, HitTolerance: hitTolerance}
}

func (fa *FillAttribute) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	if ev.Type != surface.PointerClick {
		return true
	}
	var f *geojson.Feature
	fa.source.ForEachAt(ev.Coordinate, ev.Tolerance(fa.HitTolerance), func(hit *geojson.Feature) bool {
		f = hit
		return true
	})
	if f == nil {
		return true
	}
	before := surface.CloneFeature(f)
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	for k, v := range fa.Attributes {
		f.Properties[k] = v
	}
	fa.source.Changed(f, before)
	m.Emit(fa, surface.Event{Type: surface.EventFillEnd, Features: []*geojson.Feature{f}})
	return false
}
