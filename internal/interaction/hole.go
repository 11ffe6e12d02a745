package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// DrawHole sketches a ring inside a polygon of the source and cuts it out as
// a hole. The first click picks the polygon.
type DrawHole struct {
	source         *surface.Source
	ClickTolerance float64

	target *geojson.Feature
	// polygon index within a multipolygon target
	part   int
	sketch []orb.Point
}

func NewDrawHole(source *surface.Source) *DrawHole {
	return &DrawHole{source: source, ClickTolerance: DefaultClickTolerance}
}

// Target returns the polygon feature being cut, if any
func (h *DrawHole) Target() *geojson.Feature {
	return h.target
}

func (h *DrawHole) Gesture() []*geojson.Feature {
	if h.target == nil {
		return nil
	}
	return []*geojson.Feature{h.target}
}

func (h *DrawHole) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	tolerance := ev.Tolerance(h.ClickTolerance)
	switch ev.Type {
	case surface.PointerClick:
		if h.target == nil {
			if !h.pick(ev.Coordinate) {
				return true
			}
			h.sketch = []orb.Point{ev.Coordinate}
			return false
		}
		n := len(h.sketch)
		if n >= 3 && planar.Distance(h.sketch[0], ev.Coordinate) <= tolerance {
			h.finish(m)
			return false
		}
		if n >= 3 && planar.Distance(h.sketch[n-1], ev.Coordinate) <= tolerance {
			h.finish(m)
			return false
		}
		if h.inside(ev.Coordinate) {
			h.sketch = append(h.sketch, ev.Coordinate)
		}
		return false
	case surface.PointerDblClick:
		if h.target == nil {
			return true
		}
		n := len(h.sketch)
		if n > 0 && planar.Distance(h.sketch[n-1], ev.Coordinate) > tolerance && h.inside(ev.Coordinate) {
			h.sketch = append(h.sketch, ev.Coordinate)
		}
		h.finish(m)
		return false
	}
	return true
}

func (h *DrawHole) pick(p orb.Point) bool {
	for _, f := range h.source.FeaturesAt(p, 0) {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				h.target, h.part = f, 0
				return true
			}
		case orb.MultiPolygon:
			for i, poly := range g {
				if planar.PolygonContains(poly, p) {
					h.target, h.part = f, i
					return true
				}
			}
		}
	}
	return false
}

func (h *DrawHole) polygon() orb.Polygon {
	switch g := h.target.Geometry.(type) {
	case orb.Polygon:
		return g
	case orb.MultiPolygon:
		if h.part < len(g) {
			return g[h.part]
		}
	}
	return nil
}

func (h *DrawHole) inside(p orb.Point) bool {
	poly := h.polygon()
	return poly != nil && planar.PolygonContains(poly, p)
}

func (h *DrawHole) finish(m *surface.Map) {
	target, part, pts := h.target, h.part, h.sketch
	h.Abort()
	if len(pts) < 3 {
		return
	}

	ring := append(orb.Ring(append([]orb.Point(nil), pts...)), pts[0])
	if ring.Orientation() != orb.CW {
		ring.Reverse()
	}

	before := surface.CloneFeature(target)
	switch g := target.Geometry.(type) {
	case orb.Polygon:
		poly := orb.Clone(g).(orb.Polygon)
		target.Geometry = append(poly, ring)
	case orb.MultiPolygon:
		if part >= len(g) {
			return
		}
		mp := orb.Clone(g).(orb.MultiPolygon)
		mp[part] = append(mp[part], ring)
		target.Geometry = mp
	default:
		return
	}
	h.source.Changed(target, before)
	m.Emit(h, surface.Event{Type: surface.EventHoleEnd, Features: []*geojson.Feature{target}})
}

func (h *DrawHole) Abort() {
	h.target, h.part = nil, 0
	h.sketch = nil
}
