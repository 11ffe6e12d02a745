package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// DrawRegular sketches a regular polygon from a center and a second point,
// either by dragging or by two clicks. Sides of two or less draw a circle.
type DrawRegular struct {
	Sides          int
	CanRotate      bool
	ClickTolerance float64

	center *orb.Point
}

func NewDrawRegular(sides int, canRotate bool) *DrawRegular {
	return &DrawRegular{Sides: sides, CanRotate: canRotate, ClickTolerance: DefaultClickTolerance}
}

// Center returns the pending center, if any
func (d *DrawRegular) Center() (orb.Point, bool) {
	if d.center == nil {
		return orb.Point{}, false
	}
	return *d.center, true
}

func (d *DrawRegular) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	tolerance := ev.Tolerance(d.ClickTolerance)
	switch ev.Type {
	case surface.PointerDown:
		if d.center == nil {
			p := ev.Coordinate
			d.center = &p
		}
		return false
	case surface.PointerDrag:
		return d.center == nil
	case surface.PointerUp, surface.PointerClick:
		if d.center == nil {
			p := ev.Coordinate
			d.center = &p
			return false
		}
		if planar.Distance(*d.center, ev.Coordinate) <= tolerance {
			return false
		}
		poly := regularPolygon(*d.center, ev.Coordinate, d.Sides, d.CanRotate)
		d.center = nil
		f := geojson.NewFeature(poly)
		m.Emit(d, surface.Event{Type: surface.EventDrawEnd, Features: []*geojson.Feature{f}})
		return false
	}
	return true
}

func (d *DrawRegular) Abort() {
	d.center = nil
}
