package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// DefaultClickTolerance is the pixel distance under which a click finishes a sketch
const DefaultClickTolerance = 6

// GeometryType is the kind of geometry a Draw interaction produces
type GeometryType string

const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
	GeometryPolygon    GeometryType = "Polygon"
)

// Draw sketches a new geometry from clicks. Clicking the last vertex of a line,
// the first vertex of a polygon, or double clicking finishes the sketch. The
// finished feature is emitted with drawend and is not added to any source.
type Draw struct {
	Type           GeometryType
	ClickTolerance float64

	m      *surface.Map
	sketch []orb.Point
}

func NewDraw(t GeometryType) *Draw {
	return &Draw{Type: t, ClickTolerance: DefaultClickTolerance}
}

func (d *Draw) Setup(m *surface.Map) func() {
	d.m = m
	return func() { d.m = nil }
}

// Sketch returns the vertices placed so far
func (d *Draw) Sketch() []orb.Point {
	return append([]orb.Point(nil), d.sketch...)
}

func (d *Draw) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	tolerance := ev.Tolerance(d.ClickTolerance)
	switch ev.Type {
	case surface.PointerClick:
		if d.Type == GeometryPoint {
			d.emit(m, orb.Point(ev.Coordinate))
			return false
		}
		n := len(d.sketch)
		if d.Type == GeometryPolygon && n >= 3 && planar.Distance(d.sketch[0], ev.Coordinate) <= tolerance {
			d.Finish()
			return false
		}
		if n >= d.minPoints() && planar.Distance(d.sketch[n-1], ev.Coordinate) <= tolerance {
			d.Finish()
			return false
		}
		d.sketch = append(d.sketch, ev.Coordinate)
		return false
	case surface.PointerDblClick:
		if d.Type == GeometryPoint {
			return false
		}
		n := len(d.sketch)
		if n == 0 || planar.Distance(d.sketch[n-1], ev.Coordinate) > tolerance {
			d.sketch = append(d.sketch, ev.Coordinate)
		}
		d.Finish()
		return false
	}
	return true
}

func (d *Draw) minPoints() int {
	if d.Type == GeometryPolygon {
		return 3
	}
	return 2
}

// Finish completes the sketch when it has enough vertices
func (d *Draw) Finish() {
	if d.m == nil || len(d.sketch) < d.minPoints() {
		return
	}
	pts := d.sketch
	d.sketch = nil
	switch d.Type {
	case GeometryLineString:
		d.emit(d.m, orb.LineString(pts))
	case GeometryPolygon:
		ring := append(orb.Ring(pts), pts[0])
		d.emit(d.m, orb.Polygon{ring})
	}
}

func (d *Draw) emit(m *surface.Map, g orb.Geometry) {
	f := geojson.NewFeature(g)
	m.Emit(d, surface.Event{Type: surface.EventDrawEnd, Features: []*geojson.Feature{f}})
}

func (d *Draw) Abort() {
	d.sketch = nil
}
