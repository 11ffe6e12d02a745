package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Modify edits vertices: drag a vertex to move it, drag an edge to insert one,
// alt-click a vertex to remove it.
type Modify struct {
	source         *surface.Source
	PixelTolerance float64

	feature *geojson.Feature
	before  *geojson.Feature
	paths   []path
	vertex  vertexRef
	dragged bool
}

func NewModify(source *surface.Source, pixelTolerance float64) *Modify {
	if pixelTolerance <= 0 {
		pixelTolerance = DefaultSnapTolerance
	}
	return &Modify{source: source, PixelTolerance: pixelTolerance}
}

func (md *Modify) Gesture() []*geojson.Feature {
	if md.feature == nil {
		return nil
	}
	return []*geojson.Feature{md.feature}
}

func (md *Modify) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	tolerance := ev.Tolerance(md.PixelTolerance)
	switch ev.Type {
	case surface.PointerDown:
		if ev.Alt {
			return true
		}
		return !md.grab(ev.Coordinate, tolerance)
	case surface.PointerDrag:
		if md.feature == nil {
			return true
		}
		md.moveTo(ev.Coordinate)
		md.dragged = true
		return false
	case surface.PointerUp:
		if md.feature == nil {
			return true
		}
		if md.dragged {
			md.moveTo(ev.Coordinate)
		}
		f, before, dragged := md.feature, md.before, md.dragged
		md.release()
		if !dragged || orb.Equal(f.Geometry, before.Geometry) {
			f.Geometry = before.Geometry
			return false
		}
		md.source.Changed(f, before)
		m.Emit(md, surface.Event{Type: surface.EventModifyEnd, Features: []*geojson.Feature{f}})
		return false
	case surface.PointerClick:
		if !ev.Alt {
			return true
		}
		if f, ok := md.removeAt(ev.Coordinate, tolerance); ok {
			m.Emit(md, surface.Event{Type: surface.EventModifyEnd, Features: []*geojson.Feature{f}})
			return false
		}
	}
	return true
}

func (md *Modify) grab(p orb.Point, tolerance float64) bool {
	hits := md.source.FeaturesAt(p, tolerance)
	for _, f := range hits {
		paths := explode(f.Geometry)
		if ref, ok := nearestVertex(paths, p, tolerance); ok {
			md.hold(f, paths, ref)
			return true
		}
	}
	for _, f := range hits {
		paths := explode(f.Geometry)
		if ref, q, ok := nearestSegment(paths, p, tolerance); ok {
			pa := &paths[ref.path]
			pa.points = append(pa.points[:ref.index], append([]orb.Point{q}, pa.points[ref.index:]...)...)
			md.hold(f, paths, ref)
			return true
		}
	}
	return false
}

func (md *Modify) hold(f *geojson.Feature, paths []path, ref vertexRef) {
	md.feature = f
	md.before = surface.CloneFeature(f)
	md.paths = paths
	md.vertex = ref
}

func (md *Modify) moveTo(p orb.Point) {
	md.paths[md.vertex.path].points[md.vertex.index] = p
	md.feature.Geometry = rebuild(md.feature.Geometry, md.paths)
}

func (md *Modify) release() {
	md.feature, md.before, md.paths = nil, nil, nil
	md.dragged = false
}

func (md *Modify) removeAt(p orb.Point, tolerance float64) (*geojson.Feature, bool) {
	for _, f := range md.source.FeaturesAt(p, tolerance) {
		paths := explode(f.Geometry)
		ref, ok := nearestVertex(paths, p, tolerance)
		if !ok {
			continue
		}
		pa := &paths[ref.path]
		if len(pa.points) <= pa.min {
			return nil, false
		}
		before := surface.CloneFeature(f)
		pa.points = append(pa.points[:ref.index], pa.points[ref.index+1:]...)
		f.Geometry = rebuild(f.Geometry, paths)
		md.source.Changed(f, before)
		return f, true
	}
	return nil, false
}

// Abort restores the geometry of an interrupted drag
func (md *Modify) Abort() {
	if md.feature != nil {
		md.feature.Geometry = md.before.Geometry
	}
	md.release()
}
