package interaction

import (
	"math"

	"geoeditor/internal/surface"
)

// DefaultSnapTolerance is the pixel distance under which pointers snap
const DefaultSnapTolerance = 10

// Snap moves pointer coordinates onto nearby vertices and edges of the source
// before other interactions see them.
type Snap struct {
	source         *surface.Source
	PixelTolerance float64
	Vertex         bool
	Edge           bool
}

func NewSnap(source *surface.Source, pixelTolerance float64) *Snap {
	if pixelTolerance <= 0 {
		pixelTolerance = DefaultSnapTolerance
	}
	return &Snap{source: source, PixelTolerance: pixelTolerance, Vertex: true, Edge: true}
}

func (s *Snap) Preprocess(m *surface.Map, ev *surface.MapEvent) {
	tolerance := ev.Tolerance(s.PixelTolerance)
	held := m.GestureFeatures()

	best := ev.Coordinate
	bestDist := math.Inf(1)
	for _, f := range s.source.FeaturesAt(ev.Coordinate, tolerance) {
		if contains(held, f) {
			continue
		}
		p, d, ok := nearestPoint(f.Geometry, ev.Coordinate, tolerance, s.Vertex, s.Edge)
		if ok && d < bestDist {
			best, bestDist = p, d
		}
	}
	ev.Coordinate = best
}

func (s *Snap) HandleEvent(*surface.Map, *surface.MapEvent) bool {
	return true
}
