package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb/geojson"
)

// DefaultHitTolerance is the pixel tolerance of feature picking
const DefaultHitTolerance = 4

// Select picks the topmost feature under a click into a shared collection.
// Clicks on empty space clear the collection.
type Select struct {
	source       *surface.Source
	features     *surface.Collection
	HitTolerance float64
}

func NewSelect(source *surface.Source, features *surface.Collection, hitTolerance float64) *Select {
	if features == nil {
		features = surface.NewCollection()
	}
	return &Select{source: source, features: features, HitTolerance: hitTolerance}
}

// Features returns the selection collection
func (s *Select) Features() *surface.Collection {
	return s.features
}

func (s *Select) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	if ev.Type != surface.PointerClick {
		return true
	}

	var picked *geojson.Feature
	if hits := s.source.FeaturesAt(ev.Coordinate, ev.Tolerance(s.HitTolerance)); len(hits) > 0 {
		picked = hits[0]
	}

	var deselected []*geojson.Feature
	for _, f := range s.features.Items() {
		if f != picked {
			deselected = append(deselected, f)
		}
	}
	var selected []*geojson.Feature
	if picked != nil && !s.features.Contains(picked) {
		selected = append(selected, picked)
	}

	s.features.Clear()
	if picked != nil {
		s.features.Push(picked)
	}
	if len(selected) > 0 || len(deselected) > 0 {
		m.Emit(s, surface.Event{Type: surface.EventSelect, Features: selected, Deselected: deselected})
	}
	return true
}
