package interaction

import (
	"geoeditor/internal/surface"
)

// Delete removes every feature under a click
type Delete struct {
	source       *surface.Source
	HitTolerance float64
}

func NewDelete(source *surface.Source, hitTolerance float64) *Delete {
	return &Delete{source: source, HitTolerance: hitTolerance}
}

func (d *Delete) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	if ev.Type != surface.PointerClick {
		return true
	}
	hits := d.source.FeaturesAt(ev.Coordinate, ev.Tolerance(d.HitTolerance))
	if len(hits) == 0 {
		return true
	}
	d.source.Batch(func() {
		for _, f := range hits {
			d.source.RemoveFeature(f)
		}
	})
	m.Emit(d, surface.Event{Type: surface.EventDeleteEnd, Features: hits})
	return false
}
