package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Translate drags the selected features. Only features of the collection can
// be grabbed; grabbing one moves the whole selection.
type Translate struct {
	source       *surface.Source
	features     *surface.Collection
	HitTolerance float64

	origin  orb.Point
	last    orb.Point
	befores map[*geojson.Feature]*geojson.Feature
	moving  []*geojson.Feature
}

func NewTranslate(source *surface.Source, features *surface.Collection, hitTolerance float64) *Translate {
	return &Translate{source: source, features: features, HitTolerance: hitTolerance}
}

func (t *Translate) Gesture() []*geojson.Feature {
	return t.moving
}

func (t *Translate) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	switch ev.Type {
	case surface.PointerDown:
		for _, f := range t.source.FeaturesAt(ev.Coordinate, ev.Tolerance(t.HitTolerance)) {
			if t.features.Contains(f) {
				t.start(ev.Coordinate)
				return false
			}
		}
	case surface.PointerDrag:
		if t.moving == nil {
			return true
		}
		t.move(ev.Coordinate)
		return false
	case surface.PointerUp:
		if t.moving == nil {
			return true
		}
		t.move(ev.Coordinate)
		moved := t.moving
		befores := t.befores
		t.moving, t.befores = nil, nil
		if t.last == t.origin {
			for _, f := range moved {
				f.Geometry = befores[f].Geometry
			}
			return false
		}
		t.source.Batch(func() {
			for _, f := range moved {
				t.source.Changed(f, befores[f])
			}
		})
		m.Emit(t, surface.Event{Type: surface.EventTranslateEnd, Features: moved})
		return false
	}
	return true
}

func (t *Translate) start(p orb.Point) {
	t.origin, t.last = p, p
	t.moving = t.features.Items()
	t.befores = make(map[*geojson.Feature]*geojson.Feature, len(t.moving))
	for _, f := range t.moving {
		t.befores[f] = surface.CloneFeature(f)
	}
}

func (t *Translate) move(p orb.Point) {
	dx, dy := p[0]-t.last[0], p[1]-t.last[1]
	if dx == 0 && dy == 0 {
		return
	}
	for _, f := range t.moving {
		f.Geometry = translate(f.Geometry, dx, dy)
	}
	t.last = p
}

// Abort puts an interrupted drag back in place
func (t *Translate) Abort() {
	for _, f := range t.moving {
		if before, ok := t.befores[f]; ok {
			f.Geometry = before.Geometry
		}
	}
	t.moving, t.befores = nil, nil
}
