package interaction

import (
	"math"

	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const (
	// DefaultHandleTolerance is the pixel radius of the transform handles
	DefaultHandleTolerance = 8
	// RotateHandleOffset is the pixel distance of the rotate handle above the box
	RotateHandleOffset = 24
)

type transformMode int

const (
	modeNone transformMode = iota
	modeTranslate
	modeScale
	modeStretchX
	modeStretchY
	modeRotate
)

// Transform selects features and moves, scales, stretches or rotates them
// through handles placed on their bounding box.
type Transform struct {
	source          *surface.Source
	HitTolerance    float64
	HandleTolerance float64

	Translate        bool
	TranslateFeature bool
	Scale            bool
	Stretch          bool
	Rotate           bool
	// KeepAspectRatio reports whether scaling keeps proportions, shift by default
	KeepAspectRatio func(*surface.MapEvent) bool
	// AddCondition reports whether a click adds to the selection, shift by default
	AddCondition func(*surface.MapEvent) bool

	selection []*geojson.Feature
	center    *orb.Point

	mode    transformMode
	moved   bool
	start   orb.Point
	origin  orb.Point
	befores []*geojson.Feature
}

func shiftPressed(ev *surface.MapEvent) bool {
	return ev.Shift
}

func NewTransform(source *surface.Source, hitTolerance float64) *Transform {
	return &Transform{
		source:           source,
		HitTolerance:     hitTolerance,
		HandleTolerance:  DefaultHandleTolerance,
		Translate:        true,
		TranslateFeature: true,
		Scale:            true,
		Stretch:          true,
		Rotate:           true,
		KeepAspectRatio:  shiftPressed,
		AddCondition:     shiftPressed,
	}
}

// SetSelection replaces the selection and centers rotation on the first
// coordinate of the first feature
func (t *Transform) SetSelection(features []*geojson.Feature) {
	t.selection = append([]*geojson.Feature(nil), features...)
	t.center = nil
	if len(features) > 0 && features[0].Geometry != nil {
		if p, ok := firstCoordinate(features[0].Geometry); ok {
			t.center = &p
		}
	}
}

func (t *Transform) Selection() []*geojson.Feature {
	return append([]*geojson.Feature(nil), t.selection...)
}

// Center returns the rotation center, the box center unless one was set
func (t *Transform) Center() (orb.Point, bool) {
	if t.center != nil {
		return *t.center, true
	}
	b, ok := featureBound(t.selection)
	if !ok {
		return orb.Point{}, false
	}
	return b.Center(), true
}

func (t *Transform) SetCenter(p orb.Point) {
	t.center = &p
}

func (t *Transform) Gesture() []*geojson.Feature {
	if t.mode == modeNone {
		return nil
	}
	return t.Selection()
}

func (t *Transform) HandleEvent(m *surface.Map, ev *surface.MapEvent) bool {
	switch ev.Type {
	case surface.PointerClick:
		if t.mode != modeNone {
			return false
		}
		return !t.selectAt(m, ev)
	case surface.PointerDown:
		return !t.begin(m, ev)
	case surface.PointerDrag:
		if t.mode == modeNone {
			return true
		}
		t.drag(ev)
		return false
	case surface.PointerUp:
		if t.mode == modeNone {
			return true
		}
		t.drag(ev)
		t.end(m)
		return false
	}
	return true
}

// selectAt updates the selection from a click, reporting whether a feature was hit
func (t *Transform) selectAt(m *surface.Map, ev *surface.MapEvent) bool {
	hits := t.source.FeaturesAt(ev.Coordinate, ev.Tolerance(t.HitTolerance))
	if len(hits) == 0 {
		if len(t.selection) > 0 {
			deselected := t.selection
			t.selection, t.center = nil, nil
			m.Emit(t, surface.Event{Type: surface.EventSelect, Deselected: deselected})
		}
		return false
	}
	f := hits[0]
	if contains(t.selection, f) && (len(t.selection) == 1 || t.adding(ev)) {
		return true
	}
	var deselected []*geojson.Feature
	if t.adding(ev) {
		t.selection = append(t.selection, f)
	} else {
		deselected = t.selection
		t.selection = []*geojson.Feature{f}
	}
	t.center = nil
	m.Emit(t, surface.Event{Type: surface.EventSelect, Features: []*geojson.Feature{f}, Deselected: deselected})
	return true
}

func (t *Transform) adding(ev *surface.MapEvent) bool {
	return t.AddCondition != nil && t.AddCondition(ev)
}

func (t *Transform) begin(m *surface.Map, ev *surface.MapEvent) bool {
	p := ev.Coordinate
	tolerance := ev.Tolerance(t.HandleTolerance)

	if b, ok := featureBound(t.selection); ok {
		mode, origin := t.handleAt(b, p, tolerance, ev.Resolution)
		if mode == modeNone && t.Translate && b.Contains(p) {
			mode = modeTranslate
		}
		if mode != modeNone {
			t.startDrag(mode, p, origin)
			return true
		}
	}

	if !t.TranslateFeature {
		return false
	}
	hits := t.source.FeaturesAt(p, ev.Tolerance(t.HitTolerance))
	if len(hits) == 0 {
		return false
	}
	if !contains(t.selection, hits[0]) {
		t.selectAt(m, ev)
	}
	t.startDrag(modeTranslate, p, orb.Point{})
	return true
}

func (t *Transform) handleAt(b orb.Bound, p orb.Point, tolerance, resolution float64) (transformMode, orb.Point) {
	near := func(q orb.Point) bool { return planar.Distance(p, q) <= tolerance }

	if t.Rotate {
		top := orb.Point{(b.Min[0] + b.Max[0]) / 2, b.Max[1] + RotateHandleOffset*resolution}
		if near(top) {
			return modeRotate, orb.Point{}
		}
	}
	if t.Scale {
		corners := [][2]orb.Point{
			{b.Min, b.Max},
			{b.Max, b.Min},
			{{b.Min[0], b.Max[1]}, {b.Max[0], b.Min[1]}},
			{{b.Max[0], b.Min[1]}, {b.Min[0], b.Max[1]}},
		}
		for _, c := range corners {
			if near(c[0]) {
				return modeScale, c[1]
			}
		}
	}
	if t.Stretch {
		midX, midY := (b.Min[0]+b.Max[0])/2, (b.Min[1]+b.Max[1])/2
		edges := []struct {
			handle, origin orb.Point
			mode           transformMode
		}{
			{orb.Point{b.Min[0], midY}, orb.Point{b.Max[0], midY}, modeStretchX},
			{orb.Point{b.Max[0], midY}, orb.Point{b.Min[0], midY}, modeStretchX},
			{orb.Point{midX, b.Min[1]}, orb.Point{midX, b.Max[1]}, modeStretchY},
			{orb.Point{midX, b.Max[1]}, orb.Point{midX, b.Min[1]}, modeStretchY},
		}
		for _, e := range edges {
			if near(e.handle) {
				return e.mode, e.origin
			}
		}
	}
	return modeNone, orb.Point{}
}

func (t *Transform) startDrag(mode transformMode, p, origin orb.Point) {
	t.mode = mode
	t.moved = false
	t.start = p
	t.origin = origin
	if mode == modeRotate {
		t.origin, _ = t.Center()
	}
	t.befores = make([]*geojson.Feature, len(t.selection))
	for i, f := range t.selection {
		t.befores[i] = surface.CloneFeature(f)
	}
}

func (t *Transform) drag(ev *surface.MapEvent) {
	p := ev.Coordinate
	if p.Equal(t.start) && !t.moved {
		return
	}
	t.moved = true

	apply := func(fn func(orb.Geometry) orb.Geometry) {
		for i, f := range t.selection {
			f.Geometry = fn(t.befores[i].Geometry)
		}
	}

	switch t.mode {
	case modeTranslate:
		dx, dy := p[0]-t.start[0], p[1]-t.start[1]
		apply(func(g orb.Geometry) orb.Geometry { return translate(g, dx, dy) })
	case modeScale:
		sx := ratio(p[0]-t.origin[0], t.start[0]-t.origin[0])
		sy := ratio(p[1]-t.origin[1], t.start[1]-t.origin[1])
		if t.KeepAspectRatio != nil && t.KeepAspectRatio(ev) {
			s := math.Max(math.Abs(sx), math.Abs(sy))
			sx, sy = math.Copysign(s, sx), math.Copysign(s, sy)
		}
		apply(func(g orb.Geometry) orb.Geometry { return scale(g, t.origin, sx, sy) })
	case modeStretchX:
		sx := ratio(p[0]-t.origin[0], t.start[0]-t.origin[0])
		apply(func(g orb.Geometry) orb.Geometry { return scale(g, t.origin, sx, 1) })
	case modeStretchY:
		sy := ratio(p[1]-t.origin[1], t.start[1]-t.origin[1])
		apply(func(g orb.Geometry) orb.Geometry { return scale(g, t.origin, 1, sy) })
	case modeRotate:
		c := t.origin
		angle := math.Atan2(p[1]-c[1], p[0]-c[0]) - math.Atan2(t.start[1]-c[1], t.start[0]-c[0])
		apply(func(g orb.Geometry) orb.Geometry { return rotate(g, c, angle) })
	}
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 1
	}
	return a / b
}

func (t *Transform) end(m *surface.Map) {
	moved, befores := t.moved, t.befores
	t.mode, t.moved, t.befores = modeNone, false, nil
	if !moved {
		return
	}
	features := t.Selection()
	t.source.Batch(func() {
		for i, f := range features {
			t.source.Changed(f, befores[i])
		}
	})
	m.Emit(t, surface.Event{Type: surface.EventTransformEnd, Features: features})
}

// Abort restores an interrupted drag and drops the selection
func (t *Transform) Abort() {
	if t.mode != modeNone {
		for i, f := range t.selection {
			f.Geometry = t.befores[i].Geometry
		}
	}
	t.mode, t.moved, t.befores = modeNone, false, nil
	t.selection, t.center = nil, nil
}
