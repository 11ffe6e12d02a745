package interaction

import (
	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type fixture struct {
	m      *surface.Map
	source *surface.Source
	events []surface.Event
}

func newFixture() *fixture {
	return &fixture{m: surface.NewMap(), source: surface.NewSource()}
}

// attach adds i to the map and records every event it emits
func (fx *fixture) attach(i surface.Interaction) *surface.Subscription {
	sub := fx.m.AddInteraction(i)
	for _, t := range []surface.EventType{
		surface.EventSelect, surface.EventDrawEnd, surface.EventTranslateEnd, surface.EventModifyEnd,
		surface.EventDeleteEnd, surface.EventTransformEnd, surface.EventFillEnd, surface.EventHoleEnd,
	} {
		sub.On(t, func(ev surface.Event) { fx.events = append(fx.events, ev) })
	}
	return sub
}

func (fx *fixture) send(t surface.PointerType, x, y float64) {
	fx.m.Dispatch(&surface.MapEvent{Type: t, Coordinate: orb.Point{x, y}})
}

func (fx *fixture) sendAlt(t surface.PointerType, x, y float64) {
	fx.m.Dispatch(&surface.MapEvent{Type: t, Coordinate: orb.Point{x, y}, Alt: true})
}

func (fx *fixture) drag(x1, y1, x2, y2 float64) {
	fx.send(surface.PointerDown, x1, y1)
	fx.send(surface.PointerDrag, (x1+x2)/2, (y1+y2)/2)
	fx.send(surface.PointerDrag, x2, y2)
	fx.send(surface.PointerUp, x2, y2)
}

func (fx *fixture) add(g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	fx.source.AddFeature(f)
	return f
}

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}
}
