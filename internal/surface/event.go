package surface

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// EventType names an event emitted by an interaction
type EventType string

const (
	EventSelect       EventType = "select"
	EventDrawEnd      EventType = "drawend"
	EventTranslateEnd EventType = "translateend"
	EventModifyEnd    EventType = "modifyend"
	EventDeleteEnd    EventType = "deleteend"
	EventTransformEnd EventType = "transformend"
	EventFillEnd      EventType = "fillend"
	EventHoleEnd      EventType = "holeend"
	EventUndo         EventType = "undo"
	EventRedo         EventType = "redo"
)

// Event is delivered to the listeners of a subscription
type Event struct {
	Type       EventType
	Features   []*geojson.Feature
	Deselected []*geojson.Feature
}

// PointerType is the kind of a map browser event
type PointerType string

const (
	PointerClick    PointerType = "click"
	PointerDblClick PointerType = "dblclick"
	PointerDown     PointerType = "pointerdown"
	PointerDrag     PointerType = "pointerdrag"
	PointerUp       PointerType = "pointerup"
	PointerMove     PointerType = "pointermove"
)

// MapEvent is a pointer event on the map, coordinates in the display projection
type MapEvent struct {
	Type       PointerType
	Coordinate orb.Point
	// Resolution in map units per pixel, filled from the map view when zero
	Resolution float64
	Shift      bool
	Alt        bool
}

// Tolerance converts a pixel tolerance to map units at the event resolution
func (e *MapEvent) Tolerance(px float64) float64 {
	r := e.Resolution
	if r <= 0 {
		r = 1
	}
	return px * r
}
