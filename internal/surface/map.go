package surface

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// Interaction is a behavior attached to the map that reacts to pointer events
type Interaction interface {
	// HandleEvent returns false to stop the event from reaching older interactions
	HandleEvent(m *Map, ev *MapEvent) bool
}

// Setupper is implemented by interactions that hook into the map when attached;
// the returned function is run on detach
type Setupper interface {
	Setup(m *Map) func()
}

// Aborter is implemented by interactions holding an in-progress gesture
type Aborter interface {
	Abort()
}

// Preprocessor is implemented by interactions that rewrite events before any
// interaction handles them (snapping)
type Preprocessor interface {
	Preprocess(m *Map, ev *MapEvent)
}

// GestureHolder is implemented by interactions that mutate features during a
// gesture; those features are excluded from snapping until the gesture ends
type GestureHolder interface {
	Gesture() []*geojson.Feature
}

// Subscription is the handle of an attached interaction. Listeners registered
// on it only fire while it is live.
type Subscription struct {
	m           *Map
	interaction Interaction
	listeners   map[EventType][]func(Event)
	teardown    func()
	closed      bool
}

// On registers fn for events of type t emitted by the interaction
func (s *Subscription) On(t EventType, fn func(Event)) {
	if s.closed {
		return
	}
	s.listeners[t] = append(s.listeners[t], fn)
}

// Listeners returns the number of registered listeners
func (s *Subscription) Listeners() int {
	n := 0
	for _, fns := range s.listeners {
		n += len(fns)
	}
	return n
}

// Interaction returns the attached interaction
func (s *Subscription) Interaction() Interaction {
	return s.interaction
}

// Closed reports whether the subscription was detached
func (s *Subscription) Closed() bool {
	return s.closed
}

// Close detaches the interaction and drops its listeners. Closing twice is a no-op.
func (s *Subscription) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.listeners = nil
	for i, sub := range s.m.subs {
		if sub == s {
			s.m.subs = append(s.m.subs[:i], s.m.subs[i+1:]...)
			break
		}
	}
	if s.teardown != nil {
		s.teardown()
		s.teardown = nil
	}
	if a, ok := s.interaction.(Aborter); ok {
		a.Abort()
	}
}

// Map is the editing surface: the set of attached interactions and the view resolution
type Map struct {
	subs       []*Subscription
	resolution float64
}

// NewMap creates a map with a view resolution of one map unit per pixel
func NewMap() *Map {
	return &Map{resolution: 1}
}

// SetResolution sets the view resolution in map units per pixel
func (m *Map) SetResolution(r float64) {
	if r > 0 {
		m.resolution = r
	}
}

// SetZoom sets the view resolution from a web mercator zoom level
func (m *Map) SetZoom(zoom float64) {
	m.SetResolution(ResolutionForZoom(zoom))
}

func (m *Map) Resolution() float64 {
	return m.resolution
}

// ResolutionForZoom returns the EPSG:3857 resolution of a 256px tile pyramid
func ResolutionForZoom(zoom float64) float64 {
	return 156543.03392804097 / math.Pow(2, zoom)
}

// AddInteraction attaches i and returns its subscription. Attaching an
// interaction twice returns the live subscription.
func (m *Map) AddInteraction(i Interaction) *Subscription {
	if s := m.subscription(i); s != nil {
		return s
	}
	s := &Subscription{
		m:           m,
		interaction: i,
		listeners:   make(map[EventType][]func(Event)),
	}
	m.subs = append(m.subs, s)
	if st, ok := i.(Setupper); ok {
		s.teardown = st.Setup(m)
	}
	return s
}

// RemoveInteraction detaches i. Detaching an interaction that is not attached is a no-op.
func (m *Map) RemoveInteraction(i Interaction) {
	if s := m.subscription(i); s != nil {
		s.Close()
	}
}

// HasInteraction reports whether i is attached
func (m *Map) HasInteraction(i Interaction) bool {
	return m.subscription(i) != nil
}

// Interactions returns the attached interactions, oldest first
func (m *Map) Interactions() []Interaction {
	result := make([]Interaction, len(m.subs))
	for i, s := range m.subs {
		result[i] = s.interaction
	}
	return result
}

// ListenerCount returns the number of listeners over all live subscriptions
func (m *Map) ListenerCount() int {
	n := 0
	for _, s := range m.subs {
		n += s.Listeners()
	}
	return n
}

// GestureFeatures returns the features held by in-progress gestures
func (m *Map) GestureFeatures() []*geojson.Feature {
	var result []*geojson.Feature
	for _, s := range m.subs {
		if g, ok := s.interaction.(GestureHolder); ok {
			result = append(result, g.Gesture()...)
		}
	}
	return result
}

func (m *Map) subscription(i Interaction) *Subscription {
	for _, s := range m.subs {
		if s.interaction == i {
			return s
		}
	}
	return nil
}

// EventCoordinate converts a lon/lat position to the display projection
func (m *Map) EventCoordinate(lon, lat float64) orb.Point {
	return project.Point(orb.Point{lon, lat}, project.WGS84.ToMercator)
}

// Dispatch delivers a pointer event: preprocessors first, then interactions
// newest first until one stops propagation
func (m *Map) Dispatch(ev *MapEvent) {
	if ev.Resolution <= 0 {
		ev.Resolution = m.resolution
	}
	subs := append([]*Subscription(nil), m.subs...)
	for _, s := range subs {
		if p, ok := s.interaction.(Preprocessor); ok && !s.closed {
			p.Preprocess(m, ev)
		}
	}
	for i := len(subs) - 1; i >= 0; i-- {
		s := subs[i]
		if s.closed {
			continue
		}
		if !s.interaction.HandleEvent(m, ev) {
			return
		}
	}
}

// Emit delivers ev to the listeners of the live subscription of i
func (m *Map) Emit(i Interaction, ev Event) {
	s := m.subscription(i)
	if s == nil {
		return
	}
	fns := append([]func(Event){}, s.listeners[ev.Type]...)
	for _, fn := range fns {
		if s.closed {
			return
		}
		fn(ev)
	}
}
