package overlay

import (
	"context"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// Markers caches the location marker collection. It is fetched once and kept
// until cleared.
type Markers struct {
	loader *Loader

	mu         sync.RWMutex
	collection *geojson.FeatureCollection
}

func NewMarkers(loader *Loader) *Markers {
	return &Markers{loader: loader, collection: geojson.NewFeatureCollection()}
}

// Init loads the named marker document unless markers are already held
func (m *Markers) Init(ctx context.Context, name string, msg Messenger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.collection.Features) != 0 {
		return
	}
	if fc := m.loader.Get(ctx, name, msg); fc != nil {
		m.collection = fc
	}
}

func (m *Markers) Collection() *geojson.FeatureCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collection
}

func (m *Markers) Clear() {
	m.mu.Lock()
	m.collection = geojson.NewFeatureCollection()
	m.mu.Unlock()
}
