package surface

import "github.com/paulmach/orb/geojson"

// Collection is an order-preserving set of features
type Collection struct {
	items []*geojson.Feature
}

// NewCollection creates a collection holding the given features
func NewCollection(features ...*geojson.Feature) *Collection {
	c := &Collection{}
	for _, f := range features {
		c.Push(f)
	}
	return c
}

// Push appends a feature unless it is already present
func (c *Collection) Push(f *geojson.Feature) {
	if f == nil || c.Contains(f) {
		return
	}
	c.items = append(c.items, f)
}

// Remove drops a feature, reporting whether it was present
func (c *Collection) Remove(f *geojson.Feature) bool {
	for i, item := range c.items {
		if item == f {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Collection) Contains(f *geojson.Feature) bool {
	for _, item := range c.items {
		if item == f {
			return true
		}
	}
	return false
}

func (c *Collection) Clear() {
	c.items = nil
}

// Items returns a copy of the features in insertion order
func (c *Collection) Items() []*geojson.Feature {
	return append([]*geojson.Feature(nil), c.items...)
}

func (c *Collection) Len() int {
	return len(c.items)
}
