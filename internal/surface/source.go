package surface

import (
	"math"
	"sort"

	"geoeditor/internal/util"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// minExtent keeps point bounds non-degenerate for the R-tree
const minExtent = 1e-9

// SourceEventType names a change of the source
type SourceEventType int

const (
	SourceAdd SourceEventType = iota
	SourceRemove
	SourceChange
	SourceClear
	SourceBatchStart
	SourceBatchEnd
)

// SourceEvent describes a change of the source. For SourceChange, Before holds
// a copy of the feature taken before the mutation.
type SourceEvent struct {
	Type     SourceEventType
	Feature  *geojson.Feature
	Before   *geojson.Feature
	Features []*geojson.Feature
}

// featureSpatial represents a feature with its bounds for R-tree indexing
type featureSpatial struct {
	feature *geojson.Feature
	id      string
	seq     int
	bound   orb.Bound
	indexed bool
}

// Bounds implements the rtreego.Spatial interface
func (s *featureSpatial) Bounds() rtreego.Rect {
	minX, minY := s.bound.Min[0], s.bound.Min[1]
	width := s.bound.Max[0] - minX
	height := s.bound.Max[1] - minY
	if width < minExtent {
		width = minExtent
	}
	if height < minExtent {
		height = minExtent
	}

	rect, _ := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{width, height})
	return rect
}

// Source is the live vector source of the map: features in the display projection,
// addressable by identity and indexed for hit testing
type Source struct {
	features  []*geojson.Feature
	entries   map[*geojson.Feature]*featureSpatial
	byID      map[string]*geojson.Feature
	index     *rtreego.Rtree
	seq       int
	watchers  map[int]func(SourceEvent)
	watchSeq  int
	batchDeep int
}

// NewSource creates an empty source
func NewSource() *Source {
	return &Source{
		entries:  make(map[*geojson.Feature]*featureSpatial),
		byID:     make(map[string]*geojson.Feature),
		index:    rtreego.NewTree(2, 25, 50),
		watchers: make(map[int]func(SourceEvent)),
	}
}

// Watch registers fn for every change of the source and returns its cancel function
func (s *Source) Watch(fn func(SourceEvent)) func() {
	s.watchSeq++
	key := s.watchSeq
	s.watchers[key] = fn
	return func() {
		delete(s.watchers, key)
	}
}

// Watchers returns the number of registered watchers
func (s *Source) Watchers() int {
	return len(s.watchers)
}

func (s *Source) notify(ev SourceEvent) {
	keys := make([]int, 0, len(s.watchers))
	for k := range s.watchers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if fn, ok := s.watchers[k]; ok {
			fn(ev)
		}
	}
}

// Batch groups the changes made by fn into one unit for watchers
func (s *Source) Batch(fn func()) {
	s.batchDeep++
	if s.batchDeep == 1 {
		s.notify(SourceEvent{Type: SourceBatchStart})
	}
	defer func() {
		s.batchDeep--
		if s.batchDeep == 0 {
			s.notify(SourceEvent{Type: SourceBatchEnd})
		}
	}()
	fn()
}

// AddFeature adds a feature, ignoring features already present
func (s *Source) AddFeature(f *geojson.Feature) {
	if !s.insert(f) {
		return
	}
	s.notify(SourceEvent{Type: SourceAdd, Feature: f})
}

// AddFeatures adds several features as one batch
func (s *Source) AddFeatures(features []*geojson.Feature) {
	s.Batch(func() {
		for _, f := range features {
			s.AddFeature(f)
		}
	})
}

func (s *Source) insert(f *geojson.Feature) bool {
	if f == nil {
		return false
	}
	if _, ok := s.entries[f]; ok {
		return false
	}
	s.seq++
	entry := &featureSpatial{
		feature: f,
		id:      util.FeatureID(f.ID),
		seq:     s.seq,
	}
	s.entries[f] = entry
	s.features = append(s.features, f)
	if entry.id != "" {
		s.byID[entry.id] = f
	}
	s.indexEntry(entry)
	return true
}

// indexEntry adds entry to the R-tree; features without geometry stay out of it
func (s *Source) indexEntry(entry *featureSpatial) {
	if entry.feature.Geometry == nil {
		return
	}
	entry.bound = entry.feature.Geometry.Bound()
	s.index.Insert(entry)
	entry.indexed = true
}

func (s *Source) unindexEntry(entry *featureSpatial) {
	if !entry.indexed {
		return
	}
	s.index.Delete(entry)
	entry.indexed = false
}

// RemoveFeature removes a feature, reporting whether it was present
func (s *Source) RemoveFeature(f *geojson.Feature) bool {
	entry, ok := s.entries[f]
	if !ok {
		return false
	}
	s.unindexEntry(entry)
	delete(s.entries, f)
	if entry.id != "" && s.byID[entry.id] == f {
		delete(s.byID, entry.id)
	}
	for i, item := range s.features {
		if item == f {
			s.features = append(s.features[:i], s.features[i+1:]...)
			break
		}
	}
	s.notify(SourceEvent{Type: SourceRemove, Feature: f})
	return true
}

// Changed must be called after a feature's geometry, identity or attributes were
// mutated in place; before is a copy of the feature prior to the mutation.
func (s *Source) Changed(f *geojson.Feature, before *geojson.Feature) {
	entry, ok := s.entries[f]
	if !ok {
		return
	}
	s.unindexEntry(entry)
	if entry.id != "" && s.byID[entry.id] == f {
		delete(s.byID, entry.id)
	}
	entry.id = util.FeatureID(f.ID)
	if entry.id != "" {
		s.byID[entry.id] = f
	}
	s.indexEntry(entry)
	s.notify(SourceEvent{Type: SourceChange, Feature: f, Before: before})
}

// Replace swaps the content of f with the one of state, used to restore history
func (s *Source) Replace(f *geojson.Feature, state *geojson.Feature) {
	before := CloneFeature(f)
	f.ID = state.ID
	f.Geometry = nil
	if state.Geometry != nil {
		f.Geometry = orb.Clone(state.Geometry)
	}
	f.Properties = state.Properties.Clone()
	s.Changed(f, before)
}

// Clear removes every feature
func (s *Source) Clear() {
	removed := s.features
	s.features = nil
	s.entries = make(map[*geojson.Feature]*featureSpatial)
	s.byID = make(map[string]*geojson.Feature)
	s.index = rtreego.NewTree(2, 25, 50)
	s.notify(SourceEvent{Type: SourceClear, Features: removed})
}

// FeatureByID returns the feature with the given identity
func (s *Source) FeatureByID(id string) (*geojson.Feature, bool) {
	if id == "" {
		return nil, false
	}
	f, ok := s.byID[id]
	return f, ok
}

// Has reports whether the very feature object is in the source
func (s *Source) Has(f *geojson.Feature) bool {
	_, ok := s.entries[f]
	return ok
}

// Features returns the features in insertion order
func (s *Source) Features() []*geojson.Feature {
	return append([]*geojson.Feature(nil), s.features...)
}

func (s *Source) Len() int {
	return len(s.features)
}

// FeaturesAt returns the features within tolerance of p, topmost first
func (s *Source) FeaturesAt(p orb.Point, tolerance float64) []*geojson.Feature {
	if len(s.features) == 0 {
		return nil
	}
	size := 2 * tolerance
	if size < minExtent {
		size = minExtent
	}
	rect, err := rtreego.NewRect(rtreego.Point{p[0] - tolerance, p[1] - tolerance}, []float64{size, size})
	if err != nil {
		return nil
	}

	var hits []*featureSpatial
	for _, item := range s.index.SearchIntersect(rect) {
		entry := item.(*featureSpatial)
		if Hit(entry.feature.Geometry, p, tolerance) {
			hits = append(hits, entry)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq > hits[j].seq })

	result := make([]*geojson.Feature, len(hits))
	for i, h := range hits {
		result[i] = h.feature
	}
	return result
}

// ForEachAt calls fn for the features within tolerance of p, topmost first,
// until fn returns true
func (s *Source) ForEachAt(p orb.Point, tolerance float64, fn func(*geojson.Feature) bool) {
	for _, f := range s.FeaturesAt(p, tolerance) {
		if fn(f) {
			return
		}
	}
}

// FeaturesInBound returns the features whose extent intersects b, in insertion order
func (s *Source) FeaturesInBound(b orb.Bound) []*geojson.Feature {
	if len(s.features) == 0 {
		return nil
	}
	w, h := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	if w < minExtent {
		w = minExtent
	}
	if h < minExtent {
		h = minExtent
	}
	rect, err := rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, []float64{w, h})
	if err != nil {
		return nil
	}

	var entries []*featureSpatial
	for _, item := range s.index.SearchIntersect(rect) {
		entries = append(entries, item.(*featureSpatial))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]*geojson.Feature, len(entries))
	for i, e := range entries {
		result[i] = e.feature
	}
	return result
}

// Hit reports whether p lies within tolerance of g, or inside g for polygons
func Hit(g orb.Geometry, p orb.Point, tolerance float64) bool {
	switch g := g.(type) {
	case orb.Point:
		return planar.Distance(g, p) <= tolerance
	case orb.MultiPoint:
		for _, pt := range g {
			if planar.Distance(pt, p) <= tolerance {
				return true
			}
		}
	case orb.LineString:
		return lineDistance(g, p) <= tolerance
	case orb.MultiLineString:
		for _, ls := range g {
			if lineDistance(ls, p) <= tolerance {
				return true
			}
		}
	case orb.Ring:
		return planar.RingContains(g, p) || lineDistance(orb.LineString(g), p) <= tolerance
	case orb.Polygon:
		return polygonHit(g, p, tolerance)
	case orb.MultiPolygon:
		for _, poly := range g {
			if polygonHit(poly, p, tolerance) {
				return true
			}
		}
	case orb.Collection:
		for _, child := range g {
			if Hit(child, p, tolerance) {
				return true
			}
		}
	}
	return false
}

func polygonHit(poly orb.Polygon, p orb.Point, tolerance float64) bool {
	if planar.PolygonContains(poly, p) {
		return true
	}
	for _, r := range poly {
		if lineDistance(orb.LineString(r), p) <= tolerance {
			return true
		}
	}
	return false
}

func lineDistance(ls orb.LineString, p orb.Point) float64 {
	if len(ls) == 0 {
		return math.Inf(1)
	}
	if len(ls) == 1 {
		return planar.Distance(ls[0], p)
	}
	best := -1.0
	for i := 1; i < len(ls); i++ {
		d := planar.DistanceFromSegment(ls[i-1], ls[i], p)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// CloneFeature deep-copies a feature
func CloneFeature(f *geojson.Feature) *geojson.Feature {
	if f == nil {
		return nil
	}
	c := &geojson.Feature{
		ID:         f.ID,
		Type:       f.Type,
		Properties: f.Properties.Clone(),
	}
	if f.Geometry != nil {
		c.Geometry = orb.Clone(f.Geometry)
	}
	return c
}
