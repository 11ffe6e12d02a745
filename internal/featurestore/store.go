package featurestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"geoeditor/internal/model"
	"geoeditor/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"go.uber.org/zap"
)

// ErrInvalidDocument is returned when imported data is not a feature collection
var ErrInvalidDocument = errors.New("invalid geojson document")

// persistTimeout bounds a single persister write
const persistTimeout = 5 * time.Second

// Persister stores documents outside the process
type Persister interface {
	Save(ctx context.Context, key string, doc []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Store holds the committed feature collection of an editing session as a
// GeoJSON document in EPSG:4326. Features handed to and read from the store
// are in the display projection (EPSG:3857).
type Store struct {
	mu       sync.RWMutex
	document []byte
	count    int
	refresh  bool
	version  uint64

	persister Persister
	key       string
	logger    *zap.Logger
	newID     func() string
}

type Option func(*Store)

// WithPersister writes every document replacement under key
func WithPersister(p Persister, key string) Option {
	return func(s *Store) {
		s.persister = p
		s.key = key
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithIDGenerator replaces the identity generator, uuid v4 by default
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// New creates an empty store with a pending refresh request
func New(opts ...Option) *Store {
	s := &Store{
		logger: zap.NewNop(),
		newID:  util.NewFeatureID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.document = mustMarshal(geojson.NewFeatureCollection())
	s.refresh = true
	return s
}

// SetFeatures replaces the collection. Features lacking an identity get one and
// features lacking attributes get the defaults plus their ordinal; both are
// written on the given features.
func (s *Store) SetFeatures(features []*geojson.Feature) error {
	fc := geojson.NewFeatureCollection()
	for i, f := range features {
		s.normalize(f, i)
		fc.Append(reproject(f, project.Mercator.ToWGS84))
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	s.replace(data, len(fc.Features))
	return nil
}

func (s *Store) normalize(f *geojson.Feature, i int) {
	if util.FeatureID(f.ID) == "" {
		f.ID = s.newID()
	}
	if len(f.Properties) == 0 {
		f.Properties = model.DefaultProperties()
		f.Properties[model.PropNo] = i + 1
	}
}

// Features parses the document into new features in the display projection.
// Features without geometry are kept.
func (s *Store) Features() ([]*geojson.Feature, error) {
	fc, err := s.collection()
	if err != nil {
		return nil, err
	}
	result := make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry != nil {
			f.Geometry = project.Geometry(f.Geometry, project.WGS84.ToMercator)
		}
		result = append(result, f)
	}
	return result, nil
}

func (s *Store) collection() (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(s.GeoJSON())
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return fc, nil
}

// GeoJSON returns a copy of the document
func (s *Store) GeoJSON() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.document...)
}

// SetGeoJSON imports a document given in EPSG:4326. The current document is
// kept when data does not parse.
func (s *Store) SetGeoJSON(data []byte) error {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	fc.ExtraMembers = nil
	for i, f := range fc.Features {
		s.normalize(f, i)
	}
	out, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	s.replace(out, len(fc.Features))
	return nil
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Version increases with every document replacement
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Clear empties the collection and requests a refresh
func (s *Store) Clear() {
	s.replace(mustMarshal(geojson.NewFeatureCollection()), 0)
	s.SetRefresh(true)
}

func (s *Store) Refresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Store) SetRefresh(v bool) {
	s.mu.Lock()
	s.refresh = v
	s.mu.Unlock()
}

func (s *Store) replace(data []byte, count int) {
	s.mu.Lock()
	s.document = data
	s.count = count
	s.version++
	s.mu.Unlock()
	s.persist(data)
}

func (s *Store) persist(data []byte) {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, s.key, data); err != nil {
		s.logger.Warn("persist document", zap.String("key", s.key), zap.Error(err))
	}
}

// Load restores the document from the persister. A missing document leaves
// the store untouched.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	data, err := s.persister.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load document %s: %w", s.key, err)
	}
	if len(data) == 0 {
		return nil
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	s.mu.Lock()
	s.document = data
	s.count = len(fc.Features)
	s.version++
	s.refresh = true
	s.mu.Unlock()
	return nil
}

func reproject(f *geojson.Feature, proj orb.Projection) *geojson.Feature {
	c := &geojson.Feature{
		ID:         f.ID,
		Type:       f.Type,
		Properties: f.Properties.Clone(),
	}
	if f.Geometry != nil {
		c.Geometry = project.Geometry(orb.Clone(f.Geometry), proj)
	}
	return c
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
