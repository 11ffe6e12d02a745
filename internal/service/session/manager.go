package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"geoeditor/internal/editor"
	"geoeditor/internal/featurestore"
	"geoeditor/internal/metrics"
	"geoeditor/internal/model"
	"geoeditor/internal/redis"
	"geoeditor/internal/service/storage"
	"geoeditor/internal/util"

	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown session ids
var ErrSessionNotFound = errors.New("session not found")

// SnapshotLoader reads the last snapshot of a session document, nil when there is none
type SnapshotLoader interface {
	Load(ctx context.Context, id string) (*model.Document, error)
}

// Manager keeps the live editing sessions
type Manager struct {
	storage storage.Storage[string, *Session]

	logger        *zap.Logger
	persister     featurestore.Persister
	snapshots     SnapshotLoader
	hitTolerance  float64
	snapTolerance float64
	historyLimit  int
	newID         func() string
	onDispose     func(id string)
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithPersister makes every session store write its document through p
func WithPersister(p featurestore.Persister) Option {
	return func(m *Manager) {
		m.persister = p
	}
}

// WithSnapshots lets Open fall back to the snapshots of sessions the persister lacks
func WithSnapshots(l SnapshotLoader) Option {
	return func(m *Manager) {
		m.snapshots = l
	}
}

// WithTolerances sets the pixel tolerances of new editors, 0 keeps a default
func WithTolerances(hit, snap float64) Option {
	return func(m *Manager) {
		m.hitTolerance = hit
		m.snapTolerance = snap
	}
}

func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		m.historyLimit = n
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithDisposeHook is called with the id of every disposed session
func WithDisposeHook(fn func(id string)) Option {
	return func(m *Manager) {
		m.onDispose = fn
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		storage: storage.NewMemoryStorage[string, *Session](),
		logger:  zap.NewNop(),
		newID:   util.ShortUUID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts an empty session
func (m *Manager) Create() *Session {
	s := m.build(m.newID())
	m.storage.Set(s.ID, s)
	metrics.SessionsActive.Inc()
	m.logger.Info("session created", zap.String("session", s.ID))
	return s
}

// Restore starts a session under a known id. The document is imported when
// given, otherwise it is loaded from the persister.
func (m *Manager) Restore(ctx context.Context, id string, doc []byte) (*Session, error) {
	if _, exists := m.storage.Get(id); exists {
		return nil, fmt.Errorf("restore %s: session exists", id)
	}
	s := m.build(id)
	var err error
	if doc != nil {
		err = s.store.SetGeoJSON(doc)
	} else {
		err = s.store.Load(ctx)
	}
	if err != nil {
		s.editor.Dispose()
		return nil, fmt.Errorf("restore %s: %w", id, err)
	}
	if err := s.editor.Lifecycle().Redraw(); err != nil {
		s.editor.Dispose()
		return nil, fmt.Errorf("restore %s: %w", id, err)
	}
	m.storage.Set(id, s)
	metrics.SessionsActive.Inc()
	m.logger.Info("session restored", zap.String("session", id), zap.Int("features", s.store.Count()))
	return s, nil
}

func (m *Manager) build(id string) *Session {
	log := m.logger.With(zap.String("session", id))
	storeOpts := []featurestore.Option{featurestore.WithLogger(log)}
	if m.persister != nil {
		storeOpts = append(storeOpts, featurestore.WithPersister(m.persister, redis.DocumentKey(id)))
	}
	editorOpts := []editor.Option{editor.WithLogger(log)}
	if m.hitTolerance > 0 {
		editorOpts = append(editorOpts, editor.WithHitTolerance(m.hitTolerance))
	}
	if m.snapTolerance > 0 {
		editorOpts = append(editorOpts, editor.WithSnapTolerance(m.snapTolerance))
	}
	if m.historyLimit > 0 {
		editorOpts = append(editorOpts, editor.WithHistoryLimit(m.historyLimit))
	}
	return newSession(id, featurestore.New(storeOpts...), editorOpts...)
}

func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.storage.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Touch marks a session as changed for the persistence workers
func (m *Manager) Touch(id string) {
	m.storage.MarkDirty(id)
}

// Dispose tears the session down and forgets it along with its document
func (m *Manager) Dispose(id string) error {
	if err := m.evict(id); err != nil {
		return err
	}
	if m.onDispose != nil {
		m.onDispose(id)
	}
	m.logger.Info("session disposed", zap.String("session", id))
	return nil
}

// evict drops a live session, its persisted document stays
func (m *Manager) evict(id string) error {
	s, ok := m.storage.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.dispose()
	m.storage.Delete(id)
	metrics.SessionsActive.Dec()
	return nil
}

// Open returns the live session, refreshing its idle clock, or restores it
// from the persister and then from the snapshots
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.storage.Get(id); ok {
		m.storage.MarkSeen(id)
		return s, nil
	}
	if m.persister != nil {
		data, err := m.persister.Load(ctx, redis.DocumentKey(id))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", id, err)
		}
		if data != nil {
			return m.Restore(ctx, id, data)
		}
	}
	if m.snapshots != nil {
		doc, err := m.snapshots.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", id, err)
		}
		if doc != nil {
			return m.Restore(ctx, id, doc.GeoJSON)
		}
	}
	return nil, ErrSessionNotFound
}

// List returns the sessions, oldest first
func (m *Manager) List() []*Session {
	sessions := m.storage.GetAllValues()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

func (m *Manager) ForEach(fn func(s *Session) bool) {
	m.storage.ForEach(func(_ string, s *Session) bool {
		return fn(s)
	})
}

func (m *Manager) Count() int {
	return m.storage.Count()
}

// Dirty returns the sessions touched since the last ClearDirty
func (m *Manager) Dirty() []*Session {
	dirty := m.storage.GetDirty()
	result := make([]*Session, 0, len(dirty))
	for _, s := range dirty {
		result = append(result, s)
	}
	return result
}

func (m *Manager) ClearDirty(ids []string) {
	m.storage.ClearDirty(ids)
}

// SweepIdle evicts the sessions without activity for longer than idle and
// reports how many went. Only sessions whose document is held by the persister
// or by an up to date snapshot are evicted, so Open can bring them back.
func (m *Manager) SweepIdle(idle time.Duration) int {
	if m.persister == nil && m.snapshots == nil {
		return 0
	}
	dirty := m.storage.GetDirty()
	n := 0
	for _, id := range m.storage.IdleSince(time.Now().Add(-idle)) {
		if _, unsaved := dirty[id]; unsaved && m.persister == nil {
			continue
		}
		if err := m.evict(id); err == nil {
			n++
		}
	}
	if n > 0 {
		m.logger.Info("idle sessions evicted", zap.Int("count", n))
	}
	return n
}
