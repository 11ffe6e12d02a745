package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"geoeditor/internal/model"
	"geoeditor/internal/redis"
	"geoeditor/internal/service/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func docWith(name string) []byte {
	return []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","id":"f","geometry":{"type":"Point","coordinates":[139.7,35.68]},"properties":{"name":"` + name + `"}}]}`)
}

type fakeSnapshots struct {
	mu    sync.Mutex
	saved map[string]*model.Document
	fail  bool
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{saved: map[string]*model.Document{}}
}

func (f *fakeSnapshots) Save(_ context.Context, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	f.saved[doc.ID] = doc
	return nil
}

func (f *fakeSnapshots) All(context.Context) ([]*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []*model.Document
	for _, d := range f.saved {
		docs = append(docs, d)
	}
	return docs, nil
}

type fakeDocuments struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{docs: map[string][]byte{}}
}

func (f *fakeDocuments) Save(_ context.Context, key string, doc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[key] = doc
	return nil
}

func (f *fakeDocuments) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[key], nil
}

func (f *fakeDocuments) Sessions(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for k := range f.docs {
		if id, ok := redis.SessionFromKey(k); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func TestFlushSnapshots(t *testing.T) {
	m := session.NewManager()
	a := m.Create()
	m.Create()
	snaps := newFakeSnapshots()
	p := NewPersistence(m, snaps, nil, zap.NewNop())

	assert.Equal(t, 2, p.FlushSnapshots(context.Background()))
	assert.Equal(t, 0, p.FlushSnapshots(context.Background()))

	m.Touch(a.ID)
	snaps.fail = true
	assert.Equal(t, 0, p.FlushSnapshots(context.Background()))
	assert.Len(t, m.Dirty(), 1)

	snaps.fail = false
	assert.Equal(t, 1, p.FlushSnapshots(context.Background()))
	assert.Empty(t, m.Dirty())
}

func TestBackupDocuments(t *testing.T) {
	m := session.NewManager()
	s := m.Create()
	require.NoError(t, s.Store().SetGeoJSON(docWith("kept")))
	docs := newFakeDocuments()

	p := NewPersistence(m, nil, docs, zap.NewNop())
	assert.Equal(t, 1, p.BackupDocuments(context.Background()))

	stored, err := docs.Load(context.Background(), redis.DocumentKey(s.ID))
	require.NoError(t, err)
	assert.Contains(t, string(stored), "kept")
}

func TestRestoreSessions_DocumentsOverrideSnapshots(t *testing.T) {
	docs := newFakeDocuments()
	docs.docs[redis.DocumentKey("a")] = docWith("newer")
	snaps := newFakeSnapshots()
	snaps.saved["a"] = &model.Document{ID: "a", GeoJSON: docWith("older")}
	snaps.saved["b"] = &model.Document{ID: "b", GeoJSON: docWith("only-snapshot")}

	m := session.NewManager(session.WithPersister(docs))
	p := NewPersistence(m, snaps, docs, zap.NewNop())

	n, err := p.RestoreSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, m.Dirty())

	a, err := m.Get("a")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(a.Store().GeoJSON()), "newer"))
	assert.Equal(t, 1, a.Source().Len())

	b, err := m.Get("b")
	require.NoError(t, err)
	assert.Contains(t, string(b.Store().GeoJSON()), "only-snapshot")
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(zap.NewNop())

	ticks := make(chan struct{}, 16)
	s.Every(ctx, "tick", time.Millisecond, func(context.Context) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	cancel()
	s.Wait()
}

func TestStartAllWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := session.NewManager()
	m.Create()

	p := NewPersistence(m, newFakeSnapshots(), newFakeDocuments(), zap.NewNop())
	s := StartAllWorkers(ctx, p, Intervals{
		Redis:    time.Millisecond,
		Postgres: time.Millisecond,
		Sweep:    time.Hour,
		Idle:     time.Hour,
	}, zap.NewNop())

	assert.Eventually(t, func() bool { return len(m.Dirty()) == 0 }, time.Second, time.Millisecond)
	cancel()
	s.Wait()
	assert.Equal(t, 1, m.Count())
}
