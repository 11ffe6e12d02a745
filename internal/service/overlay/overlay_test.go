package overlay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stations = `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[139.7,35.68]},"properties":{"name":"station"}}]}`

type messages struct{ last string }

func (m *messages) SetMessage(msg string) { m.last = msg }

func newServer(t *testing.T, hits *int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		switch r.URL.Path {
		case "/data/stations.geojson":
			w.Header().Set("Content-Type", "application/geo+json")
			_, _ = w.Write([]byte(stations))
		case "/data/broken.geojson":
			_, _ = w.Write([]byte("{"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoader_Get(t *testing.T) {
	srv := newServer(t, nil)
	l := NewLoader(srv.URL + "/")
	msg := &messages{}

	fc := l.Get(context.Background(), "stations", msg)
	require.NotNil(t, fc)
	assert.Len(t, fc.Features, 1)
	assert.Empty(t, msg.last)
}

func TestLoader_FailuresSetMessage(t *testing.T) {
	srv := newServer(t, nil)
	l := NewLoader(srv.URL)

	for _, name := range []string{"missing", "broken", "../secret"} {
		msg := &messages{}
		assert.Nil(t, l.Get(context.Background(), name, msg), name)
		assert.NotEmpty(t, msg.last, name)
	}
}

func TestLoader_NilMessenger(t *testing.T) {
	srv := newServer(t, nil)
	assert.Nil(t, NewLoader(srv.URL).Get(context.Background(), "missing", nil))
}

func TestMarkers_LoadOnce(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	m := NewMarkers(NewLoader(srv.URL))

	m.Init(context.Background(), "stations", nil)
	m.Init(context.Background(), "stations", nil)
	assert.Len(t, m.Collection().Features, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	m.Clear()
	assert.Empty(t, m.Collection().Features)

	m.Init(context.Background(), "stations", nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
