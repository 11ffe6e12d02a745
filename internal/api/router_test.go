package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"geoeditor/internal/service/overlay"
	"geoeditor/internal/service/session"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const squareDoc = `{"type":"FeatureCollection","features":[{"type":"Feature","id":"a","geometry":{"type":"Polygon","coordinates":[[[139.7,35.68],[139.71,35.68],[139.71,35.69],[139.7,35.69],[139.7,35.68]]]},"properties":{"name":"block","color":"red","level":0}}]}`

type state struct {
	ID        string   `json:"id"`
	Tool      string   `json:"tool"`
	Snap      bool     `json:"snap"`
	Selection []string `json:"selection"`
	CanUndo   bool     `json:"canUndo"`
	CanRedo   bool     `json:"canRedo"`
	Features  int      `json:"features"`
	Refresh   bool     `json:"refresh"`
}

type server struct {
	t      *testing.T
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	gin.SetMode(gin.TestMode)

	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/stations.geojson" {
			_, _ = w.Write([]byte(squareDoc))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(data.Close)

	loader := overlay.NewLoader(data.URL)
	router := NewRouter(Deps{
		Sessions: session.NewManager(),
		Overlay:  loader,
		Markers:  overlay.NewMarkers(loader),
		LinkBase: "https://maps.example.com/",
		Info:     map[string]string{"version": "test"},
		Logger:   zap.NewNop(),
	})
	return &server{t: t, router: router}
}

func (s *server) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) state(w *httptest.ResponseRecorder) state {
	var st state
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &st), w.Body.String())
	return st
}

func (s *server) create() string {
	w := s.do(http.MethodPost, "/api/sessions", "")
	require.Equal(s.t, http.StatusCreated, w.Code)
	return "/api/sessions/" + s.state(w).ID
}

func TestHealthz(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateSession(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)

	st := s.state(w)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, "default", st.Tool)
	assert.Equal(t, 0, st.Features)
	assert.True(t, st.Refresh)
	assert.Empty(t, st.Selection)

	w = s.do(http.MethodGet, "/api/sessions", "")
	assert.JSONEq(t, `{"sessions":["`+st.ID+`"]}`, w.Body.String())
}

func TestUnknownSession(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDrawPointThroughEvents(t *testing.T) {
	s := newServer(t)
	base := s.create()

	w := s.do(http.MethodPut, base+"/tool", `{"tool":"point"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "point", s.state(w).Tool)

	w = s.do(http.MethodPost, base+"/events", `{"events":[{"type":"click","lon":139.7,"lat":35.68}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	st := s.state(w)
	assert.Equal(t, "translate", st.Tool)
	assert.Equal(t, 1, st.Features)
	assert.True(t, st.CanUndo)

	w = s.do(http.MethodGet, base+"/geojson", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Refresh"))
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	p := fc.Features[0].Geometry.(orb.Point)
	assert.InDelta(t, 139.7, p.Lon(), 1e-9)
	assert.InDelta(t, 35.68, p.Lat(), 1e-9)

	w = s.do(http.MethodPost, base+"/refresh", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, base+"/geojson", "")
	assert.Equal(t, "false", w.Header().Get("X-Refresh"))

	w = s.do(http.MethodPost, base+"/undo", "")
	st = s.state(w)
	assert.Equal(t, 0, st.Features)
	assert.True(t, st.CanRedo)

	w = s.do(http.MethodPost, base+"/redo", "")
	assert.Equal(t, 1, s.state(w).Features)
}

func TestSetTool_Unknown(t *testing.T) {
	s := newServer(t)
	base := s.create()

	w := s.do(http.MethodPut, base+"/tool", `{"tool":"lasso"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, base, "")
	assert.Equal(t, "lasso", s.state(w).Tool)

	w = s.do(http.MethodPut, base+"/tool", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvents_Validation(t *testing.T) {
	s := newServer(t)
	base := s.create()

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, base+"/events", `{"events":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, base+"/events", `{"events":[{"type":"wheel"}]}`).Code)
}

func TestToggleSnap(t *testing.T) {
	s := newServer(t)
	base := s.create()

	assert.True(t, s.state(s.do(http.MethodPost, base+"/snap", "")).Snap)
	assert.False(t, s.state(s.do(http.MethodPost, base+"/snap", "")).Snap)
}

func TestGeoJSONImportAndExport(t *testing.T) {
	s := newServer(t)
	base := s.create()

	w := s.do(http.MethodPut, base+"/geojson", `{"type":"Point"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, base+"/geojson", squareDoc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.state(w).Features)

	w = s.do(http.MethodGet, base+"/export?format=geojson&pretty=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export.geojson")
	assert.Contains(t, w.Body.String(), `"$schema"`)
	assert.NotContains(t, w.Body.String(), `"id": "a"`)
	assert.Contains(t, w.Body.String(), "\n  ")

	w = s.do(http.MethodGet, base+"/export?format=topojson", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Topology"`)

	w = s.do(http.MethodGet, base+"/export?format=kml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeatureEndpoints(t *testing.T) {
	s := newServer(t)
	base := s.create()
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, base+"/geojson", squareDoc).Code)

	w := s.do(http.MethodGet, base+"/features/a?status=selected", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Feature *geojson.Feature   `json:"feature"`
		Measure map[string]float64 `json:"measure"`
		Style   map[string]interface{}
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "block", body.Feature.Properties["name"])
	assert.Greater(t, body.Measure["area_m2"], 5e5)
	assert.NotEmpty(t, body.Style["stroke"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, base+"/features/zz", "").Code)

	w = s.do(http.MethodPut, base+"/features/a", `{"type":"Feature","geometry":null,"properties":{"name":"renamed"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":true`)
	assert.Contains(t, s.do(http.MethodGet, base+"/geojson", "").Body.String(), "renamed")

	w = s.do(http.MethodPut, base+"/features/zz", `{"type":"Feature","geometry":null,"properties":{}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":false`)

	w = s.do(http.MethodDelete, base+"/features/a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)

	w = s.do(http.MethodDelete, base+"/features/a", "")
	assert.Contains(t, w.Body.String(), `"deleted":false`)
}

func TestListFeatures_BBox(t *testing.T) {
	s := newServer(t)
	base := s.create()
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, base+"/geojson", squareDoc).Code)

	w := s.do(http.MethodGet, base+"/features?bbox=139.69,35.67,139.705,35.685", "")
	require.Equal(t, http.StatusOK, w.Code)
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	w = s.do(http.MethodGet, base+"/features?bbox=0,0,1,1", "")
	fc, err = geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Empty(t, fc.Features)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, base+"/features?bbox=1,2,3", "").Code)
}

func TestClearAllAndRedraw(t *testing.T) {
	s := newServer(t)
	base := s.create()
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, base+"/geojson", squareDoc).Code)

	w := s.do(http.MethodPost, base+"/redraw", "")
	assert.Equal(t, 1, s.state(w).Features)

	w = s.do(http.MethodDelete, base+"/features", "")
	st := s.state(w)
	assert.Equal(t, 0, st.Features)
	assert.True(t, st.Refresh)
}

func TestCursor(t *testing.T) {
	s := newServer(t)
	base := s.create()

	w := s.do(http.MethodPut, base+"/cursor", `{"coordinate":[139.7,35.68],"zoom":15.4,"level":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, base+"/cursor/link", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"link":"https://maps.example.com/?x=35.680000&y=139.700000&zoom=15"}`, w.Body.String())
}

func TestOverlay(t *testing.T) {
	s := newServer(t)
	base := s.create()

	w := s.do(http.MethodGet, base+"/overlay/stations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "block")

	w = s.do(http.MethodGet, base+"/overlay/missing", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "404"))

	w = s.do(http.MethodGet, base+"/markers?name=stations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "block")
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, base+"/markers", "").Code)
}

func TestDisposeSession(t *testing.T) {
	s := newServer(t)
	base := s.create()

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, base, "").Code)
}
