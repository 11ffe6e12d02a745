package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"geoeditor/internal/featurestore"
	"geoeditor/internal/metrics"
	"geoeditor/internal/model"
	"geoeditor/internal/style"
	"geoeditor/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// GetGeoJSON returns the committed document, X-Refresh tells whether the
// client should redraw
func (h *SessionHandlers) GetGeoJSON(c *gin.Context) {
	store := current(c).Store()
	c.Header("X-Refresh", strconv.FormatBool(store.Refresh()))
	c.Data(http.StatusOK, featurestore.MediaType, store.GeoJSON())
}

// PutGeoJSON imports a document and redraws the live surface from it
func (h *SessionHandlers) PutGeoJSON(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		if err := s.Store().SetGeoJSON(data); err != nil {
			if errors.Is(err, featurestore.ErrInvalidDocument) {
				return badRequest(err)
			}
			return err
		}
		return s.Editor().Lifecycle().Redraw()
	})
	h.sessions.Touch(s.ID)
}

// Export renders the document as a download
func (h *SessionHandlers) Export(c *gin.Context) {
	format, err := featurestore.ParseFormat(c.Query("format"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	pretty, _ := strconv.ParseBool(c.DefaultQuery("pretty", "false"))
	clean, _ := strconv.ParseBool(c.DefaultQuery("clean", "false"))

	start := time.Now()
	blob, err := current(c).Store().ExportBlob(format, pretty, clean)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	metrics.ExportDurationMs.Observe(float64(time.Since(start).Milliseconds()))

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="export.%s"`, format))
	c.Data(http.StatusOK, blob.MediaType, blob.Data)
}

// AckRefresh tells the store the client has redrawn
func (h *SessionHandlers) AckRefresh(c *gin.Context) {
	current(c).Store().SetRefresh(false)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandlers) Redraw(c *gin.Context) {
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		return s.Editor().Lifecycle().Redraw()
	})
}

// ClearAll removes every feature
func (h *SessionHandlers) ClearAll(c *gin.Context) {
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		return s.Editor().Lifecycle().ClearAll()
	})
	h.sessions.Touch(s.ID)
}

// ListFeatures returns the committed features in EPSG:4326, only those
// intersecting bbox=minLon,minLat,maxLon,maxLat when given
func (h *SessionHandlers) ListFeatures(c *gin.Context) {
	var bound *orb.Bound
	if q := c.Query("bbox"); q != "" {
		b, err := parseBBox(q)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, err)
			return
		}
		bound = &b
	}

	s := current(c)
	fc := geojson.NewFeatureCollection()
	err := s.Do(func() error {
		features := s.Source().Features()
		if bound != nil {
			features = s.Source().FeaturesInBound(*bound)
		}
		for _, f := range features {
			fc.Append(toWGS84(f))
		}
		return nil
	})
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// parseBBox reads a lon/lat bounding box into the display projection
func parseBBox(q string) (orb.Bound, error) {
	parts := strings.Split(q, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox needs 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox: %w", err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, errors.New("bbox min exceeds max")
	}
	lo := project.Point(orb.Point{v[0], v[1]}, project.WGS84.ToMercator)
	hi := project.Point(orb.Point{v[2], v[3]}, project.WGS84.ToMercator)
	return orb.Bound{Min: lo, Max: hi}, nil
}

// GetFeature returns a committed feature in EPSG:4326 with its geodesic
// measures and resolved style
func (h *SessionHandlers) GetFeature(c *gin.Context) {
	s := current(c)
	var body gin.H
	found := false
	err := s.Do(func() error {
		f, ok := s.Source().FeatureByID(c.Param("fid"))
		if !ok {
			return nil
		}
		found = true
		wgs := toWGS84(f)
		status := model.ParseFeatureStatus(c.Query("status"))
		body = gin.H{
			"feature": wgs,
			"measure": util.MeasureGeometry(wgs.Geometry),
			"style":   style.Resolve(f, status, c.Query("layer"), s.Cursor().Level),
		}
		return nil
	})
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	if !found {
		errorJSON(c, http.StatusNotFound, errors.New("feature not found"))
		return
	}
	c.JSON(http.StatusOK, body)
}

// PutFeature merges attributes and geometry, given in EPSG:4326, into a
// committed feature. Unknown features are left alone.
func (h *SessionHandlers) PutFeature(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	f.ID = c.Param("fid")

	s := current(c)
	updated := false
	var st stateResponse
	err = s.Do(func() error {
		_, updated = s.Source().FeatureByID(c.Param("fid"))
		s.Editor().Lifecycle().CommitUpdate(toMercator(f))
		st = stateOf(s)
		return nil
	})
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	h.sessions.Touch(s.ID)
	c.JSON(http.StatusOK, gin.H{"updated": updated, "state": st})
}

func (h *SessionHandlers) DeleteFeature(c *gin.Context) {
	s := current(c)
	deleted := false
	var st stateResponse
	err := s.Do(func() error {
		_, deleted = s.Source().FeatureByID(c.Param("fid"))
		s.Editor().Lifecycle().DeleteByID(c.Param("fid"))
		st = stateOf(s)
		return nil
	})
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	h.sessions.Touch(s.ID)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "state": st})
}
