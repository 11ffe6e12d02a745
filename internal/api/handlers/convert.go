package routes

import (
	"geoeditor/internal/model"
	"geoeditor/internal/service/session"
	"geoeditor/internal/surface"
	"geoeditor/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

var pointerTypes = map[surface.PointerType]bool{
	surface.PointerClick:    true,
	surface.PointerDblClick: true,
	surface.PointerDown:     true,
	surface.PointerDrag:     true,
	surface.PointerUp:       true,
	surface.PointerMove:     true,
}

// eventRequest is a pointer event at a lon/lat position
type eventRequest struct {
	Type       surface.PointerType `json:"type" binding:"required"`
	Lon        float64             `json:"lon"`
	Lat        float64             `json:"lat"`
	Resolution float64             `json:"resolution"`
	Shift      bool                `json:"shift"`
	Alt        bool                `json:"alt"`
}

type eventsRequest struct {
	Events []eventRequest `json:"events" binding:"required,min=1,dive"`
}

type toolRequest struct {
	Tool model.ToolID `json:"tool" binding:"required"`
}

type stateResponse struct {
	ID            string           `json:"id"`
	Tool          model.ToolID     `json:"tool"`
	Snap          bool             `json:"snap"`
	Selection     []string         `json:"selection"`
	FeatureToEdit *geojson.Feature `json:"featureToEdit"`
	CanUndo       bool             `json:"canUndo"`
	CanRedo       bool             `json:"canRedo"`
	Features      int              `json:"features"`
	Version       uint64           `json:"version"`
	Refresh       bool             `json:"refresh"`
	Cursor        session.Cursor   `json:"cursor"`
	Message       string           `json:"message,omitempty"`
}

// stateOf must run inside Session.Do
func stateOf(s *session.Session) stateResponse {
	e := s.Editor()
	selection := make([]string, 0)
	for _, f := range e.Selection() {
		selection = append(selection, util.FeatureID(f.ID))
	}
	var edit *geojson.Feature
	if f := e.FeatureToEdit(); f != nil {
		edit = toWGS84(f)
	}
	return stateResponse{
		ID:            s.ID,
		Tool:          e.Tool(),
		Snap:          e.SnapEnabled(),
		Selection:     selection,
		FeatureToEdit: edit,
		CanUndo:       e.CanUndo(),
		CanRedo:       e.CanRedo(),
		Features:      s.Store().Count(),
		Version:       s.Store().Version(),
		Refresh:       s.Store().Refresh(),
		Cursor:        s.Cursor(),
		Message:       s.TakeMessage(),
	}
}

func toWGS84(f *geojson.Feature) *geojson.Feature {
	return reproject(f, project.Mercator.ToWGS84)
}

func toMercator(f *geojson.Feature) *geojson.Feature {
	return reproject(f, project.WGS84.ToMercator)
}

func reproject(f *geojson.Feature, proj orb.Projection) *geojson.Feature {
	c := &geojson.Feature{
		ID:         f.ID,
		Type:       "Feature",
		Properties: f.Properties.Clone(),
	}
	if f.Geometry != nil {
		c.Geometry = project.Geometry(orb.Clone(f.Geometry), proj)
	}
	return c
}
