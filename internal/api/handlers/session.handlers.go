package routes

import (
	"errors"
	"net/http"

	"geoeditor/internal/editor"
	"geoeditor/internal/service/overlay"
	"geoeditor/internal/service/session"
	"geoeditor/internal/surface"
	"geoeditor/internal/tool"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

// SessionHandlers serves the editing sessions
type SessionHandlers struct {
	sessions *session.Manager
	overlay  *overlay.Loader
	markers  *overlay.Markers
	linkBase string
	logger   *zap.Logger
}

func NewSessionHandlers(sessions *session.Manager, loader *overlay.Loader, markers *overlay.Markers, linkBase string, log *zap.Logger) *SessionHandlers {
	return &SessionHandlers{
		sessions: sessions,
		overlay:  loader,
		markers:  markers,
		linkBase: linkBase,
		logger:   log,
	}
}

// SetupSessionHandlers registers the session endpoints
func SetupSessionHandlers(router *gin.RouterGroup, h *SessionHandlers) {
	sessions := router.Group("/sessions")
	sessions.POST("", h.Create)
	sessions.GET("", h.List)

	s := sessions.Group("/:id", h.loadSession)
	s.GET("", h.State)
	s.DELETE("", h.Dispose)
	s.PUT("/tool", h.SetTool)
	s.POST("/snap", h.ToggleSnap)
	s.POST("/events", h.Events)
	s.POST("/undo", h.Undo)
	s.POST("/redo", h.Redo)

	s.GET("/geojson", h.GetGeoJSON)
	s.PUT("/geojson", h.PutGeoJSON)
	s.GET("/export", h.Export)
	s.POST("/refresh", h.AckRefresh)
	s.POST("/redraw", h.Redraw)

	s.GET("/features", h.ListFeatures)
	s.DELETE("/features", h.ClearAll)
	s.GET("/features/:fid", h.GetFeature)
	s.PUT("/features/:fid", h.PutFeature)
	s.DELETE("/features/:fid", h.DeleteFeature)

	s.PUT("/cursor", h.SetCursor)
	s.GET("/cursor/link", h.CursorLink)
	s.GET("/overlay/:name", h.Overlay)
	s.GET("/markers", h.Markers)
	s.DELETE("/markers", h.ClearMarkers)
}

func errorJSON(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

func (h *SessionHandlers) loadSession(c *gin.Context) {
	s, err := h.sessions.Open(c.Request.Context(), c.Param("id"))
	if errors.Is(err, session.ErrSessionNotFound) {
		errorJSON(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.logger.Error("open session", zap.String("session", c.Param("id")), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// respondState replies with the session state, errors from fn first
func (h *SessionHandlers) respondState(c *gin.Context, s *session.Session, status int, fn func() error) {
	var st stateResponse
	err := s.Do(func() error {
		if fn != nil {
			if err := fn(); err != nil {
				return err
			}
		}
		st = stateOf(s)
		return nil
	})
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	c.JSON(status, st)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, tool.ErrUnknownTool):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrDisposed):
		return http.StatusGone
	default:
		var req *requestError
		if errors.As(err, &req) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// requestError marks a failure caused by the request content
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

// Create starts an empty session
func (h *SessionHandlers) Create(c *gin.Context) {
	s := h.sessions.Create()
	h.respondState(c, s, http.StatusCreated, nil)
}

// List returns the ids of the live sessions
func (h *SessionHandlers) List(c *gin.Context) {
	ids := make([]string, 0)
	for _, s := range h.sessions.List() {
		ids = append(ids, s.ID)
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ids})
}

func (h *SessionHandlers) State(c *gin.Context) {
	h.respondState(c, current(c), http.StatusOK, nil)
}

func (h *SessionHandlers) Dispose(c *gin.Context) {
	if err := h.sessions.Dispose(current(c).ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetTool switches the active tool. An unknown tool is kept as the current
// tool with nothing attached and answered with 400.
func (h *SessionHandlers) SetTool(c *gin.Context) {
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		return s.Editor().SetTool(req.Tool)
	})
}

func (h *SessionHandlers) ToggleSnap(c *gin.Context) {
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		s.Editor().ToggleSnap()
		return nil
	})
}

// Events dispatches pointer events in order
func (h *SessionHandlers) Events(c *gin.Context) {
	var req eventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	for _, ev := range req.Events {
		if !pointerTypes[ev.Type] {
			errorJSON(c, http.StatusBadRequest, errors.New("unknown pointer type "+string(ev.Type)))
			return
		}
	}
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		for _, ev := range req.Events {
			s.Editor().Dispatch(&surface.MapEvent{
				Type:       ev.Type,
				Coordinate: s.Map().EventCoordinate(ev.Lon, ev.Lat),
				Resolution: ev.Resolution,
				Shift:      ev.Shift,
				Alt:        ev.Alt,
			})
		}
		return nil
	})
	h.sessions.Touch(s.ID)
}

func (h *SessionHandlers) Undo(c *gin.Context) {
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		s.Editor().Undo()
		return nil
	})
	h.sessions.Touch(s.ID)
}

func (h *SessionHandlers) Redo(c *gin.Context) {
	s := current(c)
	h.respondState(c, s, http.StatusOK, func() error {
		s.Editor().Redo()
		return nil
	})
	h.sessions.Touch(s.ID)
}

func (h *SessionHandlers) SetCursor(c *gin.Context) {
	var cursor session.Cursor
	if err := c.ShouldBindJSON(&cursor); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	s := current(c)
	s.SetCursor(cursor)
	c.JSON(http.StatusOK, s.Cursor())
}

// CursorLink returns a link to the cursor position on the page given by base
func (h *SessionHandlers) CursorLink(c *gin.Context) {
	link, err := current(c).CursorLink(c.DefaultQuery("base", h.linkBase))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// Overlay proxies an auxiliary geography document. Failures are left as the
// session message.
func (h *SessionHandlers) Overlay(c *gin.Context) {
	s := current(c)
	fc := h.overlay.Get(c.Request.Context(), c.Param("name"), s)
	if fc == nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "error",
			"message": s.Message(),
		})
		return
	}
	c.JSON(http.StatusOK, fc)
}

func (h *SessionHandlers) Markers(c *gin.Context) {
	s := current(c)
	h.markers.Init(c.Request.Context(), c.DefaultQuery("name", "locations"), s)
	c.JSON(http.StatusOK, h.markers.Collection())
}

func (h *SessionHandlers) ClearMarkers(c *gin.Context) {
	h.markers.Clear()
	c.Status(http.StatusNoContent)
}
