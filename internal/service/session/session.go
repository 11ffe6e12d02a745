package session

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"sync"
	"time"

	"geoeditor/internal/editor"
	"geoeditor/internal/featurestore"
	"geoeditor/internal/model"
	"geoeditor/internal/surface"

	"github.com/paulmach/orb"
)

// Cursor is the view state of a session: center in EPSG:4326, zoom and the
// layer level being edited
type Cursor struct {
	Coordinate orb.Point `json:"coordinate"`
	Zoom       float64   `json:"zoom"`
	Level      int       `json:"level"`
}

// Session is one editing session: a map surface with its live source, the
// committed store and the editor coordinating them. Editing calls go through
// Do, which runs them one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	m      *surface.Map
	source *surface.Source
	store  *featurestore.Store
	editor *editor.Editor

	stateMu sync.RWMutex
	cursor  Cursor
	message string
}

func newSession(id string, store *featurestore.Store, opts ...editor.Option) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		m:         surface.NewMap(),
		source:    surface.NewSource(),
		store:     store,
		cursor:    Cursor{Zoom: 1},
	}
	s.editor = editor.New(s.m, s.source, s.store, opts...)
	return s
}

// Do runs fn with exclusive access to the session
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor.Disposed() {
		return editor.ErrDisposed
	}
	return fn()
}

func (s *Session) Map() *surface.Map          { return s.m }
func (s *Session) Source() *surface.Source    { return s.source }
func (s *Session) Store() *featurestore.Store { return s.store }
func (s *Session) Editor() *editor.Editor     { return s.editor }

func (s *Session) Cursor() Cursor {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cursor
}

// SetCursor stores the view state and moves the map view to its zoom
func (s *Session) SetCursor(c Cursor) {
	s.stateMu.Lock()
	s.cursor = c
	s.stateMu.Unlock()

	if c.Zoom > 0 {
		s.mu.Lock()
		s.m.SetZoom(c.Zoom)
		s.mu.Unlock()
	}
}

// Message returns the last transient user-visible message
func (s *Session) Message() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.message
}

func (s *Session) SetMessage(msg string) {
	s.stateMu.Lock()
	s.message = msg
	s.stateMu.Unlock()
}

// TakeMessage returns the message and clears it
func (s *Session) TakeMessage() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	msg := s.message
	s.message = ""
	return msg
}

// CursorLink returns a link to the cursor position: x carries the latitude and
// y the longitude, both with six decimals, and zoom is rounded.
func (s *Session) CursorLink(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	c := s.Cursor()
	q := u.Query()
	q.Set("x", strconv.FormatFloat(c.Coordinate.Lat(), 'f', 6, 64))
	q.Set("y", strconv.FormatFloat(c.Coordinate.Lon(), 'f', 6, 64))
	q.Set("zoom", strconv.Itoa(int(math.Round(c.Zoom))))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Snapshot returns the committed document of the session
func (s *Session) Snapshot() *model.Document {
	return &model.Document{
		ID:        s.ID,
		GeoJSON:   s.store.GeoJSON(),
		Count:     s.store.Count(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: time.Now(),
	}
}

func (s *Session) dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Dispose()
}
