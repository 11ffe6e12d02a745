package overlay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"geoeditor/internal/metrics"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// maxDocumentSize bounds an overlay response body
const maxDocumentSize = 32 << 20

var validName = regexp.MustCompile(`^[A-Za-z0-9_\-/]+$`)

// Messenger receives transient user-visible messages
type Messenger interface {
	SetMessage(msg string)
}

// Loader fetches auxiliary geography documents published under
// <base>/data/<name>.geojson
type Loader struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

type Option func(*Loader)

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.client = c
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = log
	}
}

func NewLoader(base string, opts ...Option) *Loader {
	l := &Loader{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the named document. Any failure is reported to msg and yields
// nil, nothing else is touched.
func (l *Loader) Get(ctx context.Context, name string, msg Messenger) *geojson.FeatureCollection {
	fc, err := l.fetch(ctx, name)
	if err != nil {
		metrics.OverlayFetchesTotal.WithLabelValues("error").Inc()
		l.logger.Warn("fetch overlay", zap.String("name", name), zap.Error(err))
		if msg != nil {
			msg.SetMessage(err.Error())
		}
		return nil
	}
	metrics.OverlayFetchesTotal.WithLabelValues("ok").Inc()
	return fc
}

func (l *Loader) fetch(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid overlay name %q", name)
	}
	u, err := url.JoinPath(l.base, "data", name+".geojson")
	if err != nil {
		return nil, fmt.Errorf("overlay url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", name, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return fc, nil
}
