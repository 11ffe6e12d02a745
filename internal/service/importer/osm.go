package importer

import (
	"fmt"
	"io"
	"runtime"

	"geoeditor/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/qedus/osmpbf"
)

// Filter selects the tagged OSM elements to import
type Filter func(tags map[string]string) bool

// HasTag selects elements carrying any of keys
func HasTag(keys ...string) Filter {
	return func(tags map[string]string) bool {
		for _, k := range keys {
			if _, ok := tags[k]; ok {
				return true
			}
		}
		return false
	}
}

// AnyTag selects every tagged element
func AnyTag(tags map[string]string) bool { return len(tags) > 0 }

// Stats counts what an import produced
type Stats struct {
	Points       int
	LineStrings  int
	Polygons     int
	MissingNodes int
}

// ReadOSM converts an OSM PBF stream into features in EPSG:4326: tagged nodes
// become points, closed ways polygons and open ways line strings. Ways are
// resolved against the nodes seen before them, as PBF files store nodes first.
func ReadOSM(r io.Reader, filter Filter) (*geojson.FeatureCollection, Stats, error) {
	if filter == nil {
		filter = AnyTag
	}
	decoder := osmpbf.NewDecoder(r)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	if err := decoder.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, Stats{}, fmt.Errorf("start decoder: %w", err)
	}

	c := newConverter(filter)
	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, c.stats, fmt.Errorf("decode: %w", err)
		}
		c.add(object)
	}
	return c.fc, c.stats, nil
}

type converter struct {
	filter Filter
	nodes  map[int64]orb.Point
	fc     *geojson.FeatureCollection
	stats  Stats
}

func newConverter(filter Filter) *converter {
	return &converter{
		filter: filter,
		nodes:  make(map[int64]orb.Point),
		fc:     geojson.NewFeatureCollection(),
	}
}

func (c *converter) add(object interface{}) {
	switch o := object.(type) {
	case *osmpbf.Node:
		p := orb.Point{o.Lon, o.Lat}
		c.nodes[o.ID] = p
		if c.filter(o.Tags) {
			c.fc.Append(newFeature(fmt.Sprintf("node/%d", o.ID), p, o.Tags))
			c.stats.Points++
		}
	case *osmpbf.Way:
		if !c.filter(o.Tags) {
			return
		}
		line := make(orb.LineString, 0, len(o.NodeIDs))
		for _, id := range o.NodeIDs {
			p, ok := c.nodes[id]
			if !ok {
				c.stats.MissingNodes++
				return
			}
			line = append(line, p)
		}
		if len(line) < 2 {
			return
		}
		id := fmt.Sprintf("way/%d", o.ID)
		if isArea(o.NodeIDs, o.Tags) {
			c.fc.Append(newFeature(id, orb.Polygon{orb.Ring(line)}, o.Tags))
			c.stats.Polygons++
			return
		}
		c.fc.Append(newFeature(id, line, o.Tags))
		c.stats.LineStrings++
	}
}

// isArea reports whether a way encloses an area: it is closed with at least
// three distinct nodes and, for linear features, explicitly tagged area=yes.
func isArea(ids []int64, tags map[string]string) bool {
	if len(ids) < 4 || ids[0] != ids[len(ids)-1] {
		return false
	}
	if tags["area"] == "no" {
		return false
	}
	for _, k := range []string{"highway", "barrier"} {
		if _, ok := tags[k]; ok {
			return tags["area"] == "yes"
		}
	}
	return true
}

func newFeature(id string, g orb.Geometry, tags map[string]string) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = id
	f.Properties = model.DefaultProperties()
	if name, ok := tags["name"]; ok {
		f.Properties[model.PropName] = name
	}
	if desc, ok := tags["description"]; ok {
		f.Properties[model.PropDescription] = desc
	}
	if level, ok := tags["level"]; ok {
		f.Properties[model.PropLevel] = parseLevel(level)
	}
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	f.Properties["tags"] = copied
	return f
}

func parseLevel(s string) int {
	var level int
	if _, err := fmt.Sscanf(s, "%d", &level); err != nil {
		return 0
	}
	return level
}
