package featurestore

import (
	"encoding/json"
	"errors"
	"fmt"

	"geoeditor/internal/util"

	"github.com/paulmach/orb/geojson"
	"github.com/rubenv/topojson"
)

const (
	GeoJSONSchema  = "https://json.schemastore.org/geojson.json"
	TopoJSONSchema = "https://raw.githubusercontent.com/Casyfill/TopoJSON_schema/master/topology.json"

	// MediaType is used for both export formats
	MediaType = "application/geo+json"

	schemaKey = "$schema"
)

// ErrUnknownFormat is returned for export formats other than geojson and topojson
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export document format
type Format string

const (
	FormatGeoJSON  Format = "geojson"
	FormatTopoJSON Format = "topojson"
)

// Blob is an exported document
type Blob struct {
	Data      []byte
	MediaType string
}

// ExportBlob renders the collection as a portable document: identities are
// stripped, polygons follow the right-hand rule and, with dedupe, duplicate
// consecutive coordinates are dropped. The store is left untouched.
func (s *Store) ExportBlob(format Format, pretty, dedupe bool) (*Blob, error) {
	var doc interface{}
	switch format {
	case FormatGeoJSON:
		fc, err := s.exportCollection(dedupe)
		if err != nil {
			return nil, err
		}
		fc.ExtraMembers = geojson.Properties{schemaKey: GeoJSONSchema}
		doc = fc
	case FormatTopoJSON:
		topo, err := s.TopoJSON(dedupe)
		if err != nil {
			return nil, err
		}
		doc, err = topologyDocument(topo)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal %s export: %w", format, err)
	}
	return &Blob{Data: data, MediaType: MediaType}, nil
}

func (s *Store) exportCollection(dedupe bool) (*geojson.FeatureCollection, error) {
	fc, err := s.collection()
	if err != nil {
		return nil, err
	}
	fc.ExtraMembers = nil
	for _, f := range fc.Features {
		f.ID = nil
		if f.Geometry == nil {
			continue
		}
		f.Geometry = util.Rewind(f.Geometry)
		if dedupe {
			f.Geometry = util.CleanCoords(f.Geometry)
		}
	}
	return fc, nil
}

// TopoJSON converts the export collection to a topology. Features without
// geometry have no place in a topology and are left out.
func (s *Store) TopoJSON(dedupe bool) (*topojson.Topology, error) {
	fc, err := s.exportCollection(dedupe)
	if err != nil {
		return nil, err
	}
	kept := fc.Features[:0]
	for _, f := range fc.Features {
		if f.Geometry != nil {
			kept = append(kept, f)
		}
	}
	fc.Features = kept
	return topojson.NewTopology(fc, &topojson.TopologyOptions{}), nil
}

func topologyDocument(topo *topojson.Topology) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(topo)
	if err != nil {
		return nil, fmt.Errorf("marshal topology: %w", err)
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	schema, _ := json.Marshal(TopoJSONSchema)
	doc[schemaKey] = schema
	return doc, nil
}

// ParseFormat maps a format name to a Format
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatGeoJSON, FormatTopoJSON:
		return Format(name), nil
	case "":
		return FormatGeoJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}
