package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// parseGeometry converts the info block's "geom" value into a polyline.
// Three shapes occur in the wild: a GeoJSON LineString/MultiLineString, an
// Esri-style paths object, and a bare coordinate array. A declared spatial
// reference other than WGS84/EPSG:4326 is rejected; an absent or empty block
// is malformed (a reach without a hydroline cannot be published).
func parseGeometry(raw json.RawMessage) (orb.MultiLineString, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: missing geometry block", ErrMalformedDocument)
	}

	switch trimmed[0] {
	case '[':
		return parseCoordinateArray(trimmed)
	case '{':
		return parseGeometryObject(trimmed)
	}
	return nil, fmt.Errorf("%w: geometry block has unexpected shape", ErrMalformedDocument)
}

// parseCoordinateArray handles [[x,y],...] and [[[x,y],...],...].
func parseCoordinateArray(raw []byte) (orb.MultiLineString, error) {
	var single [][]float64
	if err := json.Unmarshal(raw, &single); err == nil {
		path, err := buildPath(single)
		if err != nil {
			return nil, err
		}
		return orb.MultiLineString{path}, nil
	}

	var multi [][][]float64
	if err := json.Unmarshal(raw, &multi); err != nil {
		return nil, fmt.Errorf("%w: geometry coordinates are not paths", ErrMalformedDocument)
	}
	return buildPaths(multi)
}

func parseGeometryObject(raw []byte) (orb.MultiLineString, error) {
	var obj struct {
		Type             string          `json:"type"`
		Paths            [][][]float64   `json:"paths"`
		SpatialReference *struct {
			WKID       int `json:"wkid"`
			LatestWKID int `json:"latestWkid"`
		} `json:"spatialReference"`
		CRS *struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"crs"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: geometry block: %v", ErrMalformedDocument, err)
	}

	if sr := obj.SpatialReference; sr != nil {
		if sr.WKID != 0 && sr.WKID != WKID && sr.LatestWKID != WKID {
			return nil, fmt.Errorf("%w: wkid %d", ErrUnsupportedSpatialReference, sr.WKID)
		}
	}
	if crs := obj.CRS; crs != nil {
		name := crs.Properties.Name
		if name != "" && !strings.Contains(name, "4326") && !strings.Contains(name, "CRS84") {
			return nil, fmt.Errorf("%w: crs %q", ErrUnsupportedSpatialReference, name)
		}
	}

	if obj.Paths != nil {
		return buildPaths(obj.Paths)
	}

	if obj.Type != "" {
		return parseGeoJSON(raw)
	}
	return nil, fmt.Errorf("%w: geometry block has neither paths nor a GeoJSON type", ErrMalformedDocument)
}

func parseGeoJSON(raw []byte) (orb.MultiLineString, error) {
	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: geojson geometry: %v", ErrMalformedDocument, err)
	}

	switch g := geom.Geometry().(type) {
	case orb.LineString:
		mls := orb.MultiLineString{g}
		return mls, validatePaths(mls)
	case orb.MultiLineString:
		return g, validatePaths(g)
	}
	return nil, fmt.Errorf("%w: geometry type %q is not a polyline", ErrMalformedDocument, geom.Type)
}

func buildPaths(coords [][][]float64) (orb.MultiLineString, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: geometry has no paths", ErrMalformedDocument)
	}
	mls := make(orb.MultiLineString, 0, len(coords))
	for _, path := range coords {
		ls, err := buildPath(path)
		if err != nil {
			return nil, err
		}
		mls = append(mls, ls)
	}
	return mls, nil
}

func buildPath(coords [][]float64) (orb.LineString, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("%w: geometry path has fewer than two vertices", ErrMalformedDocument)
	}
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("%w: geometry vertex is not a coordinate pair", ErrMalformedDocument)
		}
		if err := validateCoordinate(c[0], c[1]); err != nil {
			return nil, err
		}
		ls = append(ls, orb.Point{c[0], c[1]})
	}
	return ls, nil
}

func validatePaths(mls orb.MultiLineString) error {
	if len(mls) == 0 {
		return fmt.Errorf("%w: geometry has no paths", ErrMalformedDocument)
	}
	for _, ls := range mls {
		if len(ls) < 2 {
			return fmt.Errorf("%w: geometry path has fewer than two vertices", ErrMalformedDocument)
		}
		for _, pt := range ls {
			if err := validateCoordinate(pt[0], pt[1]); err != nil {
				return err
			}
		}
	}
	return nil
}
