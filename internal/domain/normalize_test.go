package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullDocument = `{
  "CContainerViewJSON_view": {
    "CRiverMainGadgetJSON_main": {
      "info": {
        "id": "42",
        "river": "Test River",
        "section": "Lower Gorge",
        "altname": "",
        "class": "III-IV(V)",
        "description_md": "<p>A  classic   run with <b>big</b> drops.</p>",
        "abstract_md": "",
        "length": "4.7",
        "edited": "2019-03-14 10:22:01",
        "plon": "-81.6557", "plat": "38.2041",
        "tlon": "-81.7133", "tlat": "38.2522",
        "geom": {"type": "LineString", "coordinates": [[-81.6557, 38.2041], [-81.7133, 38.2522]]}
      },
      "gauges": {
        "gauge_id": 5001,
        "gauge_reading": "3.2",
        "gauge_units": "ft"
      },
      "guagesummary": {
        "ranges": [
          {"range_min": "R2", "min": "2.0", "range_max": "R7", "max": "5.0"}
        ]
      }
    }
  }
}`

func TestNormalize(t *testing.T) {
	frozen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	r, err := Normalize([]byte(fullDocument))
	require.NoError(t, err)

	assert.Equal(t, int64(42), r.ReachID)
	assert.Equal(t, "Test River", r.River)
	assert.Equal(t, "Lower Gorge", r.Section)
	assert.Equal(t, "Test River Lower Gorge", r.Name())

	assert.Equal(t, "A classic run with big drops.", r.Description)
	assert.Equal(t, "A classic run with big drops.", r.Abstract)

	assert.Equal(t, "III-IV(V)", r.Difficulty)
	assert.Equal(t, "III", r.DifficultyMin)
	assert.Equal(t, "IV", r.DifficultyMax)
	assert.Equal(t, "V", r.DifficultyOutlier)

	require.NotNil(t, r.LengthMiles)
	assert.InDelta(t, 4.7, *r.LengthMiles, 1e-9)
	assert.Equal(t, time.Date(2019, 3, 14, 10, 22, 1, 0, time.UTC), r.Edited)

	require.Len(t, r.Geometry, 1)
	assert.Equal(t, orb.LineString{{-81.6557, 38.2041}, {-81.7133, 38.2522}}, r.Geometry[0])

	putin := r.Putin()
	require.NotNil(t, putin)
	assert.Equal(t, orb.Point{-81.6557, 38.2041}, putin.Geometry)
	takeout := r.Takeout()
	require.NotNil(t, takeout)
	assert.Equal(t, orb.Point{-81.7133, 38.2522}, takeout.Geometry)

	assert.Equal(t, "5001", r.GaugeID)
	assert.Equal(t, "ft", r.GaugeUnits)
	require.NotNil(t, r.GaugeObservation)
	assert.InDelta(t, 3.2, *r.GaugeObservation, 1e-9)
	require.NotNil(t, r.GaugeMin)
	assert.InDelta(t, 2.0, *r.GaugeMin, 1e-9)
	require.NotNil(t, r.GaugeMax)
	assert.InDelta(t, 5.0, *r.GaugeMax, 1e-9)
	assert.Equal(t, "runnable", r.GaugeStage)
	require.NotNil(t, r.GaugeRunnable)
	assert.True(t, *r.GaugeRunnable)

	assert.Equal(t, frozen, r.ProcessedAt)
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize([]byte(fullDocument))
	require.NoError(t, err)
	second, err := Normalize([]byte(fullDocument))
	require.NoError(t, err)

	assert.Equal(t, first.Attributes(), second.Attributes())
	assert.Equal(t, first.Geometry, second.Geometry)
}

func TestNormalizeNestingForms(t *testing.T) {
	info := `"info": {
		"id": 7, "river": "Elk", "section": "Upper", "class": "II",
		"geom": [[-80.0, 38.0], [-80.1, 38.1]]
	}`

	tests := []struct {
		name string
		doc  string
	}{
		{"view wrapper", `{"CContainerViewJSON_view": {"CRiverMainGadgetJSON_main": {` + info + `}}}`},
		{"main gadget", `{"CRiverMainGadgetJSON_main": {` + info + `}}`},
		{"bare info", `{` + info + `}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Normalize([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, int64(7), r.ReachID)
			assert.Equal(t, "Elk", r.River)
			assert.Len(t, r.Geometry, 1)
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `<html>rate limited</html>`},
		{"empty object", `{}`},
		{"missing id", `{"info": {"river": "Elk", "geom": [[-80, 38], [-80.1, 38.1]]}}`},
		{"missing geometry", `{"info": {"id": 7, "river": "Elk"}}`},
		{"null geometry", `{"info": {"id": 7, "geom": null}}`},
		{"single vertex", `{"info": {"id": 7, "geom": [[-80, 38]]}}`},
		{"latitude out of range", `{"info": {"id": 7, "geom": [[-80, 38], [-80.1, 91.5]]}}`},
		{"longitude out of range", `{"info": {"id": 7, "geom": [[-200, 38], [-80.1, 38.1]]}}`},
		{"putin latitude out of range", `{"info": {"id": 7, "plon": "-80", "plat": "95", "geom": [[-80, 38], [-80.1, 38.1]]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestNormalizeSpatialReference(t *testing.T) {
	tests := []struct {
		name    string
		geom    string
		wantErr error
	}{
		{
			"esri paths wgs84",
			`{"paths": [[[-80, 38], [-80.1, 38.1]]], "spatialReference": {"wkid": 4326}}`,
			nil,
		},
		{
			"esri paths no reference",
			`{"paths": [[[-80, 38], [-80.1, 38.1]]]}`,
			nil,
		},
		{
			"esri paths web mercator",
			`{"paths": [[[-8905559.3, 4579425.8], [-8905000.0, 4579000.0]]], "spatialReference": {"wkid": 3857}}`,
			ErrUnsupportedSpatialReference,
		},
		{
			"geojson foreign crs",
			`{"type": "LineString", "coordinates": [[-80, 38], [-80.1, 38.1]], "crs": {"properties": {"name": "EPSG:3857"}}}`,
			ErrUnsupportedSpatialReference,
		},
		{
			"geojson crs84",
			`{"type": "LineString", "coordinates": [[-80, 38], [-80.1, 38.1]], "crs": {"properties": {"name": "urn:ogc:def:crs:OGC:1.3:CRS84"}}}`,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"info": {"id": 7, "geom": ` + tt.geom + `}}`
			r, err := Normalize([]byte(doc))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, r.Geometry)
		})
	}
}

func TestNormalizeGeometryForms(t *testing.T) {
	tests := []struct {
		name      string
		geom      string
		wantPaths int
	}{
		{"bare single path", `[[-80, 38], [-80.1, 38.1]]`, 1},
		{"bare multi path", `[[[-80, 38], [-80.1, 38.1]], [[-80.2, 38.2], [-80.3, 38.3]]]`, 2},
		{"geojson linestring", `{"type": "LineString", "coordinates": [[-80, 38], [-80.1, 38.1]]}`, 1},
		{"geojson multilinestring", `{"type": "MultiLineString", "coordinates": [[[-80, 38], [-80.1, 38.1]], [[-80.2, 38.2], [-80.3, 38.3]]]}`, 2},
		{"esri paths", `{"paths": [[[-80, 38], [-80.1, 38.1]]], "spatialReference": {"wkid": 4326}}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"info": {"id": 7, "geom": ` + tt.geom + `}}`
			r, err := Normalize([]byte(doc))
			require.NoError(t, err)
			assert.Len(t, r.Geometry, tt.wantPaths)
		})
	}
}

func TestNormalizeOptionalFieldsKeepKeySetStable(t *testing.T) {
	minimal := `{"info": {"id": 9, "river": "Elk", "class": "none", "geom": [[-80, 38], [-80.1, 38.1]]}}`

	full, err := Normalize([]byte(fullDocument))
	require.NoError(t, err)
	sparse, err := Normalize([]byte(minimal))
	require.NoError(t, err)

	fullAttrs, sparseAttrs := full.Attributes(), sparse.Attributes()
	assert.Equal(t, len(fullAttrs), len(sparseAttrs))
	for key := range fullAttrs {
		assert.Contains(t, sparseAttrs, key)
	}

	assert.Equal(t, "", sparseAttrs["difficulty"])
	assert.Nil(t, sparseAttrs["length_mi"])
	assert.Nil(t, sparseAttrs["edited"])
	assert.Nil(t, sparseAttrs["gauge_observation"])
	assert.Nil(t, sparseAttrs["gauge_runnable"])
	assert.Equal(t, "no gauge reading", sparseAttrs["gauge_stage"])
}

func TestNormalizePartialAccessCoordinates(t *testing.T) {
	doc := `{"info": {"id": 9, "plon": "-80.5", "plat": "", "tlon": "n/a", "tlat": "38.3", "geom": [[-80, 38], [-80.1, 38.1]]}}`

	r, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, r.Points)
	assert.Nil(t, r.Putin())
	assert.Nil(t, r.Takeout())
}

func TestNormalizeDerivesAbstract(t *testing.T) {
	long := make([]byte, 0, 1200)
	for len(long) < 1200 {
		long = append(long, "whitewater runs fast here "...)
	}
	doc := `{"info": {"id": 9, "description_md": "` + string(long) + `", "geom": [[-80, 38], [-80.1, 38.1]]}}`

	r, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(r.Abstract)), abstractLimit+3)
	assert.True(t, len(r.Abstract) > 0)
	assert.Contains(t, r.Abstract, "whitewater")
	assert.Equal(t, "...", r.Abstract[len(r.Abstract)-3:])
}
