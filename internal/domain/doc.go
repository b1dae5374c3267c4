// Package domain models American Whitewater (AW) river reach data.
//
// # Data Source
//
// Reach documents originate from the AW river detail endpoint,
// https://www.americanwhitewater.org/content/River/detail/id/<id>/.json.
// The downloader fetches one JSON document per reach and caches it on disk;
// the pipeline later normalizes each cached document into a flat feature
// record destined for a hosted feature-service layer.
//
// # AW JSON Conventions
//
// Document nesting varies by endpoint vintage. The reach payload may be
// wrapped as
//
//	{"CContainerViewJSON_view": {"CRiverMainGadgetJSON_main": {...}}}
//
// or expose "CRiverMainGadgetJSON_main" at the top level, or be the bare
// main-gadget object itself. All three forms are unwrapped during
// normalization; the main object carries an "info" block (identifier, names,
// markdown description, difficulty class, put-in/take-out coordinates, and a
// "geom" geometry block), a "gauges" block with the latest reading, and a
// "guagesummary" block (AW's spelling) with flow ranges.
//
// Numeric fields are inconsistently typed: coordinates, lengths, and gauge
// readings appear both as JSON numbers and as numeric strings, and optional
// values may be null or "". The flexFloat/flexInt64 types absorb all of
// these at the parse boundary.
//
// Geometry appears as a GeoJSON LineString or MultiLineString, as an
// Esri-style {"paths": [...], "spatialReference": {"wkid": N}} object, or as
// a bare coordinate array. Coordinates are always longitude,latitude in
// WGS84 (EPSG:4326); a document declaring any other reference is rejected
// rather than silently re-tagged.
//
// Difficulty classes use whitewater notation such as "IV-V(V+)": an optional
// minimum before the dash, the usual maximum, and an outlier class in
// parentheses. See ParseDifficultyParts.
//
// # Determinism
//
// Normalize is a pure function of the document bytes: attributes and
// geometry never depend on ambient state, so re-ingesting a cached file
// reproduces the record exactly. Only ProcessedAt comes from the clock, and
// it is excluded from the exported attribute mapping.
package domain
