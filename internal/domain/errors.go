package domain

import "errors"

var (
	// ErrMalformedDocument indicates a source document that cannot be
	// normalized: unparseable JSON, a missing info block or identifier,
	// absent or degenerate geometry, or out-of-range coordinates.
	ErrMalformedDocument = errors.New("malformed reach document")

	// ErrUnsupportedSpatialReference indicates geometry declared in a
	// coordinate system other than WGS84 / EPSG:4326.
	ErrUnsupportedSpatialReference = errors.New("unsupported spatial reference")
)
