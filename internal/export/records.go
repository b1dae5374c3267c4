package export

import (
	"iter"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/reach-data-etl/internal/domain"
)

// SpatialReference tags exported geometry with its coordinate system.
type SpatialReference struct {
	WKID int `json:"wkid"`
}

// Polyline is the destination platform's polyline geometry shape: one or
// more paths of lon/lat vertex pairs plus the spatial reference tag.
type Polyline struct {
	Paths            orb.MultiLineString `json:"paths"`
	SpatialReference SpatialReference    `json:"spatialReference"`
}

// Record is one flat feature row: the attribute mapping plus geometry in
// EPSG:4326.
type Record struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   Polyline       `json:"geometry"`
}

// Records yields one feature record per Reach, in order. The sequence is
// lazy and restartable: iterating it twice regenerates identical records
// from the immutable Reach collection.
func Records(reaches []*domain.Reach) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range reaches {
			rec := Record{
				Attributes: r.Attributes(),
				Geometry: Polyline{
					Paths:            r.Geometry,
					SpatialReference: SpatialReference{WKID: domain.WKID},
				},
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Batches partitions records into contiguous fixed-size groups, the last one
// possibly smaller, preserving order across boundaries. Purely mechanical
// slicing; retry and pacing belong to the upload collaborator. A size below
// one is treated as one.
func Batches(records []Record, size int) iter.Seq[[]Record] {
	if size < 1 {
		size = 1
	}
	return func(yield func([]Record) bool) {
		for start := 0; start < len(records); start += size {
			end := min(start+size, len(records))
			if !yield(records[start:end]) {
				return
			}
		}
	}
}
