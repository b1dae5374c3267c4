package domain

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// Access point classification on a reach.
const (
	PointTypeAccess = "access"

	SubtypePutin   = "putin"
	SubtypeTakeout = "takeout"
)

// WKID is the well-known identifier of the only spatial reference this
// package produces or accepts: WGS84, EPSG:4326.
const WKID = 4326

// ReachPoint is a named point along a reach: an access (put-in, take-out) or
// other waypoint. Immutable once built; owned by the Reach that contains it.
type ReachPoint struct {
	ReachID   int64
	PointType string
	Subtype   string
	Name      string
	Geometry  orb.Point // lon, lat
}

// NewReachPoint builds an access point, validating coordinate ranges.
func NewReachPoint(reachID int64, subtype string, lon, lat float64) (ReachPoint, error) {
	if err := validateCoordinate(lon, lat); err != nil {
		return ReachPoint{}, fmt.Errorf("%s point: %w", subtype, err)
	}
	return ReachPoint{
		ReachID:   reachID,
		PointType: PointTypeAccess,
		Subtype:   subtype,
		Geometry:  orb.Point{lon, lat},
	}, nil
}

func validateCoordinate(lon, lat float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrMalformedDocument, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrMalformedDocument, lon)
	}
	return nil
}

// Reach is a named river segment: descriptive attributes plus a polyline in
// EPSG:4326. Built once by Normalize and never mutated afterwards.
type Reach struct {
	ReachID int64

	River   string
	Section string
	AltName string

	Description string
	Abstract    string

	Difficulty        string
	DifficultyMin     string
	DifficultyMax     string
	DifficultyOutlier string

	LengthMiles *float64
	Edited      time.Time

	GaugeID          string
	GaugeUnits       string
	GaugeObservation *float64
	GaugeMin         *float64
	GaugeMax         *float64
	GaugeStage       string
	GaugeRunnable    *bool

	// Geometry holds the reach hydroline as one or more paths.
	Geometry orb.MultiLineString

	// Points holds named access points in source order; may be empty when
	// the document carries no per-point metadata.
	Points []ReachPoint

	// ProcessedAt records when normalization ran. Not part of the attribute
	// mapping, so it never disturbs idempotent re-ingestion.
	ProcessedAt time.Time
}

// Name combines river and section names the way AW displays reaches.
func (r *Reach) Name() string {
	switch {
	case r.River != "" && r.Section != "":
		return r.River + " " + r.Section
	case r.River != "":
		return r.River
	default:
		return r.Section
	}
}

// Putin returns the put-in access point, or nil when the source had none.
func (r *Reach) Putin() *ReachPoint { return r.accessBySubtype(SubtypePutin) }

// Takeout returns the take-out access point, or nil when the source had none.
func (r *Reach) Takeout() *ReachPoint { return r.accessBySubtype(SubtypeTakeout) }

func (r *Reach) accessBySubtype(subtype string) *ReachPoint {
	for i := range r.Points {
		if r.Points[i].PointType == PointTypeAccess && r.Points[i].Subtype == subtype {
			return &r.Points[i]
		}
	}
	return nil
}

// Centroid returns a representative point for the reach: the midpoint of the
// hydroline extent when geometry exists, otherwise the mean of the access
// points, otherwise the single access point available. The boolean is false
// when nothing can be derived.
func (r *Reach) Centroid() (orb.Point, bool) {
	if len(r.Geometry) > 0 {
		bound := r.Geometry.Bound()
		return bound.Center(), true
	}

	putin, takeout := r.Putin(), r.Takeout()
	switch {
	case putin != nil && takeout != nil:
		return orb.Point{
			(putin.Geometry[0] + takeout.Geometry[0]) / 2,
			(putin.Geometry[1] + takeout.Geometry[1]) / 2,
		}, true
	case putin != nil:
		return putin.Geometry, true
	case takeout != nil:
		return takeout.Geometry, true
	}
	return orb.Point{}, false
}

// FieldType is the semantic type of an exported attribute field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldFloat   FieldType = "float"
	FieldDate    FieldType = "date"
)

// FieldDef names one exported attribute field and its semantic type.
type FieldDef struct {
	Name string
	Type FieldType
}

// attributeFields is the canonical, ordered field set every Reach exports.
// Schema derivation and upload both key off this list, so the order is part
// of the contract.
var attributeFields = []FieldDef{
	{Name: "reach_id", Type: FieldInteger},
	{Name: "river", Type: FieldString},
	{Name: "section", Type: FieldString},
	{Name: "altname", Type: FieldString},
	{Name: "name", Type: FieldString},
	{Name: "description", Type: FieldString},
	{Name: "abstract", Type: FieldString},
	{Name: "difficulty", Type: FieldString},
	{Name: "difficulty_min", Type: FieldString},
	{Name: "difficulty_max", Type: FieldString},
	{Name: "difficulty_outlier", Type: FieldString},
	{Name: "length_mi", Type: FieldFloat},
	{Name: "edited", Type: FieldDate},
	{Name: "gauge_id", Type: FieldString},
	{Name: "gauge_units", Type: FieldString},
	{Name: "gauge_observation", Type: FieldFloat},
	{Name: "gauge_min", Type: FieldFloat},
	{Name: "gauge_max", Type: FieldFloat},
	{Name: "gauge_stage", Type: FieldString},
	{Name: "gauge_runnable", Type: FieldInteger},
}

// AttributeFields returns the canonical exported field set in order.
func AttributeFields() []FieldDef {
	out := make([]FieldDef, len(attributeFields))
	copy(out, attributeFields)
	return out
}

// Attributes returns the flat attribute mapping used for tabular export.
// Every canonical field is present for every Reach: absent strings map to "",
// absent numerics to nil, an unknown edit date to the zero time. String
// values are passed through unmodified; truncation is an export-time schema
// concern.
func (r *Reach) Attributes() map[string]any {
	var runnable any
	if r.GaugeRunnable != nil {
		v := int64(0)
		if *r.GaugeRunnable {
			v = 1
		}
		runnable = v
	}

	return map[string]any{
		"reach_id":           r.ReachID,
		"river":              r.River,
		"section":            r.Section,
		"altname":            r.AltName,
		"name":               r.Name(),
		"description":        r.Description,
		"abstract":           r.Abstract,
		"difficulty":         r.Difficulty,
		"difficulty_min":     r.DifficultyMin,
		"difficulty_max":     r.DifficultyMax,
		"difficulty_outlier": r.DifficultyOutlier,
		"length_mi":          floatOrNil(r.LengthMiles),
		"edited":             dateOrNil(r.Edited),
		"gauge_id":           r.GaugeID,
		"gauge_units":        r.GaugeUnits,
		"gauge_observation":  floatOrNil(r.GaugeObservation),
		"gauge_min":          floatOrNil(r.GaugeMin),
		"gauge_max":          floatOrNil(r.GaugeMax),
		"gauge_stage":        r.GaugeStage,
		"gauge_runnable":     runnable,
	}
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func dateOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
