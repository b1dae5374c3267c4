package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawDocument is one cached source document awaiting normalization.
// Name is only used for logging and error reporting.
type RawDocument struct {
	Name string
	Data []byte
}

// editedLayout is the timestamp format of the info block's "edited" field.
const editedLayout = "2006-01-02 15:04:05"

// Normalize converts one raw AW JSON document into a Reach. It is the single
// validated parse boundary: every missing-key and wrong-shape condition
// surfaces here as ErrMalformedDocument (or ErrUnsupportedSpatialReference
// for mis-referenced geometry), and no partial Reach is ever returned.
func Normalize(doc []byte) (*Reach, error) {
	var raw rawDocument
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	main := raw.main()
	if main == nil || main.Info == nil {
		return nil, fmt.Errorf("%w: missing info block", ErrMalformedDocument)
	}
	info := main.Info

	if !info.ID.valid {
		return nil, fmt.Errorf("%w: missing reach identifier", ErrMalformedDocument)
	}

	geometry, err := parseGeometry(info.Geom)
	if err != nil {
		return nil, err
	}

	r := &Reach{
		ReachID:     info.ID.value,
		River:       removeBackslashes(info.River),
		Section:     removeBackslashes(info.Section),
		AltName:     removeBackslashes(info.AltName),
		Description: cleanupText(info.Description),
		Geometry:    geometry,
		ProcessedAt: clock.Now(),
	}

	r.Abstract = cleanupText(info.Abstract)
	if r.Abstract == "" {
		r.Abstract = deriveAbstract(info.Description)
	}

	if cls := strings.TrimSpace(info.Class); cls != "" && !strings.EqualFold(cls, "none") {
		r.Difficulty = cls
		r.DifficultyMin, r.DifficultyMax, r.DifficultyOutlier = ParseDifficultyParts(cls)
	}

	if info.Length.valid {
		v := info.Length.value
		r.LengthMiles = &v
	}

	if ts := strings.TrimSpace(info.Edited); ts != "" {
		if t, err := time.Parse(editedLayout, ts); err == nil {
			r.Edited = t.UTC()
		}
	}

	if err := addAccessPoints(r, info); err != nil {
		return nil, err
	}

	applyGauges(r, main.Gauges, main.GaugeSummary)

	return r, nil
}

// addAccessPoints builds the put-in and take-out points when both coordinates
// of a pair are present. Partial point data is a valid, non-error state; only
// parseable-but-out-of-range coordinates are rejected.
func addAccessPoints(r *Reach, info *rawInfo) error {
	pairs := []struct {
		subtype  string
		lon, lat flexFloat
	}{
		{SubtypePutin, info.PLon, info.PLat},
		{SubtypeTakeout, info.TLon, info.TLat},
	}

	for _, p := range pairs {
		if !p.lon.valid || !p.lat.valid {
			continue
		}
		pt, err := NewReachPoint(r.ReachID, p.subtype, p.lon.value, p.lat.value)
		if err != nil {
			return err
		}
		r.Points = append(r.Points, pt)
	}
	return nil
}

// applyGauges copies the latest reading and derives flow-range metrics.
// Everything here is optional; absent blocks leave the gauge fields empty.
func applyGauges(r *Reach, gauges *rawGauges, summary *rawGaugeSummary) {
	if gauges != nil {
		r.GaugeID = gauges.GaugeID.String()
		r.GaugeUnits = gauges.GaugeUnits
		if gauges.GaugeReading.valid {
			v := gauges.GaugeReading.value
			r.GaugeObservation = &v
		}
	}

	var ranges []GaugeRange
	if summary != nil {
		ranges = summary.Ranges
	}
	metrics := GaugeValueList(ranges)
	if len(metrics) > 0 {
		lo, hi := metrics[0].Value, metrics[len(metrics)-1].Value
		r.GaugeMin = &lo
		r.GaugeMax = &hi
	}

	r.GaugeStage = GaugeStage(ranges, r.GaugeObservation)
	if r.GaugeObservation != nil && len(metrics) > 0 {
		runnable := GaugeRunnable(ranges, *r.GaugeObservation)
		r.GaugeRunnable = &runnable
	}
}

// --- raw document shapes ---

type rawDocument struct {
	View *rawView `json:"CContainerViewJSON_view"`
	Main *rawMain `json:"CRiverMainGadgetJSON_main"`

	// Bare main-gadget form.
	Info         *rawInfo         `json:"info"`
	Gauges       *rawGauges       `json:"gauges"`
	GaugeSummary *rawGaugeSummary `json:"guagesummary"`
}

type rawView struct {
	Main *rawMain `json:"CRiverMainGadgetJSON_main"`
}

type rawMain struct {
	Info         *rawInfo         `json:"info"`
	Gauges       *rawGauges       `json:"gauges"`
	GaugeSummary *rawGaugeSummary `json:"guagesummary"`
}

// main unwraps the three observed nesting forms.
func (d *rawDocument) main() *rawMain {
	switch {
	case d.View != nil && d.View.Main != nil:
		return d.View.Main
	case d.Main != nil:
		return d.Main
	case d.Info != nil:
		return &rawMain{Info: d.Info, Gauges: d.Gauges, GaugeSummary: d.GaugeSummary}
	}
	return nil
}

type rawInfo struct {
	ID          flexInt64       `json:"id"`
	River       string          `json:"river"`
	Section     string          `json:"section"`
	AltName     string          `json:"altname"`
	Class       string          `json:"class"`
	Description string          `json:"description_md"`
	Abstract    string          `json:"abstract_md"`
	Length      flexFloat       `json:"length"`
	Edited      string          `json:"edited"`
	PLon        flexFloat       `json:"plon"`
	PLat        flexFloat       `json:"plat"`
	TLon        flexFloat       `json:"tlon"`
	TLat        flexFloat       `json:"tlat"`
	Geom        json.RawMessage `json:"geom"`
}

type rawGauges struct {
	GaugeID      flexInt64 `json:"gauge_id"`
	GaugeReading flexFloat `json:"gauge_reading"`
	GaugeUnits   string    `json:"gauge_units"`
}

type rawGaugeSummary struct {
	Ranges []GaugeRange `json:"ranges"`
}

// --- flexible scalar decoding ---

// flexFloat decodes a float that may arrive as a JSON number, a numeric
// string, an empty string, or null. Non-numeric and absent values leave
// valid false rather than failing the whole document.
type flexFloat struct {
	value float64
	valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(b), `"`)))
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.value = v
	f.valid = true
	return nil
}

// flexInt64 decodes an identifier that may arrive as a JSON number or a
// numeric string.
type flexInt64 struct {
	value int64
	valid bool
}

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(b), `"`)))
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	f.value = v
	f.valid = true
	return nil
}

// String renders the identifier as text, empty when unset.
func (f flexInt64) String() string {
	if !f.valid {
		return ""
	}
	return strconv.FormatInt(f.value, 10)
}
