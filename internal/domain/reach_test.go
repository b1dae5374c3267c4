package domain

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachName(t *testing.T) {
	tests := []struct {
		name    string
		river   string
		section string
		want    string
	}{
		{"both", "Gauley", "Upper", "Gauley Upper"},
		{"river only", "Gauley", "", "Gauley"},
		{"section only", "", "Upper", "Upper"},
		{"neither", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reach{River: tt.river, Section: tt.section}
			assert.Equal(t, tt.want, r.Name())
		})
	}
}

func TestReachCentroid(t *testing.T) {
	t.Run("from geometry extent", func(t *testing.T) {
		r := &Reach{Geometry: orb.MultiLineString{{{-80, 38}, {-82, 40}}}}
		center, ok := r.Centroid()
		require.True(t, ok)
		assert.Equal(t, orb.Point{-81, 39}, center)
	})

	t.Run("from access point pair", func(t *testing.T) {
		r := &Reach{Points: []ReachPoint{
			{PointType: PointTypeAccess, Subtype: SubtypePutin, Geometry: orb.Point{-80, 38}},
			{PointType: PointTypeAccess, Subtype: SubtypeTakeout, Geometry: orb.Point{-82, 40}},
		}}
		center, ok := r.Centroid()
		require.True(t, ok)
		assert.Equal(t, orb.Point{-81, 39}, center)
	})

	t.Run("from single access point", func(t *testing.T) {
		r := &Reach{Points: []ReachPoint{
			{PointType: PointTypeAccess, Subtype: SubtypeTakeout, Geometry: orb.Point{-82, 40}},
		}}
		center, ok := r.Centroid()
		require.True(t, ok)
		assert.Equal(t, orb.Point{-82, 40}, center)
	})

	t.Run("nothing available", func(t *testing.T) {
		_, ok := (&Reach{}).Centroid()
		assert.False(t, ok)
	})
}

func TestNewReachPointValidation(t *testing.T) {
	_, err := NewReachPoint(1, SubtypePutin, -80, 38)
	assert.NoError(t, err)

	_, err = NewReachPoint(1, SubtypePutin, -80, 95)
	assert.ErrorIs(t, err, ErrMalformedDocument)

	_, err = NewReachPoint(1, SubtypeTakeout, 181, 38)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestAttributesCoversCanonicalFields(t *testing.T) {
	length := 4.7
	runnable := true
	r := &Reach{
		ReachID:       42,
		River:         "Gauley",
		Section:       "Upper",
		LengthMiles:   &length,
		Edited:        time.Date(2019, 3, 14, 10, 22, 1, 0, time.UTC),
		GaugeRunnable: &runnable,
	}

	attrs := r.Attributes()
	defs := AttributeFields()
	require.Len(t, attrs, len(defs))
	for _, def := range defs {
		assert.Contains(t, attrs, def.Name)
	}

	assert.Equal(t, int64(42), attrs["reach_id"])
	assert.Equal(t, "Gauley Upper", attrs["name"])
	assert.Equal(t, 4.7, attrs["length_mi"])
	assert.Equal(t, int64(1), attrs["gauge_runnable"])
}

func TestAttributesAbsentValues(t *testing.T) {
	attrs := (&Reach{ReachID: 1}).Attributes()

	assert.Equal(t, "", attrs["river"])
	assert.Equal(t, "", attrs["difficulty"])
	assert.Nil(t, attrs["length_mi"])
	assert.Nil(t, attrs["edited"])
	assert.Nil(t, attrs["gauge_observation"])
	assert.Nil(t, attrs["gauge_min"])
	assert.Nil(t, attrs["gauge_runnable"])
}

func TestAttributeFieldsReturnsCopy(t *testing.T) {
	defs := AttributeFields()
	defs[0].Name = "mutated"
	assert.Equal(t, "reach_id", AttributeFields()[0].Name)
}
