package export

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reach-data-etl/internal/domain"
)

func testReaches(n int) []*domain.Reach {
	reaches := make([]*domain.Reach, n)
	for i := range reaches {
		reaches[i] = &domain.Reach{
			ReachID:  int64(i + 1),
			River:    fmt.Sprintf("River %d", i+1),
			Geometry: orb.MultiLineString{{{-80, 38}, {-80.1, 38.1}}},
		}
	}
	return reaches
}

func collect(seq func(func(Record) bool)) []Record {
	var out []Record
	seq(func(r Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

func TestRecords(t *testing.T) {
	reaches := testReaches(3)
	records := collect(Records(reaches))

	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, int64(i+1), rec.Attributes["reach_id"])
		assert.Equal(t, reaches[i].Geometry, rec.Geometry.Paths)
		assert.Equal(t, domain.WKID, rec.Geometry.SpatialReference.WKID)
	}
}

func TestRecordsRestartable(t *testing.T) {
	seq := Records(testReaches(5))

	first := collect(seq)
	second := collect(seq)
	assert.Equal(t, first, second)
}

func TestRecordGeometryJSON(t *testing.T) {
	rec := collect(Records(testReaches(1)))[0]

	data, err := json.Marshal(rec.Geometry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"paths": [[[-80, 38], [-80.1, 38.1]]], "spatialReference": {"wkid": 4326}}`, string(data))
}

func TestBatches(t *testing.T) {
	records := collect(Records(testReaches(450)))

	var sizes []int
	var total int
	for batch := range Batches(records, 200) {
		sizes = append(sizes, len(batch))
		total += len(batch)
	}

	assert.Equal(t, []int{200, 200, 50}, sizes)
	assert.Equal(t, 450, total)
}

func TestBatchesPreserveOrder(t *testing.T) {
	records := collect(Records(testReaches(7)))

	var ids []int64
	for batch := range Batches(records, 3) {
		for _, rec := range batch {
			ids = append(ids, rec.Attributes["reach_id"].(int64))
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, ids)
}

func TestBatchesEdgeSizes(t *testing.T) {
	records := collect(Records(testReaches(3)))

	t.Run("size below one clamps to one", func(t *testing.T) {
		var count int
		for batch := range Batches(records, 0) {
			assert.Len(t, batch, 1)
			count++
		}
		assert.Equal(t, 3, count)
	})

	t.Run("size beyond total yields one batch", func(t *testing.T) {
		var batches [][]Record
		for batch := range Batches(records, 100) {
			batches = append(batches, batch)
		}
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 3)
	})

	t.Run("no records yields no batches", func(t *testing.T) {
		for range Batches(nil, 200) {
			t.Fatal("unexpected batch")
		}
	})
}
