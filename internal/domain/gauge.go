package domain

import (
	"sort"
	"strconv"
	"strings"
)

// GaugeRange is one flow range from the document's gauge summary. The
// range_min/range_max keys are AW's R0–R9 scale indexes; min/max carry the
// boundary readings in the gauge's own units.
type GaugeRange struct {
	RangeMin string    `json:"range_min"`
	Min      flexFloat `json:"min"`
	RangeMax string    `json:"range_max"`
	Max      flexFloat `json:"max"`
}

// GaugeMetric pairs a scale index key with its boundary reading.
type GaugeMetric struct {
	Key   string
	Value float64
}

// RangeBias describes whether a reach's flow ranges carry more detail at the
// low or high end of the R0–R9 scale.
type RangeBias string

const (
	BiasLow      RangeBias = "low"
	BiasHigh     RangeBias = "high"
	BiasBalanced RangeBias = "balanced"
)

// GaugeValueList flattens gauge ranges into a deduplicated list of boundary
// metrics sorted by reading.
func GaugeValueList(ranges []GaugeRange) []GaugeMetric {
	seen := make(map[GaugeMetric]struct{})
	var metrics []GaugeMetric

	add := func(key string, v flexFloat) {
		if !v.valid {
			return
		}
		m := GaugeMetric{Key: key, Value: v.value}
		if _, ok := seen[m]; ok {
			return
		}
		seen[m] = struct{}{}
		metrics = append(metrics, m)
	}

	for _, rng := range ranges {
		add(rng.RangeMin, rng.Min)
		add(rng.RangeMax, rng.Max)
	}

	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Value != metrics[j].Value {
			return metrics[i].Value < metrics[j].Value
		}
		return metrics[i].Key < metrics[j].Key
	})
	return metrics
}

// GaugeRangeBias reports whether the scale indexes sit mostly below R5,
// mostly at or above it, or evenly split.
func GaugeRangeBias(keys []string) RangeBias {
	var low, high int
	for _, key := range keys {
		n, err := strconv.Atoi(strings.TrimPrefix(key, "R"))
		if err != nil {
			continue
		}
		if n <= 4 {
			low++
		} else {
			high++
		}
	}
	switch {
	case low > high:
		return BiasLow
	case high > low:
		return BiasHigh
	}
	return BiasBalanced
}

// GaugeRunnable reports whether an observation falls inside the runnable
// band. With two or more boundary metrics the band is (first, last); with a
// single metric the bias decides which side of it is runnable.
func GaugeRunnable(ranges []GaugeRange, observation float64) bool {
	metrics := GaugeValueList(ranges)
	switch len(metrics) {
	case 0:
		return false
	case 1:
		if metricBias(metrics) == BiasHigh {
			return observation < metrics[0].Value
		}
		return observation > metrics[0].Value
	}
	return metrics[0].Value < observation && observation < metrics[len(metrics)-1].Value
}

// GaugeStage maps an observation onto a human-readable stage label derived
// from the reach's flow ranges. Returns "no gauge reading" without an
// observation and "" without any ranges to compare against.
func GaugeStage(ranges []GaugeRange, observation *float64) string {
	if observation == nil {
		return "no gauge reading"
	}

	metrics := GaugeValueList(ranges)
	if len(metrics) == 0 {
		return ""
	}

	obs := *observation
	first, last := metrics[0].Value, metrics[len(metrics)-1].Value
	if obs < first {
		return "too low"
	}
	if obs > last {
		return "too high"
	}

	ladder := stageLadder(len(metrics)-1, metricBias(metrics))
	for i := 0; i < len(metrics)-1; i++ {
		if obs <= metrics[i+1].Value {
			if i < len(ladder) {
				return ladder[i]
			}
			break
		}
	}
	return "runnable"
}

func metricBias(metrics []GaugeMetric) RangeBias {
	keys := make([]string, len(metrics))
	for i, m := range metrics {
		keys[i] = m.Key
	}
	return GaugeRangeBias(keys)
}

// stageLadders assigns labels to the intervals between boundary metrics,
// keyed by interval count. Odd-detail reaches get a low and a high variant;
// balanced falls back to the low one.
var stageLadders = map[int]map[RangeBias][]string{
	1: {BiasLow: {"runnable"}},
	2: {BiasLow: {"lower runnable", "higher runnable"}},
	3: {BiasLow: {"low", "medium", "high"}},
	4: {
		BiasLow:  {"very low", "medium low", "medium", "high"},
		BiasHigh: {"low", "medium", "medium high", "very high"},
	},
	5: {BiasLow: {"low", "medium low", "medium", "high medium", "high"}},
	6: {
		BiasLow:  {"very low", "low", "medium low", "medium", "high medium", "high"},
		BiasHigh: {"low", "medium low", "medium", "medium high", "high", "very high"},
	},
	7: {BiasLow: {"very low", "low", "medium low", "medium", "medium high", "high", "very high"}},
	8: {
		BiasLow:  {"extremely low", "very low", "low", "medium low", "medium", "medium high", "high", "very high"},
		BiasHigh: {"very low", "low", "medium low", "medium", "medium high", "high", "very high", "extremely high"},
	},
	9: {BiasLow: {"extremely low", "very low", "low", "medium low", "medium", "medium high", "high", "very high", "extremely high"}},
}

func stageLadder(intervals int, bias RangeBias) []string {
	variants, ok := stageLadders[intervals]
	if !ok {
		return nil
	}
	if ladder, ok := variants[bias]; ok {
		return ladder
	}
	return variants[BiasLow]
}
