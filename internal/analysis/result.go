package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/montanaflynn/stats"
)

// Result is the structured output of a routine: scalars, strings, nil for
// undefined values, grouped aggregates or ordered rankings.
type Result map[string]any

// GroupStats summarizes earnings for one group.
type GroupStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Count  int     `json:"count" yaml:"count"`
}

// Ranked is one entry of an ordered ranking.
type Ranked struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// BandStats summarizes earnings for one client rating band.
type BandStats struct {
	Band string `json:"band" yaml:"band"`
	GroupStats `yaml:",inline"`
}

// ErrInvalidArgument is returned for out-of-range routine arguments.
var ErrInvalidArgument = errors.New("invalid argument")

// InsufficientDataError signals that a routine's required subgroup is empty or a
// denominator is zero, so the statistic is undefined.
type InsufficientDataError struct {
	Routine string
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: %s", e.Routine, e.Reason)
}

func insufficient(routine, format string, args ...any) error {
	return &InsufficientDataError{Routine: routine, Reason: fmt.Sprintf(format, args...)}
}

func mean(vals []float64) (float64, bool) {
	m, err := stats.Mean(vals)
	if err != nil {
		return 0, false
	}
	return m, true
}

func median(vals []float64) (float64, bool) {
	m, err := stats.Median(vals)
	if err != nil {
		return 0, false
	}
	return m, true
}

// optional maps an undefined statistic to nil.
func optional(v float64, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

// pearson returns the correlation of paired samples, or false when it is
// undefined (fewer than two pairs or a constant series).
func pearson(xs, ys []float64) (float64, bool) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0, false
	}
	sx, err := stats.StandardDeviationPopulation(xs)
	if err != nil || sx == 0 {
		return 0, false
	}
	sy, err := stats.StandardDeviationPopulation(ys)
	if err != nil || sy == 0 {
		return 0, false
	}
	r, err := stats.Pearson(xs, ys)
	if err != nil {
		return 0, false
	}
	return r, true
}

func earningsOf(recs []dataset.Record) []float64 {
	out := make([]float64, 0, len(recs))
	for _, r := range recs {
		if r.Earnings.Valid {
			out = append(out, r.Earnings.Value)
		}
	}
	return out
}

func filter(recs []dataset.Record, keep func(dataset.Record) bool) []dataset.Record {
	var out []dataset.Record
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// groupBy partitions records by a non-empty key. Keys are returned sorted.
func groupBy(recs []dataset.Record, key func(dataset.Record) string) ([]string, map[string][]dataset.Record) {
	groups := map[string][]dataset.Record{}
	for _, r := range recs {
		k := key(r)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

func earningsStats(recs []dataset.Record) (GroupStats, bool) {
	vals := earningsOf(recs)
	m, ok := mean(vals)
	if !ok {
		return GroupStats{}, false
	}
	md, _ := median(vals)
	return GroupStats{Mean: m, Median: md, Count: len(vals)}, true
}

// rankByMeanEarnings returns groups ordered by mean earnings, highest first.
// Equal means keep the sorted key order.
func rankByMeanEarnings(recs []dataset.Record, key func(dataset.Record) string) []Ranked {
	keys, groups := groupBy(recs, key)
	out := make([]Ranked, 0, len(keys))
	for _, k := range keys {
		if m, ok := mean(earningsOf(groups[k])); ok {
			out = append(out, Ranked{Name: k, Value: m})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}
