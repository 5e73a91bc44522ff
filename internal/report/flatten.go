// Package report renders query results for the terminal or for machines.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
)

// Kind decides how a value is displayed in human-readable formats.
type Kind int

const (
	KindText Kind = iota
	KindCount
	KindCurrency
	KindPercent
	KindRatio
	KindUndefined
)

// Row is one leaf of a flattened result.
type Row struct {
	Key   string
	Value any
	Kind  Kind
}

// Display formats the value for people: currency and percentages get units,
// undefined statistics read "n/a".
func (r Row) Display() string {
	switch r.Kind {
	case KindUndefined:
		return "n/a"
	case KindCurrency:
		return utils.FormatCurrency(r.Value.(float64))
	case KindPercent:
		return utils.FormatPercentage(r.Value.(float64))
	case KindRatio:
		return fmt.Sprintf("%.3f", r.Value.(float64))
	}
	return fmt.Sprintf("%v", r.Value)
}

// Flatten walks a result into dotted-key rows. Map keys are visited in sorted
// order and ordered collections keep their order, so output is deterministic.
func Flatten(res analysis.Result) []Row {
	var rows []Row
	flatten(&rows, nil, map[string]any(res))
	return rows
}

func flatten(rows *[]Row, path []string, v any) {
	switch t := v.(type) {
	case analysis.Result:
		flatten(rows, path, map[string]any(t))
	case map[string]any:
		for _, k := range sortedKeys(t) {
			flatten(rows, extend(path, k), t[k])
		}
	case map[string]analysis.GroupStats:
		for _, k := range sortedKeys(t) {
			flatten(rows, extend(path, k), t[k])
		}
	case map[string]float64:
		for _, k := range sortedKeys(t) {
			flatten(rows, extend(path, k), t[k])
		}
	case analysis.GroupStats:
		flatten(rows, extend(path, "mean"), t.Mean)
		flatten(rows, extend(path, "median"), t.Median)
		flatten(rows, extend(path, "count"), t.Count)
	case []analysis.BandStats:
		for _, b := range t {
			flatten(rows, extend(path, b.Band), b.GroupStats)
		}
	case []analysis.Ranked:
		for _, r := range t {
			flatten(rows, extend(path, r.Name), r.Value)
		}
	case []dataset.CategoryCount:
		for _, c := range t {
			flatten(rows, extend(path, c.Value), c.Count)
		}
	default:
		*rows = append(*rows, Row{Key: strings.Join(path, "."), Value: v, Kind: kindOf(path, v)})
	}
}

func extend(path []string, k string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, k)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// kindOf classifies a leaf. Every float that is not a rate, share or
// correlation in these results is an earnings amount.
func kindOf(path []string, v any) Kind {
	if v == nil {
		return KindUndefined
	}
	if _, ok := v.(float64); !ok {
		switch v.(type) {
		case int, int64:
			return KindCount
		}
		return KindText
	}
	leaf := ""
	if len(path) > 0 {
		leaf = path[len(path)-1]
	}
	joined := strings.Join(path, ".")
	switch {
	case strings.Contains(leaf, "correlation") || strings.HasSuffix(leaf, "_vs_earnings"):
		return KindRatio
	case strings.HasPrefix(leaf, "percentage") || strings.Contains(joined, "success_rate"):
		return KindPercent
	}
	return KindCurrency
}
