package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// CategoryCount is a categorical value and how many rows carry it.
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// TopValues returns the k most frequent non-empty values of a categorical column.
// Ties keep the order in which values were first encountered.
func (d *Dataset) TopValues(column string, k int) []CategoryCount {
	var field func(*Record) *string
	for _, c := range textColumns {
		if c.name == column {
			field = c.field
		}
	}
	if field == nil {
		return nil
	}
	counts := map[string]int{}
	var order []string
	for i := range d.rows {
		v := *field(&d.rows[i])
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	out := make([]CategoryCount, 0, len(order))
	for _, v := range order {
		out = append(out, CategoryCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Markdown renders a compact load profile suitable for prompts or standalone docs.
func (d *Dataset) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", d.name))
	}
	if len(d.rows) < d.totalRows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (loaded %d)\n", d.totalRows, len(d.rows)))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", len(d.rows)))
	}
	present := 0
	for _, c := range d.columns {
		if c.Present {
			present++
		}
	}
	b.WriteString(fmt.Sprintf("Columns: %d of %d declared", present, len(d.columns)))
	if len(d.ignored) > 0 {
		b.WriteString(fmt.Sprintf(" (+%d ignored: %s)", len(d.ignored), strings.Join(d.ignored, ", ")))
	}
	b.WriteString("\n\n")

	b.WriteString("[SCHEMA]\n")
	for _, c := range d.columns {
		if !c.Present {
			continue
		}
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			if c.Coerced > 0 {
				b.WriteString(fmt.Sprintf(" — %d unparseable cells", c.Coerced))
			}
		case "categorical":
			if tops := d.TopValues(c.Name, 5); len(tops) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range tops {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		}
		b.WriteString("\n")
	}

	var imputed []ColumnInfo
	for _, c := range d.columns {
		if c.FillRule != "" && c.Imputed > 0 {
			imputed = append(imputed, c)
		}
	}
	if len(imputed) > 0 {
		b.WriteString("\n[IMPUTATION]\n")
		for _, c := range imputed {
			b.WriteString(fmt.Sprintf("- %s: %d missing -> %s %.4g\n", c.Name, c.Imputed, c.FillRule, c.FillValue))
		}
	}
	if len(d.warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range d.warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
