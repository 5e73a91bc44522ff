package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() analysis.Result {
	return analysis.Result{
		"n": 2,
		"platforms": []analysis.Ranked{
			{Name: "Upwork", Value: 1500.5},
			{Name: "Fiverr", Value: 900},
		},
		"regions": map[string]analysis.GroupStats{
			"Usa":  {Mean: 1000, Median: 950, Count: 3},
			"Asia": {Mean: 500, Median: 500, Count: 1},
		},
		"percentage":               25.0,
		"success_rate_by_category": map[string]float64{"Writing": 81.26},
		"correlation":              nil,
		"success_rate_vs_earnings": 0.42,
	}
}

func TestFlattenOrderAndKinds(t *testing.T) {
	rows := Flatten(sample())
	var keys []string
	byKey := map[string]Row{}
	for _, r := range rows {
		keys = append(keys, r.Key)
		byKey[r.Key] = r
	}
	assert.Equal(t, []string{
		"correlation",
		"n",
		"percentage",
		"platforms.Upwork",
		"platforms.Fiverr",
		"regions.Asia.mean",
		"regions.Asia.median",
		"regions.Asia.count",
		"regions.Usa.mean",
		"regions.Usa.median",
		"regions.Usa.count",
		"success_rate_by_category.Writing",
		"success_rate_vs_earnings",
	}, keys)

	assert.Equal(t, "n/a", byKey["correlation"].Display())
	assert.Equal(t, "2", byKey["n"].Display())
	assert.Equal(t, "25.0%", byKey["percentage"].Display())
	assert.Equal(t, "$1,500.50", byKey["platforms.Upwork"].Display())
	assert.Equal(t, "3", byKey["regions.Usa.count"].Display())
	assert.Equal(t, "81.3%", byKey["success_rate_by_category.Writing"].Display())
	assert.Equal(t, "0.420", byKey["success_rate_vs_earnings"].Display())
}

func TestFlattenNestedSummary(t *testing.T) {
	res := analysis.Result{
		"message": "fallback",
		"summary": analysis.Result{
			"total_freelancers": 4,
			"top_categories":    []dataset.CategoryCount{{Value: "Writing", Count: 3}},
		},
	}
	rows := Flatten(res)
	require.Len(t, rows, 3)
	assert.Equal(t, Row{Key: "message", Value: "fallback", Kind: KindText}, rows[0])
	assert.Equal(t, "summary.top_categories.Writing", rows[1].Key)
	assert.Equal(t, "summary.total_freelancers", rows[2].Key)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), "table"))
	out := buf.String()
	assert.Contains(t, out, "Metric")
	assert.NotContains(t, out, "METRIC", "headers keep their case")
	assert.Contains(t, out, "platforms.Upwork")
	assert.Contains(t, out, "$1,500.50")
	assert.Contains(t, out, "n/a")

	buf.Reset()
	require.NoError(t, Render(&buf, analysis.Result{}, ""))
	assert.Equal(t, "(no results)\n", buf.String())
}

func TestRenderJSONKeepsRawValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Nil(t, decoded["correlation"])
	assert.Equal(t, 25.0, decoded["percentage"])
	platforms := decoded["platforms"].([]any)
	assert.Equal(t, "Upwork", platforms[0].(map[string]any)["name"])
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), "yml"))
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "regions")
	assert.True(t, strings.Contains(buf.String(), "correlation: null"))
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, analysis.Result{"a|b": 1.5}, "md"))
	assert.Equal(t, "| Metric | Value |\n| --- | ---: |\n| a\\|b | $1.50 |\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	_, err := ParseFormat("xml")
	assert.Error(t, err)
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
}
