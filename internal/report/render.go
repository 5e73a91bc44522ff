package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// Formats lists accepted --format values.
var Formats = []string{FormatTable, FormatJSON, FormatYAML, FormatMarkdown}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use %s)", s, strings.Join(Formats, "|"))
	}
}

// Render writes res to w in the given format. JSON and YAML keep raw numbers
// and nulls; table and markdown show formatted values.
func Render(w io.Writer, res analysis.Result, format string) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatMarkdown:
		return renderMarkdown(w, Flatten(res))
	default:
		return renderTable(w, Flatten(res))
	}
}

func renderTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(no results)")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Key, r.Display()})
	}
	t.Render()
	return nil
}

func renderMarkdown(w io.Writer, rows []Row) error {
	_, _ = fmt.Fprintln(w, "| Metric | Value |")
	_, _ = fmt.Fprintln(w, "| --- | ---: |")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "| %s | %s |\n", escapePipe(r.Key), escapePipe(r.Display()))
	}
	return nil
}

func escapePipe(s string) string { return strings.ReplaceAll(s, "|", `\|`) }
