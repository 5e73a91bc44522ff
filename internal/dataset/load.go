package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options controls how a source is read.
type Options struct {
	// Delimiter for CSV. If 0, picked from the file extension (.tsv = tab, else comma).
	Delimiter rune
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// ThousandsSeparator is stripped from numeric cells when set. Parsing is strict otherwise.
	ThousandsSeparator rune
	// Sheet selects a worksheet by name for .xlsx sources; empty means the first sheet.
	Sheet string
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{}
}

// ErrEmptySource is returned (wrapped in DataLoadError) when the source has no header row.
var ErrEmptySource = errors.New("no header row")

// DataLoadError reports an unreadable or malformed source.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load dataset %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("load dataset: %v", e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// rowReader yields raw records until io.EOF. *csv.Reader satisfies it.
type rowReader interface {
	Read() ([]string, error)
}

// Load opens a delimited-text or .xlsx file and returns the normalized Dataset.
func Load(path string, opt Options) (*Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return Read(f, filepath.Base(path), opt)
}

// Read parses and normalizes a delimited-text stream. name is used for reporting only.
func Read(r io.Reader, name string, opt Options) (*Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comma = delim
	return build(cr, name, opt)
}

func build(cr rowReader, name string, opt Options) (*Dataset, error) {
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataLoadError{Path: name, Err: ErrEmptySource}
		}
		return nil, &DataLoadError{Path: name, Err: fmt.Errorf("read header: %w", err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; dup {
			return nil, &DataLoadError{Path: name, Err: fmt.Errorf("duplicate column %q", h)}
		}
		index[h] = i
	}

	ds := &Dataset{name: name}
	declared := map[string]bool{}
	numIdx := make([]int, len(numericColumns))
	for i, c := range numericColumns {
		declared[c.name] = true
		numIdx[i] = lookup(index, c.name)
	}
	txtIdx := make([]int, len(textColumns))
	for i, c := range textColumns {
		declared[c.name] = true
		txtIdx[i] = lookup(index, c.name)
	}
	for _, h := range header {
		if h = strings.TrimSpace(h); !declared[h] {
			ds.ignored = append(ds.ignored, h)
		}
	}

	// Numeric coercion and categorical cleanup are per-cell and run in a single pass.
	numInfo := make([]ColumnInfo, len(numericColumns))
	for i, c := range numericColumns {
		numInfo[i] = ColumnInfo{Name: c.name, Kind: "numeric", Present: numIdx[i] >= 0}
	}
	txtInfo := make([]ColumnInfo, len(textColumns))
	for i, c := range textColumns {
		txtInfo[i] = ColumnInfo{Name: c.name, Kind: "categorical", Present: txtIdx[i] >= 0}
	}
	caser := cases.Title(language.English)
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &DataLoadError{Path: name, Err: fmt.Errorf("read row %d: %w", ds.totalRows+1, err)}
		}
		ds.totalRows++
		if len(rec) > len(header) {
			return nil, &DataLoadError{Path: name, Err: fmt.Errorf("row %d: expected %d fields, saw %d", ds.totalRows, len(header), len(rec))}
		}
		if len(ds.rows) >= maxRows {
			continue
		}
		var row Record
		for i, c := range numericColumns {
			if numIdx[i] < 0 {
				continue
			}
			n, coerced := parseNumber(cell(rec, numIdx[i]), opt)
			*c.field(&row) = n
			if n.Valid {
				numInfo[i].NonNull++
			} else {
				numInfo[i].Missing++
				if coerced {
					numInfo[i].Coerced++
				}
			}
		}
		for i, c := range textColumns {
			if txtIdx[i] < 0 {
				continue
			}
			v := strings.TrimSpace(cell(rec, txtIdx[i]))
			if v == "" {
				txtInfo[i].Missing++
			} else {
				v = caser.String(v)
				txtInfo[i].NonNull++
			}
			*c.field(&row) = v
		}
		ds.rows = append(ds.rows, row)
	}

	ds.columns = append(numInfo, txtInfo...)
	for _, c := range ds.columns {
		if !c.Present {
			ds.warnings = append(ds.warnings, fmt.Sprintf("column %s not found in source; related rules skipped", c.Name))
		}
	}
	if len(ds.rows) < ds.totalRows {
		ds.warnings = append(ds.warnings, fmt.Sprintf("loaded only %d/%d rows due to MaxRows", len(ds.rows), ds.totalRows))
	}

	// Medians are taken before any column is filled so each one sees only original values.
	ratingMedian, ratingOK := ds.median(ColClientRating)
	successMedian, successOK := ds.median(ColSuccessRate)

	ds.fill(ColEarnings, 0, "zero")
	if ratingOK {
		ds.fill(ColClientRating, ratingMedian, "median")
	}
	if successOK {
		ds.fill(ColSuccessRate, successMedian, "median")
	}
	return ds, nil
}

func lookup(index map[string]int, name string) int {
	if i, ok := index[name]; ok {
		return i
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// parseNumber converts a raw cell. coerced is true when a non-empty cell could not be parsed.
func parseNumber(s string, opt Options) (n Number, coerced bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Number{}, false
	}
	if opt.ThousandsSeparator != 0 {
		raw = strings.ReplaceAll(raw, string(opt.ThousandsSeparator), "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Number{}, true
	}
	if math.IsNaN(f) {
		return Number{}, false
	}
	if math.IsInf(f, 0) {
		return Number{}, true
	}
	return Some(f), false
}

func (d *Dataset) numericField(column string) (func(*Record) *Number, int) {
	for i, c := range numericColumns {
		if c.name == column {
			return c.field, i
		}
	}
	return nil, -1
}

// median of the non-missing values of a numeric column as currently stored.
func (d *Dataset) median(column string) (float64, bool) {
	field, _ := d.numericField(column)
	if field == nil || !d.Has(column) {
		return 0, false
	}
	vals := make([]float64, 0, len(d.rows))
	for i := range d.rows {
		if n := field(&d.rows[i]); n.Valid {
			vals = append(vals, n.Value)
		}
	}
	m, err := stats.Median(vals)
	if err != nil {
		return 0, false
	}
	return m, true
}

// fill replaces missing cells of a present numeric column with v.
func (d *Dataset) fill(column string, v float64, rule string) {
	field, idx := d.numericField(column)
	if field == nil || !d.columns[idx].Present {
		return
	}
	count := 0
	for i := range d.rows {
		if n := field(&d.rows[i]); !n.Valid {
			*n = Some(v)
			count++
		}
	}
	d.columns[idx].Imputed = count
	d.columns[idx].FillValue = v
	d.columns[idx].FillRule = rule
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
