package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Declared column names. Any other column in the source is ignored.
const (
	ColJobsCompleted   = "Job_Completed"
	ColEarnings        = "Earnings_USD"
	ColHourlyRate      = "Hourly_Rate"
	ColSuccessRate     = "Job_Success_Rate"
	ColClientRating    = "Client_Rating"
	ColJobDurationDays = "Job_Duration_Days"
	ColRehireRate      = "Rehire_Rate"
	ColMarketingSpend  = "Marketing_Spend"

	ColJobCategory     = "Job_Category"
	ColPlatform        = "Platform"
	ColExperienceLevel = "Experience_Level"
	ColClientRegion    = "Client_Region"
	ColPaymentMethod   = "Payment_Method"
	ColProjectType     = "Project_Type"
)

// Number is a numeric cell that may be explicitly absent.
type Number struct {
	Value float64
	Valid bool
}

// Some returns a present Number.
func Some(v float64) Number { return Number{Value: v, Valid: true} }

// Record is one freelancer engagement.
type Record struct {
	JobsCompleted   Number
	Earnings        Number
	HourlyRate      Number
	SuccessRate     Number
	ClientRating    Number
	JobDurationDays Number
	RehireRate      Number
	MarketingSpend  Number

	JobCategory     string
	Platform        string
	ExperienceLevel string
	ClientRegion    string
	PaymentMethod   string
	ProjectType     string
}

type numericColumn struct {
	name  string
	field func(*Record) *Number
}

type textColumn struct {
	name  string
	field func(*Record) *string
}

var numericColumns = []numericColumn{
	{ColJobsCompleted, func(r *Record) *Number { return &r.JobsCompleted }},
	{ColEarnings, func(r *Record) *Number { return &r.Earnings }},
	{ColHourlyRate, func(r *Record) *Number { return &r.HourlyRate }},
	{ColSuccessRate, func(r *Record) *Number { return &r.SuccessRate }},
	{ColClientRating, func(r *Record) *Number { return &r.ClientRating }},
	{ColJobDurationDays, func(r *Record) *Number { return &r.JobDurationDays }},
	{ColRehireRate, func(r *Record) *Number { return &r.RehireRate }},
	{ColMarketingSpend, func(r *Record) *Number { return &r.MarketingSpend }},
}

var textColumns = []textColumn{
	{ColJobCategory, func(r *Record) *string { return &r.JobCategory }},
	{ColPlatform, func(r *Record) *string { return &r.Platform }},
	{ColExperienceLevel, func(r *Record) *string { return &r.ExperienceLevel }},
	{ColClientRegion, func(r *Record) *string { return &r.ClientRegion }},
	{ColPaymentMethod, func(r *Record) *string { return &r.PaymentMethod }},
	{ColProjectType, func(r *Record) *string { return &r.ProjectType }},
}

// ColumnInfo captures what the loader saw and did for one declared column.
type ColumnInfo struct {
	Name    string
	Kind    string // numeric|categorical
	Present bool
	NonNull int
	// Missing counts cells absent before imputation, Coerced the non-empty
	// cells that failed numeric parsing (included in Missing).
	Missing int
	Coerced int
	// Imputation
	Imputed   int
	FillValue float64
	FillRule  string // zero|median
}

// Dataset is the normalized, read-only table.
type Dataset struct {
	name      string
	rows      []Record
	totalRows int
	columns   []ColumnInfo
	ignored   []string
	warnings  []string
}

// Name is the base name of the source.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of loaded rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns a copy of the i-th record.
func (d *Dataset) Row(i int) Record { return d.rows[i] }

// Records returns a copy of all records; callers may annotate or reorder it freely.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.rows))
	copy(out, d.rows)
	return out
}

// Has reports whether a declared column was present in the source.
func (d *Dataset) Has(column string) bool {
	for _, c := range d.columns {
		if c.Name == column {
			return c.Present
		}
	}
	return false
}

// Columns returns load metadata for every declared column, numeric first.
func (d *Dataset) Columns() []ColumnInfo {
	out := make([]ColumnInfo, len(d.columns))
	copy(out, d.columns)
	return out
}

// Column returns load metadata for a declared column.
func (d *Dataset) Column(name string) (ColumnInfo, bool) {
	for _, c := range d.columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// Ignored lists source columns that are not part of the declared schema.
func (d *Dataset) Ignored() []string { return append([]string(nil), d.ignored...) }

// Warnings returns non-fatal notes collected while loading.
func (d *Dataset) Warnings() []string { return append([]string(nil), d.warnings...) }

// NormalizeCategory trims and title-cases a categorical value the same way the
// loader does, so user input can be compared against dataset values.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}
