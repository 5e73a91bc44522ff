// Package analysis implements the fixed set of statistics computed over a
// normalized freelancer earnings dataset.
package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
)

// Default arguments for routines that take parameters.
const (
	DefaultTopPlatforms = 3
	DefaultCategory1    = "Web Development"
	DefaultCategory2    = "Graphic Design"

	levelExpert     = "Expert"
	methodCrypto    = "Crypto"
	fewJobsCutoff   = 100
	topSummaryCount = 5
)

// Analyzer runs routines against a read-only Dataset. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	ds *dataset.Dataset
}

// New returns an Analyzer over ds.
func New(ds *dataset.Dataset) *Analyzer {
	return &Analyzer{ds: ds}
}

// Dataset returns the underlying dataset.
func (a *Analyzer) Dataset() *dataset.Dataset { return a.ds }

// SummaryStats reports row count, earnings mean/median and the most frequent
// job categories and client regions.
func (a *Analyzer) SummaryStats() (Result, error) {
	recs := a.ds.Records()
	if len(recs) == 0 {
		return nil, insufficient("summary_stats", "dataset has no rows")
	}
	vals := earningsOf(recs)
	avg, avgOK := mean(vals)
	med, medOK := median(vals)
	return Result{
		"total_freelancers": len(recs),
		"avg_earnings":      optional(avg, avgOK),
		"median_earnings":   optional(med, medOK),
		"top_categories":    a.ds.TopValues(dataset.ColJobCategory, topSummaryCount),
		"common_regions":    a.ds.TopValues(dataset.ColClientRegion, topSummaryCount),
	}, nil
}

// DataSummary renders a one-paragraph text summary of the dataset.
func (a *Analyzer) DataSummary() string {
	recs := a.ds.Records()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dataset contains %d freelancers.", len(recs)))
	if avg, ok := mean(earningsOf(recs)); ok {
		b.WriteString(fmt.Sprintf(" Average earnings: %s.", utils.FormatCurrency(avg)))
	}
	if cats := names(a.ds.TopValues(dataset.ColJobCategory, topSummaryCount)); cats != "" {
		b.WriteString(fmt.Sprintf(" Top categories: %s.", cats))
	}
	if regions := names(a.ds.TopValues(dataset.ColClientRegion, topSummaryCount)); regions != "" {
		b.WriteString(fmt.Sprintf(" Most common client regions: %s.", regions))
	}
	return b.String()
}

func names(cc []dataset.CategoryCount) string {
	out := make([]string, len(cc))
	for i, c := range cc {
		out[i] = c.Value
	}
	return strings.Join(out, ", ")
}

// EarningsByRegion reports mean, median and count of earnings per client region.
func (a *Analyzer) EarningsByRegion() (Result, error) {
	return Result{"regions": a.groupEarnings(func(r dataset.Record) string { return r.ClientRegion })}, nil
}

// EarningsByExperience reports mean, median and count of earnings per experience level.
func (a *Analyzer) EarningsByExperience() (Result, error) {
	return Result{"experience_levels": a.groupEarnings(func(r dataset.Record) string { return r.ExperienceLevel })}, nil
}

func (a *Analyzer) groupEarnings(key func(dataset.Record) string) map[string]GroupStats {
	keys, groups := groupBy(a.ds.Records(), key)
	out := make(map[string]GroupStats, len(keys))
	for _, k := range keys {
		if gs, ok := earningsStats(groups[k]); ok {
			out[k] = gs
		}
	}
	return out
}

func isExpert(r dataset.Record) bool { return r.ExperienceLevel == levelExpert }

func hasFewJobs(r dataset.Record) bool {
	return r.JobsCompleted.Valid && r.JobsCompleted.Value < fewJobsCutoff
}

// ExpertPerformance compares Expert-level freelancers with fewer than 100
// completed jobs against all experts.
func (a *Analyzer) ExpertPerformance() (Result, error) {
	experts := filter(a.ds.Records(), isExpert)
	if len(experts) == 0 {
		return nil, insufficient("expert_performance", "no rows with experience level %q", levelExpert)
	}
	few := filter(experts, hasFewJobs)
	lowAvg, lowOK := mean(earningsOf(few))
	allAvg, allOK := mean(earningsOf(experts))
	return Result{
		"total_experts":                    len(experts),
		"experts_with_less_than_100_jobs":  len(few),
		"percentage":                       float64(len(few)) / float64(len(experts)) * 100,
		"avg_earnings_low_project_experts": optional(lowAvg, lowOK),
		"avg_earnings_all_experts":         optional(allAvg, allOK),
	}, nil
}

// ExpertsWithFewJobs reports the share of Expert-level rows with fewer than 100 completed jobs.
func (a *Analyzer) ExpertsWithFewJobs() (Result, error) {
	experts := filter(a.ds.Records(), isExpert)
	if len(experts) == 0 {
		return nil, insufficient("experts_with_few_jobs", "no rows with experience level %q", levelExpert)
	}
	under := len(filter(experts, hasFewJobs))
	return Result{
		"percentage":      float64(under) / float64(len(experts)) * 100,
		"count_under_100": under,
		"total_experts":   len(experts),
	}, nil
}

// TopPlatforms returns the n platforms with the highest mean earnings.
func (a *Analyzer) TopPlatforms(n int) (Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("top_platforms: %w: n must be at least 1, got %d", ErrInvalidArgument, n)
	}
	ranked := rankByMeanEarnings(a.ds.Records(), func(r dataset.Record) string { return r.Platform })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return Result{"n": n, "platforms": ranked}, nil
}

// JobSuccessRate reports the overall and per-category mean success rate and its
// correlation with earnings.
func (a *Analyzer) JobSuccessRate() (Result, error) {
	recs := a.ds.Records()
	var rates []float64
	var xs, ys []float64
	for _, r := range recs {
		if !r.SuccessRate.Valid {
			continue
		}
		rates = append(rates, r.SuccessRate.Value)
		if r.Earnings.Valid {
			xs = append(xs, r.SuccessRate.Value)
			ys = append(ys, r.Earnings.Value)
		}
	}
	avg, ok := mean(rates)
	if !ok {
		return nil, insufficient("job_success_rate", "no job success rate values")
	}
	keys, groups := groupBy(recs, func(r dataset.Record) string { return r.JobCategory })
	byCategory := make(map[string]float64, len(keys))
	for _, k := range keys {
		var vals []float64
		for _, r := range groups[k] {
			if r.SuccessRate.Valid {
				vals = append(vals, r.SuccessRate.Value)
			}
		}
		if m, ok := mean(vals); ok {
			byCategory[k] = m
		}
	}
	return Result{
		"avg_success_rate":         avg,
		"success_rate_by_category": byCategory,
		"success_rate_vs_earnings": optional(pearson(xs, ys)),
		"correlated_rows":          len(xs),
	}, nil
}

// PaymentMethodEarnings ranks payment methods by mean earnings and names the highest.
func (a *Analyzer) PaymentMethodEarnings() (Result, error) {
	ranked := rankByMeanEarnings(a.ds.Records(), func(r dataset.Record) string { return r.PaymentMethod })
	if len(ranked) == 0 {
		return nil, insufficient("payment_method_earnings", "no payment methods with earnings")
	}
	return Result{
		"highest_earning_method": ranked[0].Name,
		"highest_earning_amount": ranked[0].Value,
		"all_methods":            ranked,
	}, nil
}

// ComparePaymentMethods compares mean earnings of Crypto payments against all other methods.
func (a *Analyzer) ComparePaymentMethods() (Result, error) {
	recs := a.ds.Records()
	crypto, cryptoOK := mean(earningsOf(filter(recs, func(r dataset.Record) bool { return r.PaymentMethod == methodCrypto })))
	other, otherOK := mean(earningsOf(filter(recs, func(r dataset.Record) bool { return r.PaymentMethod != methodCrypto })))
	switch {
	case !cryptoOK:
		return nil, insufficient("compare_payment_methods", "no %s payments with earnings", methodCrypto)
	case !otherOK:
		return nil, insufficient("compare_payment_methods", "no non-%s payments with earnings", methodCrypto)
	case other == 0:
		return nil, insufficient("compare_payment_methods", "mean earnings of other methods is zero; percentage difference undefined")
	}
	diff := crypto - other
	return Result{
		"crypto_avg_earnings":   crypto,
		"other_avg_earnings":    other,
		"difference":            diff,
		"percentage_difference": diff / other * 100,
	}, nil
}

// CompareCategoriesEarnings compares earnings of two job categories. Category
// names are normalized like dataset values before matching.
func (a *Analyzer) CompareCategoriesEarnings(category1, category2 string) (Result, error) {
	c1 := dataset.NormalizeCategory(category1)
	c2 := dataset.NormalizeCategory(category2)
	recs := a.ds.Records()
	out := Result{}
	var means [2]float64
	for i, c := range []string{c1, c2} {
		rows := filter(recs, func(r dataset.Record) bool { return r.JobCategory == c })
		if len(rows) == 0 {
			return nil, insufficient("compare_categories_earnings", "no rows in job category %q", c)
		}
		gs, ok := earningsStats(rows)
		if !ok {
			return nil, insufficient("compare_categories_earnings", "no earnings for job category %q", c)
		}
		out[c] = gs
		means[i] = gs.Mean
	}
	out["difference"] = means[0] - means[1]
	return out, nil
}

// Rating bands, upper bound inclusive. The first band also includes 0.
var ratingBands = []struct {
	label  string
	lo, hi float64
}{
	{"0-3", 0, 3},
	{"3-4", 3, 4},
	{"4-4.5", 4, 4.5},
	{"4.5-5", 4.5, 5},
}

// RatingBand returns the band label for a client rating.
func RatingBand(rating float64) (string, bool) {
	for i, b := range ratingBands {
		if (rating > b.lo || (i == 0 && rating == b.lo)) && rating <= b.hi {
			return b.label, true
		}
	}
	return "", false
}

// RatingVsIncome buckets client ratings into bands and reports earnings per band
// plus the rating/earnings correlation.
func (a *Analyzer) RatingVsIncome() (Result, error) {
	recs := a.ds.Records()
	// bucket labels live in a request-local slice; the dataset is never annotated
	bands := make([]string, len(recs))
	var xs, ys []float64
	for i, r := range recs {
		if !r.ClientRating.Valid {
			continue
		}
		bands[i], _ = RatingBand(r.ClientRating.Value)
		if r.Earnings.Valid {
			xs = append(xs, r.ClientRating.Value)
			ys = append(ys, r.Earnings.Value)
		}
	}
	perBand := make([]BandStats, 0, len(ratingBands))
	for _, b := range ratingBands {
		var rows []dataset.Record
		for i, r := range recs {
			if bands[i] == b.label {
				rows = append(rows, r)
			}
		}
		if gs, ok := earningsStats(rows); ok {
			perBand = append(perBand, BandStats{Band: b.label, GroupStats: gs})
		}
	}
	return Result{
		"rating_earnings": perBand,
		"correlation":     optional(pearson(xs, ys)),
	}, nil
}
