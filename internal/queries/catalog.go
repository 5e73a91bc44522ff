// Package queries holds the fixed catalog of named analytical queries and the
// dispatcher that resolves ids or free text to statistic routines.
package queries

import (
	"fmt"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
)

// Routine names a statistic routine on analysis.Analyzer.
type Routine string

const (
	RoutineSummaryStats              Routine = "summary_stats"
	RoutineEarningsByRegion          Routine = "earnings_by_region"
	RoutineExpertPerformance         Routine = "expert_performance"
	RoutineEarningsByExperience      Routine = "earnings_by_experience"
	RoutineTopPlatforms              Routine = "top_platforms"
	RoutineJobSuccessRate            Routine = "job_success_rate"
	RoutinePaymentMethodEarnings     Routine = "payment_method_earnings"
	RoutineComparePaymentMethods     Routine = "compare_payment_methods"
	RoutineExpertsWithFewJobs        Routine = "experts_with_few_jobs"
	RoutineCompareCategoriesEarnings Routine = "compare_categories_earnings"
	RoutineRatingVsIncome            Routine = "rating_vs_income"
)

// Args are the fixed arguments bound to a catalog entry.
type Args struct {
	N         int    `json:"n,omitempty" yaml:"n,omitempty"`
	Category1 string `json:"category1,omitempty" yaml:"category1,omitempty"`
	Category2 string `json:"category2,omitempty" yaml:"category2,omitempty"`
}

// Entry is one predefined query.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Routine     Routine  `json:"routine" yaml:"routine"`
	Args        Args     `json:"args,omitempty" yaml:"args,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// catalog is in definition order; free-text matching depends on it.
var catalog = []Entry{
	{
		ID:          "payment_method_earnings",
		Description: "Find which payment method yields the highest earnings",
		Routine:     RoutinePaymentMethodEarnings,
	},
	{
		ID:          "experts_few_jobs",
		Description: "Percentage of experts with fewer than 100 jobs",
		Routine:     RoutineExpertsWithFewJobs,
	},
	{
		ID:          "compare_web_vs_graphic",
		Description: "Compare earnings between web developers and graphic designers",
		Routine:     RoutineCompareCategoriesEarnings,
		Args:        Args{Category1: analysis.DefaultCategory1, Category2: analysis.DefaultCategory2},
	},
	{
		ID:          "rating_income",
		Description: "Analyze how client rating affects income",
		Routine:     RoutineRatingVsIncome,
	},
	{
		ID:          "top_platforms",
		Description: "Show the top 3 platforms by average earnings",
		Routine:     RoutineTopPlatforms,
		Args:        Args{N: analysis.DefaultTopPlatforms},
	},
	{
		ID:          "payment_method_comparison",
		Description: "Compare earnings between payment methods",
		Routine:     RoutineComparePaymentMethods,
		Keywords:    []string{"crypto"},
	},
	{
		ID:          "earnings_by_region",
		Description: "Analyze earnings distribution by client region",
		Routine:     RoutineEarningsByRegion,
	},
	{
		ID:          "expert_performance",
		Description: "Analyze expert freelancer performance metrics",
		Routine:     RoutineExpertPerformance,
	},
	{
		ID:          "earnings_by_experience",
		Description: "Analyze earnings by experience level",
		Routine:     RoutineEarningsByExperience,
	},
	{
		ID:          "success_rate_analysis",
		Description: "Analyze job success rate statistics",
		Routine:     RoutineJobSuccessRate,
	},
}

func init() {
	if err := Validate(); err != nil {
		panic(err)
	}
}

// Catalog returns a copy of all entries in catalog order.
func Catalog() []Entry {
	out := make([]Entry, len(catalog))
	for i, e := range catalog {
		e.Keywords = append([]string(nil), e.Keywords...)
		out[i] = e
	}
	return out
}

// Lookup resolves an entry by id. It executes nothing.
func Lookup(id string) (Entry, bool) {
	for _, e := range catalog {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Validate checks that ids are unique and non-empty and that every entry is
// bound to a known routine with the arguments it needs.
func Validate() error {
	seen := make(map[string]bool, len(catalog))
	for i, e := range catalog {
		if e.ID == "" {
			return fmt.Errorf("catalog entry %d: empty id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("catalog entry %q: duplicate id", e.ID)
		}
		seen[e.ID] = true
		if _, ok := routines[e.Routine]; !ok {
			return fmt.Errorf("catalog entry %q: unknown routine %q", e.ID, e.Routine)
		}
		switch e.Routine {
		case RoutineTopPlatforms:
			if e.Args.N < 1 {
				return fmt.Errorf("catalog entry %q: top_platforms needs n >= 1", e.ID)
			}
		case RoutineCompareCategoriesEarnings:
			if e.Args.Category1 == "" || e.Args.Category2 == "" {
				return fmt.Errorf("catalog entry %q: two categories required", e.ID)
			}
		}
	}
	return nil
}
