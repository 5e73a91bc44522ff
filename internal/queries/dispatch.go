package queries

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
)

// UnknownQueryError is returned when an id is not in the catalog.
type UnknownQueryError struct {
	ID string
}

func (e *UnknownQueryError) Error() string {
	return fmt.Sprintf("unknown query %q (see 'gigstats list')", e.ID)
}

// FallbackMessage accompanies the generic summary returned for unmatched questions.
const FallbackMessage = "No specific analysis found for this query. Here's a general summary."

type routineFunc func(a *analysis.Analyzer, args Args) (analysis.Result, error)

var routines = map[Routine]routineFunc{
	RoutineSummaryStats:         func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.SummaryStats() },
	RoutineEarningsByRegion:     func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.EarningsByRegion() },
	RoutineExpertPerformance:    func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.ExpertPerformance() },
	RoutineEarningsByExperience: func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.EarningsByExperience() },
	RoutineTopPlatforms: func(a *analysis.Analyzer, args Args) (analysis.Result, error) {
		return a.TopPlatforms(args.N)
	},
	RoutineJobSuccessRate:        func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.JobSuccessRate() },
	RoutinePaymentMethodEarnings: func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.PaymentMethodEarnings() },
	RoutineComparePaymentMethods: func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.ComparePaymentMethods() },
	RoutineExpertsWithFewJobs:    func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.ExpertsWithFewJobs() },
	RoutineCompareCategoriesEarnings: func(a *analysis.Analyzer, args Args) (analysis.Result, error) {
		return a.CompareCategoriesEarnings(args.Category1, args.Category2)
	},
	RoutineRatingVsIncome: func(a *analysis.Analyzer, _ Args) (analysis.Result, error) { return a.RatingVsIncome() },
}

// Run executes the routine bound to an entry with its fixed arguments.
func Run(a *analysis.Analyzer, e Entry) (analysis.Result, error) {
	fn, ok := routines[e.Routine]
	if !ok {
		return nil, fmt.Errorf("query %q: no routine %q", e.ID, e.Routine)
	}
	return fn(a, e.Args)
}

// Execute resolves id and runs its routine.
func Execute(a *analysis.Analyzer, id string) (analysis.Result, error) {
	e, ok := Lookup(id)
	if !ok {
		return nil, &UnknownQueryError{ID: id}
	}
	return Run(a, e)
}

// Resolution describes how a user question was answered.
type Resolution struct {
	// Entry is the catalog entry used; zero when Fallback is set.
	Entry    Entry
	ByID     bool
	Fallback bool
	Result   analysis.Result
}

// Answer resolves input the way the CLI does: exact id first, then free-text
// match, then the generic summary. Routine errors are returned unchanged.
func Answer(a *analysis.Analyzer, input string) (Resolution, error) {
	res, err := Execute(a, input)
	var unknown *UnknownQueryError
	switch {
	case err == nil:
		e, _ := Lookup(input)
		return Resolution{Entry: e, ByID: true, Result: res}, nil
	case !errors.As(err, &unknown):
		e, _ := Lookup(input)
		return Resolution{Entry: e, ByID: true}, err
	}

	if e, ok := Match(input); ok {
		res, err := Run(a, e)
		return Resolution{Entry: e, Result: res}, err
	}

	summary, err := a.SummaryStats()
	if err != nil {
		return Resolution{Fallback: true}, err
	}
	return Resolution{
		Fallback: true,
		Result:   analysis.Result{"summary": summary, "message": FallbackMessage},
	}, nil
}
