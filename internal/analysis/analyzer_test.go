package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "Job_Category,Platform,Experience_Level,Client_Region,Payment_Method,Job_Completed,Earnings_USD,Job_Success_Rate,Client_Rating"

var testRows = []string{
	"Web Development,Upwork,Expert,USA,Crypto,50,120,90,4.5",
	"web development,Fiverr,Expert,Europe,PayPal,150,80,80,3.0",
	"Graphic Design,Upwork,Beginner,USA,Crypto,20,40,70,4.2",
	"Graphic Design,Toptal,Intermediate,Asia,Bank Transfer,200,60,60,5.0",
	"graphic design,Fiverr,Expert,USA,PayPal,30,80,85,2.0",
}

func newAnalyzer(t *testing.T, rows ...string) *Analyzer {
	t.Helper()
	src := strings.Join(append([]string{testHeader}, rows...), "\n") + "\n"
	ds, err := dataset.Read(strings.NewReader(src), "test.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return New(ds)
}

func TestSummaryStats(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	res, err := a.SummaryStats()
	require.NoError(t, err)
	assert.Equal(t, 5, res["total_freelancers"])
	assert.InDelta(t, 76.0, res["avg_earnings"], 1e-9)
	assert.InDelta(t, 80.0, res["median_earnings"], 1e-9)
	assert.Equal(t, []dataset.CategoryCount{{Value: "Usa", Count: 3}, {Value: "Europe", Count: 1}, {Value: "Asia", Count: 1}}, res["common_regions"])

	summary := a.DataSummary()
	assert.Contains(t, summary, "Dataset contains 5 freelancers.")
	assert.Contains(t, summary, "$76.00")
}

func TestSummaryStatsEmpty(t *testing.T) {
	_, err := newAnalyzer(t).SummaryStats()
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
}

func TestCompareCategoriesEarnings(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	res, err := a.CompareCategoriesEarnings("web development", "GRAPHIC design")
	require.NoError(t, err)
	web := res["Web Development"].(GroupStats)
	graphic := res["Graphic Design"].(GroupStats)
	assert.InDelta(t, 100.0, web.Mean, 1e-9)
	assert.Equal(t, 2, web.Count)
	assert.InDelta(t, 60.0, graphic.Mean, 1e-9)
	assert.Equal(t, 3, graphic.Count)
	assert.InDelta(t, 40.0, res["difference"], 1e-9)

	_, err = a.CompareCategoriesEarnings(DefaultCategory1, "Underwater Basket Weaving")
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, "compare_categories_earnings", ide.Routine)
}

func TestTopPlatforms(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	for _, n := range []int{1, 2, 3, 10} {
		res, err := a.TopPlatforms(n)
		require.NoError(t, err)
		ranked := res["platforms"].([]Ranked)
		want := n
		if want > 3 {
			want = 3
		}
		require.Len(t, ranked, want, "n=%d", n)
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].Value, ranked[i].Value)
		}
	}

	res, _ := a.TopPlatforms(DefaultTopPlatforms)
	// Fiverr and Upwork tie at 80; ties keep name order.
	assert.Equal(t, []Ranked{{"Fiverr", 80}, {"Upwork", 80}, {"Toptal", 60}}, res["platforms"])

	_, err := a.TopPlatforms(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExpertsWithFewJobs(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	res, err := a.ExpertsWithFewJobs()
	require.NoError(t, err)
	assert.Equal(t, 3, res["total_experts"])
	assert.Equal(t, 2, res["count_under_100"])
	assert.InDelta(t, 200.0/3, res["percentage"], 1e-9)

	perf, err := a.ExpertPerformance()
	require.NoError(t, err)
	assert.Equal(t, 2, perf["experts_with_less_than_100_jobs"])
	assert.InDelta(t, 100.0, perf["avg_earnings_low_project_experts"], 1e-9)
	assert.InDelta(t, 280.0/3, perf["avg_earnings_all_experts"], 1e-9)
}

func TestExpertsWithFewJobsNoExperts(t *testing.T) {
	a := newAnalyzer(t, "Writing,Upwork,Beginner,Asia,Crypto,10,100,90,4")
	_, err := a.ExpertsWithFewJobs()
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	_, err = a.ExpertPerformance()
	require.ErrorAs(t, err, &ide)
}

func TestExpertPerformanceNoLowProjectExperts(t *testing.T) {
	a := newAnalyzer(t, "Writing,Upwork,Expert,Asia,Crypto,500,100,90,4")
	res, err := a.ExpertPerformance()
	require.NoError(t, err)
	assert.Nil(t, res["avg_earnings_low_project_experts"])
	assert.Equal(t, 0.0, res["percentage"])
}

func TestEarningsByGroups(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	res, err := a.EarningsByRegion()
	require.NoError(t, err)
	regions := res["regions"].(map[string]GroupStats)
	assert.Len(t, regions, 3)
	assert.Equal(t, GroupStats{Mean: 80, Median: 80, Count: 3}, regions["Usa"])

	res, err = a.EarningsByExperience()
	require.NoError(t, err)
	levels := res["experience_levels"].(map[string]GroupStats)
	assert.Equal(t, 3, levels["Expert"].Count)
	assert.InDelta(t, 40.0, levels["Beginner"].Mean, 1e-9)
}

func TestPaymentMethodEarnings(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	res, err := a.PaymentMethodEarnings()
	require.NoError(t, err)
	assert.Equal(t, "Crypto", res["highest_earning_method"])
	assert.InDelta(t, 80.0, res["highest_earning_amount"], 1e-9)
	assert.Len(t, res["all_methods"], 3)
}

func TestComparePaymentMethods(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	res, err := a.ComparePaymentMethods()
	require.NoError(t, err)
	other := 220.0 / 3
	assert.InDelta(t, 80.0, res["crypto_avg_earnings"], 1e-9)
	assert.InDelta(t, other, res["other_avg_earnings"], 1e-9)
	assert.InDelta(t, (80-other)/other*100, res["percentage_difference"], 1e-9)

	onlyCrypto := newAnalyzer(t, "Writing,Upwork,Expert,Asia,Crypto,10,100,90,4")
	_, err = onlyCrypto.ComparePaymentMethods()
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)

	zeroOther := newAnalyzer(t,
		"Writing,Upwork,Expert,Asia,Crypto,10,100,90,4",
		"Writing,Upwork,Expert,Asia,PayPal,10,0,90,4",
	)
	_, err = zeroOther.ComparePaymentMethods()
	require.ErrorAs(t, err, &ide)
}

func TestRatingBand(t *testing.T) {
	cases := []struct {
		rating float64
		want   string
		ok     bool
	}{
		{0, "0-3", true},
		{2.0, "0-3", true},
		{3.0, "0-3", true},
		{3.5, "3-4", true},
		{4.0, "3-4", true},
		{4.5, "4-4.5", true},
		{4.7, "4.5-5", true},
		{5.0, "4.5-5", true},
		{5.1, "", false},
		{-1, "", false},
	}
	for _, c := range cases {
		got, ok := RatingBand(c.rating)
		assert.Equal(t, c.ok, ok, "rating %v", c.rating)
		assert.Equal(t, c.want, got, "rating %v", c.rating)
	}
}

func TestRatingVsIncome(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	before := a.Dataset().Records()

	res, err := a.RatingVsIncome()
	require.NoError(t, err)
	bands := res["rating_earnings"].([]BandStats)
	// the 3-4 band is empty and omitted
	require.Len(t, bands, 3)
	assert.Equal(t, "0-3", bands[0].Band)
	assert.Equal(t, 2, bands[0].Count)
	assert.Equal(t, "4-4.5", bands[1].Band)
	assert.InDelta(t, 80.0, bands[1].Mean, 1e-9)
	assert.Equal(t, "4.5-5", bands[2].Band)
	assert.NotNil(t, res["correlation"])

	assert.Equal(t, before, a.Dataset().Records(), "dataset must not be annotated")

	again, err := a.RatingVsIncome()
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestCorrelationUndefinedForConstantSeries(t *testing.T) {
	a := newAnalyzer(t,
		"Writing,Upwork,Expert,Asia,Crypto,10,100,90,4",
		"Writing,Upwork,Expert,Asia,Crypto,10,200,90,4",
	)
	res, err := a.RatingVsIncome()
	require.NoError(t, err)
	assert.Nil(t, res["correlation"])

	sr, err := a.JobSuccessRate()
	require.NoError(t, err)
	assert.Nil(t, sr["success_rate_vs_earnings"])
	assert.Equal(t, 2, sr["correlated_rows"])
}

func TestJobSuccessRate(t *testing.T) {
	a := newAnalyzer(t, testRows...)
	res, err := a.JobSuccessRate()
	require.NoError(t, err)
	assert.InDelta(t, 77.0, res["avg_success_rate"], 1e-9)
	byCat := res["success_rate_by_category"].(map[string]float64)
	assert.InDelta(t, 85.0, byCat["Web Development"], 1e-9)
	assert.InDelta(t, 215.0/3, byCat["Graphic Design"], 1e-9)
	r := res["success_rate_vs_earnings"].(float64)
	assert.True(t, r >= -1 && r <= 1)
}
