package queries

import (
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvData = `Job_Category,Platform,Experience_Level,Client_Region,Payment_Method,Job_Completed,Earnings_USD,Job_Success_Rate,Client_Rating
Web Development,Upwork,Expert,USA,Crypto,50,120,90,4.5
Web Development,Fiverr,Expert,Europe,PayPal,150,80,80,3.0
Graphic Design,Upwork,Beginner,USA,Crypto,20,40,70,4.2
Graphic Design,Toptal,Intermediate,Asia,Bank Transfer,200,60,60,5.0
Graphic Design,Fiverr,Expert,USA,PayPal,30,80,85,2.0
`

func newAnalyzer(t *testing.T, src string) *analysis.Analyzer {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(src), "test.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return analysis.New(ds)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate())
	assert.Len(t, Catalog(), 10)
}

func TestCatalogOrder(t *testing.T) {
	want := []string{
		"payment_method_earnings",
		"experts_few_jobs",
		"compare_web_vs_graphic",
		"rating_income",
		"top_platforms",
		"payment_method_comparison",
		"earnings_by_region",
		"expert_performance",
		"earnings_by_experience",
		"success_rate_analysis",
	}
	var got []string
	for _, e := range Catalog() {
		got = append(got, e.ID)
	}
	assert.Equal(t, want, got)
}

func TestCatalogReturnsCopy(t *testing.T) {
	c := Catalog()
	c[0].ID = "mutated"
	c[5].Keywords[0] = "mutated"
	e, ok := Lookup("payment_method_comparison")
	require.True(t, ok)
	assert.Equal(t, []string{"crypto"}, e.Keywords)
	assert.Equal(t, "payment_method_earnings", Catalog()[0].ID)
}

func TestLookup(t *testing.T) {
	e, ok := Lookup("top_platforms")
	require.True(t, ok)
	assert.Equal(t, RoutineTopPlatforms, e.Routine)
	assert.Equal(t, 3, e.Args.N)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestExecuteMatchesDirectCall(t *testing.T) {
	a := newAnalyzer(t, csvData)

	viaCatalog, err := Execute(a, "top_platforms")
	require.NoError(t, err)
	direct, err := a.TopPlatforms(3)
	require.NoError(t, err)
	assert.Equal(t, direct, viaCatalog)

	viaCatalog, err = Execute(a, "compare_web_vs_graphic")
	require.NoError(t, err)
	direct, err = a.CompareCategoriesEarnings("Web Development", "Graphic Design")
	require.NoError(t, err)
	assert.Equal(t, direct, viaCatalog)
}

func TestEveryEntryRuns(t *testing.T) {
	a := newAnalyzer(t, csvData)
	for _, e := range Catalog() {
		res, err := Run(a, e)
		require.NoError(t, err, e.ID)
		assert.NotEmpty(t, res, e.ID)
	}
}

func TestExecuteUnknown(t *testing.T) {
	a := newAnalyzer(t, csvData)
	_, err := Execute(a, "not_a_query")
	var uqe *UnknownQueryError
	require.ErrorAs(t, err, &uqe)
	assert.Equal(t, "not_a_query", uqe.ID)
}

func TestMatch(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"what about crypto payments", "payment_method_comparison"},
		{"WHAT ABOUT CRYPTO PAYMENTS", "payment_method_comparison"},
		{"please show top_platforms now", "top_platforms"},
		{"analyze earnings by experience level", "earnings_by_experience"},
		{"rating", "rating_income"},
	}
	for _, c := range cases {
		e, ok := Match(c.text)
		require.True(t, ok, c.text)
		assert.Equal(t, c.want, e.ID, c.text)
	}

	for _, blank := range []string{"", "   "} {
		_, ok := Match(blank)
		assert.False(t, ok, "blank %q", blank)
	}
	_, ok := Match("tell me a joke about zebras")
	assert.False(t, ok)
}

func TestMatchDeterministic(t *testing.T) {
	first, ok := Match("what about crypto payments")
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		e, _ := Match("what about crypto payments")
		assert.Equal(t, first.ID, e.ID)
	}
}

func TestAnswer(t *testing.T) {
	a := newAnalyzer(t, csvData)

	r, err := Answer(a, "rating_income")
	require.NoError(t, err)
	assert.True(t, r.ByID)
	assert.Equal(t, "rating_income", r.Entry.ID)

	r, err = Answer(a, "what about crypto payments")
	require.NoError(t, err)
	assert.False(t, r.ByID)
	assert.False(t, r.Fallback)
	assert.Equal(t, "payment_method_comparison", r.Entry.ID)
	assert.Contains(t, r.Result, "percentage_difference")

	r, err = Answer(a, "tell me a joke about zebras")
	require.NoError(t, err)
	assert.True(t, r.Fallback)
	assert.Equal(t, FallbackMessage, r.Result["message"])
	summary, _ := a.SummaryStats()
	assert.True(t, reflect.DeepEqual(summary, r.Result["summary"]))
}

func TestAnswerSurfacesRoutineErrors(t *testing.T) {
	noExperts := `Job_Category,Experience_Level,Job_Completed,Earnings_USD
Writing,Beginner,10,100
`
	a := newAnalyzer(t, noExperts)
	_, err := Answer(a, "experts_few_jobs")
	var ide *analysis.InsufficientDataError
	require.ErrorAs(t, err, &ide)
}
