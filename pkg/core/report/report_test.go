package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/montecarlo"
	"property_feasibility/pkg/core/pipeline"
)

func baseCase() assumption.InvestmentAssumptions {
	return assumption.InvestmentAssumptions{
		PurchasePrice:   1_000_000,
		LoanToValue:     0.7,
		InterestRate:    0.05,
		LoanTermPeriods: 10,
		HoldingPeriods:  5,
		RentalIncome:    100_000,
		ExpenseRatio:    0.3,
		VacancyRate:     0.05,
		SellAtHorizon:   true,
		ExitCapRate:     0.06,
		DiscountRate:    0.08,
	}
}

func fullReport(t *testing.T) *pipeline.FeasibilityReport {
	t.Helper()
	seed := uint64(17)
	o := pipeline.NewFeasibilityOrchestrator()
	o.SetSimulationConfig(montecarlo.SimConfig{Trials: 40, Seed: &seed, Workers: 2})

	r, err := o.Run(context.Background(), pipeline.RunInput{
		Assumptions: baseCase(),
		Distributions: map[assumption.Variable]assumption.DistributionSpec{
			assumption.VarRentalIncome: {Kind: assumption.DistUniform, Min: 90_000, Max: 110_000},
		},
	})
	require.NoError(t, err)
	require.Empty(t, r.Warnings)
	return r
}

// sectionOf slices one "## " section out of the rendered markdown.
func sectionOf(md, heading string) string {
	i := strings.Index(md, heading)
	if i < 0 {
		return ""
	}
	rest := md[i+len(heading):]
	if j := strings.Index(rest, "\n## "); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func TestBuildMarkdownSections(t *testing.T) {
	md := BuildMarkdown(fullReport(t), Options{Title: "Dockside Lofts", Currency: "$", HistogramBins: 8})

	assert.True(t, strings.HasPrefix(md, "# Dockside Lofts\n"))
	assert.Contains(t, md, "**Report ID:**")
	for _, section := range []string{
		"## Investment Assumptions",
		"## Key Metrics",
		"## Cash-Flow Projection",
		"## Amortization Schedule",
		"## Scenario Comparison",
		"## Risk Profile",
		"## Sensitivity (Tornado, NPV)",
		"## Monte Carlo Simulation",
	} {
		assert.Contains(t, md, section+"\n", "missing section %q", section)
	}
	assert.NotContains(t, md, "## Warnings")

	// Period 0 carries the equity outlay with the sign ahead of the marker.
	assert.Contains(t, md, "-$300,000")
	// The loan amortizes over the full term, past the holding horizon.
	amort := sectionOf(md, "## Amortization Schedule")
	assert.Equal(t, 10, strings.Count(amort, "| $90,65"), "amortization payment rows")
	// One scenario row per leg plus the header.
	for _, leg := range []string{"| Base |", "| Best |", "| Worst |"} {
		assert.Contains(t, md, leg)
	}
}

func TestBuildMarkdownSkipsAbsentStages(t *testing.T) {
	o := pipeline.NewFeasibilityOrchestrator()
	r, err := o.Run(context.Background(), pipeline.RunInput{Assumptions: baseCase()})
	require.NoError(t, err)
	require.Nil(t, r.Simulation)

	md := BuildMarkdown(r, Options{})
	assert.NotContains(t, md, "## Monte Carlo Simulation")
	assert.Contains(t, md, "## Sensitivity")
}

func TestBuildMarkdownAllCashSkipsAmortization(t *testing.T) {
	a := baseCase()
	a.LoanToValue = 0
	a.InterestRate = 0
	a.LoanTermPeriods = 0

	o := pipeline.NewFeasibilityOrchestrator()
	r, err := o.Run(context.Background(), pipeline.RunInput{Assumptions: a})
	require.NoError(t, err)

	md := BuildMarkdown(r, Options{})
	assert.NotContains(t, md, "## Amortization Schedule")
	assert.NotContains(t, md, "| Interest rate |")
}

func TestBuildMarkdownDefaultOptions(t *testing.T) {
	md := BuildMarkdown(fullReport(t), Options{})
	assert.True(t, strings.HasPrefix(md, "# Property Feasibility Analysis\n"))
	assert.Contains(t, md, "$1,000,000")
}

func TestBuildMarkdownWarnings(t *testing.T) {
	r := fullReport(t)
	r.Warnings = []string{"[scenario] Worst leg failed: vacancy_rate: must be in [0, 1]"}

	md := BuildMarkdown(r, Options{})
	assert.Contains(t, md, "## Warnings")
	assert.Contains(t, md, "- [scenario] Worst leg failed")
}

func TestHistogramBinning(t *testing.T) {
	samples := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	buckets := histogram(samples, 5)
	require.Len(t, buckets, 5)
	for _, b := range buckets {
		assert.Equal(t, 2, b.count)
	}
	assert.Equal(t, 0.0, buckets[0].low)
	assert.Equal(t, 9.0, buckets[4].high)

	// The max sample lands in the last bucket, not one past it.
	total := 0
	for _, b := range buckets {
		total += b.count
	}
	assert.Equal(t, len(samples), total)
}

func TestHistogramDegenerate(t *testing.T) {
	buckets := histogram([]float64{5, 5, 5}, 4)
	require.Len(t, buckets, 1)
	assert.Equal(t, 3, buckets[0].count)

	assert.Nil(t, histogram(nil, 4))
	assert.Nil(t, histogram([]float64{1}, 0))
}

func TestBarScaling(t *testing.T) {
	assert.Equal(t, strings.Repeat("█", 24), bar(10, 10, 24))
	assert.Equal(t, "", bar(0, 10, 24))
	assert.Equal(t, "", bar(5, 0, 24))
	// Tiny but non-zero impacts still show one block.
	assert.Equal(t, "█", bar(0.001, 10, 24))
}

func TestMoneyFormatting(t *testing.T) {
	assert.Equal(t, "$1,234,568", money("$", 1234567.6))
	assert.Equal(t, "-$300,000", money("$", -300000))
	assert.Equal(t, "EUR12,000", money("EUR ", 12000))
	assert.Equal(t, "$0", money("$", -0.2))
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "# Title", CleanMarkdown("```markdown\n# Title\n```"))
	assert.Equal(t, "# Title", CleanMarkdown("```\n# Title\n```"))
	assert.Equal(t, "# Title", CleanMarkdown("  # Title\n"))
}

func TestRenderHTML(t *testing.T) {
	md := BuildMarkdown(fullReport(t), Options{})
	require.True(t, ValidateMarkdown(md))

	html, err := RenderHTML(md)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<h2")
	assert.Contains(t, html, "Investment Assumptions")
}
