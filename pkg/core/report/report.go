// Package report renders a finished feasibility run as analyst-facing
// Markdown, with an HTML form layered on top. The builder only formats
// what the pipeline produced; it never recomputes metrics, with one
// exception: the amortization table is expanded here because the
// cash-flow series carries debt service already collapsed per period.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"property_feasibility/pkg/core/montecarlo"
	"property_feasibility/pkg/core/pipeline"
	"property_feasibility/pkg/core/projection"
	"property_feasibility/pkg/core/risk"
	"property_feasibility/pkg/core/sensitivity"
	"property_feasibility/pkg/core/valuation"
)

// Options controls presentation only. Zero values fall back to
// DefaultOptions during BuildMarkdown.
type Options struct {
	Title         string
	Currency      string
	HistogramBins int
}

// DefaultOptions matches the report section defaults of the config layer.
func DefaultOptions() Options {
	return Options{
		Title:         "Property Feasibility Analysis",
		Currency:      "$",
		HistogramBins: 10,
	}
}

const (
	tornadoBarWidth   = 24
	histogramBarWidth = 30
)

// english groups thousands the way the analyst tables expect.
var english = message.NewPrinter(language.English)

// =============================================================================
// MARKDOWN BUILDER
// =============================================================================

// BuildMarkdown renders the full report. Sections whose stage did not
// run (no risk profile, no simulation) are omitted rather than rendered
// empty.
func BuildMarkdown(r *pipeline.FeasibilityReport, opts Options) string {
	def := DefaultOptions()
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if opts.Currency == "" {
		opts.Currency = def.Currency
	}
	if opts.HistogramBins < 1 {
		opts.HistogramBins = def.HistogramBins
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", opts.Title))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n\n", r.GeneratedAt.Format(time.RFC1123)))
	sb.WriteString(fmt.Sprintf("**Report ID:** `%s`\n\n", r.ReportID))

	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	writeAssumptions(&sb, r, opts)
	writeMetrics(&sb, r, opts)
	writeCashFlows(&sb, r.Periods, opts)
	writeAmortization(&sb, r, opts)
	writeScenarios(&sb, r, opts)
	if r.Profile != nil {
		writeRiskProfile(&sb, r.Profile, opts)
	}
	if r.Sensitivity != nil {
		writeTornado(&sb, r.Sensitivity, opts)
	}
	if r.Simulation != nil {
		writeSimulation(&sb, r.Simulation, opts)
	}

	sb.WriteString(fmt.Sprintf("---\n\nPipeline completed in %s.\n", r.Elapsed.Round(time.Microsecond)))
	return sb.String()
}

func writeAssumptions(sb *strings.Builder, r *pipeline.FeasibilityReport, opts Options) {
	a := r.Assumptions
	sb.WriteString("## Investment Assumptions\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Purchase price | %s |\n", money(opts.Currency, a.PurchasePrice)))
	if a.ClosingCostRate > 0 {
		sb.WriteString(fmt.Sprintf("| Closing cost rate | %s |\n", percent(a.ClosingCostRate)))
	}
	sb.WriteString(fmt.Sprintf("| Loan-to-value | %s |\n", percent(a.LoanToValue)))
	if a.LoanToValue > 0 {
		sb.WriteString(fmt.Sprintf("| Interest rate | %s |\n", percent(a.InterestRate)))
		sb.WriteString(fmt.Sprintf("| Loan term | %d periods |\n", a.LoanTermPeriods))
	}
	sb.WriteString(fmt.Sprintf("| Holding horizon | %d periods |\n", a.HoldingPeriods))
	sb.WriteString(fmt.Sprintf("| Gross rent (period 1) | %s |\n", money(opts.Currency, a.RentalIncome)))
	sb.WriteString(fmt.Sprintf("| Rent growth | %s |\n", percent(a.RentGrowthRate)))
	sb.WriteString(fmt.Sprintf("| Expense ratio | %s |\n", percent(a.ExpenseRatio)))
	sb.WriteString(fmt.Sprintf("| Expense growth | %s |\n", percent(a.ExpenseGrowthRate)))
	sb.WriteString(fmt.Sprintf("| Vacancy rate | %s |\n", percent(a.VacancyRate)))
	sb.WriteString(fmt.Sprintf("| Sell at horizon | %s |\n", yesNo(a.SellAtHorizon)))
	if a.SellAtHorizon {
		if a.ExitCapRate > 0 {
			sb.WriteString(fmt.Sprintf("| Exit cap rate | %s |\n", percent(a.ExitCapRate)))
		} else {
			sb.WriteString(fmt.Sprintf("| Appreciation rate | %s |\n", percent(a.AppreciationRate)))
		}
		sb.WriteString(fmt.Sprintf("| Selling cost rate | %s |\n", percent(a.SellingCostRate)))
	}
	sb.WriteString(fmt.Sprintf("| Discount rate | %s |\n\n", percent(a.DiscountRate)))
}

func writeMetrics(sb *strings.Builder, r *pipeline.FeasibilityReport, opts Options) {
	m := r.Metrics
	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Net present value | %s |\n", money(opts.Currency, m.NPV)))
	sb.WriteString(fmt.Sprintf("| Internal rate of return | %s |\n", irrCell(m.IRR)))
	sb.WriteString(fmt.Sprintf("| Payback | %s |\n", paybackCell(m.Payback)))
	sb.WriteString(fmt.Sprintf("| Cash-on-cash (period 1) | %s |\n", percent(m.CashOnCash)))
	sb.WriteString(fmt.Sprintf("| Cap rate | %s |\n", percent(m.CapRate)))
	sb.WriteString(fmt.Sprintf("| Gross rental yield | %s |\n", percent(m.GrossRentalYield)))
	sb.WriteString(fmt.Sprintf("| Equity multiple | %.2fx |\n", m.EquityMultiple))
	sb.WriteString(fmt.Sprintf("| Total profit (undiscounted) | %s |\n", money(opts.Currency, m.TotalProfit)))
	sb.WriteString(fmt.Sprintf("| Breakeven occupancy | %s |\n\n", percent(r.BreakevenOccupancy)))
}

func writeCashFlows(sb *strings.Builder, periods []projection.CashFlowPeriod, opts Options) {
	sb.WriteString("## Cash-Flow Projection\n\n")
	sb.WriteString("| Period | Gross Income | Vacancy | OpEx | NOI | Debt Service | Sale Proceeds | Net Cash Flow | Cumulative |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, p := range periods {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			p.Period,
			money(opts.Currency, p.GrossIncome),
			money(opts.Currency, p.VacancyLoss),
			money(opts.Currency, p.OperatingExpenses),
			money(opts.Currency, p.NetOperatingIncome),
			money(opts.Currency, p.DebtService),
			money(opts.Currency, p.SaleProceeds),
			money(opts.Currency, p.PreTaxCashFlow),
			money(opts.Currency, p.CumulativeCashFlow),
		))
	}
	sb.WriteString("\n")
}

func writeAmortization(sb *strings.Builder, r *pipeline.FeasibilityReport, opts Options) {
	a := r.Assumptions
	if a.LoanToValue <= 0 {
		return
	}
	entries := projection.Schedule(a.PurchasePrice*a.LoanToValue, a.InterestRate, a.LoanTermPeriods)
	if len(entries) == 0 {
		return
	}
	sb.WriteString("## Amortization Schedule\n\n")
	sb.WriteString("| Period | Payment | Interest | Principal | Balance |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			e.Period,
			money(opts.Currency, e.Payment),
			money(opts.Currency, e.Interest),
			money(opts.Currency, e.Principal),
			money(opts.Currency, e.Balance),
		))
	}
	sb.WriteString("\n")
}

func writeScenarios(sb *strings.Builder, r *pipeline.FeasibilityReport, opts Options) {
	outcomes := r.Scenarios.Ordered()
	if len(outcomes) == 0 {
		return
	}
	sb.WriteString("## Scenario Comparison\n\n")
	sb.WriteString("| Scenario | NPV | IRR | Payback | Status |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, o := range outcomes {
		if o.Failed() {
			sb.WriteString(fmt.Sprintf("| %s | — | — | — | %s |\n", o.Name, o.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | ok |\n",
			o.Name,
			money(opts.Currency, o.Metrics.NPV),
			irrCell(o.Metrics.IRR),
			paybackCell(o.Metrics.Payback),
		))
	}
	sb.WriteString("\n")
}

func writeRiskProfile(sb *strings.Builder, p *risk.Profile, opts Options) {
	sb.WriteString("## Risk Profile\n\n")
	sb.WriteString(fmt.Sprintf("- **Rating:** %s\n", p.Rating))
	sb.WriteString(fmt.Sprintf("- **Expected NPV (probability-weighted):** %s\n", money(opts.Currency, p.ExpectedNPV)))
	sb.WriteString(fmt.Sprintf("- **NPV standard deviation:** %s\n", money(opts.Currency, p.NPVStdDev)))
	sb.WriteString(fmt.Sprintf("- **Downside probability:** %s\n", percent(p.DownsideProbability)))
	sb.WriteString(fmt.Sprintf("- **Scenario weights:** Base %s / Best %s / Worst %s\n\n",
		percent(p.Weights.Base), percent(p.Weights.Best), percent(p.Weights.Worst)))
}

func writeTornado(sb *strings.Builder, s *sensitivity.SensitivityResult, opts Options) {
	sb.WriteString(fmt.Sprintf("## Sensitivity (Tornado, %s)\n\n", s.Metric))
	if len(s.Rows) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("Base %s: %s\n\n", s.Metric, metricCell(s.Metric, s.Rows[0].OutputBase, opts)))
	sb.WriteString("| Variable | Input Low | Input High | Output Low | Output High | Impact | |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")

	maxImpact := s.Rows[0].Impact
	for _, row := range s.Rows {
		if row.Err != "" {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | — | — | — | %s |\n",
				row.Variable, plain(row.InputLow), plain(row.InputHigh), row.Err))
			continue
		}
		cell := bar(row.Impact, maxImpact, tornadoBarWidth)
		if cell != "" {
			cell = "`" + cell + "`"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
			row.Variable,
			plain(row.InputLow),
			plain(row.InputHigh),
			metricCell(s.Metric, row.OutputLow, opts),
			metricCell(s.Metric, row.OutputHigh, opts),
			metricCell(s.Metric, row.Impact, opts),
			cell,
		))
	}
	sb.WriteString("\n")
}

func writeSimulation(sb *strings.Builder, s *montecarlo.SimulationResult, opts Options) {
	sb.WriteString("## Monte Carlo Simulation\n\n")
	sb.WriteString("| Statistic | Value |\n")
	sb.WriteString("|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Trials | %d (%d valid, %d failed) |\n", s.Trials, s.ValidTrials, s.FailedTrials))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", s.Seed))
	sb.WriteString(fmt.Sprintf("| Mean NPV | %s |\n", money(opts.Currency, s.MeanNPV)))
	sb.WriteString(fmt.Sprintf("| NPV std dev | %s |\n", money(opts.Currency, s.StdDevNPV)))
	sb.WriteString(fmt.Sprintf("| NPV range | %s to %s |\n", money(opts.Currency, s.MinNPV), money(opts.Currency, s.MaxNPV)))
	sb.WriteString(fmt.Sprintf("| Probability of loss | %s |\n", percent(s.ProbabilityOfLoss)))
	if s.IRRDefinedRate > 0 {
		sb.WriteString(fmt.Sprintf("| Mean IRR | %s |\n", percent(s.MeanIRR)))
	}
	sb.WriteString(fmt.Sprintf("| IRR defined rate | %s |\n\n", percent(s.IRRDefinedRate)))

	if len(s.Percentiles) > 0 {
		sb.WriteString("| Percentile | NPV |\n")
		sb.WriteString("|---|---|\n")
		for _, pp := range s.Percentiles {
			sb.WriteString(fmt.Sprintf("| p%g | %s |\n", pp.Level, money(opts.Currency, pp.Value)))
		}
		sb.WriteString("\n")
	}

	if buckets := histogram(s.NPVs, opts.HistogramBins); len(buckets) > 0 {
		sb.WriteString("NPV distribution:\n\n")
		sb.WriteString("```\n")
		maxCount := 0
		for _, b := range buckets {
			if b.count > maxCount {
				maxCount = b.count
			}
		}
		for i, b := range buckets {
			closer := ")"
			if i == len(buckets)-1 {
				closer = "]"
			}
			// Pad by rune count; the block character is multi-byte.
			blocks := bar(float64(b.count), float64(maxCount), histogramBarWidth)
			pad := strings.Repeat(" ", histogramBarWidth-utf8.RuneCountInString(blocks))
			sb.WriteString(fmt.Sprintf("[%14s, %14s%s %s%s %d\n",
				english.Sprintf("%.0f", b.low),
				english.Sprintf("%.0f", b.high),
				closer,
				blocks,
				pad,
				b.count,
			))
		}
		sb.WriteString("```\n\n")
	}

	if len(s.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Failed trials (first %d):\n\n", len(s.Errors)))
		for _, e := range s.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}
}

// =============================================================================
// HISTOGRAM BINNING
// =============================================================================

type bucket struct {
	low, high float64
	count     int
}

// histogram bins the samples into equal-width buckets over their range.
// Degenerate samples (all equal) collapse into a single bucket.
func histogram(samples []float64, bins int) []bucket {
	if len(samples) == 0 || bins < 1 {
		return nil
	}
	min, max := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return []bucket{{low: min, high: max, count: len(samples)}}
	}

	width := (max - min) / float64(bins)
	buckets := make([]bucket, bins)
	for i := range buckets {
		buckets[i].low = min + float64(i)*width
		buckets[i].high = min + float64(i+1)*width
	}
	buckets[bins-1].high = max
	for _, v := range samples {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		buckets[idx].count++
	}
	return buckets
}

// =============================================================================
// CELL FORMATTING
// =============================================================================

// money renders a whole-unit amount with thousands grouping and the
// sign ahead of the currency marker.
func money(currency string, v float64) string {
	if math.Signbit(v) && v > -0.5 {
		v = 0 // avoid rendering -0
	}
	if v < 0 {
		return "-" + strings.TrimSpace(currency) + english.Sprintf("%.0f", -v)
	}
	return strings.TrimSpace(currency) + english.Sprintf("%.0f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// plain renders a sweep endpoint without unit markup. The sweep table
// mixes currency amounts and rates in one column.
func plain(v float64) string {
	if math.Abs(v) >= 1000 {
		return english.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}

func metricCell(m sensitivity.Metric, v float64, opts Options) string {
	if m == sensitivity.MetricIRR {
		return percent(v)
	}
	return money(opts.Currency, v)
}

func irrCell(o valuation.IRROutcome) string {
	if !o.Defined {
		return "undefined"
	}
	return percent(o.Rate)
}

func paybackCell(o valuation.PaybackOutcome) string {
	if !o.Reached {
		return "not reached"
	}
	return fmt.Sprintf("%.2f periods", o.Periods)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// bar scales value against max into a block-character run. A zero max
// yields an empty bar.
func bar(value, max float64, width int) string {
	if max <= 0 || value <= 0 {
		return ""
	}
	n := int(math.Round(value / max * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n)
}
