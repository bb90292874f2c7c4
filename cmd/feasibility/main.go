package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"property_feasibility/pkg/core/config"
	"property_feasibility/pkg/core/pipeline"
	"property_feasibility/pkg/core/report"
	"property_feasibility/pkg/core/sensitivity"
	"property_feasibility/pkg/core/valuation"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	configPath := flag.String("config", "", "run configuration (.yaml, .yml, .hjson or .json)")
	outDir := flag.String("out", "", "directory to write report.md into")
	htmlOut := flag.Bool("html", false, "also render report.html into -out")
	trials := flag.Int("trials", 0, "override the Monte Carlo trial count (0 keeps the config value)")
	seed := flag.Uint64("seed", 0, "override the Monte Carlo seed (0 keeps the config value)")
	flag.Parse()

	fmt.Println("🚀 Property Feasibility Pipeline Starting...")

	// 1. Load Configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		cfg = loaded
		fmt.Printf("📂 Loaded configuration from %s\n", *configPath)
	} else {
		fmt.Println("📂 No -config given, analyzing the built-in default property.")
	}

	simCfg := cfg.SimConfig()
	if *trials > 0 {
		simCfg.Trials = *trials
	}
	if *seed > 0 {
		s := *seed
		simCfg.Seed = &s
	}

	// 2. Assemble the Orchestrator
	orch := pipeline.NewFeasibilityOrchestrator()
	orch.SetScenarioPolicy(cfg.Deltas(), cfg.Weights())
	orch.SetSensitivityPolicy(cfg.Metric(), cfg.Spread(), cfg.Ranges())
	orch.SetSimulationConfig(simCfg)

	// 3. Run the Full Pipeline
	result, err := orch.Run(context.Background(), pipeline.RunInput{
		Assumptions:   cfg.InvestmentAssumptions(),
		Distributions: cfg.Distributions(),
	})
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	// 4. Analyst Report (stdout)
	printAnalystReport(result, cfg.Report)

	// 5. File Artifacts
	if *outDir != "" {
		writeArtifacts(result, cfg.Report, *outDir, *htmlOut)
	}

	fmt.Println("\n[Done] Analysis Complete.")
}

// =============================================================================
// ANALYST REPORT SECTIONS
// =============================================================================

func printAnalystReport(r *pipeline.FeasibilityReport, rc *config.ReportConfig) {
	cur := rc.Currency
	a := r.Assumptions

	fmt.Println("\n################################################################################")
	fmt.Println("                 PROPERTY FEASIBILITY ENGINE - ANALYST REPORT")
	fmt.Printf("                 %s\n", rc.Title)
	fmt.Println("################################################################################")

	if len(r.Warnings) > 0 {
		fmt.Println("\n[!] WARNINGS")
		for _, w := range r.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	// [1] PROPERTY & FINANCING
	fmt.Println("\n[1] PROPERTY & FINANCING")
	fmt.Printf("%-25s %s %14.0f\n", "Purchase Price:", cur, a.PurchasePrice)
	if a.ClosingCostRate > 0 {
		fmt.Printf("%-25s %16.2f%%\n", "Closing Costs:", a.ClosingCostRate*100)
	}
	fmt.Printf("%-25s %16.1f%%\n", "Loan-to-Value:", a.LoanToValue*100)
	if a.LoanToValue > 0 {
		fmt.Printf("%-25s %16.2f%%\n", "Interest Rate:", a.InterestRate*100)
		fmt.Printf("%-25s %15d periods\n", "Loan Term:", a.LoanTermPeriods)
	}
	fmt.Printf("%-25s %15d periods\n", "Holding Horizon:", a.HoldingPeriods)
	fmt.Printf("%-25s %s %14.0f\n", "Gross Rent (period 1):", cur, a.RentalIncome)
	fmt.Printf("%-25s %16.1f%%\n", "Vacancy Rate:", a.VacancyRate*100)
	fmt.Printf("%-25s %16.2f%%\n", "Discount Rate:", a.DiscountRate*100)

	// [2] CASH FLOW PROJECTION
	fmt.Println("\n[2] CASH FLOW PROJECTION")
	fmt.Printf("%-7s | %12s | %12s | %12s | %12s | %14s\n",
		"Period", "NOI", "Debt Svc", "Sale", "Cash Flow", "Cumulative")
	fmt.Println(strings.Repeat("-", 80))
	for _, p := range r.Periods {
		fmt.Printf("%-7d | %12.0f | %12.0f | %12.0f | %12.0f | %14.0f\n",
			p.Period, p.NetOperatingIncome, p.DebtService, p.SaleProceeds,
			p.PreTaxCashFlow, p.CumulativeCashFlow)
	}
	fmt.Println(strings.Repeat("-", 80))

	// [3] DCF METRICS
	m := r.Metrics
	fmt.Println("\n[3] DCF METRICS")
	fmt.Printf("%-25s %s %14.0f\n", "Net Present Value:", cur, m.NPV)
	fmt.Printf("%-25s %17s\n", "IRR:", irrCell(m.IRR))
	fmt.Printf("%-25s %17s\n", "Payback:", paybackCell(m.Payback))
	fmt.Printf("%-25s %16.2f%%\n", "Cash-on-Cash:", m.CashOnCash*100)
	fmt.Printf("%-25s %16.2f%%\n", "Cap Rate:", m.CapRate*100)
	fmt.Printf("%-25s %16.2f%%\n", "Gross Rental Yield:", m.GrossRentalYield*100)
	fmt.Printf("%-25s %16.2fx\n", "Equity Multiple:", m.EquityMultiple)
	fmt.Printf("%-25s %16.1f%%\n", "Breakeven Occupancy:", r.BreakevenOccupancy*100)

	// [4] SCENARIO COMPARISON
	fmt.Println("\n[4] SCENARIO COMPARISON")
	fmt.Printf("%-10s | %14s | %10s | %14s | %s\n", "Scenario", "NPV", "IRR", "Payback", "Status")
	fmt.Println(strings.Repeat("-", 72))
	for _, o := range r.Scenarios.Ordered() {
		if o.Failed() {
			fmt.Printf("%-10s | %14s | %10s | %14s | %s\n", o.Name, "-", "-", "-", o.Err)
			continue
		}
		fmt.Printf("%-10s | %14.0f | %10s | %14s | ok\n",
			o.Name, o.Metrics.NPV, irrCell(o.Metrics.IRR), paybackCell(o.Metrics.Payback))
	}
	fmt.Println(strings.Repeat("-", 72))

	// [5] SENSITIVITY (TORNADO)
	if r.Sensitivity != nil {
		s := r.Sensitivity
		fmt.Printf("\n[5] SENSITIVITY (TORNADO, %s)\n", s.Metric)
		fmt.Printf("%-20s | %14s | %14s | %14s | %s\n", "Variable", "Low", "High", "Impact", "")
		fmt.Println(strings.Repeat("-", 96))
		maxImpact := 0.0
		if len(s.Rows) > 0 {
			maxImpact = s.Rows[0].Impact
		}
		for _, row := range s.Rows {
			if row.Err != "" {
				fmt.Printf("%-20s | %14s | %14s | %14s | %s\n", row.Variable.Label(), "-", "-", "-", row.Err)
				continue
			}
			fmt.Printf("%-20s | %14s | %14s | %14s | %s\n",
				row.Variable.Label(),
				metricCell(s.Metric, row.OutputLow),
				metricCell(s.Metric, row.OutputHigh),
				metricCell(s.Metric, row.Impact),
				impactBar(row.Impact, maxImpact))
		}
		fmt.Println(strings.Repeat("-", 96))
	}

	// [6] MONTE CARLO RISK
	if r.Simulation != nil {
		s := r.Simulation
		fmt.Println("\n[6] MONTE CARLO RISK")
		fmt.Printf("%-25s %11d (%d valid, %d failed)\n", "Trials:", s.Trials, s.ValidTrials, s.FailedTrials)
		fmt.Printf("%-25s %17d\n", "Seed:", s.Seed)
		fmt.Printf("%-25s %s %14.0f\n", "Mean NPV:", cur, s.MeanNPV)
		fmt.Printf("%-25s %s %14.0f\n", "NPV Std Dev:", cur, s.StdDevNPV)
		for _, pp := range s.Percentiles {
			fmt.Printf("%-25s %s %14.0f\n", fmt.Sprintf("NPV p%g:", pp.Level), cur, pp.Value)
		}
		fmt.Printf("%-25s %16.1f%%\n", "Probability of Loss:", s.ProbabilityOfLoss*100)
		if s.IRRDefinedRate > 0 {
			fmt.Printf("%-25s %16.2f%%\n", "Mean IRR:", s.MeanIRR*100)
		}
		fmt.Printf("%-25s %16.1f%%\n", "IRR Defined Rate:", s.IRRDefinedRate*100)
	}

	// [7] RISK PROFILE
	if r.Profile != nil {
		p := r.Profile
		fmt.Println("\n[7] RISK PROFILE")
		fmt.Printf("%-25s %17s\n", "Rating:", p.Rating)
		fmt.Printf("%-25s %s %14.0f\n", "Expected NPV:", cur, p.ExpectedNPV)
		fmt.Printf("%-25s %s %14.0f\n", "NPV Std Dev:", cur, p.NPVStdDev)
		fmt.Printf("%-25s %16.1f%%\n", "Downside Probability:", p.DownsideProbability*100)
	}
}

// =============================================================================
// FILE ARTIFACTS
// =============================================================================

func writeArtifacts(r *pipeline.FeasibilityReport, rc *config.ReportConfig, outDir string, html bool) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory %s: %v", outDir, err)
	}

	opts := report.Options{Title: rc.Title, Currency: rc.Currency, HistogramBins: rc.HistogramBins}
	md := report.BuildMarkdown(r, opts)

	mdPath := filepath.Join(outDir, "report.md")
	if err := os.WriteFile(mdPath, []byte(md), 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", mdPath, err)
	}
	fmt.Printf("\n📄 Wrote %s\n", mdPath)

	if !html {
		return
	}
	page, err := report.RenderHTML(md)
	if err != nil {
		log.Fatalf("Failed to render HTML report: %v", err)
	}
	htmlPath := filepath.Join(outDir, "report.html")
	if err := os.WriteFile(htmlPath, []byte(page), 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", htmlPath, err)
	}
	fmt.Printf("📄 Wrote %s\n", htmlPath)
}

// =============================================================================
// CELL HELPERS
// =============================================================================

func irrCell(o valuation.IRROutcome) string {
	if !o.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f%%", o.Rate*100)
}

func paybackCell(o valuation.PaybackOutcome) string {
	if !o.Reached {
		return "not reached"
	}
	return fmt.Sprintf("%.2f periods", o.Periods)
}

func metricCell(m sensitivity.Metric, v float64) string {
	if m == sensitivity.MetricIRR {
		return fmt.Sprintf("%.2f%%", v*100)
	}
	return fmt.Sprintf("%.0f", v)
}

func impactBar(impact, max float64) string {
	if max <= 0 || impact <= 0 {
		return ""
	}
	n := int(impact / max * 20)
	if n < 1 {
		n = 1
	}
	return strings.Repeat("#", n)
}
