package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/montecarlo"
	"property_feasibility/pkg/core/scenario"
	"property_feasibility/pkg/core/sensitivity"
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

func seedPtr(v uint64) *uint64 { return &v }

func rentDistributions() map[assumption.Variable]assumption.DistributionSpec {
	return map[assumption.Variable]assumption.DistributionSpec{
		assumption.VarRentalIncome: {Kind: assumption.DistUniform, Min: 90_000, Max: 110_000},
	}
}

func TestRunFullReport(t *testing.T) {
	orch := NewFeasibilityOrchestrator()
	orch.SetSimulationConfig(montecarlo.SimConfig{Trials: 50, Seed: seedPtr(9), Workers: 2})

	report, err := orch.Run(context.Background(), RunInput{
		Assumptions:   baseCase(),
		Distributions: rentDistributions(),
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if report.ReportID == "" {
		t.Error("report must carry an ID")
	}
	if report.GeneratedAt.IsZero() {
		t.Error("report must carry a timestamp")
	}
	if len(report.Periods) != 6 {
		t.Errorf("expected 6 cash-flow entries, got %d", len(report.Periods))
	}
	if !report.Metrics.IRR.Defined {
		t.Error("reference case has a defined IRR")
	}
	if report.BreakevenOccupancy <= 0 {
		t.Errorf("expected a positive breakeven occupancy, got %f", report.BreakevenOccupancy)
	}

	legs := report.Scenarios.Ordered()
	if len(legs) != 3 {
		t.Fatalf("expected 3 scenario legs, got %d", len(legs))
	}
	for _, leg := range legs {
		if leg.Failed() {
			t.Errorf("leg %s failed: %s", leg.Name, leg.Err)
		}
	}

	if report.Profile == nil {
		t.Fatal("expected a risk profile")
	}
	if report.Sensitivity == nil {
		t.Fatal("expected a sensitivity section")
	}
	if len(report.Sensitivity.Rows) != len(sensitivity.GridVariables) {
		t.Errorf("expected %d tornado rows, got %d", len(sensitivity.GridVariables), len(report.Sensitivity.Rows))
	}
	if report.Simulation == nil {
		t.Fatal("expected a simulation section")
	}
	if report.Simulation.ValidTrials != 50 {
		t.Errorf("expected 50 valid trials, got %d", report.Simulation.ValidTrials)
	}

	if len(report.Warnings) != 0 {
		t.Errorf("healthy run must not warn, got %v", report.Warnings)
	}
}

func TestRunInvalidBaseAborts(t *testing.T) {
	a := baseCase()
	a.LoanToValue = 1.2

	report, err := NewFeasibilityOrchestrator().Run(context.Background(), RunInput{Assumptions: a})
	if err == nil {
		t.Fatal("expected error for invalid base assumptions")
	}
	if report != nil {
		t.Error("aborted run must not return a report")
	}
	var ve *assumption.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestRunWithoutDistributionsSkipsSimulation(t *testing.T) {
	report, err := NewFeasibilityOrchestrator().Run(context.Background(), RunInput{Assumptions: baseCase()})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if report.Simulation != nil {
		t.Error("no distributions were configured, simulation must be absent")
	}
	if len(report.Warnings) != 0 {
		t.Errorf("a skipped stage is not a warning, got %v", report.Warnings)
	}
}

func TestRunIsolatesScenarioFailure(t *testing.T) {
	// Worst-case vacancy 0.95 * 1.10 > 1 fails that leg's validation;
	// the base sections and the tornado must survive.
	a := baseCase()
	a.VacancyRate = 0.95

	report, err := NewFeasibilityOrchestrator().Run(context.Background(), RunInput{Assumptions: a})
	if err != nil {
		t.Fatalf("a failed leg must not abort the run: %v", err)
	}

	worst := report.Scenarios.Scenarios[scenario.Worst]
	if !worst.Failed() {
		t.Fatal("expected the worst leg to fail")
	}
	if report.Profile != nil {
		t.Error("profile cannot be built over a failed leg")
	}

	var sawScenario, sawProfile bool
	for _, w := range report.Warnings {
		if strings.HasPrefix(w, "[scenario]") {
			sawScenario = true
		}
		if strings.HasPrefix(w, "[risk] profile") {
			sawProfile = true
		}
	}
	if !sawScenario || !sawProfile {
		t.Errorf("expected scenario and profile warnings, got %v", report.Warnings)
	}

	if len(report.Periods) == 0 {
		t.Error("base projection must survive")
	}
	if report.Sensitivity == nil {
		t.Error("tornado must survive")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFeasibilityOrchestrator().Run(ctx, RunInput{Assumptions: baseCase()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunSeededSimulationReproducible(t *testing.T) {
	orch := NewFeasibilityOrchestrator()
	orch.SetSimulationConfig(montecarlo.SimConfig{Trials: 40, Seed: seedPtr(21), Workers: 3})

	input := RunInput{Assumptions: baseCase(), Distributions: rentDistributions()}

	first, err := orch.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	second, err := orch.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if first.ReportID == second.ReportID {
		t.Error("each run gets its own report ID")
	}

	a, b := *first.Simulation, *second.Simulation
	a.Elapsed, b.Elapsed = 0, 0
	if !reflect.DeepEqual(a, b) {
		t.Error("seeded simulations must agree between runs")
	}
}

func TestSetSensitivityPolicy(t *testing.T) {
	orch := NewFeasibilityOrchestrator()
	orch.SetSensitivityPolicy(sensitivity.MetricIRR, 0, []sensitivity.VariableRange{
		{Variable: assumption.VarRentalIncome, Low: 80_000, High: 120_000},
	})

	report, err := orch.Run(context.Background(), RunInput{Assumptions: baseCase()})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if report.Sensitivity == nil {
		t.Fatal("expected a sensitivity section")
	}
	if report.Sensitivity.Metric != sensitivity.MetricIRR {
		t.Errorf("expected IRR metric, got %s", report.Sensitivity.Metric)
	}
	if len(report.Sensitivity.Rows) != 1 {
		t.Errorf("expected the explicit single-row table, got %d rows", len(report.Sensitivity.Rows))
	}
}
