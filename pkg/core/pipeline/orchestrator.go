// Package pipeline composes the deterministic engines into one
// feasibility run: base projection and valuation, scenario comparison,
// risk profile, sensitivity sweep and Monte Carlo simulation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/montecarlo"
	"property_feasibility/pkg/core/projection"
	"property_feasibility/pkg/core/risk"
	"property_feasibility/pkg/core/scenario"
	"property_feasibility/pkg/core/sensitivity"
	"property_feasibility/pkg/core/valuation"
)

// RunInput is the per-property payload: the assumptions under test and
// the optional Monte Carlo distributions. An empty distribution map
// skips the simulation stage.
type RunInput struct {
	Assumptions   assumption.InvestmentAssumptions
	Distributions map[assumption.Variable]assumption.DistributionSpec
}

// FeasibilityReport is the full output of one run. The base sections
// are always present; Profile, Sensitivity and Simulation are nil when
// their stage was skipped or failed, with the reason in Warnings.
type FeasibilityReport struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Assumptions        assumption.InvestmentAssumptions `json:"assumptions"`
	Periods            []projection.CashFlowPeriod      `json:"periods"`
	Metrics            valuation.DCFMetrics             `json:"metrics"`
	BreakevenOccupancy float64                          `json:"breakeven_occupancy"`

	Scenarios   scenario.ScenarioSet           `json:"scenarios"`
	Profile     *risk.Profile                  `json:"risk_profile,omitempty"`
	Sensitivity *sensitivity.SensitivityResult `json:"sensitivity,omitempty"`
	Simulation  *montecarlo.SimulationResult   `json:"simulation,omitempty"`

	Warnings []string      `json:"warnings,omitempty"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// FeasibilityOrchestrator manages the end-to-end run:
// Project -> Evaluate -> Scenarios -> Risk -> Sensitivity -> Monte Carlo.
// Construct with NewFeasibilityOrchestrator and adjust policy through
// the setters.
type FeasibilityOrchestrator struct {
	deltas  scenario.Deltas
	weights risk.Weights

	metric sensitivity.Metric
	spread float64
	ranges []sensitivity.VariableRange

	sim montecarlo.SimConfig
}

// NewFeasibilityOrchestrator returns an orchestrator with the standard
// policy: default scenario deltas and weights, the NPV tornado over the
// default grid, and the default simulation config.
func NewFeasibilityOrchestrator() *FeasibilityOrchestrator {
	return &FeasibilityOrchestrator{
		deltas:  scenario.DefaultDeltas,
		weights: risk.DefaultWeights,
		metric:  sensitivity.MetricNPV,
		spread:  sensitivity.DefaultSpread,
		sim:     montecarlo.DefaultConfig(),
	}
}

// SetScenarioPolicy overrides the best/worst derivation deltas and the
// risk weighting.
func (o *FeasibilityOrchestrator) SetScenarioPolicy(d scenario.Deltas, w risk.Weights) {
	o.deltas = d
	o.weights = w
}

// SetSensitivityPolicy selects the tornado metric and, when ranges is
// non-nil, replaces the default spread grid with explicit ranges.
func (o *FeasibilityOrchestrator) SetSensitivityPolicy(metric sensitivity.Metric, spread float64, ranges []sensitivity.VariableRange) {
	o.metric = metric
	if spread > 0 {
		o.spread = spread
	}
	o.ranges = ranges
}

// SetSimulationConfig overrides trials, seeding and parallelism for the
// Monte Carlo stage.
func (o *FeasibilityOrchestrator) SetSimulationConfig(cfg montecarlo.SimConfig) {
	o.sim = cfg
}

// Run executes the full pipeline. Base-assumption validation failure
// aborts; every later stage degrades to a warning so one broken leg
// never hides the rest of the report. Caller cancellation is honored
// between stages.
func (o *FeasibilityOrchestrator) Run(ctx context.Context, input RunInput) (*FeasibilityReport, error) {
	start := time.Now()

	a := input.Assumptions
	if err := a.Validate(); err != nil {
		return nil, err
	}

	report := &FeasibilityReport{
		ReportID:    uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Assumptions: a,
	}

	// 1. Base Projection + Valuation
	periods, err := projection.Project(a)
	if err != nil {
		return nil, fmt.Errorf("projection failed: %w", err)
	}
	metrics, err := valuation.Evaluate(periods, valuation.EvalInput{
		DiscountRate:  a.DiscountRate,
		PurchasePrice: a.PurchasePrice,
	})
	if err != nil {
		return nil, fmt.Errorf("valuation failed: %w", err)
	}
	report.Periods = periods
	report.Metrics = metrics

	if breakeven, err := risk.BreakevenOccupancy(a); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("[risk] breakeven occupancy: %v", err))
	} else {
		report.BreakevenOccupancy = breakeven
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Scenario Comparison
	best, worst := scenario.Derive(a, o.deltas)
	report.Scenarios = scenario.Compare(a, best, worst)
	for _, out := range report.Scenarios.Ordered() {
		if out.Failed() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("[scenario] %s leg failed: %s", out.Name, out.Err))
		}
	}

	// 3. Risk Profile
	if profile, err := risk.BuildProfile(report.Scenarios, o.weights); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("[risk] profile: %v", err))
	} else {
		report.Profile = &profile
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Sensitivity (Tornado)
	ranges := o.ranges
	if ranges == nil {
		ranges, err = sensitivity.GridForVariables(a, o.spread)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("[sensitivity] grid: %v", err))
		}
	}
	if ranges != nil {
		if result, err := sensitivity.Analyze(a, ranges, o.metric); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("[sensitivity] analysis: %v", err))
		} else {
			report.Sensitivity = &result
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Monte Carlo (only when distributions are configured)
	if len(input.Distributions) > 0 {
		if sim, err := montecarlo.Run(a, input.Distributions, o.sim); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("[montecarlo] simulation: %v", err))
		} else {
			report.Simulation = &sim
		}
	}

	report.Elapsed = time.Since(start)
	return report, nil
}
