// Package config loads, normalizes and validates run configuration from
// YAML or HJSON files. The file schema mirrors the core input types but
// stays its own layer, so a format change never leaks into the engines.
package config

import (
	"fmt"
	"sort"
	"strings"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/montecarlo"
	"property_feasibility/pkg/core/risk"
	"property_feasibility/pkg/core/scenario"
	"property_feasibility/pkg/core/sensitivity"
)

// =============================================================================
// FILE SCHEMA
// =============================================================================

// Config is the full file schema. Assumptions are required; every other
// section is optional and falls back to the package defaults during
// Normalize. Struct tags carry both yaml (for .yaml/.yml) and json (for
// .hjson/.json, which route through encoding/json rules).
type Config struct {
	Assumptions AssumptionsConfig  `yaml:"assumptions" json:"assumptions"`
	Scenario    *ScenarioConfig    `yaml:"scenario,omitempty" json:"scenario,omitempty"`
	Sensitivity *SensitivityConfig `yaml:"sensitivity,omitempty" json:"sensitivity,omitempty"`
	MonteCarlo  *MonteCarloConfig  `yaml:"monte_carlo,omitempty" json:"monte_carlo,omitempty"`
	Risk        *RiskConfig        `yaml:"risk,omitempty" json:"risk,omitempty"`
	Report      *ReportConfig      `yaml:"report,omitempty" json:"report,omitempty"`
}

// AssumptionsConfig mirrors assumption.InvestmentAssumptions field for
// field. Values are taken literally; omitted fields stay zero and are
// caught by validation, never silently defaulted.
type AssumptionsConfig struct {
	PurchasePrice   float64 `yaml:"purchase_price" json:"purchase_price"`
	ClosingCostRate float64 `yaml:"closing_cost_rate" json:"closing_cost_rate"`

	LoanToValue     float64 `yaml:"loan_to_value" json:"loan_to_value"`
	InterestRate    float64 `yaml:"interest_rate" json:"interest_rate"`
	LoanTermPeriods int     `yaml:"loan_term_periods" json:"loan_term_periods"`

	HoldingPeriods    int     `yaml:"holding_periods" json:"holding_periods"`
	RentalIncome      float64 `yaml:"rental_income" json:"rental_income"`
	RentGrowthRate    float64 `yaml:"rent_growth_rate" json:"rent_growth_rate"`
	ExpenseRatio      float64 `yaml:"expense_ratio" json:"expense_ratio"`
	ExpenseGrowthRate float64 `yaml:"expense_growth_rate" json:"expense_growth_rate"`
	VacancyRate       float64 `yaml:"vacancy_rate" json:"vacancy_rate"`

	SellAtHorizon    bool    `yaml:"sell_at_horizon" json:"sell_at_horizon"`
	ExitCapRate      float64 `yaml:"exit_cap_rate" json:"exit_cap_rate"`
	AppreciationRate float64 `yaml:"appreciation_rate" json:"appreciation_rate"`
	SellingCostRate  float64 `yaml:"selling_cost_rate" json:"selling_cost_rate"`

	DiscountRate float64 `yaml:"discount_rate" json:"discount_rate"`
}

// ScenarioConfig overrides the best/worst derivation deltas. Pointer
// fields distinguish "not set" from an explicit zero shift.
type ScenarioConfig struct {
	InterestDelta *float64 `yaml:"interest_delta,omitempty" json:"interest_delta,omitempty"`
	VacancyShift  *float64 `yaml:"vacancy_shift,omitempty" json:"vacancy_shift,omitempty"`
	RentShift     *float64 `yaml:"rent_shift,omitempty" json:"rent_shift,omitempty"`
}

// SensitivityConfig selects the tornado metric and either a relative
// spread for the default grid or explicit per-variable ranges.
type SensitivityConfig struct {
	Metric string        `yaml:"metric,omitempty" json:"metric,omitempty"` // npv (default) or irr
	Spread float64       `yaml:"spread,omitempty" json:"spread,omitempty"`
	Ranges []RangeConfig `yaml:"ranges,omitempty" json:"ranges,omitempty"`
}

// RangeConfig brackets one variable by name.
type RangeConfig struct {
	Variable string  `yaml:"variable" json:"variable"`
	Low      float64 `yaml:"low" json:"low"`
	High     float64 `yaml:"high" json:"high"`
}

// MonteCarloConfig configures the simulation stage. Without
// distributions the stage is skipped.
type MonteCarloConfig struct {
	Trials        int                           `yaml:"trials,omitempty" json:"trials,omitempty"`
	Seed          *uint64                       `yaml:"seed,omitempty" json:"seed,omitempty"`
	Workers       int                           `yaml:"workers,omitempty" json:"workers,omitempty"`
	Percentiles   []float64                     `yaml:"percentiles,omitempty" json:"percentiles,omitempty"`
	Distributions map[string]DistributionConfig `yaml:"distributions,omitempty" json:"distributions,omitempty"`
}

// DistributionConfig mirrors assumption.DistributionSpec.
type DistributionConfig struct {
	Kind   string  `yaml:"kind" json:"kind"`
	Mean   float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	StdDev float64 `yaml:"std_dev,omitempty" json:"std_dev,omitempty"`
	Min    float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max    float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Mode   float64 `yaml:"mode,omitempty" json:"mode,omitempty"`
}

func (d DistributionConfig) spec() assumption.DistributionSpec {
	return assumption.DistributionSpec{
		Kind:   assumption.DistributionKind(strings.ToLower(d.Kind)),
		Mean:   d.Mean,
		StdDev: d.StdDev,
		Min:    d.Min,
		Max:    d.Max,
		Mode:   d.Mode,
	}
}

// RiskConfig sets the scenario weighting. A present section must spell
// out all three weights; an omitted section uses the defaults.
type RiskConfig struct {
	BaseWeight  float64 `yaml:"base_weight" json:"base_weight"`
	BestWeight  float64 `yaml:"best_weight" json:"best_weight"`
	WorstWeight float64 `yaml:"worst_weight" json:"worst_weight"`
}

// ReportConfig controls the rendered report.
type ReportConfig struct {
	Title         string `yaml:"title,omitempty" json:"title,omitempty"`
	Currency      string `yaml:"currency,omitempty" json:"currency,omitempty"`
	HistogramBins int    `yaml:"histogram_bins,omitempty" json:"histogram_bins,omitempty"`
}

// =============================================================================
// DEFAULTS + NORMALIZATION
// =============================================================================

// Default returns a complete, validated-by-construction configuration
// around the workbook default assumptions.
func Default() *Config {
	cfg := &Config{Assumptions: fromAssumptions(assumption.DefaultAssumptions())}
	cfg.Normalize()
	return cfg
}

// Normalize fills every omitted section and field with its default.
// LoadConfig calls this before Validate; hand-built configs should too.
func (c *Config) Normalize() {
	if c.Scenario == nil {
		c.Scenario = &ScenarioConfig{}
	}
	d := scenario.DefaultDeltas
	if c.Scenario.InterestDelta == nil {
		c.Scenario.InterestDelta = fptr(d.InterestDelta)
	}
	if c.Scenario.VacancyShift == nil {
		c.Scenario.VacancyShift = fptr(d.VacancyShift)
	}
	if c.Scenario.RentShift == nil {
		c.Scenario.RentShift = fptr(d.RentShift)
	}

	if c.Sensitivity == nil {
		c.Sensitivity = &SensitivityConfig{}
	}
	if c.Sensitivity.Metric == "" {
		c.Sensitivity.Metric = "npv"
	}
	if c.Sensitivity.Spread == 0 && len(c.Sensitivity.Ranges) == 0 {
		c.Sensitivity.Spread = sensitivity.DefaultSpread
	}

	if c.MonteCarlo == nil {
		c.MonteCarlo = &MonteCarloConfig{}
	}
	if c.MonteCarlo.Trials == 0 {
		c.MonteCarlo.Trials = montecarlo.DefaultConfig().Trials
	}

	if c.Risk == nil {
		w := risk.DefaultWeights
		c.Risk = &RiskConfig{BaseWeight: w.Base, BestWeight: w.Best, WorstWeight: w.Worst}
	}

	if c.Report == nil {
		c.Report = &ReportConfig{}
	}
	if c.Report.Title == "" {
		c.Report.Title = "Property Feasibility Analysis"
	}
	if c.Report.Currency == "" {
		c.Report.Currency = "$"
	}
	if c.Report.HistogramBins == 0 {
		c.Report.HistogramBins = 10
	}
}

// Validate surfaces the first inconsistency as a *ValidationError.
// Expects a normalized config.
func (c *Config) Validate() error {
	if err := c.InvestmentAssumptions().Validate(); err != nil {
		return err
	}

	if c.Sensitivity != nil {
		if _, err := parseMetric(c.Sensitivity.Metric); err != nil {
			return err
		}
		if len(c.Sensitivity.Ranges) == 0 && c.Sensitivity.Spread <= 0 {
			return &assumption.ValidationError{Field: "sensitivity.spread", Reason: "must be positive without explicit ranges"}
		}
		for _, r := range c.Sensitivity.Ranges {
			if !knownVariable(r.Variable) {
				return &assumption.ValidationError{Field: "sensitivity.ranges", Reason: fmt.Sprintf("unknown variable %q", r.Variable)}
			}
		}
	}

	if c.MonteCarlo != nil {
		if c.MonteCarlo.Trials < 1 {
			return &assumption.ValidationError{Field: "monte_carlo.trials", Reason: "must run at least one trial"}
		}
		if c.MonteCarlo.Workers < 0 {
			return &assumption.ValidationError{Field: "monte_carlo.workers", Reason: "must be non-negative"}
		}
		for _, p := range c.MonteCarlo.Percentiles {
			if p < 0 || p > 100 {
				return &assumption.ValidationError{Field: "monte_carlo.percentiles", Reason: fmt.Sprintf("level %v outside [0, 100]", p)}
			}
		}
		// Walk distribution keys sorted so the first error is stable.
		names := make([]string, 0, len(c.MonteCarlo.Distributions))
		for name := range c.MonteCarlo.Distributions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !knownVariable(name) {
				return &assumption.ValidationError{Field: "monte_carlo.distributions", Reason: fmt.Sprintf("unknown variable %q", name)}
			}
			if err := c.MonteCarlo.Distributions[name].spec().Validate(assumption.Variable(name)); err != nil {
				return err
			}
		}
	}

	if c.Risk != nil {
		if err := c.Weights().Validate(); err != nil {
			return err
		}
	}

	if c.Report != nil && c.Report.HistogramBins < 1 {
		return &assumption.ValidationError{Field: "report.histogram_bins", Reason: "must be at least 1"}
	}
	return nil
}

// =============================================================================
// CORE-TYPE ACCESSORS
// =============================================================================

// InvestmentAssumptions converts the file schema to the engine input.
func (c *Config) InvestmentAssumptions() assumption.InvestmentAssumptions {
	a := c.Assumptions
	return assumption.InvestmentAssumptions{
		PurchasePrice:     a.PurchasePrice,
		ClosingCostRate:   a.ClosingCostRate,
		LoanToValue:       a.LoanToValue,
		InterestRate:      a.InterestRate,
		LoanTermPeriods:   a.LoanTermPeriods,
		HoldingPeriods:    a.HoldingPeriods,
		RentalIncome:      a.RentalIncome,
		RentGrowthRate:    a.RentGrowthRate,
		ExpenseRatio:      a.ExpenseRatio,
		ExpenseGrowthRate: a.ExpenseGrowthRate,
		VacancyRate:       a.VacancyRate,
		SellAtHorizon:     a.SellAtHorizon,
		ExitCapRate:       a.ExitCapRate,
		AppreciationRate:  a.AppreciationRate,
		SellingCostRate:   a.SellingCostRate,
		DiscountRate:      a.DiscountRate,
	}
}

// Deltas returns the scenario derivation deltas.
func (c *Config) Deltas() scenario.Deltas {
	if c.Scenario == nil {
		return scenario.DefaultDeltas
	}
	d := scenario.DefaultDeltas
	if c.Scenario.InterestDelta != nil {
		d.InterestDelta = *c.Scenario.InterestDelta
	}
	if c.Scenario.VacancyShift != nil {
		d.VacancyShift = *c.Scenario.VacancyShift
	}
	if c.Scenario.RentShift != nil {
		d.RentShift = *c.Scenario.RentShift
	}
	return d
}

// Weights returns the risk weighting.
func (c *Config) Weights() risk.Weights {
	if c.Risk == nil {
		return risk.DefaultWeights
	}
	return risk.Weights{Base: c.Risk.BaseWeight, Best: c.Risk.BestWeight, Worst: c.Risk.WorstWeight}
}

// Metric returns the tornado metric.
func (c *Config) Metric() sensitivity.Metric {
	if c.Sensitivity == nil {
		return sensitivity.MetricNPV
	}
	m, err := parseMetric(c.Sensitivity.Metric)
	if err != nil {
		return sensitivity.MetricNPV
	}
	return m
}

// Spread returns the relative spread for the default grid.
func (c *Config) Spread() float64 {
	if c.Sensitivity == nil || c.Sensitivity.Spread <= 0 {
		return sensitivity.DefaultSpread
	}
	return c.Sensitivity.Spread
}

// Ranges returns the explicit tornado ranges, nil when the default grid
// should be used.
func (c *Config) Ranges() []sensitivity.VariableRange {
	if c.Sensitivity == nil || len(c.Sensitivity.Ranges) == 0 {
		return nil
	}
	out := make([]sensitivity.VariableRange, 0, len(c.Sensitivity.Ranges))
	for _, r := range c.Sensitivity.Ranges {
		out = append(out, sensitivity.VariableRange{
			Variable: assumption.Variable(r.Variable),
			Low:      r.Low,
			High:     r.High,
		})
	}
	return out
}

// SimConfig returns the Monte Carlo knobs.
func (c *Config) SimConfig() montecarlo.SimConfig {
	if c.MonteCarlo == nil {
		return montecarlo.DefaultConfig()
	}
	cfg := montecarlo.DefaultConfig()
	if c.MonteCarlo.Trials > 0 {
		cfg.Trials = c.MonteCarlo.Trials
	}
	cfg.Seed = c.MonteCarlo.Seed
	cfg.Workers = c.MonteCarlo.Workers
	if len(c.MonteCarlo.Percentiles) > 0 {
		cfg.Percentiles = c.MonteCarlo.Percentiles
	}
	return cfg
}

// Distributions converts the distribution section for the simulator.
// Returns nil when none are configured, which skips the stage.
func (c *Config) Distributions() map[assumption.Variable]assumption.DistributionSpec {
	if c.MonteCarlo == nil || len(c.MonteCarlo.Distributions) == 0 {
		return nil
	}
	out := make(map[assumption.Variable]assumption.DistributionSpec, len(c.MonteCarlo.Distributions))
	for name, d := range c.MonteCarlo.Distributions {
		out[assumption.Variable(name)] = d.spec()
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func fromAssumptions(a assumption.InvestmentAssumptions) AssumptionsConfig {
	return AssumptionsConfig{
		PurchasePrice:     a.PurchasePrice,
		ClosingCostRate:   a.ClosingCostRate,
		LoanToValue:       a.LoanToValue,
		InterestRate:      a.InterestRate,
		LoanTermPeriods:   a.LoanTermPeriods,
		HoldingPeriods:    a.HoldingPeriods,
		RentalIncome:      a.RentalIncome,
		RentGrowthRate:    a.RentGrowthRate,
		ExpenseRatio:      a.ExpenseRatio,
		ExpenseGrowthRate: a.ExpenseGrowthRate,
		VacancyRate:       a.VacancyRate,
		SellAtHorizon:     a.SellAtHorizon,
		ExitCapRate:       a.ExitCapRate,
		AppreciationRate:  a.AppreciationRate,
		SellingCostRate:   a.SellingCostRate,
		DiscountRate:      a.DiscountRate,
	}
}

func parseMetric(s string) (sensitivity.Metric, error) {
	switch strings.ToUpper(s) {
	case "", "NPV":
		return sensitivity.MetricNPV, nil
	case "IRR":
		return sensitivity.MetricIRR, nil
	default:
		return "", &assumption.ValidationError{Field: "sensitivity.metric", Reason: fmt.Sprintf("unknown metric %q (want npv or irr)", s)}
	}
}

func knownVariable(name string) bool {
	for _, v := range assumption.Variables() {
		if string(v) == name {
			return true
		}
	}
	return false
}

func fptr(v float64) *float64 { return &v }
