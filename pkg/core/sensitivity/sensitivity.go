// Package sensitivity ranks input variables by their one-at-a-time swing
// on an output metric. Each variable is evaluated at its low and high
// endpoint with everything else held at base; the ordered rows form the
// tornado table. Interaction effects between variables are deliberately
// not modeled.
package sensitivity

import (
	"fmt"
	"sort"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/calc"
	"property_feasibility/pkg/core/projection"
	"property_feasibility/pkg/core/valuation"
)

// Metric selects the output the sweep records.
type Metric string

const (
	MetricNPV Metric = "NPV"
	MetricIRR Metric = "IRR"
)

// VariableRange brackets one variable for the sweep.
type VariableRange struct {
	Variable assumption.Variable `json:"variable"`
	Low      float64             `json:"low"`
	High     float64             `json:"high"`
}

// Row is one variable's tornado entry. Output values are the metric at
// the low/base/high input; Impact is |high - low|. Err marks a row whose
// endpoints could not be evaluated; such rows carry zero impact.
type Row struct {
	Variable   assumption.Variable `json:"variable"`
	InputLow   float64             `json:"input_low"`
	InputHigh  float64             `json:"input_high"`
	OutputLow  float64             `json:"output_low"`
	OutputBase float64             `json:"output_base"`
	OutputHigh float64             `json:"output_high"`
	Impact     float64             `json:"impact"`
	Err        string              `json:"error,omitempty"`
}

// SensitivityResult is the tornado table: rows sorted by impact
// descending, ties kept in input order, failed rows at the tail.
type SensitivityResult struct {
	Metric Metric `json:"metric"`
	Rows   []Row  `json:"rows"`
}

// Analyze sweeps every range against the base case. The base record must
// validate and must produce the requested metric; per-variable failures
// are isolated on their rows. When no row survives, the table aggregates
// nothing and the call fails with calc.ErrNoSamples.
func Analyze(base assumption.InvestmentAssumptions, ranges []VariableRange, metric Metric) (SensitivityResult, error) {
	if err := base.Validate(); err != nil {
		return SensitivityResult{}, err
	}
	if metric != MetricNPV && metric != MetricIRR {
		return SensitivityResult{}, &assumption.ValidationError{Field: "metric", Reason: "must be NPV or IRR"}
	}
	if len(ranges) == 0 {
		return SensitivityResult{}, &assumption.ValidationError{Field: "ranges", Reason: "no variables to sweep"}
	}

	baseOut, err := evaluateMetric(base, metric)
	if err != nil {
		return SensitivityResult{}, fmt.Errorf("base case has no %s to anchor the table: %w", metric, calc.ErrNoSamples)
	}

	rows := make([]Row, 0, len(ranges))
	failed := 0
	for _, r := range ranges {
		row := Row{
			Variable:   r.Variable,
			InputLow:   r.Low,
			InputHigh:  r.High,
			OutputBase: baseOut,
		}

		low, errLow := evaluateAt(base, r.Variable, r.Low, metric)
		high, errHigh := evaluateAt(base, r.Variable, r.High, metric)
		switch {
		case errLow != nil:
			row.Err = fmt.Sprintf("low endpoint: %v", errLow)
		case errHigh != nil:
			row.Err = fmt.Sprintf("high endpoint: %v", errHigh)
		default:
			row.OutputLow = low
			row.OutputHigh = high
			row.Impact = abs(high - low)
		}
		if row.Err != "" {
			failed++
		}
		rows = append(rows, row)
	}

	if failed == len(rows) {
		return SensitivityResult{}, fmt.Errorf("every variable failed to evaluate: %w", calc.ErrNoSamples)
	}

	// Impact descending; stable, so tied rows keep their input order.
	// Failed rows sink below every healthy row.
	sort.SliceStable(rows, func(i, j int) bool {
		if (rows[i].Err == "") != (rows[j].Err == "") {
			return rows[i].Err == ""
		}
		return rows[i].Impact > rows[j].Impact
	})

	return SensitivityResult{Metric: metric, Rows: rows}, nil
}

// evaluateAt applies one override and runs the pipeline.
func evaluateAt(base assumption.InvestmentAssumptions, v assumption.Variable, value float64, metric Metric) (float64, error) {
	modified, err := assumption.Apply(base, v, value)
	if err != nil {
		return 0, err
	}
	return evaluateMetric(modified, metric)
}

// evaluateMetric runs projection+valuation and extracts the metric. An
// undefined IRR is an evaluation failure here: a tornado cannot rank an
// endpoint that has no number.
func evaluateMetric(a assumption.InvestmentAssumptions, metric Metric) (float64, error) {
	periods, err := projection.Project(a)
	if err != nil {
		return 0, err
	}
	m, err := valuation.Evaluate(periods, valuation.EvalInput{
		DiscountRate:  a.DiscountRate,
		PurchasePrice: a.PurchasePrice,
	})
	if err != nil {
		return 0, err
	}

	switch metric {
	case MetricIRR:
		if !m.IRR.Defined {
			return 0, fmt.Errorf("IRR is undefined")
		}
		return m.IRR.Rate, nil
	default:
		return m.NPV, nil
	}
}

// =============================================================================
// DEFAULT GRID
// =============================================================================

// GridVariables is the default sweep set: the operating drivers exposed
// on the analyst workbook's sensitivity form, in canonical order.
var GridVariables = []assumption.Variable{
	assumption.VarInterestRate,
	assumption.VarRentalIncome,
	assumption.VarRentGrowthRate,
	assumption.VarVacancyRate,
	assumption.VarAppreciationRate,
}

// DefaultSpread is the workbook's ±20% grid width.
const DefaultSpread = 0.20

// GridForVariables brackets each default variable at base*(1±spread).
// A variable whose base value is zero produces a degenerate zero-impact
// row rather than an error.
func GridForVariables(base assumption.InvestmentAssumptions, spread float64) ([]VariableRange, error) {
	if spread <= 0 {
		return nil, &assumption.ValidationError{Field: "spread", Reason: "must be positive"}
	}

	ranges := make([]VariableRange, 0, len(GridVariables))
	for _, v := range GridVariables {
		cur, err := base.Value(v)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, VariableRange{
			Variable: v,
			Low:      cur * (1 - spread),
			High:     cur * (1 + spread),
		})
	}
	return ranges, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
