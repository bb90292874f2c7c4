// Package scenario runs the projection+valuation pipeline under Base,
// Best, and Worst assumption sets and packages the comparison. Legs are
// independent pure computations; they run in parallel and fail separately.
package scenario

import (
	"sync"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/projection"
	"property_feasibility/pkg/core/valuation"
)

// Name labels one leg of the comparison. A set always holds exactly
// Base, Best, and Worst.
type Name string

const (
	Base  Name = "Base"
	Best  Name = "Best"
	Worst Name = "Worst"
)

// Order fixes the reporting order regardless of completion order.
var Order = []Name{Base, Best, Worst}

// Outcome is one scenario's result. Err is set when that leg failed its
// own validation; the other legs stand on their own.
type Outcome struct {
	Name        Name                             `json:"name"`
	Assumptions assumption.InvestmentAssumptions `json:"assumptions"`
	Periods     []projection.CashFlowPeriod      `json:"periods,omitempty"`
	Metrics     valuation.DCFMetrics             `json:"metrics"`
	Err         string                           `json:"error,omitempty"`
}

// Failed reports whether this leg produced no metrics.
func (o Outcome) Failed() bool {
	return o.Err != ""
}

// ScenarioSet holds the three outcomes keyed by name.
type ScenarioSet struct {
	Scenarios map[Name]Outcome `json:"scenarios"`
}

// Ordered returns the outcomes in canonical Base, Best, Worst order.
func (s ScenarioSet) Ordered() []Outcome {
	out := make([]Outcome, 0, len(Order))
	for _, name := range Order {
		if o, ok := s.Scenarios[name]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Compare evaluates the three assumption sets independently and in
// parallel. One leg failing validation never aborts the others; the
// failure is recorded on that leg's outcome.
func Compare(base, best, worst assumption.InvestmentAssumptions) ScenarioSet {
	inputs := []struct {
		name Name
		a    assumption.InvestmentAssumptions
	}{
		{Base, base},
		{Best, best},
		{Worst, worst},
	}

	set := ScenarioSet{Scenarios: make(map[Name]Outcome, len(inputs))}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, in := range inputs {
		wg.Add(1)
		go func(name Name, a assumption.InvestmentAssumptions) {
			defer wg.Done()
			outcome := run(name, a)

			mu.Lock()
			set.Scenarios[name] = outcome
			mu.Unlock()
		}(in.name, in.a)
	}
	wg.Wait()

	return set
}

// run executes the full pipeline for one leg.
func run(name Name, a assumption.InvestmentAssumptions) Outcome {
	out := Outcome{Name: name, Assumptions: a}

	periods, err := projection.Project(a)
	if err != nil {
		out.Err = err.Error()
		return out
	}

	metrics, err := valuation.Evaluate(periods, valuation.EvalInput{
		DiscountRate:  a.DiscountRate,
		PurchasePrice: a.PurchasePrice,
	})
	if err != nil {
		out.Err = err.Error()
		return out
	}

	out.Periods = periods
	out.Metrics = metrics
	return out
}

// =============================================================================
// SCENARIO DERIVATION
// =============================================================================

// Deltas derives Best and Worst legs from a base record. InterestDelta
// shifts the rate by absolute points; VacancyShift and RentShift scale
// their fields relatively. Worst applies the deltas as written, Best
// mirrors them.
type Deltas struct {
	InterestDelta float64 `json:"interest_delta"` // +0.05 = Worst pays 5 points more
	VacancyShift  float64 `json:"vacancy_shift"`  // +0.10 = Worst loses 10% more to vacancy
	RentShift     float64 `json:"rent_shift"`     // +0.10 = 10% rent swing in both directions
}

// DefaultDeltas mirrors the analyst workbook's scenario form defaults.
var DefaultDeltas = Deltas{
	InterestDelta: 0.05,
	VacancyShift:  0.10,
	RentShift:     0.10,
}

// Derive builds the Best and Worst assumption sets from base. Values are
// not clamped; a delta that pushes a field out of its domain surfaces as
// that leg's validation failure.
func Derive(base assumption.InvestmentAssumptions, d Deltas) (best, worst assumption.InvestmentAssumptions) {
	best = base
	best.InterestRate = base.InterestRate - d.InterestDelta
	best.VacancyRate = base.VacancyRate * (1 - d.VacancyShift)
	best.RentalIncome = base.RentalIncome * (1 + d.RentShift)

	worst = base
	worst.InterestRate = base.InterestRate + d.InterestDelta
	worst.VacancyRate = base.VacancyRate * (1 + d.VacancyShift)
	worst.RentalIncome = base.RentalIncome * (1 - d.RentShift)

	return best, worst
}
