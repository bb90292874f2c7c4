// Package risk condenses scenario outcomes into a probability-weighted
// profile and bands the downside into an analyst-facing rating.
package risk

import (
	"fmt"
	"math"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/calc"
	"property_feasibility/pkg/core/projection"
	"property_feasibility/pkg/core/scenario"
)

// =============================================================================
// RISK RATING BANDS
// =============================================================================

// RiskRating is the qualitative band for a probability of loss.
type RiskRating string

const (
	RatingLow      RiskRating = "Low"
	RatingModerate RiskRating = "Moderate"
	RatingHigh     RiskRating = "High"
)

const (
	moderateThreshold = 0.10
	highThreshold     = 0.35
)

// Rating bands a probability of negative NPV: below 10% is Low, below
// 35% is Moderate, everything else is High.
func Rating(probabilityOfLoss float64) RiskRating {
	switch {
	case probabilityOfLoss < moderateThreshold:
		return RatingLow
	case probabilityOfLoss < highThreshold:
		return RatingModerate
	default:
		return RatingHigh
	}
}

// =============================================================================
// SCENARIO-WEIGHTED PROFILE
// =============================================================================

// Weights assigns a subjective probability to each scenario leg.
type Weights struct {
	Base  float64 `json:"base"`
	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
}

// DefaultWeights puts half the mass on the base case and splits the
// rest between the tails.
var DefaultWeights = Weights{Base: 0.50, Best: 0.25, Worst: 0.25}

const weightTolerance = 1e-9

func (w Weights) Validate() error {
	if w.Base < 0 || w.Best < 0 || w.Worst < 0 {
		return &assumption.ValidationError{Field: "scenario_weights", Reason: "weights must be non-negative"}
	}
	if sum := w.Base + w.Best + w.Worst; math.Abs(sum-1) > weightTolerance {
		return &assumption.ValidationError{Field: "scenario_weights", Reason: fmt.Sprintf("weights sum to %v, want 1", sum)}
	}
	return nil
}

func (w Weights) of(name scenario.Name) float64 {
	switch name {
	case scenario.Best:
		return w.Best
	case scenario.Worst:
		return w.Worst
	default:
		return w.Base
	}
}

// Profile is the scenario-weighted risk summary.
type Profile struct {
	ExpectedNPV         float64                   `json:"expected_npv"`
	NPVStdDev           float64                   `json:"npv_std_dev"`
	ScenarioNPVs        map[scenario.Name]float64 `json:"scenario_npvs"`
	Weights             Weights                   `json:"weights"`
	DownsideProbability float64                   `json:"downside_probability"`
	Rating              RiskRating                `json:"rating"`
}

// BuildProfile folds the three scenario NPVs into a weighted mean and
// spread. Every leg must have produced metrics; a failed leg makes the
// profile unbuildable.
func BuildProfile(set scenario.ScenarioSet, w Weights) (Profile, error) {
	if err := w.Validate(); err != nil {
		return Profile{}, err
	}

	npvs := make(map[scenario.Name]float64, len(scenario.Order))
	for _, name := range scenario.Order {
		out, ok := set.Scenarios[name]
		if !ok {
			return Profile{}, fmt.Errorf("scenario %s missing from comparison: %w", name, calc.ErrNoSamples)
		}
		if out.Failed() {
			return Profile{}, fmt.Errorf("scenario %s carries no metrics (%s): %w", name, out.Err, calc.ErrNoSamples)
		}
		npvs[name] = out.Metrics.NPV
	}

	// Accumulate in canonical order so the profile is reproducible to
	// the last bit.
	var mean float64
	for _, name := range scenario.Order {
		mean += w.of(name) * npvs[name]
	}
	var variance float64
	for _, name := range scenario.Order {
		d := npvs[name] - mean
		variance += w.of(name) * d * d
	}
	var downside float64
	for _, name := range scenario.Order {
		if npvs[name] < 0 {
			downside += w.of(name)
		}
	}

	return Profile{
		ExpectedNPV:         mean,
		NPVStdDev:           math.Sqrt(variance),
		ScenarioNPVs:        npvs,
		Weights:             w,
		DownsideProbability: downside,
		Rating:              Rating(downside),
	}, nil
}

// =============================================================================
// BREAKEVEN OCCUPANCY
// =============================================================================

// BreakevenOccupancy returns the occupancy at which first-period NOI
// exactly covers operating expenses plus debt service:
//
//	occupancy = (opex_1 + debt service) / gross potential income_1
//
// A value above 1 means the property cannot break even at full
// occupancy. The value is reported raw, never clamped.
func BreakevenOccupancy(a assumption.InvestmentAssumptions) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if a.RentalIncome == 0 {
		return 0, &assumption.ValidationError{Field: "rental_income", Reason: "breakeven occupancy is undefined without rental income"}
	}

	opex := a.ExpenseRatio * a.RentalIncome
	var debtService float64
	if a.LoanToValue > 0 {
		loan := a.PurchasePrice * a.LoanToValue
		debtService = projection.PeriodicPayment(loan, a.InterestRate, a.LoanTermPeriods)
	}
	return (opex + debtService) / a.RentalIncome, nil
}
