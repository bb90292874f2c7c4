package montecarlo

import "time"

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig controls trial count, seeding and parallelism. A nil Seed
// draws one from the wall clock; the seed actually used is echoed in
// the result so a run can be replayed.
type SimConfig struct {
	Trials      int       `json:"trials"`
	Seed        *uint64   `json:"seed,omitempty"`
	Workers     int       `json:"workers"`
	Percentiles []float64 `json:"percentiles"`
}

var defaultPercentiles = []float64{5, 25, 50, 75, 95}

// DefaultConfig mirrors the workbook defaults: 1000 trials, automatic
// parallelism, p5/p25/p50/p75/p95 summary.
func DefaultConfig() SimConfig {
	return SimConfig{
		Trials:      1000,
		Percentiles: append([]float64(nil), defaultPercentiles...),
	}
}

// =============================================================================
// SIMULATION RESULT
// =============================================================================

// PercentilePoint is one row of the NPV percentile summary.
type PercentilePoint struct {
	Level float64 `json:"level"`
	Value float64 `json:"value"`
}

// SimulationResult aggregates the NPV and IRR distribution over all
// valid trials. Trials whose sampled assumptions fail validation are
// counted, not silently dropped.
type SimulationResult struct {
	Trials       int      `json:"trials"`
	ValidTrials  int      `json:"valid_trials"`
	FailedTrials int      `json:"failed_trials"`
	Errors       []string `json:"errors,omitempty"`

	Seed    uint64        `json:"seed"`
	Elapsed time.Duration `json:"elapsed_ns"`

	MeanNPV           float64           `json:"mean_npv"`
	StdDevNPV         float64           `json:"std_dev_npv"`
	MinNPV            float64           `json:"min_npv"`
	MaxNPV            float64           `json:"max_npv"`
	Percentiles       []PercentilePoint `json:"percentiles"`
	ProbabilityOfLoss float64           `json:"probability_of_loss"`

	MeanIRR        float64 `json:"mean_irr"`
	IRRDefinedRate float64 `json:"irr_defined_rate"`

	// NPVs holds the valid-trial samples in trial order so downstream
	// consumers can re-bin them. The aggregates above describe the same
	// data on the wire; the raw samples stay out of the JSON form.
	NPVs []float64 `json:"-"`
}
