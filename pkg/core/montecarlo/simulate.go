// Package montecarlo runs randomized feasibility trials over the
// deterministic projection engine and aggregates the NPV and IRR
// distributions that come out.
package montecarlo

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/calc"
	"property_feasibility/pkg/core/projection"
	"property_feasibility/pkg/core/valuation"
)

// maxRecordedErrors caps the failure messages carried in the result;
// the count is always exact.
const maxRecordedErrors = 10

// =============================================================================
// MONTE CARLO SIMULATION
// =============================================================================

// Run simulates cfg.Trials independent draws of the variables named in
// dists, projects and values each draw, and aggregates the outcomes.
//
// The sampled value replaces the base value outright, so a normal
// distribution is usually centered on the base assumption. Draws that
// land outside a field's legal domain fail that trial's validation and
// are reported, never clamped.
func Run(base assumption.InvestmentAssumptions, dists map[assumption.Variable]assumption.DistributionSpec, cfg SimConfig) (SimulationResult, error) {
	start := time.Now()

	if err := base.Validate(); err != nil {
		return SimulationResult{}, err
	}
	if cfg.Trials < 1 {
		return SimulationResult{}, &assumption.ValidationError{Field: "trials", Reason: "must run at least one trial"}
	}
	if len(dists) == 0 {
		return SimulationResult{}, &assumption.ValidationError{Field: "distributions", Reason: "at least one variable distribution is required"}
	}
	levels := cfg.Percentiles
	if len(levels) == 0 {
		levels = defaultPercentiles
	}
	for _, p := range levels {
		if p < 0 || p > 100 {
			return SimulationResult{}, &assumption.ValidationError{Field: "percentiles", Reason: fmt.Sprintf("level %v outside [0, 100]", p)}
		}
	}

	// 1. Validate every distribution against its variable, in canonical
	// variable order so the first error reported is stable.
	matched := 0
	for _, v := range assumption.Variables() {
		spec, ok := dists[v]
		if !ok {
			continue
		}
		if err := spec.Validate(v); err != nil {
			return SimulationResult{}, err
		}
		matched++
	}
	if matched != len(dists) {
		return SimulationResult{}, &assumption.ValidationError{Field: "distributions", Reason: "unknown variable in distribution map"}
	}

	seed := uint64(time.Now().UnixNano())
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	// 2. Parallel trial execution. Each worker owns a disjoint stride of
	// trial indices, and every trial reseeds from its own index, so the
	// aggregate does not depend on the worker count.
	results := make([]trialOutcome, cfg.Trials)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := worker; i < cfg.Trials; i += workers {
				results[i] = runTrial(base, dists, seed, i)
			}
		}(w)
	}
	wg.Wait()

	// 3. Aggregate in trial order.
	npvs := make([]float64, 0, cfg.Trials)
	irrs := make([]float64, 0, cfg.Trials)
	failures := make([]string, 0)
	for i, out := range results {
		if out.err != nil {
			if len(failures) < maxRecordedErrors {
				failures = append(failures, fmt.Sprintf("trial %d: %v", i, out.err))
			}
			continue
		}
		npvs = append(npvs, out.npv)
		if out.irrDefined {
			irrs = append(irrs, out.irr)
		}
	}
	if len(npvs) == 0 {
		return SimulationResult{}, fmt.Errorf("all %d trials failed validation: %w", cfg.Trials, calc.ErrNoSamples)
	}

	res := SimulationResult{
		Trials:       cfg.Trials,
		ValidTrials:  len(npvs),
		FailedTrials: cfg.Trials - len(npvs),
		Errors:       failures,
		Seed:         seed,
		NPVs:         npvs,
	}

	var err error
	if res.MeanNPV, err = calc.Mean(npvs); err != nil {
		return SimulationResult{}, err
	}
	if res.StdDevNPV, err = calc.StdDev(npvs); err != nil {
		return SimulationResult{}, err
	}
	if res.MinNPV, res.MaxNPV, err = calc.MinMax(npvs); err != nil {
		return SimulationResult{}, err
	}
	if res.ProbabilityOfLoss, err = calc.ProbabilityBelow(npvs, 0); err != nil {
		return SimulationResult{}, err
	}

	byLevel, err := calc.Percentiles(npvs, levels)
	if err != nil {
		return SimulationResult{}, err
	}
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)
	res.Percentiles = make([]PercentilePoint, 0, len(sorted))
	for _, p := range sorted {
		res.Percentiles = append(res.Percentiles, PercentilePoint{Level: p, Value: byLevel[p]})
	}

	if len(irrs) > 0 {
		if res.MeanIRR, err = calc.Mean(irrs); err != nil {
			return SimulationResult{}, err
		}
	}
	res.IRRDefinedRate = float64(len(irrs)) / float64(len(npvs))

	res.Elapsed = time.Since(start)
	return res, nil
}

type trialOutcome struct {
	npv        float64
	irr        float64
	irrDefined bool
	err        error
}

// runTrial samples one assumption set, projects it and values it.
func runTrial(base assumption.InvestmentAssumptions, dists map[assumption.Variable]assumption.DistributionSpec, seed uint64, trial int) trialOutcome {
	src := rand.NewSource(trialSeed(seed, trial))

	a := base
	for _, v := range assumption.Variables() {
		spec, ok := dists[v]
		if !ok {
			continue
		}
		next, err := assumption.Apply(a, v, sample(spec, src))
		if err != nil {
			return trialOutcome{err: err}
		}
		a = next
	}

	periods, err := projection.Project(a)
	if err != nil {
		return trialOutcome{err: err}
	}
	metrics, err := valuation.Evaluate(periods, valuation.EvalInput{
		DiscountRate:  a.DiscountRate,
		PurchasePrice: a.PurchasePrice,
	})
	if err != nil {
		return trialOutcome{err: err}
	}
	return trialOutcome{npv: metrics.NPV, irr: metrics.IRR.Rate, irrDefined: metrics.IRR.Defined}
}

// sample draws one value from the spec. Specs are validated before the
// trial loop starts, so the zero fallthrough is never reached.
func sample(spec assumption.DistributionSpec, src rand.Source) float64 {
	switch spec.Kind {
	case assumption.DistNormal:
		return distuv.Normal{Mu: spec.Mean, Sigma: spec.StdDev, Src: src}.Rand()
	case assumption.DistUniform:
		return distuv.Uniform{Min: spec.Min, Max: spec.Max, Src: src}.Rand()
	case assumption.DistTriangular:
		return distuv.NewTriangle(spec.Min, spec.Max, spec.Mode, src).Rand()
	}
	return 0
}

// trialSeed mixes the run seed with the trial index (splitmix64
// finalizer). Trial i draws the same values no matter which worker
// executes it.
func trialSeed(seed uint64, trial int) uint64 {
	z := seed + (uint64(trial)+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
