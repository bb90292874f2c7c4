package valuation

// =============================================================================
// IRR ROOT FINDING
// =============================================================================

// Solver caps. The scan walks candidate rates over [-99%, +1000%] looking
// for a sign change of NPV; bisection then narrows the bracket until the
// NPV at the midpoint is inside tolerance or the iteration cap is hit.
const (
	irrScanLow   = -0.99
	irrScanHigh  = 10.0
	irrScanStep  = 0.01
	irrTolerance = 1e-6
	irrMaxIter   = 1000
)

// solveIRR finds the rate at which the discounted flows sum to zero.
// Flows that never change sign have no root and come back Undefined
// without touching the solver; so does a scan that finds no bracket or a
// bisection that exhausts its cap. The outcome is always a tagged value,
// never NaN and never a sentinel rate.
func solveIRR(flows []float64) IRROutcome {
	hasPositive, hasNegative := false, false
	for _, f := range flows {
		if f > 0 {
			hasPositive = true
		}
		if f < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return IRROutcome{}
	}

	// 1. Bracket scan
	lo, hi, found := scanBracket(flows)
	if !found {
		return IRROutcome{}
	}

	// 2. Bisection
	fLo := npvAt(flows, lo)
	for i := 1; i <= irrMaxIter; i++ {
		mid := (lo + hi) / 2
		fMid := npvAt(flows, mid)

		if abs(fMid) < irrTolerance {
			return IRROutcome{Rate: mid, Defined: true, Iterations: i}
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}

	return IRROutcome{Iterations: irrMaxIter}
}

// scanBracket walks fixed steps across the search range and returns the
// first interval where NPV changes sign.
func scanBracket(flows []float64) (lo, hi float64, found bool) {
	prev := irrScanLow
	fPrev := npvAt(flows, prev)
	if abs(fPrev) < irrTolerance {
		return prev, prev, true
	}

	for r := irrScanLow + irrScanStep; r <= irrScanHigh+irrScanStep/2; r += irrScanStep {
		f := npvAt(flows, r)
		if abs(f) < irrTolerance || fPrev*f < 0 {
			return prev, r, true
		}
		prev, fPrev = r, f
	}
	return 0, 0, false
}

// npvAt discounts raw flows by period index at the given rate.
func npvAt(flows []float64, rate float64) float64 {
	factor := 1.0
	total := 0.0
	for _, f := range flows {
		total += f / factor
		factor *= 1 + rate
	}
	return total
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
