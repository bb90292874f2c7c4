// Package valuation computes discounted-cash-flow metrics over a projected
// series: NPV, IRR (tagged, never a sentinel number), fractional payback,
// and the income-yield ratios of the purchase.
package valuation

import (
	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/projection"
)

// Evaluate derives all DCF metrics from a projected series. It is pure and
// deterministic; the only errors are an empty series and a degenerate
// discount rate. An unsolvable IRR or an unreached payback is reported
// through the tagged outcome, not as an error.
func Evaluate(cashflows []projection.CashFlowPeriod, in EvalInput) (DCFMetrics, error) {
	if len(cashflows) == 0 {
		return DCFMetrics{}, &assumption.ValidationError{Field: "cashflows", Reason: "series is empty"}
	}
	if in.DiscountRate <= -1 {
		return DCFMetrics{}, &assumption.ValidationError{Field: "discount_rate", Reason: "must be greater than -1"}
	}

	flows := make([]float64, len(cashflows))
	for i, p := range cashflows {
		flows[i] = p.PreTaxCashFlow
	}

	// 1. NPV at the caller's discount rate
	npv := npvAt(flows, in.DiscountRate)

	// 2. IRR (bracketed bisection, tagged outcome)
	irr := solveIRR(flows)

	// 3. Payback (first non-negative cumulative, interpolated)
	payback := solvePayback(cashflows)

	// 4. Ratios
	// The outlay is read off period 0; an all-positive series has no
	// equity base, so the ratio falls back to zero rather than dividing
	// by it.
	outlay := -flows[0]
	var firstFlow, firstNOI, firstGross float64
	if len(cashflows) > 1 {
		firstFlow = cashflows[1].PreTaxCashFlow
		firstNOI = cashflows[1].NetOperatingIncome
		firstGross = cashflows[1].GrossIncome
	}

	totalProfit := 0.0
	for _, f := range flows {
		totalProfit += f
	}

	return DCFMetrics{
		NPV:              npv,
		IRR:              irr,
		Payback:          payback,
		CashOnCash:       safeDiv(firstFlow, outlay),
		NetRentalYield:   safeDiv(firstNOI, in.PurchasePrice),
		CapRate:          safeDiv(firstNOI, in.PurchasePrice),
		GrossRentalYield: safeDiv(firstGross, in.PurchasePrice),
		TotalProfit:      totalProfit,
		EquityMultiple:   safeDiv(outlay+totalProfit, outlay),
	}, nil
}

// NPV discounts the pre-tax flows of a series at the given rate, period 0
// undiscounted. Exposed for callers that only need the headline number.
func NPV(cashflows []projection.CashFlowPeriod, rate float64) float64 {
	flows := make([]float64, len(cashflows))
	for i, p := range cashflows {
		flows[i] = p.PreTaxCashFlow
	}
	return npvAt(flows, rate)
}

// solvePayback finds the first period at which cumulative cash flow turns
// non-negative, interpolating linearly inside the crossing period.
func solvePayback(cashflows []projection.CashFlowPeriod) PaybackOutcome {
	for i, p := range cashflows {
		if p.CumulativeCashFlow >= 0 {
			if i == 0 {
				return PaybackOutcome{Periods: 0, Reached: true}
			}
			prev := cashflows[i-1].CumulativeCashFlow
			gained := p.CumulativeCashFlow - prev
			if gained <= 0 {
				// Crossing with no positive inflow only happens at an
				// exact zero; report the period boundary.
				return PaybackOutcome{Periods: float64(p.Period), Reached: true}
			}
			frac := -prev / gained
			return PaybackOutcome{Periods: float64(cashflows[i-1].Period) + frac, Reached: true}
		}
	}
	return PaybackOutcome{}
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
