package valuation

// EvalInput carries the evaluation parameters alongside the cash-flow
// series. PurchasePrice is the denominator for the yield ratios; the
// outlay itself is read off period 0 of the series.
type EvalInput struct {
	DiscountRate  float64 `json:"discount_rate"`
	PurchasePrice float64 `json:"purchase_price"`
}

// IRROutcome is the tagged result of the IRR solve. Rate is meaningful
// only when Defined is true. An undefined IRR is not an error: it reports
// that no root exists for the sign pattern or that the solver could not
// isolate one within its caps.
type IRROutcome struct {
	Rate       float64 `json:"rate"`
	Defined    bool    `json:"defined"`
	Iterations int     `json:"iterations"`
}

// PaybackOutcome reports when cumulative cash flow first turns
// non-negative. Periods is fractional (linear interpolation inside the
// crossing period); Reached false means the horizon ends underwater.
type PaybackOutcome struct {
	Periods float64 `json:"periods"`
	Reached bool    `json:"reached"`
}

// DCFMetrics holds every derived figure of one evaluation. Values are
// computed once and never mutated.
type DCFMetrics struct {
	NPV     float64        `json:"npv"`
	IRR     IRROutcome     `json:"irr"`
	Payback PaybackOutcome `json:"payback"`

	// Ratios against the purchase context
	CashOnCash       float64 `json:"cash_on_cash"`       // period-1 pre-tax flow / initial equity
	NetRentalYield   float64 `json:"net_rental_yield"`   // period-1 NOI / purchase price
	CapRate          float64 `json:"cap_rate"`           // period-1 NOI / purchase price
	GrossRentalYield float64 `json:"gross_rental_yield"` // period-1 gross income / purchase price

	// Whole-horizon totals
	TotalProfit    float64 `json:"total_profit"`    // undiscounted sum of all flows
	EquityMultiple float64 `json:"equity_multiple"` // total cash returned / equity invested
}
