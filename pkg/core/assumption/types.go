// Package assumption defines the immutable input record for a feasibility
// run plus the variable identifiers and distribution descriptors consumed
// by the sensitivity and Monte Carlo layers.
package assumption

// =============================================================================
// INVESTMENT ASSUMPTIONS (Immutable Input Record)
// =============================================================================

// InvestmentAssumptions captures every input of a feasibility run.
// Monetary fields are absolute currency amounts, rates are fractional
// (0.05 = 5%), term and horizon are period counts. The engine copies the
// struct on use and never mutates a caller's value.
type InvestmentAssumptions struct {
	// Acquisition
	PurchasePrice   float64 `json:"purchase_price"`
	ClosingCostRate float64 `json:"closing_cost_rate"` // fraction of price, part of the period-0 outlay

	// Financing
	LoanToValue     float64 `json:"loan_to_value"` // [0,1); 0 = all-cash purchase
	InterestRate    float64 `json:"interest_rate"` // periodic rate over the loan term
	LoanTermPeriods int     `json:"loan_term_periods"`

	// Operations
	HoldingPeriods    int     `json:"holding_periods"`
	RentalIncome      float64 `json:"rental_income"` // period-1 gross potential income
	RentGrowthRate    float64 `json:"rent_growth_rate"`
	ExpenseRatio      float64 `json:"expense_ratio"` // period-1 opex as a fraction of period-1 gross income
	ExpenseGrowthRate float64 `json:"expense_growth_rate"`
	VacancyRate       float64 `json:"vacancy_rate"` // [0,1]

	// Exit
	SellAtHorizon    bool    `json:"sell_at_horizon"`
	ExitCapRate      float64 `json:"exit_cap_rate"` // 0 = value the exit via appreciation instead
	AppreciationRate float64 `json:"appreciation_rate"`
	SellingCostRate  float64 `json:"selling_cost_rate"` // fraction of gross sale value

	// Valuation
	DiscountRate float64 `json:"discount_rate"`
}

// DefaultAssumptions returns the reference configuration of the analyst
// workbook: a 5M property, 80% financed over 20 periods at 3.5%, rents of
// 180,000 growing 2% per period, held 10 periods and sold with 5% selling
// costs against a 5% discount rate.
func DefaultAssumptions() InvestmentAssumptions {
	return InvestmentAssumptions{
		PurchasePrice:     5_000_000,
		ClosingCostRate:   0,
		LoanToValue:       0.80,
		InterestRate:      0.035,
		LoanTermPeriods:   20,
		HoldingPeriods:    10,
		RentalIncome:      180_000,
		RentGrowthRate:    0.02,
		ExpenseRatio:      0.20,
		ExpenseGrowthRate: 0,
		VacancyRate:       0.05,
		SellAtHorizon:     true,
		ExitCapRate:       0,
		AppreciationRate:  0.03,
		SellingCostRate:   0.05,
		DiscountRate:      0.05,
	}
}

// Validate checks the record for out-of-domain inputs and returns a
// *ValidationError for the first violation. Nothing is clamped.
func (a InvestmentAssumptions) Validate() error {
	if a.HoldingPeriods < 1 {
		return &ValidationError{Field: "holding_periods", Reason: "must be at least 1"}
	}
	if a.PurchasePrice <= 0 {
		return &ValidationError{Field: "purchase_price", Reason: "must be positive"}
	}
	if a.LoanToValue < 0 || a.LoanToValue >= 1 {
		return &ValidationError{Field: "loan_to_value", Reason: "must be in [0, 1)"}
	}
	if a.LoanToValue > 0 && a.LoanTermPeriods < 1 {
		return &ValidationError{Field: "loan_term_periods", Reason: "must be at least 1 when financed"}
	}
	if a.RentalIncome < 0 {
		return &ValidationError{Field: "rental_income", Reason: "must be non-negative"}
	}
	if a.VacancyRate < 0 || a.VacancyRate > 1 {
		return &ValidationError{Field: "vacancy_rate", Reason: "must be in [0, 1]"}
	}
	if a.ExpenseRatio < 0 {
		return &ValidationError{Field: "expense_ratio", Reason: "must be non-negative"}
	}
	if a.ExitCapRate < 0 {
		return &ValidationError{Field: "exit_cap_rate", Reason: "must be non-negative"}
	}
	if a.SellingCostRate < 0 || a.SellingCostRate >= 1 {
		return &ValidationError{Field: "selling_cost_rate", Reason: "must be in [0, 1)"}
	}
	if a.DiscountRate <= -1 {
		return &ValidationError{Field: "discount_rate", Reason: "must be greater than -1"}
	}
	return nil
}

// =============================================================================
// PERTURBATION VARIABLES
// =============================================================================

// Variable names a single InvestmentAssumptions field that the sensitivity
// and Monte Carlo layers may override on a copy of the base record.
type Variable string

const (
	VarPurchasePrice     Variable = "purchase_price"
	VarInterestRate      Variable = "interest_rate"
	VarRentalIncome      Variable = "rental_income"
	VarRentGrowthRate    Variable = "rent_growth_rate"
	VarExpenseRatio      Variable = "expense_ratio"
	VarExpenseGrowthRate Variable = "expense_growth_rate"
	VarVacancyRate       Variable = "vacancy_rate"
	VarExitCapRate       Variable = "exit_cap_rate"
	VarDiscountRate      Variable = "discount_rate"
	VarAppreciationRate  Variable = "appreciation_rate"
)

// variableOrder fixes the canonical iteration order. Sampling loops and
// sensitivity grids walk this slice so results never depend on map order.
var variableOrder = []Variable{
	VarPurchasePrice,
	VarInterestRate,
	VarRentalIncome,
	VarRentGrowthRate,
	VarExpenseRatio,
	VarExpenseGrowthRate,
	VarVacancyRate,
	VarExitCapRate,
	VarDiscountRate,
	VarAppreciationRate,
}

// Variables returns every perturbable variable in canonical order.
func Variables() []Variable {
	out := make([]Variable, len(variableOrder))
	copy(out, variableOrder)
	return out
}

// labels backs Variable.Label for report tables.
var labels = map[Variable]string{
	VarPurchasePrice:     "Purchase Price",
	VarInterestRate:      "Interest Rate",
	VarRentalIncome:      "Rental Income",
	VarRentGrowthRate:    "Rent Growth",
	VarExpenseRatio:      "Expense Ratio",
	VarExpenseGrowthRate: "Expense Growth",
	VarVacancyRate:       "Vacancy Rate",
	VarExitCapRate:       "Exit Cap Rate",
	VarDiscountRate:      "Discount Rate",
	VarAppreciationRate:  "Appreciation",
}

// Label returns a human-readable name for report tables.
func (v Variable) Label() string {
	if l, ok := labels[v]; ok {
		return l
	}
	return string(v)
}

// Value reads the named field from the record.
func (a InvestmentAssumptions) Value(v Variable) (float64, error) {
	switch v {
	case VarPurchasePrice:
		return a.PurchasePrice, nil
	case VarInterestRate:
		return a.InterestRate, nil
	case VarRentalIncome:
		return a.RentalIncome, nil
	case VarRentGrowthRate:
		return a.RentGrowthRate, nil
	case VarExpenseRatio:
		return a.ExpenseRatio, nil
	case VarExpenseGrowthRate:
		return a.ExpenseGrowthRate, nil
	case VarVacancyRate:
		return a.VacancyRate, nil
	case VarExitCapRate:
		return a.ExitCapRate, nil
	case VarDiscountRate:
		return a.DiscountRate, nil
	case VarAppreciationRate:
		return a.AppreciationRate, nil
	}
	return 0, &ValidationError{Field: string(v), Reason: "unknown variable"}
}

// Apply returns a copy of base with the named variable replaced. The copy
// is not re-validated here; callers validate at the point of use so a
// perturbed value that leaves the domain is reported against that run.
func Apply(base InvestmentAssumptions, v Variable, value float64) (InvestmentAssumptions, error) {
	out := base
	switch v {
	case VarPurchasePrice:
		out.PurchasePrice = value
	case VarInterestRate:
		out.InterestRate = value
	case VarRentalIncome:
		out.RentalIncome = value
	case VarRentGrowthRate:
		out.RentGrowthRate = value
	case VarExpenseRatio:
		out.ExpenseRatio = value
	case VarExpenseGrowthRate:
		out.ExpenseGrowthRate = value
	case VarVacancyRate:
		out.VacancyRate = value
	case VarExitCapRate:
		out.ExitCapRate = value
	case VarDiscountRate:
		out.DiscountRate = value
	case VarAppreciationRate:
		out.AppreciationRate = value
	default:
		return base, &ValidationError{Field: string(v), Reason: "unknown variable"}
	}
	return out, nil
}
