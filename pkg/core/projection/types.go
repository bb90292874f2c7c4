package projection

// CashFlowPeriod is one row of the projected series. Period 0 carries the
// acquisition outlay, periods 1..N the operating results, and the final
// period additionally carries net sale proceeds when the run sells at the
// horizon. Rows are immutable once produced.
type CashFlowPeriod struct {
	Period int `json:"period"`

	// Operations
	GrossIncome        float64 `json:"gross_income"` // potential rent before vacancy
	VacancyLoss        float64 `json:"vacancy_loss"`
	OperatingExpenses  float64 `json:"operating_expenses"`
	NetOperatingIncome float64 `json:"net_operating_income"`

	// Financing
	DebtService float64 `json:"debt_service"`

	// Exit
	SaleProceeds float64 `json:"sale_proceeds"` // net of selling costs and loan payoff

	// Totals
	PreTaxCashFlow     float64 `json:"pre_tax_cash_flow"`
	CumulativeCashFlow float64 `json:"cumulative_cash_flow"`
}
