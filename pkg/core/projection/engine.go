// Package projection builds the period-by-period cash flow series of a
// property investment from a static set of assumptions: acquisition outlay,
// rental operations with growth and vacancy, fixed-rate debt service, and
// terminal sale proceeds at the holding horizon.
package projection

import (
	"math"

	"property_feasibility/pkg/core/assumption"
)

// Project builds the full cash-flow series for one assumption record:
// HoldingPeriods+1 entries, where period 0 is the equity outlay and the
// final period includes net sale proceeds when SellAtHorizon is set.
// Inputs are validated first; an invalid record produces no series.
func Project(a assumption.InvestmentAssumptions) ([]CashFlowPeriod, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	// 1. Acquisition (period 0)
	loanAmount := a.PurchasePrice * a.LoanToValue
	outlay := (a.PurchasePrice - loanAmount) + a.PurchasePrice*a.ClosingCostRate

	periods := make([]CashFlowPeriod, 0, a.HoldingPeriods+1)
	periods = append(periods, CashFlowPeriod{
		Period:             0,
		PreTaxCashFlow:     -outlay,
		CumulativeCashFlow: -outlay,
	})

	// 2. Debt service (fixed-rate, constant; no resets mid-horizon)
	payment := PeriodicPayment(loanAmount, a.InterestRate, a.LoanTermPeriods)

	// 3. Operating periods
	// Period 1 uses the base rent and the base expense ratio; growth
	// compounds from period 2 onward. Expenses grow on their own rate,
	// independent of rent, once seeded from the ratio.
	gross := a.RentalIncome
	opex := a.ExpenseRatio * a.RentalIncome
	cumulative := -outlay

	for p := 1; p <= a.HoldingPeriods; p++ {
		vacancyLoss := gross * a.VacancyRate
		noi := gross - vacancyLoss - opex

		debtService := payment
		if p > a.LoanTermPeriods {
			debtService = 0 // loan retired before the horizon
		}

		cashFlow := noi - debtService
		sale := 0.0
		if p == a.HoldingPeriods && a.SellAtHorizon {
			sale = saleProceeds(a, noi, loanAmount, p)
			cashFlow += sale
		}

		cumulative += cashFlow
		periods = append(periods, CashFlowPeriod{
			Period:             p,
			GrossIncome:        gross,
			VacancyLoss:        vacancyLoss,
			OperatingExpenses:  opex,
			NetOperatingIncome: noi,
			DebtService:        debtService,
			SaleProceeds:       sale,
			PreTaxCashFlow:     cashFlow,
			CumulativeCashFlow: cumulative,
		})

		gross *= 1 + a.RentGrowthRate
		opex *= 1 + a.ExpenseGrowthRate
	}

	return periods, nil
}

// saleProceeds values the property at the horizon and nets out selling
// costs and the remaining loan balance. A positive exit cap rate values
// the property off final-period NOI; otherwise the purchase price is
// carried forward at the appreciation rate.
func saleProceeds(a assumption.InvestmentAssumptions, finalNOI, loanAmount float64, horizon int) float64 {
	var value float64
	if a.ExitCapRate > 0 {
		value = finalNOI / a.ExitCapRate
	} else {
		value = a.PurchasePrice * math.Pow(1+a.AppreciationRate, float64(horizon))
	}

	balance := RemainingBalance(loanAmount, a.InterestRate, a.LoanTermPeriods, horizon)
	return value*(1-a.SellingCostRate) - balance
}

// InitialEquity returns the period-0 outlay implied by the assumptions:
// down payment plus closing costs. Shared by the valuation layer for
// cash-on-cash style ratios.
func InitialEquity(a assumption.InvestmentAssumptions) float64 {
	return a.PurchasePrice*(1-a.LoanToValue) + a.PurchasePrice*a.ClosingCostRate
}
