package projection_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/projection"
)

// referenceAssumptions is the hand-checkable case used across the engine
// tests: 1M property, 70% financed at 5% over 10 periods, held 5 periods,
// flat rent 100,000, flat expenses 30,000, sold at a 6% exit cap.
func referenceAssumptions() assumption.InvestmentAssumptions {
	return assumption.InvestmentAssumptions{
		PurchasePrice:   1_000_000,
		LoanToValue:     0.7,
		InterestRate:    0.05,
		LoanTermPeriods: 10,
		HoldingPeriods:  5,
		RentalIncome:    100_000,
		ExpenseRatio:    0.3,
		SellAtHorizon:   true,
		ExitCapRate:     0.06,
		DiscountRate:    0.08,
	}
}

func TestProjectReferenceCase(t *testing.T) {
	periods, err := projection.Project(referenceAssumptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Periods 0..5 inclusive.
	if len(periods) != 6 {
		t.Fatalf("expected 6 periods, got %d", len(periods))
	}

	// Period 0: equity outlay = 1,000,000 * (1 - 0.7) = 300,000, no income.
	p0 := periods[0]
	if p0.PreTaxCashFlow != -300_000 {
		t.Errorf("expected period-0 flow -300000, got %f", p0.PreTaxCashFlow)
	}
	if p0.GrossIncome != 0 || p0.NetOperatingIncome != 0 || p0.DebtService != 0 {
		t.Error("period 0 must carry no operating figures")
	}

	// Flat rent with no vacancy: NOI = 100,000 - 30,000 = 70,000 each period.
	payment := projection.PeriodicPayment(700_000, 0.05, 10)
	for p := 1; p <= 5; p++ {
		row := periods[p]
		if math.Abs(row.NetOperatingIncome-70_000) > 1e-9 {
			t.Errorf("period %d: expected NOI 70000, got %f", p, row.NetOperatingIncome)
		}
		if math.Abs(row.DebtService-payment) > 1e-9 {
			t.Errorf("period %d: expected debt service %f, got %f", p, payment, row.DebtService)
		}
	}

	// Terminal: value = 70,000 / 0.06, minus the balance after 5 payments.
	wantValue := 70_000.0 / 0.06
	wantBalance := projection.RemainingBalance(700_000, 0.05, 10, 5)
	wantSale := wantValue - wantBalance
	last := periods[5]
	if math.Abs(last.SaleProceeds-wantSale) > 1e-6 {
		t.Errorf("expected sale proceeds %f, got %f", wantSale, last.SaleProceeds)
	}
	if math.Abs(last.PreTaxCashFlow-(70_000-payment+wantSale)) > 1e-6 {
		t.Errorf("terminal flow should stack NOI - debt + sale, got %f", last.PreTaxCashFlow)
	}

	// Cumulative is a running sum of pre-tax flows.
	sum := 0.0
	for _, row := range periods {
		sum += row.PreTaxCashFlow
		if math.Abs(row.CumulativeCashFlow-sum) > 1e-6 {
			t.Errorf("period %d: cumulative %f does not match running sum %f", row.Period, row.CumulativeCashFlow, sum)
		}
	}
}

func TestProjectIdempotent(t *testing.T) {
	a := referenceAssumptions()
	first, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two projections of identical inputs must be bit-identical")
	}
}

func TestProjectGrowthCompounding(t *testing.T) {
	a := referenceAssumptions()
	a.RentGrowthRate = 0.10
	a.ExpenseGrowthRate = 0.05
	a.SellAtHorizon = false

	periods, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Period 1 is the base; growth shows up from period 2.
	if math.Abs(periods[1].GrossIncome-100_000) > 1e-9 {
		t.Errorf("period 1 gross should be the base rent, got %f", periods[1].GrossIncome)
	}
	if math.Abs(periods[2].GrossIncome-110_000) > 1e-9 {
		t.Errorf("period 2 gross should be 110000, got %f", periods[2].GrossIncome)
	}
	if math.Abs(periods[3].GrossIncome-121_000) > 1e-6 {
		t.Errorf("period 3 gross should be 121000, got %f", periods[3].GrossIncome)
	}

	// Expenses seed from the ratio (0.3 * 100,000) and grow on their own rate.
	if math.Abs(periods[1].OperatingExpenses-30_000) > 1e-9 {
		t.Errorf("period 1 opex should be 30000, got %f", periods[1].OperatingExpenses)
	}
	if math.Abs(periods[2].OperatingExpenses-31_500) > 1e-9 {
		t.Errorf("period 2 opex should be 31500, got %f", periods[2].OperatingExpenses)
	}
}

func TestProjectVacancyReducesNOI(t *testing.T) {
	a := referenceAssumptions()
	a.VacancyRate = 0.05
	a.SellAtHorizon = false

	periods, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// NOI = 100,000 * 0.95 - 30,000 = 65,000.
	if math.Abs(periods[1].VacancyLoss-5_000) > 1e-9 {
		t.Errorf("expected vacancy loss 5000, got %f", periods[1].VacancyLoss)
	}
	if math.Abs(periods[1].NetOperatingIncome-65_000) > 1e-9 {
		t.Errorf("expected NOI 65000, got %f", periods[1].NetOperatingIncome)
	}
}

func TestProjectAllCash(t *testing.T) {
	a := referenceAssumptions()
	a.LoanToValue = 0
	a.LoanTermPeriods = 0
	a.InterestRate = 0

	periods, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Full price down, zero debt service everywhere.
	if periods[0].PreTaxCashFlow != -1_000_000 {
		t.Errorf("expected outlay -1000000, got %f", periods[0].PreTaxCashFlow)
	}
	for _, row := range periods[1:] {
		if row.DebtService != 0 {
			t.Errorf("period %d: all-cash purchase must have zero debt service", row.Period)
		}
	}

	// Terminal proceeds have no balance to subtract.
	wantSale := 70_000.0 / 0.06
	if math.Abs(periods[5].SaleProceeds-wantSale) > 1e-6 {
		t.Errorf("expected unlevered sale proceeds %f, got %f", wantSale, periods[5].SaleProceeds)
	}
}

func TestProjectLoanRetiredBeforeHorizon(t *testing.T) {
	a := referenceAssumptions()
	a.LoanTermPeriods = 3
	a.HoldingPeriods = 5
	a.SellAtHorizon = false

	periods, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment := projection.PeriodicPayment(700_000, 0.05, 3)
	for p := 1; p <= 3; p++ {
		if math.Abs(periods[p].DebtService-payment) > 1e-9 {
			t.Errorf("period %d: expected active debt service", p)
		}
	}
	for p := 4; p <= 5; p++ {
		if periods[p].DebtService != 0 {
			t.Errorf("period %d: loan is retired, expected zero debt service, got %f", p, periods[p].DebtService)
		}
	}
}

func TestProjectAppreciationExit(t *testing.T) {
	// Exit cap of zero switches the terminal value to price appreciation.
	a := referenceAssumptions()
	a.ExitCapRate = 0
	a.AppreciationRate = 0.03
	a.SellingCostRate = 0.05

	periods, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Value = 1,000,000 * 1.03^5; proceeds net 5% selling costs and payoff.
	wantValue := 1_000_000 * math.Pow(1.03, 5)
	wantBalance := projection.RemainingBalance(700_000, 0.05, 10, 5)
	wantSale := wantValue*0.95 - wantBalance
	if math.Abs(periods[5].SaleProceeds-wantSale) > 1e-6 {
		t.Errorf("expected appreciation-route proceeds %f, got %f", wantSale, periods[5].SaleProceeds)
	}
}

func TestProjectHoldWithoutSale(t *testing.T) {
	a := referenceAssumptions()
	a.SellAtHorizon = false

	periods, err := projection.Project(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if periods[5].SaleProceeds != 0 {
		t.Errorf("expected zero terminal proceeds, got %f", periods[5].SaleProceeds)
	}
}

func TestProjectRejectsInvalidAssumptions(t *testing.T) {
	a := referenceAssumptions()
	a.HoldingPeriods = 0

	_, err := projection.Project(a)
	if err == nil {
		t.Fatal("expected validation error for zero holding period")
	}
	var ve *assumption.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "holding_periods" {
		t.Errorf("expected holding_periods violation, got '%s'", ve.Field)
	}
}
