package sensitivity

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/calc"
)

func baseCase() assumption.InvestmentAssumptions {
	return assumption.InvestmentAssumptions{
		PurchasePrice:   1_000_000,
		LoanToValue:     0.7,
		InterestRate:    0.05,
		LoanTermPeriods: 10,
		HoldingPeriods:  5,
		RentalIncome:    100_000,
		ExpenseRatio:    0.3,
		VacancyRate:     0.05,
		SellAtHorizon:   true,
		ExitCapRate:     0.06,
		DiscountRate:    0.08,
	}
}

func TestAnalyzeTornadoOrdering(t *testing.T) {
	base := baseCase()

	// Rent swings the NPV far more than a relative vacancy shift; the
	// rent row must come first no matter the input order.
	ranges := []VariableRange{
		{Variable: assumption.VarVacancyRate, Low: 0.04, High: 0.06},
		{Variable: assumption.VarRentalIncome, Low: 80_000, High: 120_000},
	}

	res, err := Analyze(base, ranges, MetricNPV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0].Variable != assumption.VarRentalIncome {
		t.Errorf("expected rental income to rank first, got %s", res.Rows[0].Variable)
	}
	if res.Rows[0].Impact <= res.Rows[1].Impact {
		t.Errorf("ranking is not impact-descending: %f then %f", res.Rows[0].Impact, res.Rows[1].Impact)
	}
}

func TestAnalyzeImpactArithmetic(t *testing.T) {
	base := baseCase()
	ranges := []VariableRange{
		{Variable: assumption.VarRentalIncome, Low: 80_000, High: 120_000},
	}

	res, err := Analyze(base, ranges, MetricNPV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := res.Rows[0]
	if math.Abs(row.Impact-math.Abs(row.OutputHigh-row.OutputLow)) > 1e-9 {
		t.Errorf("impact %f must equal |high-low| = %f", row.Impact, math.Abs(row.OutputHigh-row.OutputLow))
	}
	if row.OutputHigh <= row.OutputLow {
		t.Error("more rent should mean more NPV")
	}
	if row.InputLow != 80_000 || row.InputHigh != 120_000 {
		t.Error("rows must echo their input endpoints")
	}
	// The base output is shared across rows and sits between endpoints
	// for a monotone variable.
	if row.OutputBase <= row.OutputLow || row.OutputBase >= row.OutputHigh {
		t.Errorf("base output %f should sit inside (%f, %f)", row.OutputBase, row.OutputLow, row.OutputHigh)
	}
}

func TestAnalyzeTiesKeepInputOrder(t *testing.T) {
	base := baseCase()

	// Two degenerate ranges (low == high) tie at zero impact; the stable
	// sort must keep the input order.
	ranges := []VariableRange{
		{Variable: assumption.VarVacancyRate, Low: 0.05, High: 0.05},
		{Variable: assumption.VarRentalIncome, Low: 100_000, High: 100_000},
	}

	res, err := Analyze(base, ranges, MetricNPV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows[0].Variable != assumption.VarVacancyRate {
		t.Errorf("tied rows must keep input order, got %s first", res.Rows[0].Variable)
	}
	if res.Rows[0].Impact != 0 || res.Rows[1].Impact != 0 {
		t.Error("degenerate ranges should have zero impact")
	}
}

func TestAnalyzeFailedRowSinksToTail(t *testing.T) {
	base := baseCase()
	ranges := []VariableRange{
		// Vacancy of 1.5 fails validation on the high endpoint.
		{Variable: assumption.VarVacancyRate, Low: 0.04, High: 1.5},
		{Variable: assumption.VarRentalIncome, Low: 80_000, High: 120_000},
	}

	res, err := Analyze(base, ranges, MetricNPV)
	if err != nil {
		t.Fatalf("partial failure must not abort the sweep: %v", err)
	}

	last := res.Rows[len(res.Rows)-1]
	if last.Variable != assumption.VarVacancyRate {
		t.Errorf("failed row must sink to the tail, got %s last", last.Variable)
	}
	if last.Err == "" {
		t.Error("failed row must carry its error")
	}
	if last.Impact != 0 {
		t.Errorf("failed row must carry zero impact, got %f", last.Impact)
	}
	if res.Rows[0].Err != "" {
		t.Error("healthy row must survive a sibling's failure")
	}
}

func TestAnalyzeAllRowsFailed(t *testing.T) {
	base := baseCase()
	ranges := []VariableRange{
		{Variable: assumption.VarVacancyRate, Low: -0.5, High: 1.5},
		{Variable: assumption.VarPurchasePrice, Low: -1, High: -2},
	}

	_, err := Analyze(base, ranges, MetricNPV)
	if err == nil {
		t.Fatal("expected aggregation error when every row fails")
	}
	if !errors.Is(err, calc.ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

func TestAnalyzeInvalidBaseAborts(t *testing.T) {
	base := baseCase()
	base.HoldingPeriods = 0

	_, err := Analyze(base, []VariableRange{{Variable: assumption.VarRentalIncome, Low: 1, High: 2}}, MetricNPV)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var ve *assumption.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestAnalyzeInputValidation(t *testing.T) {
	base := baseCase()

	if _, err := Analyze(base, nil, MetricNPV); err == nil {
		t.Error("expected error for empty ranges")
	}
	if _, err := Analyze(base, []VariableRange{{Variable: assumption.VarRentalIncome, Low: 1, High: 2}}, Metric("ROI")); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestAnalyzeIRRMetric(t *testing.T) {
	base := baseCase()
	ranges := []VariableRange{
		{Variable: assumption.VarRentalIncome, Low: 80_000, High: 120_000},
	}

	res, err := Analyze(base, ranges, MetricIRR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := res.Rows[0]
	if row.Err != "" {
		t.Fatalf("IRR sweep failed: %s", row.Err)
	}
	if row.OutputHigh <= row.OutputLow {
		t.Error("more rent should mean a higher IRR")
	}
}

func TestAnalyzeUndefinedBaseIRR(t *testing.T) {
	// No rent and no sale: every flow is an outflow, so the base IRR has
	// no root and the IRR tornado has no anchor.
	base := baseCase()
	base.RentalIncome = 0
	base.SellAtHorizon = false

	_, err := Analyze(base, []VariableRange{
		{Variable: assumption.VarInterestRate, Low: 0.04, High: 0.06},
	}, MetricIRR)
	if err == nil {
		t.Fatal("expected error for undefined base IRR")
	}
	if !errors.Is(err, calc.ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	base := baseCase()
	ranges, err := GridForVariables(base, DefaultSpread)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := Analyze(base, ranges, MetricNPV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Analyze(base, ranges, MetricNPV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical sweeps must produce identical tables")
	}
}

func TestGridForVariables(t *testing.T) {
	base := baseCase()

	ranges, err := GridForVariables(base, 0.20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != len(GridVariables) {
		t.Fatalf("expected %d ranges, got %d", len(GridVariables), len(ranges))
	}

	// Interest 0.05 brackets to [0.04, 0.06].
	first := ranges[0]
	if first.Variable != assumption.VarInterestRate {
		t.Errorf("expected interest rate first, got %s", first.Variable)
	}
	if math.Abs(first.Low-0.04) > 1e-12 || math.Abs(first.High-0.06) > 1e-12 {
		t.Errorf("expected [0.04, 0.06], got [%f, %f]", first.Low, first.High)
	}

	// A zero-valued variable collapses to a degenerate range.
	for _, r := range ranges {
		if r.Variable == assumption.VarRentGrowthRate {
			if r.Low != 0 || r.High != 0 {
				t.Errorf("zero base should collapse the range, got [%f, %f]", r.Low, r.High)
			}
		}
	}

	if _, err := GridForVariables(base, 0); err == nil {
		t.Error("expected error for non-positive spread")
	}
}
