package projection

import "math"

// =============================================================================
// FIXED-RATE AMORTIZATION
// =============================================================================

// PeriodicPayment returns the constant payment of a fixed-rate loan of the
// given principal over termPeriods at periodic rate. The zero-rate case is
// defined directly as principal / term rather than through the annuity
// formula, which would divide by zero.
//
// FORMULA: M = L * r(1+r)^n / ((1+r)^n - 1)
func PeriodicPayment(principal, rate float64, termPeriods int) float64 {
	if principal <= 0 || termPeriods <= 0 {
		return 0
	}
	if rate == 0 {
		return principal / float64(termPeriods)
	}
	pow := math.Pow(1+rate, float64(termPeriods))
	return principal * rate * pow / (pow - 1)
}

// RemainingBalance returns the outstanding principal after paymentsMade
// constant payments. Past the end of the term the loan is paid off.
//
// FORMULA: B_k = M * (1 - (1+r)^-(n-k)) / r
func RemainingBalance(principal, rate float64, termPeriods, paymentsMade int) float64 {
	if principal <= 0 || termPeriods <= 0 {
		return 0
	}
	remaining := termPeriods - paymentsMade
	if remaining <= 0 {
		return 0
	}
	payment := PeriodicPayment(principal, rate, termPeriods)
	if rate == 0 {
		return payment * float64(remaining)
	}
	return payment * (1 - math.Pow(1+rate, -float64(remaining))) / rate
}

// ScheduleEntry is one row of an amortization table.
type ScheduleEntry struct {
	Period    int     `json:"period"`
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Balance   float64 `json:"balance"` // outstanding after the payment
}

// Schedule expands the full amortization table for a fixed-rate loan.
// The final balance is pinned to exactly zero so accumulated float error
// never leaves a residual cent on the last row.
func Schedule(principal, rate float64, termPeriods int) []ScheduleEntry {
	if principal <= 0 || termPeriods <= 0 {
		return nil
	}

	payment := PeriodicPayment(principal, rate, termPeriods)
	entries := make([]ScheduleEntry, 0, termPeriods)
	balance := principal

	for p := 1; p <= termPeriods; p++ {
		interest := balance * rate
		principalPaid := payment - interest
		balance -= principalPaid
		if p == termPeriods {
			balance = 0
		}
		entries = append(entries, ScheduleEntry{
			Period:    p,
			Payment:   payment,
			Interest:  interest,
			Principal: principalPaid,
			Balance:   balance,
		})
	}

	return entries
}
