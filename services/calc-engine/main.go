package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"property_feasibility/pkg/core/assumption"
	"property_feasibility/pkg/core/projection"
	"property_feasibility/pkg/core/valuation"
)

// Minimal machine-facing surface: a collaborator hands assumptions in as
// a JSON payload and reads the metrics back from stdout.

func main() {
	mode := flag.String("mode", "evaluate", "Mode: check or evaluate")
	dataStr := flag.String("data", "", "JSON-encoded investment assumptions")
	flag.Parse()

	if *dataStr == "" {
		fmt.Println("Error: No data provided")
		os.Exit(1)
	}

	var a assumption.InvestmentAssumptions
	if err := json.Unmarshal([]byte(*dataStr), &a); err != nil {
		fmt.Printf("Error unmarshaling data: %v\n", err)
		os.Exit(1)
	}

	switch *mode {
	case "check":
		runCheck(a)
	case "evaluate":
		runEvaluate(a)
	default:
		fmt.Printf("Unknown mode: %s\n", *mode)
		os.Exit(1)
	}
}

func runCheck(a assumption.InvestmentAssumptions) {
	if err := a.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Success: assumptions are valid")
}

func runEvaluate(a assumption.InvestmentAssumptions) {
	periods, err := projection.Project(a)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	metrics, err := valuation.Evaluate(periods, valuation.EvalInput{
		DiscountRate:  a.DiscountRate,
		PurchasePrice: a.PurchasePrice,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.Marshal(metrics)
	if err != nil {
		fmt.Printf("Error marshaling metrics: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
