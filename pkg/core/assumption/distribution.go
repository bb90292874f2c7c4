package assumption

// =============================================================================
// MONTE CARLO DISTRIBUTIONS
// =============================================================================

// DistributionKind selects the sampling distribution for one variable.
type DistributionKind string

const (
	DistNormal     DistributionKind = "normal"
	DistUniform    DistributionKind = "uniform"
	DistTriangular DistributionKind = "triangular"
)

// DistributionSpec describes the uncertainty of one variable. Normal reads
// Mean/StdDev, uniform reads Min/Max, triangular reads Min/Mode/Max; the
// unused parameters are ignored.
type DistributionSpec struct {
	Kind   DistributionKind `json:"kind"`
	Mean   float64          `json:"mean,omitempty"`
	StdDev float64          `json:"std_dev,omitempty"`
	Min    float64          `json:"min,omitempty"`
	Max    float64          `json:"max,omitempty"`
	Mode   float64          `json:"mode,omitempty"`
}

// Validate checks the parameters against the declared kind. The variable
// name is only used to label the error.
func (d DistributionSpec) Validate(v Variable) error {
	field := string(v) + " distribution"
	switch d.Kind {
	case DistNormal:
		if d.StdDev <= 0 {
			return &ValidationError{Field: field, Reason: "normal requires std_dev > 0"}
		}
	case DistUniform:
		if d.Min >= d.Max {
			return &ValidationError{Field: field, Reason: "uniform requires min < max"}
		}
	case DistTriangular:
		if d.Min >= d.Max {
			return &ValidationError{Field: field, Reason: "triangular requires min < max"}
		}
		if d.Mode < d.Min || d.Mode > d.Max {
			return &ValidationError{Field: field, Reason: "triangular requires min <= mode <= max"}
		}
	default:
		return &ValidationError{Field: field, Reason: "unknown distribution kind '" + string(d.Kind) + "'"}
	}
	return nil
}
