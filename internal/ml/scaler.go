package ml

import "fmt"

// StandardScaler applies the (x - mean) / scale transform with parameters
// persisted at training time. Zero scale entries are treated as 1 so constant
// features pass through unchanged instead of dividing by zero.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("scaler has no parameters")
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler mean/scale length mismatch: %d vs %d", len(s.Mean), len(s.Scale))
	}
	return nil
}

// Dimensions returns the feature count the scaler was fit on.
func (s *StandardScaler) Dimensions() int {
	return len(s.Mean)
}

// Transform scales v in a new slice; v is not modified.
func (s *StandardScaler) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(v))
	}

	out := make([]float64, len(v))
	for i, x := range v {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}
