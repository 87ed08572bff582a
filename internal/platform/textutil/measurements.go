package textutil

import (
	"math"
	"strings"
)

// NormalizeMeasurements trims keys, drops blanks, and rounds values to one
// decimal place. Non-finite or non-positive values are removed.
func NormalizeMeasurements(values map[string]float64) map[string]float64 {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]float64, len(values))
	for key, value := range values {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			continue
		}
		result[trimmedKey] = math.Round(value*10) / 10
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
