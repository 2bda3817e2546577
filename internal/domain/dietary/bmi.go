package dietary

import "math"

// BMI categories as stored in the graph
const (
	BMIUnderweight = "underweight"
	BMINormal      = "normal"
	BMIOverweight  = "overweight"
	BMIObese       = "obese"
)

// adultAge is the age from which adult thresholds apply
const adultAge = 20

// BMIResult is the computed body mass index of a user
type BMIResult struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`

	// Estimate is set when the coarse under-20 bands were used
	Estimate bool `json:"estimate,omitempty"`
}

// CalculateBMI computes weight_kg / height_m^2 rounded to two decimals and
// its category. It returns false when the biometrics are missing.
//
// Adult bands are closed as [18.5,25) normal, [25,30) overweight.
func CalculateBMI(profile UserProfile) (BMIResult, bool) {
	if profile.WeightKg <= 0 || profile.HeightCm <= 0 {
		return BMIResult{}, false
	}

	heightM := profile.HeightCm / 100
	value := math.Round(profile.WeightKg/(heightM*heightM)*100) / 100

	if profile.Age > 0 && profile.Age < adultAge {
		return BMIResult{Value: value, Category: pediatricCategory(value), Estimate: true}, true
	}
	return BMIResult{Value: value, Category: adultCategory(value)}, true
}

func pediatricCategory(value float64) string {
	switch {
	case value < 14:
		return BMIUnderweight
	case value < 20:
		return BMINormal
	case value < 22:
		return BMIOverweight
	default:
		return BMIObese
	}
}

func adultCategory(value float64) string {
	switch {
	case value < 18.5:
		return BMIUnderweight
	case value < 25:
		return BMINormal
	case value < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}
