package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BMIResult carries the computed index and its category, or an error marker
// when the inputs were unusable. Both-blank inputs yield a zero result with
// no error, matching how empty vitals are captured.
type BMIResult struct {
	BMI      *float64
	Category string
	Err      string
}

// Formatted returns the "<value>, <category>" display string substituted
// into a blank BMI vital row.
func (r BMIResult) Formatted() string {
	if r.BMI == nil {
		return displayPlaceholder
	}
	return fmt.Sprintf("%.1f, %s", *r.BMI, r.Category)
}

func cleanMeasure(s, unit string) string {
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " "+unit, "")
	return strings.TrimSpace(s)
}

// CalculateBMI computes body mass index from captured weight ("70 kg") and
// height ("175 cm") strings, tolerating decimal commas and unit suffixes.
func CalculateBMI(weightStr, heightStr string) BMIResult {
	weightClean := cleanMeasure(weightStr, "kg")
	heightClean := cleanMeasure(heightStr, "cm")

	if weightClean == "" || heightClean == "" {
		zero := 0.0
		return BMIResult{BMI: &zero, Category: ""}
	}

	weight, err := strconv.ParseFloat(weightClean, 64)
	if err != nil {
		return BMIResult{Err: "weight is not a number"}
	}
	height, err := strconv.ParseFloat(heightClean, 64)
	if err != nil {
		return BMIResult{Err: "height is not a number"}
	}

	if weight <= 0 || height <= 0 {
		return BMIResult{Err: "weight or height must be positive numbers"}
	}

	meters := height / 100
	bmi := math.Round(weight/(meters*meters)*10) / 10

	var category string
	switch {
	case bmi < 18.5:
		category = "Underweight"
	case bmi < 23.0:
		category = "Normal"
	case bmi <= 24.9:
		category = "Overweight"
	case bmi <= 29.9:
		category = "Obesitas Kelas 1"
	default:
		category = "Obesitas Kelas 2"
	}

	return BMIResult{BMI: &bmi, Category: category}
}
