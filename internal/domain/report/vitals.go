package report

import (
	"regexp"
	"strings"

	"github.com/mcu/report/internal/domain/patient"
)

// vitalBuckets fixes the output order of vital sign categories.
var vitalBuckets = []bucketDef{
	{
		nameID:   "Tanda Vital",
		nameEN:   "Vital Signs",
		keywords: []string{"tensi", "tekanan darah", "nadi", "pernapasan", "respirasi", "suhu", "temperature"},
	},
	{
		nameID:   "Antropometri",
		nameEN:   "Anthropometry",
		keywords: []string{"berat", "tinggi", "bmi", "lingkar", "weight", "height"},
	},
	{
		nameID:   "Visus",
		nameEN:   "Visual Acuity",
		keywords: []string{"visus", "buta warna", "vision", "color blind"},
	},
}

var (
	trailingTempUnitRe = regexp.MustCompile(`(?i)\s*(celsius|fahrenheit|c|f)\s*$`)
	temperatureLabelRe = regexp.MustCompile(`(?i)suhu|temperature`)
	bmiLabelRe         = regexp.MustCompile(`(?i)bmi`)
	weightKeyRe        = regexp.MustCompile(`(?i)berat|weight`)
	heightKeyRe        = regexp.MustCompile(`(?i)tinggi|height`)
)

// normalizeTemperature rewrites a bare trailing unit letter or spelled-out
// unit into the degree form: "36.5 c" and "36.5 celsius" both become
// "36.5 °C". Values without a recognizable trailing unit pass through.
func normalizeTemperature(value string) string {
	if value == displayPlaceholder {
		return value
	}
	loc := trailingTempUnitRe.FindStringSubmatchIndex(value)
	if loc == nil {
		return value
	}
	unit := strings.ToLower(value[loc[2]:loc[3]])
	var symbol string
	switch unit {
	case "c", "celsius":
		symbol = "°C"
	case "f", "fahrenheit":
		symbol = "°F"
	default:
		return value
	}
	return strings.TrimSpace(value[:loc[0]]) + " " + symbol
}

// findMeasure returns the raw value of the first vital row whose key matches
// the pattern.
func findMeasure(rows []patient.Pair, re *regexp.Regexp) string {
	for _, pair := range rows {
		if re.MatchString(pair[0]) {
			return pair[1]
		}
	}
	return ""
}

// FormatVitalSigns buckets vital rows like the physical exam formatter, then
// applies two extra rules: a blank BMI row is recomputed from the weight and
// height captured in the same record, and temperature values get their unit
// normalized to the degree form. BMI substitution only fires when the
// captured value is blank; a present value is trusted as-is.
func FormatVitalSigns(rows []patient.Pair, tr *Translator) []Section {
	transform := func(label, value string) string {
		if value == displayPlaceholder && bmiLabelRe.MatchString(label) {
			res := CalculateBMI(findMeasure(rows, weightKeyRe), findMeasure(rows, heightKeyRe))
			if res.BMI != nil && *res.BMI > 0 {
				return res.Formatted()
			}
			return value
		}
		value = tr.Unit(tr.Answer(value))
		if temperatureLabelRe.MatchString(label) {
			value = normalizeTemperature(value)
		}
		return value
	}

	return formatBuckets(rows, vitalBuckets, otherBucketID, otherBucketEN, tr,
		tr.VitalLabel, transform)
}
