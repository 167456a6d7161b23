package report

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/mcu/report/internal/domain/patient"
)

// reservedPrescreeningKeys are the fixed questionnaire categories, in report
// order. Source categories beyond this set are appended after them.
var reservedPrescreeningKeys = []string{
	"riwayat_penyakit_sendiri",
	"riwayat_penyakit_keluarga",
	"kebiasaan",
}

var prescreeningTitles = map[string]map[string]string{
	"id": {
		"riwayat_penyakit_sendiri":  "Riwayat Penyakit Sendiri",
		"riwayat_penyakit_keluarga": "Riwayat Penyakit Keluarga",
		"kebiasaan":                 "Kebiasaan",
	},
	"en": {
		"riwayat_penyakit_sendiri":  "Personal Medical History",
		"riwayat_penyakit_keluarga": "Family Medical History",
		"kebiasaan":                 "Habits",
	},
}

var romanNumerals = []string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
	"XI", "XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX"}

func roman(n int) string {
	if n >= 1 && n <= len(romanNumerals) {
		return romanNumerals[n-1]
	}
	return fmt.Sprintf("%d", n)
}

// letterPrefixRe matches an "a. " style item prefix.
var letterPrefixRe = regexp.MustCompile(`^[a-z]\.\s*`)

func prescreeningTitle(key, language string) string {
	table, ok := prescreeningTitles[language]
	if !ok {
		table = prescreeningTitles["id"]
	}
	if v, ok := table[key]; ok {
		return v
	}
	return titleCase(key)
}

// FormatPrescreening groups questionnaire answers into the fixed categories
// followed by any dynamic ones, numbering categories with Roman numerals and
// items with letter prefixes. Items within a category are sorted by raw key.
func FormatPrescreening(p patient.Prescreening, tr *Translator) []Section {
	var keys []string
	seen := map[string]bool{}
	for _, k := range reservedPrescreeningKeys {
		if _, ok := p[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var dynamic []string
	for k := range p {
		if !seen[k] {
			dynamic = append(dynamic, k)
		}
	}
	sort.Strings(dynamic)
	keys = append(keys, dynamic...)

	var out []Section
	for i, key := range keys {
		items := append([]patient.Pair(nil), p[key]...)
		sort.SliceStable(items, func(a, b int) bool { return items[a][0] < items[b][0] })

		sec := Section{
			Title: fmt.Sprintf("%s. %s", roman(i+1), prescreeningTitle(key, tr.Language())),
		}
		for j, item := range items {
			label := letterPrefixRe.ReplaceAllString(item[0], "")
			label = tr.PrescreeningLabel(label)
			label = fmt.Sprintf("%c. %s", 'a'+rune(j), label)

			value := NormalizeValue(item[1])
			if !isNotesLabel(label) {
				value = tr.Unit(tr.Answer(value))
			}
			sec.Rows = append(sec.Rows, Row{Label: label, Value: value})
		}
		out = append(out, sec)
	}
	return out
}
