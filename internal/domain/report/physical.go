package report

import (
	"strings"

	"github.com/mcu/report/internal/domain/patient"
)

// bucketDef routes raw examination keys into a report category by
// case-insensitive substring match. The first bucket whose keyword list
// matches wins. stripPrefix, when set, is removed from the start of matched
// sub-labels before relabeling.
type bucketDef struct {
	nameID      string
	nameEN      string
	keywords    []string
	stripPrefix string
}

func (b bucketDef) title(language string) string {
	if language == "en" {
		return b.nameEN
	}
	return b.nameID
}

func (b bucketDef) matches(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range b.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// physicalBuckets fixes the output order of physical examination categories.
// A key matching several buckets lands in the first one.
var physicalBuckets = []bucketDef{
	{
		nameID:   "Keadaan Umum",
		nameEN:   "General Condition",
		keywords: []string{"keadaan umum", "kesadaran", "general"},
	},
	{
		nameID:   "Kepala dan Leher",
		nameEN:   "Head and Neck",
		keywords: []string{"kepala", "mata", "telinga", "hidung", "tenggorokan", "leher", "gigi", "mulut"},
	},
	{
		nameID:   "Dada dan Jantung",
		nameEN:   "Chest and Heart",
		keywords: []string{"dada", "jantung", "paru", "thorax"},
	},
	{
		nameID:   "Abdomen",
		nameEN:   "Abdomen",
		keywords: []string{"perut", "abdomen", "hati", "limpa"},
	},
	{
		nameID:   "Anggota Gerak",
		nameEN:   "Extremities",
		keywords: []string{"anggota gerak", "ekstremitas", "refleks", "kulit", "kuku"},
	},
	{
		nameID:      "Carpal Tunnel Syndrome",
		nameEN:      "Carpal Tunnel Syndrome",
		keywords:    []string{"carpal tunnel"},
		stripPrefix: "carpal tunnel syndrome",
	},
	{
		nameID:      "Low Back Pain",
		nameEN:      "Low Back Pain",
		keywords:    []string{"low back pain"},
		stripPrefix: "low back pain",
	},
	{
		nameID:      "Tes Romberg",
		nameEN:      "Romberg Test",
		keywords:    []string{"romberg"},
		stripPrefix: "romberg",
	},
	{
		nameID:      "Tes Penciuman",
		nameEN:      "Smell Test",
		keywords:    []string{"penciuman", "smell"},
		stripPrefix: "tes penciuman",
	},
}

const otherBucketID = "Lain-lain"
const otherBucketEN = "Other"

// subLabel strips the bucket's prefix phrase from a matched key and
// title-cases the remainder. Keys that already carry casing (measurement
// labels like "Tensi (mmHg)" or "BMI") are left alone.
func subLabel(b *bucketDef, rawKey string) string {
	label := rawKey
	if b != nil && b.stripPrefix != "" {
		lower := strings.ToLower(label)
		if strings.HasPrefix(lower, b.stripPrefix) {
			trimmed := strings.TrimLeft(label[len(b.stripPrefix):], " -:")
			if trimmed != "" {
				label = trimmed
			}
		}
	}
	if strings.Contains(label, "_") || label == strings.ToLower(label) {
		return titleCase(label)
	}
	return label
}

func formatBuckets(rows []patient.Pair, buckets []bucketDef, otherID, otherEN string,
	tr *Translator, translateLabel func(string) string, transformValue func(label, value string) string) []Section {

	matched := make([][]Row, len(buckets))
	var other []Row

	for _, pair := range rows {
		rawKey, rawValue := pair[0], pair[1]

		var def *bucketDef
		idx := -1
		for i := range buckets {
			if buckets[i].matches(rawKey) {
				def = &buckets[i]
				idx = i
				break
			}
		}

		label := translateLabel(subLabel(def, rawKey))
		value := NormalizeValue(rawValue)
		if !isNotesLabel(label) {
			value = transformValue(label, value)
		}
		row := Row{Label: label, Value: value}

		if idx >= 0 {
			matched[idx] = append(matched[idx], row)
		} else {
			other = append(other, row)
		}
	}

	var out []Section
	for i, b := range buckets {
		if len(matched[i]) == 0 {
			continue
		}
		out = append(out, Section{Title: b.title(tr.Language()), Rows: matched[i]})
	}
	if len(other) > 0 {
		title := otherID
		if tr.Language() == "en" {
			title = otherEN
		}
		out = append(out, Section{Title: title, Rows: other})
	}
	return out
}

// FormatPhysicalExam buckets raw findings into the fixed anatomical
// categories. Empty buckets are omitted; an empty input produces no sections
// at all, which is not an error.
func FormatPhysicalExam(rows []patient.Pair, tr *Translator) []Section {
	return formatBuckets(rows, physicalBuckets, otherBucketID, otherBucketEN, tr,
		tr.PhysicalLabel,
		func(_, value string) string { return tr.Answer(value) })
}
