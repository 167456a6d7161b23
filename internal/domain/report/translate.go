package report

import "strings"

// Translator maps Indonesian source labels, answers, and units to the report
// language. Source data is captured in Indonesian; "id" output is a
// passthrough. Lookups are static and side-effect free: a miss returns the
// input unchanged, which also makes translation idempotent.
type Translator struct {
	language string
}

func NewTranslator(language string) *Translator {
	return &Translator{language: language}
}

func (t *Translator) Language() string { return t.language }

func (t *Translator) english() bool { return t.language == "en" }

// mapping tables keyed by exact source label ----------------------------------

var identityLabels = map[string]map[string]string{
	"id": {
		"nik":                       "NIK",
		"name":                      "Nama",
		"birth_date":                "Tanggal Lahir",
		"checkout_examination_date": "Tanggal Pemeriksaan",
		"gender":                    "Jenis Kelamin",
		"group":                     "Kelompok",
	},
	"en": {
		"nik":                       "NIK",
		"name":                      "Name",
		"birth_date":                "Date of Birth",
		"checkout_examination_date": "Examination Date",
		"gender":                    "Gender",
		"group":                     "Group",
	},
}

var prescreeningLabels = map[string]string{
	"Riwayat Penyakit":     "Medical History",
	"Riwayat Operasi":      "Surgical History",
	"Kebiasaan":            "Habit",
	"Keluhan":              "Complaint",
	"Obat yang Dikonsumsi": "Current Medication",
	"Alergi":               "Allergy",
}

var physicalLabels = map[string]string{
	"Kulit":         "Skin",
	"Kepala":        "Head",
	"Mata":          "Eyes",
	"Telinga":       "Ears",
	"Hidung":        "Nose",
	"Tenggorokan":   "Throat",
	"Leher":         "Neck",
	"Dada":          "Chest",
	"Jantung":       "Heart",
	"Paru":          "Lungs",
	"Perut":         "Abdomen",
	"Anggota Gerak": "Extremities",
	"Keadaan Umum":  "General Condition",
	"Kesadaran":     "Consciousness",
	"Catatan":       "Notes",
}

var vitalLabels = map[string]string{
	"Tensi (mmHg)":      "Blood Pressure (mmHg)",
	"Nadi (X/menit)":    "Pulse (X/minute)",
	"Pernapasan":        "Respiration",
	"Suhu":              "Temperature",
	"Berat Badan (kg)":  "Weight (kg)",
	"Tinggi Badan (cm)": "Height (cm)",
	"Lingkar Perut":     "Waist Circumference",
	"Catatan":           "Notes",
}

var labLabels = map[string]string{
	"nama":                "Name",
	"no_rm":               "Medical Record No.",
	"tanggal_pemeriksaan": "Examination Date",
	"tanggal_terima":      "Received Date",
	"jenis_kelamin":       "Gender",
	"umur":                "Age",
}

var otherLabels = map[string]string{
	"Tanda Vital":       "Vital Signs",
	"Pemeriksaan Fisik": "Physical Examination",
	"Kesimpulan":        "Conclusion",
	"Saran":             "Advice",
	"Analisis":          "Analysis",
	"Dokter Pemeriksa":  "Examining Physician",
}

var answers = map[string]string{
	"Tidak Ada":          "None",
	"Tidak ada":          "None",
	"Ada":                "Present",
	"Normal":             "Normal",
	"Tidak Normal":       "Abnormal",
	"Ya":                 "Yes",
	"Tidak":              "No",
	"Sehat":              "Healthy",
	"Tidak ada data":     "No data",
	"Dalam Batas Normal": "Within Normal Limits",
}

// units is ordered so longer spellings are replaced before their substrings.
var units = [][2]string{
	{"kali/menit", "times/minute"},
	{"X/menit", "X/minute"},
	{"tahun", "years"},
	{"bulan", "months"},
}

// lookups ---------------------------------------------------------------------

// IdentityLabel resolves a fixed identity field key for the report language.
func (t *Translator) IdentityLabel(key string) string {
	table, ok := identityLabels[t.language]
	if !ok {
		table = identityLabels["id"]
	}
	if v, ok := table[key]; ok {
		return v
	}
	return key
}

func lookup(table map[string]string, raw string) string {
	if v, ok := table[raw]; ok {
		return v
	}
	return raw
}

func (t *Translator) PrescreeningLabel(raw string) string {
	if !t.english() {
		return raw
	}
	return lookup(prescreeningLabels, raw)
}

func (t *Translator) PhysicalLabel(raw string) string {
	if !t.english() {
		return raw
	}
	return lookup(physicalLabels, raw)
}

func (t *Translator) VitalLabel(raw string) string {
	if !t.english() {
		return raw
	}
	return lookup(vitalLabels, raw)
}

func (t *Translator) LabLabel(raw string) string {
	if !t.english() {
		return raw
	}
	return lookup(labLabels, raw)
}

func (t *Translator) OtherLabel(raw string) string {
	if !t.english() {
		return raw
	}
	return lookup(otherLabels, raw)
}

// Answer translates a captured answer value. Free-text notes are never passed
// through here; callers skip rows whose label marks them as notes.
func (t *Translator) Answer(raw string) string {
	if !t.english() {
		return raw
	}
	return lookup(answers, raw)
}

// Unit translates measurement units embedded in answer strings.
func (t *Translator) Unit(raw string) string {
	if !t.english() {
		return raw
	}
	out := raw
	for _, u := range units {
		out = strings.ReplaceAll(out, u[0], u[1])
	}
	return out
}

// isNotesLabel reports whether a translated label denotes a free-text notes
// row, which must not be answer-translated.
func isNotesLabel(label string) bool {
	return strings.Contains(label, "Notes") || strings.Contains(label, "Catatan")
}
