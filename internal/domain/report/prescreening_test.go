package report

import (
	"testing"

	"github.com/mcu/report/internal/domain/patient"
)

func TestFormatPrescreeningOrdering(t *testing.T) {
	p := patient.Prescreening{
		"kebiasaan": {
			{"b. Merokok", "Ya"},
			{"a. Olahraga", "Jarang"},
		},
		"riwayat_penyakit_sendiri": {
			{"a. Riwayat Penyakit", "Tidak Ada"},
		},
		"pertanyaan_tambahan": {
			{"Vaksinasi", "Lengkap"},
		},
	}

	out := FormatPrescreening(p, NewTranslator("id"))
	if len(out) != 3 {
		t.Fatalf("sections = %d, want 3", len(out))
	}

	// Reserved categories first, in table order, then dynamic ones; Roman
	// numbering is sequential with no gaps.
	if out[0].Title != "I. Riwayat Penyakit Sendiri" {
		t.Errorf("section 0 = %q", out[0].Title)
	}
	if out[1].Title != "II. Kebiasaan" {
		t.Errorf("section 1 = %q", out[1].Title)
	}
	if out[2].Title != "III. Pertanyaan Tambahan" {
		t.Errorf("section 2 = %q", out[2].Title)
	}

	// Items sort by raw key; letter prefixes are reassigned sequentially.
	kebiasaan := out[1].Rows
	if kebiasaan[0].Label != "a. Olahraga" || kebiasaan[1].Label != "b. Merokok" {
		t.Errorf("rows = %+v", kebiasaan)
	}

	// A label without a letter prefix gets one.
	if out[2].Rows[0].Label != "a. Vaksinasi" {
		t.Errorf("dynamic row = %+v", out[2].Rows[0])
	}
}

func TestFormatPrescreeningNormalizesValues(t *testing.T) {
	p := patient.Prescreening{
		"kebiasaan": {
			{"a. Merokok", "null"},
			{"b. Alkohol", ""},
		},
	}
	out := FormatPrescreening(p, NewTranslator("id"))
	for _, row := range out[0].Rows {
		if row.Value != "-" {
			t.Errorf("row %q = %q, want -", row.Label, row.Value)
		}
	}
}

func TestFormatPrescreeningTranslation(t *testing.T) {
	p := patient.Prescreening{
		"riwayat_penyakit_sendiri": {
			{"a. Riwayat Penyakit", "Tidak Ada"},
		},
	}
	out := FormatPrescreening(p, NewTranslator("en"))
	if out[0].Title != "I. Personal Medical History" {
		t.Errorf("title = %q", out[0].Title)
	}
	row := out[0].Rows[0]
	if row.Label != "a. Medical History" {
		t.Errorf("label = %q", row.Label)
	}
	if row.Value != "None" {
		t.Errorf("value = %q", row.Value)
	}
}

func TestFormatPrescreeningTranslationIdempotent(t *testing.T) {
	tr := NewTranslator("en")
	once := tr.PrescreeningLabel("Riwayat Penyakit")
	twice := tr.PrescreeningLabel(once)
	if once != "Medical History" || twice != once {
		t.Errorf("once = %q, twice = %q", once, twice)
	}
}

func TestFormatPrescreeningEmpty(t *testing.T) {
	if out := FormatPrescreening(nil, NewTranslator("id")); len(out) != 0 {
		t.Errorf("got %d sections from empty input", len(out))
	}
}
