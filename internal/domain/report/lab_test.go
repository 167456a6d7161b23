package report

import (
	"testing"

	"github.com/mcu/report/internal/domain/patient"
)

func TestFormatLabPanelSectionSuppression(t *testing.T) {
	lab := patient.LabExam{
		Header: patient.LabHeader{"nama": "Budi"},
		Sections: []patient.LabSection{
			{
				Name: "HEMATOLOGI",
				Tests: []patient.LabTest{
					{Name: "Hb", Result: "14.2", Unit: "g/dL"},
					{Name: "Leukosit", Result: ""},
				},
			},
			{
				Name: "URINALISIS",
				Tests: []patient.LabTest{
					{Name: "Warna", Result: "-"},
					{Name: "pH", Result: "null"},
				},
			},
		},
	}

	out := FormatLabPanel(lab, NewTranslator("id"))
	if len(out.Sections) != 1 {
		t.Fatalf("sections = %+v, want only HEMATOLOGI", out.Sections)
	}
	sec := out.Sections[0]
	if sec.Name != "HEMATOLOGI" {
		t.Errorf("name = %q", sec.Name)
	}
	// Blank tests inside a shown section are dropped.
	if len(sec.Tests) != 1 || sec.Tests[0].Name != "Hb" {
		t.Errorf("tests = %+v", sec.Tests)
	}
}

func TestFormatLabPanelAsteriskFlag(t *testing.T) {
	lab := patient.LabExam{
		Sections: []patient.LabSection{
			{
				Name: "HEMATOLOGI",
				Tests: []patient.LabTest{
					{Name: "Hb", Result: "10.1 *"},
					{Name: "Ht", Result: "42"},
				},
			},
		},
	}
	out := FormatLabPanel(lab, NewTranslator("id"))
	tests := out.Sections[0].Tests
	if !tests[0].Flagged {
		t.Error("asterisk result should be flagged")
	}
	if tests[1].Flagged {
		t.Error("plain result should not be flagged")
	}
}

func TestFormatLabPanelHeaderDates(t *testing.T) {
	lab := patient.LabExam{
		Header: patient.LabHeader{
			"tanggal_pemeriksaan": "2026-03-10 08:15:00",
			"tanggal_terima":      "not a date",
			"nama":                "Budi",
		},
	}
	out := FormatLabPanel(lab, NewTranslator("id"))
	if got := out.Header["tanggal_pemeriksaan"]; got != "10-03-2026 08:15" {
		t.Errorf("tanggal_pemeriksaan = %q", got)
	}
	// Unparseable values pass through unchanged.
	if got := out.Header["tanggal_terima"]; got != "not a date" {
		t.Errorf("tanggal_terima = %q", got)
	}
	if got := out.Header["nama"]; got != "Budi" {
		t.Errorf("nama = %q", got)
	}
}

func TestFormatLabPanelEmpty(t *testing.T) {
	out := FormatLabPanel(patient.DefaultLabExam(), NewTranslator("id"))
	if len(out.Sections) != 0 {
		t.Errorf("sections = %+v", out.Sections)
	}
	if out.Header["no_rm"] != "-" {
		t.Errorf("header = %+v", out.Header)
	}
}
