package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testData() map[string]any {
	type row struct{ Label, Value string }
	type section struct {
		Title string
		Rows  []row
	}
	return map[string]any{
		"identity": map[string]any{
			"BasicInfo":    []row{{Label: "Nama", Value: "Budi Santoso"}},
			"ExtendedInfo": []row{{Label: "Golongan", Value: "Staff"}},
			"PhotoURL":     "https://storage.googleapis.com/bucket/photo.jpg",
			"Company":      "PT Sehat Sejahtera",
			"Institution":  "Kantor Pusat",
		},
		"prescreening": []section{
			{Title: "I. Riwayat Penyakit Sendiri", Rows: []row{{Label: "a. Hipertensi", Value: "Tidak Ada"}}},
		},
		"physical_exam": []section{
			{Title: "Keadaan Umum", Rows: []row{{Label: "Kesadaran", Value: "Compos Mentis"}}},
		},
		"vital_signs": []section{
			{Title: "Tanda Vital", Rows: []row{{Label: "Tensi", Value: "120/80"}}},
		},
		"conclusion": map[string]any{
			"Rows":     []row{{Label: "Tanda Vital", Value: "Dalam batas normal<br>Periksa ulang"}},
			"Advice":   "Olahraga teratur",
			"Analysis": "Fit to work",
		},
		"lab": map[string]any{
			"Header": map[string]string{"nama": "Budi Santoso"},
			"Sections": []map[string]any{
				{"Name": "Hematologi", "Tests": []map[string]any{
					{"Name": "Hemoglobin", "Result": "15*", "Unit": "g/dL", "ReferenceRange": "13-17", "Remark": "", "Flagged": true},
				}},
			},
		},
		"electromedical": map[string]any{
			"Studies": []map[string]any{
				{"Title": "Pemeriksaan Rontgen Thorax", "Subtitle": "", "Hasil": "Normal",
					"Findings": []row{}, "Kesimpulan": "-", "Saran": "-",
					"DoctorName": "dr. Specialist", "DoctorTitle": "Dokter Pemeriksa",
					"ImagePath": "", "ImageLandscape": false},
			},
			"Audiometry": nil,
		},
		"doctor": map[string]string{"Name": "dr. Specialist", "Title": "Dokter Pemeriksa"},
		"customization": map[string]string{
			"HeaderImageURL":                   "https://storage.googleapis.com/bumame-mcu-assets/report/header.png",
			"FooterImageURL":                   "",
			"PenanggungJawabHasil":             "dr. Penanggung Jawab",
			"PenanggungJawabHasilSignatureURL": "",
			"PerujukLab":                       "dr. Perujuk Lab",
			"PerujukLabSignatureURL":           "",
		},
	}
}

func TestNewParsesTemplates(t *testing.T) {
	r, err := New("../../../templates", "", t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.tpl.Lookup("report.html") == nil {
		t.Fatal("report.html not parsed")
	}
}

func TestNewMissingTemplates(t *testing.T) {
	if _, err := New(t.TempDir(), "", t.TempDir(), zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty template dir")
	}
}

func TestTemplateExecutes(t *testing.T) {
	r, err := New("../../../templates", "", t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, "report.html", testData()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"Budi Santoso",
		"PT Sehat Sejahtera",
		"Hemoglobin",
		"Pemeriksaan Rontgen Thorax",
		"dr. Penanggung Jawab",
		// raw values keep their line breaks intact
		"Dalam batas normal<br>Periksa ulang",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered html missing %q", want)
		}
	}
	if strings.Contains(html, "<no value>") {
		t.Error("rendered html contains unresolved placeholders")
	}
}
