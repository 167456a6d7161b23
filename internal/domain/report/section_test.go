package report

import "testing"

func TestNormalizeValuePlaceholders(t *testing.T) {
	cases := []string{"", "null", "NULL", "None", "none", "N/A", "n/a", "-", "  ", " null "}
	for _, raw := range cases {
		if got := NormalizeValue(raw); got != "-" {
			t.Errorf("NormalizeValue(%q) = %q, want -", raw, got)
		}
	}
}

func TestNormalizeValueKeepsData(t *testing.T) {
	cases := map[string]string{
		"Normal":     "Normal",
		"  120/80  ": "120/80",
		"n/a extra":  "n/a extra",
		"0":          "0",
	}
	for raw, want := range cases {
		if got := NormalizeValue(raw); got != want {
			t.Errorf("NormalizeValue(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"lapangan_paru": "Lapangan Paru",
		"hasil EKG":     "Hasil Ekg",
		"sudah benar":   "Sudah Benar",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNl2br(t *testing.T) {
	if got := nl2br("a\r\nb\nc"); got != "a<br>b<br>c" {
		t.Errorf("nl2br = %q", got)
	}
}
