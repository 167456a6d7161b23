package report

import (
	"strings"
	"time"

	"github.com/mcu/report/internal/domain/patient"
)

const (
	labSourceDateFormat  = "2006-01-02 15:04:05"
	labDisplayDateFormat = "02-01-2006 15:04"
)

// labDateHeaderKeys are the two header fields holding timestamps in the lab
// system's storage format.
var labDateHeaderKeys = []string{"tanggal_pemeriksaan", "tanggal_terima"}

// reformatLabDate converts a lab timestamp to the display format, passing
// unparseable values through unchanged.
func reformatLabDate(raw string) string {
	t, err := time.Parse(labSourceDateFormat, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.Format(labDisplayDateFormat)
}

// FormatLabPanel reformats the header dates, suppresses panels whose tests
// are all blank, drops blank tests inside shown panels, and flags any result
// containing an asterisk as out of range.
func FormatLabPanel(lab patient.LabExam, tr *Translator) LabView {
	view := LabView{Header: make(map[string]string, len(lab.Header))}
	for k, v := range lab.Header {
		view.Header[k] = v
	}
	for _, key := range labDateHeaderKeys {
		if v, ok := view.Header[key]; ok {
			view.Header[key] = reformatLabDate(v)
		}
	}

	for _, sec := range lab.Sections {
		var tests []LabTestView
		for _, t := range sec.Tests {
			if IsPlaceholder(t.Result) {
				continue
			}
			tests = append(tests, LabTestView{
				Name:           tr.LabLabel(t.Name),
				Result:         tr.Unit(t.Result),
				Unit:           tr.Unit(t.Unit),
				ReferenceRange: t.ReferenceRange,
				Remark:         NormalizeValue(t.Remark),
				Flagged:        strings.Contains(t.Result, "*"),
			})
		}
		if len(tests) == 0 {
			continue
		}
		view.Sections = append(view.Sections, LabSectionView{Name: sec.Name, Tests: tests})
	}
	return view
}
