package report

import "github.com/mcu/report/internal/domain/patient"

// ConclusionView is the formatted conclusion block plus the free-text advice
// and analysis fields.
type ConclusionView struct {
	Rows     []Row  `json:"rows"`
	Advice   string `json:"advice"`
	Analysis string `json:"analysis"`
}

// FormatConclusions translates conclusion labels, converts embedded newlines
// to line breaks, and applies the fitness-for-work analysis override from
// the appointment customization.
func FormatConclusions(rec *patient.Record, tr *Translator, cust *Customization) ConclusionView {
	view := ConclusionView{}
	for _, pair := range rec.Conclusions {
		view.Rows = append(view.Rows, Row{
			Label: tr.OtherLabel(pair[0]),
			Value: nl2br(NormalizeValue(pair[1])),
		})
	}
	view.Advice = nl2br(NormalizeValue(rec.Advice))
	view.Analysis = cust.OverrideAnalysis(nl2br(NormalizeValue(rec.Analysis)))
	return view
}
