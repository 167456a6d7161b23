package report

import (
	"context"

	"github.com/mcu/report/internal/domain/patient"
	"github.com/mcu/report/internal/platform/assets"
)

// AssetResolver materializes a remote image reference as a local file. The
// platform resolver satisfies this.
type AssetResolver interface {
	Resolve(ctx context.Context, ref string) (*assets.Asset, error)
}

// StudyView is one formatted electromedical study.
type StudyView struct {
	Type           patient.StudyType `json:"type"`
	Title          string            `json:"title"`
	Subtitle       string            `json:"subtitle"`
	Hasil          string            `json:"hasil"`
	Findings       []Row             `json:"findings"`
	Kesimpulan     string            `json:"kesimpulan"`
	Saran          string            `json:"saran"`
	DoctorName     string            `json:"doctor_name"`
	DoctorTitle    string            `json:"doctor_title"`
	ImagePath      string            `json:"image_path"`
	ImageLandscape bool              `json:"image_landscape"`
}

// AudiometryView is the ear/channel diagnosis table special case.
type AudiometryView struct {
	Rows           []Row  `json:"rows"`
	ImagePath      string `json:"image_path"`
	ImageLandscape bool   `json:"image_landscape"`
}

// ElectromedicalView holds all studies in report order.
type ElectromedicalView struct {
	Studies    []StudyView     `json:"studies"`
	Audiometry *AudiometryView `json:"audiometry"`
}

// resolveStudyImage materializes the study image locally, registering every
// temp file for end-of-run cleanup. A placeholder reference yields no image.
func resolveStudyImage(ctx context.Context, resolver AssetResolver, url string, st *State) (string, bool, error) {
	if resolver == nil || IsPlaceholder(url) {
		return "", false, nil
	}
	asset, err := resolver.Resolve(ctx, url)
	if err != nil {
		return "", false, err
	}
	st.AddTemp(asset.Temp...)
	return asset.Path, asset.Width > assets.MaxImageHeight, nil
}

// FormatElectromedical formats every study type, falling back to the
// documented "no data" record for studies that were not captured. Image
// resolution failures abort the run.
func FormatElectromedical(ctx context.Context, em *patient.Electromedical, tr *Translator,
	resolver AssetResolver, st *State) (ElectromedicalView, error) {

	view := ElectromedicalView{}

	for _, t := range patient.GenericStudyTypes {
		var s *patient.Study
		if em != nil {
			s = em.Studies[t]
		}
		if s == nil {
			s = patient.DefaultStudy(t)
		}

		sv := StudyView{
			Type:        t,
			Title:       s.Title,
			Subtitle:    s.Subtitle,
			Hasil:       nl2br(tr.Answer(NormalizeValue(s.Hasil))),
			Kesimpulan:  nl2br(tr.Answer(NormalizeValue(s.Kesimpulan))),
			Saran:       nl2br(tr.Answer(NormalizeValue(s.Saran))),
			DoctorName:  NormalizeValue(s.Dokter.Name),
			DoctorTitle: tr.OtherLabel(NormalizeValue(s.Dokter.Title)),
		}
		for _, f := range s.Findings {
			sv.Findings = append(sv.Findings, Row{
				Label: titleCase(f[0]),
				Value: tr.Answer(NormalizeValue(f[1])),
			})
		}

		path, landscape, err := resolveStudyImage(ctx, resolver, s.URL, st)
		if err != nil {
			return view, err
		}
		sv.ImagePath = path
		sv.ImageLandscape = landscape

		view.Studies = append(view.Studies, sv)
	}

	var aud *patient.Audiometry
	if em != nil {
		aud = em.Audiometry
	}
	if aud == nil {
		aud = patient.DefaultAudiometry()
	}
	av := &AudiometryView{}
	for _, d := range aud.Diagnosis {
		av.Rows = append(av.Rows, Row{
			Label: tr.Answer(NormalizeValue(d[0])),
			Value: tr.Answer(NormalizeValue(d[1])),
		})
	}
	path, landscape, err := resolveStudyImage(ctx, resolver, aud.URL, st)
	if err != nil {
		return view, err
	}
	av.ImagePath = path
	av.ImageLandscape = landscape
	view.Audiometry = av

	return view, nil
}
