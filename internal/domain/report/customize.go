package report

import (
	"strings"

	"github.com/mcu/report/internal/domain/patient"
	"github.com/mcu/report/internal/platform/storage"
)

// Customization is the per-run report branding and signatory data: built-in
// defaults merged with the appointment's override rows. Read once at run
// start, never persisted back.
type Customization struct {
	HeaderImageURL string
	FooterImageURL string

	PenanggungJawabHasil             string
	PenanggungJawabHasilSignatureURL string
	DokterInternal                   string
	DokterInternalSignatureURL       string
	PerujukLab                       string
	PerujukLabSignatureURL           string

	TermsAnalisisFit            string
	TermsAnalisisFitWithNote    string
	TermsAnalisisUnfitTemporary string
}

// DefaultCustomization returns the built-in branding and signatory fallbacks.
func DefaultCustomization() Customization {
	return Customization{
		HeaderImageURL: "gs://bumame-mcu-assets/report/header_default.png",
		FooterImageURL: "gs://bumame-mcu-assets/report/footer_default.png",

		PenanggungJawabHasil:             "dr. Penanggung Jawab",
		PenanggungJawabHasilSignatureURL: "gs://bumame-mcu-assets/report/signature_blank.png",
		DokterInternal:                   "dr. Specialist",
		DokterInternalSignatureURL:       "gs://bumame-mcu-assets/report/signature_blank.png",
		PerujukLab:                       "dr. Perujuk Lab",
		PerujukLabSignatureURL:           "gs://bumame-mcu-assets/report/signature_blank.png",
	}
}

// Apply merges override rows over the current values. Unknown keys are
// ignored; blank override values leave the default in place.
func (c *Customization) Apply(kvs []patient.KV) {
	for _, kv := range kvs {
		if kv.Value == "" {
			continue
		}
		switch kv.Key {
		case "header_image_url":
			c.HeaderImageURL = kv.Value
		case "footer_image_url":
			c.FooterImageURL = kv.Value
		case "penanggung_jawab_hasil":
			c.PenanggungJawabHasil = kv.Value
		case "penanggung_jawab_hasil_signature_url":
			c.PenanggungJawabHasilSignatureURL = kv.Value
		case "dokter_internal":
			c.DokterInternal = kv.Value
		case "dokter_internal_signature_url":
			c.DokterInternalSignatureURL = kv.Value
		case "perujuk_lab":
			c.PerujukLab = kv.Value
		case "perujuk_lab_signature_url":
			c.PerujukLabSignatureURL = kv.Value
		case "terms_analisis_fit":
			c.TermsAnalisisFit = kv.Value
		case "terms_analisis_fit_with_note":
			c.TermsAnalisisFitWithNote = kv.Value
		case "terms_analisis_unfit_temporary":
			c.TermsAnalisisUnfitTemporary = kv.Value
		}
	}
}

// NormalizeImageURLs rewrites gs:// image references to their public https
// form so the browser renderer can fetch them.
func (c *Customization) NormalizeImageURLs() {
	for _, ref := range []*string{
		&c.HeaderImageURL,
		&c.FooterImageURL,
		&c.PenanggungJawabHasilSignatureURL,
		&c.DokterInternalSignatureURL,
		&c.PerujukLabSignatureURL,
	} {
		*ref = storage.NormalizeURL(*ref)
	}
}

// analysisMarkers pairs each fitness-for-work marker substring with its
// override, checked in this exact order. "Fit" is a substring of the later
// markers, so it always matches first when any of them would; that matching
// order is long-standing behavior the reports depend on and is pinned by
// tests.
func (c *Customization) analysisMarkers() [][2]string {
	return [][2]string{
		{"Fit", c.TermsAnalisisFit},
		{"Fit to work", c.TermsAnalisisFit},
		{"Fit with note", c.TermsAnalisisFitWithNote},
		{"Unfit temporary", c.TermsAnalisisUnfitTemporary},
	}
}

// OverrideAnalysis replaces the analysis text with the configured override
// for the first marker substring it contains. Without a matching marker or a
// configured override the text passes through unchanged.
func (c *Customization) OverrideAnalysis(analysis string) string {
	for _, m := range c.analysisMarkers() {
		marker, override := m[0], m[1]
		if override == "" {
			continue
		}
		if strings.Contains(analysis, marker) {
			return override
		}
	}
	return analysis
}
