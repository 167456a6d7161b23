package report

import "strings"

// Row is one formatted (label, value) line of a report section.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is the uniform presentation shape shared by every non-lab
// formatter. Row order is fixed by the formatter that produced it.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// LabTestView is one analyte row after formatting. Flagged mirrors the
// asterisk convention the lab uses for out-of-range results.
type LabTestView struct {
	Name           string `json:"name"`
	Result         string `json:"result"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"reference_range"`
	Remark         string `json:"remark"`
	Flagged        bool   `json:"is_contain_asterisk"`
}

// LabSectionView is one visible lab panel. Panels whose tests are all blank
// are suppressed entirely by the formatter.
type LabSectionView struct {
	Name  string        `json:"name"`
	Tests []LabTestView `json:"tests"`
}

// LabView is the formatted lab category.
type LabView struct {
	Header   map[string]string `json:"header"`
	Sections []LabSectionView  `json:"sections"`
}

// placeholderValues are raw values treated as "no data captured",
// case-insensitively.
var placeholderValues = map[string]bool{
	"": true, "null": true, "none": true, "n/a": true, "-": true,
}

const displayPlaceholder = "-"

// NormalizeValue collapses every placeholder spelling to the single display
// placeholder and trims surrounding whitespace otherwise.
func NormalizeValue(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if placeholderValues[strings.ToLower(trimmed)] {
		return displayPlaceholder
	}
	return trimmed
}

// IsPlaceholder reports whether a raw value normalizes to the display
// placeholder.
func IsPlaceholder(raw string) bool {
	return NormalizeValue(raw) == displayPlaceholder
}

// nl2br converts embedded newlines to HTML line breaks for free-text fields.
func nl2br(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// titleCase capitalizes the first letter of each space-separated word,
// lowercasing the rest. Used for labels reconstructed from snake_case source
// keys.
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
