package patient

import (
	"encoding/json"
	"sort"
	"time"
)

// AnalysisRow maps to the appointment patient analysis table. The clinical
// category columns are raw JSON blobs captured by the examination apps; any
// of them may be empty, NULL, or malformed.
type AnalysisRow struct {
	ID                   string
	AppointmentID        string
	AppointmentPatientID string
	ExaminationStatus    *string
	DoctorExaminerName   *string
	PrescreeningJSON     *string
	PhysicalExamJSON     *string
	VitalSignJSON        *string
	LabJSON              *string
	ElectromedicalJSON   *string
	ConclusionJSON       *string
	Advice               *string
	Analysis             *string
	SpecimenTakenAt      *time.Time
	ResultIssuedAt       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PatientRow maps to the appointment patient table.
type PatientRow struct {
	ID            string
	AppointmentID string
	Name          string
	NIK           *string
	BirthDate     *time.Time
	Gender        *string
	Group         *string
	PhotoProofURL *string
	CheckInAt     *time.Time
}

// Summary is the slice of patient data the generate endpoints need.
type Summary struct {
	PatientID   string
	Name        string
	CompanyName string
}

// ReportRow is one row of the report listing endpoint.
type ReportRow struct {
	AppointmentPatientID string     `json:"appointment_patient_id"`
	Name                 string     `json:"name"`
	ExaminationStatus    string     `json:"examination_status"`
	ReportURL            string     `json:"report_url"`
	ResultIssuedAt       *time.Time `json:"result_issued_at,omitempty"`
}

// KV is one customization override row for an appointment.
type KV struct {
	Key   string
	Value string
}

// ---------------------------------------------------------------------------
// Clinical category shapes
// ---------------------------------------------------------------------------

// Pair is a (label, value) tuple as captured by the examination apps.
type Pair [2]string

// Prescreening groups questionnaire answers by category key.
type Prescreening map[string][]Pair

// LabHeader carries the lab report header fields (patient name, record
// number, specimen dates).
type LabHeader map[string]string

// LabTest is one analyte row. An asterisk in Result marks an out-of-range
// value.
type LabTest struct {
	Name           string `json:"name"`
	Result         string `json:"result"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"reference_range"`
	Remark         string `json:"remark"`
}

// LabSection is one panel of related tests.
type LabSection struct {
	Name  string    `json:"name"`
	Tests []LabTest `json:"tests"`
}

// LabExam is the lab category blob.
type LabExam struct {
	Header   LabHeader    `json:"header"`
	Sections []LabSection `json:"sections"`
}

// StudyType discriminates electromedical study records.
type StudyType string

const (
	StudyRontgen    StudyType = "rontgen"
	StudyAudiometri StudyType = "audiometri"
	StudyEKG        StudyType = "ekg"
	StudySpirometri StudyType = "spirometri"
	StudyTreadmill  StudyType = "treadmill"
	StudyUSGAbdomen StudyType = "usg_abdomen"
	StudyUSGMammae  StudyType = "usg_mammae"
)

// GenericStudyTypes lists the studies sharing the generic result shape, in
// report order. Audiometry is handled separately.
var GenericStudyTypes = []StudyType{
	StudyRontgen, StudyEKG, StudySpirometri, StudyTreadmill, StudyUSGAbdomen, StudyUSGMammae,
}

// Examiner identifies the professional who read a study.
type Examiner struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Study is the generic electromedical result shape. Findings carries any
// source keys beyond the fixed schema, ordered by key.
type Study struct {
	Type       StudyType
	Title      string
	Subtitle   string
	Hasil      string
	Kesimpulan string
	Saran      string
	Dokter     Examiner
	URL        string
	Findings   []Pair
}

// Audiometry is the ear/channel diagnosis list shape.
type Audiometry struct {
	Diagnosis []Pair `json:"diagnosis"`
	URL       string `json:"url"`
}

// Electromedical is the decoded electromedical category: one optional entry
// per study type.
type Electromedical struct {
	Studies    map[StudyType]*Study
	Audiometry *Audiometry
}

// Present reports whether any study was captured.
func (e *Electromedical) Present() bool {
	return e != nil && (len(e.Studies) > 0 || e.Audiometry != nil)
}

// decodeStudy pulls the fixed schema fields out of raw and collects the rest
// as findings, sorted by key for deterministic output.
func decodeStudy(t StudyType, raw json.RawMessage) (*Study, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	s := &Study{Type: t}
	str := func(key string) string {
		v, ok := fields[key]
		if !ok {
			return ""
		}
		var out string
		if err := json.Unmarshal(v, &out); err != nil {
			return ""
		}
		return out
	}

	s.Title = str("title")
	s.Subtitle = str("subtitle")
	s.Hasil = str("hasil")
	s.Kesimpulan = str("kesimpulan")
	s.Saran = str("saran")
	s.URL = str("url")
	if v, ok := fields["dokter"]; ok {
		_ = json.Unmarshal(v, &s.Dokter)
	}

	known := map[string]bool{
		"title": true, "subtitle": true, "hasil": true, "kesimpulan": true,
		"saran": true, "url": true, "dokter": true,
	}
	var extraKeys []string
	for k := range fields {
		if !known[k] {
			extraKeys = append(extraKeys, k)
		}
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		var v string
		if err := json.Unmarshal(fields[k], &v); err != nil {
			continue // non-string extras are not renderable rows
		}
		s.Findings = append(s.Findings, Pair{k, v})
	}
	return s, nil
}

// DecodeElectromedical parses the raw category blob into typed studies,
// skipping entries whose shape does not match their discriminator.
func DecodeElectromedical(raw map[string]json.RawMessage) *Electromedical {
	out := &Electromedical{Studies: make(map[StudyType]*Study)}
	for _, t := range GenericStudyTypes {
		blob, ok := raw[string(t)]
		if !ok {
			continue
		}
		s, err := decodeStudy(t, blob)
		if err != nil {
			continue
		}
		out.Studies[t] = s
	}
	if blob, ok := raw[string(StudyAudiometri)]; ok {
		var a Audiometry
		if err := json.Unmarshal(blob, &a); err == nil {
			out.Audiometry = &a
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Per-run snapshot
// ---------------------------------------------------------------------------

// Record is the immutable per-run snapshot of everything the pipeline needs.
// Clinical categories carry documented defaults when the source blob is
// absent or malformed.
type Record struct {
	PatientID     string
	AppointmentID string
	Company       string
	Institution   string

	NIK         string
	Name        string
	BirthDate   string // formatted dd-mm-yyyy
	Gender      string
	Group       string
	CheckinDate string // formatted dd-mm-yyyy
	PhotoURL    string

	Language string
	Filename string

	Prescreening   Prescreening
	PhysicalExam   []Pair
	VitalSigns     []Pair
	Lab            LabExam
	Electromedical *Electromedical
	Conclusions    []Pair
	Advice         string
	Analysis       string

	DoctorExaminer Examiner
	Status         string
}
