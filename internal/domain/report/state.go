package report

import "github.com/mcu/report/internal/domain/patient"

// RunStatus is the terminal state of one report-generation run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// IdentityView is the patient header block of the report.
type IdentityView struct {
	BasicInfo    []Row  `json:"basic_info"`
	ExtendedInfo []Row  `json:"extended_info"`
	PhotoURL     string `json:"photo_url"`
	Company      string `json:"company"`
	Institution  string `json:"institution"`
}

// State is the mutable working set of a single run, exclusively owned by the
// orchestrator for the run's lifetime. Stages populate their own fields;
// nothing here is shared across concurrent runs.
type State struct {
	Record   *patient.Record
	Filename string

	Customization Customization

	Identity       IdentityView
	Prescreening   []Section
	PhysicalExam   []Section
	VitalSigns     []Section
	Conclusion     ConclusionView
	Lab            LabView
	Electromedical ElectromedicalView

	tempFiles    []string
	RenderedPath string
	DeliveredURL string

	Status RunStatus
	Err    error
}

func NewState(rec *patient.Record, filename string) *State {
	return &State{Record: rec, Filename: filename, Status: StatusRunning}
}

// AddTemp registers local files for unconditional end-of-run cleanup.
func (s *State) AddTemp(paths ...string) {
	for _, p := range paths {
		if p != "" {
			s.tempFiles = append(s.tempFiles, p)
		}
	}
}

// TempFiles returns the registered cleanup list.
func (s *State) TempFiles() []string { return s.tempFiles }

// fail captures the first error and moves the run to its failed terminal
// state.
func (s *State) fail(err error) {
	s.Status = StatusFailed
	if s.Err == nil {
		s.Err = err
	}
}
