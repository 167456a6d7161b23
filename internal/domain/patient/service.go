package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mcu/report/internal/platform/storage"
)

var (
	// ErrNotFound is returned when the patient, appointment, or analysis
	// record does not exist (or is soft-deleted).
	ErrNotFound = errors.New("patient data not found")

	// ErrDatabase is the generic user-facing database failure. The
	// underlying cause is logged, never surfaced.
	ErrDatabase = errors.New("a database error occurred")
)

const (
	StatusGenerating = "generating"
	StatusGenerated  = "generated"

	displayDateFormat = "02-01-2006"
)

// Service assembles per-run patient snapshots and tracks report status.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "patient").Logger()}
}

func (s *Service) dbErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	s.logger.Error().Err(err).Str("op", op).Msg("database query failed")
	return ErrDatabase
}

// Snapshot loads everything the report pipeline needs for one patient and
// freezes it into an immutable Record. Missing or malformed clinical blobs
// degrade to their documented defaults.
func (s *Service) Snapshot(ctx context.Context, appointmentPatientID, appointmentID, language string) (*Record, error) {
	company, err := s.repo.GetCompanyName(ctx, appointmentID)
	if err != nil {
		return nil, s.dbErr("get company", err)
	}

	analysis, err := s.repo.GetAnalysis(ctx, appointmentPatientID)
	if err != nil {
		return nil, s.dbErr("get analysis", err)
	}

	pr, err := s.repo.GetPatient(ctx, appointmentPatientID)
	if err != nil {
		return nil, s.dbErr("get patient", err)
	}

	institution, err := s.repo.GetInstitutionName(ctx, pr.AppointmentID)
	if err != nil {
		return nil, s.dbErr("get appointment", err)
	}

	rec := &Record{
		PatientID:     appointmentPatientID,
		AppointmentID: appointmentID,
		Company:       company,
		Institution:   institution,
		Language:      language,

		NIK:         orDash(pr.NIK),
		Name:        dashIfEmpty(pr.Name),
		Gender:      orDash(pr.Gender),
		Group:       orDash(pr.Group),
		BirthDate:   formatBirthDate(pr.BirthDate),
		CheckinDate: formatCheckinDate(pr.CheckInAt),
		PhotoURL:    photoURL(pr.PhotoProofURL),

		Advice:   orDash(analysis.Advice),
		Analysis: orDash(analysis.Analysis),
		Status:   orDefault(analysis.ExaminationStatus, "Completed"),
		DoctorExaminer: Examiner{
			Name:  orDefault(analysis.DoctorExaminerName, "dr. Specialist"),
			Title: "Dokter Pemeriksa",
		},
	}

	rec.Prescreening = s.parsePrescreening(analysis.PrescreeningJSON)
	rec.PhysicalExam = s.parsePairs("physical_examination_json", analysis.PhysicalExamJSON)
	rec.VitalSigns = s.parsePairs("vital_sign_examination_json", analysis.VitalSignJSON)
	rec.Lab = s.parseLab(analysis.LabJSON)
	rec.Electromedical = s.parseElectromedical(analysis.ElectromedicalJSON)
	rec.Conclusions = s.parseConclusions(analysis.ConclusionJSON)

	return rec, nil
}

func (s *Service) parsePrescreening(raw *string) Prescreening {
	if blank(raw) {
		return DefaultPrescreening()
	}
	var p Prescreening
	if err := json.Unmarshal([]byte(*raw), &p); err != nil {
		s.logger.Warn().Err(err).Msg("prescreening_test_json malformed, using default")
		return DefaultPrescreening()
	}
	return p
}

func (s *Service) parsePairs(field string, raw *string) []Pair {
	if blank(raw) {
		return nil
	}
	var rows []Pair
	if err := json.Unmarshal([]byte(*raw), &rows); err != nil {
		s.logger.Warn().Err(err).Str("field", field).Msg("clinical blob malformed, using default")
		return nil
	}
	return rows
}

func (s *Service) parseLab(raw *string) LabExam {
	if blank(raw) {
		return DefaultLabExam()
	}
	var lab LabExam
	if err := json.Unmarshal([]byte(*raw), &lab); err != nil {
		s.logger.Warn().Err(err).Msg("lab_examination_json malformed, using default")
		return DefaultLabExam()
	}
	if lab.Header == nil {
		lab.Header = DefaultLabExam().Header
	}
	return lab
}

func (s *Service) parseElectromedical(raw *string) *Electromedical {
	if blank(raw) {
		return &Electromedical{Studies: map[StudyType]*Study{}}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &fields); err != nil {
		s.logger.Warn().Err(err).Msg("electromedical_examination_json malformed, using empty")
		return &Electromedical{Studies: map[StudyType]*Study{}}
	}
	return DecodeElectromedical(fields)
}

func (s *Service) parseConclusions(raw *string) []Pair {
	if blank(raw) {
		return DefaultConclusions()
	}
	var rows []Pair
	if err := json.Unmarshal([]byte(*raw), &rows); err != nil {
		s.logger.Warn().Err(err).Msg("examination_conclusion_json malformed, using default")
		return DefaultConclusions()
	}
	return rows
}

// GetSummary resolves the patient name and company for the generate endpoints.
func (s *Service) GetSummary(ctx context.Context, appointmentPatientID, appointmentID string) (*Summary, error) {
	sum, err := s.repo.GetSummary(ctx, appointmentPatientID, appointmentID)
	if err != nil {
		return nil, s.dbErr("get summary", err)
	}
	return sum, nil
}

// ListCheckedOut returns the patients of an appointment who completed their
// examination and are eligible for batch report generation.
func (s *Service) ListCheckedOut(ctx context.Context, appointmentID string) ([]*Summary, error) {
	out, err := s.repo.ListCheckedOut(ctx, appointmentID)
	if err != nil {
		return nil, s.dbErr("list checked-out patients", err)
	}
	return out, nil
}

// Customizations returns the per-appointment override rows (possibly none).
func (s *Service) Customizations(ctx context.Context, appointmentID string) ([]KV, error) {
	kvs, err := s.repo.GetCustomizations(ctx, appointmentID)
	if err != nil {
		return nil, s.dbErr("get customizations", err)
	}
	return kvs, nil
}

// ListReports pages through report status rows for an appointment.
func (s *Service) ListReports(ctx context.Context, appointmentID string, limit, offset int) ([]*ReportRow, int, error) {
	rows, total, err := s.repo.ListReports(ctx, appointmentID, limit, offset)
	if err != nil {
		return nil, 0, s.dbErr("list reports", err)
	}
	return rows, total, nil
}

// MarkGenerating flags the analysis record before the job is queued.
func (s *Service) MarkGenerating(ctx context.Context, appointmentPatientID string) error {
	if err := s.repo.SetStatus(ctx, appointmentPatientID, StatusGenerating); err != nil {
		return s.dbErr("set status generating", err)
	}
	return nil
}

// MarkGenerated persists the delivered URL and issue time on the analysis
// record.
func (s *Service) MarkGenerated(ctx context.Context, appointmentPatientID, reportURL string, issuedAt time.Time) error {
	if err := s.repo.MarkGenerated(ctx, appointmentPatientID, reportURL, issuedAt); err != nil {
		return s.dbErr("mark generated", err)
	}
	return nil
}

// BuildFilename derives the collision-free object name for one run:
// <appointment>_<patient>_<SafeName>_<SafeCompany>_<timestamp>.
func BuildFilename(appointmentID, appointmentPatientID, patientName, companyName string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s",
		appointmentID, appointmentPatientID,
		safeName(patientName), safeName(companyName),
		now.Format("20060102_150405"))
}

// safeName keeps letters, digits, and spaces, then replaces spaces with
// underscores.
func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(b.String(), " ", "_")
}

// formatBirthDate shifts the stored date forward one day before display. The
// capture apps store birth dates one day behind due to a timezone conversion
// at intake.
func formatBirthDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.AddDate(0, 0, 1).Format(displayDateFormat)
}

// formatCheckinDate shifts the stored UTC instant to western Indonesia time
// (UTC+7) before taking the calendar date.
func formatCheckinDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Add(7 * time.Hour).Format(displayDateFormat)
}

func photoURL(raw *string) string {
	if raw == nil || *raw == "" {
		return ""
	}
	return storage.NormalizeURL(*raw)
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
