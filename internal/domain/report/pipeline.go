package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mcu/report/internal/domain/patient"
)

// Renderer turns assembled view data into a PDF at outPath. The chromedp
// renderer satisfies this.
type Renderer interface {
	Render(ctx context.Context, data any, outPath string) error
}

// OverrideSource supplies per-appointment customization rows.
type OverrideSource interface {
	Customizations(ctx context.Context, appointmentID string) ([]patient.KV, error)
}

// Pipeline runs one report generation end to end: a strictly linear sequence
// of formatting stages followed by render and delivery. Stages never retry;
// any stage error fails the whole run and best-effort cleanup still happens.
type Pipeline struct {
	overrides OverrideSource
	resolver  AssetResolver
	renderer  Renderer
	deliverer *Deliverer
	tmpDir    string
	logger    zerolog.Logger
}

func NewPipeline(overrides OverrideSource, resolver AssetResolver, renderer Renderer,
	deliverer *Deliverer, tmpDir string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		overrides: overrides,
		resolver:  resolver,
		renderer:  renderer,
		deliverer: deliverer,
		tmpDir:    tmpDir,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, st *State) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{"setup_customization", p.setupCustomization},
		{"format_patient", p.formatPatient},
		{"format_prescreening", p.formatPrescreening},
		{"format_physical_exam", p.formatPhysicalExam},
		{"format_vital_signs", p.formatVitalSigns},
		{"format_conclusions", p.formatConclusions},
		{"format_lab_panel", p.formatLabPanel},
		{"format_electromedical", p.formatElectromedical},
		{"render", p.render},
		{"deliver_and_cleanup", p.deliverAndCleanup},
	}
}

// Run executes every stage in order against a fresh State. On any stage
// error the run transitions to Failed, delivery is skipped, and already
// created temporary assets are still cleaned up.
func (p *Pipeline) Run(ctx context.Context, rec *patient.Record, filename string) (*State, error) {
	st := NewState(rec, filename)
	logger := p.logger.With().
		Str("patient_id", rec.PatientID).
		Str("appointment_id", rec.AppointmentID).
		Logger()

	for _, s := range p.stages() {
		if err := s.run(ctx, st); err != nil {
			logger.Error().Err(err).Str("stage", s.name).Msg("report run failed")
			st.fail(fmt.Errorf("%s: %w", s.name, err))
			p.deliverer.Cleanup(st)
			return st, st.Err
		}
		logger.Debug().Str("stage", s.name).Msg("stage complete")
	}

	st.Status = StatusCompleted
	logger.Info().Str("url", st.DeliveredURL).Msg("report delivered")
	return st, nil
}

func (p *Pipeline) setupCustomization(ctx context.Context, st *State) error {
	cust := DefaultCustomization()
	if p.overrides != nil {
		kvs, err := p.overrides.Customizations(ctx, st.Record.AppointmentID)
		if err != nil {
			return err
		}
		cust.Apply(kvs)
	}
	cust.NormalizeImageURLs()
	st.Customization = cust
	return nil
}

func (p *Pipeline) formatPatient(_ context.Context, st *State) error {
	rec := st.Record
	if rec.PatientID == "" || rec.AppointmentID == "" || rec.Name == "" {
		return fmt.Errorf("incomplete identity: patient=%q appointment=%q", rec.PatientID, rec.AppointmentID)
	}
	tr := NewTranslator(rec.Language)
	st.Identity = IdentityView{
		BasicInfo: []Row{
			{tr.IdentityLabel("nik"), rec.NIK},
			{tr.IdentityLabel("name"), rec.Name},
			{tr.IdentityLabel("birth_date"), rec.BirthDate},
			{tr.IdentityLabel("checkout_examination_date"), rec.CheckinDate},
		},
		ExtendedInfo: []Row{
			{tr.IdentityLabel("gender"), rec.Gender},
			{tr.IdentityLabel("group"), rec.Group},
		},
		PhotoURL:    rec.PhotoURL,
		Company:     rec.Company,
		Institution: rec.Institution,
	}
	return nil
}

func (p *Pipeline) formatPrescreening(_ context.Context, st *State) error {
	st.Prescreening = FormatPrescreening(st.Record.Prescreening, NewTranslator(st.Record.Language))
	return nil
}

func (p *Pipeline) formatPhysicalExam(_ context.Context, st *State) error {
	st.PhysicalExam = FormatPhysicalExam(st.Record.PhysicalExam, NewTranslator(st.Record.Language))
	return nil
}

func (p *Pipeline) formatVitalSigns(_ context.Context, st *State) error {
	st.VitalSigns = FormatVitalSigns(st.Record.VitalSigns, NewTranslator(st.Record.Language))
	return nil
}

func (p *Pipeline) formatConclusions(_ context.Context, st *State) error {
	st.Conclusion = FormatConclusions(st.Record, NewTranslator(st.Record.Language), &st.Customization)
	return nil
}

func (p *Pipeline) formatLabPanel(_ context.Context, st *State) error {
	st.Lab = FormatLabPanel(st.Record.Lab, NewTranslator(st.Record.Language))
	return nil
}

func (p *Pipeline) formatElectromedical(ctx context.Context, st *State) error {
	view, err := FormatElectromedical(ctx, st.Record.Electromedical,
		NewTranslator(st.Record.Language), p.resolver, st)
	if err != nil {
		return err
	}
	st.Electromedical = view
	return nil
}

// viewData assembles the full presentation tree handed to the renderer.
func viewData(st *State) map[string]any {
	return map[string]any{
		"identity":       st.Identity,
		"prescreening":   st.Prescreening,
		"physical_exam":  st.PhysicalExam,
		"vital_signs":    st.VitalSigns,
		"conclusion":     st.Conclusion,
		"lab":            st.Lab,
		"electromedical": st.Electromedical,
		"doctor":         st.Record.DoctorExaminer,
		"customization":  st.Customization,
	}
}

func (p *Pipeline) render(ctx context.Context, st *State) error {
	outPath := filepath.Join(p.tmpDir, st.Filename+".pdf")
	if err := os.MkdirAll(p.tmpDir, 0o755); err != nil {
		return err
	}
	if err := p.renderer.Render(ctx, viewData(st), outPath); err != nil {
		return err
	}
	st.RenderedPath = outPath
	st.AddTemp(outPath)
	return nil
}

func (p *Pipeline) deliverAndCleanup(ctx context.Context, st *State) error {
	return p.deliverer.Deliver(ctx, st)
}
