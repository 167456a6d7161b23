package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcu/report/internal/domain/patient"
	"github.com/mcu/report/internal/platform/storage"
)

type fakeOverrides struct {
	kvs []patient.KV
	err error
}

func (f *fakeOverrides) Customizations(_ context.Context, _ string) ([]patient.KV, error) {
	return f.kvs, f.err
}

type fakeRenderer struct {
	err     error
	renders int
}

func (f *fakeRenderer) Render(_ context.Context, _ any, outPath string) error {
	f.renders++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("%PDF-1.7 fake"), 0o644)
}

type fakeStatus struct {
	marked map[string]string
	err    error
}

func (f *fakeStatus) MarkGenerated(_ context.Context, id, url string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.marked == nil {
		f.marked = map[string]string{}
	}
	f.marked[id] = url
	return nil
}

func testRecord() *patient.Record {
	return &patient.Record{
		PatientID:     "pat-1",
		AppointmentID: "appt-1",
		Company:       "PT Sehat",
		Name:          "Budi Santoso",
		NIK:           "317...",
		BirthDate:     "15-05-1990",
		CheckinDate:   "10-03-2026",
		Gender:        "Laki-laki",
		Group:         "Karyawan",
		Language:      "id",
		Prescreening:  patient.DefaultPrescreening(),
		PhysicalExam:  []patient.Pair{{"jantung", "Normal"}},
		VitalSigns: []patient.Pair{
			{"Berat Badan (kg)", "70"},
			{"Tinggi Badan (cm)", "175"},
			{"BMI", ""},
		},
		Lab:            patient.DefaultLabExam(),
		Electromedical: &patient.Electromedical{Studies: map[patient.StudyType]*patient.Study{}},
		Conclusions:    patient.DefaultConclusions(),
		Advice:         "Olahraga teratur",
		Analysis:       "Fit",
		DoctorExaminer: patient.Examiner{Name: "dr. Rina", Title: "Dokter Pemeriksa"},
	}
}

type pipelineFixture struct {
	pipeline *Pipeline
	renderer *fakeRenderer
	status   *fakeStatus
	store    *storage.MemStore
}

func newPipelineFixture(t *testing.T, overrides OverrideSource, renderer *fakeRenderer) *pipelineFixture {
	t.Helper()
	status := &fakeStatus{}
	store := storage.NewMemStore("reports-bucket", "")
	deliverer := NewDeliverer(store, status, "mcu-reports", zerolog.Nop())
	p := NewPipeline(overrides, nil, renderer, deliverer, t.TempDir(), zerolog.Nop())
	return &pipelineFixture{pipeline: p, renderer: renderer, status: status, store: store}
}

func TestPipelineCompletes(t *testing.T) {
	f := newPipelineFixture(t, &fakeOverrides{}, &fakeRenderer{})

	st, err := f.pipeline.Run(context.Background(), testRecord(), "report-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Status != StatusCompleted {
		t.Errorf("status = %q", st.Status)
	}
	if st.DeliveredURL == "" || !strings.Contains(st.DeliveredURL, "report-1.pdf") {
		t.Errorf("url = %q", st.DeliveredURL)
	}
	if f.status.marked["pat-1"] != st.DeliveredURL {
		t.Errorf("status not persisted: %+v", f.status.marked)
	}
	// Rendered artifact is cleaned after delivery.
	if _, err := os.Stat(st.RenderedPath); !os.IsNotExist(err) {
		t.Errorf("rendered file should be cleaned up: %v", err)
	}
	// BMI was recomputed into the vitals section.
	bmi := findRow(t, st.VitalSigns, "BMI")
	if bmi.Value != "22.9, Normal" {
		t.Errorf("bmi = %q", bmi.Value)
	}
	// Branding images reach the renderer as fetchable https URLs.
	if strings.HasPrefix(st.Customization.HeaderImageURL, "gs://") {
		t.Errorf("header image not normalized: %q", st.Customization.HeaderImageURL)
	}
	if strings.HasPrefix(st.Customization.PenanggungJawabHasilSignatureURL, "gs://") {
		t.Errorf("signature image not normalized: %q", st.Customization.PenanggungJawabHasilSignatureURL)
	}
}

func TestPipelineAppliesAnalysisOverride(t *testing.T) {
	f := newPipelineFixture(t, &fakeOverrides{kvs: []patient.KV{
		{Key: "terms_analisis_fit", Value: "Fit untuk bekerja sesuai ketentuan"},
	}}, &fakeRenderer{})

	st, err := f.pipeline.Run(context.Background(), testRecord(), "report-2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Conclusion.Analysis != "Fit untuk bekerja sesuai ketentuan" {
		t.Errorf("analysis = %q", st.Conclusion.Analysis)
	}
}

// Running the pipeline twice on identical input yields byte-identical
// formatted sections.
func TestPipelineDeterministic(t *testing.T) {
	sections := func(st *State) string {
		data, err := json.Marshal(map[string]any{
			"identity":       st.Identity,
			"prescreening":   st.Prescreening,
			"physical":       st.PhysicalExam,
			"vitals":         st.VitalSigns,
			"conclusion":     st.Conclusion,
			"lab":            st.Lab,
			"electromedical": st.Electromedical,
		})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return string(data)
	}

	f1 := newPipelineFixture(t, &fakeOverrides{}, &fakeRenderer{})
	st1, err := f1.pipeline.Run(context.Background(), testRecord(), "run-a")
	if err != nil {
		t.Fatalf("run 1: %v", err)
	}

	f2 := newPipelineFixture(t, &fakeOverrides{}, &fakeRenderer{})
	st2, err := f2.pipeline.Run(context.Background(), testRecord(), "run-b")
	if err != nil {
		t.Fatalf("run 2: %v", err)
	}

	if sections(st1) != sections(st2) {
		t.Error("formatted sections differ between identical runs")
	}
}

// An empty physical exam list formats to no sections yet the run still
// renders and delivers.
func TestPipelineEmptyPhysicalExamStillDelivers(t *testing.T) {
	rec := testRecord()
	rec.PhysicalExam = nil

	f := newPipelineFixture(t, &fakeOverrides{}, &fakeRenderer{})
	st, err := f.pipeline.Run(context.Background(), rec, "report-3")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.PhysicalExam) != 0 {
		t.Errorf("physical = %+v", st.PhysicalExam)
	}
	if st.Status != StatusCompleted || st.DeliveredURL == "" {
		t.Errorf("state = %q / %q", st.Status, st.DeliveredURL)
	}
}

func TestPipelineRenderFailure(t *testing.T) {
	f := newPipelineFixture(t, &fakeOverrides{}, &fakeRenderer{err: errors.New("chrome crashed")})

	st, err := f.pipeline.Run(context.Background(), testRecord(), "report-4")
	if err == nil {
		t.Fatal("expected error")
	}
	if st.Status != StatusFailed {
		t.Errorf("status = %q", st.Status)
	}
	if st.DeliveredURL != "" {
		t.Errorf("no report should be delivered, got %q", st.DeliveredURL)
	}
	if len(f.status.marked) != 0 {
		t.Errorf("status should not be persisted on failure: %+v", f.status.marked)
	}
}

func TestPipelineDeliveryFailureStillCleansUp(t *testing.T) {
	status := &fakeStatus{err: errors.New("update failed")}
	store := storage.NewMemStore("reports-bucket", "")
	deliverer := NewDeliverer(store, status, "mcu-reports", zerolog.Nop())
	renderer := &fakeRenderer{}
	p := NewPipeline(&fakeOverrides{}, nil, renderer, deliverer, t.TempDir(), zerolog.Nop())

	st, err := p.Run(context.Background(), testRecord(), "report-5")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
	if st.Status != StatusFailed {
		t.Errorf("status = %q", st.Status)
	}
	if _, statErr := os.Stat(st.RenderedPath); !os.IsNotExist(statErr) {
		t.Errorf("rendered file should be cleaned up even on delivery failure")
	}
}

func TestPipelineIncompleteIdentityFails(t *testing.T) {
	rec := testRecord()
	rec.Name = ""

	f := newPipelineFixture(t, &fakeOverrides{}, &fakeRenderer{})
	st, err := f.pipeline.Run(context.Background(), rec, "report-6")
	if err == nil {
		t.Fatal("expected error")
	}
	if st.Status != StatusFailed {
		t.Errorf("status = %q", st.Status)
	}
	if f.renderer.renders != 0 {
		t.Errorf("renderer should not run after identity failure")
	}
}
