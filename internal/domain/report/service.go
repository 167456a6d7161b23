package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcu/report/internal/domain/patient"
)

// Job is the queued unit of work: the frozen patient snapshot plus the
// object name the run will deliver under.
type Job struct {
	BatchID  string          `json:"batch_id"`
	Filename string          `json:"filename"`
	Record   *patient.Record `json:"patient_data"`
}

// Publisher queues generation jobs. The AMQP client satisfies this.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg interface{}) error
}

// Service ties patient snapshots, the queue, and the pipeline together
// behind the HTTP and worker entry points.
type Service struct {
	patients  *patient.Service
	pipeline  *Pipeline
	publisher Publisher
	queueName string
	logger    zerolog.Logger
}

func NewService(patients *patient.Service, pipeline *Pipeline, publisher Publisher,
	queueName string, logger zerolog.Logger) *Service {
	return &Service{
		patients:  patients,
		pipeline:  pipeline,
		publisher: publisher,
		queueName: queueName,
		logger:    logger.With().Str("component", "report").Logger(),
	}
}

// buildJob freezes one patient's data into a queueable job.
func (s *Service) buildJob(ctx context.Context, appointmentPatientID, appointmentID, language string) (*Job, error) {
	sum, err := s.patients.GetSummary(ctx, appointmentPatientID, appointmentID)
	if err != nil {
		return nil, err
	}

	rec, err := s.patients.Snapshot(ctx, appointmentPatientID, appointmentID, language)
	if err != nil {
		return nil, err
	}

	filename := patient.BuildFilename(appointmentID, appointmentPatientID, sum.Name, sum.CompanyName, time.Now())
	rec.Filename = filename

	return &Job{
		BatchID:  uuid.NewString(),
		Filename: filename,
		Record:   rec,
	}, nil
}

// Queue snapshots one patient, flags the record as generating, and publishes
// the job for asynchronous processing. Returns the batch ID.
func (s *Service) Queue(ctx context.Context, appointmentPatientID, appointmentID, language string) (string, error) {
	job, err := s.buildJob(ctx, appointmentPatientID, appointmentID, language)
	if err != nil {
		return "", err
	}

	if err := s.patients.MarkGenerating(ctx, appointmentPatientID); err != nil {
		return "", err
	}

	if err := s.publisher.Publish(ctx, s.queueName, job); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("batch_id", job.BatchID).
		Str("patient_id", appointmentPatientID).
		Msg("report job queued")
	return job.BatchID, nil
}

// QueueAppointment queues one job per checked-out patient of an appointment.
// Returns how many jobs were queued.
func (s *Service) QueueAppointment(ctx context.Context, appointmentID, language string) (int, error) {
	patients, err := s.patients.ListCheckedOut(ctx, appointmentID)
	if err != nil {
		return 0, err
	}
	if len(patients) == 0 {
		return 0, patient.ErrNotFound
	}

	queued := 0
	for _, sum := range patients {
		if _, err := s.Queue(ctx, sum.PatientID, appointmentID, language); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// GenerateNow runs the full pipeline synchronously and returns the terminal
// state.
func (s *Service) GenerateNow(ctx context.Context, appointmentPatientID, appointmentID, language string) (*State, error) {
	job, err := s.buildJob(ctx, appointmentPatientID, appointmentID, language)
	if err != nil {
		return nil, err
	}
	if err := s.patients.MarkGenerating(ctx, appointmentPatientID); err != nil {
		return nil, err
	}
	return s.pipeline.Run(ctx, job.Record, job.Filename)
}

// Process executes a consumed job. Malformed payloads are reported as
// ErrBadMessage by the caller; pipeline failures propagate so the queue's
// retry policy applies.
func (s *Service) Process(ctx context.Context, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return &badJobError{reason: err.Error()}
	}
	if job.Record == nil || job.Record.PatientID == "" {
		return &badJobError{reason: "missing patient data"}
	}
	_, err := s.pipeline.Run(ctx, job.Record, job.Filename)
	return err
}

// ListReports pages report status rows for an appointment.
func (s *Service) ListReports(ctx context.Context, appointmentID string, limit, offset int) ([]*patient.ReportRow, int, error) {
	return s.patients.ListReports(ctx, appointmentID, limit, offset)
}

type badJobError struct{ reason string }

func (e *badJobError) Error() string { return "bad job payload: " + e.reason }

// IsBadJob reports whether an error marks a permanently unprocessable
// payload.
func IsBadJob(err error) bool {
	var b *badJobError
	return errors.As(err, &b)
}
