package patient

import (
	"context"
	"time"
)

// Repository defines the read and status-update operations against the
// appointment tables. All reads and writes honor soft deletes (is_deleted = 0).
type Repository interface {
	GetCompanyName(ctx context.Context, appointmentID string) (string, error)
	GetInstitutionName(ctx context.Context, appointmentID string) (string, error)
	GetAnalysis(ctx context.Context, appointmentPatientID string) (*AnalysisRow, error)
	GetPatient(ctx context.Context, appointmentPatientID string) (*PatientRow, error)
	GetSummary(ctx context.Context, appointmentPatientID, appointmentID string) (*Summary, error)
	ListCheckedOut(ctx context.Context, appointmentID string) ([]*Summary, error)
	GetCustomizations(ctx context.Context, appointmentID string) ([]KV, error)
	ListReports(ctx context.Context, appointmentID string, limit, offset int) ([]*ReportRow, int, error)

	SetStatus(ctx context.Context, appointmentPatientID, status string) error
	MarkGenerated(ctx context.Context, appointmentPatientID, reportURL string, issuedAt time.Time) error
}
