package patient

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable { return r.pool }

func (r *repoPG) GetCompanyName(ctx context.Context, appointmentID string) (string, error) {
	var name string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT cc.name
		FROM b2b_bumame_appointment a
		JOIN b2b_bumame_company_client cc ON cc.id = a.company_client_id
		WHERE a.id = $1 AND a.is_deleted = 0 AND cc.is_deleted = 0`,
		appointmentID).Scan(&name)
	return name, err
}

func (r *repoPG) GetInstitutionName(ctx context.Context, appointmentID string) (string, error) {
	var name *string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT institution_name
		FROM b2b_bumame_appointment
		WHERE id = $1 AND is_deleted = 0`,
		appointmentID).Scan(&name)
	if err != nil {
		return "", err
	}
	if name == nil {
		return "", nil
	}
	return *name, nil
}

const analysisCols = `id, appointment_id, appointment_patient_id, examination_status,
	doctor_examiner_name, prescreening_test_json, physical_examination_json,
	vital_sign_examination_json, lab_examination_json, electromedical_examination_json,
	examination_conclusion_json, examination_advice, examination_analysis,
	specimen_taken_at, result_issued_at, created_at, updated_at`

func scanAnalysis(row pgx.Row) (*AnalysisRow, error) {
	var a AnalysisRow
	err := row.Scan(&a.ID, &a.AppointmentID, &a.AppointmentPatientID, &a.ExaminationStatus,
		&a.DoctorExaminerName, &a.PrescreeningJSON, &a.PhysicalExamJSON, &a.VitalSignJSON,
		&a.LabJSON, &a.ElectromedicalJSON, &a.ConclusionJSON, &a.Advice, &a.Analysis,
		&a.SpecimenTakenAt, &a.ResultIssuedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) GetAnalysis(ctx context.Context, appointmentPatientID string) (*AnalysisRow, error) {
	return scanAnalysis(r.conn(ctx).QueryRow(ctx, `
		SELECT `+analysisCols+`
		FROM b2b_bumame_appointment_patient_analysis
		WHERE appointment_patient_id = $1 AND is_deleted = 0
		ORDER BY updated_at DESC
		LIMIT 1`, appointmentPatientID))
}

func (r *repoPG) GetPatient(ctx context.Context, appointmentPatientID string) (*PatientRow, error) {
	var p PatientRow
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, appointment_id, name, nik, birth_date, gender, "group",
			d_day_photo_proof_url, check_in_at
		FROM b2b_bumame_appointment_patient
		WHERE id = $1 AND is_deleted = 0`,
		appointmentPatientID).Scan(&p.ID, &p.AppointmentID, &p.Name, &p.NIK, &p.BirthDate,
		&p.Gender, &p.Group, &p.PhotoProofURL, &p.CheckInAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) GetSummary(ctx context.Context, appointmentPatientID, appointmentID string) (*Summary, error) {
	var s Summary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.id, p.name, cc.name
		FROM b2b_bumame_appointment_patient p
		JOIN b2b_bumame_appointment a ON a.id = p.appointment_id
		JOIN b2b_bumame_company_client cc ON cc.id = a.company_client_id
		WHERE p.id = $1 AND p.appointment_id = $2
			AND p.is_deleted = 0 AND a.is_deleted = 0 AND cc.is_deleted = 0`,
		appointmentPatientID, appointmentID).Scan(&s.PatientID, &s.Name, &s.CompanyName)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) ListCheckedOut(ctx context.Context, appointmentID string) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.name, cc.name
		FROM b2b_bumame_appointment_patient p
		JOIN b2b_bumame_appointment a ON a.id = p.appointment_id
		JOIN b2b_bumame_company_client cc ON cc.id = a.company_client_id
		WHERE p.appointment_id = $1 AND p.status = 'check_out_examination'
			AND p.is_deleted = 0 AND a.is_deleted = 0 AND cc.is_deleted = 0
		ORDER BY p.name`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.PatientID, &s.Name, &s.CompanyName); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) GetCustomizations(ctx context.Context, appointmentID string) ([]KV, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT variable_key, variable_value
		FROM b2b_bumame_appointment_report_customization
		WHERE appointment_id = $1 AND is_deleted = 0`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KV
	for rows.Next() {
		var kv KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, err
		}
		out = append(out, kv)
	}
	return out, rows.Err()
}

func (r *repoPG) ListReports(ctx context.Context, appointmentID string, limit, offset int) ([]*ReportRow, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM b2b_bumame_appointment_patient_analysis an
		JOIN b2b_bumame_appointment_patient p ON p.id = an.appointment_patient_id
		WHERE an.appointment_id = $1 AND an.is_deleted = 0 AND p.is_deleted = 0`,
		appointmentID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT an.appointment_patient_id, p.name,
			COALESCE(an.examination_status, ''), COALESCE(an.report_url, ''),
			an.result_issued_at
		FROM b2b_bumame_appointment_patient_analysis an
		JOIN b2b_bumame_appointment_patient p ON p.id = an.appointment_patient_id
		WHERE an.appointment_id = $1 AND an.is_deleted = 0 AND p.is_deleted = 0
		ORDER BY p.name
		LIMIT $2 OFFSET $3`, appointmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*ReportRow
	for rows.Next() {
		var rr ReportRow
		if err := rows.Scan(&rr.AppointmentPatientID, &rr.Name, &rr.ExaminationStatus,
			&rr.ReportURL, &rr.ResultIssuedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &rr)
	}
	return out, total, rows.Err()
}

func (r *repoPG) SetStatus(ctx context.Context, appointmentPatientID, status string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE b2b_bumame_appointment_patient_analysis
		SET examination_status = $2, updated_at = NOW()
		WHERE appointment_patient_id = $1 AND is_deleted = 0`,
		appointmentPatientID, status)
	return err
}

func (r *repoPG) MarkGenerated(ctx context.Context, appointmentPatientID, reportURL string, issuedAt time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE b2b_bumame_appointment_patient_analysis
		SET examination_status = 'generated', report_url = $2, result_issued_at = $3,
			updated_at = NOW()
		WHERE appointment_patient_id = $1 AND is_deleted = 0`,
		appointmentPatientID, reportURL, issuedAt)
	return err
}
