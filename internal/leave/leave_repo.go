package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists leave requests and their approval audit trail. It
// speaks raw SQL through the caller's transaction so that the FOR UPDATE
// lock on a request and the subsequent status write share one scope.
//
//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, rq *Request) error
	FindByIDAndTenant(ctx context.Context, tenantID, id string) (*Request, error)
	// FindForUpdate locks the request row until the surrounding
	// transaction commits. Must be called with a bound transaction.
	FindForUpdate(ctx context.Context, tenantID, id string) (*Request, error)
	Update(ctx context.Context, rq *Request) error
	// HasOverlapping reports whether the employee has another request
	// in draft, submitted or approved status whose date range touches
	// [start, end]. excludeID skips the request being checked.
	HasOverlapping(ctx context.Context, tenantID, employeeID string, start, end time.Time, excludeID string) (bool, error)
	FindAllByEmployee(ctx context.Context, tenantID, employeeID string) ([]Request, error)
	AddApprovalRecord(ctx context.Context, rec *ApprovalRecord) error
	ApprovalRecords(ctx context.Context, requestID string) ([]ApprovalRecord, error)
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const requestColumns = `
	id::text, tenant_id::text, employee_id::text, leave_type_id::text,
	start_date, end_date, duration_type, requested_hours, total_days, working_days,
	reason, attachment_url, status, current_level, chain_length,
	submitted_at, approved_at,
	rejected_by::text, rejected_at, rejection_reason,
	cancelled_by::text, cancelled_at, cancellation_reason,
	created_at, updated_at
`

func (r *repository) Create(ctx context.Context, rq *Request) error {
	query := `
        INSERT INTO leave_requests (
            id, tenant_id, employee_id, leave_type_id,
            start_date, end_date, duration_type, requested_hours, total_days, working_days,
            reason, attachment_url, status, current_level, chain_length
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		rq.ID, rq.TenantID, rq.EmployeeID, rq.LeaveTypeID,
		rq.StartDate, rq.EndDate, rq.DurationType, rq.RequestedHours, rq.TotalDays, rq.WorkingDays,
		rq.Reason, rq.AttachmentURL, rq.Status, rq.CurrentLevel, rq.ChainLength,
	)
	return err
}

func (r *repository) FindByIDAndTenant(ctx context.Context, tenantID, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + `
FROM leave_requests
WHERE tenant_id = $1 AND id = $2
`
	return r.scanOne(r.querier().QueryRowContext(ctx, query, tenantID, id))
}

func (r *repository) FindForUpdate(ctx context.Context, tenantID, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + `
FROM leave_requests
WHERE tenant_id = $1 AND id = $2
FOR UPDATE
`
	return r.scanOne(r.querier().QueryRowContext(ctx, query, tenantID, id))
}

func (r *repository) Update(ctx context.Context, rq *Request) error {
	query := `
UPDATE leave_requests
SET
	start_date = $2,
	end_date = $3,
	duration_type = $4,
	requested_hours = $5,
	total_days = $6,
	working_days = $7,
	reason = $8,
	attachment_url = $9,
	status = $10,
	current_level = $11,
	chain_length = $12,
	submitted_at = $13,
	approved_at = $14,
	rejected_by = $15,
	rejected_at = $16,
	rejection_reason = $17,
	cancelled_by = $18,
	cancelled_at = $19,
	cancellation_reason = $20,
	updated_at = NOW()
WHERE id = $1
`
	_, err := r.execer().ExecContext(
		ctx, query,
		rq.ID,
		rq.StartDate, rq.EndDate, rq.DurationType, rq.RequestedHours, rq.TotalDays, rq.WorkingDays,
		rq.Reason, rq.AttachmentURL, rq.Status, rq.CurrentLevel, rq.ChainLength,
		rq.SubmittedAt, rq.ApprovedAt,
		uuidOrNil(rq.RejectedBy), rq.RejectedAt, rq.RejectionReason,
		uuidOrNil(rq.CancelledBy), rq.CancelledAt, rq.CancellationReason,
	)
	return err
}

func (r *repository) HasOverlapping(ctx context.Context, tenantID, employeeID string, start, end time.Time, excludeID string) (bool, error) {
	query := `
SELECT EXISTS (
	SELECT 1 FROM leave_requests
	WHERE tenant_id = $1 AND employee_id = $2
	  AND status IN ('draft', 'submitted', 'approved')
	  AND start_date <= $4 AND end_date >= $3
	  AND id <> $5
)
`
	var exists bool
	err := r.querier().QueryRowContext(ctx, query, tenantID, employeeID, start, end, excludeID).Scan(&exists)
	return exists, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, tenantID, employeeID string) ([]Request, error) {
	query := `SELECT ` + requestColumns + `
FROM leave_requests
WHERE tenant_id = $1 AND employee_id = $2
ORDER BY start_date DESC
`
	rows, err := r.querier().QueryContext(ctx, query, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		rq, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *rq)
	}
	return requests, rows.Err()
}

func (r *repository) AddApprovalRecord(ctx context.Context, rec *ApprovalRecord) error {
	query := `
        INSERT INTO leave_approval_records (
            id, request_id, level, approver_id, role, comments, approved_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		rec.ID, rec.RequestID, rec.Level, rec.ApproverID, rec.Role, rec.Comments, rec.ApprovedAt,
	)
	return err
}

func (r *repository) ApprovalRecords(ctx context.Context, requestID string) ([]ApprovalRecord, error) {
	query := `
SELECT id::text, request_id::text, level, approver_id::text, role, comments, approved_at
FROM leave_approval_records
WHERE request_id = $1
ORDER BY level
`
	rows, err := r.querier().QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ApprovalRecord
	for rows.Next() {
		var rec ApprovalRecord
		var id, reqID, approverID string
		if err := rows.Scan(&id, &reqID, &rec.Level, &approverID, &rec.Role, &rec.Comments, &rec.ApprovedAt); err != nil {
			return nil, err
		}
		rec.ID, _ = uuid.Parse(id)
		rec.RequestID, _ = uuid.Parse(reqID)
		rec.ApproverID, _ = uuid.Parse(approverID)
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *repository) scanOne(row *sql.Row) (*Request, error) {
	return r.scanRow(row)
}

func (r *repository) scanRow(row rowScanner) (*Request, error) {
	var rq Request
	var id, tenantID, employeeID, leaveTypeID string
	var requestedHours sql.NullString
	var reason, attachmentURL, rejectionReason, cancellationReason sql.NullString
	var submittedAt, approvedAt, rejectedAt, cancelledAt sql.NullTime
	var rejectedBy, cancelledBy sql.NullString

	err := row.Scan(
		&id, &tenantID, &employeeID, &leaveTypeID,
		&rq.StartDate, &rq.EndDate, &rq.DurationType, &requestedHours, &rq.TotalDays, &rq.WorkingDays,
		&reason, &attachmentURL, &rq.Status, &rq.CurrentLevel, &rq.ChainLength,
		&submittedAt, &approvedAt,
		&rejectedBy, &rejectedAt, &rejectionReason,
		&cancelledBy, &cancelledAt, &cancellationReason,
		&rq.CreatedAt, &rq.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rq.ID, _ = uuid.Parse(id)
	rq.TenantID, _ = uuid.Parse(tenantID)
	rq.EmployeeID, _ = uuid.Parse(employeeID)
	rq.LeaveTypeID, _ = uuid.Parse(leaveTypeID)
	rq.Reason = reason.String
	rq.AttachmentURL = attachmentURL.String
	rq.RejectionReason = rejectionReason.String
	rq.CancellationReason = cancellationReason.String

	if requestedHours.Valid {
		d, err := decimal.NewFromString(requestedHours.String)
		if err != nil {
			return nil, err
		}
		rq.RequestedHours = &d
	}
	rq.SubmittedAt = timePtr(submittedAt)
	rq.ApprovedAt = timePtr(approvedAt)
	rq.RejectedAt = timePtr(rejectedAt)
	rq.CancelledAt = timePtr(cancelledAt)
	rq.RejectedBy = uuidPtr(rejectedBy)
	rq.CancelledBy = uuidPtr(cancelledBy)
	return &rq, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func uuidPtr(s sql.NullString) *uuid.UUID {
	if !s.Valid {
		return nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil
	}
	return &id
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) querier() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
