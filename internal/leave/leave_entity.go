package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	DurationFullDay       = "full_day"
	DurationHalfMorning   = "half_day_morning"
	DurationHalfAfternoon = "half_day_afternoon"
	DurationHours         = "hours"
)

// Request is a single leave request moving through the approval chain.
// CurrentLevel counts how many chain levels have already signed off;
// ChainLength is frozen at submit time so later chain edits cannot
// strand an in-flight request.
type Request struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	EmployeeID  uuid.UUID
	LeaveTypeID uuid.UUID

	StartDate    time.Time
	EndDate      time.Time
	DurationType string
	// RequestedHours is set only for DurationHours requests.
	RequestedHours *decimal.Decimal
	TotalDays      decimal.Decimal
	WorkingDays    decimal.Decimal

	Reason        string
	AttachmentURL string

	Status       string
	CurrentLevel int
	ChainLength  int

	SubmittedAt *time.Time
	ApprovedAt  *time.Time

	RejectedBy      *uuid.UUID
	RejectedAt      *time.Time
	RejectionReason string

	CancelledBy        *uuid.UUID
	CancelledAt        *time.Time
	CancellationReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether the request can no longer change status.
func (r *Request) IsTerminal() bool {
	switch r.Status {
	case StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Occupies reports whether the request still reserves or consumes its
// date range. Used for the overlap and cancellation checks.
func (r *Request) Occupies() bool {
	return !r.IsTerminal()
}

// ApprovalRecord is the audit row written each time a chain level
// approves a request.
type ApprovalRecord struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	Level      int
	ApproverID uuid.UUID
	Role       string
	Comments   string
	ApprovedAt time.Time
}
