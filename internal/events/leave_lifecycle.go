package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveSubmitted = "leave.submitted"
	LeaveApproved  = "leave.approved"
	LeaveRejected  = "leave.rejected"
	LeaveCancelled = "leave.cancelled"
)

type LeaveLifecycleEvent struct {
	EventType   string    `json:"event_type"`
	TenantID    string    `json:"tenant_id"`
	RequestID   string    `json:"request_id"`
	EmployeeID  string    `json:"employee_id"`
	LeaveTypeID string    `json:"leave_type_id"`
	Status      string    `json:"status"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	WorkingDays string    `json:"working_days"`
	ActorID     string    `json:"actor_id,omitempty"`
	Comments    string    `json:"comments,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
