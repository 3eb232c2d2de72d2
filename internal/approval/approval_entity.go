package approval

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleManager = "manager"
	RoleHR      = "hr"
	RoleAdmin   = "admin"
)

// ChainLevel is one stage of a tenant's approval workflow. A nil
// LeaveTypeID means the level belongs to the tenant-wide default chain.
type ChainLevel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_approval_chain_level"`
	LeaveTypeID *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_approval_chain_level"`
	Level       int        `gorm:"not null;uniqueIndex:uq_approval_chain_level"`
	Role        string     `gorm:"type:varchar(20);not null"`
	IsRequired  bool       `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmployeeRole grants a named role (hr, admin) to an employee within a
// tenant. Manager authority comes from the org chart, not from here.
type EmployeeRole struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Role       string    `gorm:"type:varchar(20);not null"`

	CreatedAt time.Time
}
