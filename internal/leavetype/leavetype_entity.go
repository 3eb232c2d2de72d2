package leavetype

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculation methods for annual balance allocation.
const (
	MethodAnnual  = "annual"  // fixed allocation at year start
	MethodAccrual = "accrual" // accrues monthly
	MethodManual  = "manual"  // assigned by an administrator
)

const (
	CategoryAnnual       = "annual"
	CategorySick         = "sick"
	CategoryMaternity    = "maternity"
	CategoryPaternity    = "paternity"
	CategoryPersonal     = "personal"
	CategoryEmergency    = "emergency"
	CategoryStudy        = "study"
	CategoryUnpaid       = "unpaid"
	CategoryCompensation = "compensation"
	CategoryBereavement  = "bereavement"
)

const (
	GenderAll    = "all"
	GenderMale   = "male"
	GenderFemale = "female"
)

type LeaveType struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_types_tenant_active"`

	Name     string `gorm:"type:varchar(100);not null"`
	Code     string `gorm:"type:varchar(20);not null;uniqueIndex:uq_leave_types_tenant_code"`
	Category string `gorm:"type:varchar(20);not null;default:'annual'"`

	IsPaid            bool   `gorm:"not null;default:true"`
	RequiresApproval  bool   `gorm:"not null;default:true"`
	CalculationMethod string `gorm:"type:varchar(20);not null;default:'annual'"`

	DefaultDaysPerYear  decimal.Decimal `gorm:"type:decimal(5,1);not null;default:0"`
	AccrualRatePerMonth decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`

	MaxCarryForwardDays      decimal.Decimal `gorm:"type:decimal(5,1);not null;default:0"`
	CarryForwardExpiryMonths int             `gorm:"not null;default:0"`

	MinNoticeDays      int  `gorm:"not null;default:7"`
	MaxConsecutiveDays *int `gorm:""`

	MinimumServiceMonths   int    `gorm:"not null;default:0"`
	AvailableOnProbation   bool   `gorm:"not null;default:true"`
	GenderRestriction      string `gorm:"type:varchar(10);not null;default:'all'"`

	IsActive  bool `gorm:"not null;default:true;index:idx_leave_types_tenant_active"`
	SortOrder int  `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoticeExempt reports whether the minimum-notice rule is skipped for
// this type. Emergency leave can always be taken at short notice.
func (t *LeaveType) NoticeExempt() bool {
	return t.Category == CategoryEmergency
}
