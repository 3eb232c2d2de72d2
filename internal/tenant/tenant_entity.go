package tenant

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Subdomain string    `gorm:"type:varchar(63);uniqueIndex"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaveSettings holds the tenant-wide leave policy. Missing rows fall
// back to DefaultLeaveSettings.
type LeaveSettings struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	RequireManagerApproval bool      `gorm:"not null;default:true"`
	RequireHRApproval      bool      `gorm:"not null;default:false"`
	AllowNegativeBalance   bool      `gorm:"not null;default:false"`
	MaxNegativeDays        decimal.Decimal `gorm:"type:decimal(5,1);not null;default:0"`
	ExcludePublicHolidays  bool      `gorm:"not null;default:true"`
	HoursPerWorkingDay     decimal.Decimal `gorm:"type:decimal(4,2);not null;default:8"`

	// Default weekend when the employee has no work schedule assigned.
	SaturdayOff bool `gorm:"not null;default:true"`
	SundayOff   bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func DefaultLeaveSettings(tenantID uuid.UUID) LeaveSettings {
	return LeaveSettings{
		TenantID:               tenantID,
		RequireManagerApproval: true,
		MaxNegativeDays:        decimal.Zero,
		ExcludePublicHolidays:  true,
		HoursPerWorkingDay:     decimal.NewFromInt(8),
		SaturdayOff:            true,
		SundayOff:              true,
	}
}

// NegativeAllowance is the quantity a balance may go below zero.
func (s LeaveSettings) NegativeAllowance() decimal.Decimal {
	if !s.AllowNegativeBalance {
		return decimal.Zero
	}
	return s.MaxNegativeDays
}
