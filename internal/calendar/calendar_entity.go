package calendar

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WorkSchedule struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(100);not null"`

	Monday    bool `gorm:"not null;default:true"`
	Tuesday   bool `gorm:"not null;default:true"`
	Wednesday bool `gorm:"not null;default:true"`
	Thursday  bool `gorm:"not null;default:true"`
	Friday    bool `gorm:"not null;default:true"`
	Saturday  bool `gorm:"not null;default:false"`
	Sunday    bool `gorm:"not null;default:false"`

	HoursPerDay decimal.Decimal `gorm:"type:decimal(4,2);not null;default:8"`

	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkingWeekdays returns a Monday-first working-day mask.
func (s *WorkSchedule) WorkingWeekdays() [7]bool {
	return [7]bool{s.Monday, s.Tuesday, s.Wednesday, s.Thursday, s.Friday, s.Saturday, s.Sunday}
}

type EmployeeWorkSchedule struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID     uuid.UUID `gorm:"type:uuid;not null;index"`
	WorkScheduleID uuid.UUID `gorm:"type:uuid;not null"`

	EffectiveFrom time.Time  `gorm:"type:date;not null"`
	EffectiveTo   *time.Time `gorm:"type:date"`
	IsActive      bool       `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type PublicHoliday struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_public_holidays_tenant_date"`

	Name        string    `gorm:"type:varchar(100);not null"`
	Date        time.Time `gorm:"type:date;not null;index:idx_public_holidays_tenant_date"`
	IsRecurring bool      `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
