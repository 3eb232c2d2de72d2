package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is one ledger row per (tenant, employee, leave type,
// year). Quantities are days with one-decimal granularity and are only
// mutated through Ledger operations.
type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_row"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_row"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_row"`
	Year        int       `gorm:"not null;uniqueIndex:uq_leave_balances_row"`

	Allocated      decimal.Decimal `gorm:"type:decimal(5,1);not null;default:0"`
	Used           decimal.Decimal `gorm:"type:decimal(5,1);not null;default:0"`
	Pending        decimal.Decimal `gorm:"type:decimal(5,1);not null;default:0"`
	CarriedForward decimal.Decimal `gorm:"type:decimal(5,1);not null;default:0"`

	LastAccrualDate *time.Time `gorm:"type:date"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available is allocated + carried forward - used - pending.
func (b *LeaveBalance) Available() decimal.Decimal {
	return b.Allocated.Add(b.CarriedForward).Sub(b.Used).Sub(b.Pending)
}

// Key identifies a ledger row.
type Key struct {
	TenantID    string
	EmployeeID  string
	LeaveTypeID string
	Year        int
}
