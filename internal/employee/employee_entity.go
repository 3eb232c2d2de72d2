package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

type Employee struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ManagerID *uuid.UUID `gorm:"type:uuid"`
	FullName  string
	Email     string `gorm:"uniqueIndex"`
	Gender    string `gorm:"type:varchar(10)"`

	JoinedAt       time.Time `gorm:"type:date;not null"`
	OnProbation    bool      `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// ServiceMonths is the whole months of tenure as of the given date.
func (e *Employee) ServiceMonths(asOf time.Time) int {
	if asOf.Before(e.JoinedAt) {
		return 0
	}
	months := (asOf.Year()-e.JoinedAt.Year())*12 + int(asOf.Month()) - int(e.JoinedAt.Month())
	if asOf.Day() < e.JoinedAt.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
