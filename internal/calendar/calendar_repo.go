package calendar

import (
	"context"
	"errors"
	"time"

	"go-tenantops/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=calendar_repo.go -destination=mock/calendar_repo_mock.go -package=mock
type Repository interface {
	// ActiveScheduleFor returns the employee's assigned schedule, or nil
	// when none is assigned (callers fall back to the default week).
	ActiveScheduleFor(ctx context.Context, tenantID, employeeID string) (*WorkSchedule, error)
	HolidayDatesInRange(ctx context.Context, tenantID string, from, to time.Time) ([]time.Time, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveScheduleFor(ctx context.Context, tenantID, employeeID string) (*WorkSchedule, error) {
	var assignment EmployeeWorkSchedule
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("employee_id = ?", employeeID).
		Where("is_active = ?", true).
		Order("effective_from DESC").
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var schedule WorkSchedule
	err = r.db.WithContext(ctx).
		First(&schedule, "id = ?", assignment.WorkScheduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &schedule, err
}

func (r *repository) HolidayDatesInRange(ctx context.Context, tenantID string, from, to time.Time) ([]time.Time, error) {
	var holidays []PublicHoliday
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("date >= ? AND date <= ?", from, to).
		Find(&holidays).Error
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	return dates, nil
}
