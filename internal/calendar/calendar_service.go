package calendar

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HalfDay is the quantity consumed by a half-day request regardless of
// the schedule calendar.
var HalfDay = decimal.NewFromFloat(0.5)

// defaultWeek is Monday through Friday, used when an employee has no
// schedule assigned.
var defaultWeek = [7]bool{true, true, true, true, true, false, false}

//go:generate mockgen -source=calendar_service.go -destination=mock/calendar_service_mock.go -package=mock
type Service interface {
	// WorkingDays counts working days in [start, end] for the employee's
	// schedule, optionally excluding the tenant's public holidays.
	WorkingDays(ctx context.Context, tenantID, employeeID string, start, end time.Time, excludeHolidays bool) (decimal.Decimal, error)
	// HoursPerDay returns the employee's configured working hours per day.
	HoursPerDay(ctx context.Context, tenantID, employeeID string) (decimal.Decimal, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("calendar.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("calendar.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) WorkingDays(ctx context.Context, tenantID, employeeID string, start, end time.Time, excludeHolidays bool) (decimal.Decimal, error) {
	if start.After(end) {
		return decimal.Zero, nil
	}

	week := defaultWeek
	schedule, err := s.repo.ActiveScheduleFor(ctx, tenantID, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	if schedule != nil {
		week = schedule.WorkingWeekdays()
	}

	holidays := map[string]struct{}{}
	if excludeHolidays {
		dates, err := s.repo.HolidayDatesInRange(ctx, tenantID, start, end)
		if err != nil {
			return decimal.Zero, err
		}
		for _, d := range dates {
			holidays[dayKey(d)] = struct{}{}
		}
	}

	return CountWorkingDays(start, end, week, holidays), nil
}

func (s *service) HoursPerDay(ctx context.Context, tenantID, employeeID string) (decimal.Decimal, error) {
	schedule, err := s.repo.ActiveScheduleFor(ctx, tenantID, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	if schedule == nil || schedule.HoursPerDay.IsZero() {
		return decimal.NewFromInt(8), nil
	}
	return schedule.HoursPerDay, nil
}

// CountWorkingDays walks [start, end] inclusive counting dates whose
// weekday is working and which are not in the holiday set. week is
// Monday-first.
func CountWorkingDays(start, end time.Time, week [7]bool, holidays map[string]struct{}) decimal.Decimal {
	count := int64(0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		// time.Weekday is Sunday-first
		idx := (int(d.Weekday()) + 6) % 7
		if !week[idx] {
			continue
		}
		if _, holiday := holidays[dayKey(d)]; holiday {
			continue
		}
		count++
	}
	return decimal.NewFromInt(count)
}

// DayFractionFromHours converts requested hours to a day fraction
// rounded to one decimal.
func DayFractionFromHours(hours, hoursPerDay decimal.Decimal) decimal.Decimal {
	if hoursPerDay.IsZero() {
		return decimal.Zero
	}
	return hours.Div(hoursPerDay).Round(1)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
