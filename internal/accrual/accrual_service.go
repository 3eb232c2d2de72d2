package accrual

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-tenantops/internal/balance"
	"go-tenantops/internal/employee"
	"go-tenantops/internal/leavetype"
	"go-tenantops/internal/shared/batchlock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Summary reports the outcome of one batch run.
type Summary struct {
	EmployeesProcessed int
	RowsCredited       int
	RowsSkipped        int
	Errors             int
	TotalCredited      decimal.Decimal
}

// Service runs the periodic balance jobs: monthly accrual for ratable
// leave types and year-end carry-forward. Batch runs take a redis lease
// so overlapping scheduler instances do not double-credit.
//
//go:generate mockgen -source=accrual_service.go -destination=mock/accrual_service_mock.go -package=mock
type Service interface {
	// AccrueEmployee credits accrued months for one employee and type.
	// Re-running on the same day is a no-op.
	AccrueEmployee(ctx context.Context, tenantID string, emp *employee.Employee, lt *leavetype.LeaveType, asOf time.Time) (decimal.Decimal, error)

	// AccrueAll runs accrual for every active employee against every
	// accrual-method leave type of the tenant.
	AccrueAll(ctx context.Context, tenantID string, asOf time.Time) (*Summary, error)

	// CarryForward rolls unused balance from fromYear into fromYear+1,
	// capped per leave type. The target year's carried_forward is SET,
	// not added, so re-runs converge on the same value.
	CarryForward(ctx context.Context, tenantID string, fromYear int) (*Summary, error)
}

type service struct {
	db        *sql.DB
	balances  balance.Repository
	types     leavetype.Repository
	employees employee.Repository
	lock      *batchlock.Lock
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	balances balance.Repository,
	types leavetype.Repository,
	employees employee.Repository,
	lock *batchlock.Lock,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("accrual.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("accrual.service")
	}
	return &service{
		db:        db,
		balances:  balances,
		types:     types,
		employees: employees,
		lock:      lock,
		logger:    l,
	}
}

func (s *service) AccrueEmployee(ctx context.Context, tenantID string, emp *employee.Employee, lt *leavetype.LeaveType, asOf time.Time) (decimal.Decimal, error) {
	if lt.CalculationMethod != leavetype.MethodAccrual || lt.AccrualRatePerMonth.Sign() <= 0 {
		return decimal.Zero, nil
	}

	key := balance.Key{
		TenantID:    tenantID,
		EmployeeID:  emp.ID.String(),
		LeaveTypeID: lt.ID.String(),
		Year:        asOf.Year(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	qtx := s.balances.WithTx(tx)
	b, err := qtx.FindForUpdate(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		b = &balance.LeaveBalance{
			ID:          uuid.New(),
			TenantID:    emp.TenantID,
			EmployeeID:  emp.ID,
			LeaveTypeID: lt.ID,
			Year:        asOf.Year(),
		}
		if err := qtx.Create(ctx, b); err != nil {
			return decimal.Zero, err
		}
	} else if err != nil {
		return decimal.Zero, err
	}

	months := s.monthsToCredit(b, emp, asOf)
	if months <= 0 {
		return decimal.Zero, tx.Commit()
	}

	credit := lt.AccrualRatePerMonth.Mul(decimal.NewFromInt(int64(months))).Round(1)
	b.Allocated = b.Allocated.Add(credit)
	accruedAt := asOf
	b.LastAccrualDate = &accruedAt

	if err := qtx.SaveQuantities(ctx, b); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("accrual credited",
		zap.String("tenant_id", tenantID),
		zap.String("employee_id", emp.ID.String()),
		zap.String("leave_type", lt.Code),
		zap.Int("months", months),
		zap.String("credit", credit.String()),
	)
	return credit, nil
}

func (s *service) AccrueAll(ctx context.Context, tenantID string, asOf time.Time) (*Summary, error) {
	release, acquired, err := s.lock.Acquire(ctx, "accrual:"+tenantID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &Summary{}, nil
	}
	defer release()

	types, err := s.types.FindAccrualTypes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	emps, err := s.employees.FindAllByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalCredited: decimal.Zero}
	for i := range emps {
		summary.EmployeesProcessed++
		for j := range types {
			credit, err := s.AccrueEmployee(ctx, tenantID, &emps[i], &types[j], asOf)
			if err != nil {
				// one bad row must not sink the batch
				summary.Errors++
				s.logger.Error("accrual failed for employee",
					zap.String("tenant_id", tenantID),
					zap.String("employee_id", emps[i].ID.String()),
					zap.String("leave_type", types[j].Code),
					zap.Error(err),
				)
				continue
			}
			if credit.Sign() > 0 {
				summary.RowsCredited++
				summary.TotalCredited = summary.TotalCredited.Add(credit)
			} else {
				summary.RowsSkipped++
			}
		}
	}

	s.logger.Info("accrual batch finished",
		zap.String("tenant_id", tenantID),
		zap.Int("employees", summary.EmployeesProcessed),
		zap.Int("credited", summary.RowsCredited),
		zap.Int("errors", summary.Errors),
		zap.String("total", summary.TotalCredited.String()),
	)
	return summary, nil
}

func (s *service) CarryForward(ctx context.Context, tenantID string, fromYear int) (*Summary, error) {
	release, acquired, err := s.lock.Acquire(ctx, "carryforward:"+tenantID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &Summary{}, nil
	}
	defer release()

	types, err := s.types.FindCarryForwardTypes(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalCredited: decimal.Zero}
	for i := range types {
		lt := &types[i]
		rows, err := s.balances.FindAllByTypeAndYear(ctx, tenantID, lt.ID.String(), fromYear)
		if err != nil {
			summary.Errors++
			s.logger.Error("carry-forward scan failed",
				zap.String("tenant_id", tenantID),
				zap.String("leave_type", lt.Code),
				zap.Error(err),
			)
			continue
		}

		for k := range rows {
			row := &rows[k]
			carried := row.Available()
			if carried.Sign() < 0 {
				carried = decimal.Zero
			}
			if carried.GreaterThan(lt.MaxCarryForwardDays) {
				carried = lt.MaxCarryForwardDays
			}

			allocated := decimal.Zero
			if lt.CalculationMethod == leavetype.MethodAnnual {
				allocated = lt.DefaultDaysPerYear
			}
			target := balance.Key{
				TenantID:    tenantID,
				EmployeeID:  row.EmployeeID.String(),
				LeaveTypeID: lt.ID.String(),
				Year:        fromYear + 1,
			}
			if err := s.balances.SetCarriedForward(ctx, target, allocated, carried); err != nil {
				summary.Errors++
				s.logger.Error("carry-forward write failed",
					zap.String("tenant_id", tenantID),
					zap.String("employee_id", row.EmployeeID.String()),
					zap.Error(err),
				)
				continue
			}
			summary.RowsCredited++
			summary.TotalCredited = summary.TotalCredited.Add(carried)
		}
	}

	s.logger.Info("carry-forward finished",
		zap.String("tenant_id", tenantID),
		zap.Int("from_year", fromYear),
		zap.Int("rows", summary.RowsCredited),
		zap.Int("errors", summary.Errors),
		zap.String("total", summary.TotalCredited.String()),
	)
	return summary, nil
}

// monthsToCredit counts the whole months owed to the row since the last
// accrual, anchored on the later of the employee's join date and the
// start of the balance year.
func (s *service) monthsToCredit(b *balance.LeaveBalance, emp *employee.Employee, asOf time.Time) int {
	anchor := time.Date(b.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if emp.JoinedAt.After(anchor) {
		anchor = emp.JoinedAt
	}
	if b.LastAccrualDate != nil && b.LastAccrualDate.After(anchor) {
		anchor = *b.LastAccrualDate
	}
	if !asOf.After(anchor) {
		return 0
	}

	months := (asOf.Year()-anchor.Year())*12 + int(asOf.Month()) - int(anchor.Month())
	if asOf.Day() < anchor.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
