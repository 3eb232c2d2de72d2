package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	balanceerrors "go-tenantops/internal/balance/errors"
	"go-tenantops/internal/leavetype"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Ledger owns every mutation of LeaveBalance quantities. Operations that
// take a *sql.Tx run inside the caller's transaction: the row is locked
// with SELECT ... FOR UPDATE so a concurrent check-then-act on the same
// balance serializes. Releases clamp at zero rather than erroring; the
// clamp is logged so an upstream double-release stays visible.
//
//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Ledger interface {
	// Initialize lazily creates the ledger row for the key, allocating
	// by the leave type's calculation method. Safe under concurrent
	// callers.
	Initialize(ctx context.Context, key Key, lt *leavetype.LeaveType) (*LeaveBalance, error)

	// CanTake locks the row and reports whether quantity fits within
	// available plus the negative allowance. The returned balance stays
	// locked until tx commits.
	CanTake(ctx context.Context, tx *sql.Tx, key Key, quantity, allowance decimal.Decimal) (bool, *LeaveBalance, error)

	ReservePending(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error
	ReleasePending(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error
	CommitUsed(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error
	ReverseUsed(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error

	// Adjust changes the allocated quantity by delta (admin correction).
	Adjust(ctx context.Context, key Key, delta decimal.Decimal) (*LeaveBalance, error)
	Summary(ctx context.Context, tenantID, employeeID string, year int) ([]LeaveBalance, error)
}

type ledger struct {
	db     *sql.DB
	repo   Repository
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewLedger(db *sql.DB, repo Repository, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("balance.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.ledger")
	}
	return &ledger{db: db, repo: repo, sf: &singleflight.Group{}, logger: l}
}

func (l *ledger) Initialize(ctx context.Context, key Key, lt *leavetype.LeaveType) (*LeaveBalance, error) {
	sfKey := fmt.Sprintf("%s:%s:%s:%d", key.TenantID, key.EmployeeID, key.LeaveTypeID, key.Year)

	v, err, _ := l.sf.Do(sfKey, func() (any, error) {
		existing, err := l.repo.Find(ctx, key)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		allocated := decimal.Zero
		if lt.CalculationMethod == leavetype.MethodAnnual {
			allocated = lt.DefaultDaysPerYear
		}

		b := &LeaveBalance{
			ID:             uuid.New(),
			TenantID:       mustUUID(key.TenantID),
			EmployeeID:     mustUUID(key.EmployeeID),
			LeaveTypeID:    mustUUID(key.LeaveTypeID),
			Year:           key.Year,
			Allocated:      allocated,
			Used:           decimal.Zero,
			Pending:        decimal.Zero,
			CarriedForward: decimal.Zero,
		}

		if err := l.repo.Create(ctx, b); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// lost the creation race, read the winner
				return l.repo.Find(ctx, key)
			}
			return nil, err
		}

		l.logger.Info("balance initialized",
			zap.String("tenant_id", key.TenantID),
			zap.String("employee_id", key.EmployeeID),
			zap.String("leave_type_id", key.LeaveTypeID),
			zap.Int("year", key.Year),
			zap.String("allocated", allocated.String()),
		)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*LeaveBalance), nil
}

func (l *ledger) CanTake(ctx context.Context, tx *sql.Tx, key Key, quantity, allowance decimal.Decimal) (bool, *LeaveBalance, error) {
	if quantity.Sign() <= 0 {
		return false, nil, balanceerrors.ErrInvalidQuantity
	}

	b, err := l.lockRow(ctx, tx, key)
	if err != nil {
		return false, nil, err
	}

	ok := quantity.LessThanOrEqual(b.Available().Add(allowance))
	return ok, b, nil
}

func (l *ledger) ReservePending(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error {
	return l.mutate(ctx, tx, key, "reserve_pending", func(b *LeaveBalance) {
		b.Pending = b.Pending.Add(quantity)
	})
}

func (l *ledger) ReleasePending(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error {
	return l.mutate(ctx, tx, key, "release_pending", func(b *LeaveBalance) {
		b.Pending = l.clampSub(b.Pending, quantity, "pending", key)
	})
}

func (l *ledger) CommitUsed(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error {
	return l.mutate(ctx, tx, key, "commit_used", func(b *LeaveBalance) {
		b.Pending = l.clampSub(b.Pending, quantity, "pending", key)
		b.Used = b.Used.Add(quantity)
	})
}

func (l *ledger) ReverseUsed(ctx context.Context, tx *sql.Tx, key Key, quantity decimal.Decimal) error {
	return l.mutate(ctx, tx, key, "reverse_used", func(b *LeaveBalance) {
		b.Used = l.clampSub(b.Used, quantity, "used", key)
	})
}

func (l *ledger) Adjust(ctx context.Context, key Key, delta decimal.Decimal) (*LeaveBalance, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := l.lockRow(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	b.Allocated = b.Allocated.Add(delta)
	if b.Allocated.Sign() < 0 {
		b.Allocated = decimal.Zero
	}

	if err := l.repo.WithTx(tx).SaveQuantities(ctx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	l.logger.Info("balance adjusted",
		zap.String("tenant_id", key.TenantID),
		zap.String("employee_id", key.EmployeeID),
		zap.String("delta", delta.String()),
		zap.String("allocated", b.Allocated.String()),
	)
	return b, nil
}

func (l *ledger) Summary(ctx context.Context, tenantID, employeeID string, year int) ([]LeaveBalance, error) {
	return l.repo.FindAllByEmployeeAndYear(ctx, tenantID, employeeID, year)
}

func (l *ledger) mutate(ctx context.Context, tx *sql.Tx, key Key, op string, apply func(*LeaveBalance)) error {
	b, err := l.lockRow(ctx, tx, key)
	if err != nil {
		return err
	}

	apply(b)

	if err := l.repo.WithTx(tx).SaveQuantities(ctx, b); err != nil {
		l.logger.Error("ledger mutation persist failed",
			zap.String("op", op),
			zap.String("tenant_id", key.TenantID),
			zap.String("employee_id", key.EmployeeID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (l *ledger) lockRow(ctx context.Context, tx *sql.Tx, key Key) (*LeaveBalance, error) {
	repo := l.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	b, err := repo.FindForUpdate(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, balanceerrors.ErrBalanceNotFound
	}
	return b, err
}

func (l *ledger) clampSub(current, quantity decimal.Decimal, field string, key Key) decimal.Decimal {
	next := current.Sub(quantity)
	if next.Sign() >= 0 {
		return next
	}
	l.logger.Warn("ledger clamp to zero",
		zap.String("field", field),
		zap.String("tenant_id", key.TenantID),
		zap.String("employee_id", key.EmployeeID),
		zap.String("leave_type_id", key.LeaveTypeID),
		zap.Int("year", key.Year),
		zap.String("deficit", next.Neg().String()),
	)
	return decimal.Zero
}

func mustUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}
