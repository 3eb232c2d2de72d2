package balance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the persistence surface for ledger rows. It speaks raw
// SQL through the caller's transaction so that SELECT ... FOR UPDATE and
// the subsequent write share one scope.
//
//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, b *LeaveBalance) error
	Find(ctx context.Context, key Key) (*LeaveBalance, error)
	// FindForUpdate locks the row until the surrounding transaction
	// commits. Must be called with a bound transaction.
	FindForUpdate(ctx context.Context, key Key) (*LeaveBalance, error)
	SaveQuantities(ctx context.Context, b *LeaveBalance) error
	FindAllByTypeAndYear(ctx context.Context, tenantID, leaveTypeID string, year int) ([]LeaveBalance, error)
	FindAllByEmployeeAndYear(ctx context.Context, tenantID, employeeID string, year int) ([]LeaveBalance, error)
	// SetCarriedForward upserts the target-year row with carried_forward
	// SET (not added), so rollover re-runs converge.
	SetCarriedForward(ctx context.Context, key Key, allocated, carried decimal.Decimal) error
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const balanceColumns = `
	id::text, tenant_id::text, employee_id::text, leave_type_id::text, year,
	allocated, used, pending, carried_forward, last_accrual_date
`

func (r *repository) Create(ctx context.Context, b *LeaveBalance) error {
	query := `
        INSERT INTO leave_balances (
            id, tenant_id, employee_id, leave_type_id, year,
            allocated, used, pending, carried_forward, last_accrual_date
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		b.ID, b.TenantID, b.EmployeeID, b.LeaveTypeID, b.Year,
		b.Allocated, b.Used, b.Pending, b.CarriedForward, b.LastAccrualDate,
	)
	return err
}

func (r *repository) Find(ctx context.Context, key Key) (*LeaveBalance, error) {
	query := `SELECT ` + balanceColumns + `
FROM leave_balances
WHERE tenant_id = $1 AND employee_id = $2 AND leave_type_id = $3 AND year = $4
`
	return r.scanOne(r.querier().QueryRowContext(ctx, query, key.TenantID, key.EmployeeID, key.LeaveTypeID, key.Year))
}

func (r *repository) FindForUpdate(ctx context.Context, key Key) (*LeaveBalance, error) {
	query := `SELECT ` + balanceColumns + `
FROM leave_balances
WHERE tenant_id = $1 AND employee_id = $2 AND leave_type_id = $3 AND year = $4
FOR UPDATE
`
	return r.scanOne(r.querier().QueryRowContext(ctx, query, key.TenantID, key.EmployeeID, key.LeaveTypeID, key.Year))
}

func (r *repository) SaveQuantities(ctx context.Context, b *LeaveBalance) error {
	query := `
UPDATE leave_balances
SET
	allocated = $2,
	used = $3,
	pending = $4,
	carried_forward = $5,
	last_accrual_date = $6,
	updated_at = NOW()
WHERE id = $1
`
	_, err := r.execer().ExecContext(
		ctx, query,
		b.ID, b.Allocated, b.Used, b.Pending, b.CarriedForward, b.LastAccrualDate,
	)
	return err
}

func (r *repository) FindAllByTypeAndYear(ctx context.Context, tenantID, leaveTypeID string, year int) ([]LeaveBalance, error) {
	query := `SELECT ` + balanceColumns + `
FROM leave_balances
WHERE tenant_id = $1 AND leave_type_id = $2 AND year = $3
ORDER BY employee_id
`
	return r.scanMany(ctx, query, tenantID, leaveTypeID, year)
}

func (r *repository) FindAllByEmployeeAndYear(ctx context.Context, tenantID, employeeID string, year int) ([]LeaveBalance, error) {
	query := `SELECT ` + balanceColumns + `
FROM leave_balances
WHERE tenant_id = $1 AND employee_id = $2 AND year = $3
ORDER BY leave_type_id
`
	return r.scanMany(ctx, query, tenantID, employeeID, year)
}

func (r *repository) SetCarriedForward(ctx context.Context, key Key, allocated, carried decimal.Decimal) error {
	query := `
INSERT INTO leave_balances (
	id, tenant_id, employee_id, leave_type_id, year,
	allocated, used, pending, carried_forward
) VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, 0, 0, $6)
ON CONFLICT (tenant_id, employee_id, leave_type_id, year)
DO UPDATE SET carried_forward = EXCLUDED.carried_forward, updated_at = NOW()
`
	_, err := r.execer().ExecContext(
		ctx, query,
		key.TenantID, key.EmployeeID, key.LeaveTypeID, key.Year,
		allocated, carried,
	)
	return err
}

func assignIDs(b *LeaveBalance, id, tenantID, employeeID, leaveTypeID string) {
	b.ID, _ = uuid.Parse(id)
	b.TenantID, _ = uuid.Parse(tenantID)
	b.EmployeeID, _ = uuid.Parse(employeeID)
	b.LeaveTypeID, _ = uuid.Parse(leaveTypeID)
}

func (r *repository) scanOne(row *sql.Row) (*LeaveBalance, error) {
	var b LeaveBalance
	var tenantID, employeeID, leaveTypeID, id string
	var lastAccrual sql.NullTime
	err := row.Scan(
		&id, &tenantID, &employeeID, &leaveTypeID, &b.Year,
		&b.Allocated, &b.Used, &b.Pending, &b.CarriedForward, &lastAccrual,
	)
	if err != nil {
		return nil, err
	}
	assignIDs(&b, id, tenantID, employeeID, leaveTypeID)
	if lastAccrual.Valid {
		t := lastAccrual.Time
		b.LastAccrualDate = &t
	}
	return &b, nil
}

func (r *repository) scanMany(ctx context.Context, query string, args ...any) ([]LeaveBalance, error) {
	rows, err := r.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []LeaveBalance
	for rows.Next() {
		var b LeaveBalance
		var tenantID, employeeID, leaveTypeID, id string
		var lastAccrual sql.NullTime
		if err := rows.Scan(
			&id, &tenantID, &employeeID, &leaveTypeID, &b.Year,
			&b.Allocated, &b.Used, &b.Pending, &b.CarriedForward, &lastAccrual,
		); err != nil {
			return nil, err
		}
		assignIDs(&b, id, tenantID, employeeID, leaveTypeID)
		if lastAccrual.Valid {
			t := lastAccrual.Time
			b.LastAccrualDate = &t
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) querier() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
