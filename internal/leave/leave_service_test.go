package leave_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-tenantops/internal/approval"
	"go-tenantops/internal/balance"
	"go-tenantops/internal/employee"
	"go-tenantops/internal/leave"
	leaveerrors "go-tenantops/internal/leave/errors"
	"go-tenantops/internal/leavetype"
	"go-tenantops/internal/notify"
	"go-tenantops/internal/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeLeaveRepo struct {
	requests map[string]*leave.Request
	records  []leave.ApprovalRecord
	overlap  bool
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{requests: map[string]*leave.Request{}}
}

func (f *fakeLeaveRepo) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepo) Create(ctx context.Context, rq *leave.Request) error {
	cp := *rq
	f.requests[rq.ID.String()] = &cp
	return nil
}

func (f *fakeLeaveRepo) FindByIDAndTenant(ctx context.Context, tenantID, id string) (*leave.Request, error) {
	rq, ok := f.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *rq
	return &cp, nil
}

func (f *fakeLeaveRepo) FindForUpdate(ctx context.Context, tenantID, id string) (*leave.Request, error) {
	return f.FindByIDAndTenant(ctx, tenantID, id)
}

func (f *fakeLeaveRepo) Update(ctx context.Context, rq *leave.Request) error {
	cp := *rq
	f.requests[rq.ID.String()] = &cp
	return nil
}

func (f *fakeLeaveRepo) HasOverlapping(ctx context.Context, tenantID, employeeID string, start, end time.Time, excludeID string) (bool, error) {
	return f.overlap, nil
}

func (f *fakeLeaveRepo) FindAllByEmployee(ctx context.Context, tenantID, employeeID string) ([]leave.Request, error) {
	var out []leave.Request
	for _, rq := range f.requests {
		out = append(out, *rq)
	}
	return out, nil
}

func (f *fakeLeaveRepo) AddApprovalRecord(ctx context.Context, rec *leave.ApprovalRecord) error {
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeLeaveRepo) ApprovalRecords(ctx context.Context, requestID string) ([]leave.ApprovalRecord, error) {
	return f.records, nil
}

type fakeTypeRepo struct {
	lt *leavetype.LeaveType
}

func (f *fakeTypeRepo) Create(ctx context.Context, t *leavetype.LeaveType) error { return nil }
func (f *fakeTypeRepo) FindByIDAndTenant(ctx context.Context, tenantID, id string) (*leavetype.LeaveType, error) {
	if f.lt == nil {
		return nil, sql.ErrNoRows
	}
	return f.lt, nil
}
func (f *fakeTypeRepo) FindAllByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]leavetype.LeaveType, error) {
	return nil, nil
}
func (f *fakeTypeRepo) FindAccrualTypes(ctx context.Context, tenantID string) ([]leavetype.LeaveType, error) {
	return nil, nil
}
func (f *fakeTypeRepo) FindCarryForwardTypes(ctx context.Context, tenantID string) ([]leavetype.LeaveType, error) {
	return nil, nil
}
func (f *fakeTypeRepo) Update(ctx context.Context, t *leavetype.LeaveType) error { return nil }
func (f *fakeTypeRepo) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	return nil
}
func (f *fakeTypeRepo) Delete(ctx context.Context, tenantID, id string) error { return nil }
func (f *fakeTypeRepo) IsReferenced(ctx context.Context, tenantID, id string) (bool, error) {
	return false, nil
}

type fakeEmployeeRepo struct {
	emp *employee.Employee
}

func (f *fakeEmployeeRepo) FindByIDAndTenant(ctx context.Context, tenantID, id string) (*employee.Employee, error) {
	return f.emp, nil
}
func (f *fakeEmployeeRepo) FindAllByTenant(ctx context.Context, tenantID string) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) ManagerOf(ctx context.Context, tenantID, employeeID string) (*employee.Employee, error) {
	return nil, nil
}

type fakeTenantRepo struct {
	settings tenant.LeaveSettings
}

func (f *fakeTenantRepo) FindByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return &tenant.Tenant{IsActive: true}, nil
}
func (f *fakeTenantRepo) FindAllActive(ctx context.Context) ([]tenant.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantRepo) Deactivate(ctx context.Context, tenantID string) error { return nil }
func (f *fakeTenantRepo) GetLeaveSettings(ctx context.Context, tenantID string) (tenant.LeaveSettings, error) {
	return f.settings, nil
}
func (f *fakeTenantRepo) SaveLeaveSettings(ctx context.Context, settings *tenant.LeaveSettings) error {
	return nil
}

type fakeLedger struct {
	canTake  bool
	reserves []decimal.Decimal
	releases []decimal.Decimal
	commits  []decimal.Decimal
	reverses []decimal.Decimal
}

func (f *fakeLedger) Initialize(ctx context.Context, key balance.Key, lt *leavetype.LeaveType) (*balance.LeaveBalance, error) {
	return &balance.LeaveBalance{}, nil
}
func (f *fakeLedger) CanTake(ctx context.Context, tx *sql.Tx, key balance.Key, quantity, allowance decimal.Decimal) (bool, *balance.LeaveBalance, error) {
	return f.canTake, &balance.LeaveBalance{}, nil
}
func (f *fakeLedger) ReservePending(ctx context.Context, tx *sql.Tx, key balance.Key, quantity decimal.Decimal) error {
	f.reserves = append(f.reserves, quantity)
	return nil
}
func (f *fakeLedger) ReleasePending(ctx context.Context, tx *sql.Tx, key balance.Key, quantity decimal.Decimal) error {
	f.releases = append(f.releases, quantity)
	return nil
}
func (f *fakeLedger) CommitUsed(ctx context.Context, tx *sql.Tx, key balance.Key, quantity decimal.Decimal) error {
	f.commits = append(f.commits, quantity)
	return nil
}
func (f *fakeLedger) ReverseUsed(ctx context.Context, tx *sql.Tx, key balance.Key, quantity decimal.Decimal) error {
	f.reverses = append(f.reverses, quantity)
	return nil
}
func (f *fakeLedger) Adjust(ctx context.Context, key balance.Key, delta decimal.Decimal) (*balance.LeaveBalance, error) {
	return nil, nil
}
func (f *fakeLedger) Summary(ctx context.Context, tenantID, employeeID string, year int) ([]balance.LeaveBalance, error) {
	return nil, nil
}

type fakeResolver struct {
	chain      []approval.Level
	canApprove bool
	denyReason string
}

func (f *fakeResolver) ChainFor(ctx context.Context, tenantID string, lt *leavetype.LeaveType, settings tenant.LeaveSettings) ([]approval.Level, error) {
	return f.chain, nil
}
func (f *fakeResolver) NextRole(chain []approval.Level, currentLevel int) (string, bool) {
	for _, l := range chain {
		if l.Level > currentLevel {
			return l.Role, true
		}
	}
	return "", false
}
func (f *fakeResolver) CanActorApprove(ctx context.Context, tenantID, actorID, employeeID string, chain []approval.Level, currentLevel int) (bool, string, error) {
	return f.canApprove, f.denyReason, nil
}

type fakeRoles struct {
	admins map[string]bool
}

func (f *fakeRoles) HasRole(ctx context.Context, tenantID, actorID, role string) (bool, error) {
	return f.admins[actorID], nil
}

type fakeCalendar struct {
	workingDays decimal.Decimal
	hoursPerDay decimal.Decimal
}

func (f *fakeCalendar) WorkingDays(ctx context.Context, tenantID, employeeID string, start, end time.Time, excludeHolidays bool) (decimal.Decimal, error) {
	return f.workingDays, nil
}
func (f *fakeCalendar) HoursPerDay(ctx context.Context, tenantID, employeeID string) (decimal.Decimal, error) {
	return f.hoursPerDay, nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) WithTx(tx *sql.Tx) notify.Notifier { return n }
func (n *recordingNotifier) Notify(ctx context.Context, event notify.Event) {
	n.events = append(n.events, event.Name)
}

// --- harness ---

type deps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	repo     *fakeLeaveRepo
	types    *fakeTypeRepo
	emps     *fakeEmployeeRepo
	tenants  *fakeTenantRepo
	ledger   *fakeLedger
	resolver *fakeResolver
	roles    *fakeRoles
	cal      *fakeCalendar
	notifier *recordingNotifier
	service  leave.Service
	tenantID string
	emp      *employee.Employee
}

func setup(t *testing.T) *deps {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tenantID := uuid.New()
	empID := uuid.New()
	emp := &employee.Employee{
		ID:       empID,
		TenantID: tenantID,
		Gender:   "female",
		JoinedAt: time.Now().AddDate(-2, 0, 0),
	}

	d := &deps{
		db:      db,
		sqlMock: mock,
		repo:    newFakeLeaveRepo(),
		types: &fakeTypeRepo{lt: &leavetype.LeaveType{
			ID:                   uuid.New(),
			TenantID:             tenantID,
			Code:                 "annual",
			Name:                 "Annual Leave",
			CalculationMethod:    leavetype.MethodAnnual,
			DefaultDaysPerYear:   decimal.NewFromInt(20),
			RequiresApproval:     true,
			MinNoticeDays:        0,
			AvailableOnProbation: true,
			GenderRestriction:    leavetype.GenderAll,
			IsActive:             true,
		}},
		emps:     &fakeEmployeeRepo{emp: emp},
		tenants:  &fakeTenantRepo{settings: tenant.LeaveSettings{}},
		ledger:   &fakeLedger{canTake: true},
		resolver: &fakeResolver{canApprove: true},
		roles:    &fakeRoles{admins: map[string]bool{}},
		cal:      &fakeCalendar{workingDays: decimal.NewFromInt(3), hoursPerDay: decimal.NewFromInt(8)},
		notifier: &recordingNotifier{},
		tenantID: tenantID.String(),
		emp:      emp,
	}
	d.service = leave.NewService(
		db, d.repo, d.types, d.emps, d.tenants,
		d.ledger, d.resolver, d.roles, d.cal, d.notifier,
	)
	return d
}

func (d *deps) draft(t *testing.T) *leave.Request {
	t.Helper()
	start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	rq, err := d.service.Create(context.Background(), d.tenantID, d.emp.ID.String(), leave.CreateRequestInput{
		EmployeeID:   d.emp.ID.String(),
		LeaveTypeID:  d.types.lt.ID.String(),
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 4),
		DurationType: leave.DurationFullDay,
		Reason:       "family trip",
	})
	require.NoError(t, err)
	return rq
}

func (d *deps) expectTx(commit bool) {
	d.sqlMock.ExpectBegin()
	if commit {
		d.sqlMock.ExpectCommit()
	} else {
		d.sqlMock.ExpectRollback()
	}
}

// --- tests ---

func TestLeaveServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("draft carries computed working days", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		assert.Equal(t, leave.StatusDraft, rq.Status)
		assert.True(t, rq.WorkingDays.Equal(decimal.NewFromInt(3)))
		assert.True(t, rq.TotalDays.Equal(decimal.NewFromInt(5)))
	})

	t.Run("half-day spanning two dates is rejected", func(t *testing.T) {
		d := setup(t)
		start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)

		_, err := d.service.Create(ctx, d.tenantID, d.emp.ID.String(), leave.CreateRequestInput{
			EmployeeID:   d.emp.ID.String(),
			LeaveTypeID:  d.types.lt.ID.String(),
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, 1),
			DurationType: leave.DurationHalfMorning,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrHalfDaySingleDay)
	})

	t.Run("half-day consumes exactly half a day", func(t *testing.T) {
		d := setup(t)
		start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)

		rq, err := d.service.Create(ctx, d.tenantID, d.emp.ID.String(), leave.CreateRequestInput{
			EmployeeID:   d.emp.ID.String(),
			LeaveTypeID:  d.types.lt.ID.String(),
			StartDate:    start,
			EndDate:      start,
			DurationType: leave.DurationHalfAfternoon,
		})
		require.NoError(t, err)
		assert.Equal(t, "0.5", rq.WorkingDays.String())
	})

	t.Run("hours convert through the schedule", func(t *testing.T) {
		d := setup(t)
		start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)

		rq, err := d.service.Create(ctx, d.tenantID, d.emp.ID.String(), leave.CreateRequestInput{
			EmployeeID:     d.emp.ID.String(),
			LeaveTypeID:    d.types.lt.ID.String(),
			StartDate:      start,
			EndDate:        start,
			DurationType:   leave.DurationHours,
			RequestedHours: decimal.NewFromInt(4),
		})
		require.NoError(t, err)
		assert.Equal(t, "0.5", rq.WorkingDays.String())
	})

	t.Run("past start date is rejected", func(t *testing.T) {
		d := setup(t)
		start := time.Now().AddDate(0, 0, -2)

		_, err := d.service.Create(ctx, d.tenantID, d.emp.ID.String(), leave.CreateRequestInput{
			EmployeeID:   d.emp.ID.String(),
			LeaveTypeID:  d.types.lt.ID.String(),
			StartDate:    start,
			EndDate:      start,
			DurationType: leave.DurationFullDay,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrPastStartDate)
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		d := setup(t)
		start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)

		_, err := d.service.Create(ctx, d.tenantID, d.emp.ID.String(), leave.CreateRequestInput{
			EmployeeID:   d.emp.ID.String(),
			LeaveTypeID:  d.types.lt.ID.String(),
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, -1),
			DurationType: leave.DurationFullDay,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})
}

func TestLeaveServiceSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves pending and enters the chain", func(t *testing.T) {
		d := setup(t)
		d.resolver.chain = []approval.Level{
			{Level: 1, Role: approval.RoleManager},
			{Level: 2, Role: approval.RoleHR},
		}
		rq := d.draft(t)

		d.expectTx(true)
		got, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)

		assert.Equal(t, leave.StatusSubmitted, got.Status)
		assert.Equal(t, 0, got.CurrentLevel)
		assert.Equal(t, 2, got.ChainLength)
		require.Len(t, d.ledger.reserves, 1)
		assert.True(t, d.ledger.reserves[0].Equal(decimal.NewFromInt(3)))
		assert.Empty(t, d.ledger.commits)
		assert.Equal(t, []string{"leave.submitted"}, d.notifier.events)
	})

	t.Run("empty chain auto-approves and commits usage", func(t *testing.T) {
		d := setup(t)
		d.resolver.chain = nil
		rq := d.draft(t)

		d.expectTx(true)
		got, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)

		assert.Equal(t, leave.StatusApproved, got.Status)
		require.NotNil(t, got.ApprovedAt)
		require.Len(t, d.ledger.reserves, 1)
		require.Len(t, d.ledger.commits, 1)
		assert.Equal(t, []string{"leave.approved"}, d.notifier.events)
	})

	t.Run("insufficient balance leaves the ledger untouched", func(t *testing.T) {
		d := setup(t)
		d.ledger.canTake = false
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assert.Empty(t, d.ledger.reserves)

		stored, _ := d.repo.FindByIDAndTenant(ctx, d.tenantID, rq.ID.String())
		assert.Equal(t, leave.StatusDraft, stored.Status)
	})

	t.Run("overlap is rejected", func(t *testing.T) {
		d := setup(t)
		d.repo.overlap = true
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrOverlappingRequest)
	})

	t.Run("short notice is rejected", func(t *testing.T) {
		d := setup(t)
		d.types.lt.MinNoticeDays = 30
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientNotice)
	})

	t.Run("emergency category skips the notice rule", func(t *testing.T) {
		d := setup(t)
		d.types.lt.MinNoticeDays = 30
		d.types.lt.Category = leavetype.CategoryEmergency
		rq := d.draft(t)

		d.expectTx(true)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.NoError(t, err)
	})

	t.Run("probation blocks restricted types", func(t *testing.T) {
		d := setup(t)
		d.emp.OnProbation = true
		d.types.lt.AvailableOnProbation = false
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrProbationNotEligible)
	})

	t.Run("gender restriction applies", func(t *testing.T) {
		d := setup(t)
		d.types.lt.GenderRestriction = leavetype.GenderMale
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrGenderRestricted)
	})

	t.Run("max consecutive days applies to the calendar span", func(t *testing.T) {
		d := setup(t)
		three := 3
		d.types.lt.MaxConsecutiveDays = &three
		rq := d.draft(t) // spans five calendar days

		d.expectTx(false)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrMaxConsecutiveExceeded)
	})

	t.Run("submit twice is an invalid transition", func(t *testing.T) {
		d := setup(t)
		d.resolver.chain = []approval.Level{{Level: 1, Role: approval.RoleManager}}
		rq := d.draft(t)

		d.expectTx(true)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)

		d.expectTx(false)
		_, err = d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
	})
}

func TestLeaveServiceApprove(t *testing.T) {
	ctx := context.Background()

	submitWithChain := func(t *testing.T, d *deps, chain []approval.Level) *leave.Request {
		t.Helper()
		d.resolver.chain = chain
		rq := d.draft(t)
		d.expectTx(true)
		got, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)
		return got
	}

	twoLevels := []approval.Level{
		{Level: 1, Role: approval.RoleManager},
		{Level: 2, Role: approval.RoleHR},
	}

	t.Run("intermediate approval advances the level only", func(t *testing.T) {
		d := setup(t)
		rq := submitWithChain(t, d, twoLevels)

		d.expectTx(true)
		got, err := d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "ok by me")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusSubmitted, got.Status)
		assert.Equal(t, 1, got.CurrentLevel)
		assert.Empty(t, d.ledger.commits)
		require.Len(t, d.repo.records, 1)
		assert.Equal(t, 1, d.repo.records[0].Level)
	})

	t.Run("final approval commits usage", func(t *testing.T) {
		d := setup(t)
		rq := submitWithChain(t, d, twoLevels)

		d.expectTx(true)
		_, err := d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "")
		require.NoError(t, err)

		d.expectTx(true)
		got, err := d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "granted")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusApproved, got.Status)
		require.NotNil(t, got.ApprovedAt)
		require.Len(t, d.ledger.commits, 1)
		assert.True(t, d.ledger.commits[0].Equal(decimal.NewFromInt(3)))
		assert.Len(t, d.repo.records, 2)
		assert.Contains(t, d.notifier.events, "leave.approved")
	})

	t.Run("chain grown after submit does not move the finish line", func(t *testing.T) {
		d := setup(t)
		rq := submitWithChain(t, d, twoLevels)

		// A third level added mid-flight must not strand the request:
		// finality follows the length frozen at submit time.
		d.resolver.chain = append(twoLevels, approval.Level{Level: 3, Role: approval.RoleAdmin})

		d.expectTx(true)
		_, err := d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "")
		require.NoError(t, err)

		d.expectTx(true)
		got, err := d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "granted")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusApproved, got.Status)
		require.Len(t, d.ledger.commits, 1)
	})

	t.Run("unauthorized actor is refused", func(t *testing.T) {
		d := setup(t)
		rq := submitWithChain(t, d, twoLevels)
		d.resolver.canApprove = false
		d.resolver.denyReason = "you are not the employee's manager"

		d.expectTx(false)
		_, err := d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "")
		assert.ErrorIs(t, err, leaveerrors.ErrNotAuthorized)
	})

	t.Run("approving an approved request is an invalid transition", func(t *testing.T) {
		d := setup(t)
		rq := submitWithChain(t, d, []approval.Level{{Level: 1, Role: approval.RoleManager}})

		d.expectTx(true)
		_, err := d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "")
		require.NoError(t, err)

		d.expectTx(false)
		_, err = d.service.Approve(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "")
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
	})
}

func TestLeaveServiceReject(t *testing.T) {
	ctx := context.Background()

	submitted := func(t *testing.T, d *deps) *leave.Request {
		t.Helper()
		d.resolver.chain = []approval.Level{{Level: 1, Role: approval.RoleManager}}
		rq := d.draft(t)
		d.expectTx(true)
		got, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)
		return got
	}

	t.Run("releases the reservation and records why", func(t *testing.T) {
		d := setup(t)
		rq := submitted(t, d)
		actor := uuid.New().String()

		d.expectTx(true)
		got, err := d.service.Reject(ctx, d.tenantID, actor, rq.ID.String(), "dates clash with the release")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusRejected, got.Status)
		assert.Equal(t, "dates clash with the release", got.RejectionReason)
		require.NotNil(t, got.RejectedBy)
		assert.Equal(t, actor, got.RejectedBy.String())
		require.Len(t, d.ledger.releases, 1)
		assert.True(t, d.ledger.releases[0].Equal(decimal.NewFromInt(3)))
		assert.Contains(t, d.notifier.events, "leave.rejected")
	})

	t.Run("comments are mandatory", func(t *testing.T) {
		d := setup(t)
		rq := submitted(t, d)

		_, err := d.service.Reject(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "")
		assert.ErrorIs(t, err, leaveerrors.ErrCommentsRequired)
		assert.Empty(t, d.ledger.releases)
	})

	t.Run("draft cannot be rejected", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.Reject(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "nope")
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
	})
}

func TestLeaveServiceCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelling a submitted request releases pending", func(t *testing.T) {
		d := setup(t)
		d.resolver.chain = []approval.Level{{Level: 1, Role: approval.RoleManager}}
		rq := d.draft(t)
		d.expectTx(true)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)

		d.expectTx(true)
		got, err := d.service.Cancel(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), "plans changed")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusCancelled, got.Status)
		require.Len(t, d.ledger.releases, 1)
		assert.Empty(t, d.ledger.reverses)
	})

	t.Run("cancelling an approved request reverses usage", func(t *testing.T) {
		d := setup(t)
		d.resolver.chain = nil // auto-approve on submit
		rq := d.draft(t)
		d.expectTx(true)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)

		d.expectTx(true)
		got, err := d.service.Cancel(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), "")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusCancelled, got.Status)
		require.Len(t, d.ledger.reverses, 1)
		assert.True(t, d.ledger.reverses[0].Equal(decimal.NewFromInt(3)))
	})

	t.Run("cancelling a draft touches no ledger state", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		d.expectTx(true)
		got, err := d.service.Cancel(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), "")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusCancelled, got.Status)
		assert.Empty(t, d.ledger.releases)
		assert.Empty(t, d.ledger.reverses)
	})

	t.Run("a stranger cannot cancel", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.Cancel(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "")
		assert.ErrorIs(t, err, leaveerrors.ErrNotAuthorized)
	})

	t.Run("an admin can cancel on the employee's behalf", func(t *testing.T) {
		d := setup(t)
		admin := uuid.New().String()
		d.roles.admins[admin] = true
		rq := d.draft(t)

		d.expectTx(true)
		got, err := d.service.Cancel(ctx, d.tenantID, admin, rq.ID.String(), "policy violation")
		require.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, got.Status)
	})

	t.Run("cancelled twice is an invalid transition", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		d.expectTx(true)
		_, err := d.service.Cancel(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), "")
		require.NoError(t, err)

		d.expectTx(false)
		_, err = d.service.Cancel(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), "")
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
	})
}

func TestLeaveServiceUpdateDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("edit recomputes day totals", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		d.cal.workingDays = decimal.NewFromInt(2)
		start := time.Now().AddDate(0, 0, 21).Truncate(24 * time.Hour)
		d.expectTx(true)
		got, err := d.service.UpdateDraft(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), leave.CreateRequestInput{
			EmployeeID:   d.emp.ID.String(),
			LeaveTypeID:  d.types.lt.ID.String(),
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, 2),
			DurationType: leave.DurationFullDay,
			Reason:       "moved the trip",
		})
		require.NoError(t, err)

		assert.Equal(t, leave.StatusDraft, got.Status)
		assert.True(t, got.WorkingDays.Equal(decimal.NewFromInt(2)))
		assert.True(t, got.TotalDays.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, "moved the trip", got.Reason)
	})

	t.Run("switching to hours recomputes the fraction", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)
		d.expectTx(true)
		got, err := d.service.UpdateDraft(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), leave.CreateRequestInput{
			EmployeeID:     d.emp.ID.String(),
			LeaveTypeID:    d.types.lt.ID.String(),
			StartDate:      start,
			EndDate:        start,
			DurationType:   leave.DurationHours,
			RequestedHours: decimal.NewFromInt(4),
		})
		require.NoError(t, err)

		require.NotNil(t, got.RequestedHours)
		assert.True(t, got.WorkingDays.Equal(decimal.NewFromFloat(0.5)))
	})

	t.Run("submitted request cannot be edited", func(t *testing.T) {
		d := setup(t)
		d.resolver.chain = []approval.Level{{Level: 1, Role: approval.RoleManager}}
		rq := d.draft(t)

		d.expectTx(true)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)

		start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)
		d.expectTx(false)
		_, err = d.service.UpdateDraft(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), leave.CreateRequestInput{
			EmployeeID:   d.emp.ID.String(),
			LeaveTypeID:  d.types.lt.ID.String(),
			StartDate:    start,
			EndDate:      start,
			DurationType: leave.DurationFullDay,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
	})

	t.Run("a stranger cannot edit someone else's draft", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		start := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)
		d.expectTx(false)
		_, err := d.service.UpdateDraft(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), leave.CreateRequestInput{
			EmployeeID:   d.emp.ID.String(),
			LeaveTypeID:  d.types.lt.ID.String(),
			StartDate:    start,
			EndDate:      start,
			DurationType: leave.DurationFullDay,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrNotAuthorized)
	})
}

func TestLeaveServiceUpdateAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("attachment stays editable after approval", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		// Empty chain auto-approves on submit.
		d.expectTx(true)
		_, err := d.service.Submit(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String())
		require.NoError(t, err)

		d.expectTx(true)
		got, err := d.service.UpdateAttachment(ctx, d.tenantID, d.emp.ID.String(), rq.ID.String(), "https://files.example.com/medical.pdf")
		require.NoError(t, err)

		assert.Equal(t, leave.StatusApproved, got.Status)
		assert.Equal(t, "https://files.example.com/medical.pdf", got.AttachmentURL)
	})

	t.Run("a stranger cannot attach to someone else's request", func(t *testing.T) {
		d := setup(t)
		rq := d.draft(t)

		d.expectTx(false)
		_, err := d.service.UpdateAttachment(ctx, d.tenantID, uuid.New().String(), rq.ID.String(), "https://files.example.com/x.pdf")
		assert.ErrorIs(t, err, leaveerrors.ErrNotAuthorized)
	})
}
