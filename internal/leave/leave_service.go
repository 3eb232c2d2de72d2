package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-tenantops/internal/approval"
	"go-tenantops/internal/balance"
	"go-tenantops/internal/calendar"
	"go-tenantops/internal/employee"
	"go-tenantops/internal/events"
	leaveerrors "go-tenantops/internal/leave/errors"
	"go-tenantops/internal/leavetype"
	leavetypeerrors "go-tenantops/internal/leavetype/errors"
	"go-tenantops/internal/notify"
	"go-tenantops/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateRequestInput struct {
	EmployeeID     string
	LeaveTypeID    string
	StartDate      time.Time
	EndDate        time.Time
	DurationType   string
	RequestedHours decimal.Decimal
	Reason         string
	AttachmentURL  string
}

// Service drives the leave request state machine. Every transition runs
// in a single transaction: the request row is locked first, then the
// ledger rows, so two actors racing on the same request serialize on
// the row lock and the loser sees the new status.
//
//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, tenantID, actorID string, in CreateRequestInput) (*Request, error)
	UpdateDraft(ctx context.Context, tenantID, actorID, requestID string, in CreateRequestInput) (*Request, error)
	UpdateAttachment(ctx context.Context, tenantID, actorID, requestID, attachmentURL string) (*Request, error)
	Submit(ctx context.Context, tenantID, actorID, requestID string) (*Request, error)
	Approve(ctx context.Context, tenantID, actorID, requestID, comments string) (*Request, error)
	Reject(ctx context.Context, tenantID, actorID, requestID, comments string) (*Request, error)
	Cancel(ctx context.Context, tenantID, actorID, requestID, reason string) (*Request, error)
	GetByID(ctx context.Context, tenantID, requestID string) (*Request, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]Request, error)
	History(ctx context.Context, tenantID, requestID string) ([]ApprovalRecord, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	types     leavetype.Repository
	employees employee.Repository
	tenants   tenant.Repository
	ledger    balance.Ledger
	resolver  approval.Resolver
	roles     approval.Roles
	cal       calendar.Service
	notifier  notify.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	types leavetype.Repository,
	employees employee.Repository,
	tenants tenant.Repository,
	ledger balance.Ledger,
	resolver approval.Resolver,
	roles approval.Roles,
	cal calendar.Service,
	notifier notify.Notifier,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if notifier == nil {
		notifier = notify.NewNoopNotifier()
	}
	return &service{
		db:        db,
		repo:      repo,
		types:     types,
		employees: employees,
		tenants:   tenants,
		ledger:    ledger,
		resolver:  resolver,
		roles:     roles,
		cal:       cal,
		notifier:  notifier,
		logger:    l,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, tenantID, actorID string, in CreateRequestInput) (*Request, error) {
	tid, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidTenantID
	}
	eid, err := uuid.Parse(in.EmployeeID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	if err := validateDates(in, s.today()); err != nil {
		return nil, err
	}

	lt, err := s.loadActiveType(ctx, tenantID, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	settings, err := s.tenants.GetLeaveSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	working, total, err := s.computeDays(ctx, tenantID, in, settings)
	if err != nil {
		return nil, err
	}

	rq := &Request{
		ID:            uuid.New(),
		TenantID:      tid,
		EmployeeID:    eid,
		LeaveTypeID:   lt.ID,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		DurationType:  in.DurationType,
		TotalDays:     total,
		WorkingDays:   working,
		Reason:        in.Reason,
		AttachmentURL: in.AttachmentURL,
		Status:        StatusDraft,
	}
	if in.DurationType == DurationHours {
		h := in.RequestedHours
		rq.RequestedHours = &h
	}

	if err := s.repo.Create(ctx, rq); err != nil {
		return nil, err
	}

	s.logger.Info("leave request drafted",
		zap.String("tenant_id", tenantID),
		zap.String("request_id", rq.ID.String()),
		zap.String("employee_id", in.EmployeeID),
		zap.String("working_days", working.String()),
	)
	return rq, nil
}

// UpdateDraft replaces the editable fields of a draft and recomputes its
// day totals. Anything past draft must go through the transitions.
func (s *service) UpdateDraft(ctx context.Context, tenantID, actorID, requestID string, in CreateRequestInput) (*Request, error) {
	if err := validateDates(in, s.today()); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rq, err := s.lockRequest(ctx, qtx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if rq.Status != StatusDraft {
		return nil, leaveerrors.ErrInvalidTransition
	}
	if err := s.authorizeSubjectOrAdmin(ctx, tenantID, actorID, rq); err != nil {
		return nil, err
	}

	lt, err := s.loadActiveType(ctx, tenantID, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	settings, err := s.tenants.GetLeaveSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// The subject never changes on an edit.
	in.EmployeeID = rq.EmployeeID.String()
	working, total, err := s.computeDays(ctx, tenantID, in, settings)
	if err != nil {
		return nil, err
	}

	rq.LeaveTypeID = lt.ID
	rq.StartDate = in.StartDate
	rq.EndDate = in.EndDate
	rq.DurationType = in.DurationType
	rq.RequestedHours = nil
	if in.DurationType == DurationHours {
		h := in.RequestedHours
		rq.RequestedHours = &h
	}
	rq.TotalDays = total
	rq.WorkingDays = working
	rq.Reason = in.Reason
	rq.AttachmentURL = in.AttachmentURL

	if err := qtx.Update(ctx, rq); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("leave draft updated",
		zap.String("tenant_id", tenantID),
		zap.String("request_id", requestID),
		zap.String("working_days", working.String()),
	)
	return rq, nil
}

// UpdateAttachment swaps the attachment URL. Attachments sit outside the
// workflow, so this works in every status, terminal ones included.
func (s *service) UpdateAttachment(ctx context.Context, tenantID, actorID, requestID, attachmentURL string) (*Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rq, err := s.lockRequest(ctx, qtx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSubjectOrAdmin(ctx, tenantID, actorID, rq); err != nil {
		return nil, err
	}

	rq.AttachmentURL = attachmentURL
	if err := qtx.Update(ctx, rq); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("leave attachment updated",
		zap.String("tenant_id", tenantID),
		zap.String("request_id", requestID),
	)
	return rq, nil
}

func (s *service) Submit(ctx context.Context, tenantID, actorID, requestID string) (*Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rq, err := s.lockRequest(ctx, qtx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if rq.Status != StatusDraft {
		return nil, leaveerrors.ErrInvalidTransition
	}

	lt, err := s.loadActiveType(ctx, tenantID, rq.LeaveTypeID.String())
	if err != nil {
		return nil, err
	}
	settings, err := s.tenants.GetLeaveSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	emp, err := s.employees.FindByIDAndTenant(ctx, tenantID, rq.EmployeeID.String())
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(emp, lt); err != nil {
		return nil, err
	}

	// Recompute at submit time: schedules and holidays may have changed
	// since the draft was created.
	in := CreateRequestInput{
		EmployeeID:   rq.EmployeeID.String(),
		LeaveTypeID:  rq.LeaveTypeID.String(),
		StartDate:    rq.StartDate,
		EndDate:      rq.EndDate,
		DurationType: rq.DurationType,
	}
	if rq.RequestedHours != nil {
		in.RequestedHours = *rq.RequestedHours
	}
	working, total, err := s.computeDays(ctx, tenantID, in, settings)
	if err != nil {
		return nil, err
	}
	rq.WorkingDays = working
	rq.TotalDays = total

	if !lt.NoticeExempt() && lt.MinNoticeDays > 0 {
		notice := int(rq.StartDate.Sub(s.today()).Hours() / 24)
		if notice < lt.MinNoticeDays {
			return nil, leaveerrors.ErrInsufficientNotice
		}
	}
	if lt.MaxConsecutiveDays != nil && total.GreaterThan(decimal.NewFromInt(int64(*lt.MaxConsecutiveDays))) {
		return nil, leaveerrors.ErrMaxConsecutiveExceeded
	}

	overlap, err := qtx.HasOverlapping(ctx, tenantID, rq.EmployeeID.String(), rq.StartDate, rq.EndDate, requestID)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, leaveerrors.ErrOverlappingRequest
	}

	key := balance.Key{
		TenantID:    tenantID,
		EmployeeID:  rq.EmployeeID.String(),
		LeaveTypeID: rq.LeaveTypeID.String(),
		Year:        rq.StartDate.Year(),
	}
	if _, err := s.ledger.Initialize(ctx, key, lt); err != nil {
		return nil, err
	}

	allowance := decimal.Zero
	if settings.AllowNegativeBalance {
		allowance = settings.NegativeAllowance()
	}
	ok, _, err := s.ledger.CanTake(ctx, tx, key, working, allowance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, leaveerrors.ErrInsufficientBalance
	}

	chain, err := s.resolver.ChainFor(ctx, tenantID, lt, settings)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rq.SubmittedAt = &now
	rq.CurrentLevel = 0
	rq.ChainLength = len(chain)

	// Reserve first in both paths; auto-approval then commits the same
	// quantity, which nets out the reservation without touching zero.
	if err := s.ledger.ReservePending(ctx, tx, key, working); err != nil {
		return nil, err
	}

	eventType := events.LeaveSubmitted
	if len(chain) == 0 {
		rq.Status = StatusApproved
		rq.ApprovedAt = &now
		eventType = events.LeaveApproved
		if err := s.ledger.CommitUsed(ctx, tx, key, working); err != nil {
			return nil, err
		}
	} else {
		rq.Status = StatusSubmitted
	}

	if err := qtx.Update(ctx, rq); err != nil {
		return nil, err
	}
	s.notifyLifecycle(ctx, tx, rq, eventType, actorID, "")

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("leave request submitted",
		zap.String("tenant_id", tenantID),
		zap.String("request_id", requestID),
		zap.String("status", rq.Status),
		zap.Int("chain_length", rq.ChainLength),
	)
	return rq, nil
}

func (s *service) Approve(ctx context.Context, tenantID, actorID, requestID, comments string) (*Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rq, err := s.lockRequest(ctx, qtx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if rq.Status != StatusSubmitted {
		return nil, leaveerrors.ErrInvalidTransition
	}

	lt, err := s.types.FindByIDAndTenant(ctx, tenantID, rq.LeaveTypeID.String())
	if err != nil {
		return nil, err
	}
	settings, err := s.tenants.GetLeaveSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chain, err := s.resolver.ChainFor(ctx, tenantID, lt, settings)
	if err != nil {
		return nil, err
	}

	ok, reason, err := s.resolver.CanActorApprove(ctx, tenantID, actorID, rq.EmployeeID.String(), chain, rq.CurrentLevel)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("approval denied",
			zap.String("tenant_id", tenantID),
			zap.String("request_id", requestID),
			zap.String("actor_id", actorID),
			zap.String("reason", reason),
		)
		return nil, leaveerrors.ErrNotAuthorized
	}

	role, _ := s.resolver.NextRole(chain, rq.CurrentLevel)
	now := s.now()
	aid, err := uuid.Parse(actorID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	rec := &ApprovalRecord{
		ID:         uuid.New(),
		RequestID:  rq.ID,
		Level:      rq.CurrentLevel + 1,
		ApproverID: aid,
		Role:       role,
		Comments:   comments,
		ApprovedAt: now,
	}
	if err := qtx.AddApprovalRecord(ctx, rec); err != nil {
		return nil, err
	}

	rq.CurrentLevel++
	// Finality is judged against the length frozen at submit time, so a
	// chain edited mid-flight cannot strand or short-circuit the request.
	final := rq.CurrentLevel >= rq.ChainLength
	if final {
		rq.Status = StatusApproved
		rq.ApprovedAt = &now

		key := s.balanceKey(tenantID, rq)
		if err := s.ledger.CommitUsed(ctx, tx, key, rq.WorkingDays); err != nil {
			return nil, err
		}
	}

	if err := qtx.Update(ctx, rq); err != nil {
		return nil, err
	}
	if final {
		s.notifyLifecycle(ctx, tx, rq, events.LeaveApproved, actorID, comments)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("leave request approved",
		zap.String("tenant_id", tenantID),
		zap.String("request_id", requestID),
		zap.Int("level", rq.CurrentLevel),
		zap.Bool("final", final),
	)
	return rq, nil
}

func (s *service) Reject(ctx context.Context, tenantID, actorID, requestID, comments string) (*Request, error) {
	if comments == "" {
		return nil, leaveerrors.ErrCommentsRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rq, err := s.lockRequest(ctx, qtx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if rq.Status != StatusSubmitted {
		return nil, leaveerrors.ErrInvalidTransition
	}

	lt, err := s.types.FindByIDAndTenant(ctx, tenantID, rq.LeaveTypeID.String())
	if err != nil {
		return nil, err
	}
	settings, err := s.tenants.GetLeaveSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chain, err := s.resolver.ChainFor(ctx, tenantID, lt, settings)
	if err != nil {
		return nil, err
	}

	ok, reason, err := s.resolver.CanActorApprove(ctx, tenantID, actorID, rq.EmployeeID.String(), chain, rq.CurrentLevel)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("rejection denied",
			zap.String("tenant_id", tenantID),
			zap.String("request_id", requestID),
			zap.String("actor_id", actorID),
			zap.String("reason", reason),
		)
		return nil, leaveerrors.ErrNotAuthorized
	}

	aid, err := uuid.Parse(actorID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	now := s.now()
	rq.Status = StatusRejected
	rq.RejectedBy = &aid
	rq.RejectedAt = &now
	rq.RejectionReason = comments

	key := s.balanceKey(tenantID, rq)
	if err := s.ledger.ReleasePending(ctx, tx, key, rq.WorkingDays); err != nil {
		return nil, err
	}

	if err := qtx.Update(ctx, rq); err != nil {
		return nil, err
	}
	s.notifyLifecycle(ctx, tx, rq, events.LeaveRejected, actorID, comments)

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("leave request rejected",
		zap.String("tenant_id", tenantID),
		zap.String("request_id", requestID),
		zap.String("actor_id", actorID),
	)
	return rq, nil
}

func (s *service) Cancel(ctx context.Context, tenantID, actorID, requestID, reason string) (*Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rq, err := s.lockRequest(ctx, qtx, tenantID, requestID)
	if err != nil {
		return nil, err
	}

	if !rq.Occupies() {
		return nil, leaveerrors.ErrInvalidTransition
	}
	if err := s.authorizeSubjectOrAdmin(ctx, tenantID, actorID, rq); err != nil {
		return nil, err
	}

	key := s.balanceKey(tenantID, rq)
	switch rq.Status {
	case StatusApproved:
		if err := s.ledger.ReverseUsed(ctx, tx, key, rq.WorkingDays); err != nil {
			return nil, err
		}
	case StatusSubmitted:
		if err := s.ledger.ReleasePending(ctx, tx, key, rq.WorkingDays); err != nil {
			return nil, err
		}
	case StatusDraft:
		// nothing reserved yet
	}

	aid, err := uuid.Parse(actorID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	now := s.now()
	rq.Status = StatusCancelled
	rq.CancelledBy = &aid
	rq.CancelledAt = &now
	rq.CancellationReason = reason

	if err := qtx.Update(ctx, rq); err != nil {
		return nil, err
	}
	s.notifyLifecycle(ctx, tx, rq, events.LeaveCancelled, actorID, reason)

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("leave request cancelled",
		zap.String("tenant_id", tenantID),
		zap.String("request_id", requestID),
		zap.String("actor_id", actorID),
	)
	return rq, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, requestID string) (*Request, error) {
	rq, err := s.repo.FindByIDAndTenant(ctx, tenantID, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	return rq, err
}

func (s *service) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]Request, error) {
	return s.repo.FindAllByEmployee(ctx, tenantID, employeeID)
}

func (s *service) History(ctx context.Context, tenantID, requestID string) ([]ApprovalRecord, error) {
	if _, err := s.GetByID(ctx, tenantID, requestID); err != nil {
		return nil, err
	}
	return s.repo.ApprovalRecords(ctx, requestID)
}

// authorizeSubjectOrAdmin admits the request's own employee or a tenant
// admin; everyone else gets ErrNotAuthorized.
func (s *service) authorizeSubjectOrAdmin(ctx context.Context, tenantID, actorID string, rq *Request) error {
	if actorID == rq.EmployeeID.String() {
		return nil
	}
	isAdmin, err := s.roles.HasRole(ctx, tenantID, actorID, approval.RoleAdmin)
	if err != nil {
		return err
	}
	if !isAdmin {
		return leaveerrors.ErrNotAuthorized
	}
	return nil
}

func (s *service) lockRequest(ctx context.Context, qtx Repository, tenantID, requestID string) (*Request, error) {
	rq, err := qtx.FindForUpdate(ctx, tenantID, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	return rq, err
}

func (s *service) loadActiveType(ctx context.Context, tenantID, leaveTypeID string) (*leavetype.LeaveType, error) {
	lt, err := s.types.FindByIDAndTenant(ctx, tenantID, leaveTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, leavetypeerrors.ErrLeaveTypeNotFound
		}
		return nil, err
	}
	if !lt.IsActive {
		return nil, leavetypeerrors.ErrLeaveTypeInactive
	}
	return lt, nil
}

func (s *service) checkEligibility(emp *employee.Employee, lt *leavetype.LeaveType) error {
	if lt.MinimumServiceMonths > 0 && emp.ServiceMonths(s.now()) < lt.MinimumServiceMonths {
		return leaveerrors.ErrMinimumServiceNotMet
	}
	if emp.OnProbation && !lt.AvailableOnProbation {
		return leaveerrors.ErrProbationNotEligible
	}
	if lt.GenderRestriction != leavetype.GenderAll && emp.Gender != lt.GenderRestriction {
		return leaveerrors.ErrGenderRestricted
	}
	return nil
}

// computeDays returns (workingDays, totalDays). workingDays drives the
// ledger; totalDays is the calendar span used for the max-consecutive
// rule.
func (s *service) computeDays(ctx context.Context, tenantID string, in CreateRequestInput, settings tenant.LeaveSettings) (decimal.Decimal, decimal.Decimal, error) {
	total := decimal.NewFromInt(int64(in.EndDate.Sub(in.StartDate).Hours()/24) + 1)

	switch in.DurationType {
	case DurationHalfMorning, DurationHalfAfternoon:
		return calendar.HalfDay, calendar.HalfDay, nil
	case DurationHours:
		hoursPerDay, err := s.cal.HoursPerDay(ctx, tenantID, in.EmployeeID)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		fraction := calendar.DayFractionFromHours(in.RequestedHours, hoursPerDay)
		return fraction, fraction, nil
	default:
		working, err := s.cal.WorkingDays(ctx, tenantID, in.EmployeeID, in.StartDate, in.EndDate, settings.ExcludePublicHolidays)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return working, total, nil
	}
}

func (s *service) balanceKey(tenantID string, rq *Request) balance.Key {
	return balance.Key{
		TenantID:    tenantID,
		EmployeeID:  rq.EmployeeID.String(),
		LeaveTypeID: rq.LeaveTypeID.String(),
		Year:        rq.StartDate.Year(),
	}
}

func (s *service) notifyLifecycle(ctx context.Context, tx *sql.Tx, rq *Request, eventType, actorID, comments string) {
	s.notifier.WithTx(tx).Notify(ctx, notify.Event{
		Name:          eventType,
		Topic:         events.LeaveLifecycleTopic,
		AggregateType: "leave_request",
		AggregateID:   rq.ID.String(),
		TenantID:      rq.TenantID.String(),
		Payload: events.LeaveLifecycleEvent{
			EventType:   eventType,
			TenantID:    rq.TenantID.String(),
			RequestID:   rq.ID.String(),
			EmployeeID:  rq.EmployeeID.String(),
			LeaveTypeID: rq.LeaveTypeID.String(),
			Status:      rq.Status,
			StartDate:   rq.StartDate.Format("2006-01-02"),
			EndDate:     rq.EndDate.Format("2006-01-02"),
			WorkingDays: rq.WorkingDays.String(),
			ActorID:     actorID,
			Comments:    comments,
			OccurredAt:  s.now(),
		},
	})
}

func (s *service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func validateDates(in CreateRequestInput, today time.Time) error {
	if in.EndDate.Before(in.StartDate) {
		return leaveerrors.ErrInvalidDateRange
	}
	if in.StartDate.Before(today) {
		return leaveerrors.ErrPastStartDate
	}
	switch in.DurationType {
	case DurationHalfMorning, DurationHalfAfternoon:
		if !in.StartDate.Equal(in.EndDate) {
			return leaveerrors.ErrHalfDaySingleDay
		}
	case DurationHours:
		if in.RequestedHours.Sign() <= 0 {
			return leaveerrors.ErrHoursRequired
		}
	}
	return nil
}
