package leavetype

import (
	"context"
	"errors"

	leavetypeerrors "go-tenantops/internal/leavetype/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateLeaveTypeInput struct {
	Name                     string
	Code                     string
	Category                 string
	IsPaid                   bool
	RequiresApproval         bool
	CalculationMethod        string
	DefaultDaysPerYear       decimal.Decimal
	AccrualRatePerMonth      decimal.Decimal
	MaxCarryForwardDays      decimal.Decimal
	CarryForwardExpiryMonths int
	MinNoticeDays            int
	MaxConsecutiveDays       *int
	MinimumServiceMonths     int
	AvailableOnProbation     bool
	GenderRestriction        string
}

//go:generate mockgen -source=leavetype_service.go -destination=mock/leavetype_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, tenantID string, in CreateLeaveTypeInput) (*LeaveType, error)
	GetAll(ctx context.Context, tenantID string, activeOnly bool) ([]LeaveType, error)
	GetByID(ctx context.Context, tenantID, id string) (*LeaveType, error)
	Update(ctx context.Context, tenantID, id string, in CreateLeaveTypeInput) (*LeaveType, error)
	Deactivate(ctx context.Context, tenantID, id string) error
	Delete(ctx context.Context, tenantID, id string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, tenantID string, in CreateLeaveTypeInput) (*LeaveType, error) {
	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, leavetypeerrors.ErrInvalidTenantID
	}
	if err := validateMethod(in.CalculationMethod); err != nil {
		return nil, err
	}

	t := &LeaveType{
		ID:                       uuid.New(),
		TenantID:                 tenantUUID,
		Name:                     in.Name,
		Code:                     in.Code,
		Category:                 in.Category,
		IsPaid:                   in.IsPaid,
		RequiresApproval:         in.RequiresApproval,
		CalculationMethod:        in.CalculationMethod,
		DefaultDaysPerYear:       in.DefaultDaysPerYear,
		AccrualRatePerMonth:      in.AccrualRatePerMonth,
		MaxCarryForwardDays:      in.MaxCarryForwardDays,
		CarryForwardExpiryMonths: in.CarryForwardExpiryMonths,
		MinNoticeDays:            in.MinNoticeDays,
		MaxConsecutiveDays:       in.MaxConsecutiveDays,
		MinimumServiceMonths:     in.MinimumServiceMonths,
		AvailableOnProbation:     in.AvailableOnProbation,
		GenderRestriction:        normalizeGender(in.GenderRestriction),
		IsActive:                 true,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			s.logger.Warn("create leave type code conflict",
				zap.String("tenant_id", tenantID),
				zap.String("code", in.Code),
			)
			return nil, leavetypeerrors.ErrCodeAlreadyExists
		}
		s.logger.Error("create leave type persist failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("leave type created",
		zap.String("tenant_id", tenantID),
		zap.String("leave_type_id", t.ID.String()),
		zap.String("code", t.Code),
	)
	return t, nil
}

func (s *service) GetAll(ctx context.Context, tenantID string, activeOnly bool) ([]LeaveType, error) {
	return s.repo.FindAllByTenant(ctx, tenantID, activeOnly)
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*LeaveType, error) {
	t, err := s.repo.FindByIDAndTenant(ctx, tenantID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leavetypeerrors.ErrLeaveTypeNotFound
	}
	return t, err
}

func (s *service) Update(ctx context.Context, tenantID, id string, in CreateLeaveTypeInput) (*LeaveType, error) {
	if err := validateMethod(in.CalculationMethod); err != nil {
		return nil, err
	}

	t, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	t.Name = in.Name
	t.Category = in.Category
	t.IsPaid = in.IsPaid
	t.RequiresApproval = in.RequiresApproval
	t.CalculationMethod = in.CalculationMethod
	t.DefaultDaysPerYear = in.DefaultDaysPerYear
	t.AccrualRatePerMonth = in.AccrualRatePerMonth
	t.MaxCarryForwardDays = in.MaxCarryForwardDays
	t.CarryForwardExpiryMonths = in.CarryForwardExpiryMonths
	t.MinNoticeDays = in.MinNoticeDays
	t.MaxConsecutiveDays = in.MaxConsecutiveDays
	t.MinimumServiceMonths = in.MinimumServiceMonths
	t.AvailableOnProbation = in.AvailableOnProbation
	t.GenderRestriction = normalizeGender(in.GenderRestriction)

	if err := s.repo.Update(ctx, t); err != nil {
		s.logger.Error("update leave type persist failed",
			zap.String("leave_type_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return t, nil
}

// Deactivate soft-disables a leave type. Types referenced by balances or
// requests are never deleted.
func (s *service) Deactivate(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, tenantID, id, false); err != nil {
		s.logger.Error("deactivate leave type failed", zap.String("leave_type_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("leave type deactivated",
		zap.String("tenant_id", tenantID),
		zap.String("leave_type_id", id),
	)
	return nil
}

// Delete hard-removes a leave type. Once balances or requests point at
// it the type can only be deactivated, never deleted.
func (s *service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	referenced, err := s.repo.IsReferenced(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if referenced {
		return leavetypeerrors.ErrLeaveTypeReferenced
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		s.logger.Error("delete leave type failed", zap.String("leave_type_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("leave type deleted",
		zap.String("tenant_id", tenantID),
		zap.String("leave_type_id", id),
	)
	return nil
}

func validateMethod(method string) error {
	switch method {
	case MethodAnnual, MethodAccrual, MethodManual:
		return nil
	default:
		return leavetypeerrors.ErrInvalidCalculationMethod
	}
}

func normalizeGender(g string) string {
	switch g {
	case GenderMale, GenderFemale:
		return g
	default:
		return GenderAll
	}
}
