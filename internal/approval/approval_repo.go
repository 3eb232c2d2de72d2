package approval

import (
	"context"

	"go-tenantops/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=approval_repo.go -destination=mock/approval_repo_mock.go -package=mock
type Repository interface {
	ChainForType(ctx context.Context, tenantID, leaveTypeID string) ([]ChainLevel, error)
	DefaultChain(ctx context.Context, tenantID string) ([]ChainLevel, error)
	EmployeeRoles(ctx context.Context, tenantID string) ([]EmployeeRole, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ChainForType(ctx context.Context, tenantID, leaveTypeID string) ([]ChainLevel, error) {
	var levels []ChainLevel
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("leave_type_id = ?", leaveTypeID).
		Where("is_required = ?", true).
		Order("level ASC").
		Find(&levels).Error
	return levels, err
}

func (r *repository) DefaultChain(ctx context.Context, tenantID string) ([]ChainLevel, error) {
	var levels []ChainLevel
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("leave_type_id IS NULL").
		Where("is_required = ?", true).
		Order("level ASC").
		Find(&levels).Error
	return levels, err
}

func (r *repository) EmployeeRoles(ctx context.Context, tenantID string) ([]EmployeeRole, error) {
	var roles []EmployeeRole
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Find(&roles).Error
	return roles, err
}
