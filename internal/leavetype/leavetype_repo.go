package leavetype

import (
	"context"

	"go-tenantops/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, t *LeaveType) error
	FindByIDAndTenant(ctx context.Context, tenantID, id string) (*LeaveType, error)
	FindAllByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]LeaveType, error)
	FindAccrualTypes(ctx context.Context, tenantID string) ([]LeaveType, error)
	FindCarryForwardTypes(ctx context.Context, tenantID string) ([]LeaveType, error)
	Update(ctx context.Context, t *LeaveType) error
	SetActive(ctx context.Context, tenantID, id string, active bool) error
	Delete(ctx context.Context, tenantID, id string) error
	IsReferenced(ctx context.Context, tenantID, id string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *LeaveType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) FindByIDAndTenant(ctx context.Context, tenantID, id string) (*LeaveType, error) {
	var t LeaveType
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *repository) FindAllByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]LeaveType, error) {
	db := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID))
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	var types []LeaveType
	err := db.Order("sort_order ASC, id ASC").Find(&types).Error
	return types, err
}

func (r *repository) FindAccrualTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("is_active = ?", true).
		Where("calculation_method = ?", MethodAccrual).
		Find(&types).Error
	return types, err
}

func (r *repository) FindCarryForwardTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("is_active = ?", true).
		Where("max_carry_forward_days > 0").
		Find(&types).Error
	return types, err
}

func (r *repository) Update(ctx context.Context, t *LeaveType) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *repository) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	return r.db.WithContext(ctx).
		Model(&LeaveType{}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *repository) Delete(ctx context.Context, tenantID, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Delete(&LeaveType{}, "id = ?", id).Error
}

func (r *repository) IsReferenced(ctx context.Context, tenantID, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("leave_balances").
		Where("tenant_id = ?", tenantID).
		Where("leave_type_id = ?", id).
		Count(&count).Error
	if err != nil || count > 0 {
		return count > 0, err
	}

	err = r.db.WithContext(ctx).
		Table("leave_requests").
		Where("tenant_id = ?", tenantID).
		Where("leave_type_id = ?", id).
		Count(&count).Error
	return count > 0, err
}
