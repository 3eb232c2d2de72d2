package tenant

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

//go:generate mockgen -source=tenant_repo.go -destination=mock/tenant_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, tenantID string) (*Tenant, error)
	FindAllActive(ctx context.Context) ([]Tenant, error)
	Deactivate(ctx context.Context, tenantID string) error
	GetLeaveSettings(ctx context.Context, tenantID string) (LeaveSettings, error)
	SaveLeaveSettings(ctx context.Context, settings *LeaveSettings) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, tenantID string) (*Tenant, error) {
	var t Tenant
	err := r.db.WithContext(ctx).First(&t, "id = ?", tenantID).Error
	return &t, err
}

func (r *repository) FindAllActive(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("subdomain").
		Find(&tenants).Error
	return tenants, err
}

func (r *repository) Deactivate(ctx context.Context, tenantID string) error {
	return r.db.WithContext(ctx).
		Model(&Tenant{}).
		Where("id = ?", tenantID).
		Update("is_active", false).Error
}

func (r *repository) GetLeaveSettings(ctx context.Context, tenantID string) (LeaveSettings, error) {
	var s LeaveSettings
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var t Tenant
		if err := r.db.WithContext(ctx).Select("id").First(&t, "id = ?", tenantID).Error; err != nil {
			return LeaveSettings{}, err
		}
		return DefaultLeaveSettings(t.ID), nil
	}
	return s, err
}

func (r *repository) SaveLeaveSettings(ctx context.Context, settings *LeaveSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
