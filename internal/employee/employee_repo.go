package employee

import (
	"context"
	"errors"

	"go-tenantops/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	FindByIDAndTenant(ctx context.Context, tenantID, id string) (*Employee, error)
	FindAllByTenant(ctx context.Context, tenantID string) ([]Employee, error)
	// ManagerOf returns the employee's direct manager, or nil when none
	// is assigned. Implements the approval resolver's Directory.
	ManagerOf(ctx context.Context, tenantID, employeeID string) (*Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByIDAndTenant(ctx context.Context, tenantID, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindAllByTenant(ctx context.Context, tenantID string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) ManagerOf(ctx context.Context, tenantID, employeeID string) (*Employee, error) {
	e, err := r.FindByIDAndTenant(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if e.ManagerID == nil {
		return nil, nil
	}
	m, err := r.FindByIDAndTenant(ctx, tenantID, e.ManagerID.String())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return m, err
}
