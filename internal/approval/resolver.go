package approval

import (
	"context"

	"go-tenantops/internal/employee"
	"go-tenantops/internal/leavetype"
	"go-tenantops/internal/tenant"

	"go.uber.org/zap"
)

// Level is one resolved approval stage.
type Level struct {
	Level int
	Role  string
}

// Directory looks up the org chart for manager-level checks.
type Directory interface {
	ManagerOf(ctx context.Context, tenantID, employeeID string) (*employee.Employee, error)
}

// Roles answers role-membership questions for hr/admin levels.
type Roles interface {
	HasRole(ctx context.Context, tenantID, actorID, role string) (bool, error)
}

//go:generate mockgen -source=resolver.go -destination=mock/resolver_mock.go -package=mock
type Resolver interface {
	// ChainFor resolves the approval stages for a request of the given
	// type: a type-specific chain wins over the tenant default chain,
	// which wins over the settings-derived chain; the final fallback is
	// single manager approval.
	ChainFor(ctx context.Context, tenantID string, lt *leavetype.LeaveType, settings tenant.LeaveSettings) ([]Level, error)

	// NextRole returns the role required at the next stage after
	// currentLevel, or ok=false when the chain is fully satisfied.
	NextRole(chain []Level, currentLevel int) (role string, ok bool)

	// CanActorApprove reports whether the actor may act at the request's
	// current stage, with a human-readable denial reason.
	CanActorApprove(ctx context.Context, tenantID, actorID, employeeID string, chain []Level, currentLevel int) (bool, string, error)
}

type resolver struct {
	repo      Repository
	directory Directory
	roles     Roles
	logger    *zap.Logger
}

func NewResolver(repo Repository, directory Directory, roles Roles, logger ...*zap.Logger) Resolver {
	l := zap.L().Named("approval.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.resolver")
	}
	return &resolver{repo: repo, directory: directory, roles: roles, logger: l}
}

func (r *resolver) ChainFor(ctx context.Context, tenantID string, lt *leavetype.LeaveType, settings tenant.LeaveSettings) ([]Level, error) {
	if !lt.RequiresApproval {
		return nil, nil
	}

	rows, err := r.repo.ChainForType(ctx, tenantID, lt.ID.String())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		rows, err = r.repo.DefaultChain(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		chain := make([]Level, 0, len(rows))
		for _, row := range rows {
			chain = append(chain, Level{Level: row.Level, Role: row.Role})
		}
		return chain, nil
	}

	// No configured chain: derive from tenant settings.
	var chain []Level
	if settings.RequireManagerApproval {
		chain = append(chain, Level{Level: 1, Role: RoleManager})
	}
	if settings.RequireHRApproval {
		chain = append(chain, Level{Level: len(chain) + 1, Role: RoleHR})
	}
	if len(chain) == 0 {
		chain = []Level{{Level: 1, Role: RoleManager}}
	}
	return chain, nil
}

func (r *resolver) NextRole(chain []Level, currentLevel int) (string, bool) {
	for _, level := range chain {
		if level.Level > currentLevel {
			return level.Role, true
		}
	}
	return "", false
}

func (r *resolver) CanActorApprove(ctx context.Context, tenantID, actorID, employeeID string, chain []Level, currentLevel int) (bool, string, error) {
	role, ok := r.NextRole(chain, currentLevel)
	if !ok {
		return false, "request is already fully approved", nil
	}

	switch role {
	case RoleManager:
		manager, err := r.directory.ManagerOf(ctx, tenantID, employeeID)
		if err != nil {
			return false, "", err
		}
		if manager != nil && manager.ID.String() == actorID {
			return true, "", nil
		}
		// admins may stand in for an absent or unassigned manager
		isAdmin, err := r.roles.HasRole(ctx, tenantID, actorID, RoleAdmin)
		if err != nil {
			return false, "", err
		}
		if isAdmin {
			return true, "", nil
		}
		return false, "you are not the employee's manager", nil

	case RoleHR, RoleAdmin:
		has, err := r.roles.HasRole(ctx, tenantID, actorID, role)
		if err != nil {
			return false, "", err
		}
		if has {
			return true, "", nil
		}
		return false, "you do not hold the " + role + " role required at this approval level", nil

	default:
		r.logger.Warn("unknown approver role in chain",
			zap.String("tenant_id", tenantID),
			zap.String("role", role),
		)
		return false, "unable to determine approval permissions", nil
	}
}
