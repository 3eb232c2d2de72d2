package approval

import (
	"context"
	"sync"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

// Domain-scoped RBAC: subjects are employee ids, domains are tenant ids.
const modelText = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && r.dom == p.dom && r.obj == p.obj && r.act == p.act
`

func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	return casbin.NewEnforcer(m)
}

// RoleChecker answers "does this actor hold role X in tenant Y". Policies
// are loaded per tenant from employee_roles rows, mirroring how the org
// data is administered.
type RoleChecker struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewRoleChecker(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) *RoleChecker {
	l := zap.L().Named("approval.roles")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.roles")
	}
	return &RoleChecker{repo: repo, enforcer: enforcer, logger: l}
}

func (c *RoleChecker) LoadTenantPolicy(ctx context.Context, tenantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enforcer.ClearPolicy()

	roles, err := c.repo.EmployeeRoles(ctx, tenantID)
	if err != nil {
		return err
	}
	c.logger.Debug("load role policy",
		zap.String("tenant_id", tenantID),
		zap.Int("employee_roles", len(roles)),
	)

	for _, er := range roles {
		if _, err := c.enforcer.AddGroupingPolicy(
			er.EmployeeID.String(),
			"role:"+er.Role,
			tenantID,
		); err != nil {
			return err
		}
	}

	for _, role := range []string{RoleHR, RoleAdmin} {
		if _, err := c.enforcer.AddPolicy(
			"role:"+role,
			tenantID,
			"leave_request",
			"approve:"+role,
		); err != nil {
			return err
		}
	}
	return nil
}

// HasRole reloads the tenant's policy and enforces. Policy sets are
// small (one tenant at a time), so the reload keeps checks fresh
// without cache invalidation machinery.
func (c *RoleChecker) HasRole(ctx context.Context, tenantID, actorID, role string) (bool, error) {
	if err := c.LoadTenantPolicy(ctx, tenantID); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enforcer.Enforce(actorID, tenantID, "leave_request", "approve:"+role)
}
