// Package access resolves caller roles and authorizes mutating operations.
//
// Bootstrap rule: principals listed in BOOTSTRAP_ADMINS always resolve to
// admin, regardless of any stored assignment. They exist so a fresh
// deployment has someone able to call AssignRole. Their role cannot be
// changed through AssignRole; remove them from the configuration instead.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopbridge/internal/domain"
	rolerepo "shopbridge/internal/repository/role"

	"go.uber.org/zap"
)

// Action names a gated operation.
type Action string

const (
	ActionPlaceOrder       Action = "order.place"
	ActionViewOwnOrders    Action = "order.view_own"
	ActionManageOrders     Action = "order.manage"
	ActionViewAllOrders    Action = "order.view_all"
	ActionSetMarkup        Action = "pricing.set_markup"
	ActionConfigurePayment Action = "payment.configure"
	ActionAssignRole       Action = "role.assign"
	ActionManageCatalog    Action = "catalog.manage"
)

var requiredRole = map[Action]domain.Role{
	ActionPlaceOrder:       domain.RoleUser,
	ActionViewOwnOrders:    domain.RoleUser,
	ActionManageOrders:     domain.RoleAdmin,
	ActionViewAllOrders:    domain.RoleAdmin,
	ActionSetMarkup:        domain.RoleAdmin,
	ActionConfigurePayment: domain.RoleAdmin,
	ActionAssignRole:       domain.RoleAdmin,
	ActionManageCatalog:    domain.RoleAdmin,
}

var roleRank = map[domain.Role]int{
	domain.RoleGuest: 0,
	domain.RoleUser:  1,
	domain.RoleAdmin: 2,
}

// Grant is returned by a successful Authorize. Mutating entry points take
// their principal from the grant rather than from the raw request.
type Grant struct {
	Principal string
	Role      domain.Role
	Action    Action
}

type Gate struct {
	roles     rolerepo.Repository
	bootstrap map[string]struct{}
	logger    *zap.Logger
	now       func() time.Time
}

func New(roles rolerepo.Repository, bootstrapAdmins []string, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	bootstrap := make(map[string]struct{}, len(bootstrapAdmins))
	for _, p := range bootstrapAdmins {
		if p = strings.TrimSpace(p); p != "" {
			bootstrap[p] = struct{}{}
		}
	}
	return &Gate{
		roles:     roles,
		bootstrap: bootstrap,
		logger:    logger.Named("access"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (g *Gate) IsBootstrapAdmin(principal string) bool {
	_, ok := g.bootstrap[principal]
	return ok
}

// Resolve maps a principal to its role. An empty principal is a guest and
// principals without a stored assignment are users.
func (g *Gate) Resolve(ctx context.Context, principal string) (domain.Role, error) {
	if principal == "" {
		return domain.RoleGuest, nil
	}
	if g.IsBootstrapAdmin(principal) {
		return domain.RoleAdmin, nil
	}
	a, err := g.roles.Get(ctx, principal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RoleUser, nil
		}
		return "", err
	}
	return a.Role, nil
}

func (g *Gate) Authorize(ctx context.Context, principal string, action Action) (Grant, error) {
	need, ok := requiredRole[action]
	if !ok {
		return Grant{}, fmt.Errorf("%w: unknown action %q", domain.ErrUnauthorized, action)
	}
	role, err := g.Resolve(ctx, principal)
	if err != nil {
		return Grant{}, err
	}
	if roleRank[role] < roleRank[need] {
		g.logger.Info("access denied",
			zap.String("principal", principal),
			zap.String("role", string(role)),
			zap.String("action", string(action)),
		)
		return Grant{}, fmt.Errorf("%w: %s requires %s", domain.ErrUnauthorized, action, need)
	}
	return Grant{Principal: principal, Role: role, Action: action}, nil
}

// AssignRole stores role for target. Only user and admin can be assigned.
func (g *Gate) AssignRole(ctx context.Context, caller, target string, role domain.Role) (*domain.RoleAssignment, error) {
	grant, err := g.Authorize(ctx, caller, ActionAssignRole)
	if err != nil {
		return nil, err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("%w: target principal required", domain.ErrInvalidArgument)
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot assign role %q", domain.ErrInvalidArgument, role)
	}
	if g.IsBootstrapAdmin(target) {
		return nil, fmt.Errorf("%w: %s is a bootstrap admin", domain.ErrInvalidArgument, target)
	}
	a, err := g.roles.Upsert(ctx, domain.RoleAssignment{
		Principal:  target,
		Role:       role,
		AssignedBy: grant.Principal,
		AssignedAt: g.now(),
	})
	if err != nil {
		return nil, err
	}
	g.logger.Info("role assigned",
		zap.String("principal", target),
		zap.String("role", string(role)),
		zap.String("assigned_by", grant.Principal),
	)
	return a, nil
}
