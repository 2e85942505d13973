package middleware

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ComplaintDesk/internal/auth"
	apperrors "ComplaintDesk/internal/pkg/errors"
	"ComplaintDesk/internal/pkg/logger"
)

// rbacModel matches the registered route pattern (c.Path()) exactly, so a
// policy line names a route, not a URL.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// roleMember is granted to every role and carries the routes all
// authenticated users share.
const roleMember = "member"

var routePolicies = [][]string{
	{roleMember, "/api/auth/me", http.MethodGet},
	{roleMember, "/api/complaints", http.MethodGet},
	{roleMember, "/api/complaints/:id", http.MethodGet},
	{roleMember, "/api/complaints/:id", http.MethodPut},
	{roleMember, "/api/notifications", http.MethodGet},
	{roleMember, "/api/notifications/unread-count", http.MethodGet},
	{roleMember, "/api/notifications/read-all", http.MethodPut},
	{roleMember, "/api/notifications/:id/read", http.MethodPut},

	{string(auth.RoleStudent), "/api/complaints", http.MethodPost},
	{string(auth.RoleStudent), "/api/complaints/:id/feedback", http.MethodPost},

	{string(auth.RoleStaff), "/api/complaints", http.MethodPost},
	{string(auth.RoleStaff), "/api/complaints/:id/feedback", http.MethodPost},
	{string(auth.RoleStaff), "/api/complaints/:id/status", http.MethodPut},

	{string(auth.RoleAdmin), "/api/complaints/:id/status", http.MethodPut},
	{string(auth.RoleAdmin), "/api/complaints/:id/assign", http.MethodPut},
	{string(auth.RoleAdmin), "/api/complaints/:id", http.MethodDelete},
	{string(auth.RoleAdmin), "/api/complaints/stats/summary", http.MethodGet},
}

// NewEnforcer builds the route RBAC enforcer from the in-code model and
// policy.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create rbac enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(routePolicies); err != nil {
		return nil, fmt.Errorf("add rbac policies: %w", err)
	}
	for _, role := range []auth.Role{auth.RoleStudent, auth.RoleStaff, auth.RoleAdmin} {
		if _, err := enforcer.AddGroupingPolicy(string(role), roleMember); err != nil {
			return nil, fmt.Errorf("add rbac role %s: %w", role, err)
		}
	}
	logger.Info("rbac enforcer ready", zap.Int("policies", len(routePolicies)))
	return enforcer, nil
}

// CasbinMiddleware gates each route by the caller's role. It must run after
// JWTMiddleware.
func CasbinMiddleware(enforcer *casbin.Enforcer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := auth.IdentityFrom(c)
			if !ok {
				return apperrors.Unauthenticated(apperrors.CodeTokenInvalid, "invalid or missing token")
			}
			role := string(identity.Role)
			obj := c.Path()
			act := c.Request().Method

			allowed, err := enforcer.Enforce(role, obj, act)
			if err != nil {
				logger.Error("rbac enforce failed", zap.Error(err))
				return apperrors.Internal(apperrors.CodeInternal, "internal server error")
			}
			if !allowed {
				logger.Debug("rbac denied",
					zap.String("role", role),
					zap.String("route", obj),
					zap.String("method", act),
				)
				return apperrors.Forbidden(apperrors.CodeRoleForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
