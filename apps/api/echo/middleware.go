package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func superadminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsSuperadmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// permissionMiddleware gates a route on the requester's resolved permission
// map. Admins bypass the check. A resolution failure fails closed.
func permissionMiddleware(repo role.Repository, logger core.Logger, requireAll bool, keys ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}

			perms, err := role.BuildMap(ctx.Request().Context(), repo, claims.Subject)
			if err != nil {
				logger.Error("resolving permissions", errors.Wrap(err, "building permission map"))
				perms = nil // fail closed
			}

			guard := role.NewGuard(role.Resolved{Perms: perms}, role.GuardConfig{
				Keys:       keys,
				RequireAll: requireAll,
			})
			if guard.Evaluate() == role.DecisionGranted {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
